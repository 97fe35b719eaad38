package profiler

import "time"

type ProfilerBuilderOption func(*Profiler)

// WithInterval sets how often stats are logged.
//
// Parameters:
//   - d: the interval, ignored if <= 0
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the interval
func WithInterval(d time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if d > 0 {
			p.updateInterval = d
		}
	}
}

// WithStatsSource appends the string returned by fn to every logged line.
//
// Parameters:
//   - fn: called once per logged line
//
// Returns:
//   - ProfilerBuilderOption: a function that sets the source
func WithStatsSource(fn func() string) ProfilerBuilderOption {
	return func(p *Profiler) {
		p.statsSource = fn
	}
}

// WithLogger replaces log.Printf as the output.
func WithLogger(logf func(format string, args ...any)) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logf != nil {
			p.logf = logf
		}
	}
}
