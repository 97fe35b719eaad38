package profiler

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestTickBeforeInterval(t *testing.T) {
	var lines []string
	p := NewProfiler(
		WithInterval(time.Hour),
		WithLogger(func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }),
	)
	for range 10 {
		if p.Tick() {
			t.Fatal("Tick() logged before the interval elapsed")
		}
	}
	if len(lines) != 0 {
		t.Errorf("logged %d lines", len(lines))
	}
}

func TestTickLogsStatsSource(t *testing.T) {
	tests := []struct {
		name   string
		source func() string
		want   string
	}{
		{name: "with stats", source: func() string { return "z: 0 | a.png: 12" }, want: "| z: 0 | a.png: 12"},
		{name: "empty stats", source: func() string { return "" }, want: "MB"},
		{name: "no source", want: "MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lines []string
			opts := []ProfilerBuilderOption{
				WithInterval(time.Nanosecond),
				WithLogger(func(format string, args ...any) { lines = append(lines, fmt.Sprintf(format, args...)) }),
			}
			if tt.source != nil {
				opts = append(opts, WithStatsSource(tt.source))
			}
			p := NewProfiler(opts...)
			time.Sleep(time.Millisecond)
			if !p.Tick() {
				t.Fatal("Tick() did not log after the interval")
			}
			if len(lines) != 1 || !strings.HasPrefix(lines[0], "[Profiler] FPS:") {
				t.Fatalf("lines = %q", lines)
			}
			if !strings.HasSuffix(lines[0], tt.want) {
				t.Errorf("line %q does not end with %q", lines[0], tt.want)
			}
			if !strings.HasSuffix(p.LastLine(), tt.want) {
				t.Errorf("LastLine() = %q", p.LastLine())
			}
		})
	}
}
