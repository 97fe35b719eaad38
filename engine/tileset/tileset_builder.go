package tileset

type LoaderOption func(*loader)

// WithWorkers sets how many sheets are decoded at once.
//
// Parameters:
//   - n: worker count, ignored if < 1
//
// Returns:
//   - LoaderOption: a function that sets the worker count
func WithWorkers(n int) LoaderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithMaxInstances sets the per-surface instance capacity of registries built from the tileset.
//
// Parameters:
//   - n: the capacity, ignored if 0
//
// Returns:
//   - LoaderOption: a function that sets the capacity
func WithMaxInstances(n uint32) LoaderOption {
	return func(l *loader) {
		if n > 0 {
			l.maxInstances = n
		}
	}
}
