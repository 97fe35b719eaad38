package signal

import (
	"log"
	"sync"
)

// DefaultQueueSize is the number of undelivered values a Bus holds before Publish drops.
const DefaultQueueSize = 64

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// Bus is a typed signal channel between producer goroutines (HTTP feed, window callbacks) and
// the render goroutine. Publish is safe from any goroutine; subscribers only run inside Drain,
// on the goroutine that calls it.
type Bus[T any] struct {
	name  string
	queue chan T

	mu     sync.Mutex
	subs   []subscriber[T]
	nextID uint64
}

// NewBus creates a Bus.
//
// Parameters:
//   - name: a debug name used in log lines
//   - queueSize: the pending value capacity (DefaultQueueSize when <= 0)
//
// Returns:
//   - *Bus[T]: the new bus
func NewBus[T any](name string, queueSize int) *Bus[T] {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Bus[T]{
		name:  name,
		queue: make(chan T, queueSize),
	}
}

// Subscribe registers fn. Subscribers are called in subscription order.
//
// Parameters:
//   - fn: the callback, run on the draining goroutine
//
// Returns:
//   - func(): unsubscribes fn; safe to call more than once
func (b *Bus[T]) Subscribe(fn func(T)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscriber[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish queues v for the next Drain without blocking.
//
// Parameters:
//   - v: the value to publish
//
// Returns:
//   - bool: false if the queue is full and v was dropped
func (b *Bus[T]) Publish(v T) bool {
	select {
	case b.queue <- v:
		return true
	default:
		log.Printf("[Signal] %s: queue full, dropping value", b.name)
		return false
	}
}

// Drain delivers every queued value to the current subscribers, in publish order.
//
// Returns:
//   - int: the number of values delivered
func (b *Bus[T]) Drain() int {
	n := 0
	for {
		select {
		case v := <-b.queue:
			b.deliver(v)
			n++
		default:
			return n
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Bus[T]) deliver(v T) {
	b.mu.Lock()
	subs := make([]subscriber[T], len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}
