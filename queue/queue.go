// Package queue implements the two classic Michael & Scott concurrent
// FIFO queues: a blocking two-lock variant and a lock-free variant
// built on compare-and-swap with epoch-based node reclamation.
//
// Both variants are unbounded, multi-producer multi-consumer, and
// return ErrEmpty instead of waiting when there is nothing to dequeue.
package queue

import "iter"

// Queue is the surface shared by both variants.
type Queue[T any] interface {
	// Enqueue appends v at the tail. It fails only when node
	// allocation fails.
	Enqueue(v T) error

	// Dequeue removes and returns the oldest element, or ErrEmpty.
	Dequeue() (T, error)

	// Len reports the number of queued elements. The count is exact
	// when quiescent and approximate under concurrent operations.
	Len() int
}

// Option configures a queue at construction time.
type Option[T any] func(*config[T])

type config[T any] struct {
	alloc Allocator[T]
}

// WithAllocator supplies a custom node allocator. The default recycles
// nodes through a sync.Pool.
func WithAllocator[T any](a Allocator[T]) Option[T] {
	return func(c *config[T]) { c.alloc = a }
}

func newConfig[T any](opts []Option[T]) config[T] {
	c := config[T]{}
	for _, o := range opts {
		o(&c)
	}
	if c.alloc == nil {
		c.alloc = newPooledAllocator[T]()
	}
	return c
}

// drain pops until empty, yielding each value.
func drain[T any](q Queue[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := q.Dequeue()
			if err != nil || !yield(v) {
				return
			}
		}
	}
}

// fill enqueues every value of seq in order.
func fill[T any](q Queue[T], seq iter.Seq[T]) error {
	for v := range seq {
		if err := q.Enqueue(v); err != nil {
			return err
		}
	}
	return nil
}
