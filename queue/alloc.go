package queue

import "sync"

// Allocator supplies node memory to a queue and accepts it back.
// Implementations must be safe for concurrent use from any number of
// goroutines.
type Allocator[T any] interface {
	// Alloc returns a cleared node ready to be linked, or an error
	// when no memory is available.
	Alloc() (*Node[T], error)

	// Free takes back a node. The queue clears a node before freeing
	// it and guarantees it is no longer reachable by any operation.
	Free(*Node[T])
}

// pooledAllocator recycles nodes through a sync.Pool.
type pooledAllocator[T any] struct {
	pool sync.Pool
}

func newPooledAllocator[T any]() *pooledAllocator[T] {
	a := &pooledAllocator[T]{}
	a.pool.New = func() any { return new(Node[T]) }
	return a
}

func (a *pooledAllocator[T]) Alloc() (*Node[T], error) {
	return a.pool.Get().(*Node[T]), nil
}

func (a *pooledAllocator[T]) Free(n *Node[T]) {
	a.pool.Put(n)
}
