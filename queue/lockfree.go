package queue

import (
	"iter"
	"sync/atomic"

	"github.com/go-queues/msq/reclaim"
)

// LockFree is the non-blocking Michael & Scott queue. Head and tail
// are CAS-updated atomic pointers; a lagging tail is advanced by
// whichever operation notices it, so no thread ever waits on another.
//
// Retired sentinels pass through an epoch-based reclamation manager
// before their memory re-enters the allocator. Recycling a node while
// a concurrent operation still holds its address would let a CAS
// succeed against the wrong generation of the node (the ABA problem);
// the manager rules that out.
type LockFree[T any] struct {
	head   atomic.Pointer[Node[T]]
	tail   atomic.Pointer[Node[T]]
	length atomic.Int64
	alloc  Allocator[T]
	mgr    *reclaim.Manager[*Node[T]]
}

// NewLockFree returns an empty lock-free queue holding only a
// sentinel.
func NewLockFree[T any](opts ...Option[T]) *LockFree[T] {
	c := newConfig(opts)
	q := &LockFree[T]{alloc: c.alloc}
	q.mgr = reclaim.New(func(n *Node[T]) {
		// Earliest point at which no concurrent operation can read
		// the node: clear it and let the allocator reuse the memory.
		n.reset()
		q.alloc.Free(n)
	})
	s := new(Node[T])
	q.head.Store(s)
	q.tail.Store(s)
	return q
}

// NewLockFreeFrom returns a lock-free queue pre-filled with the values
// of seq in order.
func NewLockFreeFrom[T any](seq iter.Seq[T], opts ...Option[T]) (*LockFree[T], error) {
	q := NewLockFree(opts...)
	if err := fill[T](q, seq); err != nil {
		return nil, err
	}
	return q, nil
}

// Enqueue appends v at the tail. The loop retries only while other
// enqueuers win the link race; helping keeps the tail at most one node
// behind the true end of the list.
func (q *LockFree[T]) Enqueue(v T) error {
	n, err := q.alloc.Alloc()
	if err != nil {
		return ErrAlloc
	}
	n.value.Set(v)

	g := q.mgr.Pin()
	defer g.Unpin()
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if next != nil {
			// An in-flight enqueue linked its node but has not yet
			// swung the tail; help it forward and retry.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		if tail.next.CompareAndSwap(nil, n) {
			// Linked: this is the linearization point. The swing may
			// lose to a helper, which already did the work.
			q.tail.CompareAndSwap(tail, n)
			q.length.Add(1)
			return nil
		}
	}
}

// Dequeue removes the oldest element, or fails with ErrEmpty. The old
// sentinel is retired rather than freed: a concurrent operation may
// still hold a pointer to it.
func (q *LockFree[T]) Dequeue() (T, error) {
	g := q.mgr.Pin()
	defer g.Unpin()
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head == tail {
			if next == nil {
				var zero T
				return zero, ErrEmpty
			}
			// Tail lags behind the node about to be dequeued; help
			// it past before moving head.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		// Read the value before the CAS: the instant it succeeds,
		// another dequeuer may retire next.
		v, _ := next.value.Get()
		if q.head.CompareAndSwap(head, next) {
			q.length.Add(-1)
			q.mgr.Retire(head)
			return v, nil
		}
	}
}

// Len reports the number of queued elements.
func (q *LockFree[T]) Len() int {
	return int(q.length.Load())
}

// Drain pops until empty, yielding each value in FIFO order.
func (q *LockFree[T]) Drain() iter.Seq[T] {
	return drain[T](q)
}
