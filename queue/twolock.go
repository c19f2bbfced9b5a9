package queue

import (
	"iter"
	"sync"
	"sync/atomic"
)

// TwoLock is the blocking Michael & Scott queue. One lock serializes
// enqueuers, an independent one serializes dequeuers, so the two ends
// proceed in parallel. An operation only ever waits for its own lock,
// never for queue content.
type TwoLock[T any] struct {
	headLock sync.Mutex // guards head and the links read through it
	tailLock sync.Mutex // guards tail and its next link
	head     *Node[T]
	tail     *Node[T]
	length   atomic.Int64
	alloc    Allocator[T]
}

// NewTwoLock returns an empty two-lock queue holding only a sentinel.
func NewTwoLock[T any](opts ...Option[T]) *TwoLock[T] {
	c := newConfig(opts)
	s := new(Node[T])
	return &TwoLock[T]{head: s, tail: s, alloc: c.alloc}
}

// NewTwoLockFrom returns a two-lock queue pre-filled with the values
// of seq in order.
func NewTwoLockFrom[T any](seq iter.Seq[T], opts ...Option[T]) (*TwoLock[T], error) {
	q := NewTwoLock(opts...)
	if err := fill[T](q, seq); err != nil {
		return nil, err
	}
	return q, nil
}

// Enqueue appends v at the tail. It linearizes at the tail update and
// never touches the head lock.
func (q *TwoLock[T]) Enqueue(v T) error {
	n, err := q.alloc.Alloc()
	if err != nil {
		return ErrAlloc
	}
	n.value.Set(v)

	q.tailLock.Lock()
	q.tail.next.Store(n)
	q.tail = n
	q.tailLock.Unlock()

	q.length.Add(1)
	return nil
}

// Dequeue removes the oldest element. It fails with ErrEmpty rather
// than waiting when the queue holds no element at the linearization
// point.
func (q *TwoLock[T]) Dequeue() (T, error) {
	q.headLock.Lock()
	old := q.head
	next := old.next.Load()
	if next == nil {
		q.headLock.Unlock()
		var zero T
		return zero, ErrEmpty
	}
	v, _ := next.value.Take() // next is the new sentinel
	q.head = next
	q.headLock.Unlock()

	q.length.Add(-1)

	// The old sentinel became unreachable when head moved past it;
	// mutual exclusion lets this variant reclaim eagerly.
	old.reset()
	q.alloc.Free(old)
	return v, nil
}

// Len reports the number of queued elements.
func (q *TwoLock[T]) Len() int {
	return int(q.length.Load())
}

// Drain pops until empty, yielding each value in FIFO order.
func (q *TwoLock[T]) Drain() iter.Seq[T] {
	return drain[T](q)
}
