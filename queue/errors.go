package queue

import "errors"

// ErrEmpty is returned by Dequeue when no element was available at the
// operation's linearization point.
var ErrEmpty = errors.New("queue is empty")

// ErrAlloc is returned by Enqueue when the allocator could not supply
// a node. Nothing is linked; the queue is left unchanged.
var ErrAlloc = errors.New("node allocation failed")
