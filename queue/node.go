package queue

import (
	"sync/atomic"

	"github.com/go-queues/msq/types/optional"
)

// Node is a singly linked queue cell. The node a queue's head points
// at is the sentinel: its value slot is empty and only its next link
// is meaningful.
//
// The next link is atomic in both variants. The two-lock queue
// publishes tail.next under one lock but reads head.next under an
// independent one, so the link itself must be the synchronization
// edge between the two ends.
type Node[T any] struct {
	value optional.Optional[T]
	next  atomic.Pointer[Node[T]]
}

// reset clears a node before its memory becomes reusable. It must only
// be called once no other goroutine can reach the node.
func (n *Node[T]) reset() {
	n.value = optional.None[T]()
	n.next.Store(nil)
}
