package queue

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

// countingAllocator tracks node traffic so tests can account for every
// retired node coming back through the reclamation manager.
type countingAllocator[T any] struct {
	allocs atomic.Int64
	frees  atomic.Int64
}

func (a *countingAllocator[T]) Alloc() (*Node[T], error) {
	a.allocs.Add(1)
	return new(Node[T]), nil
}

func (a *countingAllocator[T]) Free(n *Node[T]) {
	a.frees.Add(1)
}

func TestLockFreeRetiredNodesReachAllocator(t *testing.T) {
	alloc := &countingAllocator[int]{}
	q := NewLockFree(WithAllocator[int](alloc))

	const n = 1000
	for i := range n {
		require.NoError(t, q.Enqueue(i))
	}
	for i := range n {
		v, err := q.Dequeue()
		require.NoError(t, err)
		require.Equal(t, i, v)
	}

	for q.mgr.Pending() > 0 {
		q.mgr.Reclaim()
	}

	// Each dequeue retires exactly one node: the initial sentinel plus
	// all allocated nodes except the one left behind as the final
	// sentinel. Net: retired == dequeued == allocated.
	require.Equal(t, int64(n), alloc.allocs.Load())
	require.Equal(t, int64(n), alloc.frees.Load())
}

// clearCheckAllocator flags any node handed back before being cleared.
type clearCheckAllocator[T any] struct {
	sawDirty atomic.Bool
}

func (a *clearCheckAllocator[T]) Alloc() (*Node[T], error) {
	return new(Node[T]), nil
}

func (a *clearCheckAllocator[T]) Free(n *Node[T]) {
	if n.value.IsSet() || n.next.Load() != nil {
		a.sawDirty.Store(true)
	}
}

func TestLockFreeNodesClearedBeforeFree(t *testing.T) {
	alloc := &clearCheckAllocator[string]{}
	q := NewLockFree(WithAllocator[string](alloc))

	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	v, err := q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "a", v)
	v, err = q.Dequeue()
	require.NoError(t, err)
	require.Equal(t, "b", v)

	for q.mgr.Pending() > 0 {
		q.mgr.Reclaim()
	}
	// A retired node's value slot is cleared at reclaim time, never
	// earlier: a losing dequeuer may still read it after the retire.
	require.False(t, alloc.sawDirty.Load(), "node freed without being cleared")
}

func TestLockFreeStressReclamation(t *testing.T) {
	alloc := &countingAllocator[int]{}
	q := NewLockFree(WithAllocator[int](alloc))

	const (
		workers = 4
		rounds  = 10000
	)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				if err := q.Enqueue(w*rounds + i); err != nil {
					t.Error(err)
					return
				}
				if _, err := q.Dequeue(); err != nil {
					t.Error("queue unexpectedly empty")
					return
				}
			}
		}()
	}
	wg.Wait()

	for q.mgr.Pending() > 0 {
		q.mgr.Reclaim()
	}
	require.Equal(t, int64(workers*rounds), alloc.allocs.Load())
	require.Equal(t, int64(workers*rounds), alloc.frees.Load())
	require.Equal(t, 0, q.Len())
}
