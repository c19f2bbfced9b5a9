// Package reclaim implements epoch-based memory reclamation for
// lock-free data structures.
//
// A goroutine pins the manager before dereferencing shared pointers and
// unpins when done. A value retired through the manager is freed only
// once every pin that could have observed it has been released, so its
// memory is never reused while another goroutine may still compare
// against its address.
package reclaim

import (
	"runtime"
	"sync"
	"sync/atomic"

	ring "github.com/eapache/queue"
)

const (
	// maxReaders bounds the number of concurrently pinned operations.
	maxReaders = 128

	// reclaimEvery is the number of retirements between opportunistic
	// sweeps.
	reclaimEvery = 64

	inactive = ^uint64(0)
)

// slot records the epoch a pinned reader entered at, or inactive.
// Padded so neighboring readers do not share a cache line.
type slot struct {
	epoch atomic.Uint64
	_     [56]byte
}

type retired[T any] struct {
	value T
	stamp uint64
}

// Manager defers freeing retired values until no pinned operation can
// still hold a reference to them.
type Manager[T any] struct {
	epoch atomic.Uint64
	slots [maxReaders]slot

	free func(T)

	mu      sync.Mutex
	retired *ring.Queue
	retires atomic.Uint64
}

// New creates a Manager that hands reclaimed values to free. The free
// callback is invoked exactly once per retired value, always outside
// the manager's internal lock.
func New[T any](free func(T)) *Manager[T] {
	m := &Manager[T]{
		free:    free,
		retired: ring.New(),
	}
	for i := range m.slots {
		m.slots[i].epoch.Store(inactive)
	}
	return m
}

// Guard marks a critical section. Values retired by other goroutines
// are not freed while any guard that could have observed them is live.
type Guard struct {
	s *slot
}

// Pin enters a critical section. Every shared pointer dereferenced
// before the matching Unpin is protected from reclamation. Guards do
// not nest.
func (m *Manager[T]) Pin() Guard {
	for {
		for i := range m.slots {
			s := &m.slots[i]
			e := m.epoch.Load()
			if !s.epoch.CompareAndSwap(inactive, e) {
				continue
			}
			// Re-publish until the global epoch stops moving, so a
			// sweep racing with the first store cannot miss this
			// reader.
			for {
				cur := m.epoch.Load()
				if cur == e {
					return Guard{s: s}
				}
				s.epoch.Store(cur)
				e = cur
			}
		}
		// All slots taken by other pinned operations.
		runtime.Gosched()
	}
}

// Unpin leaves the critical section.
func (g Guard) Unpin() {
	g.s.epoch.Store(inactive)
}

// Retire hands v to the manager. The caller must not touch v after
// this call; it is freed once no pinned operation can still observe
// it. Sweeps run opportunistically every few retirements.
func (m *Manager[T]) Retire(v T) {
	r := retired[T]{value: v, stamp: m.epoch.Load()}
	m.mu.Lock()
	m.retired.Add(r)
	m.mu.Unlock()

	if m.retires.Add(1)%reclaimEvery == 0 {
		m.Reclaim()
	}
}

// Reclaim advances the global epoch and frees every retired value no
// pinned reader can still reach, returning how many were freed.
func (m *Manager[T]) Reclaim() int {
	m.epoch.Add(1)
	min := m.minActive()

	m.mu.Lock()
	var batch []T
	for m.retired.Length() > 0 {
		r := m.retired.Peek().(retired[T])
		if min != inactive && r.stamp >= min {
			// Stamps are queued in near-FIFO order (concurrent
			// retirers may interleave by one epoch), so nothing
			// behind an unsafe entry is worth scanning.
			break
		}
		m.retired.Remove()
		batch = append(batch, r.value)
	}
	m.mu.Unlock()

	for _, v := range batch {
		m.free(v)
	}
	return len(batch)
}

// Pending reports how many retired values await reclamation.
func (m *Manager[T]) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retired.Length()
}

// Epoch returns the current global epoch.
func (m *Manager[T]) Epoch() uint64 {
	return m.epoch.Load()
}

// minActive returns the smallest epoch among pinned readers, or
// inactive when nothing is pinned. A retired value stamped below this
// epoch cannot be observed by any current or future pin: pins are
// published before any shared dereference, and a value is stamped only
// after it became unreachable from the structure's roots.
func (m *Manager[T]) minActive() uint64 {
	min := inactive
	for i := range m.slots {
		if e := m.slots[i].epoch.Load(); e < min {
			min = e
		}
	}
	return min
}
