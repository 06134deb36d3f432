package page

import (
	"fmt"
	"strconv"

	"github.com/gokernel/rescore/pkg/frame"
	"github.com/gokernel/rescore/pkg/hart"
	"github.com/gokernel/rescore/pkg/lock"
	"github.com/gokernel/rescore/pkg/metrics"
)

// ShardedAllocator gives each hart its own free list and spinlock.
// Free always pushes onto the caller's own hart's list. Alloc pops
// from the caller's hart first and, if that list is empty, walks every
// other hart's list — holding at most one per-hart lock at a time —
// until it finds a frame or gives up.
type ShardedAllocator struct {
	arena   *frame.Arena
	locks   []*lock.Spinlock
	free    []frame.Frame
	metrics *metrics.PageAllocator
}

// NewShardedAllocator carves an arena of n frames, creates ncpu named
// per-hart free lists ("kmem0".."kmem<ncpu-1>"), and seeds every frame
// onto hart 0's list — exactly where the original allocator's init
// leaves them, before any stealing has happened. m may be nil.
func NewShardedAllocator(ncpu, n int, m *metrics.PageAllocator) *ShardedAllocator {
	if ncpu < 1 {
		panic("page: NewShardedAllocator requires ncpu >= 1")
	}
	arena, frames := frame.NewArena(n)
	a := &ShardedAllocator{
		arena:   arena,
		locks:   make([]*lock.Spinlock, ncpu),
		free:    make([]frame.Frame, ncpu),
		metrics: m,
	}
	for i := range a.locks {
		a.locks[i] = lock.NewSpinlock(fmt.Sprintf("kmem%d", i))
	}
	for _, f := range frames {
		a.Free(hart.ID(0), f)
	}
	return a
}

// NCPU returns the number of per-hart free lists.
func (a *ShardedAllocator) NCPU() int { return len(a.locks) }

// Arena exposes the backing arena so tests can inspect frame bytes.
func (a *ShardedAllocator) Arena() *frame.Arena { return a.arena }

func (a *ShardedAllocator) index(id hart.ID) int {
	return int(id) % len(a.locks)
}

// Free poisons f and pushes it onto id's free list. f must be
// 4 KiB-aligned and lie within the arena, or Free panics.
func (a *ShardedAllocator) Free(id hart.ID, f frame.Frame) {
	if !a.arena.Contains(f) {
		panic("kfree")
	}
	a.arena.Poison(f, frame.PoisonFreed)

	h := a.index(id)
	a.locks[h].Lock()
	a.arena.SetNext(f, a.free[h])
	a.free[h] = f
	a.locks[h].Unlock()

	if a.metrics != nil {
		a.metrics.FreeFrames.WithLabelValues(strconv.Itoa(h)).Inc()
	}
}

// Alloc pops a frame from id's free list, stealing from another hart's
// list if id's own list is empty. Returns false only if every hart's
// list is empty.
func (a *ShardedAllocator) Alloc(id hart.ID) (frame.Frame, bool) {
	h := a.index(id)

	if f, ok := a.popLocal(h); ok {
		return f, true
	}

	for i := range a.locks {
		if i == h {
			continue
		}
		if f, ok := a.popLocal(i); ok {
			if a.metrics != nil {
				a.metrics.Steals.Inc()
			}
			return f, true
		}
	}
	return 0, false
}

func (a *ShardedAllocator) popLocal(h int) (frame.Frame, bool) {
	a.locks[h].Lock()
	f := a.free[h]
	if f != 0 {
		a.free[h] = a.arena.Next(f)
	}
	a.locks[h].Unlock()

	if f == 0 {
		return 0, false
	}
	if a.metrics != nil {
		a.metrics.FreeFrames.WithLabelValues(strconv.Itoa(h)).Dec()
	}
	a.arena.Poison(f, frame.PoisonAllocated)
	return f, true
}
