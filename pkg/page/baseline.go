// Package page implements the physical page allocator: a baseline
// single free list and a hart-sharded variant with work stealing.
package page

import (
	"github.com/gokernel/rescore/pkg/frame"
	"github.com/gokernel/rescore/pkg/lock"
)

// BaselineAllocator protects one LIFO free list with a single
// spinlock. Alloc pops, Free pushes; init frees every frame in the
// arena up front, the same freerange()-calls-kfree path the scaled
// allocator's init uses.
type BaselineAllocator struct {
	mu    *lock.Spinlock
	arena *frame.Arena
	free  frame.Frame
}

// NewBaselineAllocator carves an arena of n frames and seeds the free
// list with all of them.
func NewBaselineAllocator(n int) *BaselineAllocator {
	arena, frames := frame.NewArena(n)
	a := &BaselineAllocator{mu: lock.NewSpinlock("kmem"), arena: arena}
	for _, f := range frames {
		a.Free(f)
	}
	return a
}

// Alloc returns a freshly poisoned frame, or false if the free list is
// empty.
func (a *BaselineAllocator) Alloc() (frame.Frame, bool) {
	a.mu.Lock()
	f := a.free
	if f != 0 {
		a.free = a.arena.Next(f)
	}
	a.mu.Unlock()

	if f == 0 {
		return 0, false
	}
	a.arena.Poison(f, frame.PoisonAllocated)
	return f, true
}

// Free returns f to the free list. f must be 4 KiB-aligned and lie
// within the arena, or Free panics — the same fatal check kfree makes.
func (a *BaselineAllocator) Free(f frame.Frame) {
	if !a.arena.Contains(f) {
		panic("kfree")
	}
	a.arena.Poison(f, frame.PoisonFreed)

	a.mu.Lock()
	a.arena.SetNext(f, a.free)
	a.free = f
	a.mu.Unlock()
}

// Arena exposes the backing arena so tests can inspect frame bytes.
func (a *BaselineAllocator) Arena() *frame.Arena { return a.arena }
