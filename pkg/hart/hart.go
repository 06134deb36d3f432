// Package hart models hardware-thread identity for the sharded page
// allocator's per-hart free lists. A real kernel reads this from a
// CPU-local register while interrupts are disabled so the read stays
// valid across the list operation that follows it; a hosted Go runtime
// has no such register, so the requirement is surfaced to the caller
// instead: Pin locks the calling goroutine to its OS thread for the
// duration of a critical section and hands the section a stable ID.
package hart

import (
	"context"
	"runtime"
)

// ID identifies one of NCPU simulated harts.
type ID int

type ctxKey struct{}

// Pin locks the calling goroutine to its current OS thread, runs fn
// with id bound into ctx, then unlocks. Use it to bracket exactly the
// free-list push/pop that must observe a single, stable hart identity,
// matching the original allocator's push_off()/cpuid()/pop_off() bracket.
func Pin(ctx context.Context, id ID, fn func(context.Context)) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	fn(context.WithValue(ctx, ctxKey{}, id))
}

// From extracts the hart ID a surrounding Pin call bound into ctx.
func From(ctx context.Context) (ID, bool) {
	id, ok := ctx.Value(ctxKey{}).(ID)
	return id, ok
}

// Registry round-robin-assigns stable hart IDs to callers, standing in
// for the scheduler's placement of kernel harts onto physical cores.
// The bench harness leases one ID per worker goroutine at startup and
// keeps it for that goroutine's lifetime.
type Registry struct {
	n    int
	next int
}

// NewRegistry creates a registry over n harts (0..n-1).
func NewRegistry(n int) *Registry {
	if n <= 0 {
		panic("hart: NewRegistry requires n > 0")
	}
	return &Registry{n: n}
}

// Lease hands out the next hart ID in round-robin order.
func (r *Registry) Lease() ID {
	id := ID(r.next % r.n)
	r.next++
	return id
}

// N returns the number of harts in the registry.
func (r *Registry) N() int { return r.n }
