// Package lock provides the two mutex flavors the buffer cache and
// page allocator are specified against: a non-blocking Spinlock and a
// blocking SleepLock. Neither is reentrant.
//
// A hosted Go program has no interrupt controller to disable, so the
// "disables local-hart interrupts while held" clause of the spinlock
// contract has no faithful analogue here; sync.Mutex already gives the
// mutual-exclusion guarantee every invariant in this module actually
// depends on, so that's what backs it. See DESIGN.md.
package lock

import (
	"sync"
	"sync/atomic"
)

// Spinlock is a named, non-blocking mutex. The name mirrors the
// original kernel's practice of naming every lock ("bcacheHashLock",
// "kmem0", "kmem1", ...) so a deadlock trace can name its culprit.
type Spinlock struct {
	name string
	mu   sync.Mutex
	held atomic.Bool
}

// NewSpinlock constructs a named spinlock.
func NewSpinlock(name string) *Spinlock {
	return &Spinlock{name: name}
}

// Name returns the lock's debug name.
func (s *Spinlock) Name() string { return s.name }

// Lock acquires the spinlock, blocking the caller until it is free.
func (s *Spinlock) Lock() {
	s.mu.Lock()
	s.held.Store(true)
}

// Unlock releases the spinlock. Unlocking an unheld spinlock panics,
// the same programmer error the kernel's release() treats as fatal.
func (s *Spinlock) Unlock() {
	if !s.held.Load() {
		panic("spinlock: release of unheld lock: " + s.name)
	}
	s.held.Store(false)
	s.mu.Unlock()
}

// Holding reports whether the spinlock is currently held by anyone.
// It exists for assertions, not for synchronization.
func (s *Spinlock) Holding() bool { return s.held.Load() }

// SleepLock is a blocking mutex that may suspend its caller on
// contention, consumed by the buffer cache to serialize use of a
// buffer's data across bread/bwrite/brelse.
type SleepLock struct {
	name string
	ch   chan struct{}
	held atomic.Bool
}

// NewSleepLock constructs a named, initially-unlocked sleep lock.
func NewSleepLock(name string) *SleepLock {
	l := &SleepLock{name: name, ch: make(chan struct{}, 1)}
	l.ch <- struct{}{}
	return l
}

// Name returns the lock's debug name.
func (l *SleepLock) Name() string { return l.name }

// Acquire blocks until the lock is free, then takes it.
func (l *SleepLock) Acquire() {
	<-l.ch
	l.held.Store(true)
}

// Release releases a held sleep lock. Releasing an unheld lock panics.
func (l *SleepLock) Release() {
	if !l.held.Load() {
		panic("sleeplock: release of unheld lock: " + l.name)
	}
	l.held.Store(false)
	l.ch <- struct{}{}
}

// Holding reports whether the sleep lock is currently held.
func (l *SleepLock) Holding() bool { return l.held.Load() }
