// Package ctxsync provides synchronization primitives whose blocking
// operations honor context cancellation.
package ctxsync

import (
	"context"
)

// NewMutex creates a new instance of Mutex.
func NewMutex() *Mutex {
	return &Mutex{
		sem: make(chan struct{}, 1),
	}
}

// A Mutex is a mutual exclusion lock. Acquiring goroutines are served in
// the order their lock calls reach the underlying channel.
type Mutex struct {
	sem chan struct{}
}

// Lock locks the mutex, waiting indefinitely.
func (m *Mutex) Lock() {
	_ = m.LockWithContext(context.Background())
}

// LockWithContext locks the mutex, waiting until it is available or ctx is
// canceled. The mutex is not held when an error is returned.
func (m *Mutex) LockWithContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case m.sem <- struct{}{}:
		return nil
	}
}

// TryLock tries to lock m and reports whether it succeeded.
func (m *Mutex) TryLock() bool {
	select {
	case m.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// Unlock unlocks m. It panics if m is not locked.
func (m *Mutex) Unlock() {
	select {
	case <-m.sem:
	default:
		panic("ctxsync: unlock of unlocked mutex")
	}
}
