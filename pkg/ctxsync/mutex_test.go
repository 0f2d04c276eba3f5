package ctxsync_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dossierdb/dossier/pkg/ctxsync"
)

// Multiple goroutines should not be able to acquire the same lock.
func TestLock(t *testing.T) {
	workers := 1000

	n := 0
	mu := ctxsync.NewMutex()

	ready := sync.WaitGroup{}
	done := sync.WaitGroup{}
	ready.Add(workers)
	done.Add(workers)

	ch := make(chan struct{})

	for range workers {
		go func() {
			defer done.Done()
			ready.Done()
			<-ch // released after all goroutines are parked here
			mu.Lock()
			defer mu.Unlock()
			n++
		}()
	}

	ready.Wait()
	close(ch) // all goroutines call Lock at once

	done.Wait()
	assert.Equal(t, workers, n)
}

// Calling LockWithContext with a live context should not return any errors.
func TestContext(t *testing.T) {
	mu := ctxsync.NewMutex()

	assert.NoError(t, mu.LockWithContext(context.Background()))
	mu.Unlock()
}

// Should return an error when the context is canceled while waiting.
func TestCanceling(t *testing.T) {
	mu := ctxsync.NewMutex()
	mu.Lock()

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- mu.LockWithContext(ctx)
	}()

	time.Sleep(time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-errCh, context.Canceled)
	mu.Unlock()

	// The canceled waiter must not have consumed the lock slot.
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

// Should not wait for the lock if the passed context is already canceled.
func TestCanceledContext(t *testing.T) {
	mu := ctxsync.NewMutex()
	mu.Lock()
	defer mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, mu.LockWithContext(ctx), context.Canceled)
}

// Should panic if Unlock is called before Lock.
func TestUnlockWithoutLock(t *testing.T) {
	mu := ctxsync.NewMutex()
	assert.Panics(t, func() {
		mu.Unlock()
	})
}

// Should not lock a locked mutex.
func TestTryLockLocked(t *testing.T) {
	mu := ctxsync.NewMutex()

	mu.Lock()
	assert.False(t, mu.TryLock())

	mu.Unlock()
	assert.True(t, mu.TryLock())
	mu.Unlock()
}

// Should panic if Unlock is called twice without another Lock.
func TestDoubleUnlock(t *testing.T) {
	mu := ctxsync.NewMutex()

	mu.Lock()
	mu.Unlock()

	assert.Panics(t, func() {
		mu.Unlock()
	})
}

// BenchmarkLockUnlock tests performance for consecutive Lock/Unlock calls.
func BenchmarkLockUnlock(b *testing.B) {
	mu := ctxsync.NewMutex()
	ctx := context.Background()

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			mu.LockWithContext(ctx)
			mu.Unlock()
		}
	})
}
