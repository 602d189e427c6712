// Package sync provides synchronization primitive implementations for
// spinlocks. It backs the timer state's queue lock and the global timer
// registry lock (spec §3/§5); the scheduler itself needs no lock of its
// own since it only ever runs with interrupts disabled on the single CPU
// this core targets (spec §9, open question 2).
package sync

import "sync/atomic"

var (
	// yieldFn is invoked between failed acquire attempts. It is
	// overridden by tests so that goroutine-backed specs don't spin
	// forever waiting for the Go scheduler to run a competing goroutine.
	//
	// TODO: once a second CPU ever exists this should call into the
	// scheduler's pause/yield primitive instead of spinning in place.
	yieldFn func()
)

// Spinlock implements a lock where each task trying to acquire it busy-waits
// till the lock becomes available.
type Spinlock struct {
	state uint32
}

// Acquire blocks until the lock can be acquired by the currently active task.
// Any attempt to re-acquire a lock already held by the current task will cause
// a deadlock.
func (l *Spinlock) Acquire() {
	const attemptsBeforeYielding = 1000

	attempts := 0
	for atomic.SwapUint32(&l.state, 1) != 0 {
		cpuPause()
		attempts++
		if attempts >= attemptsBeforeYielding {
			attempts = 0
			if yieldFn != nil {
				yieldFn()
			}
		}
	}
}

// TryToAcquire attempts to acquire the lock and returns true if the lock could
// be acquired or false otherwise.
func (l *Spinlock) TryToAcquire() bool {
	return atomic.SwapUint32(&l.state, 1) == 0
}

// Release relinquishes a held lock allowing other tasks to acquire it. Calling
// Release while the lock is free has no effect.
func (l *Spinlock) Release() {
	atomic.StoreUint32(&l.state, 0)
}

// cpuPause executes the x86 PAUSE instruction, hinting to the CPU that the
// calling code is inside a spin-wait loop.
func cpuPause()
