package timer

import (
	"ockernel/kernel/errors"
	"ockernel/kernel/sync"
	"sync/atomic"
)

// ErrTimerRegister is returned by Registry.Register when the registry's
// capacity reservation fails. It is distinct from ErrTimerAdd: the former
// is about growing the process-wide registry of timer sources itself, the
// latter is about scheduling a callback within one already-registered
// State's queue (original_source/timer.rs keeps these as separate error
// types).
const ErrTimerRegister = errors.KernelError("timer: registry capacity exhausted")

// maxRegistered bounds the registry the same way a fixed-capacity
// allocation-free array would on a kernel that has no heap yet at the
// point timers are first registered.
const maxRegistered = 64

// Registry is a process-wide, append-only collection of named timer
// States. Appends are serialised by a spin lock; reads (Len, Get) need no
// lock since they only ever observe already-published entries via an
// acquire-ordered length.
type Registry struct {
	lock   sync.Spinlock
	states [maxRegistered]*State
	length uint32
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends s to the registry and returns its stable index handle.
func (r *Registry) Register(s *State) (int, error) {
	r.lock.Acquire()
	defer r.lock.Release()

	n := atomic.LoadUint32(&r.length)
	if int(n) >= maxRegistered {
		return 0, ErrTimerRegister
	}

	r.states[n] = s
	atomic.StoreUint32(&r.length, n+1)

	return int(n), nil
}

// Len returns the number of registered states, acquire-ordered so that a
// reader never observes a slot before its State pointer is published.
func (r *Registry) Len() int {
	return int(atomic.LoadUint32(&r.length))
}

// Get returns the state registered at handle, or nil if handle is out of
// range.
func (r *Registry) Get(handle int) *State {
	if handle < 0 || handle >= r.Len() {
		return nil
	}
	return r.states[handle]
}
