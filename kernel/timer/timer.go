// Package timer programs the 8254 Programmable Interval Timer and keeps
// the kernel's notion of elapsed time: a tick counter ("jiffies") plus a
// sorted queue of callbacks to run once their deadline has passed.
package timer

import (
	"ockernel/kernel/cpu"
	"ockernel/kernel/errors"
	"ockernel/kernel/idt"
	"ockernel/kernel/sync"
)

// PIT port addresses and the fixed base frequency of the 8254's input
// clock, per original_source/kernel/src/timer.rs.
const (
	commandPort = 0x43
	channel0    = 0x40

	// mode3LoHi selects channel 0, lo/hi byte access, mode 3 (square wave).
	mode3LoHi = 0x36

	baseFrequency = 1193180
)

var portWriteByteFn = cpu.PortWriteByte

// Init programs the PIT to fire at hz ticks per second. It must run
// before interrupts are enabled and before State.Tick is wired to the
// timer IRQ vector.
func Init(hz uint32) {
	divisor := baseFrequency / hz

	portWriteByteFn(commandPort, mode3LoHi)
	portWriteByteFn(channel0, uint8(divisor))
	portWriteByteFn(channel0, uint8(divisor>>8))
}

// ErrTimerAdd is returned by AddAt/AddIn when the requested deadline has
// already passed.
const ErrTimerAdd = errors.KernelError("timer: deadline is not in the future")

// Callback is invoked with the frame active at the tick that drained it.
type Callback func(frame *idt.Frame)

// timerEntry is one slot in State's sorted queue.
type timerEntry struct {
	expiresAt uint64
	cb        Callback
}

// State tracks jiffies and the sorted queue of pending callbacks for one
// timer source (typically the PIT on IRQ0). All operations are safe for
// concurrent/reentrant use via the internal spin lock.
type State struct {
	hz uint32

	lock    sync.Spinlock
	jiffies uint64
	queue   []timerEntry
}

// NewState returns a State ticking at hz jiffies/sec, starting at
// jiffies()==0.
func NewState(hz uint32) *State {
	return &State{hz: hz}
}

// Hz returns the configured tick rate.
func (s *State) Hz() uint32 {
	return s.hz
}

// Jiffies returns the number of ticks observed so far.
func (s *State) Jiffies() uint64 {
	s.lock.Acquire()
	defer s.lock.Release()
	return s.jiffies
}

// Tick increments jiffies by one and drains every queued callback whose
// deadline has passed, in ascending-deadline order, invoking each with
// frame. The lock is released around every callback invocation: callbacks
// may call AddAt/AddIn re-entrantly but must never call Tick or TickSilent
// themselves.
func (s *State) Tick(frame *idt.Frame) {
	s.lock.Acquire()
	s.jiffies++
	now := s.jiffies
	s.lock.Release()

	for {
		s.lock.Acquire()
		if len(s.queue) == 0 || s.queue[0].expiresAt > now {
			s.lock.Release()
			return
		}
		due := s.queue[0]
		s.queue = s.queue[1:]
		s.lock.Release()

		due.cb(frame)
	}
}

// TickSilent increments jiffies by one without draining the queue. It
// gives callers monotonic time without paying for a scan, and is also
// useful for deterministic tests that want to advance jiffies without
// triggering side effects.
func (s *State) TickSilent() {
	s.lock.Acquire()
	s.jiffies++
	s.lock.Release()
}

// AddAt schedules cb to run once jiffies() >= expiresAt. It rejects
// deadlines that have already passed, and otherwise inserts in sorted
// order, stable (FIFO) among equal deadlines.
func (s *State) AddAt(expiresAt uint64, cb Callback) error {
	s.lock.Acquire()
	defer s.lock.Release()

	if expiresAt <= s.jiffies {
		return ErrTimerAdd
	}

	i := 0
	for i < len(s.queue) && s.queue[i].expiresAt <= expiresAt {
		i++
	}
	s.queue = append(s.queue, timerEntry{})
	copy(s.queue[i+1:], s.queue[i:])
	s.queue[i] = timerEntry{expiresAt: expiresAt, cb: cb}

	return nil
}

// AddIn schedules cb to run delta jiffies from now, returning the absolute
// deadline as a handle suitable for a later RemoveAt call.
func (s *State) AddIn(delta uint64, cb Callback) (uint64, error) {
	s.lock.Acquire()
	expiresAt := s.jiffies + delta
	s.lock.Release()

	if err := s.AddAt(expiresAt, cb); err != nil {
		return 0, err
	}
	return expiresAt, nil
}

// RemoveAt removes at most one queued entry with the given deadline.
func (s *State) RemoveAt(expiresAt uint64) {
	s.lock.Acquire()
	defer s.lock.Release()

	for i, e := range s.queue {
		if e.expiresAt == expiresAt {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return
		}
	}
}
