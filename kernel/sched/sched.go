// Package sched implements the uniprocessor, preemptive scheduler hook
// described in spec §4.H: a set of tasks each carrying a complete saved
// register frame, and a context_switch operation that copies the
// interrupted task's frame out, picks the next runnable task by a
// deterministic round-robin-weighted-by-niceness policy, and overwrites
// the caller's frame in place so the subsequent iret resumes a different
// task.
package sched

import "ockernel/kernel/idt"

// ExecMode is a task's run state.
type ExecMode int

const (
	// Running means the task is eligible to be chosen by ContextSwitch.
	Running ExecMode = iota
	// Blocked means the task is suspended inside block_until, waiting on
	// a completion callback to re-queue it.
	Blocked
	// Exited means the task has terminated and must never be chosen
	// again; it is reclaimed lazily.
	Exited
)

// PageDirectory is the address-space collaborator a Task references.
// Ownership and implementation (page tables, TLB invalidation) belong to
// the memory-management layer this spec excludes (spec §1); only the
// contract the scheduler needs to drive a context switch is declared
// here.
type PageDirectory interface {
	// SwitchTo makes this directory the active one (loads it into cr3 on
	// this architecture).
	SwitchTo()

	// Fork returns a copy-on-write duplicate of this directory, used by
	// the Fork syscall (spec §4.I.6).
	Fork() PageDirectory
}

// Task is one schedulable unit: a saved register frame plus the
// bookkeeping the scheduler needs to pick among runnable tasks.
type Task struct {
	Frame idt.Frame

	Niceness int
	CPUTime  uint64
	ExecMode ExecMode
	Pid      *uint32
	PageDir  PageDirectory

	// turnsLeft is the scheduler's own bookkeeping: the number of
	// consecutive context switches remaining before this task's
	// niceness-derived weight is spent and the walk advances. It has no
	// meaning outside Scheduler.pickNext.
	turnsLeft int
}

// NewTask returns a task with the given initial frame, ready to run.
func NewTask(frame idt.Frame, pageDir PageDirectory) *Task {
	return &Task{Frame: frame, PageDir: pageDir, ExecMode: Running}
}

// Scheduler owns the set of tasks and the currently-running one.
//
// The "current CPU" is hard-coded to the single task the scheduler is
// tracking as running; per spec §9's open question, this design is
// explicitly uniprocessor and the data model does not attempt to pick
// among multiple CPUs.
type Scheduler struct {
	tasks   []*Task
	current int
}

// NewScheduler returns a scheduler with no tasks. Callers must Add at
// least one task before the first ContextSwitch.
func NewScheduler() *Scheduler {
	return &Scheduler{current: -1}
}

// Add enqueues t as a runnable task. If no task is currently selected, t
// becomes the current one.
func (s *Scheduler) Add(t *Task) {
	s.tasks = append(s.tasks, t)
	if s.current == -1 {
		s.current = len(s.tasks) - 1
	}
}

// Current returns the task the scheduler currently considers running, or
// nil if none has been selected yet.
func (s *Scheduler) Current() *Task {
	if s.current < 0 || s.current >= len(s.tasks) {
		return nil
	}
	return s.tasks[s.current]
}

// ContextSwitch performs the four steps of spec §4.H:
//
//  1. Copies frame into the current task's stored frame.
//  2. Chooses the next Running task (round-robin weighted by niceness).
//  3. Overwrites frame in place with the chosen task's stored frame.
//  4. Switches the active page directory to the chosen task's.
//
// It is a no-op if no task has ever been added.
func (s *Scheduler) ContextSwitch(frame *idt.Frame) {
	cur := s.Current()
	if cur == nil {
		return
	}
	cur.CPUTime++
	cur.Frame = *frame

	next := s.pickNext()
	if next == nil {
		return
	}

	*frame = next.Frame
	next.PageDir.SwitchTo()
}

// pickNext implements the round-robin-weighted-by-niceness policy: the
// current task keeps the CPU until its niceness-derived weight of
// consecutive turns is spent, then the walk advances to the next Running
// task in list order and loads its weight. The walk always terminates
// deterministically given identical inputs, per spec §4.H.
func (s *Scheduler) pickNext() *Task {
	n := len(s.tasks)
	if n == 0 {
		return nil
	}

	if cur := s.tasks[s.current]; cur.ExecMode == Running && cur.turnsLeft > 0 {
		cur.turnsLeft--
		return cur
	}

	for i := 1; i <= n; i++ {
		idx := (s.current + i) % n
		t := s.tasks[idx]
		if t.ExecMode == Running {
			s.current = idx
			t.turnsLeft = weight(t.Niceness) - 1
			return t
		}
	}

	return nil
}

// weight turns niceness into a positive scheduling weight: higher niceness
// (more "nice", i.e. more willing to yield) gets fewer consecutive turns.
// Niceness 0 and above gives a single turn, so tasks at the default
// niceness alternate on every switch; each step below 0 adds one turn.
// The weight is clamped to [1, 20].
func weight(niceness int) int {
	w := 1 - niceness
	if w < 1 {
		w = 1
	}
	if w > 20 {
		w = 20
	}
	return w
}
