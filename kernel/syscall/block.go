package syscall

import (
	"ockernel/kernel/errors"
	"ockernel/kernel/idt"
	"ockernel/kernel/sched"
)

// writeResult encodes result into the frame's return register using this
// dispatcher's documented convention: non-negative values are written
// verbatim, negative values (errors) as their two's-complement bit
// pattern, the same encoding a negative Errno already has as an int32.
func writeResult(frame *idt.Frame, result Result) {
	frame.EAX = uint32(int32(result))
}

// errnoResult converts an error from the errors package (or any error
// implementing the errors.Errno contract) into a negative Result.
func errnoResult(err error) Result {
	if e, ok := err.(errors.Errno); ok {
		return Result(-int64(e))
	}
	return Result(-int64(errors.EINVALIDARGUMENT))
}

// BlockUntil is the primitive every asynchronous syscall goes through
// (spec §4.J). setup is handed a Completion; it is expected to register
// that Completion with the fs environment (or invoke it immediately, for
// operations that happen to finish synchronously) and return nil, or
// return an error if the operation could not even be started.
//
//  1. If willBlock, the task's ExecMode is set to Blocked before setup
//     runs.
//  2. setup runs. If it returns an error, that error is written into
//     frame and the task is not blocked (or is unblocked again).
//  3. If the Completion fires synchronously inside setup (didBlock=false)
//     the result is written into frame and ContextSwitch is skipped
//     entirely — this resolves spec §9's open question about composing
//     did_block=false with an already-issued context switch by never
//     issuing one in the first place.
//  4. Otherwise, once setup returns having begun an async operation,
//     ContextSwitch is invoked so another task runs while this one is
//     blocked. The Completion itself, whenever it later fires from
//     interrupt context, writes the result into the task's stored frame
//     (frame by then holds the task ContextSwitch picked) and (if
//     didBlock) transitions the task back to Running; the scheduler will
//     pick it up again once some future tick finds it Running.
func BlockUntil(task *sched.Task, scheduler *sched.Scheduler, frame *idt.Frame, willBlock bool, setup func(done Completion) error) {
	if willBlock {
		task.ExecMode = sched.Blocked
	}

	completedSync := false
	switched := false
	done := func(result Result, didBlock bool) {
		if switched {
			writeResult(&task.Frame, result)
		} else {
			writeResult(frame, result)
		}
		if didBlock {
			task.ExecMode = sched.Running
		} else {
			completedSync = true
		}
	}

	if err := setup(done); err != nil {
		task.ExecMode = sched.Running
		writeResult(frame, errnoResult(err))
		return
	}

	if completedSync {
		task.ExecMode = sched.Running
		return
	}

	if willBlock {
		switched = true
		scheduler.ContextSwitch(frame)
	}
}
