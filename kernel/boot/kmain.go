// Package boot performs the bring-up sequence that wires the core
// together: PIC remap, IDT manager construction and registration, timer
// programming, and enabling interrupts. It is kept separate from the root
// kernel package (which kfmt, and therefore this package, already depends
// on) purely to avoid an import cycle.
package boot

import (
	"ockernel/kernel"
	"ockernel/kernel/cpu"
	"ockernel/kernel/idt"
	"ockernel/kernel/kfmt"
	"ockernel/kernel/pic"
	"ockernel/kernel/sched"
	"ockernel/kernel/syscall"
	"ockernel/kernel/timer"
)

// timerVector and syscallVector are this kernel's fixed choice of IDT
// slots for IRQ0 (remapped by pic.Init to 0x20+n) and the software
// syscall gate, respectively.
const (
	timerVector   = 0x20
	syscallVector = 0x80

	// tickRate is the PIT frequency this kernel boots at (spec §8
	// scenario 1/2 both use hz=1000 as their worked example).
	tickRate = 1000
)

// Runtime is the live set of subsystems Kmain wires together: the
// interrupt manager, the timer driving preemption, and the scheduler the
// timer tick and syscall dispatcher both drive via ContextSwitch.
type Runtime struct {
	IDT       *idt.Manager
	Timer     *timer.State
	Scheduler *sched.Scheduler
}

// Kmain performs the bring-up sequence spec §8 scenario 1 describes:
// init_pic(); register(0x20, timer.tick); load_handlers(); sti. It mirrors
// the teacher's Kmain in spirit (probe hardware, wire interrupts, hand
// off to the scheduler) but scoped to exactly what this core owns.
func Kmain(procs syscall.ProcessTable) *Runtime {
	pic.Init()

	manager := idt.NewManager()
	scheduler := sched.NewScheduler()
	tState := timer.NewState(tickRate)

	manager.RegisterAborts(func(f *idt.Frame) { handleAbort(f) })
	manager.RegisterFaults(func(f *idt.Frame) { handleFault(f) })

	manager.Register(timerVector, idt.Interrupt, func(f *idt.Frame) {
		tState.Tick(f)
		scheduler.ContextSwitch(f)
	})

	dispatcher := syscall.NewDispatcher(manager, syscallVector, scheduler, procs)
	dispatcher.Install()

	manager.LoadHandlers()
	timer.Init(tickRate)

	cpuEnableInterruptsFn()

	return &Runtime{IDT: manager, Timer: tState, Scheduler: scheduler}
}

// cpuEnableInterruptsFn is a variable so tests can boot a Runtime without
// actually executing sti on a host that isn't the target architecture.
var cpuEnableInterruptsFn = cpu.Sti

// handleAbort handles the unrecoverable vectors: a fault taken in kernel
// mode prints a register dump and panics. A fault taken in user mode
// (ring 3) is ignored: the handler returns without terminating the task.
func handleAbort(f *idt.Frame) {
	faultPolicy(f)
}

// handleFault applies the same policy to the retryable exception vectors.
// The frame carries no vector number, so the error code of every fault is
// rendered through kernel/idt's PageFaultErrorCode decoder.
func handleFault(f *idt.Frame) {
	faultPolicy(f)
}

// userModeRingMask is the low two bits of cs that mark a ring-3 (user
// mode) return; a gate taken from kernel code always has the low two bits
// of cs clear.
const userModeRingMask = 0x3

func faultPolicy(f *idt.Frame) {
	if f.CS&userModeRingMask != 0 {
		// User-mode faults are not acted on: no task is terminated
		// and execution returns to the faulting context.
		return
	}

	// esp and ss are only pushed by the CPU on a privilege change, so
	// they are not part of a kernel-mode dump.
	kfmt.Printf("fault: eax=0x%x ebx=0x%x ecx=0x%x edx=0x%x esi=0x%x edi=0x%x ebp=0x%x\n",
		f.EAX, f.EBX, f.ECX, f.EDX, f.ESI, f.EDI, f.EBP)
	kfmt.Printf("fault: eip=0x%x cs=0x%x ds=0x%x eflags=0x%x error_code=%s\n",
		f.EIP, f.CS, f.DS, f.EFlags, idt.PageFaultErrorCode(f.ErrorCode).String())
	kfmt.Panic(&kernel.Error{Module: "idt", Message: "unrecoverable architectural fault in kernel mode"})
}
