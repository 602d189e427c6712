// Package syscall implements the syscall dispatcher (spec §4.I), the
// block_until suspension primitive (spec §4.J, block.go), and the
// external-collaborator contracts (spec §6, fsenv.go) the two consume.
package syscall

import (
	"ockernel/kernel/errors"
	"ockernel/kernel/idt"
	"ockernel/kernel/kfmt"
	"ockernel/kernel/sched"
	"reflect"
	"unsafe"
)

// Register ABI (spec §4.I.1): this dispatcher picks eax/ebx/ecx/edx/esi
// for num/arg0/arg1/arg2/arg3 and keeps it fixed.
func readArgs(frame *idt.Frame) (num Num, arg0, arg1, arg2, arg3 uint32) {
	return Num(int32(frame.EAX)), frame.EBX, frame.ECX, frame.EDX, frame.ESI
}

// Dispatcher wires one IDT vector to the syscall ABI above.
type Dispatcher struct {
	manager   *idt.Manager
	vector    uint8
	scheduler *sched.Scheduler
	procs     ProcessTable
}

// NewDispatcher returns a Dispatcher that will install itself on vector
// when Install is called.
func NewDispatcher(manager *idt.Manager, vector uint8, scheduler *sched.Scheduler, procs ProcessTable) *Dispatcher {
	return &Dispatcher{manager: manager, vector: vector, scheduler: scheduler, procs: procs}
}

// Install registers the dispatcher on its vector with a ring-3-callable
// gate, per spec §4.I's "registered on a dedicated vector with ring-3
// callable gate (Call flags)".
func (d *Dispatcher) Install() {
	d.manager.Register(d.vector, idt.Call, d.handle)
}

// currentProcess resolves the process the currently-scheduled task
// belongs to.
func (d *Dispatcher) currentProcess() (*sched.Task, *Process) {
	task := d.scheduler.Current()
	if task == nil || task.Pid == nil {
		return task, nil
	}
	return task, d.procs.Get(*task.Pid)
}

// userBytes reinterprets a (ptr, length) register pair as a byte slice.
// Full address-space validation belongs to the page-directory/VMM layer
// this spec excludes (spec §1); this core only rejects the one case it
// can cheaply catch itself: a null pointer with a non-zero length. A zero
// length yields a nil slice whatever the pointer.
func userBytes(ptr, length uint32) ([]byte, error) {
	if ptr == 0 && length != 0 {
		return nil, errors.EINVALIDARGUMENT
	}
	if length == 0 {
		return nil, nil
	}
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(length),
		Cap:  int(length),
		Data: uintptr(ptr),
	})), nil
}

// userString decodes a (ptr, length) pair as a path string.
func userString(ptr, length uint32) (string, error) {
	b, err := userBytes(ptr, length)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// handle is the Handler installed on the syscall vector. It implements
// the six steps of spec §4.I.
func (d *Dispatcher) handle(frame *idt.Frame) {
	num, arg0, arg1, arg2, arg3 := readArgs(frame)

	if !num.Valid() {
		kfmt.Printf("syscall: invalid syscall number %d\n", int32(num))
		writeResult(frame, errnoResult(errors.EINVALIDARGUMENT))
		return
	}

	task, proc := d.currentProcess()
	if task == nil {
		writeResult(frame, errnoResult(errors.ENOSUCHPROCESS))
		return
	}

	if proc == nil && num != Exit && num != Fork {
		writeResult(frame, errnoResult(errors.ENOSUCHPROCESS))
		return
	}

	switch num {
	case IsComputerOn:
		writeResult(frame, proc.FSEnv.IsComputerOn())
		return

	case Exit:
		d.exit(proc, frame)
		return

	case Fork:
		d.fork(task, proc, frame)
		return

	case Chdir:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		writeResult(frame, proc.FSEnv.Chdir(path))
		return

	case Chroot:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		writeResult(frame, proc.FSEnv.Chroot(path))
		return

	case Close:
		writeResult(frame, proc.FSEnv.Close(int32(arg0)))
		return

	case Dup:
		writeResult(frame, proc.FSEnv.Dup(int32(arg0)))
		return

	case Dup2:
		writeResult(frame, proc.FSEnv.Dup2(int32(arg0), int32(arg1)))
		return
	}

	// Everything remaining is asynchronous (spec §4.I.4): it goes
	// through BlockUntil so another task can run while the fs
	// environment completes the operation.
	d.dispatchAsync(num, arg0, arg1, arg2, arg3, task, proc, frame)
}

// dispatchAsync validates and starts one of the asynchronous operations,
// wiring its completion through BlockUntil.
func (d *Dispatcher) dispatchAsync(num Num, arg0, arg1, arg2, arg3 uint32, task *sched.Task, proc *Process, frame *idt.Frame) {
	switch num {
	case Chmod:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		// permissions must fit in 16 bits, per spec §4.I.3's example.
		if arg2 > 0xFFFF {
			writeResult(frame, errnoResult(errors.EVALUEOVERFLOW))
			return
		}
		permissions := uint16(arg2)
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Chmod(path, permissions, done)
			return nil
		})

	case Chown:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Chown(path, arg2, arg3, done)
			return nil
		})

	case Open:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		flags := arg2
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Open(path, flags, done)
			return nil
		})

	case Read:
		buf, err := userBytes(arg1, arg2)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		fd := int32(arg0)
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Read(fd, buf, done)
			return nil
		})

	case Seek:
		fd, offset, whence := int32(arg0), int64(int32(arg1)), int32(arg2)
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Seek(fd, offset, whence, done)
			return nil
		})

	case Stat:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		buf, err := userBytes(arg2, arg3)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Stat(path, buf, done)
			return nil
		})

	case Truncate:
		fd, length := int32(arg0), int64(int32(arg1))
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Truncate(fd, length, done)
			return nil
		})

	case Unlink:
		path, err := userString(arg0, arg1)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Unlink(path, done)
			return nil
		})

	case Write:
		buf, err := userBytes(arg1, arg2)
		if err != nil {
			writeResult(frame, errnoResult(err))
			return
		}
		fd := int32(arg0)
		BlockUntil(task, d.scheduler, frame, true, func(done Completion) error {
			proc.FSEnv.Write(fd, buf, done)
			return nil
		})
	}
}

// exit implements spec §4.I.5: marks the current thread, and every peer
// thread of its process, Exited, then invokes context_switch. The current
// task's own exec_mode is set first, independently of the process
// thread-list walk below, so a one-off task whose pid lookup fails (no
// Process) still exits correctly.
func (d *Dispatcher) exit(proc *Process, frame *idt.Frame) {
	if task := d.scheduler.Current(); task != nil {
		task.ExecMode = sched.Exited
	}
	if proc != nil {
		for _, t := range proc.Threads {
			t.ExecMode = sched.Exited
		}
	}
	d.scheduler.ContextSwitch(frame)
}

// fork implements spec §4.I.6: duplicates the calling thread's frame into
// a new task with its return register preset to 0, forks the page
// directory, and enqueues both parent and child. The parent's return
// register receives the new pid; the child's remains 0.
func (d *Dispatcher) fork(task *sched.Task, proc *Process, frame *idt.Frame) {
	childFrame := *frame
	childFrame.EAX = 0

	childDir := task.PageDir.Fork()
	child := sched.NewTask(childFrame, childDir)

	var childPid uint32
	if proc != nil {
		childProc := &Process{FSEnv: proc.FSEnv}
		childPid = d.procs.Insert(childProc)
		childProc.Pid = childPid
		childProc.Threads = append(childProc.Threads, child)
		pid := childPid
		child.Pid = &pid
	}

	d.scheduler.Add(child)
	writeResult(frame, Result(childPid))
}
