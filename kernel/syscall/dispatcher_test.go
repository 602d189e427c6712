package syscall

import (
	"ockernel/kernel/idt"
	"ockernel/kernel/sched"
	"testing"
	"unsafe"
)

type fakeFSEnv struct {
	isComputerOnResult Result
	readResult         Result
	readBlocks         bool
}

func (f *fakeFSEnv) Chdir(path string) Result           { return 0 }
func (f *fakeFSEnv) Chroot(path string) Result          { return 0 }
func (f *fakeFSEnv) Close(fd int32) Result              { return 0 }
func (f *fakeFSEnv) Dup(fd int32) Result                { return Result(fd + 1) }
func (f *fakeFSEnv) Dup2(oldFd, newFd int32) Result     { return Result(newFd) }
func (f *fakeFSEnv) IsComputerOn() Result                { return f.isComputerOnResult }

func (f *fakeFSEnv) Chmod(path string, permissions uint16, done Completion) { done(0, false) }
func (f *fakeFSEnv) Chown(path string, uid, gid uint32, done Completion)    { done(0, false) }
func (f *fakeFSEnv) Open(path string, flags uint32, done Completion)        { done(3, false) }
func (f *fakeFSEnv) Read(fd int32, buf []byte, done Completion) {
	done(f.readResult, f.readBlocks)
}
func (f *fakeFSEnv) Seek(fd int32, offset int64, whence int32, done Completion) { done(0, false) }
func (f *fakeFSEnv) Stat(path string, buf []byte, done Completion)              { done(0, false) }
func (f *fakeFSEnv) Truncate(fd int32, length int64, done Completion)          { done(0, false) }
func (f *fakeFSEnv) Unlink(path string, done Completion)                       { done(0, false) }
func (f *fakeFSEnv) Write(fd int32, buf []byte, done Completion)               { done(0, false) }

type fakeProcessTable struct {
	procs  map[uint32]*Process
	nextID uint32
}

func newFakeProcessTable() *fakeProcessTable {
	return &fakeProcessTable{procs: make(map[uint32]*Process)}
}

func (t *fakeProcessTable) Get(pid uint32) *Process { return t.procs[pid] }
func (t *fakeProcessTable) Insert(p *Process) uint32 {
	t.nextID++
	t.procs[t.nextID] = p
	return t.nextID
}

func setupDispatcher(t *testing.T, fsenv *fakeFSEnv) (*Dispatcher, *sched.Task, *sched.Scheduler) {
	t.Helper()

	manager := idt.NewManager()
	scheduler := sched.NewScheduler()
	procs := newFakeProcessTable()

	pid := procs.Insert(&Process{FSEnv: fsenv})
	task := sched.NewTask(idt.Frame{}, fakePageDir{})
	task.Pid = &pid
	procs.procs[pid].Threads = []*sched.Task{task}
	scheduler.Add(task)

	d := NewDispatcher(manager, 0x80, scheduler, procs)
	d.Install()

	return d, task, scheduler
}

func TestIsComputerOnReturnsOne(t *testing.T) {
	fsenv := &fakeFSEnv{isComputerOnResult: 1}
	d, _, _ := setupDispatcher(t, fsenv)

	frame := idt.Frame{EAX: uint32(IsComputerOn)}
	d.handle(&frame)

	if frame.EAX != 1 {
		t.Fatalf("expected IsComputerOn to return 1, got %d", frame.EAX)
	}
}

func TestInvalidSyscallNumberWritesError(t *testing.T) {
	d, _, _ := setupDispatcher(t, &fakeFSEnv{})

	frame := idt.Frame{EAX: 0xFFFF}
	d.handle(&frame)

	if int32(frame.EAX) >= 0 {
		t.Fatalf("expected a negative error code, got %d", int32(frame.EAX))
	}
}

func TestReadBlocksUntilCompletion(t *testing.T) {
	fsenv := &fakeFSEnv{readResult: 123, readBlocks: true}
	d, task, _ := setupDispatcher(t, fsenv)

	buf := make([]byte, 16)
	frame := idt.Frame{
		EAX: uint32(Read),
		EBX: 3,
		ECX: uint32(uintptr(unsafe.Pointer(ptrOf(buf)))),
		EDX: uint32(len(buf)),
	}
	d.handle(&frame)

	if frame.EAX != 123 {
		t.Fatalf("expected return register to hold byte count 123, got %d", frame.EAX)
	}
	if task.ExecMode != sched.Running {
		t.Fatalf("expected task Running again after completion fired, got %v", task.ExecMode)
	}
}

func TestForkPresetsChildReturnRegisterToZero(t *testing.T) {
	manager := idt.NewManager()
	scheduler := sched.NewScheduler()
	procs := newFakeProcessTable()

	pid := procs.Insert(&Process{FSEnv: &fakeFSEnv{}})
	task := sched.NewTask(idt.Frame{}, fakePageDir{})
	task.Pid = &pid
	procs.procs[pid].Threads = []*sched.Task{task}
	scheduler.Add(task)

	d := NewDispatcher(manager, 0x80, scheduler, procs)
	d.Install()

	frame := idt.Frame{EAX: uint32(Fork), EIP: 0x1000}
	d.handle(&frame)

	if int32(frame.EAX) <= 0 {
		t.Fatalf("expected parent's return register to hold a positive new pid, got %d", int32(frame.EAX))
	}

	childPid := frame.EAX
	childProc := procs.Get(childPid)
	if childProc == nil || len(childProc.Threads) != 1 {
		t.Fatal("expected the child process to be registered with exactly one thread")
	}

	child := childProc.Threads[0]
	if child.Frame.EAX != 0 {
		t.Fatalf("expected child frame's eax to be preset to 0, got %d", child.Frame.EAX)
	}
	if child.Frame.EIP != 0x1000 {
		t.Fatalf("expected child frame to copy eip from parent, got 0x%x", child.Frame.EIP)
	}
}

func TestExitMarksAllThreadsExited(t *testing.T) {
	d, task, scheduler := setupDispatcher(t, &fakeFSEnv{})

	frame := idt.Frame{EAX: uint32(Exit)}
	d.handle(&frame)

	if task.ExecMode != sched.Exited {
		t.Fatalf("expected exiting task to be Exited, got %v", task.ExecMode)
	}
	_ = scheduler
}

func ptrOf(b []byte) *byte {
	if len(b) == 0 {
		return nil
	}
	return &b[0]
}
