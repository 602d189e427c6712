package syscall

import "ockernel/kernel/sched"

// Result is the outcome of a syscall operation delivered to a completion
// callback: either a positive value (e.g. a byte count, a new fd) or a
// negative Errno, per the dispatcher's register convention (dispatcher.go).
type Result int64

// Completion is the callback signature every asynchronous FSEnvironment
// operation is handed. It may be invoked from any interrupt context, per
// spec §4.J/§9: it must not allocate in a way that could recurse into the
// scheduler, and must publish its result with atomic/ordered semantics
// since the blocked task may resume on a different interrupt than the one
// that called setup.
type Completion func(result Result, didBlock bool)

// FSEnvironment is the external collaborator spec §6 names: the
// filesystem surface a process's syscalls operate against. Its
// implementation (actual file descriptors, path resolution, storage
// backends) is out of scope for this core (spec §1); only the contract
// the dispatcher depends on is declared here.
type FSEnvironment interface {
	// Synchronous operations: they complete before returning and their
	// result is written directly into the syscall return register.
	Chdir(path string) Result
	Chroot(path string) Result
	Close(fd int32) Result
	Dup(fd int32) Result
	Dup2(oldFd, newFd int32) Result
	IsComputerOn() Result

	// Asynchronous operations: each is handed a Completion it must
	// invoke exactly once, possibly from interrupt context, possibly
	// before returning (didBlock=false) or strictly later
	// (didBlock=true).
	Chmod(path string, permissions uint16, done Completion)
	Chown(path string, uid, gid uint32, done Completion)
	Open(path string, flags uint32, done Completion)
	Read(fd int32, buf []byte, done Completion)
	Seek(fd int32, offset int64, whence int32, done Completion)
	Stat(path string, buf []byte, done Completion)
	Truncate(fd int32, length int64, done Completion)
	Unlink(path string, done Completion)
	Write(fd int32, buf []byte, done Completion)
}

// ProcessTable is the external collaborator spec §6 names for pid
// lookup/insertion and per-process thread bookkeeping.
type ProcessTable interface {
	Get(pid uint32) *Process
	Insert(p *Process) uint32
}

// Process groups the tasks (threads) that share one memory map and
// filesystem environment, per the GLOSSARY's "Process" entry.
type Process struct {
	Pid     uint32
	FSEnv   FSEnvironment
	Threads []*sched.Task
}
