package syscall

// Num is the closed enumeration of syscalls this dispatcher recognises
// (spec §4.I.2). Any value outside this range is an invalid syscall
// number.
type Num int32

const (
	IsComputerOn Num = iota
	Exit
	Chdir
	Chmod
	Chown
	Chroot
	Close
	Dup
	Dup2
	Open
	Read
	Seek
	Stat
	Truncate
	Unlink
	Write
	Fork

	numSyscalls
)

// String returns the syscall's name, or "Invalid" for a number outside
// the closed set, for log and test failure messages.
func (n Num) String() string {
	switch n {
	case IsComputerOn:
		return "IsComputerOn"
	case Exit:
		return "Exit"
	case Chdir:
		return "Chdir"
	case Chmod:
		return "Chmod"
	case Chown:
		return "Chown"
	case Chroot:
		return "Chroot"
	case Close:
		return "Close"
	case Dup:
		return "Dup"
	case Dup2:
		return "Dup2"
	case Open:
		return "Open"
	case Read:
		return "Read"
	case Seek:
		return "Seek"
	case Stat:
		return "Stat"
	case Truncate:
		return "Truncate"
	case Unlink:
		return "Unlink"
	case Write:
		return "Write"
	case Fork:
		return "Fork"
	default:
		return "Invalid"
	}
}

// Valid reports whether n is one of the recognised syscall numbers.
func (n Num) Valid() bool {
	return n >= IsComputerOn && n < numSyscalls
}

// IsAsync reports whether n's operation is dispatched asynchronously
// (spec §4.I.4): the dispatcher blocks the current task via BlockUntil
// and the result arrives later through a Completion.
func (n Num) IsAsync() bool {
	switch n {
	case Chmod, Chown, Open, Read, Seek, Stat, Truncate, Unlink, Write:
		return true
	default:
		return false
	}
}
