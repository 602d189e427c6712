package idt

// Frame is the complete saved CPU state laid out exactly as the trampoline
// pushes it onto the kernel stack (low address first). Any handler that
// reads or writes register values must do so through a *Frame obtained via
// the dispatcher; re-deriving the address independently is unsafe.
type Frame struct {
	DS uint32

	EDI uint32
	ESI uint32
	EBP uint32

	// HandlerESP is the kernel stack pointer captured at ISR entry,
	// before the closure/dispatcher arguments were pushed. It lets code
	// inside dispatch locate this very frame.
	HandlerESP uint32

	EBX uint32
	EDX uint32
	ECX uint32
	EAX uint32

	// ErrorCode is the CPU-provided code for vectors in
	// errorCodeVectors; for every other vector the trampoline pushes a
	// synthetic 0 to preserve this layout.
	ErrorCode uint32

	EIP    uint32
	CS     uint32
	EFlags uint32
	ESP    uint32
	SS     uint32
}

// errorCodeVectors is the fixed set of vectors for which the CPU itself
// pushes an error code before invoking the handler.
var errorCodeVectors = map[uint8]bool{
	8: true, 10: true, 11: true, 12: true, 13: true, 14: true,
	17: true, 21: true, 29: true, 30: true,
}

// HasErrorCode reports whether the CPU pushes an error code for vector v.
func HasErrorCode(v uint8) bool {
	return errorCodeVectors[v]
}
