package idt

import "unsafe"

// Handler is the signature every registered interrupt handler implements.
// It receives the frame the trampoline captured for this invocation; the
// frame is only valid for the duration of the call.
type Handler func(*Frame)

// abortVectors are exceptions the CPU raises that are never recoverable:
// the task that caused them cannot be resumed. RegisterAborts wires all of
// them to the same handler in one call.
var abortVectors = []uint8{0, 4, 5, 6, 7, 8, 9, 16, 18, 19}

// faultVectors are exceptions that, once handled (e.g. a page fault that
// successfully maps in a page), the faulting instruction can safely be
// retried. RegisterFaults wires all of them to the same handler in one
// call.
var faultVectors = []uint8{10, 11, 12, 13, 14, 17, 20, 21, 28, 29, 30}

// Manager owns a pinned Table together with the indirection table of
// registered Go handlers that every trampoline stub ultimately calls back
// into through dispatch. A Manager must not be copied after its first call
// to Register: the Table is referenced by address once loaded, and dispatch
// reaches the handler slots through the Manager it was activated with; the
// generated stubs themselves only embed the vector number and the
// dispatcher's entry address.
//
// stubs retains the generated machine-code buffer for every registered
// vector so it stays reachable (and therefore un-moved and uncollected)
// for the Manager's lifetime: the IDT entry holds the buffer's address as
// a bare uintptr, invisible to the garbage collector, matching spec §3's
// requirement that the Interrupt record itself own the trampoline's
// storage ("pinned in memory for the lifetime of the load").
type Manager struct {
	table    Table
	handlers [entryCount]Handler
	stubs    [entryCount][]byte
}

// NewManager returns a Manager with no vectors registered.
func NewManager() *Manager {
	return &Manager{}
}

// active is the live Manager dispatch resolves the vector against.
// gopher-os-style kernels keep exactly one IDT live at a time, so a single
// package-level pointer is enough.
var active *Manager

// funcPC returns the entry address of a top-level, non-closure function
// value. A Go func value is itself a pointer to a record whose first word
// is the code's entry PC, so reading through it once gives the address;
// this is the same trick the old runtime sources use to hand assembly a
// callable address (e.g. os_darwin.go's funcPC(mstart)).
func funcPC(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// dispatch is the one shared entry point baked into every trampoline as
// the "dispatcher" immediate. It is called with the frame built by the
// stub sitting directly below the return address on the stack; handler_esp
// (frame.go's Frame.HandlerESP) is how a handler recovers the *Frame itself
// once inside Go.
//
//go:nosplit
func dispatch(vector uint8, frame *Frame) {
	if active == nil {
		return
	}
	if h := active.handlers[vector]; h != nil {
		h(frame)
	}
}

// dispatchFuncAddr returns the address baked into every trampoline as the
// shared dispatcher entry point.
func dispatchFuncAddr() uint32 {
	return uint32(funcPC(dispatchTrampolineEntry))
}

// dispatchTrampolineEntry is the raw ABI entry point the generated stubs
// transfer control to; its body (trampoline_386.s) adapts from the
// cdecl-ish "vector pushed on stack, call" convention the stub uses into a
// call to dispatch above.
func dispatchTrampolineEntry()

// Register installs handler for vector with the given gate flags. The
// underlying trampoline stub is rebuilt immediately; callers must not
// Register the same vector concurrently with an in-flight interrupt on it.
func (m *Manager) Register(vector uint8, flags Flags, handler Handler) {
	m.handlers[vector] = handler

	stub := buildTrampoline(vector, dispatchFuncAddr(), HasErrorCode(vector))
	m.stubs[vector] = stub
	isrAddr := uintptr(unsafe.Pointer(&stub[0]))

	m.table.entries[vector].set(isrAddr, kernelCodeSelector, flags)
}

// RegisterAborts wires every unrecoverable-exception vector (abortVectors)
// to handler in one call.
func (m *Manager) RegisterAborts(handler Handler) {
	for _, v := range abortVectors {
		m.Register(v, Interrupt, handler)
	}
}

// RegisterFaults wires every retryable-exception vector (faultVectors) to
// handler in one call.
func (m *Manager) RegisterFaults(handler Handler) {
	for _, v := range faultVectors {
		m.Register(v, Interrupt, handler)
	}
}

// Unregister clears vector's gate and handler; interrupts that arrive for
// it afterwards are dropped by dispatch.
func (m *Manager) Unregister(vector uint8) {
	m.handlers[vector] = nil
	m.stubs[vector] = nil
	m.table.entries[vector] = entry{}
}

// IsRegistered reports whether vector currently has a live gate.
func (m *Manager) IsRegistered(vector uint8) bool {
	return !m.table.entries[vector].isEmpty()
}

// LoadHandlers makes m the active IDT: it becomes the target of dispatch
// and its table is installed via lidt. Only one Manager can be active at a
// time.
func (m *Manager) LoadHandlers() {
	active = m
	m.table.Load()
}
