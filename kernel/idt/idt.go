// Package idt implements the i586 Interrupt Descriptor Table: the packed
// gate descriptors the CPU consults on every interrupt/exception/software
// trap, the per-vector trampolines that bridge the hardware ABI to Go
// closures, the register frame those trampolines produce, and the manager
// that ties the two together.
package idt

import (
	"ockernel/kernel/cpu"
	"unsafe"
)

// Flags is the one-byte IDT entry attribute field: gate kind in the low 4
// bits, privilege ring in bits 5-6, present in bit 7.
type Flags uint8

// Gate kinds (low 4 bits of the attribute byte).
const (
	Interrupt32 Flags = 0x0E
	Trap32      Flags = 0x0F
	Task32      Flags = 0x05
	Interrupt16 Flags = 0x06
	Trap16      Flags = 0x07
)

// Privilege rings (bits 5-6 of the attribute byte).
const (
	Ring1 Flags = 0x20
	Ring2 Flags = 0x40
	Ring3 Flags = 0x60
)

// Present is the gate-valid bit (bit 7).
const Present Flags = 0x80

// Composed flag sets used when registering handlers.
const (
	// Interrupt is a present, ring-0-only, 32-bit interrupt gate: the
	// shape used for every hardware/exception vector.
	Interrupt = Interrupt32 | Present

	// Call is a present, ring-3-callable 32-bit interrupt gate: the
	// shape used for the syscall vector.
	Call = Interrupt32 | Present | Ring3
)

// entryCount is the fixed number of IDT slots the architecture supports.
const entryCount = 256

// kernelCodeSelector is the GDT selector loaded into cs by every gate this
// package installs; GDT/TSS bring-up itself is an external collaborator
// (spec §1) and only this contract is consumed.
const kernelCodeSelector = 0x08

// entry is the packed, 8-byte IDT gate descriptor.
type entry struct {
	isrLow     uint16
	selector   uint16
	reserved   uint8
	attributes uint8
	isrHigh    uint16
}

// set points this entry at isrAddr with the given selector/flags. A zero
// Flags value (no Present bit) clears the entry.
func (e *entry) set(isrAddr uintptr, selector uint16, flags Flags) {
	e.isrLow = uint16(isrAddr)
	e.isrHigh = uint16(isrAddr >> 16)
	e.selector = selector
	e.reserved = 0
	e.attributes = uint8(flags)
}

// isEmpty reports whether the entry's present bit is clear.
func (e *entry) isEmpty() bool {
	return e.attributes&uint8(Present) == 0
}

// Table is the 256-slot IDT. It must be pinned in memory for as long as it
// remains loaded: the CPU dereferences entries directly off of whatever
// base address was last passed to Load.
type Table struct {
	entries [entryCount]entry
}

// tablePointer is the 6-byte lidt operand: a 16-bit limit followed by a
// 32-bit linear base address, both little-endian. The base is stored as
// two 16-bit halves so the struct has no padding after the limit.
type tablePointer struct {
	limit    uint16
	baseLow  uint16
	baseHigh uint16
}

// Load installs this table as the active IDT via the lidt instruction. The
// caller must not move or deallocate t afterwards; doing so while the table
// remains loaded is undefined behaviour at the hardware level.
func (t *Table) Load() {
	base := uint32(uintptr(unsafe.Pointer(&t.entries[0])))
	ptr := tablePointer{
		limit:    uint16(unsafe.Sizeof(t.entries) - 1),
		baseLow:  uint16(base),
		baseHigh: uint16(base >> 16),
	}
	cpu.Lidt(uintptr(unsafe.Pointer(&ptr)))
}
