// Package cpu provides the i586-specific primitives (port I/O, control
// register access, paging control, CPU identification) that the rest of
// this module builds on. Functions declared here with no body are
// implemented in cpu_386.s.
package cpu

var (
	cpuidFn = ID
)

// PortWriteByte writes a single byte to the given I/O port.
func PortWriteByte(port uint16, value uint8)

// PortReadByte reads a single byte from the given I/O port.
func PortReadByte(port uint16) uint8

// Cli disables maskable interrupts.
func Cli()

// Sti enables maskable interrupts.
func Sti()

// Halt stops instruction execution until the next interrupt arrives.
func Halt()

// Lidt loads the IDT register from a 6-byte descriptor (2-byte limit
// followed by a 4-byte linear base address), as produced by
// kernel/idt.Table's pointer encoding.
func Lidt(idtPtr uintptr)

// FlushTLBEntry flushes a TLB entry for a particular virtual address.
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT sets the root page table directory to point to the specified
// physical address and flushes the TLB.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address of the currently active page
// table directory.
func ActivePDT() uintptr

// ReadCR2 returns the faulting linear address stored by the CPU in CR2
// when a page fault occurs.
func ReadCR2() uint32

// ID returns information about the CPU and its features. It is
// implemented as a CPUID instruction with EAX=leaf and returns the values
// in EAX, EBX, ECX and EDX.
func ID(leaf uint32) (uint32, uint32, uint32, uint32)

// IsIntel returns true if the code is running on an Intel processor.
func IsIntel() bool {
	_, ebx, ecx, edx := cpuidFn(0)
	return ebx == 0x756e6547 && // "Genu"
		edx == 0x49656e69 && // "ineI"
		ecx == 0x6c65746e // "ntel"
}
