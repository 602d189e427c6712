// Package pic programs the 8259 Programmable Interrupt Controller pair so
// that IRQs 0-15 land on a contiguous, non-overlapping range of IDT
// vectors.
package pic

import "ockernel/kernel/cpu"

// Port addresses for the master and slave 8259 controllers.
const (
	masterCommandPort = 0x20
	masterDataPort    = 0x21
	slaveCommandPort  = 0xA0
	slaveDataPort     = 0xA1
)

// ICW1 requests the controller to begin its 4-step initialisation sequence.
const icw1Init = 0x11

// ICW4 selects 8086/88 mode.
const icw4Mode8086 = 0x01

var portWriteByteFn = cpu.PortWriteByte

// Init remaps the master PIC to vectors 0x20-0x27 and the slave PIC to
// 0x28-0x2F, wires the cascade between them on IRQ2, and unmasks every
// line. It must run before any IDT entry in that range is registered, and
// before interrupts are enabled.
func Init() {
	// ICW1: start initialisation, expect ICW4
	portWriteByteFn(masterCommandPort, icw1Init)
	portWriteByteFn(slaveCommandPort, icw1Init)

	// ICW2: vector offsets
	portWriteByteFn(masterDataPort, 0x20)
	portWriteByteFn(slaveDataPort, 0x28)

	// ICW3: cascade wiring. The master is told a slave hangs off IRQ2
	// (bitmask 0x04); the slave is told its cascade identity is 2.
	portWriteByteFn(masterDataPort, 0x04)
	portWriteByteFn(slaveDataPort, 0x02)

	// ICW4: 8086 mode
	portWriteByteFn(masterDataPort, icw4Mode8086)
	portWriteByteFn(slaveDataPort, icw4Mode8086)

	// unmask all lines
	portWriteByteFn(masterDataPort, 0x00)
	portWriteByteFn(slaveDataPort, 0x00)
}
