package idt

import "strings"

// PageFaultErrorCode decodes the 32-bit error code the CPU pushes for
// vector 14 (page fault). It is a read-only view: decoding never mutates
// anything and has no side effects beyond formatting.
type PageFaultErrorCode uint32

// Bit positions within the page-fault error code.
const (
	pfPresent    = 1 << 0
	pfWrite      = 1 << 1
	pfUser       = 1 << 2
	pfReserved   = 1 << 3
	pfInstrFetch = 1 << 4
	pfProtKey    = 1 << 5
	pfShadow     = 1 << 6
	pfSGX        = 1 << 15
)

// Present reports whether the fault occurred on a present page (a
// protection violation) as opposed to a not-present page.
func (e PageFaultErrorCode) Present() bool { return e&pfPresent != 0 }

// Write reports whether the fault was caused by a write; false means read.
func (e PageFaultErrorCode) Write() bool { return e&pfWrite != 0 }

// User reports whether the faulting access happened in user mode; false
// means supervisor mode.
func (e PageFaultErrorCode) User() bool { return e&pfUser != 0 }

// ReservedViolation reports whether the fault was caused by a reserved
// page-table bit being set.
func (e PageFaultErrorCode) ReservedViolation() bool { return e&pfReserved != 0 }

// InstructionFetch reports whether the fault was caused by an instruction
// fetch (requires NX support); false means the access was a data access.
func (e PageFaultErrorCode) InstructionFetch() bool { return e&pfInstrFetch != 0 }

// ProtectionKey reports whether the fault was a protection-key violation.
func (e PageFaultErrorCode) ProtectionKey() bool { return e&pfProtKey != 0 }

// ShadowStack reports whether the fault was a shadow-stack access violation.
func (e PageFaultErrorCode) ShadowStack() bool { return e&pfShadow != 0 }

// SGX reports whether the fault was caused by an SGX access-control
// violation unrelated to ordinary paging.
func (e PageFaultErrorCode) SGX() bool { return e&pfSGX != 0 }

// String renders the error code in the log-friendly form:
//
//	PageFaultErrorCode { [present,] (read|write), (user|supervisor) mode[, reserved][, instruction fetch][, protection-key][, shadow][, sgx] }
func (e PageFaultErrorCode) String() string {
	var parts []string

	if e.Present() {
		parts = append(parts, "present")
	}
	if e.Write() {
		parts = append(parts, "write")
	} else {
		parts = append(parts, "read")
	}
	if e.User() {
		parts = append(parts, "user mode")
	} else {
		parts = append(parts, "supervisor mode")
	}
	if e.ReservedViolation() {
		parts = append(parts, "reserved")
	}
	if e.InstructionFetch() {
		parts = append(parts, "instruction fetch")
	}
	if e.ProtectionKey() {
		parts = append(parts, "protection-key")
	}
	if e.ShadowStack() {
		parts = append(parts, "shadow")
	}
	if e.SGX() {
		parts = append(parts, "sgx")
	}

	return "PageFaultErrorCode { " + strings.Join(parts, ", ") + " }"
}
