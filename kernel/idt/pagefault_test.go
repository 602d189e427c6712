package idt

import "testing"

func TestPageFaultErrorCodeString(t *testing.T) {
	tests := []struct {
		code PageFaultErrorCode
		want string
	}{
		{0x00, "PageFaultErrorCode { read, supervisor mode }"},
		{pfWrite, "PageFaultErrorCode { write, supervisor mode }"},
		{pfPresent | pfUser, "PageFaultErrorCode { present, read, user mode }"},
		{pfPresent | pfWrite | pfUser, "PageFaultErrorCode { present, write, user mode }"},
		{pfWrite | pfReserved, "PageFaultErrorCode { write, supervisor mode, reserved }"},
		{pfInstrFetch, "PageFaultErrorCode { read, supervisor mode, instruction fetch }"},
		{pfSGX, "PageFaultErrorCode { read, supervisor mode, sgx }"},
	}

	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("code 0x%x: expected %q, got %q", uint32(tt.code), tt.want, got)
		}
	}
}

func TestPageFaultErrorCodeAccessors(t *testing.T) {
	code := PageFaultErrorCode(pfPresent | pfUser | pfShadow)

	if !code.Present() || code.Write() || !code.User() || !code.ShadowStack() {
		t.Fatalf("unexpected accessor results for 0x%x", uint32(code))
	}
	if code.ReservedViolation() || code.InstructionFetch() || code.ProtectionKey() || code.SGX() {
		t.Fatalf("unexpected set bit for 0x%x", uint32(code))
	}
}
