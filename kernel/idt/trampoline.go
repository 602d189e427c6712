package idt

// The trampoline is the per-vector machine-code stub the IDT entry actually
// points at. It normalises the CPU's raw ISR entry into the Frame layout
// (frame.go) and then calls back into the single shared Go dispatch entry
// point (manager.go's dispatch), which looks the vector up in an
// indirection table of registered handlers. Baking the vector number in
// rather than a handler pointer keeps the stub from having to know
// anything about Go's calling convention beyond "call a bare function with
// one integer argument on the stack".
//
// Two fixed-length byte templates are used, selected by whether the vector
// carries a CPU-pushed error code (frame.go, HasErrorCode); the only
// difference between them is a 2-byte synthetic error-code push prepended
// to the front of the template.
//
// Layout of the base ("has error code") template, 48 bytes:
//
//	offset  bytes  meaning
//	0       1      pusha
//	1-3     3      mov ax,ds ; push eax      (saves the flat data selector;
//	                                          gopher-os runs a single flat
//	                                          GDT per ring, so ds/es/fs/gs
//	                                          all carry the same value and
//	                                          one saved copy restores all four)
//	4-16    13     mov eax,0x10 ; mov ds,eax ; mov es,eax ; mov fs,eax ; mov gs,eax
//	17      1      push esp               (becomes Frame.HandlerESP)
//	18      1      mov eax,<vector>       (0xb8 opcode)
//	19-22   4      <vector>               (baked-in 32-bit immediate)
//	23      1      push eax
//	24      1      mov eax,<dispatcher>   (0xb8 opcode)
//	25-28   4      <dispatcher>           (baked-in 32-bit immediate)
//	29-30   2      call eax
//	31-33   3      add esp,0x8            (discard the two call arguments)
//	34-42   9      pop ebx ; mov gs,ebx ; mov fs,ebx ; mov es,ebx ; mov ds,ebx
//	43      1      popa
//	44-47   4      add esp,0x4 ; iret
//
// The "no error code" template is this same 48-byte sequence with a 2-byte
// `push 0x0` (6A 00) prepended, shifting both immediates by 2 and the total
// length to 50, matching offsets 21-24/27-30 respectively.
const (
	trampolineLenWithErrorCode    = 48
	trampolineLenWithoutErrorCode = 50

	vectorOffsetWithErrorCode     = 19
	dispatcherOffsetWithErrorCode = 25

	noErrorCodePrefixLen = 2
)

// base holds the fixed, non-immediate bytes of the 48-byte template; the
// 4-byte gaps at vectorOffsetWithErrorCode and dispatcherOffsetWithErrorCode
// are overwritten by buildTrampoline with the vector number and the shared
// dispatch entry point. Each gap is preceded by its own 0xb8 ("mov eax,
// imm32") opcode byte.
var base = [trampolineLenWithErrorCode]byte{
	0x60, // pusha
	0x8c, 0xd8, // mov ax, ds
	0x50, // push eax
	0xb8, 0x10, 0x00, 0x00, 0x00, // mov eax, 0x10
	0x8e, 0xd8, // mov ds, eax
	0x8e, 0xc0, // mov es, eax
	0x8e, 0xe0, // mov fs, eax
	0x8e, 0xe8, // mov gs, eax
	0x54, // push esp
	0xb8, // mov eax, <vector>
	0x00, 0x00, 0x00, 0x00, // [vector number goes here]
	0x50, // push eax
	0xb8, // mov eax, <dispatcher>
	0x00, 0x00, 0x00, 0x00, // [dispatcher address goes here]
	0xff, 0xd0, // call eax
	0x83, 0xc4, 0x08, // add esp, 0x8
	0x5b,       // pop ebx
	0x8e, 0xeb, // mov gs, ebx
	0x8e, 0xe3, // mov fs, ebx
	0x8e, 0xc3, // mov es, ebx
	0x8e, 0xdb, // mov ds, ebx
	0x61,             // popa
	0x83, 0xc4, 0x04, // add esp, 0x4
	0xcf, // iret
}

// buildTrampoline returns the machine-code stub for a vector, with the
// vector number and dispatcherAddr baked in as 32-bit immediates at the
// offsets this spec fixes. hasErrorCode selects which of the two template
// lengths is produced.
func buildTrampoline(vector uint8, dispatcherAddr uint32, hasErrorCode bool) []byte {
	body := base // copy

	putU32(body[vectorOffsetWithErrorCode:], uint32(vector))
	putU32(body[dispatcherOffsetWithErrorCode:], dispatcherAddr)

	if hasErrorCode {
		out := make([]byte, trampolineLenWithErrorCode)
		copy(out, body[:])
		return out
	}

	out := make([]byte, trampolineLenWithoutErrorCode)
	out[0], out[1] = 0x6a, 0x00 // push 0x0 (synthetic error code)
	copy(out[noErrorCodePrefixLen:], body[:])
	return out
}

// putU32 writes v into b[0:4] in little-endian order, the byte order the
// CPU expects for an immediate operand.
func putU32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
