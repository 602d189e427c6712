// Package kernel contains the error type and raw memory primitives shared
// by every other package in this module. It deliberately has no
// dependencies of its own so that it can sit at the bottom of the import
// graph.
package kernel

import (
	"reflect"
	"unsafe"
)

// Error describes a kernel error. All kernel errors must be defined as
// global variables that are pointers to the Error structure. This
// requirement stems from the fact that the Go allocator is not available
// during the earliest boot stages, so we cannot rely on errors.New.
type Error struct {
	// Module is the package/subsystem where the error occurred.
	Module string

	// Message is the human-readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Memset sets size bytes at the given address to the supplied value. The
// implementation is based on bytes.Repeat; instead of using a for loop,
// this function uses log2(size) copy calls which should give us a speed
// boost as page addresses are always aligned.
func Memset(addr uintptr, value byte, size uintptr) {
	if size == 0 {
		return
	}

	target := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: addr,
	}))

	target[0] = value
	for index := uintptr(1); index < size; index *= 2 {
		copy(target[index:], target[:index])
	}
}

// Memcopy copies size bytes from src to dst.
func Memcopy(src, dst uintptr, size uintptr) {
	if size == 0 {
		return
	}

	srcSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: src,
	}))
	dstSlice := *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Len:  int(size),
		Cap:  int(size),
		Data: dst,
	}))

	copy(dstSlice, srcSlice)
}
