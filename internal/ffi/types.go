package ffi

import (
	"unsafe"
)

// shimMatInfo matches ShimMatInfo in shim.h.
type shimMatInfo struct {
	Rows int32
	Cols int32
	Type int32
	_    int32 // padding
	Step uintptr
	Data uintptr
}

// Ptr returns a pointer to the info struct as uintptr for FFI calls.
func (m *shimMatInfo) Ptr() uintptr {
	return uintptr(unsafe.Pointer(m))
}

// ByteSlicePtr returns a uintptr to the first element of a byte slice.
// Returns 0 if the slice is empty.
func ByteSlicePtr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// Int32SlicePtr returns a uintptr to the first element of an int32 slice.
func Int32SlicePtr(s []int32) uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s[0]))
}

// Int32Ptr returns a uintptr to an int32 variable.
func Int32Ptr(p *int32) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Int64Ptr returns a uintptr to an int64 variable.
func Int64Ptr(p *int64) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// Float64Ptr returns a uintptr to a float64 variable.
func Float64Ptr(p *float64) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// UintptrPtr returns a uintptr to a uintptr variable.
func UintptrPtr(p *uintptr) uintptr {
	return uintptr(unsafe.Pointer(p))
}

// BoolInt converts a Go bool to the shim's int flag.
func BoolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// CString allocates a NUL-terminated C string from a Go string.
// The caller keeps the returned slice alive (runtime.KeepAlive) for as long
// as the shim reads it.
func CString(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

// CStringToGo converts a NUL-terminated C string in a Go buffer to a Go string.
func CStringToGo(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// CopyBytesFromC copies size bytes of C memory into a new Go slice.
func CopyBytesFromC(ptr uintptr, size int) []byte {
	if ptr == 0 || size <= 0 {
		return nil
	}
	data := make([]byte, size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size))
	return data
}
