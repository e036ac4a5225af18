package ffi

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/thesyncim/libgovideoio/internal/native"
)

// Binding-level error sentinels. They match shim error codes that are not
// native exceptions and support errors.Is().
var (
	ErrInvalidParam   = errors.New("invalid parameter")
	ErrOutOfMemory    = errors.New("out of memory")
	ErrBufferTooSmall = errors.New("buffer too small")
)

// Status codes returned by every shim call (int32 to match C int).
// -1..-3 report an exception caught inside the shim.
const (
	ShimOK                  int32 = 0
	ShimErrCvException      int32 = -1
	ShimErrStdException     int32 = -2
	ShimErrUnknownException int32 = -3
	ShimErrInvalidParam     int32 = -4
	ShimErrOutOfMemory      int32 = -5
	ShimErrBufferTooSmall   int32 = -6
)

// ShimError converts a status code without message to a Go error.
func ShimError(code int32) error {
	var buf ShimErrorBuffer
	return buf.ToError(code)
}

// ShimErrorBuffer matches ShimErrorBuffer in shim.h. The shim copies the
// caught exception's what() text into Message.
type ShimErrorBuffer struct {
	Message [1024]byte
}

// Ptr returns the buffer address for FFI calls.
func (b *ShimErrorBuffer) Ptr() uintptr {
	return uintptr(unsafe.Pointer(b))
}

// String returns the message written by the shim.
func (b *ShimErrorBuffer) String() string {
	return CStringToGo(b.Message[:])
}

// ToError converts a status code plus the buffer's message to an error.
// Exceptions become *native.Exception; the remaining codes become
// *ShimErrorWithMessage wrapping a sentinel.
func (b *ShimErrorBuffer) ToError(code int32) error {
	msg := b.String()
	switch code {
	case ShimOK:
		return nil
	case ShimErrCvException:
		return &native.Exception{Kind: native.KindLibrary, What: msg}
	case ShimErrStdException:
		return &native.Exception{Kind: native.KindStandard, What: msg}
	case ShimErrUnknownException:
		return &native.Exception{Kind: native.KindUnknown}
	}
	return &ShimErrorWithMessage{Code: code, Message: msg}
}

// ShimErrorWithMessage is a binding-level failure with optional shim detail.
type ShimErrorWithMessage struct {
	Code    int32
	Message string
}

func (e *ShimErrorWithMessage) Error() string {
	base := e.Unwrap()
	if e.Message == "" {
		return base.Error()
	}
	return fmt.Sprintf("%v: %s", base, e.Message)
}

// Unwrap returns the sentinel for the code.
func (e *ShimErrorWithMessage) Unwrap() error {
	switch e.Code {
	case ShimErrInvalidParam:
		return ErrInvalidParam
	case ShimErrOutOfMemory:
		return ErrOutOfMemory
	case ShimErrBufferTooSmall:
		return ErrBufferTooSmall
	default:
		return fmt.Errorf("unknown shim error: %d", e.Code)
	}
}
