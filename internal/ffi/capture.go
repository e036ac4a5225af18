package ffi

import (
	"fmt"
	"runtime"

	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// Capture wraps a native capture object. It is not safe for concurrent use;
// the public VideoCapture serializes calls.
type Capture struct {
	ptr uintptr
}

var _ native.Capture = (*Capture)(nil)

// CreateCapture allocates a closed native capture.
func CreateCapture() (*Capture, error) {
	if !libLoaded.Load() {
		return nil, ErrLibraryNotLoaded
	}
	var ptr uintptr
	var errBuf ShimErrorBuffer
	if err := errBuf.ToError(shimCaptureCreate(UintptrPtr(&ptr), errBuf.Ptr())); err != nil {
		return nil, err
	}
	return &Capture{ptr: ptr}, nil
}

func (c *Capture) OpenFile(filename string, api int32, params []int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	cName := CString(filename)
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimCaptureOpenFile(c.ptr, ByteSlicePtr(cName), api,
		Int32SlicePtr(params), int32(len(params)), Int32Ptr(&ok), errBuf.Ptr())
	runtime.KeepAlive(cName)
	runtime.KeepAlive(params)
	return ok != 0, errBuf.ToError(result)
}

func (c *Capture) OpenIndex(index, api int32, params []int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimCaptureOpenIndex(c.ptr, index, api,
		Int32SlicePtr(params), int32(len(params)), Int32Ptr(&ok), errBuf.Ptr())
	runtime.KeepAlive(params)
	return ok != 0, errBuf.ToError(result)
}

// OpenStream opens the capture on a reader created by CreateReader. The
// reader must outlive every read on this capture.
func (c *Capture) OpenStream(src native.Reader, api int32, params []int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	r, isShim := src.(*Reader)
	if !isShim || r == nil || r.ptr == 0 {
		return false, fmt.Errorf("%w: stream reader %T was not created by the shim", ErrInvalidParam, src)
	}
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimCaptureOpenStream(c.ptr, r.ptr, api,
		Int32SlicePtr(params), int32(len(params)), Int32Ptr(&ok), errBuf.Ptr())
	runtime.KeepAlive(params)
	return ok != 0, errBuf.ToError(result)
}

func (c *Capture) IsOpened() (bool, error) {
	return c.boolCall(shimCaptureIsOpened)
}

func (c *Capture) Release() error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	var errBuf ShimErrorBuffer
	return errBuf.ToError(shimCaptureRelease(c.ptr, errBuf.Ptr()))
}

func (c *Capture) Grab() (bool, error) {
	return c.boolCall(shimCaptureGrab)
}

// Retrieve decodes the grabbed frame into a fresh native matrix and makes
// dst a view of it.
func (c *Capture) Retrieve(dst *frame.VideoFrame, flag int32) (bool, error) {
	return c.intoFrame(dst, func(m, out, errBuf uintptr) int32 {
		return shimCaptureRetrieve(c.ptr, m, flag, out, errBuf)
	})
}

func (c *Capture) Read(dst *frame.VideoFrame) (bool, error) {
	return c.intoFrame(dst, func(m, out, errBuf uintptr) int32 {
		return shimCaptureRead(c.ptr, m, out, errBuf)
	})
}

func (c *Capture) Set(prop int32, value float64) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimCaptureSet(c.ptr, prop, value, Int32Ptr(&ok), errBuf.Ptr())
	return ok != 0, errBuf.ToError(result)
}

func (c *Capture) Get(prop int32) (float64, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	var value float64
	var errBuf ShimErrorBuffer
	result := shimCaptureGet(c.ptr, prop, Float64Ptr(&value), errBuf.Ptr())
	return value, errBuf.ToError(result)
}

func (c *Capture) BackendName() (string, error) {
	if !libLoaded.Load() {
		return "", ErrLibraryNotLoaded
	}
	return readString(func(buf uintptr, bufCap int32, outLen, errBuf uintptr) int32 {
		return shimCaptureGetBackendName(c.ptr, buf, bufCap, outLen, errBuf)
	})
}

func (c *Capture) SetExceptionMode(enable bool) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	var errBuf ShimErrorBuffer
	return errBuf.ToError(shimCaptureSetExceptionMode(c.ptr, BoolInt(enable), errBuf.Ptr()))
}

func (c *Capture) ExceptionMode() (bool, error) {
	return c.boolCall(shimCaptureGetExceptionMode)
}

// Destroy frees the native capture, releasing the device or file first.
func (c *Capture) Destroy() {
	if !libLoaded.Load() || c.ptr == 0 {
		return
	}
	shimCaptureDestroy(c.ptr)
	c.ptr = 0
}

func (c *Capture) boolCall(fn func(c, out, errBuf uintptr) int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var v int32
	var errBuf ShimErrorBuffer
	result := fn(c.ptr, Int32Ptr(&v), errBuf.Ptr())
	return v != 0, errBuf.ToError(result)
}

func (c *Capture) intoFrame(dst *frame.VideoFrame, call func(m, out, errBuf uintptr) int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	m, err := CreateMat()
	if err != nil {
		return false, err
	}

	var ok int32
	var errBuf ShimErrorBuffer
	if err := errBuf.ToError(call(m, Int32Ptr(&ok), errBuf.Ptr())); err != nil {
		DestroyMat(m)
		return false, err
	}
	if ok == 0 {
		DestroyMat(m)
		dst.Reset()
		return false, nil
	}
	if err := attachMat(m, dst); err != nil {
		return false, err
	}
	return true, nil
}
