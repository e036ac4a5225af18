package ffi

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// CreateMat allocates an empty native matrix.
func CreateMat() (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	var m uintptr
	var errBuf ShimErrorBuffer
	if err := errBuf.ToError(shimMatCreate(UintptrPtr(&m), errBuf.Ptr())); err != nil {
		return 0, err
	}
	return m, nil
}

// DestroyMat frees a native matrix created by CreateMat or WrapFrame.
func DestroyMat(m uintptr) {
	if !libLoaded.Load() || m == 0 {
		return
	}
	shimMatDestroy(m)
}

// WrapFrame builds a native matrix header over f's memory without copying.
// The caller must keep f alive until the header is destroyed.
func WrapFrame(f *frame.VideoFrame) (uintptr, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	if err := f.Validate(); err != nil {
		return 0, err
	}

	var m uintptr
	var errBuf ShimErrorBuffer
	result := shimMatWrap(
		int32(f.Height),
		int32(f.Width),
		f.Format.MatType(),
		ByteSlicePtr(f.Data),
		uintptr(f.Stride),
		UintptrPtr(&m),
		errBuf.Ptr(),
	)
	runtime.KeepAlive(f.Data)
	if err := errBuf.ToError(result); err != nil {
		return 0, err
	}
	return m, nil
}

// attachMat makes dst a view of m's pixels. Ownership of m moves to dst:
// it is destroyed when dst is released or re-attached. An empty matrix is
// destroyed immediately and leaves dst empty.
func attachMat(m uintptr, dst *frame.VideoFrame) error {
	var info shimMatInfo
	if err := ShimError(shimMatInfoFn(m, info.Ptr())); err != nil {
		shimMatDestroy(m)
		return err
	}
	if info.Rows <= 0 || info.Cols <= 0 || info.Data == 0 {
		shimMatDestroy(m)
		dst.Reset()
		return nil
	}

	format, ok := frame.FormatFromMatType(info.Type)
	if !ok {
		shimMatDestroy(m)
		return fmt.Errorf("%w: unsupported matrix type %d", ErrInvalidParam, info.Type)
	}

	size := int(info.Step) * int(info.Rows)
	data := unsafe.Slice((*byte)(unsafe.Pointer(info.Data)), size)
	dst.Attach(data, int(info.Cols), int(info.Rows), int(info.Step), format, func() {
		DestroyMat(m)
	})
	return nil
}
