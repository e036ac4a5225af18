package ffi

import (
	"runtime"

	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// Writer wraps a native video writer object.
type Writer struct {
	ptr uintptr
}

var _ native.Writer = (*Writer)(nil)

// CreateWriter allocates a closed native writer.
func CreateWriter() (*Writer, error) {
	if !libLoaded.Load() {
		return nil, ErrLibraryNotLoaded
	}
	var ptr uintptr
	var errBuf ShimErrorBuffer
	if err := errBuf.ToError(shimWriterCreate(UintptrPtr(&ptr), errBuf.Ptr())); err != nil {
		return nil, err
	}
	return &Writer{ptr: ptr}, nil
}

func (w *Writer) Open(filename string, api, fourcc int32, fps float64, width, height int32, params []int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	cName := CString(filename)
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimWriterOpen(
		w.ptr,
		ByteSlicePtr(cName),
		api,
		fourcc,
		fps,
		width,
		height,
		Int32SlicePtr(params),
		int32(len(params)),
		Int32Ptr(&ok),
		errBuf.Ptr(),
	)
	runtime.KeepAlive(cName)
	runtime.KeepAlive(params)
	return ok != 0, errBuf.ToError(result)
}

func (w *Writer) IsOpened() (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var v int32
	var errBuf ShimErrorBuffer
	result := shimWriterIsOpened(w.ptr, Int32Ptr(&v), errBuf.Ptr())
	return v != 0, errBuf.ToError(result)
}

func (w *Writer) Release() error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	var errBuf ShimErrorBuffer
	return errBuf.ToError(shimWriterRelease(w.ptr, errBuf.Ptr()))
}

// Write encodes f. The pixels are wrapped, not copied, so f must not change
// until Write returns.
func (w *Writer) Write(f *frame.VideoFrame) error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	m, err := WrapFrame(f)
	if err != nil {
		return err
	}
	defer DestroyMat(m)

	var errBuf ShimErrorBuffer
	result := shimWriterWrite(w.ptr, m, errBuf.Ptr())
	runtime.KeepAlive(f.Data)
	return errBuf.ToError(result)
}

func (w *Writer) Set(prop int32, value float64) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var ok int32
	var errBuf ShimErrorBuffer
	result := shimWriterSet(w.ptr, prop, value, Int32Ptr(&ok), errBuf.Ptr())
	return ok != 0, errBuf.ToError(result)
}

func (w *Writer) Get(prop int32) (float64, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	var value float64
	var errBuf ShimErrorBuffer
	result := shimWriterGet(w.ptr, prop, Float64Ptr(&value), errBuf.Ptr())
	return value, errBuf.ToError(result)
}

func (w *Writer) BackendName() (string, error) {
	if !libLoaded.Load() {
		return "", ErrLibraryNotLoaded
	}
	return readString(func(buf uintptr, bufCap int32, outLen, errBuf uintptr) int32 {
		return shimWriterGetBackendName(w.ptr, buf, bufCap, outLen, errBuf)
	})
}

// Destroy finalizes the output file and frees the native writer.
func (w *Writer) Destroy() {
	if !libLoaded.Load() || w.ptr == 0 {
		return
	}
	shimWriterDestroy(w.ptr)
	w.ptr = 0
}
