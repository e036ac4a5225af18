package ffi

import (
	"errors"
	"io"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgovideoio/internal/native"
)

// Byte sources handed to the shim, keyed by the pointer-sized callback
// context. Contexts come from a counter and are never reissued.
var (
	readerSourcesMu sync.RWMutex
	readerSources   = map[uintptr]io.ReadSeeker{}
	readerNextCtx   uintptr

	readerCallbacksOnce sync.Once
	readerReadCbPtr     uintptr
	readerSeekCbPtr     uintptr
)

// safeCallback runs fn with panic recovery so a panicking source never
// unwinds through native frames. It reports whether fn completed.
func safeCallback(name string, fn func()) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			logrus.WithField("callback", name).Errorf("panic recovered in callback: %v", r)
			completed = false
		}
	}()
	fn()
	return true
}

func registerSource(src io.ReadSeeker) uintptr {
	readerSourcesMu.Lock()
	defer readerSourcesMu.Unlock()
	readerNextCtx++
	readerSources[readerNextCtx] = src
	return readerNextCtx
}

func unregisterSource(ctx uintptr) {
	readerSourcesMu.Lock()
	defer readerSourcesMu.Unlock()
	delete(readerSources, ctx)
}

func lookupSource(ctx uintptr) (io.ReadSeeker, bool) {
	readerSourcesMu.RLock()
	defer readerSourcesMu.RUnlock()
	src, ok := readerSources[ctx]
	return src, ok
}

func initReaderCallbacks() {
	readerCallbacksOnce.Do(func() {
		readerReadCbPtr = purego.NewCallback(readerReadCallback)
		readerSeekCbPtr = purego.NewCallback(readerSeekCallback)
	})
}

// readerReadCallback fills up to size bytes at buf. It returns the number of
// bytes copied, 0 at end of stream, or -1 on error.
func readerReadCallback(ctx uintptr, buf uintptr, size int64) int64 {
	src, ok := lookupSource(ctx)
	if !ok || size < 0 {
		return -1
	}
	if size == 0 || buf == 0 {
		return 0
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(buf)), size)
	return bridgeRead(src, dst)
}

// readerSeekCallback repositions the source and returns the new offset, or
// -1 on error.
func readerSeekCallback(ctx uintptr, offset int64, origin int32) int64 {
	src, ok := lookupSource(ctx)
	if !ok {
		return -1
	}
	return bridgeSeek(src, offset, origin)
}

func bridgeRead(src io.Reader, dst []byte) int64 {
	var n int
	var err error
	if !safeCallback("read", func() { n, err = io.ReadFull(src, dst) }) {
		return -1
	}
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		logrus.WithError(err).Debug("stream source read failed")
		return -1
	}
	return int64(n)
}

func bridgeSeek(src io.Seeker, offset int64, origin int32) int64 {
	if origin < io.SeekStart || origin > io.SeekEnd {
		return -1
	}
	var pos int64
	var err error
	if !safeCallback("seek", func() { pos, err = src.Seek(offset, int(origin)) }) {
		return -1
	}
	if err != nil {
		logrus.WithError(err).Debug("stream source seek failed")
		return -1
	}
	return pos
}

// Reader is a native stream reader that pulls bytes from a Go io.ReadSeeker.
type Reader struct {
	ptr uintptr
	ctx uintptr
}

var _ native.Reader = (*Reader)(nil)

// CreateReader registers src with the shim. Destroy must be called to drop
// the registration.
func CreateReader(src io.ReadSeeker) (*Reader, error) {
	if !libLoaded.Load() {
		return nil, ErrLibraryNotLoaded
	}
	if src == nil {
		return nil, ErrInvalidParam
	}
	initReaderCallbacks()

	ctx := registerSource(src)
	var ptr uintptr
	var errBuf ShimErrorBuffer
	result := shimStreamReaderCreate(readerReadCbPtr, readerSeekCbPtr, ctx, UintptrPtr(&ptr), errBuf.Ptr())
	if err := errBuf.ToError(result); err != nil {
		unregisterSource(ctx)
		return nil, err
	}
	return &Reader{ptr: ptr, ctx: ctx}, nil
}

// Read pulls bytes through the native reader, which calls back into the source.
func (r *Reader) Read(buf []byte) (int64, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	var n int64
	var errBuf ShimErrorBuffer
	result := shimStreamReaderRead(r.ptr, ByteSlicePtr(buf), int64(len(buf)), Int64Ptr(&n), errBuf.Ptr())
	runtime.KeepAlive(buf)
	if err := errBuf.ToError(result); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	if !libLoaded.Load() {
		return 0, ErrLibraryNotLoaded
	}
	var pos int64
	var errBuf ShimErrorBuffer
	result := shimStreamReaderSeek(r.ptr, offset, int32(whence), Int64Ptr(&pos), errBuf.Ptr())
	if err := errBuf.ToError(result); err != nil {
		return 0, err
	}
	return pos, nil
}

// Destroy frees the native reader and forgets the source.
func (r *Reader) Destroy() {
	if r.ptr != 0 && libLoaded.Load() {
		shimStreamReaderDestroy(r.ptr)
	}
	r.ptr = 0
	if r.ctx != 0 {
		unregisterSource(r.ctx)
		r.ctx = 0
	}
}
