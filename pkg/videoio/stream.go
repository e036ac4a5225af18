package videoio

import (
	"io"
	"runtime"
	"sync"

	"github.com/thesyncim/libgovideoio/internal/handle"
	"github.com/thesyncim/libgovideoio/internal/native"
)

var readers handle.Table[native.Reader]

// StreamReader adapts a Go byte source to the native stream reader
// interface, so a VideoCapture can decode from memory, a network body or any
// other io.ReadSeeker.
type StreamReader struct {
	mu      sync.Mutex
	h       handle.Handle
	cleanup runtime.Cleanup
}

func destroyReader(h handle.Handle) {
	if r, ok := readers.Remove(h); ok {
		r.Destroy()
	}
}

// NewStreamReader wraps src. The native side reads and seeks src from the
// goroutine that drives the capture.
func NewStreamReader(src io.ReadSeeker) (*StreamReader, error) {
	return invoke("StreamReader.NewStreamReader", func() (*StreamReader, error) {
		if src == nil {
			return nil, ErrNilReader
		}
		lib, err := library()
		if err != nil {
			return nil, err
		}
		nr, err := lib.NewReader(src)
		if err != nil {
			return nil, err
		}
		sr := &StreamReader{h: readers.Insert(nr)}
		sr.cleanup = runtime.AddCleanup(sr, destroyReader, sr.h)
		return sr, nil
	})
}

// native resolves the reader for a capture open call.
func (r *StreamReader) native() (native.Reader, error) {
	if r == nil {
		return nil, ErrNilReader
	}
	nr, ok := readers.Get(r.h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	return nr, nil
}

func readerCall[T any](r *StreamReader, method string, fn func(native.Reader) (T, error)) (T, error) {
	if r == nil {
		return invoke(method, func() (T, error) {
			var zero T
			return zero, ErrInvalidHandle
		})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return invoke(method, func() (T, error) {
		nr, ok := readers.Get(r.h)
		if !ok {
			var zero T
			return zero, ErrInvalidHandle
		}
		return fn(nr)
	})
}

// Read fills buf through the native reader and returns the number of bytes
// read. 0 means end of stream.
func (r *StreamReader) Read(buf []byte) (int64, error) {
	return readerCall(r, "StreamReader.Read", func(nr native.Reader) (int64, error) {
		return nr.Read(buf)
	})
}

// Seek repositions the stream. whence is io.SeekStart, io.SeekCurrent or
// io.SeekEnd.
func (r *StreamReader) Seek(offset int64, whence int) (int64, error) {
	return readerCall(r, "StreamReader.Seek", func(nr native.Reader) (int64, error) {
		return nr.Seek(offset, whence)
	})
}

// Close destroys the native reader. Captures opened on it must be closed
// or released first.
func (r *StreamReader) Close() error {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return invokeVoid("StreamReader.Close", func() error {
		nr, ok := readers.Remove(r.h)
		if !ok {
			return nil
		}
		r.cleanup.Stop()
		nr.Destroy()
		return nil
	})
}
