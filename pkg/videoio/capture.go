package videoio

import (
	"runtime"
	"sync"

	"github.com/thesyncim/libgovideoio/internal/handle"
	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

var captures handle.Table[native.Capture]

// VideoCapture reads frames from a video file, an image sequence, a camera
// or a caller-supplied byte stream.
//
// A VideoCapture owns one native capture object until Close. Its methods
// are serialized; they block the calling goroutine for the duration of the
// native call, including device and network I/O.
type VideoCapture struct {
	mu      sync.Mutex
	h       handle.Handle
	cleanup runtime.Cleanup
	// src keeps the reader of an open stream source reachable.
	src *StreamReader
}

func destroyCapture(h handle.Handle) {
	if c, ok := captures.Remove(h); ok {
		c.Destroy()
	}
}

func newCapture(lib native.Library) (*VideoCapture, native.Capture, error) {
	nc, err := lib.NewCapture()
	if err != nil {
		return nil, nil, err
	}
	vc := &VideoCapture{h: captures.Insert(nc)}
	vc.cleanup = runtime.AddCleanup(vc, destroyCapture, vc.h)
	return vc, nc, nil
}

// constructCapture creates a capture and runs open on it. A failing open
// destroys the capture again; an open that merely reports false does not.
func constructCapture(method string, open func(native.Capture) (bool, error)) (*VideoCapture, error) {
	return invoke(method, func() (*VideoCapture, error) {
		lib, err := library()
		if err != nil {
			return nil, err
		}
		vc, nc, err := newCapture(lib)
		if err != nil {
			return nil, err
		}
		if open == nil {
			return vc, nil
		}
		if _, err := open(nc); err != nil {
			vc.destroy()
			return nil, err
		}
		return vc, nil
	})
}

// NewVideoCapture creates a capture that is not opened yet.
func NewVideoCapture() (*VideoCapture, error) {
	return constructCapture("VideoCapture.NewVideoCapture", nil)
}

// NewVideoCaptureFile creates a capture and opens filename with the given
// backend preference. Check IsOpened: failing to open is not an error unless
// the native library raises one.
func NewVideoCaptureFile(filename string, api API) (*VideoCapture, error) {
	return constructCapture("VideoCapture.NewVideoCaptureFile", func(c native.Capture) (bool, error) {
		return c.OpenFile(filename, int32(api), nil)
	})
}

// NewVideoCaptureFileParams is NewVideoCaptureFile with open-time parameters.
func NewVideoCaptureFileParams(filename string, api API, params Params) (*VideoCapture, error) {
	return constructCapture("VideoCapture.NewVideoCaptureFileParams", func(c native.Capture) (bool, error) {
		return c.OpenFile(filename, int32(api), params.ints())
	})
}

// NewVideoCaptureIndex creates a capture and opens camera index.
func NewVideoCaptureIndex(index int, api API) (*VideoCapture, error) {
	return constructCapture("VideoCapture.NewVideoCaptureIndex", func(c native.Capture) (bool, error) {
		return c.OpenIndex(int32(index), int32(api), nil)
	})
}

// NewVideoCaptureIndexParams is NewVideoCaptureIndex with open-time parameters.
func NewVideoCaptureIndexParams(index int, api API, params Params) (*VideoCapture, error) {
	return constructCapture("VideoCapture.NewVideoCaptureIndexParams", func(c native.Capture) (bool, error) {
		return c.OpenIndex(int32(index), int32(api), params.ints())
	})
}

// NewVideoCaptureStream creates a capture reading from r. The capture keeps
// r reachable while the stream is open, but an explicit r.Close still
// invalidates it.
func NewVideoCaptureStream(r *StreamReader, api API, params Params) (*VideoCapture, error) {
	var opened bool
	vc, err := constructCapture("VideoCapture.NewVideoCaptureStream", func(c native.Capture) (bool, error) {
		nr, err := r.native()
		if err != nil {
			return false, err
		}
		opened, err = c.OpenStream(nr, int32(api), params.ints())
		return opened, err
	})
	if err == nil && opened {
		vc.src = r
	}
	return vc, err
}

// captureCall runs fn on the native capture behind c under c's lock.
func captureCall[T any](c *VideoCapture, method string, fn func(native.Capture) (T, error)) (T, error) {
	if c == nil {
		return invoke(method, func() (T, error) {
			var zero T
			return zero, ErrInvalidHandle
		})
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return invoke(method, func() (T, error) {
		nc, ok := captures.Get(c.h)
		if !ok {
			var zero T
			return zero, ErrInvalidHandle
		}
		return fn(nc)
	})
}

// OpenFile closes any open source and opens filename.
func (c *VideoCapture) OpenFile(filename string, api API) (bool, error) {
	return captureCall(c, "VideoCapture.OpenFile", func(nc native.Capture) (bool, error) {
		c.src = nil
		return nc.OpenFile(filename, int32(api), nil)
	})
}

// OpenFileParams is OpenFile with open-time parameters.
func (c *VideoCapture) OpenFileParams(filename string, api API, params Params) (bool, error) {
	return captureCall(c, "VideoCapture.OpenFileParams", func(nc native.Capture) (bool, error) {
		c.src = nil
		return nc.OpenFile(filename, int32(api), params.ints())
	})
}

// OpenIndex closes any open source and opens camera index.
func (c *VideoCapture) OpenIndex(index int, api API) (bool, error) {
	return captureCall(c, "VideoCapture.OpenIndex", func(nc native.Capture) (bool, error) {
		c.src = nil
		return nc.OpenIndex(int32(index), int32(api), nil)
	})
}

// OpenIndexParams is OpenIndex with open-time parameters.
func (c *VideoCapture) OpenIndexParams(index int, api API, params Params) (bool, error) {
	return captureCall(c, "VideoCapture.OpenIndexParams", func(nc native.Capture) (bool, error) {
		c.src = nil
		return nc.OpenIndex(int32(index), int32(api), params.ints())
	})
}

// OpenStream closes any open source and reads from r instead.
func (c *VideoCapture) OpenStream(r *StreamReader, api API, params Params) (bool, error) {
	return captureCall(c, "VideoCapture.OpenStream", func(nc native.Capture) (bool, error) {
		nr, err := r.native()
		if err != nil {
			return false, err
		}
		ok, err := nc.OpenStream(nr, int32(api), params.ints())
		if err != nil {
			return false, err
		}
		c.src = nil
		if ok {
			c.src = r
		}
		return ok, nil
	})
}

func (c *VideoCapture) IsOpened() (bool, error) {
	return captureCall(c, "VideoCapture.IsOpened", native.Capture.IsOpened)
}

// Release closes the source. The capture can be opened again.
func (c *VideoCapture) Release() error {
	_, err := captureCall(c, "VideoCapture.Release", func(nc native.Capture) (struct{}, error) {
		c.src = nil
		return struct{}{}, nc.Release()
	})
	return err
}

// Grab advances to the next frame without decoding it.
func (c *VideoCapture) Grab() (bool, error) {
	return captureCall(c, "VideoCapture.Grab", native.Capture.Grab)
}

// Retrieve decodes the grabbed frame into dst. dst becomes a view of native
// memory that stays valid until the next Grab, Retrieve or Read on this
// capture, or until dst.Release. When no frame is available dst is reset to
// an empty frame, whether it was a view or owned its buffer, and false is
// returned.
func (c *VideoCapture) Retrieve(dst *frame.VideoFrame, flag int) (bool, error) {
	return captureCall(c, "VideoCapture.Retrieve", func(nc native.Capture) (bool, error) {
		if dst == nil {
			return false, ErrNilFrame
		}
		return nc.Retrieve(dst, int32(flag))
	})
}

// Read grabs and retrieves the next frame into dst.
func (c *VideoCapture) Read(dst *frame.VideoFrame) (bool, error) {
	return captureCall(c, "VideoCapture.Read", func(nc native.Capture) (bool, error) {
		if dst == nil {
			return false, ErrNilFrame
		}
		return nc.Read(dst)
	})
}

// Set changes a property. false means the backend ignored it.
func (c *VideoCapture) Set(prop Property, value float64) (bool, error) {
	return captureCall(c, "VideoCapture.Set", func(nc native.Capture) (bool, error) {
		return nc.Set(int32(prop), value)
	})
}

// Get returns a property. Unsupported properties read as 0.
func (c *VideoCapture) Get(prop Property) (float64, error) {
	return captureCall(c, "VideoCapture.Get", func(nc native.Capture) (float64, error) {
		return nc.Get(int32(prop))
	})
}

// BackendName returns the name of the backend serving the open source.
// The native library raises an exception when nothing is open.
func (c *VideoCapture) BackendName() (string, error) {
	return captureCall(c, "VideoCapture.BackendName", native.Capture.BackendName)
}

// SetExceptionMode makes the native capture raise exceptions instead of
// returning false on open and frame acquisition failures.
func (c *VideoCapture) SetExceptionMode(enable bool) error {
	_, err := captureCall(c, "VideoCapture.SetExceptionMode", func(nc native.Capture) (struct{}, error) {
		return struct{}{}, nc.SetExceptionMode(enable)
	})
	return err
}

func (c *VideoCapture) ExceptionMode() (bool, error) {
	return captureCall(c, "VideoCapture.ExceptionMode", native.Capture.ExceptionMode)
}

// Close destroys the native capture. Closing twice is a no-op; every other
// method fails with ErrInvalidHandle afterwards.
func (c *VideoCapture) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return invokeVoid("VideoCapture.Close", func() error {
		c.destroy()
		return nil
	})
}

func (c *VideoCapture) destroy() {
	nc, ok := captures.Remove(c.h)
	if !ok {
		return
	}
	c.cleanup.Stop()
	nc.Destroy()
	c.src = nil
}
