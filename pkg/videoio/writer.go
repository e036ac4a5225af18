package videoio

import (
	"runtime"
	"sync"

	"github.com/thesyncim/libgovideoio/internal/handle"
	"github.com/thesyncim/libgovideoio/internal/native"
	"github.com/thesyncim/libgovideoio/pkg/frame"
)

var writers handle.Table[native.Writer]

// WriterConfig describes an output stream.
type WriterConfig struct {
	// API is the backend preference. APIAny lets the library choose.
	API API
	// Fourcc is the codec code, see Fourcc. -1 asks some backends to pick.
	Fourcc int32
	FPS    float64
	Width  int
	Height int
	// IsColor selects 3-channel frames; false expects grayscale frames.
	IsColor bool
	// Params are extra open-time writer parameters.
	Params Params
}

// params folds IsColor into Params unless the caller set it explicitly.
func (cfg WriterConfig) params() []int32 {
	p := cfg.Params
	if _, ok := p.Lookup(int32(WriterPropIsColor)); !ok {
		isColor := int32(0)
		if cfg.IsColor {
			isColor = 1
		}
		p = p.WithWriter(WriterPropIsColor, isColor)
	}
	return p.ints()
}

// VideoWriter encodes frames into a video file or stream.
type VideoWriter struct {
	mu      sync.Mutex
	h       handle.Handle
	cleanup runtime.Cleanup
}

func destroyWriter(h handle.Handle) {
	if w, ok := writers.Remove(h); ok {
		w.Destroy()
	}
}

func constructWriter(method string, open func(native.Writer) (bool, error)) (*VideoWriter, error) {
	return invoke(method, func() (*VideoWriter, error) {
		lib, err := library()
		if err != nil {
			return nil, err
		}
		nw, err := lib.NewWriter()
		if err != nil {
			return nil, err
		}
		vw := &VideoWriter{h: writers.Insert(nw)}
		vw.cleanup = runtime.AddCleanup(vw, destroyWriter, vw.h)
		if open == nil {
			return vw, nil
		}
		if _, err := open(nw); err != nil {
			vw.destroy()
			return nil, err
		}
		return vw, nil
	})
}

// NewVideoWriter creates a writer that is not opened yet.
func NewVideoWriter() (*VideoWriter, error) {
	return constructWriter("VideoWriter.NewVideoWriter", nil)
}

// NewVideoWriterFile creates a writer and opens filename with the default
// backend.
func NewVideoWriterFile(filename string, fourcc int32, fps float64, width, height int, isColor bool) (*VideoWriter, error) {
	return NewVideoWriterConfig(filename, WriterConfig{
		Fourcc:  fourcc,
		FPS:     fps,
		Width:   width,
		Height:  height,
		IsColor: isColor,
	})
}

// NewVideoWriterConfig creates a writer and opens filename with cfg. Check
// IsOpened: an unsupported codec or path is not an error by itself.
func NewVideoWriterConfig(filename string, cfg WriterConfig) (*VideoWriter, error) {
	return constructWriter("VideoWriter.NewVideoWriterConfig", func(w native.Writer) (bool, error) {
		return openWriter(w, filename, cfg)
	})
}

func openWriter(w native.Writer, filename string, cfg WriterConfig) (bool, error) {
	return w.Open(filename, int32(cfg.API), cfg.Fourcc, cfg.FPS, int32(cfg.Width), int32(cfg.Height), cfg.params())
}

func writerCall[T any](w *VideoWriter, method string, fn func(native.Writer) (T, error)) (T, error) {
	if w == nil {
		return invoke(method, func() (T, error) {
			var zero T
			return zero, ErrInvalidHandle
		})
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return invoke(method, func() (T, error) {
		nw, ok := writers.Get(w.h)
		if !ok {
			var zero T
			return zero, ErrInvalidHandle
		}
		return fn(nw)
	})
}

// Open finalizes any current output and starts writing filename.
func (w *VideoWriter) Open(filename string, cfg WriterConfig) (bool, error) {
	return writerCall(w, "VideoWriter.Open", func(nw native.Writer) (bool, error) {
		return openWriter(nw, filename, cfg)
	})
}

func (w *VideoWriter) IsOpened() (bool, error) {
	return writerCall(w, "VideoWriter.IsOpened", native.Writer.IsOpened)
}

// Release finalizes the output file.
func (w *VideoWriter) Release() error {
	_, err := writerCall(w, "VideoWriter.Release", func(nw native.Writer) (struct{}, error) {
		return struct{}{}, nw.Release()
	})
	return err
}

// Write encodes one frame. The frame's pixels are read in place.
func (w *VideoWriter) Write(f *frame.VideoFrame) error {
	_, err := writerCall(w, "VideoWriter.Write", func(nw native.Writer) (struct{}, error) {
		if f == nil {
			return struct{}{}, ErrNilFrame
		}
		return struct{}{}, nw.Write(f)
	})
	return err
}

func (w *VideoWriter) Set(prop WriterProperty, value float64) (bool, error) {
	return writerCall(w, "VideoWriter.Set", func(nw native.Writer) (bool, error) {
		return nw.Set(int32(prop), value)
	})
}

func (w *VideoWriter) Get(prop WriterProperty) (float64, error) {
	return writerCall(w, "VideoWriter.Get", func(nw native.Writer) (float64, error) {
		return nw.Get(int32(prop))
	})
}

// BackendName returns the backend used by the open output.
func (w *VideoWriter) BackendName() (string, error) {
	return writerCall(w, "VideoWriter.BackendName", native.Writer.BackendName)
}

// Close finalizes the output and destroys the native writer. Closing twice
// is a no-op.
func (w *VideoWriter) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return invokeVoid("VideoWriter.Close", func() error {
		w.destroy()
		return nil
	})
}

func (w *VideoWriter) destroy() {
	nw, ok := writers.Remove(w.h)
	if !ok {
		return
	}
	w.cleanup.Stop()
	nw.Destroy()
}
