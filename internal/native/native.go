// Package native describes the object model of the wrapped video library.
//
// The binding layer in pkg/videoio talks to these interfaces only. The shim
// bindings in internal/ffi implement them over libvideoio_shim; tests use an
// in-memory implementation from internal/testutil.
package native

import (
	"fmt"
	"io"

	"github.com/thesyncim/libgovideoio/pkg/frame"
)

// ExceptionKind classifies a failure raised inside the native library.
type ExceptionKind int

const (
	// KindLibrary is the wrapped library's own exception type (cv::Exception).
	KindLibrary ExceptionKind = iota + 1
	// KindStandard is any other standard exception (std::exception and subclasses).
	KindStandard
	// KindUnknown is a failure that carried no exception object.
	KindUnknown
)

// String returns the native type name used in error messages.
func (k ExceptionKind) String() string {
	switch k {
	case KindLibrary:
		return "cv::Exception"
	case KindStandard:
		return "std::exception"
	default:
		return "unknown"
	}
}

// Exception is a failure raised by a native call.
type Exception struct {
	Kind ExceptionKind
	// What is the exception's message text.
	What string
}

func (e *Exception) Error() string {
	if e.Kind == KindUnknown {
		return "unknown exception"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.What)
}

// BackendKind selects one of the registry's backend categories.
type BackendKind int

const (
	BackendsAll BackendKind = iota
	BackendsCamera
	BackendsStream
	BackendsStreamBuffered
	BackendsWriter
)

// String returns the category name.
func (k BackendKind) String() string {
	switch k {
	case BackendsAll:
		return "all"
	case BackendsCamera:
		return "camera"
	case BackendsStream:
		return "stream"
	case BackendsStreamBuffered:
		return "stream-buffered"
	case BackendsWriter:
		return "writer"
	default:
		return "unknown"
	}
}

// Capture is a native video capture object.
type Capture interface {
	OpenFile(filename string, api int32, params []int32) (bool, error)
	OpenIndex(index, api int32, params []int32) (bool, error)
	OpenStream(src Reader, api int32, params []int32) (bool, error)
	IsOpened() (bool, error)
	Release() error
	Grab() (bool, error)
	Retrieve(dst *frame.VideoFrame, flag int32) (bool, error)
	Read(dst *frame.VideoFrame) (bool, error)
	Set(prop int32, value float64) (bool, error)
	Get(prop int32) (float64, error)
	BackendName() (string, error)
	SetExceptionMode(enable bool) error
	ExceptionMode() (bool, error)
	// Destroy frees the native object. It must be called exactly once.
	Destroy()
}

// Writer is a native video writer object.
type Writer interface {
	Open(filename string, api, fourcc int32, fps float64, width, height int32, params []int32) (bool, error)
	IsOpened() (bool, error)
	Release() error
	Write(f *frame.VideoFrame) error
	Set(prop int32, value float64) (bool, error)
	Get(prop int32) (float64, error)
	BackendName() (string, error)
	Destroy()
}

// Reader is a native stream reader backed by a caller-supplied byte source.
type Reader interface {
	Read(buf []byte) (int64, error)
	Seek(offset int64, whence int) (int64, error)
	Destroy()
}

// Registry exposes the native backend registry.
type Registry interface {
	BackendName(api int32) (string, error)
	Backends(kind BackendKind) ([]int32, error)
	HasBackend(api int32) (bool, error)
	IsBackendBuiltIn(api int32) (bool, error)
	PluginVersion(kind BackendKind, api int32) (description string, abi, apiVersion int32, err error)
}

// Library creates native objects.
type Library interface {
	NewCapture() (Capture, error)
	NewWriter() (Writer, error)
	NewReader(src io.ReadSeeker) (Reader, error)
	Registry() Registry
}
