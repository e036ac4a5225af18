package videoio

import (
	"errors"

	"github.com/thesyncim/libgovideoio/internal/handle"
	"github.com/thesyncim/libgovideoio/internal/native"
)

const unknownExceptionMessage = "unknown exception"

var (
	// ErrInvalidHandle is returned (wrapped in *Exception) by any call on a
	// closed or zero-value object.
	ErrInvalidHandle = handle.ErrInvalidHandle

	// ErrNilFrame is returned when a nil frame is passed to Retrieve, Read or Write.
	ErrNilFrame = errors.New("nil frame")

	// ErrNilReader is returned when a nil stream reader or source is passed.
	ErrNilReader = errors.New("nil stream reader")
)

// CvException reports an exception raised by the native video library
// itself (cv::Exception).
type CvException struct {
	// What is the native exception's message.
	What  string
	cause error
}

func (e *CvException) Error() string {
	return "cv::Exception: " + e.What
}

func (e *CvException) Unwrap() error { return e.cause }

// Exception reports every other failure: a standard native exception, an
// unknown native failure, or a binding-level error such as an invalid handle.
type Exception struct {
	msg   string
	cause error
}

func (e *Exception) Error() string { return e.msg }

// Unwrap returns the underlying cause.
func (e *Exception) Unwrap() error { return e.cause }

// Unknown reports whether the failure carried no exception information.
func (e *Exception) Unknown() bool { return e.msg == unknownExceptionMessage }

// classify maps any error from a native call onto the two public classes.
func classify(err error) error {
	switch err.(type) {
	case nil:
		return nil
	case *CvException, *Exception:
		return err
	}

	var ne *native.Exception
	if errors.As(err, &ne) {
		switch ne.Kind {
		case native.KindLibrary:
			return &CvException{What: ne.What, cause: err}
		case native.KindStandard:
			return &Exception{msg: "std::exception: " + ne.What, cause: err}
		default:
			return &Exception{msg: unknownExceptionMessage, cause: err}
		}
	}
	return &Exception{msg: err.Error(), cause: err}
}
