package videoio

import (
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

var logger atomic.Pointer[logrus.Logger]

func init() {
	logger.Store(logrus.StandardLogger())
}

// SetLogger replaces the logger used for entry and failure logging.
// A nil logger restores the logrus standard logger.
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = logrus.StandardLogger()
	}
	logger.Store(l)
}

// invoke runs one native call for the entry point method. It logs entry,
// turns a panic into the unknown failure, and classifies and logs errors.
// On error the zero T is returned.
func invoke[T any](method string, call func() (T, error)) (result T, err error) {
	entry := logger.Load().WithField("method", method)
	entry.Debug("entering")

	defer func() {
		if r := recover(); r != nil {
			err = &Exception{msg: unknownExceptionMessage, cause: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			var zero T
			result = zero
			err = classify(err)
			entry.Errorf("%s caught %s", method, err.Error())
		}
	}()

	return call()
}

// invokeVoid is invoke for calls without a result.
func invokeVoid(method string, call func() error) error {
	_, err := invoke(method, func() (struct{}, error) {
		return struct{}{}, call()
	})
	return err
}
