package ffi

import (
	"io"

	"github.com/thesyncim/libgovideoio/internal/native"
)

// Library is the shim-backed native.Library. The shim must be loaded before
// any method is called.
type Library struct{}

var _ native.Library = Library{}

func (Library) NewCapture() (native.Capture, error) {
	c, err := CreateCapture()
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (Library) NewWriter() (native.Writer, error) {
	w, err := CreateWriter()
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (Library) NewReader(src io.ReadSeeker) (native.Reader, error) {
	r, err := CreateReader(src)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (Library) Registry() native.Registry {
	return Registry{}
}
