package videoio

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/thesyncim/libgovideoio/internal/ffi"
	"github.com/thesyncim/libgovideoio/internal/native"
)

// LoadOptions controls where the native shim is loaded from.
type LoadOptions struct {
	// Path is an explicit shim library path.
	Path string
	// SearchDirs are checked before the default locations.
	SearchDirs []string
}

var (
	libMu  sync.RWMutex
	active native.Library
)

// Load loads the native shim and makes it the active library. Calling Load
// again after a successful load is a no-op. Without an explicit Load the
// first entry point loads the shim from the default locations.
func Load(opts LoadOptions) error {
	libMu.Lock()
	defer libMu.Unlock()
	return loadLocked(opts)
}

func loadLocked(opts LoadOptions) error {
	if active != nil {
		return nil
	}
	if err := ffi.LoadLibraryWithOptions(ffi.Options{Path: opts.Path, SearchDirs: opts.SearchDirs}); err != nil {
		return errors.Wrap(err, "load video shim")
	}
	if err := ffi.CheckVersion(); err != nil {
		logger.Load().WithError(err).Warn("shim version differs from the bindings")
	}
	logger.Load().WithFields(logrus.Fields{
		"shim":   ffi.ShimVersion(),
		"opencv": ffi.OpenCVVersion(),
	}).Debug("video shim loaded")
	active = ffi.Library{}
	return nil
}

// UseLibrary replaces the active native library and returns a function that
// restores the previous one. Tests use it to run against an in-memory
// implementation.
func UseLibrary(l native.Library) (restore func()) {
	libMu.Lock()
	prev := active
	active = l
	libMu.Unlock()
	return func() {
		libMu.Lock()
		active = prev
		libMu.Unlock()
	}
}

// library returns the active library, loading the shim on first use.
func library() (native.Library, error) {
	libMu.RLock()
	l := active
	libMu.RUnlock()
	if l != nil {
		return l, nil
	}

	libMu.Lock()
	defer libMu.Unlock()
	if err := loadLocked(LoadOptions{}); err != nil {
		return nil, err
	}
	return active, nil
}

// Versions reports the shim and native library versions. Both are empty when
// the shim is not loaded.
func Versions() (shim, opencv string) {
	return ffi.ShimVersion(), ffi.OpenCVVersion()
}
