// Package ffi provides FFI bindings to the libvideoio_shim library, a C ABI
// over the native video I/O library.
// It supports both purego (default) and CGO dlopen backends via build tags.
package ffi

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/adrg/xdg"
	"github.com/pkg/errors"
)

var (
	// ErrLibraryNotLoaded is returned when the shim library hasn't been loaded.
	ErrLibraryNotLoaded = errors.New("libvideoio_shim library not loaded")

	// ErrLibraryNotFound is returned when the shim library cannot be found.
	ErrLibraryNotFound = errors.New("libvideoio_shim library not found")

	// ErrVersionMismatch is returned when the shim version doesn't match.
	ErrVersionMismatch = errors.New("shim version mismatch")
)

// EnvShimPath overrides every other search location.
const EnvShimPath = "LIBVIDEOIO_SHIM_PATH"

// ExpectedShimVersion is the shim API version this Go code expects.
// Must match kShimVersion in shim/shim_common.cc.
const ExpectedShimVersion = "0.3.0"

var (
	libHandle uintptr
	libLoaded atomic.Bool // lock-free reads on every call
	libMu     sync.Mutex  // load/unload only
)

// Options controls where LoadLibraryWithOptions looks for the shim.
type Options struct {
	// Path is an explicit library path. When set, no search happens.
	Path string
	// SearchDirs are checked before the built-in locations. Each directory may
	// contain the library directly or under lib/{os}_{arch}/.
	SearchDirs []string
}

// LoadLibrary loads the shim using the environment only.
// It searches in the following locations:
// 1. Path specified by LIBVIDEOIO_SHIM_PATH
// 2. ./lib/{os}_{arch}/ relative to the executable, working dir and module root
// 3. $XDG_DATA_HOME/libgovideoio/lib/{os}_{arch}/
// 4. System library paths
func LoadLibrary() error {
	return LoadLibraryWithOptions(Options{})
}

// LoadLibraryWithOptions loads the shim, checking opts first.
func LoadLibraryWithOptions(opts Options) error {
	libMu.Lock()
	defer libMu.Unlock()

	if libLoaded.Load() {
		return nil
	}

	if runtime.GOOS == "linux" {
		preloadLinuxDeps()
	}

	libPath := resolveLibrary(opts)

	handle, err := dlopenLibrary(libPath, RTLD_NOW|RTLD_GLOBAL)
	if err != nil {
		return errors.Wrapf(ErrLibraryNotFound, "load %s: %v", libPath, err)
	}

	libHandle = handle
	if err := registerFunctions(handle); err != nil {
		_ = dlcloseLibrary(handle)
		libHandle = 0
		return err
	}

	libLoaded.Store(true)
	return nil
}

// MustLoadLibrary loads the library and panics on failure.
func MustLoadLibrary() {
	if err := LoadLibrary(); err != nil {
		panic(fmt.Sprintf("libgovideoio: %v", err))
	}
}

// IsLoaded returns true if the shim library is loaded.
func IsLoaded() bool {
	return libLoaded.Load()
}

// Close unloads the shim library. Native objects created before Close must
// already be destroyed.
func Close() error {
	libMu.Lock()
	defer libMu.Unlock()

	if !libLoaded.Load() {
		return nil
	}

	if err := dlcloseLibrary(libHandle); err != nil {
		return errors.Wrap(err, "unload shim")
	}

	libLoaded.Store(false)
	libHandle = 0
	return nil
}

// ShimVersion returns the shim library version.
// Returns empty string if library is not loaded.
func ShimVersion() string {
	if !libLoaded.Load() {
		return ""
	}
	ptr := shimVersion()
	if ptr == 0 {
		return ""
	}
	return GoString(ptr)
}

// OpenCVVersion returns the version of the native library the shim was
// built against. Returns empty string if library is not loaded.
func OpenCVVersion() string {
	if !libLoaded.Load() {
		return ""
	}
	ptr := shimOpenCVVersion()
	if ptr == 0 {
		return ""
	}
	return GoString(ptr)
}

// CheckVersion verifies the shim version matches what this Go code expects.
func CheckVersion() error {
	if !libLoaded.Load() {
		return ErrLibraryNotLoaded
	}
	if v := ShimVersion(); v != ExpectedShimVersion {
		return errors.Wrapf(ErrVersionMismatch, "shim version %q, expected %q", v, ExpectedShimVersion)
	}
	return nil
}

func resolveLibrary(opts Options) string {
	if opts.Path != "" {
		return opts.Path
	}
	if path, ok := findLocalLibrary(opts.SearchDirs); ok {
		return path
	}
	// Let the system loader try its own paths.
	return getLibraryName()
}

func findLocalLibrary(extraDirs []string) (string, bool) {
	if path := strings.TrimSpace(os.Getenv(EnvShimPath)); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, true
		}
	}

	for _, path := range searchPaths(extraDirs) {
		if _, err := os.Stat(path); err == nil {
			absPath, _ := filepath.Abs(path)
			return absPath, true
		}
	}
	return "", false
}

func searchPaths(extraDirs []string) []string {
	libName := getLibraryName()
	platformDir := fmt.Sprintf("%s_%s", runtime.GOOS, runtime.GOARCH)

	var paths []string
	for _, dir := range extraDirs {
		paths = append(paths,
			filepath.Join(dir, libName),
			filepath.Join(dir, "lib", platformDir, libName),
		)
	}

	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		paths = append(paths, filepath.Join(execDir, "lib", platformDir, libName))
	}

	if wd, err := os.Getwd(); err == nil {
		paths = append(paths,
			filepath.Join(wd, "lib", platformDir, libName),
			filepath.Join(wd, "..", "lib", platformDir, libName),
			filepath.Join(wd, "..", "..", "lib", platformDir, libName),
		)
	}

	// thisFile is .../internal/ffi/lib.go; the module root is two levels up.
	if _, thisFile, _, ok := runtime.Caller(0); ok {
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
		paths = append(paths, filepath.Join(moduleRoot, "lib", platformDir, libName))
	}

	paths = append(paths, filepath.Join(xdg.DataHome, "libgovideoio", "lib", platformDir, libName))
	return paths
}

func getLibraryName() string {
	return getLibraryNameFor(runtime.GOOS)
}

func getLibraryNameFor(goos string) string {
	switch goos {
	case "darwin":
		return "libvideoio_shim.dylib"
	case "windows":
		return "videoio_shim.dll"
	default:
		return "libvideoio_shim.so"
	}
}

// preloadLinuxDeps makes the native library's own dependencies visible with
// RTLD_GLOBAL before the shim is loaded, so plugin backends resolve them.
func preloadLinuxDeps() {
	libs := []string{
		"libopencv_core.so",
		"libopencv_imgproc.so",
		"libopencv_imgcodecs.so",
		"libopencv_videoio.so",
	}
	for _, lib := range libs {
		// Best effort: distributions that link the shim statically have none of these.
		_, _ = dlopenLibrary(lib, RTLD_NOW|RTLD_GLOBAL)
	}
}

// GoString converts a NUL-terminated C string owned by the shim to a Go string.
func GoString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(unsafe.Pointer(ptr), n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n))
}
