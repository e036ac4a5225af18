package ffi

import (
	"github.com/ebitengine/purego"
	"github.com/pkg/errors"
)

// Shim entry points. Every call that can fail takes a trailing
// ShimErrorBuffer pointer and returns a status code.
var (
	shimVersion       func() uintptr
	shimOpenCVVersion func() uintptr

	// Capture
	shimCaptureCreate           func(out, errBuf uintptr) int32
	shimCaptureDestroy          func(c uintptr)
	shimCaptureOpenFile         func(c, filename uintptr, api int32, params uintptr, nparams int32, out, errBuf uintptr) int32
	shimCaptureOpenIndex        func(c uintptr, index, api int32, params uintptr, nparams int32, out, errBuf uintptr) int32
	shimCaptureOpenStream       func(c, reader uintptr, api int32, params uintptr, nparams int32, out, errBuf uintptr) int32
	shimCaptureIsOpened         func(c, out, errBuf uintptr) int32
	shimCaptureRelease          func(c, errBuf uintptr) int32
	shimCaptureGrab             func(c, out, errBuf uintptr) int32
	shimCaptureRetrieve         func(c, mat uintptr, flag int32, out, errBuf uintptr) int32
	shimCaptureRead             func(c, mat, out, errBuf uintptr) int32
	shimCaptureSet              func(c uintptr, prop int32, value float64, out, errBuf uintptr) int32
	shimCaptureGet              func(c uintptr, prop int32, out, errBuf uintptr) int32
	shimCaptureGetBackendName   func(c, buf uintptr, bufCap int32, outLen, errBuf uintptr) int32
	shimCaptureSetExceptionMode func(c uintptr, enable int32, errBuf uintptr) int32
	shimCaptureGetExceptionMode func(c, out, errBuf uintptr) int32

	// Writer
	shimWriterCreate         func(out, errBuf uintptr) int32
	shimWriterDestroy        func(w uintptr)
	shimWriterOpen           func(w, filename uintptr, api, fourcc int32, fps float64, width, height int32, params uintptr, nparams int32, out, errBuf uintptr) int32
	shimWriterIsOpened       func(w, out, errBuf uintptr) int32
	shimWriterRelease        func(w, errBuf uintptr) int32
	shimWriterWrite          func(w, mat, errBuf uintptr) int32
	shimWriterSet            func(w uintptr, prop int32, value float64, out, errBuf uintptr) int32
	shimWriterGet            func(w uintptr, prop int32, out, errBuf uintptr) int32
	shimWriterGetBackendName func(w, buf uintptr, bufCap int32, outLen, errBuf uintptr) int32

	// Mat
	shimMatCreate  func(out, errBuf uintptr) int32
	shimMatDestroy func(m uintptr)
	shimMatInfoFn  func(m, info uintptr) int32
	shimMatWrap    func(rows, cols, matType int32, data, step, out, errBuf uintptr) int32

	// Registry
	shimRegistryGetBackendName   func(api int32, buf uintptr, bufCap int32, outLen, errBuf uintptr) int32
	shimRegistryGetBackends      func(kind int32, out uintptr, maxCount int32, count, errBuf uintptr) int32
	shimRegistryHasBackend       func(api int32, out, errBuf uintptr) int32
	shimRegistryIsBackendBuiltIn func(api int32, out, errBuf uintptr) int32
	shimRegistryGetPluginVersion func(kind, api int32, buf uintptr, bufCap int32, outLen, abi, apiVersion, errBuf uintptr) int32

	// Stream reader
	shimStreamReaderCreate  func(readCb, seekCb, ctx, out, errBuf uintptr) int32
	shimStreamReaderRead    func(r, buf uintptr, size int64, out, errBuf uintptr) int32
	shimStreamReaderSeek    func(r uintptr, offset int64, origin int32, out, errBuf uintptr) int32
	shimStreamReaderDestroy func(r uintptr)
)

type symbol struct {
	name string
	fptr any
}

func symbols() []symbol {
	return []symbol{
		{"shim_version", &shimVersion},
		{"shim_opencv_version", &shimOpenCVVersion},

		{"shim_capture_create", &shimCaptureCreate},
		{"shim_capture_destroy", &shimCaptureDestroy},
		{"shim_capture_open_file", &shimCaptureOpenFile},
		{"shim_capture_open_index", &shimCaptureOpenIndex},
		{"shim_capture_open_stream", &shimCaptureOpenStream},
		{"shim_capture_is_opened", &shimCaptureIsOpened},
		{"shim_capture_release", &shimCaptureRelease},
		{"shim_capture_grab", &shimCaptureGrab},
		{"shim_capture_retrieve", &shimCaptureRetrieve},
		{"shim_capture_read", &shimCaptureRead},
		{"shim_capture_set", &shimCaptureSet},
		{"shim_capture_get", &shimCaptureGet},
		{"shim_capture_get_backend_name", &shimCaptureGetBackendName},
		{"shim_capture_set_exception_mode", &shimCaptureSetExceptionMode},
		{"shim_capture_get_exception_mode", &shimCaptureGetExceptionMode},

		{"shim_writer_create", &shimWriterCreate},
		{"shim_writer_destroy", &shimWriterDestroy},
		{"shim_writer_open", &shimWriterOpen},
		{"shim_writer_is_opened", &shimWriterIsOpened},
		{"shim_writer_release", &shimWriterRelease},
		{"shim_writer_write", &shimWriterWrite},
		{"shim_writer_set", &shimWriterSet},
		{"shim_writer_get", &shimWriterGet},
		{"shim_writer_get_backend_name", &shimWriterGetBackendName},

		{"shim_mat_create", &shimMatCreate},
		{"shim_mat_destroy", &shimMatDestroy},
		{"shim_mat_info", &shimMatInfoFn},
		{"shim_mat_wrap", &shimMatWrap},

		{"shim_registry_get_backend_name", &shimRegistryGetBackendName},
		{"shim_registry_get_backends", &shimRegistryGetBackends},
		{"shim_registry_has_backend", &shimRegistryHasBackend},
		{"shim_registry_is_backend_built_in", &shimRegistryIsBackendBuiltIn},
		{"shim_registry_get_plugin_version", &shimRegistryGetPluginVersion},

		{"shim_stream_reader_create", &shimStreamReaderCreate},
		{"shim_stream_reader_read", &shimStreamReaderRead},
		{"shim_stream_reader_seek", &shimStreamReaderSeek},
		{"shim_stream_reader_destroy", &shimStreamReaderDestroy},
	}
}

// registerFunctions resolves every shim symbol. A missing symbol means the
// shim on disk is older than this package.
func registerFunctions(handle uintptr) error {
	for _, s := range symbols() {
		sym, err := dlsymLibrary(handle, s.name)
		if err != nil {
			return errors.Wrapf(ErrVersionMismatch, "resolve %s: %v", s.name, err)
		}
		purego.RegisterFunc(s.fptr, sym)
	}
	return nil
}

const (
	initialStringCap = 256
	maxStringCap     = 64 << 10
)

// readString calls a shim getter that copies a string into a caller buffer.
// On ShimErrBufferTooSmall outLen holds the required size and the call is
// retried with a larger buffer.
func readString(call func(buf uintptr, bufCap int32, outLen, errBuf uintptr) int32) (string, error) {
	size := initialStringCap
	for {
		buf := make([]byte, size)
		var outLen int32
		var errBuf ShimErrorBuffer
		result := call(ByteSlicePtr(buf), int32(len(buf)), Int32Ptr(&outLen), errBuf.Ptr())
		if result == ShimErrBufferTooSmall && size < maxStringCap {
			next := int(outLen) + 1
			if next <= size {
				next = size * 2
			}
			size = min(next, maxStringCap)
			continue
		}
		if err := errBuf.ToError(result); err != nil {
			return "", err
		}
		if outLen < 0 || int(outLen) > len(buf) {
			return CStringToGo(buf), nil
		}
		return string(buf[:outLen]), nil
	}
}
