package ffi

import (
	"github.com/thesyncim/libgovideoio/internal/native"
)

// Registry exposes the native backend registry. It holds no state.
type Registry struct{}

var _ native.Registry = Registry{}

func (Registry) BackendName(api int32) (string, error) {
	if !libLoaded.Load() {
		return "", ErrLibraryNotLoaded
	}
	return readString(func(buf uintptr, bufCap int32, outLen, errBuf uintptr) int32 {
		return shimRegistryGetBackendName(api, buf, bufCap, outLen, errBuf)
	})
}

// Backends returns the identifiers in the order the registry reports them.
func (Registry) Backends(kind native.BackendKind) ([]int32, error) {
	if !libLoaded.Load() {
		return nil, ErrLibraryNotLoaded
	}
	ids := make([]int32, 64)
	for {
		var count int32
		var errBuf ShimErrorBuffer
		result := shimRegistryGetBackends(int32(kind), Int32SlicePtr(ids), int32(len(ids)), Int32Ptr(&count), errBuf.Ptr())
		if result == ShimErrBufferTooSmall && int(count) > len(ids) {
			ids = make([]int32, count)
			continue
		}
		if err := errBuf.ToError(result); err != nil {
			return nil, err
		}
		return ids[:count:count], nil
	}
}

func (Registry) HasBackend(api int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var v int32
	var errBuf ShimErrorBuffer
	result := shimRegistryHasBackend(api, Int32Ptr(&v), errBuf.Ptr())
	return v != 0, errBuf.ToError(result)
}

func (Registry) IsBackendBuiltIn(api int32) (bool, error) {
	if !libLoaded.Load() {
		return false, ErrLibraryNotLoaded
	}
	var v int32
	var errBuf ShimErrorBuffer
	result := shimRegistryIsBackendBuiltIn(api, Int32Ptr(&v), errBuf.Ptr())
	return v != 0, errBuf.ToError(result)
}

// PluginVersion queries the plugin behind api for one backend category.
// Built-in backends report a library error.
func (Registry) PluginVersion(kind native.BackendKind, api int32) (string, int32, int32, error) {
	if !libLoaded.Load() {
		return "", 0, 0, ErrLibraryNotLoaded
	}
	var abi, apiVersion int32
	desc, err := readString(func(buf uintptr, bufCap int32, outLen, errBuf uintptr) int32 {
		return shimRegistryGetPluginVersion(int32(kind), api, buf, bufCap, outLen,
			Int32Ptr(&abi), Int32Ptr(&apiVersion), errBuf)
	})
	if err != nil {
		return "", 0, 0, err
	}
	return desc, abi, apiVersion, nil
}
