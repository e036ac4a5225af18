package videoio

import (
	"github.com/thesyncim/libgovideoio/internal/native"
)

// PluginVersion describes a dynamically loaded backend plugin.
type PluginVersion struct {
	Description string
	ABI         int
	API         int
}

func registryCall[T any](method string, fn func(native.Registry) (T, error)) (T, error) {
	return invoke(method, func() (T, error) {
		lib, err := library()
		if err != nil {
			var zero T
			return zero, err
		}
		return fn(lib.Registry())
	})
}

// BackendName returns the registry's name for api.
func BackendName(api API) (string, error) {
	return registryCall("Registry.BackendName", func(r native.Registry) (string, error) {
		return r.BackendName(int32(api))
	})
}

func backends(method string, kind native.BackendKind) ([]API, error) {
	return registryCall(method, func(r native.Registry) ([]API, error) {
		ids, err := r.Backends(kind)
		if err != nil {
			return nil, err
		}
		out := make([]API, len(ids))
		for i, id := range ids {
			out[i] = API(id)
		}
		return out, nil
	})
}

// Backends lists every available backend, in registry priority order.
func Backends() ([]API, error) {
	return backends("Registry.Backends", native.BackendsAll)
}

// CameraBackends lists the backends that can open cameras.
func CameraBackends() ([]API, error) {
	return backends("Registry.CameraBackends", native.BackendsCamera)
}

// StreamBackends lists the backends that can open files and URLs.
func StreamBackends() ([]API, error) {
	return backends("Registry.StreamBackends", native.BackendsStream)
}

// StreamBufferedBackends lists the backends that can read from a
// StreamReader.
func StreamBufferedBackends() ([]API, error) {
	return backends("Registry.StreamBufferedBackends", native.BackendsStreamBuffered)
}

// WriterBackends lists the backends that can write video.
func WriterBackends() ([]API, error) {
	return backends("Registry.WriterBackends", native.BackendsWriter)
}

func HasBackend(api API) (bool, error) {
	return registryCall("Registry.HasBackend", func(r native.Registry) (bool, error) {
		return r.HasBackend(int32(api))
	})
}

// IsBackendBuiltIn reports whether api is linked in rather than a plugin.
func IsBackendBuiltIn(api API) (bool, error) {
	return registryCall("Registry.IsBackendBuiltIn", func(r native.Registry) (bool, error) {
		return r.IsBackendBuiltIn(int32(api))
	})
}

func pluginVersion(method string, kind native.BackendKind, api API) (PluginVersion, error) {
	return registryCall(method, func(r native.Registry) (PluginVersion, error) {
		desc, abi, apiVersion, err := r.PluginVersion(kind, int32(api))
		if err != nil {
			return PluginVersion{}, err
		}
		return PluginVersion{Description: desc, ABI: int(abi), API: int(apiVersion)}, nil
	})
}

// CameraBackendPluginVersion returns the version of the camera plugin for
// api. Built-in or missing backends raise a native exception.
func CameraBackendPluginVersion(api API) (PluginVersion, error) {
	return pluginVersion("Registry.CameraBackendPluginVersion", native.BackendsCamera, api)
}

func StreamBackendPluginVersion(api API) (PluginVersion, error) {
	return pluginVersion("Registry.StreamBackendPluginVersion", native.BackendsStream, api)
}

func StreamBufferedBackendPluginVersion(api API) (PluginVersion, error) {
	return pluginVersion("Registry.StreamBufferedBackendPluginVersion", native.BackendsStreamBuffered, api)
}

func WriterBackendPluginVersion(api API) (PluginVersion, error) {
	return pluginVersion("Registry.WriterBackendPluginVersion", native.BackendsWriter, api)
}
