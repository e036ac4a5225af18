//go:build windows

package ffi

import (
	"fmt"
	"syscall"
	"unsafe"
)

// dlopen flags have no meaning for LoadLibraryW.
const (
	RTLD_NOW    = 0
	RTLD_GLOBAL = 0
)

var (
	kernel32       = syscall.NewLazyDLL("kernel32.dll")
	loadLibraryW   = kernel32.NewProc("LoadLibraryW")
	getProcAddress = kernel32.NewProc("GetProcAddress")
	freeLibrary    = kernel32.NewProc("FreeLibrary")
)

func dlopenLibrary(path string, _ int) (uintptr, error) {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	handle, _, callErr := loadLibraryW.Call(uintptr(unsafe.Pointer(pathPtr)))
	if handle == 0 {
		return 0, fmt.Errorf("LoadLibrary(%s): %w", path, callErr)
	}
	return handle, nil
}

func dlsymLibrary(handle uintptr, name string) (uintptr, error) {
	namePtr, err := syscall.BytePtrFromString(name)
	if err != nil {
		return 0, err
	}
	addr, _, callErr := getProcAddress.Call(handle, uintptr(unsafe.Pointer(namePtr)))
	if addr == 0 {
		return 0, fmt.Errorf("GetProcAddress(%s): %w", name, callErr)
	}
	return addr, nil
}

func dlcloseLibrary(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	if ret, _, callErr := freeLibrary.Call(handle); ret == 0 {
		return fmt.Errorf("FreeLibrary: %w", callErr)
	}
	return nil
}
