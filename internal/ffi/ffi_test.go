package ffi

import (
	"errors"
	"testing"

	"github.com/thesyncim/libgovideoio/internal/native"
)

// --- Error Code Tests ---

func TestShimErrorCodes(t *testing.T) {
	tests := []struct {
		code    int32
		wantErr bool
		errMsg  string
	}{
		{ShimOK, false, ""},
		{ShimErrUnknownException, true, "unknown exception"},
		{ShimErrInvalidParam, true, "invalid parameter"},
		{ShimErrOutOfMemory, true, "out of memory"},
		{ShimErrBufferTooSmall, true, "buffer too small"},
		{-999, true, "unknown shim error: -999"},
	}

	for _, tt := range tests {
		err := ShimError(tt.code)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ShimError(%d) = nil, want error", tt.code)
			} else if err.Error() != tt.errMsg {
				t.Errorf("ShimError(%d) = %q, want %q", tt.code, err.Error(), tt.errMsg)
			}
		} else if err != nil {
			t.Errorf("ShimError(%d) = %v, want nil", tt.code, err)
		}
	}
}

func TestShimErrorConstants(t *testing.T) {
	// Must match shim.h
	if ShimOK != 0 {
		t.Errorf("ShimOK = %d, want 0", ShimOK)
	}
	if ShimErrCvException != -1 {
		t.Errorf("ShimErrCvException = %d, want -1", ShimErrCvException)
	}
	if ShimErrBufferTooSmall != -6 {
		t.Errorf("ShimErrBufferTooSmall = %d, want -6", ShimErrBufferTooSmall)
	}
}

func TestShimErrorSentinels(t *testing.T) {
	tests := []struct {
		code int32
		want error
	}{
		{ShimErrInvalidParam, ErrInvalidParam},
		{ShimErrOutOfMemory, ErrOutOfMemory},
		{ShimErrBufferTooSmall, ErrBufferTooSmall},
	}
	for _, tt := range tests {
		if err := ShimError(tt.code); !errors.Is(err, tt.want) {
			t.Errorf("ShimError(%d) = %v, want errors.Is %v", tt.code, err, tt.want)
		}
	}
}

// --- Exception Mapping Tests ---

func TestErrorBufferExceptions(t *testing.T) {
	tests := []struct {
		name    string
		code    int32
		message string
		kind    native.ExceptionKind
		want    string
	}{
		{"library", ShimErrCvException, "(-215:Assertion failed) !_filename.empty()", native.KindLibrary,
			"cv::Exception: (-215:Assertion failed) !_filename.empty()"},
		{"standard", ShimErrStdException, "std::bad_alloc", native.KindStandard,
			"std::exception: std::bad_alloc"},
		{"unknown", ShimErrUnknownException, "ignored", native.KindUnknown,
			"unknown exception"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf ShimErrorBuffer
			copy(buf.Message[:], tt.message)

			err := buf.ToError(tt.code)
			var exc *native.Exception
			if !errors.As(err, &exc) {
				t.Fatalf("ToError(%d) = %T, want *native.Exception", tt.code, err)
			}
			if exc.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", exc.Kind, tt.kind)
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

// --- Marshalling Tests ---

func TestInt32SlicePtr(t *testing.T) {
	if Int32SlicePtr(nil) != 0 {
		t.Error("Int32SlicePtr(nil) should be 0")
	}
	params := []int32{1, 2, 3}
	if Int32SlicePtr(params) == 0 {
		t.Error("Int32SlicePtr(params) should be non-zero")
	}
}

func TestBoolInt(t *testing.T) {
	if BoolInt(true) != 1 || BoolInt(false) != 0 {
		t.Errorf("BoolInt = %d/%d, want 1/0", BoolInt(true), BoolInt(false))
	}
}

func TestCString(t *testing.T) {
	tests := []string{"", "video.avi", "/tmp/with space/clip.mp4"}
	for _, s := range tests {
		b := CString(s)
		if len(b) != len(s)+1 {
			t.Errorf("CString(%q) len = %d, want %d", s, len(b), len(s)+1)
		}
		if b[len(b)-1] != 0 {
			t.Errorf("CString(%q) is not NUL-terminated", s)
		}
		if got := CStringToGo(b); got != s {
			t.Errorf("CStringToGo(CString(%q)) = %q", s, got)
		}
	}
}

// --- Library State Tests ---

func TestCallsBeforeLoad(t *testing.T) {
	if IsLoaded() {
		t.Skip("library already loaded, skipping")
	}

	if _, err := CreateCapture(); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("CreateCapture() error = %v, want ErrLibraryNotLoaded", err)
	}
	if _, err := CreateWriter(); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("CreateWriter() error = %v, want ErrLibraryNotLoaded", err)
	}
	if _, err := (Registry{}).Backends(native.BackendsAll); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("Backends() error = %v, want ErrLibraryNotLoaded", err)
	}
	if err := CheckVersion(); !errors.Is(err, ErrLibraryNotLoaded) {
		t.Errorf("CheckVersion() error = %v, want ErrLibraryNotLoaded", err)
	}
	if ShimVersion() != "" {
		t.Error("ShimVersion() should be empty before load")
	}
}

func TestLoadLibraryMissingPath(t *testing.T) {
	if IsLoaded() {
		t.Skip("library already loaded, skipping")
	}
	err := LoadLibraryWithOptions(Options{Path: "/nonexistent/libvideoio_shim.so"})
	if !errors.Is(err, ErrLibraryNotFound) {
		t.Fatalf("LoadLibraryWithOptions() error = %v, want ErrLibraryNotFound", err)
	}
	if IsLoaded() {
		t.Error("IsLoaded() = true after failed load")
	}
}

// --- Benchmark Tests ---

func BenchmarkCString(b *testing.B) {
	s := "/var/media/capture-0001.mkv"
	for i := 0; i < b.N; i++ {
		_ = CString(s)
	}
}

func BenchmarkShimError(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ShimError(ShimOK)
		_ = ShimError(ShimErrInvalidParam)
	}
}
