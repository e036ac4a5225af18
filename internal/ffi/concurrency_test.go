package ffi

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"unsafe"
)

// Readers seek with io.Seeker's signature.
var _ io.Seeker = (*Reader)(nil)

type panickingSource struct{}

func (panickingSource) Read([]byte) (int, error)       { panic("boom") }
func (panickingSource) Seek(int64, int) (int64, error) { panic("boom") }

type failingSource struct{}

func (failingSource) Read([]byte) (int, error)       { return 0, errors.New("disk gone") }
func (failingSource) Seek(int64, int) (int64, error) { return 0, errors.New("disk gone") }

func callRead(h uintptr, dst []byte) int64 {
	if len(dst) == 0 {
		return readerReadCallback(h, 0, 0)
	}
	return readerReadCallback(h, uintptr(unsafe.Pointer(&dst[0])), int64(len(dst)))
}

func TestReaderCallbacksDispatch(t *testing.T) {
	h := registerSource(bytes.NewReader([]byte("0123456789")))
	defer unregisterSource(h)

	buf := make([]byte, 4)
	if n := callRead(h, buf); n != 4 || string(buf) != "0123" {
		t.Fatalf("read = %d %q, want 4 \"0123\"", n, buf)
	}
	if pos := readerSeekCallback(h, -2, io.SeekEnd); pos != 8 {
		t.Fatalf("seek = %d, want 8", pos)
	}
	if n := callRead(h, buf); n != 2 || string(buf[:2]) != "89" {
		t.Fatalf("short read = %d %q, want 2 \"89\"", n, buf[:n])
	}
	if n := callRead(h, buf); n != 0 {
		t.Fatalf("read at end = %d, want 0", n)
	}
	if n := callRead(h, nil); n != 0 {
		t.Fatalf("zero-size read = %d, want 0", n)
	}
}

func TestReaderCallbacksInvalid(t *testing.T) {
	h := registerSource(bytes.NewReader([]byte("abc")))
	unregisterSource(h)

	buf := make([]byte, 2)
	if n := callRead(h, buf); n != -1 {
		t.Errorf("read on removed source = %d, want -1", n)
	}
	if pos := readerSeekCallback(h, 0, io.SeekStart); pos != -1 {
		t.Errorf("seek on removed source = %d, want -1", pos)
	}
	if pos := readerSeekCallback(0, 0, io.SeekStart); pos != -1 {
		t.Errorf("seek on zero handle = %d, want -1", pos)
	}

	live := registerSource(bytes.NewReader([]byte("abc")))
	defer unregisterSource(live)
	if pos := readerSeekCallback(live, 0, 7); pos != -1 {
		t.Errorf("seek with bad origin = %d, want -1", pos)
	}
}

func TestReaderContextsNotReissued(t *testing.T) {
	stale := registerSource(bytes.NewReader([]byte("old")))
	unregisterSource(stale)

	for range 8 {
		h := registerSource(bytes.NewReader([]byte("new")))
		defer unregisterSource(h)
		if h == stale {
			t.Fatalf("context %d reissued", h)
		}
	}
	if n := callRead(stale, make([]byte, 3)); n != -1 {
		t.Errorf("read on stale context = %d, want -1", n)
	}
}

func TestReaderCallbacksRecoverPanics(t *testing.T) {
	h := registerSource(panickingSource{})
	defer unregisterSource(h)

	buf := make([]byte, 8)
	if n := callRead(h, buf); n != -1 {
		t.Errorf("read from panicking source = %d, want -1", n)
	}
	if pos := readerSeekCallback(h, 0, io.SeekStart); pos != -1 {
		t.Errorf("seek on panicking source = %d, want -1", pos)
	}
}

func TestReaderCallbacksSourceErrors(t *testing.T) {
	h := registerSource(failingSource{})
	defer unregisterSource(h)

	buf := make([]byte, 8)
	if n := callRead(h, buf); n != -1 {
		t.Errorf("read from failing source = %d, want -1", n)
	}
	if pos := readerSeekCallback(h, 0, io.SeekCurrent); pos != -1 {
		t.Errorf("seek on failing source = %d, want -1", pos)
	}
}

func TestConcurrent_ReaderSources(t *testing.T) {
	const numGoroutines = 16

	var wg sync.WaitGroup
	errCh := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			payload := bytes.Repeat([]byte{byte(id)}, 32)
			h := registerSource(bytes.NewReader(payload))
			defer unregisterSource(h)

			buf := make([]byte, 32)
			if n := callRead(h, buf); n != 32 || !bytes.Equal(buf, payload) {
				errCh <- errors.New("source crossed between handles")
			}
		}(i)
	}

	wg.Wait()
	close(errCh)

	for err := range errCh {
		t.Error(err)
	}
}
