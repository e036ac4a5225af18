// Package handle provides generation-checked opaque handles for objects that
// cross the native boundary.
//
// A Handle encodes a slot index and the slot's generation. Removing a value
// bumps the generation, so a handle that outlived its object never resolves
// to whatever reuses the slot.
package handle

import (
	"errors"
	"sync"
)

// ErrInvalidHandle is returned for handles that were never issued or whose
// object has already been removed.
var ErrInvalidHandle = errors.New("invalid or released handle")

// Handle is an opaque token. The zero Handle is never issued.
type Handle uint64

func makeHandle(index, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index+1))
}

func (h Handle) split() (index, generation uint32, ok bool) {
	low := uint32(h)
	if low == 0 {
		return 0, 0, false
	}
	return low - 1, uint32(h >> 32), true
}

// Valid reports whether h could have been issued by a Table.
func (h Handle) Valid() bool {
	_, _, ok := h.split()
	return ok
}

type slot[T any] struct {
	value      T
	generation uint32
	used       bool
}

// Table maps handles to values. It is safe for concurrent use.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
	count int
}

// Insert stores v and returns its handle.
func (t *Table[T]) Insert(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	var index uint32
	if n := len(t.free); n > 0 {
		index = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		index = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}

	s := &t.slots[index]
	s.value = v
	s.used = true
	t.count++
	return makeHandle(index, s.generation)
}

// Get returns the value for h.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.lookup(h)
	if !ok {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Remove deletes h and returns the value it referred to.
func (t *Table[T]) Remove(h Handle) (T, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var zero T
	s, ok := t.lookup(h)
	if !ok {
		return zero, false
	}

	v := s.value
	s.value = zero
	s.used = false
	s.generation++
	index, _, _ := h.split()
	t.free = append(t.free, index)
	t.count--
	return v, true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.count
}

// lookup must be called with t.mu held.
func (t *Table[T]) lookup(h Handle) (*slot[T], bool) {
	index, generation, ok := h.split()
	if !ok || int(index) >= len(t.slots) {
		return nil, false
	}
	s := &t.slots[index]
	if !s.used || s.generation != generation {
		return nil, false
	}
	return s, true
}
