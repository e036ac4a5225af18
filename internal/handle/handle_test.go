package handle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_InsertGetRemove(t *testing.T) {
	var tbl Table[string]

	h := tbl.Insert("capture")
	require.True(t, h.Valid())
	assert.Equal(t, 1, tbl.Len())

	v, ok := tbl.Get(h)
	require.True(t, ok)
	assert.Equal(t, "capture", v)

	v, ok = tbl.Remove(h)
	require.True(t, ok)
	assert.Equal(t, "capture", v)
	assert.Equal(t, 0, tbl.Len())

	_, ok = tbl.Get(h)
	assert.False(t, ok, "removed handle must not resolve")

	_, ok = tbl.Remove(h)
	assert.False(t, ok, "second remove must fail")
}

func TestTable_ZeroHandleNeverResolves(t *testing.T) {
	var tbl Table[int]
	tbl.Insert(1)

	var zero Handle
	assert.False(t, zero.Valid())
	_, ok := tbl.Get(zero)
	assert.False(t, ok)
}

func TestTable_StaleHandleAfterSlotReuse(t *testing.T) {
	var tbl Table[string]

	old := tbl.Insert("first")
	_, ok := tbl.Remove(old)
	require.True(t, ok)

	fresh := tbl.Insert("second")
	assert.NotEqual(t, old, fresh, "reused slot must carry a new generation")

	_, ok = tbl.Get(old)
	assert.False(t, ok, "stale handle resolved to the slot's new occupant")

	v, ok := tbl.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "second", v)
}

func TestTable_UnknownIndex(t *testing.T) {
	var tbl Table[int]
	_, ok := tbl.Get(makeHandle(42, 0))
	assert.False(t, ok)
}

func TestTable_Concurrent(t *testing.T) {
	var tbl Table[int]
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h := tbl.Insert(g*1000 + i)
				v, ok := tbl.Get(h)
				if !ok || v != g*1000+i {
					t.Errorf("Get(%v) = %v, %v", h, v, ok)
					return
				}
				if _, ok := tbl.Remove(h); !ok {
					t.Errorf("Remove(%v) failed", h)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 0, tbl.Len())
}
