package gen

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataRegistryTryInsert(t *testing.T) {
	t.Run("first writer wins", func(t *testing.T) {
		r := NewDataRegistry()
		first := &TableDataEntry{Table: "Item.Weapons", Main: []*Record{{}}}
		second := &TableDataEntry{Table: "Item.Weapons"}

		assert.True(t, r.TryInsert(first))
		assert.False(t, r.TryInsert(second))

		got, ok := r.Get("Item.Weapons")
		require.True(t, ok)
		assert.Same(t, first, got)
	})

	t.Run("placeholder does not clobber real data", func(t *testing.T) {
		r := NewDataRegistry()
		real := &TableDataEntry{Table: "Item.Weapons", Main: []*Record{{}, {}}}
		require.True(t, r.TryInsert(real))

		placeholder := &TableDataEntry{Table: "Item.Weapons"}
		assert.False(t, r.TryInsert(placeholder))

		got, _ := r.Get("Item.Weapons")
		assert.Len(t, got.Main, 2)
	})

	t.Run("concurrent insert is at most once per key", func(t *testing.T) {
		r := NewDataRegistry()
		var wg sync.WaitGroup
		wins := make(chan int, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				if r.TryInsert(&TableDataEntry{Table: "Item.Weapons"}) {
					wins <- n
				}
			}(i)
		}
		wg.Wait()
		close(wins)
		var count int
		for range wins {
			count++
		}
		assert.Equal(t, 1, count)
		assert.Equal(t, 1, r.Len())
	})
}

func TestDataRegistryReplace(t *testing.T) {
	t.Run("replaces existing entry wholesale", func(t *testing.T) {
		r := NewDataRegistry()
		require.True(t, r.TryInsert(&TableDataEntry{Table: "Builtin.TblTableSignature"}))

		final := &TableDataEntry{
			Table: "Builtin.TblTableSignature",
			Main:  []*Record{{}, {}, {}},
		}
		r.Replace(final)

		got, ok := r.Get("Builtin.TblTableSignature")
		require.True(t, ok)
		assert.Len(t, got.Main, 3)
		assert.Equal(t, 1, r.Len())
	})

	t.Run("installs when no entry exists", func(t *testing.T) {
		r := NewDataRegistry()
		r.Replace(&TableDataEntry{Table: "Item.Armors"})
		_, ok := r.Get("Item.Armors")
		assert.True(t, ok)
	})
}

func TestDataRegistryEntries(t *testing.T) {
	t.Run("snapshot preserves insertion order", func(t *testing.T) {
		r := NewDataRegistry()
		for i := 0; i < 5; i++ {
			r.TryInsert(&TableDataEntry{Table: fmt.Sprintf("T.%d", i)})
		}
		entries := r.Entries()
		require.Len(t, entries, 5)
		for i, e := range entries {
			assert.Equal(t, fmt.Sprintf("T.%d", i), e.Table)
		}
	})

	t.Run("copy from another registry skips present keys", func(t *testing.T) {
		src := NewDataRegistry()
		src.TryInsert(&TableDataEntry{Table: "A", Main: []*Record{{}}})
		src.TryInsert(&TableDataEntry{Table: "B"})

		dst := NewDataRegistry()
		own := &TableDataEntry{Table: "A", Main: []*Record{{}, {}}}
		dst.TryInsert(own)
		dst.CopyFrom(src)

		got, _ := dst.Get("A")
		assert.Same(t, own, got)
		assert.Equal(t, 2, dst.Len())
	})
}

func TestTableDataEntryFinalRecords(t *testing.T) {
	t.Run("patch records follow main records", func(t *testing.T) {
		main := []*Record{{Fields: []FieldValue{{Name: "id", Value: "a"}}}}
		patch := []*Record{{Fields: []FieldValue{{Name: "id", Value: "b"}}}}
		e := &TableDataEntry{Table: "T", Main: main, Patch: patch}

		final := e.FinalRecords()
		require.Len(t, final, 2)
		v, _ := final[0].Get("id")
		assert.Equal(t, "a", v)
		v, _ = final[1].Get("id")
		assert.Equal(t, "b", v)
	})

	t.Run("no patch returns main unchanged", func(t *testing.T) {
		main := []*Record{{}}
		e := &TableDataEntry{Table: "T", Main: main}
		assert.Equal(t, main, e.FinalRecords())
	})
}
