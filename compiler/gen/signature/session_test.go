package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/load"
)

func TestBeginCodeEmission(t *testing.T) {
	t.Run("installs empty placeholder and advances phase", func(t *testing.T) {
		s, _, registry := testBuild(t, nil)
		require.NoError(t, s.BeginCodeEmission())

		assert.Equal(t, PhasePlaceholderInstalled, s.Phase())
		entry, ok := registry.Get("Builtin.TblTableSignature")
		require.True(t, ok)
		assert.Empty(t, entry.Main)
		assert.Empty(t, entry.Patch)
	})

	t.Run("existing entry is left untouched", func(t *testing.T) {
		s, _, registry := testBuild(t, nil)
		real := &gen.TableDataEntry{
			Table: "Builtin.TblTableSignature",
			Main:  []*gen.Record{{}},
		}
		require.True(t, registry.TryInsert(real))

		require.NoError(t, s.BeginCodeEmission())
		got, _ := registry.Get("Builtin.TblTableSignature")
		assert.Same(t, real, got)
	})

	t.Run("re-entrant call is a no-op", func(t *testing.T) {
		s, graph, _ := testBuild(t, nil)
		require.NoError(t, s.BeginCodeEmission())
		require.NoError(t, s.BeginCodeEmission())
		assert.Equal(t, PhasePlaceholderInstalled, s.Phase())
		assert.Len(t, graph.ExportTables(), 3)
	})

	t.Run("missing pipeline state is soft", func(t *testing.T) {
		s := NewSession(nil, nil, nil, nil)
		assert.NoError(t, s.BeginCodeEmission())
		assert.Equal(t, PhaseStart, s.Phase())
	})
}

func TestBeginDataEmission(t *testing.T) {
	t.Run("replaces placeholder with one row per signed table", func(t *testing.T) {
		s, _, registry := testBuild(t, nil)
		require.NoError(t, s.BeginCodeEmission())

		entry, _ := registry.Get("Builtin.TblTableSignature")
		require.Empty(t, entry.Main)

		require.NoError(t, s.BeginDataEmission())
		assert.Equal(t, PhaseDone, s.Phase())

		entry, ok := registry.Get("Builtin.TblTableSignature")
		require.True(t, ok)
		// Replacement, not append: exactly N rows, no stale duplicates.
		assert.Len(t, entry.Main, 2)
	})

	t.Run("narrowed signature scope yields fewer rows", func(t *testing.T) {
		s, _, registry := testBuild(t, map[string]string{OptionTarget: "weapons-only"},
			&load.Target{Name: "all"},
			&load.Target{Name: "weapons-only", Groups: []string{"weapons"}},
		)
		require.NoError(t, s.BeginCodeEmission())
		require.NoError(t, s.BeginDataEmission())

		entry, ok := registry.Get("Builtin.TblTableSignature")
		require.True(t, ok)
		require.Len(t, entry.Main, 1)
		v, _ := entry.Main[0].Get(FieldTableName)
		assert.Equal(t, "Item_Weapons", v)
	})

	t.Run("fatal signature error aborts the phase", func(t *testing.T) {
		s, _, registry := testBuild(t, map[string]string{OptionTarget: "nonexistent"})
		require.NoError(t, s.BeginCodeEmission())

		err := s.BeginDataEmission()
		assert.True(t, gen.IsConfigError(err))
		// The placeholder survives; nothing half-written.
		entry, ok := registry.Get("Builtin.TblTableSignature")
		require.True(t, ok)
		assert.Empty(t, entry.Main)
	})

	t.Run("missing pipeline state is soft", func(t *testing.T) {
		s := NewSession(nil, nil, nil, nil)
		assert.NoError(t, s.BeginDataEmission())
		assert.Equal(t, PhaseStart, s.Phase())
	})
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "start", PhaseStart.String())
	assert.Equal(t, "placeholder-installed", PhasePlaceholderInstalled.String())
	assert.Equal(t, "signatures-computed", PhaseSignaturesComputed.String())
	assert.Equal(t, "done", PhaseDone.String())
}
