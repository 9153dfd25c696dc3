package gen

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHook struct {
	name     string
	drop     string
	appends  []*Artifact
	finalErr error
}

func (h *testHook) Name() string { return h.name }

func (h *testHook) Filter(a *Artifact) bool {
	return h.drop == "" || a.Stem() != h.drop
}

func (h *testHook) Finalize(old, next *Manifest) error {
	if h.finalErr != nil {
		return h.finalErr
	}
	for _, a := range h.appends {
		next.Append(a)
	}
	return nil
}

func TestArtifactStem(t *testing.T) {
	t.Run("strips directory and extension, lower cases", func(t *testing.T) {
		a := &Artifact{Name: "out/Tables.go"}
		assert.Equal(t, "tables", a.Stem())
	})

	t.Run("codec extensions normalize to the same stem", func(t *testing.T) {
		bin := &Artifact{Name: "builtin_tbltablesignature.bytes"}
		js := &Artifact{Name: "Builtin_TblTableSignature.json"}
		assert.Equal(t, bin.Stem(), js.Stem())
	})
}

func TestManifestFinalize(t *testing.T) {
	t.Run("filter drops matching artifacts", func(t *testing.T) {
		m := NewManifest()
		m.Append(&Artifact{Name: "weapon.go"})
		m.Append(&Artifact{Name: "tables.go"})

		next, err := m.Finalize(&testHook{name: "drop-registry", drop: "tables"})
		require.NoError(t, err)
		assert.Equal(t, 1, next.Len())
		_, ok := next.Lookup("tables.go")
		assert.False(t, ok)
	})

	t.Run("finalize appends regenerated artifacts after filtering", func(t *testing.T) {
		m := NewManifest()
		m.Append(&Artifact{Name: "tables.go", Data: []byte("old")})

		regenerated := &Artifact{Name: "tables.go", Data: []byte("new")}
		next, err := m.Finalize(&testHook{name: "regen", drop: "tables", appends: []*Artifact{regenerated}})
		require.NoError(t, err)

		require.Equal(t, 1, next.Len())
		got, ok := next.Lookup("tables.go")
		require.True(t, ok)
		assert.Equal(t, []byte("new"), got.Data)
	})

	t.Run("finalize error aborts without a manifest", func(t *testing.T) {
		m := NewManifest()
		m.Append(&Artifact{Name: "weapon.go"})
		boom := errors.New("boom")
		next, err := m.Finalize(&testHook{name: "fail", finalErr: boom})
		assert.Nil(t, next)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("untouched artifacts pass through in order", func(t *testing.T) {
		m := NewManifest()
		m.Append(&Artifact{Name: "a.go"})
		m.Append(&Artifact{Name: "b.go"})
		next, err := m.Finalize(&testHook{name: "noop"})
		require.NoError(t, err)
		arts := next.Artifacts()
		require.Len(t, arts, 2)
		assert.Equal(t, "a.go", arts[0].Name)
		assert.Equal(t, "b.go", arts[1].Name)
	})
}
