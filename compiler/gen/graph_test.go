package gen

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/compiler/load"
)

func testSchema() *load.Schema {
	return &load.Schema{
		Namespace: "Item",
		Enums: []*load.Enum{
			{
				Name: "Quality",
				Items: []*load.EnumItem{
					{Name: "Common", Value: 0},
					{Name: "Rare", Value: 1},
				},
			},
		},
		Structs: []*load.Struct{
			{
				Name: "Weapon",
				Fields: []*load.Field{
					{Name: "id", Type: "string"},
					{Name: "damage", Type: "int"},
					{Name: "quality", Type: "Quality"},
				},
			},
			{
				Name: "Armor",
				Fields: []*load.Field{
					{Name: "id", Type: "string"},
					{Name: "defense", Type: "int"},
				},
			},
		},
		Tables: []*load.Table{
			{Name: "Weapons", ValueType: "Weapon", Index: "id", Groups: []string{"weapons"}},
			{Name: "Armors", ValueType: "Armor", Index: "id", Groups: []string{"armors"}},
		},
	}
}

func testConfig(t *testing.T, targets ...*load.Target) *Config {
	t.Helper()
	if len(targets) == 0 {
		targets = []*load.Target{{Name: "all"}}
	}
	cfg, err := NewConfig(&load.BuildConfig{
		Name:    "test",
		Target:  targets[0].Name,
		Targets: targets,
	})
	require.NoError(t, err)
	return cfg
}

func TestNewGraph(t *testing.T) {
	t.Run("compiles enums structs and tables", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)

		e, ok := g.LookupEnum("Item.Quality")
		require.True(t, ok)
		assert.Len(t, e.Items, 2)

		s, ok := g.LookupStruct("Item.Weapon")
		require.True(t, ok)
		f, ok := s.Field("quality")
		require.True(t, ok)
		assert.Equal(t, TypeEnum, f.Type)
		assert.Same(t, e, f.Enum)

		tbl, ok := g.LookupTable("Item.Weapons")
		require.True(t, ok)
		assert.Equal(t, ModeMap, tbl.Mode)
		assert.Same(t, s, tbl.ValueType)
	})

	t.Run("export set follows declaration order", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)
		exports := g.ExportTables()
		require.Len(t, exports, 2)
		assert.Equal(t, "Item.Weapons", exports[0].FullName)
		assert.Equal(t, "Item.Armors", exports[1].FullName)
	})

	t.Run("active target filters export set by group", func(t *testing.T) {
		cfg := testConfig(t, &load.Target{Name: "weapons-only", Groups: []string{"weapons"}})
		g, err := NewGraph(cfg, testSchema())
		require.NoError(t, err)
		exports := g.ExportTables()
		require.Len(t, exports, 1)
		assert.Equal(t, "Item.Weapons", exports[0].FullName)
	})

	t.Run("unresolvable value type fails", func(t *testing.T) {
		s := testSchema()
		s.Tables = append(s.Tables, &load.Table{Name: "Broken", ValueType: "Missing", Index: "id"})
		_, err := NewGraph(testConfig(t), s)
		assert.True(t, IsSchemaError(err))
	})

	t.Run("map table requires declared index field", func(t *testing.T) {
		s := testSchema()
		s.Tables[0].Index = "missing"
		_, err := NewGraph(testConfig(t), s)
		assert.True(t, IsSchemaError(err))
	})
}

func TestCompileSynthetic(t *testing.T) {
	t.Run("synthetic recompile returns same instance", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)

		raw := &RawEnum{Name: "TableName", Namespace: "Builtin", Synthetic: true,
			Items: []*EnumItemDef{{Name: "Item_Weapons"}}}
		first, err := g.CompileEnum(raw)
		require.NoError(t, err)
		second, err := g.CompileEnum(raw)
		require.NoError(t, err)
		assert.Same(t, first, second)
		assert.Len(t, g.Enums(), 2)
	})

	t.Run("declared name collision is an error", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)
		_, err = g.CompileEnum(&RawEnum{Name: "Quality", Namespace: "Item"})
		assert.True(t, IsSchemaError(err))
	})
}

func TestDefinitionAccessors(t *testing.T) {
	t.Run("accessors return snapshots", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)

		enums := g.Enums()
		require.Len(t, enums, 1)
		enums[0] = nil
		require.NotNil(t, g.Enums()[0])

		assert.Len(t, g.Structs(), 2)
		assert.Len(t, g.Tables(), 2)
	})

	t.Run("reads are consistent under concurrent synthetic compiles", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := g.CompileEnum(&RawEnum{
					Name: "TableName", Namespace: "Builtin", Synthetic: true,
					Items: []*EnumItemDef{{Name: "Item_Weapons"}},
				})
				assert.NoError(t, err)
			}()
			wg.Add(1)
			go func() {
				defer wg.Done()
				for _, e := range g.Enums() {
					assert.NotNil(t, e)
				}
				for _, s := range g.Structs() {
					assert.NotNil(t, s)
				}
			}()
		}
		wg.Wait()
		assert.Len(t, g.Enums(), 2)
	})
}

func TestRegisterSyntheticExportTable(t *testing.T) {
	t.Run("duplicate add is a no-op", func(t *testing.T) {
		g, err := NewGraph(testConfig(t), testSchema())
		require.NoError(t, err)

		tbl, err := g.CompileTable(&RawTable{
			Name:      "TblTableSignature",
			Namespace: "Builtin",
			ValueType: "Item.Weapon",
			Index:     "id",
			Synthetic: true,
		})
		require.NoError(t, err)

		g.RegisterSyntheticExportTable(tbl)
		g.RegisterSyntheticExportTable(tbl)
		assert.Len(t, g.ExportTables(), 3)
	})
}

func TestGraphView(t *testing.T) {
	t.Run("view scopes exports without touching the graph", func(t *testing.T) {
		cfg := testConfig(t,
			&load.Target{Name: "all"},
			&load.Target{Name: "weapons-only", Groups: []string{"weapons"}},
		)
		g, err := NewGraph(cfg, testSchema())
		require.NoError(t, err)

		narrow, ok := cfg.LookupTarget("weapons-only")
		require.True(t, ok)
		v := g.View(narrow)

		scoped := v.ExportTables()
		require.Len(t, scoped, 1)
		assert.Equal(t, "Item.Weapons", scoped[0].FullName)

		// The graph's own export set is untouched.
		assert.Len(t, g.ExportTables(), 2)
		assert.Equal(t, "all", g.Config.Target.Name)
	})
}
