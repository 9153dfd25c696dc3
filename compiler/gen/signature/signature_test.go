package signature

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/load"
)

// testBuild assembles a compiled graph with two exported tables
// (Item.Weapons, Item.Armors), a registry with loaded records for both,
// and a session over them.
func testBuild(t *testing.T, options map[string]string, targets ...*load.Target) (*Session, *gen.Graph, *gen.DataRegistry) {
	t.Helper()
	if len(targets) == 0 {
		targets = []*load.Target{{Name: "all"}}
	}
	cfg, err := gen.NewConfig(&load.BuildConfig{
		Name:    "test",
		Target:  targets[0].Name,
		Targets: targets,
		Options: options,
	})
	require.NoError(t, err)

	graph, err := gen.NewGraph(cfg, &load.Schema{
		Namespace: "Item",
		Structs: []*load.Struct{
			{
				Name: "Weapon",
				Fields: []*load.Field{
					{Name: "id", Type: "string"},
					{Name: "damage", Type: "int"},
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
			{Name: "Weapons", ValueType: "Weapon", Index: "id", Groups: []string{"weapons"}, Comment: "weapon stats"},
			{Name: "Armors", ValueType: "Armor", Index: "id", Groups: []string{"armors"}},
		},
	})
	require.NoError(t, err)

	registry := gen.NewDataRegistry()
	registry.TryInsert(&gen.TableDataEntry{
		Table: "Item.Weapons",
		Main: []*gen.Record{
			{Fields: []gen.FieldValue{{Name: "id", Value: "sword"}, {Name: "damage", Value: int64(7)}}},
			{Fields: []gen.FieldValue{{Name: "id", Value: "club"}, {Name: "damage", Value: int64(3)}}},
		},
	})
	registry.TryInsert(&gen.TableDataEntry{
		Table: "Item.Armors",
		Main: []*gen.Record{
			{Fields: []gen.FieldValue{{Name: "id", Value: "plate"}, {Name: "defense", Value: int64(9)}}},
		},
	})

	return NewSession(cfg, graph, registry, zap.NewNop()), graph, registry
}
