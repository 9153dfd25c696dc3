package signature

import (
	"strings"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/gen/emit"
)

// Field names of the synthetic record structure. Order and naming are
// external contract: consumers decoding the serialized signature table
// rely on table_name preceding signature.
const (
	FieldTableName = "table_name"
	FieldSignature = "signature"
)

// Types holds the three synthesized schema entities and the inverse of
// the identity-to-item name mangling.
type Types struct {
	Enum   *gen.EnumDef
	Struct *gen.StructDef
	Table  *gen.TableDef

	// itemTable maps enumeration item names back to table identities.
	// Recording the inverse at build time keeps the reverse lookup exact
	// even for identities that themselves contain underscores.
	itemTable map[string]string
}

// ItemTable returns the table identity behind an enumeration item.
func (t *Types) ItemTable(item string) (string, bool) {
	id, ok := t.itemTable[item]
	return id, ok
}

// MangleItemName derives the enumeration item name from a table identity
// by rewriting namespace separators to underscores. The transform must be
// injective over the export set; EnsureTypes verifies that.
func MangleItemName(identity string) string {
	return strings.ReplaceAll(identity, ".", "_")
}

// EnsureTypes builds and registers the synthetic enumeration, structure
// and table, exactly once per session. Repeated calls return the same
// instances without re-registering; concurrent callers block until the
// first caller finishes.
func (s *Session) EnsureTypes() (*Types, error) {
	s.defsOnce.Do(func() {
		s.defs, s.defsErr = s.buildTypes()
	})
	return s.defs, s.defsErr
}

func (s *Session) buildTypes() (*Types, error) {
	cfg := s.cfg
	enumName := cfg.Lookup(OptionEnum, DefaultEnum)
	structName := cfg.Lookup(OptionStruct, DefaultStruct)
	prefix := cfg.Lookup(OptionPrefix, DefaultPrefix)
	namespace := cfg.Lookup(OptionNamespace, DefaultNamespace)

	// The enum and struct sources are named after their local names; either
	// colliding with the registry source would make the manifest rewrite
	// drop the wrong artifact.
	if strings.EqualFold(enumName, emit.RegistryStem) {
		return nil, gen.NewConfigError(OptionEnum, enumName, "name collides with the generated registry source")
	}
	if strings.EqualFold(structName, emit.RegistryStem) {
		return nil, gen.NewConfigError(OptionStruct, structName, "name collides with the generated registry source")
	}

	exports := s.graph.ExportTables()
	items := make([]*gen.EnumItemDef, 0, len(exports))
	itemTable := make(map[string]string, len(exports))
	for _, t := range exports {
		if t.Synthetic {
			continue
		}
		name := MangleItemName(t.FullName)
		if prev, ok := itemTable[name]; ok {
			return nil, gen.NewConfigError(OptionEnum, name,
				"table identities "+prev+" and "+t.FullName+" mangle to the same enumeration item")
		}
		itemTable[name] = t.FullName
		items = append(items, &gen.EnumItemDef{
			Name:    name,
			Value:   len(items),
			Comment: t.Comment,
			Tags:    t.Tags,
		})
	}

	enum, err := s.graph.CompileEnum(&gen.RawEnum{
		Name:      enumName,
		Namespace: namespace,
		Comment:   "Symbolic names of every exported table.",
		Items:     items,
		Synthetic: true,
	})
	if err != nil {
		return nil, err
	}
	record, err := s.graph.CompileStruct(&gen.RawStruct{
		Name:      structName,
		Namespace: namespace,
		Comment:   "Content signature of one exported table.",
		Fields: []gen.RawField{
			{Name: FieldTableName, Type: enum.FullName},
			{Name: FieldSignature, Type: "string"},
		},
		Synthetic: true,
	})
	if err != nil {
		return nil, err
	}
	// The table identity derives from the structure name so it is stable
	// across builds with unchanged configuration.
	tableName := prefix + inflect.Camelize(structName)
	table, err := s.graph.CompileTable(&gen.RawTable{
		Name:      tableName,
		Namespace: namespace,
		ValueType: record.FullName,
		Index:     FieldTableName,
		Mode:      "map",
		Comment:   "Per-table content signatures of this build.",
		Synthetic: true,
	})
	if err != nil {
		return nil, err
	}
	s.graph.RegisterSyntheticExportTable(table)

	s.log.Debug("synthetic types ensured",
		zap.String("enum", enum.FullName),
		zap.String("struct", record.FullName),
		zap.String("table", table.FullName),
		zap.Int("items", len(items)))
	return &Types{
		Enum:      enum,
		Struct:    record,
		Table:     table,
		itemTable: itemTable,
	}, nil
}

// MaterializeRecords turns the signature map into the synthetic table's
// rows: one record per enumeration item with a known signature, in item
// order. A missing signature is a soft condition: the row is skipped with
// a warning, which is expected when the signature scope excludes tables.
func (s *Session) MaterializeRecords(signatures map[string]string) []*gen.Record {
	types := s.defs
	if types == nil {
		return nil
	}
	records := make([]*gen.Record, 0, len(types.Enum.Items))
	for _, item := range types.Enum.Items {
		identity, ok := types.ItemTable(item.Name)
		if !ok {
			s.log.Warn("enumeration item has no table identity", zap.String("item", item.Name))
			continue
		}
		sig, ok := signatures[identity]
		if !ok {
			s.log.Warn("no signature for table, row omitted",
				zap.String("table", identity),
				zap.String("item", item.Name))
			continue
		}
		records = append(records, &gen.Record{Fields: []gen.FieldValue{
			{Name: FieldTableName, Value: item.Name},
			{Name: FieldSignature, Value: sig},
		}})
	}
	return records
}
