package gen

import (
	"strings"
)

// FieldType is the compiled type kind of a structure field.
type FieldType int

// Field type kinds.
const (
	TypeString FieldType = iota
	TypeInt
	TypeLong
	TypeFloat
	TypeBool
	TypeEnum
	TypeStruct
)

// String returns the type kind name.
func (t FieldType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeInt:
		return "int"
	case TypeLong:
		return "long"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeEnum:
		return "enum"
	case TypeStruct:
		return "struct"
	}
	return "unknown"
}

// TableMode describes how a table's rows are addressed.
type TableMode int

// Table modes.
const (
	// ModeMap tables are keyed by an index field.
	ModeMap TableMode = iota
	// ModeList tables are ordered row collections.
	ModeList
	// ModeOne tables hold a single record.
	ModeOne
)

// String returns the mode name.
func (m TableMode) String() string {
	switch m {
	case ModeMap:
		return "map"
	case ModeList:
		return "list"
	case ModeOne:
		return "one"
	}
	return "unknown"
}

// The following types and their exported fields are consumed by the code
// emitters and data codecs.
type (
	// EnumDef is a compiled enumeration definition.
	EnumDef struct {
		// Name is the local name of the enumeration.
		Name string
		// FullName is the fully-qualified dotted identity.
		FullName string
		// Comment from the schema, carried into generated sources.
		Comment string
		// Tags copied from the schema definition.
		Tags map[string]string
		// Items holds the symbolic items in declaration order.
		Items []*EnumItemDef
		// Synthetic marks definitions injected by a post-processor rather
		// than declared in a schema document.
		Synthetic bool

		items map[string]*EnumItemDef
	}

	// EnumItemDef is one symbolic item of a compiled enumeration.
	EnumItemDef struct {
		Name    string
		Value   int
		Comment string
		Tags    map[string]string
	}

	// StructDef is a compiled record structure definition.
	StructDef struct {
		Name      string
		FullName  string
		Comment   string
		Tags      map[string]string
		Fields    []*FieldDef
		Synthetic bool

		fields map[string]*FieldDef
	}

	// FieldDef is a compiled structure field. For TypeEnum and TypeStruct
	// fields, Enum or Struct holds the resolved referenced definition.
	FieldDef struct {
		Name    string
		Type    FieldType
		Comment string
		Enum    *EnumDef
		Struct  *StructDef
	}

	// TableDef is a compiled table definition. FullName is the table
	// identity: the join key between the schema graph, the data registry
	// and the signature map, stable across both build phases.
	TableDef struct {
		Name      string
		Namespace string
		FullName  string
		Mode      TableMode
		ValueType *StructDef
		// Index is the key field name for ModeMap tables.
		Index   string
		Groups  []string
		Comment string
		Tags    map[string]string
		// Input holds the raw data file references for this table.
		Input []string
		// Output is the configured output file stem; empty means derived.
		Output    string
		Synthetic bool
	}
)

// Item returns the enumeration item with the given name.
func (e *EnumDef) Item(name string) (*EnumItemDef, bool) {
	it, ok := e.items[name]
	return it, ok
}

// Field returns the structure field with the given name.
func (s *StructDef) Field(name string) (*FieldDef, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// OutputStem returns the output file name for this table, without codec
// extension. Derived from the identity unless overridden in the schema.
func (t *TableDef) OutputStem() string {
	if t.Output != "" {
		return t.Output
	}
	return strings.ToLower(strings.ReplaceAll(t.FullName, ".", "_"))
}

// InGroup reports whether the table belongs to any of the given groups.
// An empty filter admits every table.
func (t *TableDef) InGroup(groups []string) bool {
	if len(groups) == 0 {
		return true
	}
	for _, g := range groups {
		for _, tg := range t.Groups {
			if g == tg {
				return true
			}
		}
	}
	return false
}

func fieldTypeOf(raw string) (FieldType, bool) {
	switch strings.ToLower(raw) {
	case "string", "text":
		return TypeString, true
	case "int":
		return TypeInt, true
	case "long":
		return TypeLong, true
	case "float", "double":
		return TypeFloat, true
	case "bool":
		return TypeBool, true
	}
	return 0, false
}

func tableModeOf(raw string) TableMode {
	switch raw {
	case "list":
		return ModeList
	case "one":
		return ModeOne
	default:
		return ModeMap
	}
}
