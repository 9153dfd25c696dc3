package gen

import (
	"sync"

	"github.com/tabula-io/tabula/compiler/load"
)

// Graph is the compiled schema graph: every enum, struct and table
// definition, the active build configuration and the ordered export set.
//
// The graph is built once per build by NewGraph. After construction the
// only sanctioned mutations are the registration of synthetic definitions
// through CompileEnum/CompileStruct/CompileTable and
// RegisterSyntheticExportTable, all of which are safe under concurrent
// post-processors. The definition lists are read through the Enums,
// Structs and Tables accessors, which snapshot under the same lock the
// synthetic compiles append under.
type Graph struct {
	Config *Config

	mu         sync.Mutex
	enumList   []*EnumDef
	structList []*StructDef
	tableList  []*TableDef
	enums      map[string]*EnumDef
	structs    map[string]*StructDef
	tables     map[string]*TableDef
	// exports is the ordered export set: declared tables admitted by the
	// active target, plus explicitly registered synthetic tables.
	exports []*TableDef
}

// NewGraph compiles a raw schema into a graph under the given config.
// Every definition runs the full compile lifecycle: pre-compile
// (validation), compile (construction), post-compile (reference
// resolution and indexing). Enums compile before structs, structs before
// tables, so references always resolve against completed definitions.
func NewGraph(cfg *Config, schema *load.Schema) (*Graph, error) {
	if cfg == nil || cfg.Target == nil {
		return nil, NewConfigError("Target", nil, "graph requires a config with an active target")
	}
	g := &Graph{
		Config:  cfg,
		enums:   make(map[string]*EnumDef),
		structs: make(map[string]*StructDef),
		tables:  make(map[string]*TableDef),
	}
	for _, raw := range schema.Enums {
		if _, err := g.CompileEnum(rawEnum(schema, raw)); err != nil {
			return nil, err
		}
	}
	for _, raw := range schema.Structs {
		if _, err := g.CompileStruct(rawStruct(schema, raw)); err != nil {
			return nil, err
		}
	}
	for _, raw := range schema.Tables {
		t, err := g.CompileTable(rawTable(schema, raw))
		if err != nil {
			return nil, err
		}
		if cfg.Target.Includes(t) {
			g.exports = append(g.exports, t)
		}
	}
	return g, nil
}

// RawEnum is the compile-lifecycle input for an enumeration.
type RawEnum struct {
	Name      string
	Namespace string
	Comment   string
	Tags      map[string]string
	Items     []*EnumItemDef
	Synthetic bool
}

// RawStruct is the compile-lifecycle input for a record structure.
type RawStruct struct {
	Name      string
	Namespace string
	Comment   string
	Tags      map[string]string
	Fields    []RawField
	Synthetic bool
}

// RawField is one field of a RawStruct. Type names a primitive or a
// declared enum/struct.
type RawField struct {
	Name    string
	Type    string
	Comment string
}

// RawTable is the compile-lifecycle input for a table.
type RawTable struct {
	Name      string
	Namespace string
	ValueType string
	Index     string
	Mode      string
	Groups    []string
	Comment   string
	Tags      map[string]string
	Input     []string
	Output    string
	Synthetic bool
}

func rawEnum(s *load.Schema, e *load.Enum) *RawEnum {
	re := &RawEnum{
		Name:      e.Name,
		Namespace: s.Namespace,
		Comment:   e.Comment,
		Tags:      e.Tags,
	}
	for _, it := range e.Items {
		re.Items = append(re.Items, &EnumItemDef{
			Name:    it.Name,
			Value:   it.Value,
			Comment: it.Comment,
			Tags:    it.Tags,
		})
	}
	return re
}

func rawStruct(s *load.Schema, st *load.Struct) *RawStruct {
	rs := &RawStruct{
		Name:      st.Name,
		Namespace: s.Namespace,
		Comment:   st.Comment,
		Tags:      st.Tags,
	}
	for _, f := range st.Fields {
		rs.Fields = append(rs.Fields, RawField{Name: f.Name, Type: f.Type, Comment: f.Comment})
	}
	return rs
}

func rawTable(s *load.Schema, t *load.Table) *RawTable {
	ns := t.Namespace
	if ns == "" {
		ns = s.Namespace
	}
	return &RawTable{
		Name:      t.Name,
		Namespace: ns,
		ValueType: t.ValueType,
		Index:     t.Index,
		Mode:      t.Mode,
		Groups:    t.Groups,
		Comment:   t.Comment,
		Tags:      t.Tags,
		Input:     t.Input,
		Output:    t.Output,
	}
}

func qualify(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// CompileEnum runs the full compile lifecycle for an enumeration and
// registers it. Safe for concurrent use.
func (g *Graph) CompileEnum(raw *RawEnum) (*EnumDef, error) {
	if err := g.preCompileEnum(raw); err != nil {
		return nil, err
	}
	def := g.compileEnum(raw)
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.enums[def.FullName]; ok {
		if prev.Synthetic && raw.Synthetic {
			// Idempotent re-registration of the same synthetic definition.
			return prev, nil
		}
		return nil, NewSchemaError(def.FullName, "", "enum already declared", nil)
	}
	g.postCompileEnum(def)
	return def, nil
}

func (g *Graph) preCompileEnum(raw *RawEnum) error {
	if raw.Name == "" {
		return NewSchemaError("", "", "enum with empty name", nil)
	}
	seen := make(map[string]bool, len(raw.Items))
	for _, it := range raw.Items {
		if seen[it.Name] {
			return NewSchemaError(raw.Name, it.Name, "duplicate enum item", nil)
		}
		seen[it.Name] = true
	}
	return nil
}

func (g *Graph) compileEnum(raw *RawEnum) *EnumDef {
	def := &EnumDef{
		Name:      raw.Name,
		FullName:  qualify(raw.Namespace, raw.Name),
		Comment:   raw.Comment,
		Tags:      raw.Tags,
		Items:     raw.Items,
		Synthetic: raw.Synthetic,
		items:     make(map[string]*EnumItemDef, len(raw.Items)),
	}
	return def
}

// postCompileEnum indexes the definition. Callers hold g.mu.
func (g *Graph) postCompileEnum(def *EnumDef) {
	for _, it := range def.Items {
		def.items[it.Name] = it
	}
	g.enums[def.FullName] = def
	g.enumList = append(g.enumList, def)
}

// CompileStruct runs the full compile lifecycle for a record structure
// and registers it. Field references resolve during post-compile, so
// referenced enums and structs must already be compiled.
func (g *Graph) CompileStruct(raw *RawStruct) (*StructDef, error) {
	if err := g.preCompileStruct(raw); err != nil {
		return nil, err
	}
	def := g.compileStruct(raw)
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.structs[def.FullName]; ok {
		if prev.Synthetic && raw.Synthetic {
			return prev, nil
		}
		return nil, NewSchemaError(def.FullName, "", "struct already declared", nil)
	}
	if err := g.postCompileStruct(def, raw); err != nil {
		return nil, err
	}
	return def, nil
}

func (g *Graph) preCompileStruct(raw *RawStruct) error {
	if raw.Name == "" {
		return NewSchemaError("", "", "struct with empty name", nil)
	}
	if len(raw.Fields) == 0 {
		return NewSchemaError(raw.Name, "", "struct has no fields", nil)
	}
	seen := make(map[string]bool, len(raw.Fields))
	for _, f := range raw.Fields {
		if seen[f.Name] {
			return NewSchemaError(raw.Name, f.Name, "duplicate field", nil)
		}
		seen[f.Name] = true
	}
	return nil
}

func (g *Graph) compileStruct(raw *RawStruct) *StructDef {
	return &StructDef{
		Name:      raw.Name,
		FullName:  qualify(raw.Namespace, raw.Name),
		Comment:   raw.Comment,
		Tags:      raw.Tags,
		Synthetic: raw.Synthetic,
		fields:    make(map[string]*FieldDef, len(raw.Fields)),
	}
}

// postCompileStruct resolves field types and indexes the definition.
// Callers hold g.mu.
func (g *Graph) postCompileStruct(def *StructDef, raw *RawStruct) error {
	for _, rf := range raw.Fields {
		fd := &FieldDef{Name: rf.Name, Comment: rf.Comment}
		if ft, ok := fieldTypeOf(rf.Type); ok {
			fd.Type = ft
		} else if e, ok := g.lookupEnumLocked(rf.Type); ok {
			fd.Type = TypeEnum
			fd.Enum = e
		} else if s, ok := g.lookupStructLocked(rf.Type); ok {
			fd.Type = TypeStruct
			fd.Struct = s
		} else {
			return NewSchemaError(def.FullName, rf.Name, "unresolvable field type "+rf.Type, nil)
		}
		def.Fields = append(def.Fields, fd)
		def.fields[fd.Name] = fd
	}
	g.structs[def.FullName] = def
	g.structList = append(g.structList, def)
	return nil
}

// CompileTable runs the full compile lifecycle for a table and registers
// it. The table is NOT added to the export set; NewGraph admits declared
// tables through the active target and synthetic tables are added via
// RegisterSyntheticExportTable.
func (g *Graph) CompileTable(raw *RawTable) (*TableDef, error) {
	if err := g.preCompileTable(raw); err != nil {
		return nil, err
	}
	def := g.compileTable(raw)
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.tables[def.FullName]; ok {
		if prev.Synthetic && raw.Synthetic {
			return prev, nil
		}
		return nil, NewSchemaError(def.FullName, "", "table already declared", nil)
	}
	if err := g.postCompileTable(def, raw); err != nil {
		return nil, err
	}
	return def, nil
}

func (g *Graph) preCompileTable(raw *RawTable) error {
	if raw.Name == "" {
		return NewSchemaError("", "", "table with empty name", nil)
	}
	if raw.ValueType == "" {
		return NewSchemaError(raw.Name, "", "table has no value type", nil)
	}
	mode := tableModeOf(raw.Mode)
	if mode == ModeMap && raw.Index == "" {
		return NewSchemaError(raw.Name, "", "map table has no index field", nil)
	}
	return nil
}

func (g *Graph) compileTable(raw *RawTable) *TableDef {
	return &TableDef{
		Name:      raw.Name,
		Namespace: raw.Namespace,
		FullName:  qualify(raw.Namespace, raw.Name),
		Mode:      tableModeOf(raw.Mode),
		Index:     raw.Index,
		Groups:    raw.Groups,
		Comment:   raw.Comment,
		Tags:      raw.Tags,
		Input:     raw.Input,
		Output:    raw.Output,
		Synthetic: raw.Synthetic,
	}
}

// postCompileTable resolves the value type and index field and indexes
// the definition. Callers hold g.mu.
func (g *Graph) postCompileTable(def *TableDef, raw *RawTable) error {
	vt, ok := g.lookupStructLocked(raw.ValueType)
	if !ok {
		return NewSchemaError(def.FullName, "", "unresolvable value type "+raw.ValueType, nil)
	}
	def.ValueType = vt
	if def.Mode == ModeMap {
		if _, ok := vt.Field(def.Index); !ok {
			return NewSchemaError(def.FullName, def.Index, "index field not declared on value type", nil)
		}
	}
	g.tables[def.FullName] = def
	g.tableList = append(g.tableList, def)
	return nil
}

func (g *Graph) lookupEnumLocked(name string) (*EnumDef, bool) {
	if e, ok := g.enums[name]; ok {
		return e, true
	}
	// Local names resolve within any namespace for single-namespace schemas.
	for _, e := range g.enumList {
		if e.Name == name {
			return e, true
		}
	}
	return nil, false
}

func (g *Graph) lookupStructLocked(name string) (*StructDef, bool) {
	if s, ok := g.structs[name]; ok {
		return s, true
	}
	for _, s := range g.structList {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Enums returns every compiled enumeration in declaration order, synthetic
// definitions after declared ones. The returned slice is a copy.
func (g *Graph) Enums() []*EnumDef {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*EnumDef, len(g.enumList))
	copy(out, g.enumList)
	return out
}

// Structs returns every compiled structure in declaration order. The
// returned slice is a copy.
func (g *Graph) Structs() []*StructDef {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*StructDef, len(g.structList))
	copy(out, g.structList)
	return out
}

// Tables returns every compiled table in declaration order. The returned
// slice is a copy.
func (g *Graph) Tables() []*TableDef {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*TableDef, len(g.tableList))
	copy(out, g.tableList)
	return out
}

// LookupEnum returns the enum with the given fully-qualified or local name.
func (g *Graph) LookupEnum(name string) (*EnumDef, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookupEnumLocked(name)
}

// LookupStruct returns the struct with the given fully-qualified or local name.
func (g *Graph) LookupStruct(name string) (*StructDef, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lookupStructLocked(name)
}

// LookupTable returns the table with the given fully-qualified identity.
func (g *Graph) LookupTable(name string) (*TableDef, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	t, ok := g.tables[name]
	return t, ok
}

// ExportTables returns the ordered export set under the active target:
// declared tables in declaration order, synthetic tables in registration
// order. The returned slice is a copy.
func (g *Graph) ExportTables() []*TableDef {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*TableDef, len(g.exports))
	copy(out, g.exports)
	return out
}

// RegisterSyntheticExportTable appends a synthetic table to the export
// set. Duplicate registration is a no-op, not an error.
func (g *Graph) RegisterSyntheticExportTable(t *TableDef) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, cur := range g.exports {
		if cur.FullName == t.FullName {
			return
		}
	}
	g.exports = append(g.exports, t)
}

// View returns a scoped, read-only derivation of the graph whose
// effective export filter is the given target. The view shares the
// underlying compiled definitions; nothing on the graph is swapped or
// restored, so concurrent consumers of the graph's own configuration are
// unaffected.
func (g *Graph) View(target *Target) *View {
	return &View{graph: g, target: target}
}

// View is a scoped derivation of a Graph under an alternate target.
type View struct {
	graph  *Graph
	target *Target
}

// Graph returns the underlying graph.
func (v *View) Graph() *Graph { return v.graph }

// Target returns the view's effective target.
func (v *View) Target() *Target { return v.target }

// ExportTables returns every table admitted by the view's target, in the
// graph's declaration order (synthetic tables last, as in the graph's own
// export set).
func (v *View) ExportTables() []*TableDef {
	v.graph.mu.Lock()
	defer v.graph.mu.Unlock()
	var out []*TableDef
	for _, t := range v.graph.tableList {
		if !t.Synthetic && v.target.Includes(t) {
			out = append(out, t)
		}
	}
	for _, t := range v.graph.exports {
		if t.Synthetic && v.target.Includes(t) {
			out = append(out, t)
		}
	}
	return out
}
