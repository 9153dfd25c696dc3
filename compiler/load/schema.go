// Package load decodes raw schema documents and build configuration for the
// tabula compiler. The raw form is validated and handed to compiler/gen,
// which compiles it into the graph used by the generators.
package load

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Schema represents a raw schema document set before compilation.
type Schema struct {
	Namespace string    `yaml:"namespace"`
	Enums     []*Enum   `yaml:"enums,omitempty"`
	Structs   []*Struct `yaml:"structs,omitempty"`
	Tables    []*Table  `yaml:"tables,omitempty"`
}

// Enum represents a raw enumeration definition.
type Enum struct {
	Name    string            `yaml:"name"`
	Comment string            `yaml:"comment,omitempty"`
	Tags    map[string]string `yaml:"tags,omitempty"`
	Items   []*EnumItem       `yaml:"items"`
}

// EnumItem represents one symbolic item of an enumeration.
type EnumItem struct {
	Name    string            `yaml:"name"`
	Value   int               `yaml:"value"`
	Comment string            `yaml:"comment,omitempty"`
	Tags    map[string]string `yaml:"tags,omitempty"`
}

// Struct represents a raw record structure definition.
type Struct struct {
	Name    string            `yaml:"name"`
	Comment string            `yaml:"comment,omitempty"`
	Tags    map[string]string `yaml:"tags,omitempty"`
	Fields  []*Field          `yaml:"fields"`
}

// Field represents one field of a structure. Type is a primitive name
// ("string", "int", "long", "float", "bool") or a reference to a declared
// enum or struct by name.
type Field struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Comment string `yaml:"comment,omitempty"`
}

// Table represents a raw table definition. Mode is "map" (keyed rows),
// "list" (ordered rows) or "one" (singleton record).
type Table struct {
	Name      string            `yaml:"name"`
	Namespace string            `yaml:"namespace,omitempty"`
	ValueType string            `yaml:"value_type"`
	Index     string            `yaml:"index,omitempty"`
	Mode      string            `yaml:"mode,omitempty"`
	Groups    []string          `yaml:"groups,omitempty"`
	Comment   string            `yaml:"comment,omitempty"`
	Tags      map[string]string `yaml:"tags,omitempty"`
	Input     []string          `yaml:"input,omitempty"`
	Output    string            `yaml:"output,omitempty"`
}

// FullName returns the fully-qualified dotted identity of the table.
func (t *Table) FullName(defaultNamespace string) string {
	ns := t.Namespace
	if ns == "" {
		ns = defaultNamespace
	}
	if ns == "" {
		return t.Name
	}
	return ns + "." + t.Name
}

// ParseSchema decodes a single raw schema document.
func ParseSchema(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("load: parse schema: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSchemaDir reads every *.yaml/*.yml schema document under dir and
// merges them into one Schema. Later documents must not redeclare names
// from earlier ones.
func LoadSchemaDir(dir string) (*Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load: read schema dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	merged := &Schema{}
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("load: read schema file %s: %w", name, err)
		}
		s := &Schema{}
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("load: parse schema file %s: %w", name, err)
		}
		if err := merged.merge(s); err != nil {
			return nil, fmt.Errorf("load: schema file %s: %w", name, err)
		}
	}
	if err := merged.validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

func (s *Schema) merge(other *Schema) error {
	if s.Namespace == "" {
		s.Namespace = other.Namespace
	} else if other.Namespace != "" && other.Namespace != s.Namespace {
		// Per-table namespaces handle cross-namespace tables; document-level
		// namespaces must agree.
		return fmt.Errorf("conflicting namespaces %q and %q", s.Namespace, other.Namespace)
	}
	s.Enums = append(s.Enums, other.Enums...)
	s.Structs = append(s.Structs, other.Structs...)
	s.Tables = append(s.Tables, other.Tables...)
	return nil
}

func (s *Schema) validate() error {
	seen := make(map[string]string)
	declare := func(kind, name string) error {
		if name == "" {
			return fmt.Errorf("load: %s with empty name", kind)
		}
		if prev, ok := seen[name]; ok {
			return fmt.Errorf("load: %s %q redeclares %s", kind, name, prev)
		}
		// "tables" is the source file name of the generated master
		// registry; an enum or struct with that name would emit over it.
		if strings.EqualFold(name, "tables") {
			return fmt.Errorf("load: %s %q collides with the generated registry source name", kind, name)
		}
		seen[name] = kind
		return nil
	}
	for _, e := range s.Enums {
		if err := declare("enum", e.Name); err != nil {
			return err
		}
		if len(e.Items) == 0 {
			return fmt.Errorf("load: enum %q has no items", e.Name)
		}
		items := make(map[string]bool, len(e.Items))
		for _, it := range e.Items {
			if it.Name == "" {
				return fmt.Errorf("load: enum %q has an item with empty name", e.Name)
			}
			if items[it.Name] {
				return fmt.Errorf("load: enum %q duplicates item %q", e.Name, it.Name)
			}
			items[it.Name] = true
		}
	}
	for _, st := range s.Structs {
		if err := declare("struct", st.Name); err != nil {
			return err
		}
		if len(st.Fields) == 0 {
			return fmt.Errorf("load: struct %q has no fields", st.Name)
		}
		for _, f := range st.Fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("load: struct %q has a field with empty name or type", st.Name)
			}
		}
	}
	tables := make(map[string]bool, len(s.Tables))
	for _, t := range s.Tables {
		if t.Name == "" {
			return fmt.Errorf("load: table with empty name")
		}
		full := t.FullName(s.Namespace)
		if tables[full] {
			return fmt.Errorf("load: duplicate table identity %q", full)
		}
		tables[full] = true
		if t.ValueType == "" {
			return fmt.Errorf("load: table %q has no value_type", full)
		}
		switch t.Mode {
		case "", "map", "list", "one":
		default:
			return fmt.Errorf("load: table %q has unknown mode %q", full, t.Mode)
		}
		if (t.Mode == "" || t.Mode == "map") && t.Index == "" {
			return fmt.Errorf("load: map table %q has no index field", full)
		}
	}
	return nil
}

// LoadRecords reads one table data file: a YAML sequence of mappings, one
// per record. Field ordering is restored against the structure definition
// at compile time, so the raw form stays a plain map.
func LoadRecords(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read records %s: %w", path, err)
	}
	var rows []map[string]any
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("load: parse records %s: %w", path, err)
	}
	return rows, nil
}

// IsPrimitive reports whether the raw field type names a primitive.
func IsPrimitive(typ string) bool {
	switch strings.ToLower(typ) {
	case "string", "text", "int", "long", "float", "double", "bool":
		return true
	}
	return false
}
