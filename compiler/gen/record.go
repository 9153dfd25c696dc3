package gen

import (
	"fmt"
)

// FieldValue is one field of a record. Values are primitives, enum item
// names (string) or nested []FieldValue for struct fields.
type FieldValue struct {
	Name  string
	Value any
}

// Record is an ordered sequence of field values. Order follows the value
// structure's field declaration order and is authoritative: the data
// codecs serialize fields positionally, which is what makes the byte
// output, and therefore the content signature, deterministic.
type Record struct {
	Fields []FieldValue
}

// Get returns the value of the named field.
func (r *Record) Get(name string) (any, bool) {
	for i := range r.Fields {
		if r.Fields[i].Name == name {
			return r.Fields[i].Value, true
		}
	}
	return nil, false
}

// BuildRecord converts one raw row into a Record ordered by the value
// structure's field declaration order. Missing fields become the field
// type's zero value; unknown row keys are a schema error.
func BuildRecord(st *StructDef, row map[string]any) (*Record, error) {
	for key := range row {
		if _, ok := st.Field(key); !ok {
			return nil, NewSchemaError(st.FullName, key, "row key not declared on value type", nil)
		}
	}
	rec := &Record{Fields: make([]FieldValue, 0, len(st.Fields))}
	for _, f := range st.Fields {
		raw, ok := row[f.Name]
		if !ok {
			rec.Fields = append(rec.Fields, FieldValue{Name: f.Name, Value: zeroValue(f)})
			continue
		}
		v, err := coerceValue(st, f, raw)
		if err != nil {
			return nil, err
		}
		rec.Fields = append(rec.Fields, FieldValue{Name: f.Name, Value: v})
	}
	return rec, nil
}

// BuildRecords converts raw rows into records in input order.
func BuildRecords(st *StructDef, rows []map[string]any) ([]*Record, error) {
	out := make([]*Record, 0, len(rows))
	for i, row := range rows {
		rec, err := BuildRecord(st, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func zeroValue(f *FieldDef) any {
	switch f.Type {
	case TypeString, TypeEnum:
		return ""
	case TypeInt:
		return int64(0)
	case TypeLong:
		return int64(0)
	case TypeFloat:
		return float64(0)
	case TypeBool:
		return false
	case TypeStruct:
		return []FieldValue(nil)
	}
	return nil
}

func coerceValue(st *StructDef, f *FieldDef, raw any) (any, error) {
	switch f.Type {
	case TypeString:
		s, ok := raw.(string)
		if !ok {
			return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected string, got %T", raw), nil)
		}
		return s, nil
	case TypeInt, TypeLong:
		switch v := raw.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint64:
			return int64(v), nil
		}
		return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected integer, got %T", raw), nil)
	case TypeFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		}
		return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected float, got %T", raw), nil)
	case TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected bool, got %T", raw), nil)
		}
		return b, nil
	case TypeEnum:
		s, ok := raw.(string)
		if !ok {
			return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected enum item name, got %T", raw), nil)
		}
		if _, ok := f.Enum.Item(s); !ok {
			return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("unknown item %q of enum %s", s, f.Enum.FullName), nil)
		}
		return s, nil
	case TypeStruct:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, NewSchemaError(st.FullName, f.Name, fmt.Sprintf("expected mapping, got %T", raw), nil)
		}
		nested, err := BuildRecord(f.Struct, m)
		if err != nil {
			return nil, err
		}
		return nested.Fields, nil
	}
	return nil, NewSchemaError(st.FullName, f.Name, "unsupported field type", nil)
}
