package codec

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/tabula-io/tabula/compiler/gen"
)

func init() {
	Register(&JSONCodec{})
}

// JSONCodec serializes tables as a JSON array of objects. Objects are
// written field by field in declaration order through the stream API, so
// key order in the output is deterministic.
type JSONCodec struct{}

// Name implements Codec.
func (*JSONCodec) Name() string { return "json" }

// Extension implements Codec.
func (*JSONCodec) Extension() string { return "json" }

// Encoding implements Codec.
func (*JSONCodec) Encoding() gen.Encoding { return gen.EncodingText }

// SerializeTable implements Codec.
func (c *JSONCodec) SerializeTable(t *gen.TableDef, records []*gen.Record) ([]byte, error) {
	cfg := jsoniter.Config{SortMapKeys: true}.Froze()
	stream := cfg.BorrowStream(nil)
	defer cfg.ReturnStream(stream)

	stream.WriteArrayStart()
	for i, r := range records {
		if i > 0 {
			stream.WriteMore()
		}
		writeFields(stream, r.Fields)
	}
	stream.WriteArrayEnd()
	if err := stream.Error; err != nil {
		return nil, gen.NewSerializeError(t.FullName, c.Name(), "encode rows", err)
	}
	out := make([]byte, len(stream.Buffer()))
	copy(out, stream.Buffer())
	return out, nil
}

func writeFields(stream *jsoniter.Stream, fields []gen.FieldValue) {
	stream.WriteObjectStart()
	for i, f := range fields {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(f.Name)
		writeValue(stream, f.Value)
	}
	stream.WriteObjectEnd()
}

func writeValue(stream *jsoniter.Stream, v any) {
	switch val := v.(type) {
	case nil:
		stream.WriteNil()
	case string:
		stream.WriteString(val)
	case int64:
		stream.WriteInt64(val)
	case int:
		stream.WriteInt(val)
	case float64:
		stream.WriteFloat64(val)
	case bool:
		stream.WriteBool(val)
	case []gen.FieldValue:
		writeFields(stream, val)
	default:
		stream.WriteString(fmt.Sprintf("%v", val))
	}
}
