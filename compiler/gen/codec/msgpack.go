package codec

import (
	"bytes"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tabula-io/tabula/compiler/gen"
)

func init() {
	Register(&MsgpackCodec{})
}

// MsgpackCodec serializes tables as msgpack: an array of records, each
// record an array of field values in field declaration order. Positional
// arrays keep the byte output free of map-iteration nondeterminism.
type MsgpackCodec struct{}

// Name implements Codec.
func (*MsgpackCodec) Name() string { return "msgpack" }

// Extension implements Codec.
func (*MsgpackCodec) Extension() string { return "bytes" }

// Encoding implements Codec.
func (*MsgpackCodec) Encoding() gen.Encoding { return gen.EncodingBinary }

// SerializeTable implements Codec.
func (c *MsgpackCodec) SerializeTable(t *gen.TableDef, records []*gen.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeArrayLen(len(records)); err != nil {
		return nil, gen.NewSerializeError(t.FullName, c.Name(), "encode row count", err)
	}
	for i, r := range records {
		if err := encodeFields(enc, r.Fields); err != nil {
			return nil, gen.NewSerializeError(t.FullName, c.Name(), fmt.Sprintf("encode row %d", i), err)
		}
	}
	return buf.Bytes(), nil
}

func encodeFields(enc *msgpack.Encoder, fields []gen.FieldValue) error {
	if err := enc.EncodeArrayLen(len(fields)); err != nil {
		return err
	}
	for _, f := range fields {
		if err := encodeValue(enc, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func encodeValue(enc *msgpack.Encoder, v any) error {
	switch val := v.(type) {
	case nil:
		return enc.EncodeNil()
	case string:
		return enc.EncodeString(val)
	case int64:
		return enc.EncodeInt(val)
	case int:
		return enc.EncodeInt(int64(val))
	case float64:
		return enc.EncodeFloat64(val)
	case bool:
		return enc.EncodeBool(val)
	case []gen.FieldValue:
		return encodeFields(enc, val)
	default:
		return enc.Encode(val)
	}
}
