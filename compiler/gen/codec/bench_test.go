package codec

import (
	"fmt"
	"testing"

	"github.com/tabula-io/tabula/compiler/gen"
)

func benchRecords(n int) (*gen.TableDef, []*gen.Record) {
	tbl := &gen.TableDef{Name: "Weapons", Namespace: "Item", FullName: "Item.Weapons"}
	records := make([]*gen.Record, n)
	for i := range records {
		records[i] = &gen.Record{Fields: []gen.FieldValue{
			{Name: "id", Value: fmt.Sprintf("weapon-%d", i)},
			{Name: "damage", Value: int64(i)},
			{Name: "quality", Value: "Common"},
		}}
	}
	return tbl, records
}

func benchmarkSerialize(b *testing.B, codec string, rows int) {
	c, err := Lookup(codec)
	if err != nil {
		b.Fatal(err)
	}
	tbl, records := benchRecords(rows)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.SerializeTable(tbl, records); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMsgpackSerialize100(b *testing.B)   { benchmarkSerialize(b, "msgpack", 100) }
func BenchmarkMsgpackSerialize10000(b *testing.B) { benchmarkSerialize(b, "msgpack", 10000) }
func BenchmarkJSONSerialize100(b *testing.B)      { benchmarkSerialize(b, "json", 100) }
func BenchmarkJSONSerialize10000(b *testing.B)    { benchmarkSerialize(b, "json", 10000) }
