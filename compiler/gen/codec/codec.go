// Package codec provides the per-format data codecs that serialize table
// records into output bytes. Codecs must be deterministic: identical
// records in identical order always produce identical bytes, a property
// the signature post-processor depends on.
package codec

import (
	"sort"
	"sync"

	"github.com/tabula-io/tabula/compiler/gen"
)

// Codec serializes a table's final record list into output bytes.
type Codec interface {
	// Name is the codec's registry name.
	Name() string
	// Extension is the output file extension, without dot.
	Extension() string
	// Encoding is the artifact encoding of the codec's output.
	Encoding() gen.Encoding
	// SerializeTable produces the canonical output bytes for the table.
	SerializeTable(t *gen.TableDef, records []*gen.Record) ([]byte, error)
}

var (
	mu       sync.RWMutex
	registry = make(map[string]Codec)
)

// Register adds a codec under its name. Later registrations replace
// earlier ones, which lets hosts override a built-in codec.
func Register(c Codec) {
	mu.Lock()
	defer mu.Unlock()
	registry[c.Name()] = c
}

// Lookup returns the codec registered under the given name.
func Lookup(name string) (Codec, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[name]
	if !ok {
		return nil, gen.NewConfigError("Codec", name, "unknown codec")
	}
	return c, nil
}

// Names returns the registered codec names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
