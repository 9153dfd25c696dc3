package gen

import (
	"sync"
)

// TableDataEntry holds the loaded records of one table: the main record
// sequence plus an optional patch sequence appended on top. Entries are
// owned by the DataRegistry; outside the registry they are treated as
// immutable.
type TableDataEntry struct {
	// Table is the fully-qualified table identity.
	Table string
	// Main holds the main records in input order.
	Main []*Record
	// Patch holds the optional patch records, appended after Main.
	Patch []*Record
}

// FinalRecords returns the record sequence exactly as it is serialized:
// main records followed by patch records.
func (e *TableDataEntry) FinalRecords() []*Record {
	if len(e.Patch) == 0 {
		return e.Main
	}
	out := make([]*Record, 0, len(e.Main)+len(e.Patch))
	out = append(out, e.Main...)
	out = append(out, e.Patch...)
	return out
}

// DataRegistry is the process-wide mapping from table identity to loaded
// records, spanning one build invocation. It is the single mutable shared
// resource of the pipeline: multiple post-processors may touch it from
// parallel goroutines, so every operation is atomic with respect to
// concurrent attempts on the same identity.
//
// Insertion is at-most-once per identity: the first writer wins and later
// TryInsert calls leave the entry untouched. Replace is the one sanctioned
// overwrite, used by the two-phase coordinator to swap its own placeholder
// for the final records.
type DataRegistry struct {
	mu      sync.RWMutex
	entries map[string]*TableDataEntry
	order   []string
}

// NewDataRegistry creates an empty registry.
func NewDataRegistry() *DataRegistry {
	return &DataRegistry{entries: make(map[string]*TableDataEntry)}
}

// TryInsert inserts the entry if no entry exists for its identity.
// Returns true if the entry was inserted, false if an entry already
// existed (which is left unchanged).
func (r *DataRegistry) TryInsert(e *TableDataEntry) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Table]; ok {
		return false
	}
	r.entries[e.Table] = e
	r.order = append(r.order, e.Table)
	return true
}

// Replace installs the entry, overwriting any existing entry for its
// identity. This is the coordinator's phase-2 placeholder replacement;
// nothing else overwrites.
func (r *DataRegistry) Replace(e *TableDataEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[e.Table]; !ok {
		r.order = append(r.order, e.Table)
	}
	r.entries[e.Table] = e
}

// Get returns the entry for the given identity.
func (r *DataRegistry) Get(table string) (*TableDataEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[table]
	return e, ok
}

// Len returns the number of entries.
func (r *DataRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Entries returns a snapshot of every entry in insertion order. The
// slice is a copy; the entries themselves are shared and immutable by
// convention.
func (r *DataRegistry) Entries() []*TableDataEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*TableDataEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id])
	}
	return out
}

// CopyFrom inserts every entry of src that is not already present.
// Used to pre-populate an isolated registry from the primary one without
// re-parsing source data.
func (r *DataRegistry) CopyFrom(src *DataRegistry) {
	for _, e := range src.Entries() {
		r.TryInsert(e)
	}
}
