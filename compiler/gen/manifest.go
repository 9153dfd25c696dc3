package gen

import (
	"path/filepath"
	"strings"
)

// Encoding describes how an artifact's bytes are written to disk.
type Encoding int

// Artifact encodings.
const (
	// EncodingText artifacts are UTF-8 source files.
	EncodingText Encoding = iota
	// EncodingBinary artifacts are raw codec output.
	EncodingBinary
)

// Artifact is one named generated file: source code during the code
// phase, serialized table data during the data phase.
type Artifact struct {
	// Name is the artifact path relative to the phase output directory.
	Name string
	// Data holds the file content.
	Data []byte
	// Encoding selects text or binary handling on write.
	Encoding Encoding
}

// Stem returns the artifact name without directory or extension, lower
// cased. Manifest hooks match artifacts by stem so that the comparison is
// case-insensitive and tolerant of different codec file extensions.
func (a *Artifact) Stem() string {
	base := filepath.Base(a.Name)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	return strings.ToLower(base)
}

// Manifest is the ordered collection of artifacts produced by one
// emission phase. It is built incrementally and finalized through the
// registered hooks before being handed to the writer.
type Manifest struct {
	artifacts []*Artifact
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{}
}

// Append adds an artifact at the end of the manifest.
func (m *Manifest) Append(a *Artifact) {
	m.artifacts = append(m.artifacts, a)
}

// Artifacts returns the artifacts in order. The slice is a copy.
func (m *Manifest) Artifacts() []*Artifact {
	out := make([]*Artifact, len(m.artifacts))
	copy(out, m.artifacts)
	return out
}

// Len returns the number of artifacts.
func (m *Manifest) Len() int {
	return len(m.artifacts)
}

// Lookup returns the first artifact with the given name.
func (m *Manifest) Lookup(name string) (*Artifact, bool) {
	for _, a := range m.artifacts {
		if a.Name == name {
			return a, true
		}
	}
	return nil, false
}

// LookupStem returns the first artifact whose stem matches.
func (m *Manifest) LookupStem(stem string) (*Artifact, bool) {
	stem = strings.ToLower(stem)
	for _, a := range m.artifacts {
		if a.Stem() == stem {
			return a, true
		}
	}
	return nil, false
}

// Hook is a named post-processing hook invoked at manifest finalization.
// Filter is called once per artifact as it is carried from the old
// manifest into the new one; returning false drops the artifact.
// Finalize runs after filtering with both manifests and may append
// regenerated artifacts to next.
type Hook interface {
	Name() string
	Filter(a *Artifact) bool
	Finalize(old, next *Manifest) error
}

// Finalize builds the final manifest: every artifact passes through the
// hooks' filters, then each hook's Finalize runs in registration order.
// A Finalize error aborts the build; the partially built manifest is
// never handed to the writer.
func (m *Manifest) Finalize(hooks ...Hook) (*Manifest, error) {
	next := NewManifest()
	for _, a := range m.artifacts {
		keep := true
		for _, h := range hooks {
			if !h.Filter(a) {
				keep = false
				break
			}
		}
		if keep {
			next.Append(a)
		}
	}
	for _, h := range hooks {
		if err := h.Finalize(m, next); err != nil {
			return nil, err
		}
	}
	return next, nil
}
