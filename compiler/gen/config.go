package gen

import (
	"github.com/tabula-io/tabula/compiler/load"
)

// Target is a named export selection. Empty Groups and Tables admit every
// table; otherwise a table must match the group filter and, when Tables is
// set, appear in the explicit table list.
type Target struct {
	Name   string
	Groups []string
	Tables []string
}

// Includes reports whether the target's filters admit the table.
// Synthetic tables are always admitted: they are injected into the export
// set explicitly, not selected by filters.
func (t *Target) Includes(tbl *TableDef) bool {
	if tbl.Synthetic {
		return true
	}
	if !tbl.InGroup(t.Groups) {
		return false
	}
	if len(t.Tables) == 0 {
		return true
	}
	for _, name := range t.Tables {
		if name == tbl.FullName {
			return true
		}
	}
	return false
}

// Config holds the resolved build configuration shared by the graph, the
// emitters and the post-processors.
type Config struct {
	// Name of the build.
	Name string
	// Package is the import path of the generated code package.
	Package string
	// CodeOutDir and DataOutDir are the artifact output directories.
	CodeOutDir string
	DataOutDir string
	// Codec is the data codec name ("msgpack", "json").
	Codec string
	// Header is the generated-file header comment.
	Header string
	// Target is the active export target.
	Target *Target
	// Targets holds every declared target, addressable by name.
	Targets []*Target
	// Options carries free-form named options with defaults resolved at
	// the point of use (signature scope, naming overrides, hash choice).
	Options map[string]string
}

// Lookup resolves a named option, falling back to the given default.
func (c *Config) Lookup(name, fallback string) string {
	if v, ok := c.Options[name]; ok && v != "" {
		return v
	}
	return fallback
}

// LookupTarget returns the declared target with the given name.
func (c *Config) LookupTarget(name string) (*Target, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// NewConfig resolves a raw build configuration into a Config.
func NewConfig(bc *load.BuildConfig) (*Config, error) {
	c := &Config{
		Name:       bc.Name,
		Package:    bc.Package,
		CodeOutDir: bc.CodeOutDir,
		DataOutDir: bc.DataOutDir,
		Codec:      bc.Codec,
		Options:    bc.Options,
	}
	if c.Codec == "" {
		c.Codec = "msgpack"
	}
	if c.Options == nil {
		c.Options = make(map[string]string)
	}
	for _, t := range bc.Targets {
		c.Targets = append(c.Targets, &Target{
			Name:   t.Name,
			Groups: t.Groups,
			Tables: t.Tables,
		})
	}
	active, ok := c.LookupTarget(bc.Target)
	if !ok {
		return nil, NewConfigError("Target", bc.Target, "active target is not declared")
	}
	c.Target = active
	return c, nil
}
