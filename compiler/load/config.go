package load

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BuildConfig is the raw build configuration document. Options carries
// free-form named options (signature target, naming overrides, hash and
// codec selection) resolved with defaults by compiler/gen.
type BuildConfig struct {
	Name       string            `yaml:"name"`
	SchemaDir  string            `yaml:"schema_dir"`
	DataDir    string            `yaml:"data_dir,omitempty"`
	CodeOutDir string            `yaml:"code_out_dir"`
	DataOutDir string            `yaml:"data_out_dir"`
	Package    string            `yaml:"package,omitempty"`
	Codec      string            `yaml:"codec,omitempty"`
	Target     string            `yaml:"target"`
	Targets    []*Target         `yaml:"targets"`
	Options    map[string]string `yaml:"options,omitempty"`
}

// Target is a named export selection: which groups and tables a build (or
// a signature scope) covers. Empty Groups/Tables means no filtering.
type Target struct {
	Name   string   `yaml:"name"`
	Groups []string `yaml:"groups,omitempty"`
	Tables []string `yaml:"tables,omitempty"`
}

// ParseBuildConfig decodes a raw build configuration document.
func ParseBuildConfig(data []byte) (*BuildConfig, error) {
	c := &BuildConfig{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("load: parse build config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadBuildConfig reads and decodes a build configuration file.
func LoadBuildConfig(path string) (*BuildConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: read build config %s: %w", path, err)
	}
	return ParseBuildConfig(data)
}

func (c *BuildConfig) validate() error {
	if c.Target == "" {
		return fmt.Errorf("load: build config has no active target")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("load: build config declares no targets")
	}
	names := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("load: target with empty name")
		}
		if names[t.Name] {
			return fmt.Errorf("load: duplicate target %q", t.Name)
		}
		names[t.Name] = true
	}
	if !names[c.Target] {
		return fmt.Errorf("load: active target %q is not declared", c.Target)
	}
	return nil
}

// LookupTarget returns the declared target with the given name.
func (c *BuildConfig) LookupTarget(name string) (*Target, bool) {
	for _, t := range c.Targets {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
