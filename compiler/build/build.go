// Package build orchestrates one full generation pass: compile the
// schema graph, load table data, run the code emission phase, then the
// data emission phase, finalizing each phase's manifest through the
// registered post-processing hooks.
package build

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/gen/codec"
	"github.com/tabula-io/tabula/compiler/gen/emit"
	"github.com/tabula-io/tabula/compiler/gen/signature"
	"github.com/tabula-io/tabula/compiler/load"
)

// Pipeline is one build invocation. Hooks registered for a phase run at
// that phase's manifest finalization.
type Pipeline struct {
	log       *zap.Logger
	cfg       *gen.Config
	graph     *gen.Graph
	registry  *gen.DataRegistry
	dataDir   string
	codeHooks []gen.Hook
	dataHooks []gen.Hook
}

// New compiles the schema under the build configuration and prepares an
// empty data registry. The signature session and its two hooks are
// created here and share the pipeline's graph and registry.
func New(bc *load.BuildConfig, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := gen.NewConfig(bc)
	if err != nil {
		return nil, err
	}
	schema, err := load.LoadSchemaDir(bc.SchemaDir)
	if err != nil {
		return nil, err
	}
	graph, err := gen.NewGraph(cfg, schema)
	if err != nil {
		return nil, err
	}
	registry := gen.NewDataRegistry()
	session := signature.NewSession(cfg, graph, registry, logger)
	p := &Pipeline{
		log:      logger,
		cfg:      cfg,
		graph:    graph,
		registry: registry,
		dataDir:  bc.DataDir,
	}
	p.codeHooks = append(p.codeHooks, signature.NewCodeHook(session))
	p.dataHooks = append(p.dataHooks, signature.NewDataHook(session))
	return p, nil
}

// Graph returns the compiled schema graph.
func (p *Pipeline) Graph() *gen.Graph { return p.graph }

// Registry returns the build's data registry.
func (p *Pipeline) Registry() *gen.DataRegistry { return p.registry }

// Run executes both phases and writes the finalized manifests.
func (p *Pipeline) Run(ctx context.Context) error {
	codeManifest, err := p.RunCodePhase()
	if err != nil {
		return err
	}
	if err := gen.NewManifestWriter(p.cfg.CodeOutDir).Write(ctx, codeManifest); err != nil {
		return err
	}
	if err := p.LoadData(); err != nil {
		return err
	}
	dataManifest, err := p.RunDataPhase()
	if err != nil {
		return err
	}
	return gen.NewManifestWriter(p.cfg.DataOutDir).Write(ctx, dataManifest)
}

// RunCodePhase emits source artifacts for every definition plus the
// master registry, then finalizes through the code hooks.
func (p *Pipeline) RunCodePhase() (*gen.Manifest, error) {
	m := gen.NewManifest()
	em := emit.NewEmitter(p.graph)
	for _, e := range p.graph.Enums() {
		art, err := em.EmitEnum(e)
		if err != nil {
			return nil, err
		}
		m.Append(art)
	}
	for _, s := range p.graph.Structs() {
		art, err := em.EmitStruct(s)
		if err != nil {
			return nil, err
		}
		m.Append(art)
	}
	exports := p.graph.ExportTables()
	for _, t := range exports {
		art, err := em.EmitTable(t)
		if err != nil {
			return nil, err
		}
		m.Append(art)
	}
	registry, err := em.EmitRegistry(exports)
	if err != nil {
		return nil, err
	}
	m.Append(registry)
	p.log.Debug("code manifest built", zap.Int("artifacts", m.Len()))
	return m.Finalize(p.codeHooks...)
}

// LoadData reads every export table's input files into the registry.
// Inputs prefixed "patch:" load as patch records, appended after main
// records in the serialized stream.
func (p *Pipeline) LoadData() error {
	for _, t := range p.graph.ExportTables() {
		if t.Synthetic {
			continue
		}
		entry := &gen.TableDataEntry{Table: t.FullName}
		for _, input := range t.Input {
			patch := false
			name := input
			if strings.HasPrefix(name, "patch:") {
				patch = true
				name = strings.TrimPrefix(name, "patch:")
			}
			rows, err := load.LoadRecords(filepath.Join(p.dataDir, name))
			if err != nil {
				return err
			}
			records, err := gen.BuildRecords(t.ValueType, rows)
			if err != nil {
				return gen.NewSchemaError(t.FullName, "", "build records from "+name, err)
			}
			if patch {
				entry.Patch = append(entry.Patch, records...)
			} else {
				entry.Main = append(entry.Main, records...)
			}
		}
		if !p.registry.TryInsert(entry) {
			p.log.Debug("table data already registered", zap.String("table", t.FullName))
		}
	}
	p.log.Info("table data loaded", zap.Int("tables", p.registry.Len()))
	return nil
}

// RunDataPhase serializes every export table through the configured
// codec, reading record data from the registry at invocation time, then
// finalizes through the data hooks.
func (p *Pipeline) RunDataPhase() (*gen.Manifest, error) {
	c, err := codec.Lookup(p.cfg.Codec)
	if err != nil {
		return nil, err
	}
	m := gen.NewManifest()
	for _, t := range p.graph.ExportTables() {
		var records []*gen.Record
		if entry, ok := p.registry.Get(t.FullName); ok {
			records = entry.FinalRecords()
		}
		data, err := c.SerializeTable(t, records)
		if err != nil {
			return nil, err
		}
		m.Append(&gen.Artifact{
			Name:     t.OutputStem() + "." + c.Extension(),
			Data:     data,
			Encoding: c.Encoding(),
		})
	}
	p.log.Debug("data manifest built", zap.Int("artifacts", m.Len()))
	return m.Finalize(p.dataHooks...)
}
