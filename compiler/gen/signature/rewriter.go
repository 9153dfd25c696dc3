package signature

import (
	"strings"

	"github.com/go-openapi/inflect"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/gen/codec"
	"github.com/tabula-io/tabula/compiler/gen/emit"
)

// sourceEmitter is the slice of emit.Emitter the code hook regenerates
// artifacts through.
type sourceEmitter interface {
	EmitEnum(*gen.EnumDef) (*gen.Artifact, error)
	EmitStruct(*gen.StructDef) (*gen.Artifact, error)
	EmitTable(*gen.TableDef) (*gen.Artifact, error)
	EmitRegistry([]*gen.TableDef) (*gen.Artifact, error)
}

// CodeHook is the post-processing hook for the code-artifact manifest.
// It drops the stale master registry, triggers phase 1 of the session and
// regenerates the synthetic type sources plus the registry over the full
// export set.
type CodeHook struct {
	session *Session
	// emitter overrides the default emitter when non-nil.
	emitter sourceEmitter
}

// NewCodeHook creates the code-manifest hook for the session.
func NewCodeHook(s *Session) *CodeHook {
	return &CodeHook{session: s}
}

// Name implements gen.Hook.
func (h *CodeHook) Name() string { return "signature-code" }

// Filter implements gen.Hook. The master registry artifact is dropped
// unconditionally during code emission: it is regenerated below to
// include the synthetic table. Matching is by normalized stem, so the
// comparison is case-insensitive and extension-agnostic.
func (h *CodeHook) Filter(a *gen.Artifact) bool {
	return a.Stem() != emit.RegistryStem
}

// Finalize implements gen.Hook.
func (h *CodeHook) Finalize(old, next *gen.Manifest) error {
	s := h.session
	if !s.ready() {
		s.log.Warn("code manifest finalized before pipeline state was initialized, skipping")
		return nil
	}
	if err := s.BeginCodeEmission(); err != nil {
		return err
	}
	types, err := s.EnsureTypes()
	if err != nil {
		return err
	}
	em := h.emitter
	if em == nil {
		em = emit.NewEmitter(s.graph)
	}

	// Synthetic type sources are auxiliary: a failed one is logged and
	// dropped rather than aborting the whole manifest.
	appendSoft := func(kind string, art *gen.Artifact, err error) {
		if err != nil {
			s.log.Error("artifact regeneration failed, artifact dropped",
				zap.String("kind", kind), zap.Error(err))
			return
		}
		next.Append(art)
	}
	art, err := em.EmitEnum(types.Enum)
	appendSoft("enum", art, err)
	art, err = em.EmitStruct(types.Struct)
	appendSoft("struct", art, err)
	art, err = em.EmitTable(types.Table)
	appendSoft("table", art, err)

	// The registry was already dropped by Filter; failing to regenerate
	// it leaves the build incoherent, so this one is fatal.
	registry, err := em.EmitRegistry(s.graph.ExportTables())
	if err != nil {
		return gen.NewGenerationError("code", emit.RegistryStem, "regenerate master registry", err)
	}
	next.Append(registry)
	return nil
}

// DataHook is the post-processing hook for the data-artifact manifest.
// It drops the stale signature-table data file, triggers phase 2 of the
// session and re-serializes the synthetic table with the real records.
type DataHook struct {
	session *Session
	// serializer overrides the configured codec when non-nil.
	serializer codec.Codec
}

// NewDataHook creates the data-manifest hook for the session.
func NewDataHook(s *Session) *DataHook {
	return &DataHook{session: s}
}

// Name implements gen.Hook.
func (h *DataHook) Name() string { return "signature-data" }

// Filter implements gen.Hook. The signature table's own data artifact is
// dropped unconditionally during data emission; it is regenerated in
// Finalize with the materialized records.
func (h *DataHook) Filter(a *gen.Artifact) bool {
	stem := h.session.tableStem()
	return stem == "" || a.Stem() != stem
}

// Finalize implements gen.Hook.
func (h *DataHook) Finalize(old, next *gen.Manifest) error {
	s := h.session
	if !s.ready() {
		s.log.Warn("data manifest finalized before pipeline state was initialized, skipping")
		return nil
	}
	if err := s.BeginDataEmission(); err != nil {
		return err
	}
	types, err := s.EnsureTypes()
	if err != nil {
		return err
	}
	c := h.serializer
	if c == nil {
		c, err = codec.Lookup(s.cfg.Lookup(OptionCodec, s.cfg.Codec))
		if err != nil {
			return err
		}
	}
	// Read the entry from the registry at invocation time: its value
	// differs by phase, and by now it holds the final records.
	var records []*gen.Record
	if entry, ok := s.registry.Get(types.Table.FullName); ok {
		records = entry.FinalRecords()
	}
	data, err := c.SerializeTable(types.Table, records)
	if err != nil {
		// The original artifact was already dropped by Filter; without
		// the regenerated version the build is incoherent.
		return gen.NewGenerationError("data", types.Table.FullName, "regenerate signature table", err)
	}
	next.Append(&gen.Artifact{
		Name:     types.Table.OutputStem() + "." + c.Extension(),
		Data:     data,
		Encoding: c.Encoding(),
	})
	return nil
}

// tableStem derives the synthetic table's output stem purely from
// configuration, so Filter can match before the types are ensured.
func (s *Session) tableStem() string {
	if s.cfg == nil {
		return ""
	}
	name := s.cfg.Lookup(OptionPrefix, DefaultPrefix) +
		inflect.Camelize(s.cfg.Lookup(OptionStruct, DefaultStruct))
	full := name
	if ns := s.cfg.Lookup(OptionNamespace, DefaultNamespace); ns != "" {
		full = ns + "." + name
	}
	return strings.ToLower(strings.ReplaceAll(full, ".", "_"))
}
