// Package signature implements the table-signature post-processor: it
// computes a content signature for every exported table, synthesizes a
// name enumeration, a record structure and a map table that carry those
// signatures, and rewrites the output manifests so the regenerated master
// registry and signature table supersede the originals.
//
// Code generation runs before table data exists, data generation after.
// The session reconciles the two phases: an empty placeholder entry is
// installed for the synthetic table before code emission, and replaced
// with the real signature records before data emission.
package signature

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
)

// Named options resolved against gen.Config with these defaults.
const (
	// OptionTarget names the target whose export selection defines the
	// signature scope. Defaults to the active build target.
	OptionTarget = "signature.target"
	// OptionEnum is the synthetic enumeration name.
	OptionEnum = "signature.enum"
	// OptionStruct is the synthetic record structure name.
	OptionStruct = "signature.struct"
	// OptionPrefix is the prefix of the derived synthetic table name.
	OptionPrefix = "signature.prefix"
	// OptionNamespace is the namespace of the synthetic definitions.
	OptionNamespace = "signature.namespace"
	// OptionHash selects the content hash: sha256, md5 or xxhash64.
	OptionHash = "signature.hash"
	// OptionCodec overrides the codec used for signature serialization.
	// Defaults to the build codec.
	OptionCodec = "signature.codec"
)

// Option defaults.
const (
	DefaultEnum      = "TableName"
	DefaultStruct    = "TableSignature"
	DefaultPrefix    = "Tbl"
	DefaultNamespace = "Builtin"
	DefaultHash      = "sha256"
)

// Phase is the session's position in the two-phase state machine.
type Phase int

// Session phases. Transitions are strictly forward; there is no re-entry.
const (
	PhaseStart Phase = iota
	PhasePlaceholderInstalled
	PhaseSignaturesComputed
	PhaseDone
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhasePlaceholderInstalled:
		return "placeholder-installed"
	case PhaseSignaturesComputed:
		return "signatures-computed"
	case PhaseDone:
		return "done"
	}
	return "unknown"
}

// Session carries the per-build state of the signature post-processor.
// It is created once by the orchestrator and shared by reference between
// the code hook and the data hook, which may run on parallel goroutines:
// the synthetic definitions and the signature map are each computed at
// most once under a blocking first-caller-computes discipline.
type Session struct {
	log      *zap.Logger
	cfg      *gen.Config
	graph    *gen.Graph
	registry *gen.DataRegistry

	mu    sync.Mutex
	phase Phase

	defsOnce sync.Once
	defs     *Types
	defsErr  error

	sigsOnce sync.Once
	sigs     map[string]string
	sigsErr  error
}

// NewSession creates a signature session for one build invocation.
// Graph and registry may be nil when the host constructs the session
// speculatively; hooks then log and skip their work instead of aborting.
func NewSession(cfg *gen.Config, graph *gen.Graph, registry *gen.DataRegistry, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		log:      logger.With(zap.String("session", uuid.NewString())),
		cfg:      cfg,
		graph:    graph,
		registry: registry,
	}
}

// Phase returns the session's current phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// ready reports whether the pipeline state the session depends on is
// initialized. A hook firing before that is a soft condition: log and
// skip, do not abort.
func (s *Session) ready() bool {
	return s.cfg != nil && s.graph != nil && s.registry != nil
}

// BeginCodeEmission enters phase 1: ensure the synthetic types exist and
// install an empty placeholder entry for the synthetic table, so code
// emitters see a complete, well-typed table before any data exists.
// The insert is at-most-once: an existing entry is left untouched.
func (s *Session) BeginCodeEmission() error {
	if !s.ready() {
		s.log.Warn("code emission hook fired before pipeline state was initialized, skipping")
		return nil
	}
	types, err := s.EnsureTypes()
	if err != nil {
		return err
	}
	inserted := s.registry.TryInsert(&gen.TableDataEntry{Table: types.Table.FullName})
	if !inserted {
		s.log.Debug("placeholder install skipped, entry already present",
			zap.String("table", types.Table.FullName))
	} else {
		s.log.Debug("placeholder installed", zap.String("table", types.Table.FullName))
	}
	s.mu.Lock()
	if s.phase == PhaseStart {
		s.phase = PhasePlaceholderInstalled
	}
	s.mu.Unlock()
	return nil
}

// BeginDataEmission enters phase 2: compute the signature map, turn it
// into real records and replace the synthetic table's placeholder entry.
// Replace is the one sanctioned overwrite of a registry entry.
func (s *Session) BeginDataEmission() error {
	if !s.ready() {
		s.log.Warn("data emission hook fired before pipeline state was initialized, skipping")
		return nil
	}
	types, err := s.EnsureTypes()
	if err != nil {
		return err
	}
	sigs, err := s.Signatures()
	if err != nil {
		return err
	}
	s.mu.Lock()
	if s.phase == PhaseStart {
		// The host never ran code emission; the registry entry may be
		// missing entirely. Replace below installs it either way.
		s.log.Warn("data emission without preceding code emission phase")
	}
	s.phase = PhaseSignaturesComputed
	s.mu.Unlock()

	records := s.MaterializeRecords(sigs)
	s.registry.Replace(&gen.TableDataEntry{
		Table: types.Table.FullName,
		Main:  records,
	})
	s.log.Info("signature records installed",
		zap.String("table", types.Table.FullName),
		zap.Int("rows", len(records)),
		zap.Int("signatures", len(sigs)))

	s.mu.Lock()
	s.phase = PhaseDone
	s.mu.Unlock()
	return nil
}
