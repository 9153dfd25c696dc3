package signature

import (
	"sort"

	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/gen"
	"github.com/tabula-io/tabula/compiler/gen/codec"
)

// Signatures returns the per-table signature map, computing it on first
// call. The computation runs at most once per session; concurrent callers
// block until the result is available. The map is read-only afterwards.
func (s *Session) Signatures() (map[string]string, error) {
	s.sigsOnce.Do(func() {
		s.sigs, s.sigsErr = s.computeSignatures()
	})
	return s.sigs, s.sigsErr
}

// computeSignatures re-runs each table's serialization in isolation and
// hashes the canonical output bytes. The signature is a pure function of
// those bytes: identical records in identical order under the same codec
// configuration always yield the identical signature.
func (s *Session) computeSignatures() (map[string]string, error) {
	cfg := s.cfg

	// The signature scope may be narrower or broader than what is code
	// generated. An unresolvable scope is a fatal configuration error.
	targetName := cfg.Lookup(OptionTarget, cfg.Target.Name)
	target, ok := cfg.LookupTarget(targetName)
	if !ok {
		return nil, gen.NewConfigError(OptionTarget, targetName, "signature target is not declared")
	}

	codecName := cfg.Lookup(OptionCodec, cfg.Codec)
	c, err := codec.Lookup(codecName)
	if err != nil {
		return nil, err
	}
	hash, err := hasherFor(cfg.Lookup(OptionHash, DefaultHash))
	if err != nil {
		return nil, err
	}

	// Scoped view plus an isolated registry pre-populated from the
	// primary one: the signature reflects exactly the data the primary
	// pipeline already accepted, with no re-parsing of source files.
	view := s.graph.View(target)
	isolated := gen.NewDataRegistry()
	isolated.CopyFrom(s.registry)

	tables := view.ExportTables()
	sort.Slice(tables, func(i, j int) bool { return tables[i].FullName < tables[j].FullName })

	sigs := make(map[string]string, len(tables))
	for _, t := range tables {
		if t.Synthetic {
			// The signature table itself is never signed; its rows are
			// derived from the very map being computed here.
			continue
		}
		var records []*gen.Record
		if entry, ok := isolated.Get(t.FullName); ok {
			records = entry.FinalRecords()
		}
		data, err := c.SerializeTable(t, records)
		if err != nil {
			// No partial signature map is acceptable: downstream record
			// materialization assumes a complete result.
			return nil, err
		}
		sig := hash(data)
		sigs[t.FullName] = sig
		s.log.Debug("table signed",
			zap.String("table", t.FullName),
			zap.String("signature", sig),
			zap.Int("rows", len(records)),
			zap.Int("bytes", len(data)))
	}
	s.log.Info("signatures computed",
		zap.String("target", target.Name),
		zap.String("codec", c.Name()),
		zap.Int("tables", len(sigs)))
	return sigs, nil
}
