package gen

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ManifestWriter writes a finalized manifest to an output directory with
// parallel file writes.
type ManifestWriter struct {
	outDir  string
	workers int
}

// NewManifestWriter creates a writer for the given output directory.
func NewManifestWriter(outDir string) *ManifestWriter {
	return &ManifestWriter{
		outDir:  outDir,
		workers: runtime.GOMAXPROCS(0),
	}
}

// WithWorkers sets the number of parallel workers.
func (w *ManifestWriter) WithWorkers(n int) *ManifestWriter {
	if n > 0 {
		w.workers = n
	}
	return w
}

// Write writes every artifact of the manifest below the output directory.
func (w *ManifestWriter) Write(ctx context.Context, m *Manifest) error {
	if err := os.MkdirAll(w.outDir, 0o755); err != nil {
		return err
	}
	errg, _ := errgroup.WithContext(ctx)
	errg.SetLimit(w.workers)
	for _, a := range m.Artifacts() {
		errg.Go(func() error {
			path := filepath.Join(w.outDir, filepath.FromSlash(a.Name))
			if dir := filepath.Dir(path); dir != w.outDir {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			return os.WriteFile(path, a.Data, 0o644)
		})
	}
	return errg.Wait()
}
