package main

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/load"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Regenerate whenever schema or data files change",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			bc, err := load.LoadBuildConfig(flagConfig)
			if err != nil {
				return err
			}
			watcher, err := fsnotify.NewWatcher()
			if err != nil {
				return err
			}
			defer watcher.Close()
			if err := watcher.Add(bc.SchemaDir); err != nil {
				return err
			}
			if bc.DataDir != "" {
				if err := watcher.Add(bc.DataDir); err != nil {
					return err
				}
			}

			if err := runGenerate(cmd.Context(), logger); err != nil {
				logger.Error("generation failed", zap.Error(err))
			}
			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case event, ok := <-watcher.Events:
					if !ok {
						return nil
					}
					if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
						continue
					}
					logger.Info("change detected, regenerating", zap.String("file", event.Name))
					// Each pass gets a fresh pipeline: the registry and the
					// signature session are strictly per-build state.
					if err := runGenerate(cmd.Context(), logger); err != nil {
						logger.Error("generation failed", zap.Error(err))
					}
				case err, ok := <-watcher.Errors:
					if !ok {
						return nil
					}
					logger.Warn("watch error", zap.Error(err))
				}
			}
		},
	}
}
