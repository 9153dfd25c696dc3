package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tabula-io/tabula/compiler/build"
	"github.com/tabula-io/tabula/compiler/load"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Run one full generation pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return runGenerate(cmd.Context(), logger)
		},
	}
}

func runGenerate(ctx context.Context, logger *zap.Logger) error {
	bc, err := load.LoadBuildConfig(flagConfig)
	if err != nil {
		return err
	}
	p, err := build.New(bc, logger)
	if err != nil {
		return err
	}
	return p.Run(ctx)
}
