// Command tabula runs the table generation pipeline: it compiles the
// schema, emits code and data artifacts and applies the signature
// post-processors.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	flagConfig string
	flagDebug  bool
)

func main() {
	root := &cobra.Command{
		Use:           "tabula",
		Short:         "Schema-driven table code and data generator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "tabula.yaml", "build configuration file")
	root.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	root.AddCommand(newGenerateCmd(), newWatchCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "tabula:", err)
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if flagDebug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	config.Encoding = "console"
	return config.Build()
}
