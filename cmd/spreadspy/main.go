package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"spreadSpy/internal/config"
)

// buildLogger is replaced in tests to capture startup output.
var buildLogger = newLogger

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spreadspy",
		Short:        "Watch the price spread between two AMM pools",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "dotenv file loaded before reading the environment")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Poll both pools until interrupted",
		RunE:  runMonitor,
	}
	config.RegisterFlags(runCmd.Flags())
	root.AddCommand(runCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single poll cycle and exit",
		RunE:  runCheck,
	}
	config.RegisterFlags(checkCmd.Flags())
	root.AddCommand(checkCmd)

	return root
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
