package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/untergeek/es-checkpoint/pkg/schema"
	"github.com/untergeek/es-checkpoint/pkg/storage"
)

var rootCmd = &cobra.Command{
	Use:   "es-checkpoint",
	Short: "Inspect batch job progress tracking documents",
	Long: `Inspect the tracking documents written by jobs, tasks, and steps.

Tracking documents live in a storage backend selected with --backend:

  file    one JSON document per file under --path (default)
  bleve   an embedded search index under --path
  memory  an empty in-process store, useful only for smoke tests

Examples:
  # List all jobs in the default tracking index
  es-checkpoint jobs list --path ./tracking

  # Show one job with its full log trail
  es-checkpoint jobs status nightly --path ./tracking

  # Check tracking data integrity
  es-checkpoint doctor --path ./tracking`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("backend", "file", "Storage backend: file, bleve, or memory")
	pf.String("path", "./tracking", "Base directory for file and bleve backends")
	pf.String("tracking-index", schema.DefaultTrackingIndex, "Tracking index name")
	pf.String("log-level", "warn", "Log level: debug, info, warn, or error")

	_ = viper.BindPFlag("backend", pf.Lookup("backend"))
	_ = viper.BindPFlag("path", pf.Lookup("path"))
	_ = viper.BindPFlag("tracking_index", pf.Lookup("tracking-index"))
	_ = viper.BindPFlag("log_level", pf.Lookup("log-level"))
	viper.SetEnvPrefix("ES_CHECKPOINT")
	viper.AutomaticEnv()
}

func newLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", viper.GetString("log_level"), err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// openBackend builds the configured storage backend. The returned closer is
// a no-op for backends with nothing to close.
func openBackend(log *zap.Logger) (storage.Backend, func() error, error) {
	noop := func() error { return nil }
	switch name := viper.GetString("backend"); name {
	case "memory":
		return storage.NewMemoryBackend(log), noop, nil
	case "file":
		b, err := storage.NewFileBackend(viper.GetString("path"), log)
		if err != nil {
			return nil, nil, err
		}
		return b, noop, nil
	case "bleve":
		b, err := storage.NewBleveBackend(viper.GetString("path"), log)
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (expected file, bleve, or memory)", name)
	}
}

func trackingIndex() string {
	return viper.GetString("tracking_index")
}
