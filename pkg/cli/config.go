package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"duck-commerce/internal/config"
)

// rootOptions holds the persistent flags every subcommand shares.
type rootOptions struct {
	envFile string
	output  string
}

// loadConfig resolves configuration with precedence flag > env > .env > default.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return nil, nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, nil, err
	}
	if err := applyFlagOverrides(cmd.Flags(), cfg); err != nil {
		return nil, nil, err
	}

	logger := cfg.NewLogger()
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}
	return cfg, logger, nil
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags a command
// does not define are never visited.
func applyFlagOverrides(flags *pflag.FlagSet, cfg *config.Config) error {
	var err error
	sourceChanged := false
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		v := f.Value.String()
		switch f.Name {
		case "log-level":
			cfg.LogLevel = v
		case "duckdb-path":
			cfg.DuckDBPath = v
		case "meta-db-path":
			cfg.MetaDBPath = v
		case "source":
			cfg.DatasetSource = v
			sourceChanged = true
		case "dataset-dir":
			cfg.DatasetDir = v
		case "sources-file":
			cfg.SourcesFile = v
		case "cleanup":
			cfg.IngestCleanup, err = flags.GetBool("cleanup")
		case "host":
			cfg.Host = v
		case "port":
			cfg.Port, err = flags.GetInt("port")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid flag: %w", err)
	}
	if sourceChanged {
		return cfg.ValidateSource()
	}
	return nil
}
