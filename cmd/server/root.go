package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rl1809/warehouse-inventory/internal/adapter/storage"
	"github.com/rl1809/warehouse-inventory/internal/config"
)

type rootOptions struct {
	configFile string
	port       int
	dbFile     string
	dbDriver   string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "inventory",
		Short:        "Warehouse inventory API",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	cmd.PersistentFlags().IntVar(&opts.port, "port", 0, "HTTP port (overrides PORT)")
	cmd.PersistentFlags().StringVar(&opts.dbFile, "db-file", "", "SQLite file (overrides DB_FILE)")
	cmd.PersistentFlags().StringVar(&opts.dbDriver, "db-driver", "", "sqlite or mysql (overrides DB_DRIVER)")

	serve := newServeCommand(opts)
	cmd.AddCommand(serve)
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newSeedCommand(opts))

	// Without a subcommand the binary serves.
	cmd.RunE = serve.RunE

	return cmd
}

func (o *rootOptions) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configFile)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	if o.dbFile != "" {
		cfg.DBFile = o.dbFile
	}
	if o.dbDriver != "" {
		cfg.DBDriver = o.dbDriver
	}
	if err := cfg.Validate(); err != nil {
		return cfg, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// openStore opens and migrates the configured store. The caller owns Close.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*storage.SQLAdapter, error) {
	dialect, err := storage.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, dialect, cfg.StoreTarget())
	if err != nil {
		return nil, err
	}
	logger.Info("connected to database", "driver", dialect)

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
