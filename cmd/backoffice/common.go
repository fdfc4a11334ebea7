package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/baseplate/backoffice/config"
	"github.com/baseplate/backoffice/internal/core/modules"
	"github.com/baseplate/backoffice/internal/core/record"
	"github.com/baseplate/backoffice/internal/logging"
	"github.com/baseplate/backoffice/internal/storage"
)

// loadConfig reads the configuration and applies its logging settings.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.LoadFile(cmd.String("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logging.SetDebug(cfg.Log.Debug || cmd.Bool("debug"))
	for _, name := range cfg.Log.DebugFor {
		logging.EnableDebugFor(name)
	}
	return cfg, nil
}

// openDatabase connects and brings the schema up to date.
func openDatabase(ctx context.Context, cfg *config.Config) (*storage.Client, error) {
	db, err := storage.NewClient(&cfg.Database)
	if err != nil {
		return nil, err
	}
	applied, err := db.Migrate(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}
	for _, v := range applied {
		logging.For("storage").Infof("applied migration %s", v)
	}
	return db, nil
}

func newCatalog(cfg *config.Config, db *storage.Client) (*modules.Catalog, error) {
	opts := modules.Options{
		DefaultLimit: cfg.Query.DefaultLimit,
		MaxLimit:     cfg.Query.MaxLimit,
		CacheSize:    cfg.Query.CacheSize,
	}
	if db != nil {
		opts.Repository = record.NewRepository(db)
	}
	return modules.NewCatalog(opts)
}
