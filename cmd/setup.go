package main

import (
	"context"
	"fmt"
	"os"

	"github.com/soundcase/widgetapi/internal/shared"
	"github.com/soundcase/widgetapi/internal/store"
	"github.com/urfave/cli/v3"
)

// Setup creates the config file if missing and initializes the sqlite
// schema so serve starts against a ready store.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err != nil {
		if err := shared.CreateConfigFile(configPath); err != nil {
			return err
		}
		r.writePlain("✓ Created %s — fill in your Spotify credentials\n", configPath)
	} else {
		r.writePlain("✓ Config file %s already exists\n", configPath)
	}

	config := r.loadConfig(configPath)
	if config.Store.Backend != "sqlite" {
		r.writePlain("Store backend is %s; nothing to initialize locally\n", config.Store.Backend)
		return nil
	}

	db, err := shared.NewDatabase(config.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if _, err := store.NewSQLiteStore(db); err != nil {
		return err
	}

	r.writePlain("✓ Token store ready at %s\n", config.Store.Path)
	return nil
}
