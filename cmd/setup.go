package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the given path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("%s Config written to %s\n", r.palette.OK("✓"), configPath)
	r.writePlain("%s\n", r.palette.Help("Set credentials.spotify.client_id and client_secret, or export SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET."))
	return nil
}

// SetupDatabase creates the session database named by the config and brings its schema up to date.
// A missing config file is written from the example first.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	config := r.setupConfig(cmd.String("config"))
	path := config.Database.Path

	db, err := shared.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()
	shared.ConfigureDatabase(db, config.Database.MaxOpenConns, config.Database.MaxIdleConns)

	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	versions, err := shared.AppliedMigrations(ctx, db)
	if err != nil {
		return err
	}
	r.logger.Info("database ready", "path", path, "versions", versions)
	r.writePlain("%s %s at schema version %d\n", r.palette.OK("✓"), path, lo.Max(versions))

	if config.Session.Driver != shared.DriverSQLite {
		r.writePlain("%s\n", r.palette.Warn(fmt.Sprintf("session.driver is %q; set it to \"sqlite\" to keep sessions in this database", config.Session.Driver)))
	}
	return nil
}

// setupConfig loads path, creating it from the example when absent. Any failure falls back to the defaults.
func (r *Runner) setupConfig(path string) *shared.Config {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := shared.CreateConfigFile(path); err != nil {
			r.logger.Warn("could not write config, using defaults", "path", path, "error", err)
			return shared.DefaultConfig()
		}
		r.logger.Info("config file created", "path", path)
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		r.logger.Warn("could not load config, using defaults", "path", path, "error", err)
		return shared.DefaultConfig()
	}
	return config
}
