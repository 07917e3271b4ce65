package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/rewrapped/internal/services"
	"github.com/desertthunder/rewrapped/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	configPath := os.Getenv("REWRAPPED_CONFIG")
	if configPath == "" {
		configPath = "config.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}
	config.ApplyEnv(os.Getenv)

	if err := config.Validate(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	shared.SetLogLevel(logger, shared.ParseLogLevel(config.Log.Level))

	var spotifyService services.Service
	if config.HasCredentials() {
		svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), &services.SpotifyOpts{
			HTTPClient: services.NewHTTPClient(config.Spotify.RequestTimeout),
			Scopes:     config.Credentials.Spotify.Scopes,
		})
		if err != nil {
			logger.Warn("spotify service unavailable", "error", err)
		} else {
			spotifyService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Spotify:    spotifyService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "rewrapped",
		Usage:    "Spotify listening statistics in the browser and the terminal",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}
