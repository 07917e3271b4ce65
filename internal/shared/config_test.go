package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./rewrapped.db" {
			t.Errorf("expected database path ./rewrapped.db, got %s", config.Database.Path)
		}

		if config.Server.Port != 3000 {
			t.Errorf("expected server port 3000, got %d", config.Server.Port)
		}

		if config.Session.Driver != DriverMemory {
			t.Errorf("expected memory session driver, got %s", config.Session.Driver)
		}

		if config.Spotify.RequestTimeout != 15*time.Second {
			t.Errorf("expected 15s request timeout, got %v", config.Spotify.RequestTimeout)
		}

		if config.Stats.GenreOrder != "ascending" {
			t.Errorf("expected ascending genre order, got %s", config.Stats.GenreOrder)
		}

		if len(config.Credentials.Spotify.Scopes) != 3 {
			t.Errorf("expected 3 default scopes, got %v", config.Credentials.Spotify.Scopes)
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[server]
host = "0.0.0.0"
port = 8080

[session]
driver = "sqlite"

[stats]
genre_order = "descending"

[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"
redirect_uri = "http://localhost:8080/"
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Session.Driver != DriverSQLite {
			t.Errorf("expected sqlite driver, got %s", config.Session.Driver)
		}

		if config.Credentials.Spotify.ClientID != "test_client_id" {
			t.Errorf("expected spotify client_id test_client_id, got %s", config.Credentials.Spotify.ClientID)
		}

		if config.Spotify.TopLimit != 50 {
			t.Errorf("expected unset top_limit to keep default 50, got %d", config.Spotify.TopLimit)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		config := DefaultConfig()
		env := map[string]string{
			"SPOTIFY_CLIENT_ID":     "env_id",
			"SPOTIFY_CLIENT_SECRET": "env_secret",
		}
		config.ApplyEnv(func(k string) string { return env[k] })

		if config.Credentials.Spotify.ClientID != "env_id" {
			t.Errorf("expected env client id, got %s", config.Credentials.Spotify.ClientID)
		}
		if config.Credentials.Spotify.ClientSecret != "env_secret" {
			t.Errorf("expected env client secret, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Credentials.Spotify.RedirectURI != "http://127.0.0.1:3000/" {
			t.Errorf("redirect uri should be untouched, got %s", config.Credentials.Spotify.RedirectURI)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{name: "unknown driver", mutate: func(c *Config) { c.Session.Driver = "etcd" }},
			{name: "unknown genre order", mutate: func(c *Config) { c.Stats.GenreOrder = "random" }},
			{name: "top limit too large", mutate: func(c *Config) { c.Spotify.TopLimit = 51 }},
			{name: "top limit zero", mutate: func(c *Config) { c.Spotify.TopLimit = 0 }},
			{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
