package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Spotify     SpotifyConfig     `toml:"spotify"`
	Server      ServerConfig      `toml:"server"`
	Session     SessionConfig     `toml:"session"`
	Database    DatabaseConfig    `toml:"database"`
	Stats       StatsConfig       `toml:"stats"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyCredentials `toml:"spotify"`
}

// SpotifyCredentials contains Spotify API credentials.
type SpotifyCredentials struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// Map returns the credentials in the form accepted by services.NewSpotifyService.
func (c SpotifyCredentials) Map() map[string]string {
	return map[string]string{
		"client_id":     c.ClientID,
		"client_secret": c.ClientSecret,
		"redirect_uri":  c.RedirectURI,
	}
}

// SpotifyConfig tunes calls to the Spotify Web API. RequestTimeout bounds each outbound request.
type SpotifyConfig struct {
	RequestTimeout time.Duration `toml:"request_timeout"`
	TopLimit       int           `toml:"top_limit"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	CookieSecure       bool   `toml:"cookie_secure"`
	LoginRatePerMinute int    `toml:"login_rate_per_minute"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SessionConfig selects and configures the session token store.
type SessionConfig struct {
	Driver        string        `toml:"driver"`
	TTL           time.Duration `toml:"ttl"`
	RedisAddr     string        `toml:"redis_addr"`
	RedisPassword string        `toml:"redis_password"`
	RedisDB       int           `toml:"redis_db"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// StatsConfig decides the open questions of the statistics pipeline.
type StatsConfig struct {
	StrictMerge bool   `toml:"strict_merge"`
	GenreOrder  string `toml:"genre_order"`
	DefaultNum  int    `toml:"default_num"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Session store drivers.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides Spotify credentials with SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET and SPOTIFY_REDIRECT_URI when set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v := getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v := getenv("SPOTIFY_REDIRECT_URI"); v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
}

// Validate checks enumerated values and numeric ranges.
func (c *Config) Validate() error {
	switch c.Session.Driver {
	case DriverMemory, DriverSQLite, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown session driver %q", ErrInvalidConfig, c.Session.Driver)
	}

	switch c.Stats.GenreOrder {
	case "ascending", "descending":
	default:
		return fmt.Errorf("%w: unknown genre order %q", ErrInvalidConfig, c.Stats.GenreOrder)
	}

	if c.Spotify.TopLimit < 1 || c.Spotify.TopLimit > 50 {
		return fmt.Errorf("%w: spotify.top_limit must be between 1 and 50, got %d", ErrInvalidConfig, c.Spotify.TopLimit)
	}

	if c.Server.Port <= 0 {
		return fmt.Errorf("%w: server.port must be positive", ErrInvalidConfig)
	}

	return nil
}

// HasCredentials reports whether a Spotify client id and secret are configured.
func (c *Config) HasCredentials() bool {
	s := c.Credentials.Spotify
	return s.ClientID != "" && s.ClientSecret != ""
}
