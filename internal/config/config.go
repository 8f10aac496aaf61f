// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry values like "24h".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration string form.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Harvest  HarvestConfig  `yaml:"harvest"`
	Matching MatchingConfig `yaml:"matching"`
	Sources  SourcesConfig  `yaml:"sources"`
	Spotify  SpotifyConfig  `yaml:"spotify"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// HarvestConfig holds harvest cycle settings.
type HarvestConfig struct {
	City       string   `yaml:"city"`
	Interval   Duration `yaml:"interval"`
	WindowDays int      `yaml:"window_days"`
	// Timezone is the reference zone for same-day comparison, an IANA
	// name like America/New_York. Empty means UTC.
	Timezone string `yaml:"timezone"`
}

// MatchingConfig holds the duplicate-classification thresholds.
type MatchingConfig struct {
	ArtistThreshold int `yaml:"artist_threshold"`
	VenueThreshold  int `yaml:"venue_threshold"`
	HighThreshold   int `yaml:"high_threshold"`
	NearMissMargin  int `yaml:"near_miss_margin"`
}

// SourcesConfig holds per-source credentials.
type SourcesConfig struct {
	TicketmasterAPIKey string `yaml:"ticketmaster_api_key"`
	SeatGeekClientID   string `yaml:"seatgeek_client_id"`
	SongkickAPIKey     string `yaml:"songkick_api_key"`
	SongkickMetroID    int    `yaml:"songkick_metro_id"`
}

// SpotifyConfig holds enrichment credentials.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	FilePath string `yaml:"file_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
		},
		Database: DatabaseConfig{
			Path: "/data/sonicsignal.db",
		},
		Harvest: HarvestConfig{
			City:       "New York",
			Interval:   Duration(24 * time.Hour),
			WindowDays: 60,
		},
		Matching: MatchingConfig{
			ArtistThreshold: 90,
			VenueThreshold:  85,
			HighThreshold:   97,
			NearMissMargin:  10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("SS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SS_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("SS_CITY"); v != "" {
		c.Harvest.City = v
	}
	if v := os.Getenv("SS_HARVEST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Harvest.Interval = Duration(d)
		}
	}
	if v := os.Getenv("SS_WINDOW_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			c.Harvest.WindowDays = days
		}
	}
	if v := os.Getenv("SS_TIMEZONE"); v != "" {
		c.Harvest.Timezone = v
	}
	if v := os.Getenv("SS_TICKETMASTER_API_KEY"); v != "" {
		c.Sources.TicketmasterAPIKey = v
	}
	if v := os.Getenv("SS_SEATGEEK_CLIENT_ID"); v != "" {
		c.Sources.SeatGeekClientID = v
	}
	if v := os.Getenv("SS_SONGKICK_API_KEY"); v != "" {
		c.Sources.SongkickAPIKey = v
	}
	if v := os.Getenv("SS_SONGKICK_METRO_ID"); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Sources.SongkickMetroID = id
		}
	}
	if v := os.Getenv("SS_SPOTIFY_CLIENT_ID"); v != "" {
		c.Spotify.ClientID = v
	}
	if v := os.Getenv("SS_SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SS_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("SS_LOG_FILE"); v != "" {
		c.Logging.FilePath = v
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}
	if c.Harvest.City == "" {
		return fmt.Errorf("harvest city is required")
	}
	if c.Harvest.WindowDays < 0 {
		return fmt.Errorf("invalid window_days: %d", c.Harvest.WindowDays)
	}
	for name, v := range map[string]int{
		"artist_threshold": c.Matching.ArtistThreshold,
		"venue_threshold":  c.Matching.VenueThreshold,
		"high_threshold":   c.Matching.HighThreshold,
	} {
		if v < 1 || v > 100 {
			return fmt.Errorf("invalid %s: %d", name, v)
		}
	}
	if c.Matching.NearMissMargin < 0 {
		return fmt.Errorf("invalid near_miss_margin: %d", c.Matching.NearMissMargin)
	}
	if c.Harvest.Timezone != "" {
		if _, err := time.LoadLocation(c.Harvest.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", c.Harvest.Timezone, err)
		}
	}
	return nil
}

// Location resolves the configured reference timezone, defaulting to
// UTC. Call after Load; validation already checked the name.
func (c *Config) Location() *time.Location {
	if c.Harvest.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Harvest.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
