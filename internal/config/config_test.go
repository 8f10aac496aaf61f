package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Harvest.City != "New York" {
		t.Errorf("City = %q", cfg.Harvest.City)
	}
	if cfg.Matching.ArtistThreshold != 90 || cfg.Matching.VenueThreshold != 85 {
		t.Errorf("thresholds = %+v", cfg.Matching)
	}
	if time.Duration(cfg.Harvest.Interval) != 24*time.Hour {
		t.Errorf("Interval = %v", cfg.Harvest.Interval)
	}
	if cfg.Location() != time.UTC {
		t.Errorf("Location = %v, want UTC", cfg.Location())
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9090
harvest:
  city: Chicago
  interval: 6h
  timezone: America/Chicago
matching:
  artist_threshold: 92
sources:
  ticketmaster_api_key: tm-key
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Harvest.City != "Chicago" {
		t.Errorf("City = %q", cfg.Harvest.City)
	}
	if time.Duration(cfg.Harvest.Interval) != 6*time.Hour {
		t.Errorf("Interval = %v", cfg.Harvest.Interval)
	}
	if cfg.Matching.ArtistThreshold != 92 {
		t.Errorf("ArtistThreshold = %d", cfg.Matching.ArtistThreshold)
	}
	// Untouched sections keep their defaults.
	if cfg.Matching.VenueThreshold != 85 {
		t.Errorf("VenueThreshold = %d, want default 85", cfg.Matching.VenueThreshold)
	}
	if cfg.Sources.TicketmasterAPIKey != "tm-key" {
		t.Errorf("TicketmasterAPIKey = %q", cfg.Sources.TicketmasterAPIKey)
	}
	if cfg.Location().String() != "America/Chicago" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	t.Setenv("SS_PORT", "7070")
	t.Setenv("SS_SPOTIFY_CLIENT_ID", "spotify-id")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Spotify.ClientID != "spotify-id" {
		t.Errorf("ClientID = %q", cfg.Spotify.ClientID)
	}
}

func TestValidation(t *testing.T) {
	t.Setenv("SS_PORT", "0")
	if _, err := Load(""); err == nil {
		t.Error("Load accepted port 0")
	}
	t.Setenv("SS_PORT", "8080")

	t.Setenv("SS_TIMEZONE", "Mars/Olympus")
	if _, err := Load(""); err == nil {
		t.Error("Load accepted unknown timezone")
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want default", cfg.Server.Port)
	}
}
