// Package registry owns the artist and venue registries: the enrichment
// data canonical events reference by normalized name. Lookup-or-create
// is atomic so concurrent resolution passes never race on insertion.
package registry

import (
	"encoding/json"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/curation"
)

// Artist is a registry entry keyed by normalized name. Events hold the
// key, not the entry.
type Artist struct {
	Name        string   `json:"name"` // normalized, registry key
	DisplayName string   `json:"display_name"`
	SpotifyID   string   `json:"spotify_id,omitempty"`
	Popularity  int      `json:"popularity"`
	Genres      []string `json:"genres,omitempty"`

	// Matched is false when enrichment found no catalog entry; the
	// artist stays visible but is excluded from curated output.
	Matched    bool       `json:"matched"`
	EnrichedAt *time.Time `json:"enriched_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enriched reports whether an enrichment attempt has been recorded,
// successful or not.
func (a *Artist) Enriched() bool { return a.EnrichedAt != nil }

// Venue is a registry entry keyed by normalized name, accumulating
// aliases as new raw spellings are seen matching it above threshold.
type Venue struct {
	Name        string        `json:"name"` // normalized, registry key
	DisplayName string        `json:"display_name"`
	Capacity    int           `json:"capacity"`
	Tier        curation.Tier `json:"tier"`
	Aliases     []string      `json:"aliases,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MarshalStringSlice encodes a string slice as a JSON array string for
// storage in a TEXT column.
func MarshalStringSlice(s []string) string {
	if s == nil {
		return "[]"
	}
	data, _ := json.Marshal(s)
	return string(data)
}

// UnmarshalStringSlice decodes a JSON array string into a string slice.
func UnmarshalStringSlice(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var result []string
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil
	}
	return result
}
