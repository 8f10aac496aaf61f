package dedup

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// eventNamespace seeds the deterministic event IDs. Fixed forever:
// changing it would re-key every stored event.
var eventNamespace = uuid.MustParse("9f2c1b44-7a0e-4a5a-9c36-52cf0ee81d8a")

// EventID derives the stable identity of a canonical event from its
// natural key. Repeated harvest cycles converge on the same ID instead
// of creating duplicates across runs.
func EventID(artistKey, venueKey, day string) string {
	return uuid.NewSHA1(eventNamespace, []byte(artistKey+"|"+venueKey+"|"+day)).String()
}

// CanonicalEvent is the deduplicated, merged representation of one
// real-world event. ArtistKey and VenueKey are lookup keys into the
// artist and venue registries; the event does not own those entities.
type CanonicalEvent struct {
	ID        string    `json:"id"`
	ArtistKey string    `json:"artist_ref"`
	VenueKey  string    `json:"venue_ref"`
	Date      time.Time `json:"date"`
	Day       string    `json:"day"`

	// Sources grows monotonically as re-harvesting discovers the event
	// from additional providers. Never shrinks, never empty.
	Sources []SourceName `json:"sources"`

	TicketURL     string `json:"ticket_url,omitempty"`
	VenueCapacity int    `json:"venue_capacity,omitempty"`

	// CurationScore is meaningful only when Scored is true. A 0.0 with
	// Scored set means the artist could not be enriched, not a low score.
	CurationScore float64 `json:"curation_score"`
	Scored        bool    `json:"scored"`
}

// HasSource reports whether the given source already contributed.
func (e *CanonicalEvent) HasSource(s SourceName) bool {
	for _, have := range e.Sources {
		if have == s {
			return true
		}
	}
	return false
}

// AddSources unions the given tags into the event's source set, keeping
// the set sorted for deterministic output.
func (e *CanonicalEvent) AddSources(sources ...SourceName) {
	for _, s := range sources {
		if !e.HasSource(s) {
			e.Sources = append(e.Sources, s)
		}
	}
	sort.Slice(e.Sources, func(i, j int) bool { return e.Sources[i] < e.Sources[j] })
}

// surrogate builds a comparison stand-in for cross-run matching of new
// clusters against already-stored events.
func (e *CanonicalEvent) surrogate() *Observation {
	return &Observation{
		ArtistRaw:  e.ArtistKey,
		VenueRaw:   e.VenueKey,
		ArtistNorm: e.ArtistKey,
		VenueNorm:  e.VenueKey,
		VenueKey:   e.VenueKey,
		EventDate:  e.Date,
	}
}
