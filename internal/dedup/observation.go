// Package dedup collapses event observations reported by independent
// sources into canonical events. The matching policy is pairwise and
// greedy: deterministic for identical input, tunable via Thresholds.
package dedup

import (
	"time"

	"github.com/sonicsignal/sonicsignal/internal/normalize"
)

// SourceName identifies an external event source.
type SourceName string

// Known sources, in fixed harvest order.
const (
	SourceTicketmaster SourceName = "ticketmaster"
	SourceSeatGeek     SourceName = "seatgeek"
	SourceSongkick     SourceName = "songkick"
)

// Observation is one source's report of one event occurrence. Created
// once per fetch cycle by a source adapter and immutable afterwards; the
// resolver consumes and discards it.
type Observation struct {
	Source    SourceName `json:"source"`
	ArtistRaw string     `json:"artist_raw"`
	VenueRaw  string     `json:"venue_raw"`

	// Derived from the raw fields at construction, never hand-edited.
	ArtistNorm string `json:"artist_normalized"`
	VenueNorm  string `json:"venue_normalized"`

	// VenueKey is the alias-resolved registry key for the venue. Set by
	// the resolver; equals VenueNorm until an alias substitutes it.
	VenueKey string `json:"venue_key,omitempty"`

	// EventDate is the zone-aware instant the source reported. Matching
	// compares calendar days only; the full instant is kept for display.
	EventDate time.Time `json:"event_date"`

	// VenueCapacity is 0 when the source does not report one.
	VenueCapacity int `json:"venue_capacity,omitempty"`

	// TicketURL is informational only, never used in matching.
	TicketURL string `json:"ticket_url,omitempty"`
}

// NewObservation builds an Observation, deriving the normalized fields.
func NewObservation(source SourceName, artistRaw, venueRaw string, eventDate time.Time, capacity int, ticketURL string) Observation {
	venueNorm := normalize.Venue(venueRaw)
	return Observation{
		Source:        source,
		ArtistRaw:     artistRaw,
		VenueRaw:      venueRaw,
		ArtistNorm:    normalize.Artist(artistRaw),
		VenueNorm:     venueNorm,
		VenueKey:      venueNorm,
		EventDate:     eventDate,
		VenueCapacity: capacity,
		TicketURL:     ticketURL,
	}
}

// Malformed reports whether the observation is unusable for matching:
// missing artist or venue text, or no parseable date. Malformed
// observations are isolated as singletons, never matched.
func (o *Observation) Malformed() bool {
	return o.ArtistNorm == "" || o.VenueNorm == "" || o.EventDate.IsZero()
}

// Day returns the calendar day of the event in the given reference zone,
// formatted as YYYY-MM-DD. Sources report in different zones, so both
// sides of a comparison must be shifted into the same zone first.
func (o *Observation) Day(loc *time.Location) string {
	return o.EventDate.In(loc).Format(time.DateOnly)
}
