package dedup

import (
	"time"

	"github.com/sonicsignal/sonicsignal/internal/similarity"
)

// Confidence buckets a match decision for audit and review surfacing.
// It never feeds back into the match decision itself.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	// ConfidenceLow marks a near-miss: not a match, but close enough to
	// every threshold that it belongs in the review queue instead of
	// being silently discarded.
	ConfidenceLow  Confidence = "low"
	ConfidenceNone Confidence = "none"
)

// Thresholds are the tunable matching policy points. The similarity
// cutoffs trade precision against recall; High and NearMiss only shape
// the audit buckets.
type Thresholds struct {
	Artist   int `yaml:"artist" json:"artist"`
	Venue    int `yaml:"venue" json:"venue"`
	High     int `yaml:"high" json:"high"`
	NearMiss int `yaml:"near_miss" json:"near_miss"`
}

// DefaultThresholds returns the matching policy validated against the
// sample corpus: artist 90, venue 85, high-confidence 97, 10-point
// near-miss margin.
func DefaultThresholds() Thresholds {
	return Thresholds{Artist: 90, Venue: 85, High: 97, NearMiss: 10}
}

// Result is the outcome of classifying one observation pair.
type Result struct {
	IsMatch     bool       `json:"is_match"`
	Confidence  Confidence `json:"confidence"`
	ArtistScore int        `json:"artist_score"`
	VenueScore  int        `json:"venue_score"`
}

// Classifier decides whether two observations describe the same
// real-world event.
type Classifier struct {
	thresholds Thresholds
	loc        *time.Location
}

// NewClassifier creates a classifier with the given policy and reference
// zone for calendar-day comparison. A nil location means UTC.
func NewClassifier(t Thresholds, loc *time.Location) *Classifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Classifier{thresholds: t, loc: loc}
}

// Thresholds returns the classifier's policy.
func (c *Classifier) Thresholds() Thresholds { return c.thresholds }

// Location returns the reference zone used for day comparison.
func (c *Classifier) Location() *time.Location { return c.loc }

// Classify applies the field-level rules to a pair of observations.
// All three dimensions must hold for a match: artist similarity at or
// above the artist threshold (and neither artist empty), venue key
// equality or venue similarity at or above the venue threshold, and the
// same calendar day in the reference zone.
func (c *Classifier) Classify(a, b *Observation) Result {
	if a == b {
		return Result{IsMatch: true, Confidence: ConfidenceHigh, ArtistScore: 100, VenueScore: 100}
	}

	sameDay := !a.EventDate.IsZero() && !b.EventDate.IsZero() && a.Day(c.loc) == b.Day(c.loc)

	artistScore := 0
	if a.ArtistNorm != "" && b.ArtistNorm != "" {
		artistScore = similarity.TokenSortRatio(a.ArtistNorm, b.ArtistNorm)
	}
	artistOK := artistScore >= c.thresholds.Artist && a.ArtistNorm != "" && b.ArtistNorm != ""

	venueScore := 0
	if a.VenueNorm != "" && b.VenueNorm != "" {
		venueScore = similarity.TokenSortRatio(a.VenueNorm, b.VenueNorm)
	}
	venueOK := (a.VenueKey != "" && a.VenueKey == b.VenueKey) ||
		(venueScore >= c.thresholds.Venue && a.VenueNorm != "" && b.VenueNorm != "")

	r := Result{ArtistScore: artistScore, VenueScore: venueScore}

	if artistOK && venueOK && sameDay {
		r.IsMatch = true
		if artistScore >= c.thresholds.High && venueScore >= c.thresholds.High {
			r.Confidence = ConfidenceHigh
		} else {
			r.Confidence = ConfidenceMedium
		}
		return r
	}

	if c.nearMiss(a, b, artistScore, venueScore, sameDay) {
		r.Confidence = ConfidenceLow
	} else {
		r.Confidence = ConfidenceNone
	}
	return r
}

// nearMiss reports whether a failed pair is close enough to the policy
// thresholds to warrant manual review: same day, both names present, and
// every similarity within the NearMiss margin of its threshold.
func (c *Classifier) nearMiss(a, b *Observation, artistScore, venueScore int, sameDay bool) bool {
	if !sameDay {
		return false
	}
	if a.ArtistNorm == "" || b.ArtistNorm == "" || a.VenueNorm == "" || b.VenueNorm == "" {
		return false
	}
	return artistScore >= c.thresholds.Artist-c.thresholds.NearMiss &&
		venueScore >= c.thresholds.Venue-c.thresholds.NearMiss
}
