// Package curation ranks events by how much of a hidden gem they are:
// the score rewards low-popularity artists playing small rooms.
package curation

// Tier is a coarse venue-size bucket used for filtering.
type Tier string

// Capacity tiers. Boundaries are inclusive on the lower bound.
const (
	TierIntimate Tier = "intimate" // < 300
	TierClub     Tier = "club"     // 300-1499
	TierHall     Tier = "hall"     // 1500-4999
	TierArena    Tier = "arena"    // >= 5000
	TierUnknown  Tier = "unknown"  // capacity not reported
)

// Score maps Spotify popularity and venue capacity to a ranking score.
// Returns exactly 0.0 when either input is zero, the sentinel for "not
// enrichable"; the formula cannot produce 0.0 for positive inputs, so
// consumers track scored-vs-unscored with a separate flag, never by
// score value. Negative input is caller error, not a handled condition.
func Score(artistPopularity, venueCapacity int) float64 {
	if artistPopularity <= 0 || venueCapacity <= 0 {
		return 0.0
	}
	return (100.0 / float64(artistPopularity)) * (1000.0 / float64(venueCapacity))
}

// TierFor buckets a venue capacity. Zero or negative capacity means the
// source never reported one.
func TierFor(capacity int) Tier {
	switch {
	case capacity <= 0:
		return TierUnknown
	case capacity < 300:
		return TierIntimate
	case capacity < 1500:
		return TierClub
	case capacity < 5000:
		return TierHall
	default:
		return TierArena
	}
}

// ValidTier reports whether s names a known tier.
func ValidTier(s string) bool {
	switch Tier(s) {
	case TierIntimate, TierClub, TierHall, TierArena, TierUnknown:
		return true
	}
	return false
}
