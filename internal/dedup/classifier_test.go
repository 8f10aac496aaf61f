package dedup

import (
	"testing"
	"time"
)

var feb15 = time.Date(2026, 2, 15, 20, 0, 0, 0, time.UTC)

func testObs(source SourceName, artist, venue string, date time.Time) Observation {
	return NewObservation(source, artist, venue, date, 0, "")
}

func TestClassifySelfPair(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)
	o := testObs(SourceTicketmaster, "The Strokes", "Bowery Ballroom", feb15)

	r := c.Classify(&o, &o)
	if !r.IsMatch {
		t.Error("self-pair must match")
	}
	if r.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", r.Confidence)
	}
}

func TestClassifyMatch(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)
	a := testObs(SourceTicketmaster, "The Strokes", "Bowery Ballroom", feb15)
	b := testObs(SourceSeatGeek, "Strokes", "Bowery Ballrom", feb15.Add(2*time.Hour))

	r := c.Classify(&a, &b)
	if !r.IsMatch {
		t.Fatalf("expected match, got %+v", r)
	}
	if r.ArtistScore != 100 {
		t.Errorf("ArtistScore = %d, want 100", r.ArtistScore)
	}
	if r.VenueScore < 85 {
		t.Errorf("VenueScore = %d, want >= 85", r.VenueScore)
	}
	if r.Confidence != ConfidenceMedium {
		t.Errorf("Confidence = %q, want medium", r.Confidence)
	}
}

func TestClassifyArtistThresholdBoundary(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)

	// "golden oak" vs "golden oat": one edit over ten runes, exactly 90.
	a := testObs(SourceTicketmaster, "Golden Oak", "Warsaw", feb15)
	b := testObs(SourceSeatGeek, "Golden Oat", "Warsaw", feb15)
	if r := c.Classify(&a, &b); !r.IsMatch || r.ArtistScore != 90 {
		t.Errorf("similarity 90 must match on the artist dimension, got %+v", r)
	}

	// "parachute" vs "parachufe": one edit over nine runes, 89.
	a = testObs(SourceTicketmaster, "Parachute", "Warsaw", feb15)
	b = testObs(SourceSeatGeek, "Parachufe", "Warsaw", feb15)
	if r := c.Classify(&a, &b); r.IsMatch {
		t.Errorf("similarity 89 must not match, got %+v", r)
	} else if r.ArtistScore != 89 {
		t.Errorf("ArtistScore = %d, want 89", r.ArtistScore)
	}
}

func TestClassifyDifferentDays(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)
	a := testObs(SourceTicketmaster, "Big Thief", "Brooklyn Steel", feb15)
	b := testObs(SourceSeatGeek, "Big Thief", "Brooklyn Steel", feb15.AddDate(0, 0, 1))

	if r := c.Classify(&a, &b); r.IsMatch {
		t.Errorf("different calendar days must not match, got %+v", r)
	}
}

func TestClassifyReferenceZone(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)

	// 2026-02-16T03:00Z and 2026-02-15T18:00-05:00 fall on different UTC
	// days but the same New York day.
	a := testObs(SourceTicketmaster, "Big Thief", "Brooklyn Steel", time.Date(2026, 2, 16, 3, 0, 0, 0, time.UTC))
	b := testObs(SourceSeatGeek, "Big Thief", "Brooklyn Steel", time.Date(2026, 2, 15, 18, 0, 0, 0, est))

	utc := NewClassifier(DefaultThresholds(), time.UTC)
	if r := utc.Classify(&a, &b); r.IsMatch {
		t.Errorf("UTC reference zone: expected no match, got %+v", r)
	}

	local := NewClassifier(DefaultThresholds(), est)
	if r := local.Classify(&a, &b); !r.IsMatch {
		t.Errorf("EST reference zone: expected match, got %+v", r)
	}
}

func TestClassifyEmptyArtistNeverMatches(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)
	a := testObs(SourceTicketmaster, "!!!", "Warsaw", feb15) // normalizes to ""
	b := testObs(SourceSeatGeek, "???", "Warsaw", feb15)     // normalizes to ""

	if r := c.Classify(&a, &b); r.IsMatch {
		t.Errorf("empty normalized artists must never match, got %+v", r)
	}
}

func TestClassifyVenueKeyEquality(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)
	a := testObs(SourceTicketmaster, "Wilco", "Music Hall of Williamsburg", feb15)
	b := testObs(SourceSeatGeek, "Wilco", "MHOW", feb15)

	// Dissimilar venue strings fail on similarity alone.
	if r := c.Classify(&a, &b); r.IsMatch {
		t.Fatalf("expected venue similarity failure, got %+v", r)
	}

	// Resolving both to the same registry key satisfies the venue rule.
	b.VenueKey = a.VenueKey
	if r := c.Classify(&a, &b); !r.IsMatch {
		t.Errorf("shared venue key must match, got %+v", r)
	}
}

func TestClassifyConfidenceBuckets(t *testing.T) {
	c := NewClassifier(DefaultThresholds(), nil)

	// Identical strings on both dimensions: high.
	a := testObs(SourceTicketmaster, "Japanese Breakfast", "Elsewhere", feb15)
	b := testObs(SourceSeatGeek, "Japanese Breakfast", "Elsewhere", feb15)
	if r := c.Classify(&a, &b); r.Confidence != ConfidenceHigh {
		t.Errorf("Confidence = %q, want high", r.Confidence)
	}

	// Near-miss on the artist dimension: low, queued, not a match.
	a = testObs(SourceTicketmaster, "Parachute", "Elsewhere", feb15)
	b = testObs(SourceSeatGeek, "Parachufe", "Elsewhere", feb15)
	r := c.Classify(&a, &b)
	if r.IsMatch {
		t.Fatalf("near-miss must not match, got %+v", r)
	}
	if r.Confidence != ConfidenceLow {
		t.Errorf("Confidence = %q, want low", r.Confidence)
	}

	// Far miss: none.
	a = testObs(SourceTicketmaster, "Parachute", "Elsewhere", feb15)
	b = testObs(SourceSeatGeek, "Mitski", "Elsewhere", feb15)
	if r := c.Classify(&a, &b); r.Confidence != ConfidenceNone {
		t.Errorf("Confidence = %q, want none", r.Confidence)
	}
}
