package registry

import (
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/sonicsignal/sonicsignal/internal/curation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLookupOrCreateArtist(t *testing.T) {
	r := New(testLogger(), nil)

	a := r.LookupOrCreateArtist("strokes", "The Strokes")
	if a.Name != "strokes" || a.DisplayName != "The Strokes" {
		t.Errorf("unexpected entry: %+v", a)
	}
	if a.Enriched() {
		t.Error("fresh entry must not be marked enriched")
	}

	// Second lookup returns the same entry, not a fresh one.
	b := r.LookupOrCreateArtist("strokes", "Strokes")
	if b.DisplayName != "The Strokes" {
		t.Errorf("DisplayName = %q, want first-seen display name", b.DisplayName)
	}
	if len(r.Artists()) != 1 {
		t.Errorf("Artists() = %d entries, want 1", len(r.Artists()))
	}
}

func TestLookupOrCreateArtistConcurrent(t *testing.T) {
	r := New(testLogger(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.LookupOrCreateArtist("mitski", "Mitski")
		}()
	}
	wg.Wait()

	if got := len(r.Artists()); got != 1 {
		t.Errorf("Artists() = %d entries, want 1", got)
	}
}

func TestVenueCapacityAndTier(t *testing.T) {
	r := New(testLogger(), nil)

	v := r.LookupOrCreateVenue("bowery ballroom", "Bowery Ballroom", 575)
	if v.Capacity != 575 {
		t.Errorf("Capacity = %d, want 575", v.Capacity)
	}
	if v.Tier != curation.TierClub {
		t.Errorf("Tier = %q, want club", v.Tier)
	}

	// Zero capacity leaves the venue unknown-tier.
	w := r.LookupOrCreateVenue("warsaw", "Warsaw", 0)
	if w.Tier != curation.TierUnknown {
		t.Errorf("Tier = %q, want unknown", w.Tier)
	}
}

func TestVenueCapacityConflictLaterWins(t *testing.T) {
	r := New(testLogger(), nil)

	r.LookupOrCreateVenue("webster hall", "Webster Hall", 1500)
	r.SetVenueCapacity("webster hall", 1400)

	v, ok := r.Venue("webster hall")
	if !ok {
		t.Fatal("venue missing")
	}
	if v.Capacity != 1400 {
		t.Errorf("Capacity = %d, want later-seen 1400", v.Capacity)
	}
	if v.Tier != curation.TierClub {
		t.Errorf("Tier = %q, want club after update", v.Tier)
	}
}

func TestVenueAliases(t *testing.T) {
	r := New(testLogger(), nil)

	r.LookupOrCreateVenue("bowery ballroom", "Bowery Ballroom", 575)
	r.LearnVenueAlias("bowery ballrom", "bowery ballroom")

	got, ok := r.ResolveVenueAlias("bowery ballrom")
	if !ok || got != "bowery ballroom" {
		t.Errorf("ResolveVenueAlias = %q, %v", got, ok)
	}

	// Learning is first-writer-wins and self-aliases are ignored.
	r.LearnVenueAlias("bowery ballrom", "somewhere else")
	if got, _ := r.ResolveVenueAlias("bowery ballrom"); got != "bowery ballroom" {
		t.Errorf("alias overwritten: %q", got)
	}
	r.LearnVenueAlias("warsaw", "warsaw")
	if _, ok := r.ResolveVenueAlias("warsaw"); ok {
		t.Error("self-alias must not be recorded")
	}

	v, _ := r.Venue("bowery ballroom")
	if len(v.Aliases) != 1 || v.Aliases[0] != "bowery ballrom" {
		t.Errorf("Aliases = %v", v.Aliases)
	}
}

func TestSetArtistEnrichment(t *testing.T) {
	r := New(testLogger(), nil)
	r.LookupOrCreateArtist("strokes", "The Strokes")

	r.SetArtistEnrichment("strokes", true, 70, []string{"indie rock"}, "0epOFNiUfyON9EYx7Tpr6V")

	a, _ := r.Artist("strokes")
	if !a.Matched || a.Popularity != 70 || a.SpotifyID == "" {
		t.Errorf("enrichment not applied: %+v", a)
	}
	if !a.Enriched() {
		t.Error("Enriched() = false after attempt")
	}

	// An unmatched attempt keeps zero defaults but stamps the attempt.
	r.LookupOrCreateArtist("obscure band", "Obscure Band")
	r.SetArtistEnrichment("obscure band", false, 0, nil, "")
	b, _ := r.Artist("obscure band")
	if b.Matched || b.Popularity != 0 {
		t.Errorf("unmatched enrichment mutated defaults: %+v", b)
	}
	if !b.Enriched() {
		t.Error("unmatched attempt must still be recorded")
	}
}
