package songkick

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWindow() source.Window {
	return source.Window{
		From: time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metro_areas/7644/calendar.json" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("apikey"); got != "test-key" {
			t.Errorf("apikey = %q", got)
		}
		if got := r.URL.Query().Get("min_date"); got != "2026-02-14" {
			t.Errorf("min_date = %q", got)
		}
		_, _ = w.Write([]byte(`{"resultsPage": {"status": "ok", "results": {"event": [
			{
				"displayName": "The Strokes at Bowery Ballroom",
				"uri": "https://sk.example/strokes",
				"start": {"date": "2026-02-15", "datetime": "2026-02-15T20:00:00-0500"},
				"venue": {"displayName": "Bowery Ballroom"},
				"performance": [
					{"displayName": "The Strokes", "billing": "headline"},
					{"displayName": "Opening Act", "billing": "support"}
				]
			},
			{
				"displayName": "TBA at Warsaw",
				"start": {"date": "2026-02-16"},
				"venue": {"displayName": "Warsaw"},
				"performance": []
			}
		]}}}`))
	}))
	defer srv.Close()

	a := NewWithBaseURL("test-key", 0, source.NewRateLimiterMap(), testLogger(), nil, srv.URL)
	obs, err := a.FetchEvents(context.Background(), "ignored", testWindow())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	if len(obs) != 2 {
		t.Fatalf("observations = %d, want 2", len(obs))
	}

	first := obs[0]
	if first.Source != dedup.SourceSongkick {
		t.Errorf("Source = %q", first.Source)
	}
	if first.ArtistNorm != "strokes" {
		t.Errorf("ArtistNorm = %q, want strokes", first.ArtistNorm)
	}
	want := time.Date(2026, 2, 15, 20, 0, 0, 0, time.FixedZone("", -5*60*60))
	if !first.EventDate.Equal(want) {
		t.Errorf("EventDate = %v, want %v", first.EventDate, want)
	}

	// No performance entries means no artist, which the resolver treats
	// as malformed.
	if obs[1].ArtistRaw != "" {
		t.Errorf("ArtistRaw = %q, want empty", obs[1].ArtistRaw)
	}
	if !obs[1].Malformed() {
		t.Error("observation without an artist must be malformed")
	}
}

func TestFetchEventsDateOnlyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"resultsPage": {"results": {"event": [
			{"start": {"date": "2026-02-15"},
			 "venue": {"displayName": "Brooklyn Steel"},
			 "performance": [{"displayName": "Mitski"}]}
		]}}}`))
	}))
	defer srv.Close()

	est := time.FixedZone("EST", -5*60*60)
	a := NewWithBaseURL("test-key", 0, source.NewRateLimiterMap(), testLogger(), est, srv.URL)
	obs, err := a.FetchEvents(context.Background(), "", testWindow())
	if err != nil {
		t.Fatalf("FetchEvents: %v", err)
	}
	want := time.Date(2026, 2, 15, 0, 0, 0, 0, est)
	if !obs[0].EventDate.Equal(want) {
		t.Errorf("EventDate = %v, want %v", obs[0].EventDate, want)
	}
}

func TestFetchEventsNoKey(t *testing.T) {
	a := New("", 0, source.NewRateLimiterMap(), testLogger(), nil)
	_, err := a.FetchEvents(context.Background(), "", testWindow())

	var authErr *source.ErrAuthRequired
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestFetchEventsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := NewWithBaseURL("test-key", 0, source.NewRateLimiterMap(), testLogger(), nil, srv.URL)
	_, err := a.FetchEvents(context.Background(), "", testWindow())

	var unavailable *source.ErrSourceUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
