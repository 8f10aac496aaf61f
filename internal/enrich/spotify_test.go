package enrich

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sonicsignal/sonicsignal/internal/source"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(srv *httptest.Server) *SpotifyClient {
	return NewSpotifyClientWithURLs("id", "secret", testLogger(), srv.URL, "")
}

func TestLookupArtistMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "artist" {
			t.Errorf("type = %q", got)
		}
		_, _ = w.Write([]byte(`{"artists": {"items": [
			{"id": "0epOFNiUfyON9EYx7Tpr6V", "name": "The Strokes", "popularity": 78,
			 "genres": ["garage rock", "indie rock"]}
		]}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).LookupArtist(context.Background(), "The Strokes")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if !res.Matched {
		t.Fatal("Matched = false, want true")
	}
	if res.CatalogID != "0epOFNiUfyON9EYx7Tpr6V" {
		t.Errorf("CatalogID = %q", res.CatalogID)
	}
	if res.Popularity != 78 {
		t.Errorf("Popularity = %d, want 78", res.Popularity)
	}
	if len(res.Genres) != 2 {
		t.Errorf("Genres = %v", res.Genres)
	}
}

func TestLookupArtistRejectsUnrelatedHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"artists": {"items": [
			{"id": "xyz", "name": "Taylor Swift", "popularity": 100, "genres": ["pop"]}
		]}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).LookupArtist(context.Background(), "Obscure Basement Act")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if res.Matched {
		t.Error("Matched = true for an unrelated search hit")
	}
}

func TestLookupArtistNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"artists": {"items": []}}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv).LookupArtist(context.Background(), "Nobody")
	if err != nil {
		t.Fatalf("LookupArtist: %v", err)
	}
	if res.Matched {
		t.Error("Matched = true with empty results")
	}
}

func TestLookupArtistUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).LookupArtist(context.Background(), "Anyone")
	var authErr *source.ErrAuthRequired
	if !errors.As(err, &authErr) {
		t.Fatalf("err = %v, want ErrAuthRequired", err)
	}
}

func TestLookupArtistServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).LookupArtist(context.Background(), "Anyone")
	var unavailable *source.ErrSourceUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
