// Package songkick adapts the Songkick metro-area calendar API to the
// source boundary.
package songkick

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/source"
)

const defaultBaseURL = "https://api.songkick.com/api/3.0"

// DefaultMetroID is the Songkick metro area for New York City.
const DefaultMetroID = 7644

// Adapter implements source.Source for Songkick. Songkick queries by
// metro area, not city name; the city argument to FetchEvents is
// ignored in favor of the configured metro ID.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	apiKey  string
	metroID int
	loc     *time.Location
}

// New creates a Songkick adapter with the default base URL.
func New(apiKey string, metroID int, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location) *Adapter {
	return NewWithBaseURL(apiKey, metroID, limiter, logger, loc, defaultBaseURL)
}

// NewWithBaseURL creates an adapter with a custom base URL (for testing).
func NewWithBaseURL(apiKey string, metroID int, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location, baseURL string) *Adapter {
	if metroID == 0 {
		metroID = DefaultMetroID
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "songkick")),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		metroID: metroID,
		loc:     loc,
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameSongkick }

// RequiresAuth returns whether this source needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// FetchEvents fetches the metro-area calendar within the window.
func (a *Adapter) FetchEvents(ctx context.Context, _ string, window source.Window) ([]dedup.Observation, error) {
	if a.apiKey == "" {
		return nil, &source.ErrAuthRequired{Source: source.NameSongkick}
	}

	if err := a.limiter.Wait(ctx, source.NameSongkick); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameSongkick,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"apikey":   {a.apiKey},
		"min_date": {window.From.In(a.loc).Format(time.DateOnly)},
		"max_date": {window.To.In(a.loc).Format(time.DateOnly)},
	}
	reqURL := fmt.Sprintf("%s/metro_areas/%d/calendar.json?%s", a.baseURL, a.metroID, params.Encode())

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp calendarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing calendar response: %w", err)
	}

	observations := make([]dedup.Observation, 0, len(resp.ResultsPage.Results.Event))
	for _, ev := range resp.ResultsPage.Results.Event {
		var artist string
		if len(ev.Performance) > 0 {
			artist = ev.Performance[0].DisplayName
		}
		observations = append(observations, dedup.NewObservation(
			dedup.SourceSongkick,
			artist,
			ev.Venue.DisplayName,
			a.parseStart(ev.Start),
			0, // Songkick does not report venue capacity
			ev.URI,
		))
	}

	a.logger.Debug("fetched events", slog.Int("count", len(observations)))
	return observations, nil
}

// parseStart prefers the full datetime (which carries an offset),
// falling back to the bare date in the adapter's zone.
func (a *Adapter) parseStart(s startBlock) time.Time {
	if s.Datetime != "" {
		if t, err := time.Parse("2006-01-02T15:04:05-0700", s.Datetime); err == nil {
			return t
		}
	}
	if s.Date == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation("2006-01-02", s.Date, a.loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameSongkick, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrAuthRequired{Source: source.NameSongkick}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameSongkick,
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}
