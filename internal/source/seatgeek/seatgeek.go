// Package seatgeek adapts the SeatGeek events API to the source
// boundary.
package seatgeek

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/source"
)

const defaultBaseURL = "https://api.seatgeek.com/2"

const pageSize = 100

// Adapter implements source.Source for SeatGeek.
type Adapter struct {
	client   *http.Client
	limiter  *source.RateLimiterMap
	logger   *slog.Logger
	baseURL  string
	clientID string
	loc      *time.Location
}

// New creates a SeatGeek adapter with the default base URL.
func New(clientID string, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location) *Adapter {
	return NewWithBaseURL(clientID, limiter, logger, loc, defaultBaseURL)
}

// NewWithBaseURL creates an adapter with a custom base URL (for testing).
func NewWithBaseURL(clientID string, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location, baseURL string) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  limiter,
		logger:   logger.With(slog.String("source", "seatgeek")),
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		loc:      loc,
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameSeatGeek }

// RequiresAuth returns whether this source needs credentials.
func (a *Adapter) RequiresAuth() bool { return true }

// FetchEvents fetches concert observations for a city within the window.
func (a *Adapter) FetchEvents(ctx context.Context, city string, window source.Window) ([]dedup.Observation, error) {
	if a.clientID == "" {
		return nil, &source.ErrAuthRequired{Source: source.NameSeatGeek}
	}

	if err := a.limiter.Wait(ctx, source.NameSeatGeek); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameSeatGeek,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"client_id":        {a.clientID},
		"venue.city":       {city},
		"taxonomies.name":  {"concert"},
		"datetime_utc.gte": {window.From.UTC().Format("2006-01-02T15:04:05")},
		"datetime_utc.lte": {window.To.UTC().Format("2006-01-02T15:04:05")},
		"per_page":         {strconv.Itoa(pageSize)},
	}
	reqURL := a.baseURL + "/events?" + params.Encode()

	body, err := a.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var resp eventsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsing events response: %w", err)
	}

	observations := make([]dedup.Observation, 0, len(resp.Events))
	for _, ev := range resp.Events {
		// SeatGeek titles read "Artist at Venue"; the primary performer
		// is the artist name proper.
		artist := ev.Title
		for _, p := range ev.Performers {
			if p.Primary {
				artist = p.Name
				break
			}
		}
		observations = append(observations, dedup.NewObservation(
			dedup.SourceSeatGeek,
			artist,
			ev.Venue.Name,
			a.parseDatetime(ev),
			0, // SeatGeek does not report venue capacity
			ev.URL,
		))
	}

	a.logger.Debug("fetched events", slog.Int("count", len(observations)))
	return observations, nil
}

// parseDatetime prefers the UTC timestamp, falling back to the venue's
// local one interpreted in the adapter's zone.
func (a *Adapter) parseDatetime(ev apiEvent) time.Time {
	if ev.DatetimeUTC != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", ev.DatetimeUTC); err == nil {
			return t.UTC()
		}
	}
	if ev.DatetimeLocal != "" {
		if t, err := time.ParseInLocation("2006-01-02T15:04:05", ev.DatetimeLocal, a.loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func (a *Adapter) doRequest(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &source.ErrSourceUnavailable{Source: source.NameSeatGeek, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrAuthRequired{Source: source.NameSeatGeek}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameSeatGeek,
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}
