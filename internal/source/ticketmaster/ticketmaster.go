// Package ticketmaster adapts the Ticketmaster Discovery v2 API to the
// source boundary.
package ticketmaster

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

const defaultBaseURL = "https://app.ticketmaster.com/discovery/v2"

const pageSize = 200

// Adapter implements source.Source for Ticketmaster.
type Adapter struct {
	client  *http.Client
	limiter *source.RateLimiterMap
	logger  *slog.Logger
	baseURL string
	apiKey  string
	loc     *time.Location
}

// New creates a Ticketmaster adapter with the default base URL. loc is
// the zone local dates are interpreted in; nil means UTC.
func New(apiKey string, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location) *Adapter {
	return NewWithBaseURL(apiKey, limiter, logger, loc, defaultBaseURL)
}

// NewWithBaseURL creates an adapter with a custom base URL (for testing).
func NewWithBaseURL(apiKey string, limiter *source.RateLimiterMap, logger *slog.Logger, loc *time.Location, baseURL string) *Adapter {
	if loc == nil {
		loc = time.UTC
	}
	return &Adapter{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
		logger:  logger.With(slog.String("source", "ticketmaster")),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		loc:     loc,
	}
}

// Name returns the source name.
func (a *Adapter) Name() source.Name { return source.NameTicketmaster }

// RequiresAuth returns whether this source needs an API key.
func (a *Adapter) RequiresAuth() bool { return true }

// FetchEvents fetches music events for a city within the window.
func (a *Adapter) FetchEvents(ctx context.Context, city string, window source.Window) ([]dedup.Observation, error) {
	if a.apiKey == "" {
		return nil, &source.ErrAuthRequired{Source: source.NameTicketmaster}
	}

	if err := a.limiter.Wait(ctx, source.NameTicketmaster); err != nil {
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameTicketmaster,
			Cause:  fmt.Errorf("rate limiter: %w", err),
		}
	}

	params := url.Values{
		"apikey":             {a.apiKey},
		"city":               {city},
		"classificationName": {"Music"},
		"startDateTime":      {window.From.UTC().Format("2006-01-02T15:04:05Z")},
		"endDateTime":        {window.To.UTC().Format("2006-01-02T15:04:05Z")},
		"size":               {strconv.Itoa(pageSize)},
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

	observations := make([]dedup.Observation, 0, len(resp.Embedded.Events))
	for _, ev := range resp.Embedded.Events {
		var venueName string
		capacity := 0
		if len(ev.Embedded.Venues) > 0 {
			venueName = ev.Embedded.Venues[0].Name
			capacity = ev.Embedded.Venues[0].Capacity
		}
		observations = append(observations, dedup.NewObservation(
			dedup.SourceTicketmaster,
			ev.Name,
			venueName,
			a.parseStart(ev.Dates.Start),
			capacity,
			ev.URL,
		))
	}

	a.logger.Debug("fetched events", slog.Int("count", len(observations)))
	return observations, nil
}

// parseStart turns a Discovery start block into a zone-aware instant.
// The UTC dateTime wins when present; otherwise the local date (and
// time, when reported) is interpreted in the adapter's zone. Unparseable
// input yields the zero time, which the resolver isolates.
func (a *Adapter) parseStart(s startDates) time.Time {
	if s.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, s.DateTime); err == nil {
			return t
		}
	}
	if s.LocalDate == "" {
		return time.Time{}
	}
	if s.LocalTime != "" {
		if t, err := time.ParseInLocation("2006-01-02 15:04:05", s.LocalDate+" "+s.LocalTime, a.loc); err == nil {
			return t
		}
	}
	t, err := time.ParseInLocation("2006-01-02", s.LocalDate, a.loc)
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
		return nil, &source.ErrSourceUnavailable{Source: source.NameTicketmaster, Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrAuthRequired{Source: source.NameTicketmaster}
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source:     source.NameTicketmaster,
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp),
		}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &source.ErrSourceUnavailable{
			Source: source.NameTicketmaster,
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	return io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
