// Package enrich looks up artists in the Spotify catalog and turns
// popularity plus venue capacity into curation scores.
package enrich

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

	"golang.org/x/oauth2/clientcredentials"

	"github.com/sonicsignal/sonicsignal/internal/normalize"
	"github.com/sonicsignal/sonicsignal/internal/similarity"
	"github.com/sonicsignal/sonicsignal/internal/source"
)

const (
	defaultAPIURL   = "https://api.spotify.com/v1"
	defaultTokenURL = "https://accounts.spotify.com/api/token"

	// matchThreshold guards against the search returning a popular but
	// unrelated act for an obscure query.
	matchThreshold = 90
)

// Result is the outcome of one catalog lookup. Matched false means the
// catalog had no convincing entry; the other fields are then zero.
type Result struct {
	Matched    bool
	CatalogID  string
	Popularity int
	Genres     []string
}

// Client is the catalog lookup boundary the enricher depends on.
type Client interface {
	LookupArtist(ctx context.Context, name string) (Result, error)
}

// SpotifyClient queries the Spotify Web API with client-credentials
// auth. Tokens are acquired and refreshed by the oauth2 transport.
type SpotifyClient struct {
	client *http.Client
	logger *slog.Logger
	apiURL string
}

// NewSpotifyClient creates a client against the production endpoints.
func NewSpotifyClient(clientID, clientSecret string, logger *slog.Logger) *SpotifyClient {
	return NewSpotifyClientWithURLs(clientID, clientSecret, logger, defaultAPIURL, defaultTokenURL)
}

// NewSpotifyClientWithURLs creates a client with custom endpoints (for
// testing). An empty tokenURL skips the oauth2 transport so tests can
// serve the API without standing up a token endpoint.
func NewSpotifyClientWithURLs(clientID, clientSecret string, logger *slog.Logger, apiURL, tokenURL string) *SpotifyClient {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if tokenURL != "" {
		conf := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		}
		httpClient = conf.Client(context.Background())
		httpClient.Timeout = 30 * time.Second
	}
	return &SpotifyClient{
		client: httpClient,
		logger: logger.With(slog.String("component", "spotify")),
		apiURL: strings.TrimRight(apiURL, "/"),
	}
}

type searchResponse struct {
	Artists struct {
		Items []struct {
			ID         string   `json:"id"`
			Name       string   `json:"name"`
			Popularity int      `json:"popularity"`
			Genres     []string `json:"genres"`
		} `json:"items"`
	} `json:"artists"`
}

// LookupArtist searches the catalog for the artist and accepts the top
// hit only when its normalized name is close enough to the query.
func (c *SpotifyClient) LookupArtist(ctx context.Context, name string) (Result, error) {
	params := url.Values{
		"q":     {name},
		"type":  {"artist"},
		"limit": {"5"},
	}
	reqURL := c.apiURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &source.ErrSourceUnavailable{Source: "spotify", Cause: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &source.ErrAuthRequired{Source: "spotify"}
	case resp.StatusCode == http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &source.ErrSourceUnavailable{
			Source:     "spotify",
			Cause:      fmt.Errorf("HTTP %d", resp.StatusCode),
			RetryAfter: retryAfter(resp),
		}
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &source.ErrSourceUnavailable{
			Source: "spotify",
			Cause:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return Result{}, fmt.Errorf("reading response: %w", err)
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return Result{}, fmt.Errorf("parsing search response: %w", err)
	}

	want := normalize.Artist(name)
	for _, item := range sr.Artists.Items {
		got := normalize.Artist(item.Name)
		if got == want || similarity.TokenSortRatio(got, want) >= matchThreshold {
			return Result{
				Matched:    true,
				CatalogID:  item.ID,
				Popularity: item.Popularity,
				Genres:     item.Genres,
			}, nil
		}
	}

	c.logger.Debug("no catalog match", slog.String("artist", name))
	return Result{}, nil
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
