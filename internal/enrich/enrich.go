package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/sonicsignal/sonicsignal/internal/curation"
	"github.com/sonicsignal/sonicsignal/internal/event"
	"github.com/sonicsignal/sonicsignal/internal/registry"
	"github.com/sonicsignal/sonicsignal/internal/source"
	"github.com/sonicsignal/sonicsignal/internal/store"
)

// Enricher fills in catalog data for registry artists and derives
// curation scores for stored events. Both passes are idempotent;
// already-enriched artists and already-scored events are skipped.
type Enricher struct {
	client   Client
	registry *registry.Registry
	store    *store.Service
	bus      *event.Bus
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New creates an enricher. bus may be nil.
func New(client Client, reg *registry.Registry, st *store.Service, bus *event.Bus, logger *slog.Logger) *Enricher {
	return &Enricher{
		client:   client,
		registry: reg,
		store:    st,
		bus:      bus,
		limiter:  rate.NewLimiter(rate.Limit(10), 1),
		logger:   logger.With(slog.String("component", "enrich")),
	}
}

// EnrichArtists looks up every artist without a recorded enrichment
// attempt. A missing catalog entry is recorded as an unmatched attempt
// so the artist is not retried every cycle. An unavailable catalog
// aborts the pass; the remaining artists are picked up next cycle.
func (e *Enricher) EnrichArtists(ctx context.Context) error {
	var enriched, matched int
	for _, a := range e.registry.Artists() {
		if a.Enriched() {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		name := a.DisplayName
		if name == "" {
			name = a.Name
		}
		res, err := e.client.LookupArtist(ctx, name)
		if err != nil {
			var authErr *source.ErrAuthRequired
			if errors.As(err, &authErr) {
				return fmt.Errorf("catalog auth: %w", err)
			}
			e.logger.Warn("catalog unavailable, aborting pass",
				slog.String("artist", a.Name), slog.Any("error", err))
			return fmt.Errorf("catalog lookup: %w", err)
		}

		e.registry.SetArtistEnrichment(a.Name, res.Matched, res.Popularity, res.Genres, res.CatalogID)
		enriched++
		if res.Matched {
			matched++
		}
	}

	if enriched > 0 {
		e.logger.Info("enrichment pass complete",
			slog.Int("enriched", enriched), slog.Int("matched", matched))
		if e.bus != nil {
			e.bus.Publish(event.Event{
				Type: event.EnrichCompleted,
				Data: map[string]any{"enriched": enriched, "matched": matched},
			})
		}
	}
	return nil
}

// ScoreEvents computes curation scores for unscored events whose artist
// has been through an enrichment attempt. Unmatched artists yield a
// score of zero, recorded as scored so curated listings can exclude
// them without retrying.
func (e *Enricher) ScoreEvents(ctx context.Context) error {
	events, err := e.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return fmt.Errorf("listing events: %w", err)
	}

	var scored int
	for _, ev := range events {
		if ev.Scored {
			continue
		}
		artist, ok := e.registry.Artist(ev.ArtistKey)
		if !ok || !artist.Enriched() {
			continue
		}

		capacity := ev.VenueCapacity
		if capacity == 0 {
			if venue, ok := e.registry.Venue(ev.VenueKey); ok {
				capacity = venue.Capacity
			}
		}

		var score float64
		if artist.Matched {
			score = curation.Score(artist.Popularity, capacity)
		}
		if err := e.store.SetEventScore(ctx, ev.ID, score); err != nil {
			return fmt.Errorf("scoring event %s: %w", ev.ID, err)
		}
		scored++
	}

	if scored > 0 {
		e.logger.Info("scoring pass complete", slog.Int("scored", scored))
	}
	return nil
}

// Run performs one enrichment pass followed by one scoring pass.
func (e *Enricher) Run(ctx context.Context) error {
	if err := e.EnrichArtists(ctx); err != nil {
		return err
	}
	return e.ScoreEvents(ctx)
}
