// Package harvest orchestrates one full pipeline cycle: fetch from all
// sources, resolve duplicates, merge into the stored canonical set,
// then enrich and score.
package harvest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/enrich"
	"github.com/sonicsignal/sonicsignal/internal/event"
	"github.com/sonicsignal/sonicsignal/internal/metrics"
	"github.com/sonicsignal/sonicsignal/internal/registry"
	"github.com/sonicsignal/sonicsignal/internal/source"
	"github.com/sonicsignal/sonicsignal/internal/store"
)

// DefaultWindowDays is how far ahead a cycle looks for events.
const DefaultWindowDays = 60

// Summary reports what one cycle did.
type Summary struct {
	Observations int               `json:"observations"`
	Updated      int               `json:"updated"`
	Created      int               `json:"created"`
	Review       int               `json:"review"`
	Duration     time.Duration     `json:"duration"`
	Diagnostics  dedup.Diagnostics `json:"diagnostics"`
}

// Service runs harvest cycles. A mutex serializes them; a cycle
// triggered while one is running fails fast instead of queueing.
type Service struct {
	sources  *source.Registry
	resolver *dedup.Resolver
	registry *registry.Registry
	regStore *registry.Service
	store    *store.Service
	enricher *enrich.Enricher
	bus      *event.Bus
	metrics  *metrics.Metrics
	logger   *slog.Logger

	city       string
	windowDays int

	mu      sync.Mutex
	running bool
}

// Config carries the collaborators a harvest service needs. Enricher,
// RegStore, Bus and Metrics may be nil; those steps are then skipped.
type Config struct {
	Sources    *source.Registry
	Resolver   *dedup.Resolver
	Registry   *registry.Registry
	RegStore   *registry.Service
	Store      *store.Service
	Enricher   *enrich.Enricher
	Bus        *event.Bus
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
	City       string
	WindowDays int
}

// New creates a harvest service.
func New(cfg Config) *Service {
	days := cfg.WindowDays
	if days <= 0 {
		days = DefaultWindowDays
	}
	return &Service{
		sources:    cfg.Sources,
		resolver:   cfg.Resolver,
		registry:   cfg.Registry,
		regStore:   cfg.RegStore,
		store:      cfg.Store,
		enricher:   cfg.Enricher,
		bus:        cfg.Bus,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With(slog.String("component", "harvest")),
		city:       cfg.City,
		windowDays: days,
	}
}

// ErrAlreadyRunning is returned when a cycle is triggered mid-cycle.
var ErrAlreadyRunning = errors.New("harvest already running")

// Run executes one full cycle and returns its summary.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	s.running = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	start := time.Now()
	now := start.UTC()
	window := source.Window{From: now, To: now.AddDate(0, 0, s.windowDays)}

	observations := s.fetchAll(ctx, window)

	res := s.resolver.Resolve(observations)
	if s.metrics != nil {
		s.metrics.MalformedTotal.Add(float64(res.Diagnostics.Malformed))
		s.metrics.ReviewQueuedTotal.Add(float64(len(res.Review)))
	}

	s.updateRegistries(res.Clusters)

	updated, created, err := s.persistEvents(ctx, res.Clusters)
	if err != nil {
		return nil, err
	}

	if len(res.Review) > 0 {
		if err := s.store.AddReview(ctx, res.Review); err != nil {
			return nil, fmt.Errorf("queueing review entries: %w", err)
		}
		if s.bus != nil {
			s.bus.Publish(event.Event{
				Type: event.ReviewNeeded,
				Data: map[string]any{"count": len(res.Review)},
			})
		}
	}

	if s.enricher != nil {
		// Enrichment failure degrades the cycle, it does not void it.
		if err := s.enricher.Run(ctx); err != nil {
			s.logger.Warn("enrichment skipped", slog.Any("error", err))
		}
	}

	if s.regStore != nil {
		if err := s.regStore.Save(ctx, s.registry); err != nil {
			return nil, fmt.Errorf("saving registries: %w", err)
		}
	}

	summary := &Summary{
		Observations: len(observations),
		Updated:      updated,
		Created:      created,
		Review:       len(res.Review),
		Duration:     time.Since(start),
		Diagnostics:  res.Diagnostics,
	}
	if s.metrics != nil {
		s.metrics.HarvestDuration.Observe(summary.Duration.Seconds())
	}
	if s.bus != nil {
		s.bus.Publish(event.Event{
			Type: event.HarvestCompleted,
			Data: map[string]any{
				"observations": summary.Observations,
				"updated":      summary.Updated,
				"created":      summary.Created,
				"malformed":    res.Diagnostics.Malformed,
			},
		})
	}

	s.logger.Info("harvest cycle complete",
		slog.Int("observations", summary.Observations),
		slog.Int("clusters", res.Diagnostics.Clusters),
		slog.Int("updated", summary.Updated),
		slog.Int("created", summary.Created),
		slog.Int("malformed", res.Diagnostics.Malformed),
		slog.Int("review", summary.Review),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

// fetchAll queries every source concurrently but concatenates results in
// registration order, so resolution output does not depend on network
// timing. A failing source contributes nothing; the cycle goes on with
// what the others returned.
func (s *Service) fetchAll(ctx context.Context, window source.Window) []dedup.Observation {
	srcs := s.sources.All()
	results := make([][]dedup.Observation, len(srcs))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range srcs {
		g.Go(func() error {
			obs, err := src.FetchEvents(gctx, s.city, window)
			if err != nil {
				s.logger.Warn("source fetch failed",
					slog.String("source", string(src.Name())), slog.Any("error", err))
				if s.metrics != nil {
					s.metrics.SourceErrors.WithLabelValues(string(src.Name())).Inc()
				}
				return nil
			}
			results[i] = obs
			return nil
		})
	}
	_ = g.Wait()

	var all []dedup.Observation
	for i, obs := range results {
		if s.metrics != nil {
			s.metrics.ObservationsTotal.WithLabelValues(string(srcs[i].Name())).Add(float64(len(obs)))
		}
		all = append(all, obs...)
	}
	return all
}

// updateRegistries records every cluster's artist and venue, propagating
// the best capacity seen among the members.
func (s *Service) updateRegistries(clusters []*dedup.Cluster) {
	for _, c := range clusters {
		rep := c.Representative
		if rep.Malformed() {
			continue
		}
		s.registry.LookupOrCreateArtist(rep.ArtistNorm, rep.ArtistRaw)

		capacity := 0
		for _, m := range c.Members {
			if m.VenueCapacity > 0 {
				capacity = m.VenueCapacity
			}
		}
		s.registry.LookupOrCreateVenue(rep.VenueKey, rep.VenueRaw, capacity)
	}
}

// persistEvents merges the new clusters against stored events and writes
// the outcome back.
func (s *Service) persistEvents(ctx context.Context, clusters []*dedup.Cluster) (updatedCount, createdCount int, err error) {
	existing, err := s.store.ListEvents(ctx, store.EventFilter{})
	if err != nil {
		return 0, 0, fmt.Errorf("loading stored events: %w", err)
	}

	updated, created := s.resolver.MergeIntoExisting(clusters, existing)
	for _, e := range updated {
		if err := s.store.UpsertEvent(ctx, e); err != nil {
			return 0, 0, fmt.Errorf("updating event %s: %w", e.ID, err)
		}
		if s.metrics != nil {
			s.metrics.MergesTotal.Inc()
		}
		if s.bus != nil {
			s.bus.Publish(event.Event{
				Type: event.EventMerged,
				Data: map[string]any{"id": e.ID, "sources": len(e.Sources)},
			})
		}
	}
	for _, e := range created {
		if err := s.store.UpsertEvent(ctx, e); err != nil {
			return 0, 0, fmt.Errorf("creating event %s: %w", e.ID, err)
		}
	}
	if s.metrics != nil {
		s.metrics.EventsStored.Set(float64(len(existing) + len(created)))
	}
	return len(updated), len(created), nil
}
