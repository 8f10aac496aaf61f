// Package api exposes the curated event catalog over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/sonicsignal/sonicsignal/internal/api/middleware"
	"github.com/sonicsignal/sonicsignal/internal/harvest"
	"github.com/sonicsignal/sonicsignal/internal/metrics"
	"github.com/sonicsignal/sonicsignal/internal/registry"
	"github.com/sonicsignal/sonicsignal/internal/source"
	"github.com/sonicsignal/sonicsignal/internal/store"
)

// RouterDeps bundles all dependencies needed by the HTTP router.
// Harvest and Metrics may be nil; their routes are then not mounted.
type RouterDeps struct {
	Store    *store.Service
	Registry *registry.Registry
	Sources  *source.Registry
	Harvest  *harvest.Service
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Router sets up all HTTP routes for the application.
type Router struct {
	store    *store.Service
	registry *registry.Registry
	sources  *source.Registry
	harvest  *harvest.Service
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewRouter creates a new Router with all routes configured.
func NewRouter(deps RouterDeps) *Router {
	return &Router{
		store:    deps.Store,
		registry: deps.Registry,
		sources:  deps.Sources,
		harvest:  deps.Harvest,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Handler returns the fully configured HTTP handler with middleware
// applied.
func (r *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", r.handleHealth)
	mux.HandleFunc("GET /api/v1/events", r.handleListEvents)
	mux.HandleFunc("GET /api/v1/events/{id}", r.handleGetEvent)
	mux.HandleFunc("GET /api/v1/review", r.handleListReview)
	mux.HandleFunc("GET /api/v1/artists", r.handleListArtists)
	mux.HandleFunc("GET /api/v1/venues", r.handleListVenues)

	if r.sources != nil {
		mux.HandleFunc("GET /api/v1/sources", r.handleListSources)
		mux.HandleFunc("GET /api/v1/sources/{name}", r.handleGetSource)
	}
	if r.harvest != nil {
		mux.HandleFunc("POST /api/v1/harvest/run", r.handleHarvestRun)
	}
	if r.metrics != nil {
		mux.Handle("GET /metrics", r.metrics.Handler())
	}

	return middleware.Logging(r.logger)(mux)
}
