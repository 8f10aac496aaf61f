package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/curation"
	"github.com/sonicsignal/sonicsignal/internal/dedup"
	"github.com/sonicsignal/sonicsignal/internal/harvest"
	"github.com/sonicsignal/sonicsignal/internal/source"
	"github.com/sonicsignal/sonicsignal/internal/store"
	"github.com/sonicsignal/sonicsignal/internal/version"
)

func (r *Router) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
		"commit":  version.Commit,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (r *Router) handleListEvents(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	filter := store.EventFilter{
		FromDay: q.Get("from"),
		ToDay:   q.Get("to"),
	}
	if tier := q.Get("tier"); tier != "" {
		if !curation.ValidTier(tier) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown tier"})
			return
		}
		filter.Tier = curation.Tier(tier)
	}
	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil || score < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid min_score"})
			return
		}
		filter.MinScore = score
	}
	if q.Get("scored") == "true" {
		filter.ScoredOnly = true
	}

	events, err := r.store.ListEvents(req.Context(), filter)
	if err != nil {
		r.logger.Error("listing events", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if events == nil {
		events = []dedup.CanonicalEvent{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

func (r *Router) handleGetEvent(w http.ResponseWriter, req *http.Request) {
	id := req.PathValue("id")
	e, err := r.store.GetEvent(req.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "event not found"})
			return
		}
		r.logger.Error("getting event", "id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (r *Router) handleListReview(w http.ResponseWriter, req *http.Request) {
	entries, err := r.store.ListReview(req.Context())
	if err != nil {
		r.logger.Error("listing review queue", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (r *Router) handleListArtists(w http.ResponseWriter, _ *http.Request) {
	artists := r.registry.Artists()
	writeJSON(w, http.StatusOK, map[string]any{"artists": artists, "count": len(artists)})
}

func (r *Router) handleListVenues(w http.ResponseWriter, _ *http.Request) {
	venues := r.registry.Venues()
	writeJSON(w, http.StatusOK, map[string]any{"venues": venues, "count": len(venues)})
}

// sourceInfo is the wire shape of one configured source.
type sourceInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	RequiresAuth bool   `json:"requires_auth"`
}

func newSourceInfo(s source.Source) sourceInfo {
	return sourceInfo{
		Name:         string(s.Name()),
		DisplayName:  s.Name().DisplayName(),
		RequiresAuth: s.RequiresAuth(),
	}
}

func (r *Router) handleListSources(w http.ResponseWriter, _ *http.Request) {
	all := r.sources.All()
	infos := make([]sourceInfo, 0, len(all))
	for _, s := range all {
		infos = append(infos, newSourceInfo(s))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": infos, "count": len(infos)})
}

func (r *Router) handleGetSource(w http.ResponseWriter, req *http.Request) {
	s := r.sources.Get(source.Name(req.PathValue("name")))
	if s == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "source not found"})
		return
	}
	writeJSON(w, http.StatusOK, newSourceInfo(s))
}

func (r *Router) handleHarvestRun(w http.ResponseWriter, req *http.Request) {
	summary, err := r.harvest.Run(req.Context())
	if err != nil {
		if errors.Is(err, harvest.ErrAlreadyRunning) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "harvest already running"})
			return
		}
		r.logger.Error("harvest run", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "harvest failed"})
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
