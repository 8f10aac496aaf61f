package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/curation"
	"github.com/sonicsignal/sonicsignal/internal/event"
)

// Registry is the in-memory artist/venue registry shared by resolution
// passes. A single mutex guards the maps, making lookup-or-create one
// atomic operation.
type Registry struct {
	mu      sync.Mutex
	artists map[string]*Artist
	venues  map[string]*Venue
	aliases map[string]string // alias -> venue key

	logger *slog.Logger
	bus    *event.Bus
}

// New creates an empty registry. bus may be nil; conflicts are then only
// logged.
func New(logger *slog.Logger, bus *event.Bus) *Registry {
	return &Registry{
		artists: make(map[string]*Artist),
		venues:  make(map[string]*Venue),
		aliases: make(map[string]string),
		logger:  logger.With(slog.String("component", "registry")),
		bus:     bus,
	}
}

// LookupOrCreateArtist returns the registry entry for the normalized
// name, creating an unenriched one on first sight. Returns a copy.
func (r *Registry) LookupOrCreateArtist(name, displayName string) Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.artists[name]
	if !ok {
		now := time.Now().UTC()
		a = &Artist{Name: name, DisplayName: displayName, CreatedAt: now, UpdatedAt: now}
		r.artists[name] = a
	}
	return *a
}

// LookupOrCreateVenue returns the registry entry for the normalized
// name, creating it on first sight. A non-zero capacity is applied per
// SetVenueCapacity semantics. Returns a copy.
func (r *Registry) LookupOrCreateVenue(name, displayName string, capacity int) Venue {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.lookupOrCreateVenueLocked(name, displayName)
	if capacity > 0 {
		r.setVenueCapacityLocked(v, capacity)
	}
	return *v
}

func (r *Registry) lookupOrCreateVenueLocked(name, displayName string) *Venue {
	v, ok := r.venues[name]
	if !ok {
		now := time.Now().UTC()
		v = &Venue{
			Name:        name,
			DisplayName: displayName,
			Tier:        curation.TierUnknown,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.venues[name] = v
	}
	return v
}

// SetVenueCapacity records a venue capacity. When a different non-zero
// capacity was already known, the later-seen value wins and the conflict
// is logged and published, never silently dropped.
func (r *Registry) SetVenueCapacity(name string, capacity int) {
	if capacity <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.venues[name]
	if !ok {
		return
	}
	r.setVenueCapacityLocked(v, capacity)
}

func (r *Registry) setVenueCapacityLocked(v *Venue, capacity int) {
	if v.Capacity != 0 && v.Capacity != capacity {
		r.logger.Warn("venue capacity conflict, later value wins",
			slog.String("venue", v.Name),
			slog.Int("old", v.Capacity),
			slog.Int("new", capacity))
		if r.bus != nil {
			r.bus.Publish(event.Event{
				Type: event.RegistryConflict,
				Data: map[string]any{"venue": v.Name, "old": v.Capacity, "new": capacity},
			})
		}
	}
	v.Capacity = capacity
	v.Tier = curation.TierFor(capacity)
	v.UpdatedAt = time.Now().UTC()
}

// SetArtistEnrichment records the outcome of one enrichment attempt. An
// unmatched artist keeps zero defaults but the attempt is still stamped.
func (r *Registry) SetArtistEnrichment(name string, matched bool, popularity int, genres []string, spotifyID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.artists[name]
	if !ok {
		return
	}
	now := time.Now().UTC()
	a.Matched = matched
	a.Popularity = popularity
	a.Genres = genres
	a.SpotifyID = spotifyID
	a.EnrichedAt = &now
	a.UpdatedAt = now
}

// ResolveVenueAlias maps a normalized venue name to its canonical key.
// Implements dedup.VenueAliases.
func (r *Registry) ResolveVenueAlias(norm string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.aliases[norm]
	return c, ok
}

// LearnVenueAlias records that alias refers to the venue registered
// under canonical. Implements dedup.VenueAliases.
func (r *Registry) LearnVenueAlias(alias, canonical string) {
	if alias == "" || alias == canonical {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.aliases[alias]; ok {
		return
	}
	r.aliases[alias] = canonical

	v := r.lookupOrCreateVenueLocked(canonical, canonical)
	v.Aliases = append(v.Aliases, alias)
	sort.Strings(v.Aliases)
	v.UpdatedAt = time.Now().UTC()

	r.logger.Debug("venue alias learned",
		slog.String("alias", alias), slog.String("venue", canonical))
}

// Artist returns a copy of the entry for the given key.
func (r *Registry) Artist(name string) (Artist, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artists[name]
	if !ok {
		return Artist{}, false
	}
	return *a, true
}

// Venue returns a copy of the entry for the given key.
func (r *Registry) Venue(name string) (Venue, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.venues[name]
	if !ok {
		return Venue{}, false
	}
	return *v, true
}

// Artists returns a snapshot of all entries, sorted by key.
func (r *Registry) Artists() []Artist {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Artist, 0, len(r.artists))
	for _, a := range r.artists {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Venues returns a snapshot of all entries, sorted by key.
func (r *Registry) Venues() []Venue {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Venue, 0, len(r.venues))
	for _, v := range r.venues {
		out = append(out, *v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
