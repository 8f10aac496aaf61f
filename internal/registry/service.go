package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/curation"
)

// Service persists registry entries, keyed by normalized name per the
// storage boundary contract.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewService creates a registry persistence service.
func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger.With(slog.String("component", "registry-store"))}
}

// Load hydrates the in-memory registry from the database.
func (s *Service) Load(ctx context.Context, r *Registry) error {
	if err := s.loadArtists(ctx, r); err != nil {
		return fmt.Errorf("loading artists: %w", err)
	}
	if err := s.loadVenues(ctx, r); err != nil {
		return fmt.Errorf("loading venues: %w", err)
	}
	if err := s.loadAliases(ctx, r); err != nil {
		return fmt.Errorf("loading venue aliases: %w", err)
	}
	return nil
}

func (s *Service) loadArtists(ctx context.Context, r *Registry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, spotify_id, popularity, genres, matched, enriched_at, created_at, updated_at
		FROM artists`)
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	r.mu.Lock()
	defer r.mu.Unlock()
	for rows.Next() {
		var a Artist
		var genres string
		var matched int
		var enrichedAt sql.NullString
		var createdAt, updatedAt string
		if err := rows.Scan(&a.Name, &a.DisplayName, &a.SpotifyID, &a.Popularity,
			&genres, &matched, &enrichedAt, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scanning artist: %w", err)
		}
		a.Genres = UnmarshalStringSlice(genres)
		a.Matched = matched == 1
		if enrichedAt.Valid {
			t := parseTime(enrichedAt.String)
			a.EnrichedAt = &t
		}
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)
		r.artists[a.Name] = &a
	}
	return rows.Err()
}

func (s *Service) loadVenues(ctx context.Context, r *Registry) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, display_name, capacity, tier, created_at, updated_at
		FROM venues`)
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	r.mu.Lock()
	defer r.mu.Unlock()
	for rows.Next() {
		var v Venue
		var tier, createdAt, updatedAt string
		if err := rows.Scan(&v.Name, &v.DisplayName, &v.Capacity, &tier, &createdAt, &updatedAt); err != nil {
			return fmt.Errorf("scanning venue: %w", err)
		}
		v.Tier = curation.Tier(tier)
		v.CreatedAt = parseTime(createdAt)
		v.UpdatedAt = parseTime(updatedAt)
		r.venues[v.Name] = &v
	}
	return rows.Err()
}

func (s *Service) loadAliases(ctx context.Context, r *Registry) error {
	rows, err := s.db.QueryContext(ctx, `SELECT alias, venue_name FROM venue_aliases`)
	if err != nil {
		return err
	}
	defer rows.Close() //nolint:errcheck

	r.mu.Lock()
	defer r.mu.Unlock()
	for rows.Next() {
		var alias, venueName string
		if err := rows.Scan(&alias, &venueName); err != nil {
			return fmt.Errorf("scanning alias: %w", err)
		}
		r.aliases[alias] = venueName
		if v, ok := r.venues[venueName]; ok {
			v.Aliases = append(v.Aliases, alias)
		}
	}
	return rows.Err()
}

// Save writes the full registry snapshot back, upserting by key.
func (s *Service) Save(ctx context.Context, r *Registry) error {
	for _, a := range r.Artists() {
		if err := s.saveArtist(ctx, a); err != nil {
			return fmt.Errorf("saving artist %q: %w", a.Name, err)
		}
	}
	for _, v := range r.Venues() {
		if err := s.saveVenue(ctx, v); err != nil {
			return fmt.Errorf("saving venue %q: %w", v.Name, err)
		}
	}
	return nil
}

func (s *Service) saveArtist(ctx context.Context, a Artist) error {
	matched := 0
	if a.Matched {
		matched = 1
	}
	var enrichedAt any
	if a.EnrichedAt != nil {
		enrichedAt = a.EnrichedAt.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (name, display_name, spotify_id, popularity, genres, matched, enriched_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			spotify_id = excluded.spotify_id,
			popularity = excluded.popularity,
			genres = excluded.genres,
			matched = excluded.matched,
			enriched_at = excluded.enriched_at,
			updated_at = excluded.updated_at
	`, a.Name, a.DisplayName, a.SpotifyID, a.Popularity, MarshalStringSlice(a.Genres),
		matched, enrichedAt, a.CreatedAt.Format(time.RFC3339), a.UpdatedAt.Format(time.RFC3339))
	return err
}

func (s *Service) saveVenue(ctx context.Context, v Venue) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO venues (name, display_name, capacity, tier, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			display_name = excluded.display_name,
			capacity = excluded.capacity,
			tier = excluded.tier,
			updated_at = excluded.updated_at
	`, v.Name, v.DisplayName, v.Capacity, string(v.Tier),
		v.CreatedAt.Format(time.RFC3339), v.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return err
	}

	for _, alias := range v.Aliases {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO venue_aliases (alias, venue_name, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(alias) DO NOTHING
		`, alias, v.Name, time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("saving alias %q: %w", alias, err)
		}
	}
	return nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
