// Package store persists canonical events and the review queue. Events
// are keyed by their deterministic ID; writes merge rather than
// overwrite, so the source set only ever grows.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/curation"
	"github.com/sonicsignal/sonicsignal/internal/dedup"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// Service provides event and review-queue persistence.
type Service struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewService creates an event store.
func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger.With(slog.String("component", "store"))}
}

// UpsertEvent inserts a canonical event or merges it into the stored row
// with the same ID: source tags are unioned and a present value never
// gets clobbered by an absent one.
func (s *Service) UpsertEvent(ctx context.Context, e dedup.CanonicalEvent) error {
	existing, err := s.GetEvent(ctx, e.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("reading existing event: %w", err)
	}

	now := time.Now().UTC()
	if existing == nil {
		return s.insertEvent(ctx, e, now)
	}

	existing.AddSources(e.Sources...)
	if e.VenueCapacity > 0 {
		existing.VenueCapacity = e.VenueCapacity
	}
	if existing.TicketURL == "" {
		existing.TicketURL = e.TicketURL
	}
	if e.Scored {
		existing.CurationScore = e.CurationScore
		existing.Scored = true
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE events SET
			sources = ?, ticket_url = ?, venue_capacity = ?,
			curation_score = ?, scored = ?, updated_at = ?
		WHERE id = ?
	`, marshalSources(existing.Sources), existing.TicketURL, existing.VenueCapacity,
		existing.CurationScore, boolToInt(existing.Scored), now.Format(time.RFC3339), e.ID)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}
	return nil
}

func (s *Service) insertEvent(ctx context.Context, e dedup.CanonicalEvent, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, artist_name, venue_name, event_date, event_day, sources,
			ticket_url, venue_capacity, curation_score, scored, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.ArtistKey, e.VenueKey, e.Date.Format(time.RFC3339), e.Day,
		marshalSources(e.Sources), e.TicketURL, e.VenueCapacity,
		e.CurationScore, boolToInt(e.Scored),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}
	return nil
}

// GetEvent returns the event with the given ID, or ErrNotFound.
func (s *Service) GetEvent(ctx context.Context, id string) (*dedup.CanonicalEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, artist_name, venue_name, event_date, event_day, sources,
			ticket_url, venue_capacity, curation_score, scored
		FROM events WHERE id = ?`, id)

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// SetEventScore records the curation score for an event. A score of 0.0
// with scored still marks the event as having been through enrichment.
func (s *Service) SetEventScore(ctx context.Context, id string, score float64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE events SET curation_score = ?, scored = 1, updated_at = ? WHERE id = ?
	`, score, time.Now().UTC().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("setting event score: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// EventFilter narrows ListEvents output.
type EventFilter struct {
	// Tier filters by the venue-capacity bucket; empty means all.
	Tier curation.Tier
	// MinScore drops events scoring below the bound. Implies ScoredOnly.
	MinScore float64
	// ScoredOnly drops events that have not been through enrichment.
	ScoredOnly bool
	// FromDay/ToDay bound the calendar day (inclusive); empty means open.
	FromDay string
	ToDay   string
}

// ListEvents returns events matching the filter, ordered by day then
// descending score.
func (s *Service) ListEvents(ctx context.Context, f EventFilter) ([]dedup.CanonicalEvent, error) {
	query := `
		SELECT id, artist_name, venue_name, event_date, event_day, sources,
			ticket_url, venue_capacity, curation_score, scored
		FROM events WHERE 1=1`
	var args []any
	if f.ScoredOnly || f.MinScore > 0 {
		query += " AND scored = 1"
	}
	if f.MinScore > 0 {
		query += " AND curation_score >= ?"
		args = append(args, f.MinScore)
	}
	if f.FromDay != "" {
		query += " AND event_day >= ?"
		args = append(args, f.FromDay)
	}
	if f.ToDay != "" {
		query += " AND event_day <= ?"
		args = append(args, f.ToDay)
	}
	query += " ORDER BY event_day, curation_score DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var events []dedup.CanonicalEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		if f.Tier != "" && curation.TierFor(e.VenueCapacity) != f.Tier {
			continue
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// AddReview persists near-miss pairs for external review tooling.
func (s *Service) AddReview(ctx context.Context, entries []dedup.ReviewEntry) error {
	for _, entry := range entries {
		obs1, err := json.Marshal(entry.Obs1)
		if err != nil {
			return fmt.Errorf("encoding obs1: %w", err)
		}
		obs2, err := json.Marshal(entry.Obs2)
		if err != nil {
			return fmt.Errorf("encoding obs2: %w", err)
		}
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO review_queue (id, obs1, obs2, artist_score, venue_score, confidence, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO NOTHING
		`, entry.ID, string(obs1), string(obs2), entry.ArtistScore, entry.VenueScore,
			string(entry.Confidence), entry.CreatedAt.Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("inserting review entry: %w", err)
		}
	}
	return nil
}

// ListReview returns the queued near-miss pairs, oldest first.
func (s *Service) ListReview(ctx context.Context) ([]dedup.ReviewEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, obs1, obs2, artist_score, venue_score, confidence, created_at
		FROM review_queue ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing review queue: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []dedup.ReviewEntry
	for rows.Next() {
		var entry dedup.ReviewEntry
		var obs1, obs2, confidence, createdAt string
		if err := rows.Scan(&entry.ID, &obs1, &obs2, &entry.ArtistScore,
			&entry.VenueScore, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning review entry: %w", err)
		}
		if err := json.Unmarshal([]byte(obs1), &entry.Obs1); err != nil {
			return nil, fmt.Errorf("decoding obs1: %w", err)
		}
		if err := json.Unmarshal([]byte(obs2), &entry.Obs2); err != nil {
			return nil, fmt.Errorf("decoding obs2: %w", err)
		}
		entry.Confidence = dedup.Confidence(confidence)
		entry.CreatedAt = parseTime(createdAt)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEvent(row interface{ Scan(...any) error }) (*dedup.CanonicalEvent, error) {
	var e dedup.CanonicalEvent
	var eventDate, sources string
	var scored int
	if err := row.Scan(&e.ID, &e.ArtistKey, &e.VenueKey, &eventDate, &e.Day,
		&sources, &e.TicketURL, &e.VenueCapacity, &e.CurationScore, &scored); err != nil {
		return nil, err
	}
	e.Date = parseTime(eventDate)
	e.Sources = unmarshalSources(sources)
	e.Scored = scored == 1
	return &e, nil
}

func marshalSources(sources []dedup.SourceName) string {
	if sources == nil {
		return "[]"
	}
	data, _ := json.Marshal(sources)
	return string(data)
}

func unmarshalSources(data string) []dedup.SourceName {
	if data == "" || data == "[]" {
		return nil
	}
	var out []dedup.SourceName
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil
	}
	return out
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
