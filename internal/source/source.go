// Package source defines the fetch-collaborator boundary: adapters that
// turn one external ticketing API into a batch of observations. All
// validation happens here at the adapter edge, never downstream.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/sonicsignal/sonicsignal/internal/dedup"
)

// Name uniquely identifies an event source.
type Name string

// Known source names, in fixed harvest order. The order is part of the
// resolver's determinism contract: batches are always concatenated in
// this order before resolution.
const (
	NameTicketmaster Name = Name(dedup.SourceTicketmaster)
	NameSeatGeek     Name = Name(dedup.SourceSeatGeek)
	NameSongkick     Name = Name(dedup.SourceSongkick)
)

// AllNames returns all known source names in harvest order.
func AllNames() []Name {
	return []Name{NameTicketmaster, NameSeatGeek, NameSongkick}
}

// DisplayName returns a human-readable name for the source.
func (n Name) DisplayName() string {
	switch n {
	case NameTicketmaster:
		return "Ticketmaster"
	case NameSeatGeek:
		return "SeatGeek"
	case NameSongkick:
		return "Songkick"
	default:
		return string(n)
	}
}

// Window is the date range a harvest covers.
type Window struct {
	From time.Time
	To   time.Time
}

// Source is the interface all event source adapters implement. An
// adapter fully materializes its batch before returning; the resolver
// never consumes a live stream.
type Source interface {
	// Name returns the unique source identifier.
	Name() Name

	// RequiresAuth returns true if this source needs an API key.
	RequiresAuth() bool

	// FetchEvents fetches concert observations for a city within the
	// window. Source fields that cannot be mapped stay absent; the
	// adapter never fabricates values.
	FetchEvents(ctx context.Context, city string, window Window) ([]dedup.Observation, error)
}

// ErrSourceUnavailable indicates a transient failure (rate-limited,
// timeout, server error).
type ErrSourceUnavailable struct {
	Source     Name
	Cause      error
	RetryAfter time.Duration
}

func (e *ErrSourceUnavailable) Error() string {
	return fmt.Sprintf("source %s unavailable: %v", e.Source, e.Cause)
}

func (e *ErrSourceUnavailable) Unwrap() error { return e.Cause }

// ErrAuthRequired indicates the source needs an API key but none is
// configured.
type ErrAuthRequired struct {
	Source Name
}

func (e *ErrAuthRequired) Error() string {
	return fmt.Sprintf("source %s: API key not configured", e.Source)
}
