// Package normalize converts raw artist and venue names into the
// canonical form used for fuzzy comparison. The functions here are pure:
// venue alias substitution is the resolver's job, not this package's.
package normalize

import (
	"strings"
	"unicode"
)

// Kind selects which normalization pipeline to apply.
type Kind int

// Normalization kinds.
const (
	KindArtist Kind = iota
	KindVenue
)

// Name normalizes a raw name for matching: lower-case, strip one leading
// "the " token for artists, drop everything that is not alphanumeric or
// whitespace, collapse whitespace runs, trim. Always returns a string;
// empty or whitespace-only input normalizes to "".
func Name(raw string, kind Kind) string {
	s := strings.ToLower(strings.TrimSpace(raw))

	if kind == KindArtist {
		s = strings.TrimPrefix(s, "the ")
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Artist normalizes an artist name.
func Artist(raw string) string { return Name(raw, KindArtist) }

// Venue normalizes a venue name.
func Venue(raw string) string { return Name(raw, KindVenue) }
