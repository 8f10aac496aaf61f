package dedup

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
)

// VenueAliases is the alias surface the resolver needs from the venue
// registry. The normalizer itself stays alias-agnostic; substitution
// happens here so the pure function keeps no state.
type VenueAliases interface {
	// ResolveVenueAlias maps a normalized venue name to its canonical
	// registry key, if an alias is known.
	ResolveVenueAlias(norm string) (canonical string, ok bool)
	// LearnVenueAlias records that alias refers to the venue registered
	// under canonical.
	LearnVenueAlias(alias, canonical string)
}

// noAliases is used when no registry is wired in (pure resolution).
type noAliases struct{}

func (noAliases) ResolveVenueAlias(string) (string, bool) { return "", false }
func (noAliases) LearnVenueAlias(string, string)          {}

// Cluster is a set of observations judged to represent the same event.
// The representative is the earliest-processed member, chosen so cluster
// identity does not drift as more observations arrive across cycles.
type Cluster struct {
	Representative *Observation
	Members        []*Observation
}

// ReviewEntry is a near-miss pair queued for manual review. The engine
// never auto-resolves these.
type ReviewEntry struct {
	ID          string      `json:"id"`
	Obs1        Observation `json:"obs1"`
	Obs2        Observation `json:"obs2"`
	ArtistScore int         `json:"artist_score"`
	VenueScore  int         `json:"venue_score"`
	Confidence  Confidence  `json:"confidence"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Diagnostics summarizes data-quality issues recovered during one run.
type Diagnostics struct {
	Total            int      `json:"total"`
	Malformed        int      `json:"malformed"`
	MalformedSamples []string `json:"malformed_samples,omitempty"`
	Clusters         int      `json:"clusters"`
	Merged           int      `json:"merged"`
}

const maxMalformedSamples = 5

// Resolution holds everything one resolution pass produced.
type Resolution struct {
	Clusters    []*Cluster
	Review      []ReviewEntry
	Diagnostics Diagnostics
}

// Resolver partitions an observation batch into clusters using the
// classifier as its pairwise oracle.
type Resolver struct {
	classifier *Classifier
	aliases    VenueAliases
	logger     *slog.Logger
}

// NewResolver creates a resolver. aliases may be nil for pure,
// registry-free resolution; logger may not be nil.
func NewResolver(classifier *Classifier, aliases VenueAliases, logger *slog.Logger) *Resolver {
	if aliases == nil {
		aliases = noAliases{}
	}
	return &Resolver{
		classifier: classifier,
		aliases:    aliases,
		logger:     logger.With(slog.String("component", "resolver")),
	}
}

// unionFind is a plain disjoint-set over observation indices.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	return &unionFind{parent: parent}
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]] // path halving
		i = u.parent[i]
	}
	return i
}

// union attaches i's tree under root r. r must be a root.
func (u *unionFind) union(r, i int) {
	u.parent[u.find(i)] = r
}

// Resolve partitions the batch into clusters. Observations are processed
// in input order and each new one is compared against the representative
// of every cluster formed so far, joining the first that matches. This
// is the documented greedy approximation: two non-adjacent members of a
// cluster may fail a direct pairwise match (chaining); that trade-off is
// accepted, not a bug to fix.
func (r *Resolver) Resolve(observations []Observation) *Resolution {
	res := &Resolution{Diagnostics: Diagnostics{Total: len(observations)}}

	obs := make([]*Observation, len(observations))
	for i := range observations {
		o := observations[i]
		obs[i] = &o
	}

	uf := newUnionFind(len(obs))
	// Cluster roots in creation order, for deterministic scan order.
	var roots []int

	for i, o := range obs {
		if o.Malformed() {
			// Isolate, count, keep going. A bad observation never aborts
			// the batch and never matches anything.
			res.Diagnostics.Malformed++
			if len(res.Diagnostics.MalformedSamples) < maxMalformedSamples {
				res.Diagnostics.MalformedSamples = append(res.Diagnostics.MalformedSamples,
					fmt.Sprintf("%s: artist=%q venue=%q date=%s", o.Source, o.ArtistRaw, o.VenueRaw, o.EventDate))
			}
			continue
		}

		if canonical, ok := r.aliases.ResolveVenueAlias(o.VenueNorm); ok {
			o.VenueKey = canonical
		}

		joined := false
		for _, root := range roots {
			rep := obs[root]
			cr := r.classifier.Classify(rep, o)
			if cr.IsMatch {
				uf.union(root, i)
				if o.VenueKey != rep.VenueKey {
					// A fuzzy venue hit joined the cluster: remember the
					// variant as an alias of the representative's venue.
					r.aliases.LearnVenueAlias(o.VenueNorm, rep.VenueKey)
					o.VenueKey = rep.VenueKey
				}
				joined = true
				break
			}
			if cr.Confidence == ConfidenceLow {
				res.Review = append(res.Review, newReviewEntry(rep, o, cr))
			}
		}

		if !joined {
			roots = append(roots, i)
		}
	}

	clusterByRoot := make(map[int]*Cluster, len(roots))
	for i, o := range obs {
		if o.Malformed() {
			res.Clusters = append(res.Clusters, &Cluster{Representative: o, Members: []*Observation{o}})
			continue
		}
		root := uf.find(i)
		c, ok := clusterByRoot[root]
		if !ok {
			c = &Cluster{Representative: obs[root]}
			clusterByRoot[root] = c
			res.Clusters = append(res.Clusters, c)
		}
		c.Members = append(c.Members, o)
	}

	res.Diagnostics.Clusters = len(res.Clusters)
	r.logger.Debug("batch resolved",
		slog.Int("observations", res.Diagnostics.Total),
		slog.Int("clusters", res.Diagnostics.Clusters),
		slog.Int("malformed", res.Diagnostics.Malformed),
		slog.Int("review", len(res.Review)))
	return res
}

// Canonicalize synthesizes the canonical event for a cluster: stable ID
// from the natural key, source-set union, the representative's date, and
// best-effort capacity from any constituent (latest non-zero wins,
// mirroring the registry's conflict policy).
func (r *Resolver) Canonicalize(c *Cluster) CanonicalEvent {
	rep := c.Representative
	day := rep.Day(r.classifier.Location())

	e := CanonicalEvent{
		ID:        EventID(rep.ArtistNorm, rep.VenueKey, day),
		ArtistKey: rep.ArtistNorm,
		VenueKey:  rep.VenueKey,
		Date:      rep.EventDate,
		Day:       day,
		TicketURL: rep.TicketURL,
	}
	for _, m := range c.Members {
		e.AddSources(m.Source)
		if m.VenueCapacity > 0 {
			e.VenueCapacity = m.VenueCapacity
		}
		if e.TicketURL == "" && m.TicketURL != "" {
			e.TicketURL = m.TicketURL
		}
	}
	return e
}

// MergeIntoExisting matches freshly resolved clusters against events
// from earlier cycles, applying the same classifier to (representative,
// stored event) pairs. A hit merges source tags into the stored event; a
// miss yields a new canonical event. Returns the updated copies of
// matched events and the newly created ones.
func (r *Resolver) MergeIntoExisting(clusters []*Cluster, existing []CanonicalEvent) (updated, created []CanonicalEvent) {
	byID := make(map[string]int, len(existing))
	for i := range existing {
		byID[existing[i].ID] = i
	}
	touched := make(map[string]*CanonicalEvent)

	for _, c := range clusters {
		if c.Representative.Malformed() {
			continue
		}
		candidate := r.Canonicalize(c)

		var target *CanonicalEvent
		if i, ok := byID[candidate.ID]; ok {
			target = &existing[i]
		} else {
			for i := range existing {
				cr := r.classifier.Classify(existing[i].surrogate(), c.Representative)
				if cr.IsMatch {
					target = &existing[i]
					break
				}
			}
		}

		if target == nil {
			created = append(created, candidate)
			continue
		}

		target.AddSources(candidate.Sources...)
		if target.VenueCapacity == 0 && candidate.VenueCapacity > 0 {
			target.VenueCapacity = candidate.VenueCapacity
		}
		if target.TicketURL == "" {
			target.TicketURL = candidate.TicketURL
		}
		touched[target.ID] = target
	}

	updated = make([]CanonicalEvent, 0, len(touched))
	for _, e := range touched {
		updated = append(updated, *e)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })
	return updated, created
}

func newReviewEntry(a, b *Observation, cr Result) ReviewEntry {
	return ReviewEntry{
		ID:          uuid.New().String(),
		Obs1:        *a,
		Obs2:        *b,
		ArtistScore: cr.ArtistScore,
		VenueScore:  cr.VenueScore,
		Confidence:  cr.Confidence,
		CreatedAt:   time.Now().UTC(),
	}
}
