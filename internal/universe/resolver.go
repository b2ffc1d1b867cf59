// Package universe implements UniverseResolver: translating a
// (markets, industries) filter into a deduplicated, deterministically
// ordered ticker list drawn from the reference roster.
package universe

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
)

// roster is the capability UniverseResolver needs from DataGateway.
type roster interface {
	LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error)
}

// Resolver is UniverseResolver.
type Resolver struct {
	gateway roster
	log     zerolog.Logger
}

// New builds a Resolver over the given reference-roster source.
func New(gateway roster, log zerolog.Logger) *Resolver {
	return &Resolver{gateway: gateway, log: log.With().Str("component", "universe").Logger()}
}

// Resolve fetches the reference roster, drops suspended/delisted names,
// applies the filter, deduplicates by code, and returns the result sorted
// by ascending ticker code. An empty result is a legal outcome, not an
// error — the caller decides how to react to an empty analysis set.
func (r *Resolver) Resolve(ctx context.Context, filter domain.UniverseFilter) ([]domain.TickerRef, error) {
	all, err := r.gateway.LoadReferenceUniverse(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(all))
	out := make([]domain.TickerRef, 0, len(all))
	for _, t := range all {
		if t.IsSuspendedOrDelisted() {
			continue
		}
		if !filter.MatchesMarket(t.Market) || !filter.MatchesIndustry(t.Industry) {
			continue
		}
		if seen[t.Code] {
			continue
		}
		seen[t.Code] = true
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })

	r.log.Debug().
		Int("roster_size", len(all)).
		Int("resolved_size", len(out)).
		Msg("universe resolved")

	return out, nil
}
