// Package gateway implements DataGateway: a single provider-agnostic view
// over Primary/Secondary QuoteProviders with failover, per-provider rate
// limiting, normalization, and QuoteCache-backed reads.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/sentinel/internal/cache"
	"github.com/aristath/sentinel/internal/config"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/providers"
	"github.com/aristath/sentinel/internal/utils"
)

// Gateway is DataGateway.
type Gateway struct {
	primary   providers.QuoteProvider
	secondary providers.QuoteProvider

	cache *cache.Cache

	limiters map[string]*rate.Limiter

	ttlReference    time.Duration
	ttlFundamentals time.Duration
	ttlSnapshot     time.Duration

	log zerolog.Logger
}

// New builds a Gateway. secondary may implement only a subset of
// providers.QuoteProvider's operations (e.g. sina has no reference roster
// or history feed); unsupported operations simply fail and the failover
// policy falls through to whichever error the secondary returns.
func New(cfg *config.Config, primary, secondary providers.QuoteProvider, c *cache.Cache, log zerolog.Logger) *Gateway {
	return &Gateway{
		primary:   primary,
		secondary: secondary,
		cache:     c,
		limiters: map[string]*rate.Limiter{
			primary.Name():   rate.NewLimiter(rate.Limit(cfg.RateLimitRPSPrimary), maxBurst(cfg.RateLimitRPSPrimary)),
			secondary.Name(): rate.NewLimiter(rate.Limit(cfg.RateLimitRPSSecondary), maxBurst(cfg.RateLimitRPSSecondary)),
		},
		ttlReference:    cfg.CacheTTLReference,
		ttlFundamentals: cfg.CacheTTLFundamentals,
		ttlSnapshot:     cfg.CacheTTLSnapshot,
		log:             log.With().Str("component", "gateway").Logger(),
	}
}

func maxBurst(rps float64) int {
	b := int(rps)
	if b < 1 {
		b = 1
	}
	return b
}

// await blocks for a token from the named provider's limiter, bounded by
// ctx's deadline. On timeout it returns domain.ErrRateLimited.
func (g *Gateway) await(ctx context.Context, provider string) error {
	if err := g.limiters[provider].Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", provider, domain.ErrRateLimited)
	}
	return nil
}

// tryProviders runs op against Primary, then Secondary on
// Unavailable/RateLimited/Malformed, returning the first success along
// with the name of whichever provider answered. If both fail, it
// propagates the stronger error per domain.StrongerError.
func tryProviders[T any](ctx context.Context, g *Gateway, op func(context.Context, providers.QuoteProvider) (T, error)) (T, string, error) {
	var zero T

	if err := g.await(ctx, g.primary.Name()); err == nil {
		v, err := op(ctx, g.primary)
		if err == nil {
			return v, g.primary.Name(), nil
		}
		if !isFailoverEligible(err) {
			return zero, "", err
		}
		primaryErr := err

		if err := g.await(ctx, g.secondary.Name()); err != nil {
			return zero, "", domain.StrongerError(primaryErr, err)
		}
		v2, err2 := op(ctx, g.secondary)
		if err2 == nil {
			return v2, g.secondary.Name(), nil
		}
		return zero, "", domain.StrongerError(primaryErr, err2)
	} else {
		// Primary's own limiter timed out before the call could be made;
		// still give Secondary a chance.
		if err2 := g.await(ctx, g.secondary.Name()); err2 != nil {
			return zero, "", domain.StrongerError(err, err2)
		}
		v2, err2 := op(ctx, g.secondary)
		if err2 == nil {
			return v2, g.secondary.Name(), nil
		}
		return zero, "", domain.StrongerError(err, err2)
	}
}

// isFailoverEligible reports whether err should trigger a fall-through to
// Secondary: only Unavailable, RateLimited and Malformed are. NotFound and
// errors outside the taxonomy are returned as-is without trying Secondary.
func isFailoverEligible(err error) bool {
	return errors.Is(err, domain.ErrUnavailable) ||
		errors.Is(err, domain.ErrRateLimited) ||
		errors.Is(err, domain.ErrMalformed)
}

// LoadReferenceUniverse implements DataGateway.
func (g *Gateway) LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error) {
	v, err := g.cache.Get("universe", g.ttlReference, func() (any, error) {
		refs, _, err := tryProviders(ctx, g, func(ctx context.Context, p providers.QuoteProvider) ([]domain.TickerRef, error) {
			return p.LoadReferenceUniverse(ctx)
		})
		return refs, err
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.TickerRef), nil
}

// FetchSnapshotBatch implements DataGateway. Cache hits are served
// per-ticker; misses are fetched from upstream in one batched call and
// normalized (close <= 0 or volume < 0 rejects that ticker only).
func (g *Gateway) FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error) {
	out := make(map[string]domain.QuoteSnapshot, len(codes))
	var misses []string

	for _, code := range codes {
		if v, ok := g.cache.Peek("snapshot:"+code, g.ttlSnapshot); ok {
			out[code] = v.(domain.QuoteSnapshot)
		} else {
			misses = append(misses, code)
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	sort.Strings(misses)
	fetched, source, err := tryProviders(ctx, g, func(ctx context.Context, p providers.QuoteProvider) (map[string]domain.QuoteSnapshot, error) {
		return p.FetchSnapshotBatch(ctx, misses)
	})
	if err != nil {
		if len(out) > 0 {
			return out, nil
		}
		return nil, err
	}

	for code, snap := range fetched {
		if snap.Close <= 0 || snap.Volume < 0 {
			continue
		}
		snap.Source = source
		out[code] = snap
		g.cache.Put("snapshot:"+code, snap)
	}
	return out, nil
}

// FetchHistory implements DataGateway.
func (g *Gateway) FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error) {
	defer utils.OperationTimer("fetch_history", g.log)()

	key := "history:" + code + ":" + strconv.Itoa(lookbackDays)
	v, err := g.cache.Get(key, g.ttlSnapshot, func() (any, error) {
		bars, _, err := tryProviders(ctx, g, func(ctx context.Context, p providers.QuoteProvider) (domain.History, error) {
			return p.FetchHistory(ctx, code, lookbackDays)
		})
		if err != nil {
			return nil, err
		}
		return normalizeHistory(bars), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.History), nil
}

func normalizeHistory(bars domain.History) domain.History {
	out := make(domain.History, 0, len(bars))
	for _, b := range bars {
		if b.Close <= 0 || b.Volume < 0 {
			continue
		}
		out = append(out, b)
	}
	return out
}

// FetchFundamentals implements DataGateway.
func (g *Gateway) FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error) {
	defer utils.OperationTimer("fetch_fundamentals", g.log)()

	key := "fundamentals:" + code
	v, err := g.cache.Get(key, g.ttlFundamentals, func() (any, error) {
		fund, _, err := tryProviders(ctx, g, func(ctx context.Context, p providers.QuoteProvider) (domain.Fundamentals, error) {
			return p.FetchFundamentals(ctx, code)
		})
		return fund, err
	})
	if err != nil {
		return domain.Fundamentals{}, err
	}
	return v.(domain.Fundamentals), nil
}
