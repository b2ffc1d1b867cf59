// Package providers defines the QuoteProvider capability contract shared by
// every upstream market-data adapter (eastmoney, sina). DataGateway depends
// only on this interface, never on a concrete provider package.
package providers

import (
	"context"

	"github.com/aristath/sentinel/internal/domain"
)

// QuoteProvider is one upstream source of market data. Every method returns
// an error from domain's Unavailable/Malformed/RateLimited/NotFound
// taxonomy on failure, never a bare wrapped error, so DataGateway's failover
// policy can rank failures with domain.StrongerError.
type QuoteProvider interface {
	// Name identifies the provider in logs and FinalResult's data-source
	// breakdown ("eastmoney", "sina").
	Name() string

	// LoadReferenceUniverse fetches the full roster of tradable tickers.
	LoadReferenceUniverse(ctx context.Context) ([]domain.TickerRef, error)

	// FetchSnapshotBatch fetches the latest session snapshot for each code.
	// A code the provider has no data for is simply absent from the
	// result, not an error, unless the whole batch fails.
	FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error)

	// FetchHistory fetches up to lookbackDays of daily bars, oldest first.
	FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error)

	// FetchFundamentals fetches the latest reported fundamentals snapshot.
	FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error)
}
