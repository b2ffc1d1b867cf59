package jobengine

import (
	"context"

	"github.com/aristath/sentinel/internal/domain"
)

// dataSource is the capability jobengine needs from DataGateway.
type dataSource interface {
	FetchSnapshotBatch(ctx context.Context, codes []string) (map[string]domain.QuoteSnapshot, error)
	FetchHistory(ctx context.Context, code string, lookbackDays int) (domain.History, error)
	FetchFundamentals(ctx context.Context, code string) (domain.Fundamentals, error)
}

// universeResolver is the capability jobengine needs from UniverseResolver.
type universeResolver interface {
	Resolve(ctx context.Context, filter domain.UniverseFilter) ([]domain.TickerRef, error)
}

// strategyRegistry is the capability jobengine needs from the strategy registry.
type strategyRegistry interface {
	Get(id string) (domain.StrategyDefinition, error)
}

// store is the capability jobengine needs from ProgressStore.
type store interface {
	Put(job domain.Job)
	Get(id string) (domain.Job, error)
}

// archiver is the capability jobengine needs from the durable job archive.
// Optional: a nil archiver simply skips durable persistence.
type archiver interface {
	Save(ctx context.Context, result domain.FinalResult) error
}

// exporter is the capability jobengine needs from the optional S3 export
// sink. Optional: a nil exporter simply skips off-box export.
type exporter interface {
	Export(ctx context.Context, result domain.FinalResult) error
}
