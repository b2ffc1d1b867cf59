package jobengine

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/indicators"
	"github.com/aristath/sentinel/internal/strategy"
)

// momentumLookback is the bar count the momentum bonus's 20-bar return is
// measured over, plus one for the starting bar.
const momentumLookback = 21

// computeMomentumContext pre-fetches history for the whole analysis set and
// derives each ticker's 20-bar return plus its industry's median, so
// StrategyEvaluator's momentum bonus stays pure and independent of
// per-ticker worker scheduling order. Runs with the same worker budget as
// the main fan-out since it shares the DataGateway and its rate limiters.
func (e *Engine) computeMomentumContext(ctx context.Context, js *jobState, analysisSet []domain.TickerRef) (returns, industryMedian map[string]float64) {
	returns = make(map[string]float64, len(analysisSet))
	byIndustry := make(map[string][]float64)

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, js.workerCount)

	for _, t := range analysisSet {
		if ctx.Err() != nil || js.isCancelled() {
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(t domain.TickerRef) {
			defer wg.Done()
			defer func() { <-sem }()

			history, err := e.gateway.FetchHistory(ctx, t.Code, historyLookbackDays)
			if err != nil || len(history) < momentumLookback {
				return
			}
			closes := history.Closes()
			base := closes[len(closes)-momentumLookback]
			if base == 0 {
				return
			}
			ret := (closes[len(closes)-1] - base) / base * 100

			mu.Lock()
			returns[t.Code] = ret
			byIndustry[t.Industry] = append(byIndustry[t.Industry], ret)
			mu.Unlock()
		}(t)
	}
	wg.Wait()

	industryMedian = make(map[string]float64, len(byIndustry))
	for industry, values := range byIndustry {
		industryMedian[industry] = median(values)
	}
	return returns, industryMedian
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// fanOut submits analysisSet to a bounded worker pool and blocks until
// every submitted ticker has been analyzed. It reports whether the soft
// deadline expired before the fan-out finished, whether during submission
// or while the submitted tickers were still being analyzed.
func (e *Engine) fanOut(ctx context.Context, js *jobState, analysisSet []domain.TickerRef, returns, industryMedian map[string]float64) (truncated bool) {
	jobs := make(chan domain.TickerRef, js.workerCount)
	var wg sync.WaitGroup

	for i := 0; i < js.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				if js.isCancelled() {
					continue
				}
				e.analyzeOne(ctx, js, t, returns, industryMedian)
			}
		}()
	}

submit:
	for _, t := range analysisSet {
		if js.isCancelled() {
			break submit
		}
		select {
		case jobs <- t:
		case <-ctx.Done():
			truncated = true
			break submit
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil {
		truncated = true
	}
	return truncated
}

// analyzeOne runs the full per-ticker pipeline: fetch snapshot, history,
// and fundamentals through DataGateway, compute indicators, then score via
// StrategyEvaluator. Any fetch failure or mid-pipeline cancellation skips
// the ticker rather than failing the job.
func (e *Engine) analyzeOne(ctx context.Context, js *jobState, t domain.TickerRef, returns, industryMedian map[string]float64) {
	js.setCurrentTicker(t.Code)

	if js.isCancelled() || ctx.Err() != nil {
		return
	}

	snapshots, err := e.gateway.FetchSnapshotBatch(ctx, []string{t.Code})
	if err != nil {
		e.log.Warn().Str("ticker", t.Code).Err(err).Msg("ticker skipped")
		js.skipped.Add(1)
		return
	}
	snapshot, ok := snapshots[t.Code]
	if !ok {
		e.log.Warn().Str("ticker", t.Code).Msg("ticker skipped: no snapshot")
		js.skipped.Add(1)
		return
	}

	if js.isCancelled() || ctx.Err() != nil {
		return
	}

	history, err := e.gateway.FetchHistory(ctx, t.Code, historyLookbackDays)
	if err != nil {
		e.log.Warn().Str("ticker", t.Code).Err(err).Msg("ticker skipped")
		js.skipped.Add(1)
		return
	}

	fundamentals, err := e.gateway.FetchFundamentals(ctx, t.Code)
	if err != nil {
		e.log.Warn().Str("ticker", t.Code).Err(err).Msg("ticker skipped")
		js.skipped.Add(1)
		return
	}

	if js.isCancelled() || ctx.Err() != nil {
		return
	}

	indicatorSet := indicators.Compute(history)

	job := js.snapshotJob()
	scored := strategy.Evaluate(js.def, job.Parameters, strategy.Input{
		Ticker:               t,
		Snapshot:             snapshot,
		History:              history,
		Fundamentals:         fundamentals,
		Indicators:           indicatorSet,
		TwentyBarReturn:      returns[t.Code],
		IndustryMedianReturn: industryMedian[t.Industry],
	}, job.MinScore)

	js.commit(scored)
	js.analyzed.Add(1)
	if scored.Qualified {
		js.qualified.Add(1)
	}
}
