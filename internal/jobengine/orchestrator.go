package jobengine

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/aristath/sentinel/internal/domain"
	"github.com/aristath/sentinel/internal/utils"
)

const (
	progressWriteInterval = 500 * time.Millisecond
	setupBudget           = 60 * time.Second
	perStockBudget        = 10 * time.Second
	skipThresholdFloor    = 50
	topQualifiedLimit     = 50
)

// run drives one job from pending to a terminal state. It owns js
// exclusively except for the atomics workers update directly.
func (e *Engine) run(js *jobState) {
	defer utils.OperationTimer("job_run:"+js.snapshotJob().ID, e.log)()

	ctx := context.Background()

	js.mutate(func(j *domain.Job) {
		j.State = domain.JobRunning
		j.Stage = domain.StageResolvingUniverse
	})
	e.store.Put(js.snapshotJob())

	tickers, err := e.universe.Resolve(ctx, js.snapshotJob().Filter)
	if err != nil {
		e.fail(js, "universe_resolution_failed")
		return
	}

	totalUniverse := len(tickers)
	js.mutate(func(j *domain.Job) { j.TotalUniverse = totalUniverse })

	if totalUniverse == 0 {
		e.seal(js, totalUniverse, false)
		return
	}

	analysisSet := tickers
	if len(analysisSet) > js.maxStocks {
		analysisSet = analysisSet[:js.maxStocks]
	}

	js.mutate(func(j *domain.Job) {
		j.AnalysisSetSize = len(analysisSet)
		j.Stage = domain.StageFetchingData
	})
	e.store.Put(js.snapshotJob())

	deadline := setupBudget + time.Duration(math.Ceil(float64(len(analysisSet))/float64(js.workerCount)))*perStockBudget
	runCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	stopProgress := e.startProgressLoop(runCtx, js)
	defer stopProgress()

	returns, industryMedian := e.computeMomentumContext(runCtx, js, analysisSet)

	js.mutate(func(j *domain.Job) { j.Stage = domain.StageAnalyzing })

	truncated := e.fanOut(runCtx, js, analysisSet, returns, industryMedian)

	js.mutate(func(j *domain.Job) { j.Stage = domain.StageRanking })

	if js.isCancelled() {
		e.sealCancelled(js, totalUniverse)
		return
	}

	skipThreshold := skipThresholdFloor
	if half := len(analysisSet) / 2; half > skipThreshold {
		skipThreshold = half
	}
	if int(js.skipped.Load()) > skipThreshold {
		e.fail(js, "data_quality_below_threshold")
		return
	}

	js.mutate(func(j *domain.Job) { j.Stage = domain.StageFinalizing })
	e.seal(js, totalUniverse, truncated)
}

// startProgressLoop copies the orchestrator's atomic counters into the
// Job record and pushes it to ProgressStore at most once per
// progressWriteInterval, keeping poll-read cost O(1) without lock thrash
// on the hot per-ticker path.
func (e *Engine) startProgressLoop(ctx context.Context, js *jobState) (stop func()) {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressWriteInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				e.store.Put(js.mutate(func(j *domain.Job) {
					j.AnalyzedCount = int(js.analyzed.Load())
					j.QualifiedCount = int(js.qualified.Load())
					j.SkippedCount = int(js.skipped.Load())
					j.CurrentTicker = js.getCurrentTicker()
				}))
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// seal assembles and stores the FinalResult for a normally completed job
// (including the empty-universe case).
func (e *Engine) seal(js *jobState, totalUniverse int, truncated bool) {
	e.finish(js, domain.JobCompleted, totalUniverse, truncated, false, "")
}

// sealCancelled assembles and stores the FinalResult for a job that
// observed the cancellation flag mid-run.
func (e *Engine) sealCancelled(js *jobState, totalUniverse int) {
	e.finish(js, domain.JobCancelled, totalUniverse, false, true, "")
}

// fail assembles and stores the FinalResult for a job that could not
// continue (universe resolution failure, or skip count above threshold).
func (e *Engine) fail(js *jobState, reason string) {
	totalUniverse := js.snapshotJob().TotalUniverse
	e.finish(js, domain.JobFailed, totalUniverse, false, false, reason)
}

func (e *Engine) finish(js *jobState, state domain.JobState, totalUniverse int, truncated, cancelled bool, failureReason string) {
	completedAt := time.Now()
	scored := js.snapshotScored()
	analyzed := int(js.analyzed.Load())
	qualifiedCount := int(js.qualified.Load())
	skippedCount := int(js.skipped.Load())

	snap := js.snapshotJob()
	result := buildFinalResult(snap.ID, snap.StrategyID, state, snap.StartedAt, completedAt,
		scored, totalUniverse, snap.AnalysisSetSize, analyzed, qualifiedCount, skippedCount,
		truncated, cancelled, failureReason)

	js.mutate(func(j *domain.Job) {
		j.State = state
		j.Stage = domain.StageDone
		j.CompletedAt = completedAt
		j.Truncated = truncated
		j.Cancelled = cancelled
		j.FailureReason = failureReason
		j.AnalyzedCount = analyzed
		j.QualifiedCount = qualifiedCount
		j.SkippedCount = skippedCount
		j.Result = &result
	})
	e.store.Put(js.snapshotJob())

	if e.archiver != nil {
		if err := e.archiver.Save(context.Background(), result); err != nil {
			e.log.Warn().Err(err).Str("job_id", snap.ID).Msg("failed to archive job result")
		}
	}
	if e.exporter != nil {
		if err := e.exporter.Export(context.Background(), result); err != nil {
			e.log.Warn().Err(err).Str("job_id", snap.ID).Msg("failed to export job result")
		}
	}

	e.forget(snap.ID)
}

// buildFinalResult sorts scored stocks by score descending, market cap
// descending, ticker ascending, then assembles the sealed result.
func buildFinalResult(
	jobID, strategyID string,
	state domain.JobState,
	startedAt, completedAt time.Time,
	scored []domain.ScoredStock,
	totalUniverse, analysisSetSize, analyzed, qualifiedCount, skippedCount int,
	truncated, cancelled bool,
	failureReason string,
) domain.FinalResult {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Ticker.TotalMarketCap != scored[j].Ticker.TotalMarketCap {
			return scored[i].Ticker.TotalMarketCap > scored[j].Ticker.TotalMarketCap
		}
		return scored[i].Ticker.Code < scored[j].Ticker.Code
	})

	var qualified []domain.ScoredStock
	gradeDist := domain.GradeDistribution{}
	marketDist := domain.MarketDistribution{}
	var scoreSum, maxScore float64

	for _, s := range scored {
		if s.Qualified {
			qualified = append(qualified, s)
			gradeDist[s.Grade]++
		}
		marketDist[s.Ticker.Market]++
		scoreSum += s.Score
		if s.Score > maxScore {
			maxScore = s.Score
		}
	}

	topN := topQualifiedLimit
	if len(qualified) < topN {
		topN = len(qualified)
	}

	var avgScore float64
	if len(scored) > 0 {
		avgScore = scoreSum / float64(len(scored))
	}

	return domain.FinalResult{
		ExecutionID:        jobID,
		StrategyID:         strategyID,
		State:              state,
		StartedAt:          startedAt,
		CompletedAt:        completedAt,
		TotalUniverse:       totalUniverse,
		AnalysisSetSize:     analysisSetSize,
		Analyzed:            analyzed,
		Qualified:           qualifiedCount,
		Skipped:             skippedCount,
		TopQualified:        append([]domain.ScoredStock(nil), qualified[:topN]...),
		AllQualified:        qualified,
		GradeDistribution:  gradeDist,
		MarketDistribution: marketDist,
		AvgScore:           avgScore,
		MaxScore:           maxScore,
		Truncated:          truncated,
		Cancelled:          cancelled,
		FailureReason:      failureReason,
	}
}
