package jobengine

import (
	"sync"
	"sync/atomic"

	"github.com/aristath/sentinel/internal/domain"
)

// jobState is the orchestrator's private, mutable view of one job. Reads
// via Progress/Result go through ProgressStore instead, which receives a
// throttled copy of job (see (*jobState).snapshotJob); jobState itself is
// touched only by this job's own orchestrator goroutine plus the handful
// of atomics its workers update directly.
type jobState struct {
	mu  sync.Mutex
	job domain.Job

	def         domain.StrategyDefinition
	workerCount int
	maxStocks   int

	cancelled atomic.Bool

	scoredMu sync.Mutex
	scored   []domain.ScoredStock

	analyzed      atomic.Int64
	qualified     atomic.Int64
	skipped       atomic.Int64
	currentTicker atomic.Value
}

// snapshotJob returns a copy of the current Job record.
func (js *jobState) snapshotJob() domain.Job {
	js.mu.Lock()
	defer js.mu.Unlock()
	return js.job
}

// mutate applies fn to the live Job under lock and returns the updated copy.
func (js *jobState) mutate(fn func(*domain.Job)) domain.Job {
	js.mu.Lock()
	defer js.mu.Unlock()
	fn(&js.job)
	return js.job
}

// commit adds a completed ScoredStock to the accumulator under a single
// lock, so no reader ever observes a half-written entry.
func (js *jobState) commit(s domain.ScoredStock) {
	js.scoredMu.Lock()
	defer js.scoredMu.Unlock()
	js.scored = append(js.scored, s)
}

// snapshotScored returns a copy of the accumulator slice.
func (js *jobState) snapshotScored() []domain.ScoredStock {
	js.scoredMu.Lock()
	defer js.scoredMu.Unlock()
	out := make([]domain.ScoredStock, len(js.scored))
	copy(out, js.scored)
	return out
}

// setCurrentTicker is a best-effort write: no lock contention on the hot
// path, just an atomic.Value swap.
func (js *jobState) setCurrentTicker(code string) {
	js.currentTicker.Store(code)
}

func (js *jobState) getCurrentTicker() string {
	v := js.currentTicker.Load()
	if v == nil {
		return ""
	}
	return v.(string)
}

// isCancelled reports the cooperative cancellation flag.
func (js *jobState) isCancelled() bool {
	return js.cancelled.Load()
}
