// Package jobengine implements JobEngine: the strategy-execution
// orchestrator at the center of the service. It accepts a start request,
// allocates a bounded worker pool, drives the per-ticker fan-out, and
// seals a ranked FinalResult, all while ProgressStore stays pollable.
package jobengine

import (
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/domain"
)

const (
	minWorkerCount = 1
	maxWorkerCount = 16
	historyLookbackDays = 130 // enough for MA60 plus KDJ/MACD warmup
)

// Engine is JobEngine.
type Engine struct {
	universe   universeResolver
	gateway    dataSource
	strategies strategyRegistry
	store      store
	archiver   archiver // optional; nil skips durable persistence
	exporter   exporter // optional; nil skips off-box export

	log zerolog.Logger

	defaultWorkerCount int
	maxConcurrentJobs  int

	mu     sync.Mutex
	active map[string]*jobState // jobs not yet terminal, owned by this engine
}

// New builds an Engine.
func New(universe universeResolver, gateway dataSource, strategies strategyRegistry, store store, defaultWorkerCount, maxConcurrentJobs int, log zerolog.Logger) *Engine {
	return &Engine{
		universe:           universe,
		gateway:            gateway,
		strategies:         strategies,
		store:              store,
		log:                log.With().Str("component", "jobengine").Logger(),
		defaultWorkerCount: defaultWorkerCount,
		maxConcurrentJobs:  maxConcurrentJobs,
		active:             make(map[string]*jobState),
	}
}

// WithArchiver attaches a durable archive sink; sealed jobs are persisted
// there in addition to ProgressStore's bounded in-memory view.
func (e *Engine) WithArchiver(a archiver) *Engine {
	e.archiver = a
	return e
}

// WithExporter attaches an optional off-box export sink; sealed jobs are
// uploaded there in addition to any durable archive.
func (e *Engine) WithExporter(x exporter) *Engine {
	e.exporter = x
	return e
}

// Start validates req, allocates a job, and launches its orchestrator in
// the background. It returns the new job's id immediately.
func (e *Engine) Start(req domain.StartRequest) (string, error) {
	def, err := e.strategies.Get(req.StrategyID)
	if err != nil {
		return "", domain.ErrUnknownStrategy
	}

	if err := req.Filter.Validate(); err != nil {
		return "", err
	}

	if req.MaxStocks <= 0 {
		return "", domain.ErrInvalidParameters
	}
	if req.MinScore < 0 || req.MinScore > 100 {
		return "", domain.ErrInvalidParameters
	}
	for _, v := range req.Parameters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "", domain.ErrInvalidParameters
		}
	}

	workerCount := req.WorkerCount
	if workerCount <= 0 {
		workerCount = e.defaultWorkerCount
	}
	if workerCount < minWorkerCount {
		workerCount = minWorkerCount
	}
	if workerCount > maxWorkerCount {
		workerCount = maxWorkerCount
	}

	minScore := req.MinScore
	if minScore == 0 {
		minScore = def.MinScoreDefault
	}

	params := mergeParameters(def.DefaultParameters, req.Parameters)

	e.mu.Lock()
	if e.countActive() >= e.maxConcurrentJobs {
		e.mu.Unlock()
		return "", domain.ErrCapacityExceeded
	}

	id := uuid.NewString()
	js := &jobState{
		job: domain.Job{
			ID:         id,
			StrategyID: req.StrategyID,
			Parameters: params,
			Filter:     req.Filter,
			MinScore:   minScore,
			State:      domain.JobPending,
			Stage:      domain.StageInitializing,
			StartedAt:  time.Now(),
		},
		def:         def,
		workerCount: workerCount,
		maxStocks:   req.MaxStocks,
	}
	e.active[id] = js
	e.mu.Unlock()

	e.store.Put(js.snapshotJob())

	go e.run(js)

	return id, nil
}

func (e *Engine) countActive() int {
	n := 0
	for _, js := range e.active {
		if !js.snapshotJob().State.IsTerminal() {
			n++
		}
	}
	return n
}

// mergeParameters overlays overrides on top of defaults, field by field.
func mergeParameters(defaults, overrides domain.StrategyParameters) domain.StrategyParameters {
	merged := make(domain.StrategyParameters, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

// Progress implements JobEngine.Progress.
func (e *Engine) Progress(id string) (domain.ProgressView, error) {
	job, err := e.store.Get(id)
	if err != nil {
		return domain.ProgressView{}, err
	}
	return job.Snapshot(), nil
}

// Result implements JobEngine.Result.
func (e *Engine) Result(id string) (domain.FinalResult, error) {
	job, err := e.store.Get(id)
	if err != nil {
		return domain.FinalResult{}, err
	}
	if !job.State.IsTerminal() {
		return domain.FinalResult{}, domain.ErrResultNotReady
	}
	if job.Result == nil {
		return domain.FinalResult{}, domain.ErrResultNotReady
	}
	return *job.Result, nil
}

// Cancel implements JobEngine.Cancel: it flips a flag observable by every
// worker of the job and returns immediately. The job reaches the
// cancelled state asynchronously once the orchestrator observes the flag.
func (e *Engine) Cancel(id string) error {
	e.mu.Lock()
	js, ok := e.active[id]
	e.mu.Unlock()
	if !ok {
		job, err := e.store.Get(id)
		if err != nil {
			return err
		}
		if job.State.IsTerminal() {
			return domain.ErrAlreadyTerminal
		}
		return domain.ErrJobNotFound
	}

	if js.snapshotJob().State.IsTerminal() {
		return domain.ErrAlreadyTerminal
	}
	js.cancelled.Store(true)
	return nil
}

// forget removes a job from the live active set once its orchestrator has
// sealed it, so countActive doesn't scan dead entries forever.
func (e *Engine) forget(id string) {
	e.mu.Lock()
	delete(e.active, id)
	e.mu.Unlock()
}
