package domain

import "time"

// JobState is a node in the job lifecycle graph. Transitions only move
// forward; there is no path out of a terminal state.
type JobState string

const (
	JobPending   JobState = "pending"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
	JobCancelled JobState = "cancelled"
)

// IsTerminal reports whether the state has no outgoing transitions.
func (s JobState) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// CanTransitionTo reports whether s -> next is a legal edge in the job
// lifecycle graph (spec.md §4.7.2).
func (s JobState) CanTransitionTo(next JobState) bool {
	switch s {
	case JobPending:
		return next == JobRunning || next == JobCancelled
	case JobRunning:
		return next == JobCompleted || next == JobFailed || next == JobCancelled
	default:
		return false
	}
}

// Stage is the orchestrator's current pipeline phase, used to derive the
// progress-percent floor even before the analysis set size is known.
type Stage string

const (
	StageInitializing     Stage = "initializing"
	StageResolvingUniverse Stage = "resolving-universe"
	StageFetchingData     Stage = "fetching-data"
	StageAnalyzing        Stage = "analyzing"
	StageRanking          Stage = "ranking"
	StageFinalizing       Stage = "finalizing"
	StageDone             Stage = "done"
)

// stageFloors gives each stage a minimum progress percent so the bar never
// regresses even while analyzed_count/total_count is still small or zero.
var stageFloors = map[Stage]int{
	StageInitializing:      0,
	StageResolvingUniverse: 2,
	StageFetchingData:      5,
	StageAnalyzing:         5,
	StageRanking:           90,
	StageFinalizing:        95,
	StageDone:              100,
}

// StageFloor returns the stage's progress-percent floor.
func StageFloor(s Stage) int {
	return stageFloors[s]
}

// StartRequest is the input to JobEngine.Start.
type StartRequest struct {
	StrategyID    string
	Parameters    StrategyParameters
	Filter        UniverseFilter
	MinScore      float64
	MaxStocks     int
	WorkerCount   int
}

// Job is the full lifecycle record for one strategy execution.
type Job struct {
	ID         string
	StrategyID string
	Parameters StrategyParameters
	Filter     UniverseFilter
	MinScore   float64

	State         JobState
	Stage         Stage
	StartedAt     time.Time
	CompletedAt   time.Time

	TotalUniverse   int
	AnalysisSetSize int
	AnalyzedCount   int
	QualifiedCount  int
	SkippedCount    int
	CurrentTicker   string

	Truncated bool
	Cancelled bool
	FailureReason string

	Result *FinalResult
}

// ProgressView is the read-only projection of a Job exposed to pollers.
type ProgressView struct {
	JobID          string   `json:"job_id"`
	State          JobState `json:"state"`
	Stage          Stage    `json:"stage"`
	Percent        int      `json:"percent"`
	Total          int      `json:"total"`
	Analyzed       int      `json:"analyzed"`
	Qualified      int      `json:"qualified"`
	Skipped        int      `json:"skipped"`
	CurrentTicker  string   `json:"current_ticker,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
}

// GradeDistribution counts qualified stocks per grade bucket.
type GradeDistribution map[Grade]int

// MarketDistribution counts analyzed stocks per market.
type MarketDistribution map[Market]int

// FinalResult is the sealed outcome of a completed, failed, or cancelled job.
type FinalResult struct {
	ExecutionID     string    `json:"execution_id"`
	StrategyID      string    `json:"strategy_id"`
	State           JobState  `json:"state"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	TotalUniverse   int       `json:"total_universe"`
	AnalysisSetSize int       `json:"analysis_set_size"`
	Analyzed        int       `json:"analyzed"`
	Qualified       int       `json:"qualified"`
	Skipped         int       `json:"skipped"`

	TopQualified []ScoredStock `json:"top_qualified"`
	AllQualified []ScoredStock `json:"all_qualified"`

	GradeDistribution  GradeDistribution  `json:"grade_distribution"`
	MarketDistribution MarketDistribution `json:"market_distribution"`
	AvgScore           float64            `json:"avg_score"`
	MaxScore           float64            `json:"max_score"`

	Truncated     bool   `json:"truncated"`
	Cancelled     bool   `json:"cancelled"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// Snapshot produces the ProgressView for the job's current state.
func (j *Job) Snapshot() ProgressView {
	total := j.AnalysisSetSize
	percent := StageFloor(j.Stage)
	if total > 0 {
		pct := j.AnalyzedCount * 100 / total
		if pct > percent {
			percent = pct
		}
	}
	if percent > 100 {
		percent = 100
	}
	elapsed := time.Since(j.StartedAt).Seconds()
	if j.State.IsTerminal() && !j.CompletedAt.IsZero() {
		elapsed = j.CompletedAt.Sub(j.StartedAt).Seconds()
	}
	return ProgressView{
		JobID:          j.ID,
		State:          j.State,
		Stage:          j.Stage,
		Percent:        percent,
		Total:          total,
		Analyzed:       j.AnalyzedCount,
		Qualified:      j.QualifiedCount,
		Skipped:        j.SkippedCount,
		CurrentTicker:  j.CurrentTicker,
		StartedAt:      j.StartedAt,
		ElapsedSeconds: elapsed,
	}
}
