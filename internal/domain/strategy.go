package domain

// ParamKind is the field a strategy parameter is evaluated against.
type ParamKind string

const (
	// ParamKindFundamental reads a Fundamentals field by name (pe, pb, roe, ...).
	ParamKindFundamental ParamKind = "fundamental"
	// ParamKindSnapshot reads a QuoteSnapshot-derived field (percent_change, turnover_rate, ...).
	ParamKindSnapshot ParamKind = "snapshot"
	// ParamKindReference reads a TickerRef field (market_cap, free_float_cap, ...).
	ParamKindReference ParamKind = "reference"
)

// ParamSpec is one named numeric bound in a strategy's parameter schema.
type ParamSpec struct {
	Field  string    `json:"field"`
	Kind   ParamKind `json:"kind"`
	Min    *float64  `json:"min,omitempty"`
	Max    *float64  `json:"max,omitempty"`
	Weight float64   `json:"weight"` // 0 means "use default weight of 1"
	Hard   bool      `json:"hard"`   // true: absent field rejects the ticker
}

// EffectiveWeight returns the parameter's weight, defaulting to 1 when unset.
func (p ParamSpec) EffectiveWeight() float64 {
	if p.Weight == 0 {
		return 1
	}
	return p.Weight
}

// StrategyDefinition is an immutable, process-local description of a
// screening strategy: identity plus an ordered parameter schema.
type StrategyDefinition struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	Category          string             `json:"category"`
	RiskLevel         string             `json:"risk_level"`
	ParameterSchema   []ParamSpec        `json:"parameter_schema"`
	DefaultParameters StrategyParameters `json:"default_parameters"`
	MinScoreDefault   float64            `json:"min_score_default"`
}

// StrategyParameters is a concrete binding of numeric values to a
// strategy's schema, keyed by ParamSpec.Field.
type StrategyParameters map[string]float64

// Grade is the letter bucket derived from a numeric score.
type Grade string

const (
	GradeS Grade = "S"
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// GradeFromScore buckets a [0,100] score into a letter grade.
func GradeFromScore(score float64) Grade {
	switch {
	case score >= 90:
		return GradeS
	case score >= 80:
		return GradeA
	case score >= 70:
		return GradeB
	case score >= 60:
		return GradeC
	default:
		return GradeD
	}
}

// ScoredStock is the outcome of evaluating one ticker against one strategy.
type ScoredStock struct {
	Ticker    TickerRef `json:"ticker"`
	Snapshot  QuoteSnapshot `json:"snapshot"`
	Indicators IndicatorSet `json:"-"`

	Score        float64 `json:"score"`
	Grade        Grade   `json:"grade"`
	Qualified    bool    `json:"qualified"`
	Reason       string  `json:"reason"`
	SignalsCount int     `json:"signals_count"`

	// DataSource records which provider ultimately served this ticker's
	// data, for FinalResult's data-source breakdown.
	DataSource string `json:"data_source"`
}
