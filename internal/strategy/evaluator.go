// Package strategy implements StrategyEvaluator: applying a named
// strategy's parameter schema to one ticker's merged data to produce a
// numeric score and a qualified/rejected verdict. Generalized from the
// teacher's fixed five-component weighted scoring
// (internal/evaluation/scoring.go) to an arbitrary ordered ParamSpec list
// read through domain's field-accessor table.
package strategy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aristath/sentinel/internal/domain"
)

// Input is everything the evaluator needs about one ticker, assembled by
// the caller (JobEngine) from DataGateway + IndicatorKernel output.
type Input struct {
	Ticker       domain.TickerRef
	Snapshot     domain.QuoteSnapshot
	History      domain.History
	Fundamentals domain.Fundamentals
	Indicators   domain.IndicatorSet

	// TwentyBarReturn is the 20-bar percent return ending at the latest
	// close, precomputed by the caller from History.
	TwentyBarReturn float64

	// IndustryMedianReturn is the median TwentyBarReturn across the
	// current analysis set's tickers in the same industry, precomputed
	// once by JobEngine before fan-out so the evaluator stays pure and
	// the result is independent of worker scheduling order.
	IndustryMedianReturn float64
}

type boundOutcome struct {
	spec      domain.ParamSpec
	satisfied bool
	absent    bool
	hardFail  bool
}

// Evaluate applies def's parameter schema bound to params against in,
// producing a ScoredStock. Deterministic: same (def, params, in) always
// yields the same ScoredStock; it never performs I/O.
func Evaluate(def domain.StrategyDefinition, params domain.StrategyParameters, in Input, minScore float64) domain.ScoredStock {
	outcomes := make([]boundOutcome, 0, len(def.ParameterSchema))
	var satisfiedWeight, totalWeight float64
	var signalsCount int
	hardViolation := false

	for _, spec := range def.ParameterSchema {
		value, present := fieldValue(spec, in)
		weight := spec.EffectiveWeight()
		totalWeight += weight

		switch {
		case !present:
			outcomes = append(outcomes, boundOutcome{spec: spec, absent: true, hardFail: spec.Hard})
			if spec.Hard {
				hardViolation = true
			}
		case withinBound(value, spec, params):
			satisfiedWeight += weight
			signalsCount++
			outcomes = append(outcomes, boundOutcome{spec: spec, satisfied: true})
		default:
			outcomes = append(outcomes, boundOutcome{spec: spec, hardFail: spec.Hard})
			if spec.Hard {
				hardViolation = true
			}
		}
	}

	raw := 100.0
	if totalWeight > 0 {
		raw = satisfiedWeight / totalWeight * 100
	}

	bonus := technicalAlignmentBonus(in) + momentumBonus(in)
	score := clip(raw+bonus, 0, 100)

	grade := domain.GradeFromScore(score)
	qualified := score >= minScore && !hardViolation

	return domain.ScoredStock{
		Ticker:       in.Ticker,
		Snapshot:     in.Snapshot,
		Indicators:   in.Indicators,
		Score:        score,
		Grade:        grade,
		Qualified:    qualified,
		Reason:       reason(outcomes),
		SignalsCount: signalsCount,
		DataSource:   in.Snapshot.Source,
	}
}

// fieldValue reads spec.Field from the input according to its Kind.
func fieldValue(spec domain.ParamSpec, in Input) (float64, bool) {
	switch spec.Kind {
	case domain.ParamKindFundamental:
		return in.Fundamentals.Field(spec.Field)
	case domain.ParamKindSnapshot:
		return snapshotField(spec.Field, in.Snapshot)
	case domain.ParamKindReference:
		return referenceField(spec.Field, in.Ticker)
	default:
		return 0, false
	}
}

func snapshotField(field string, s domain.QuoteSnapshot) (float64, bool) {
	switch field {
	case "percent_change":
		return s.PercentChange(), true
	case "turnover_rate":
		return s.TurnoverRate, true
	case "close":
		return s.Close, true
	case "volume":
		return s.Volume, true
	default:
		return 0, false
	}
}

func referenceField(field string, t domain.TickerRef) (float64, bool) {
	switch field {
	case "market_cap":
		return t.TotalMarketCap, true
	case "free_float_cap":
		return t.FreeFloatMarketCap, true
	default:
		return 0, false
	}
}

// withinBound reports whether value satisfies spec's [min, max] bound as
// overridden by the caller-supplied params for that field, falling back to
// the schema's own Min/Max when params has no override.
func withinBound(value float64, spec domain.ParamSpec, params domain.StrategyParameters) bool {
	min, hasMin := boundValue(spec.Field, "min", spec.Min, params)
	max, hasMax := boundValue(spec.Field, "max", spec.Max, params)
	if hasMin && value < min {
		return false
	}
	if hasMax && value > max {
		return false
	}
	return true
}

// boundValue resolves one side of a bound: params["<field>_<side>"]
// overrides the schema default when present.
func boundValue(field, side string, schemaDefault *float64, params domain.StrategyParameters) (float64, bool) {
	if v, ok := params[field+"_"+side]; ok {
		return v, true
	}
	if schemaDefault != nil {
		return *schemaDefault, true
	}
	return 0, false
}

// technicalAlignmentBonus awards up to +10 when the indicator set shows a
// bullish MACD crossover within the last 3 bars and price is above MA20.
func technicalAlignmentBonus(in Input) float64 {
	if !in.Indicators.BullishMACDCrossover() {
		return 0
	}
	if in.Indicators.MA20 == nil || in.Snapshot.Close <= *in.Indicators.MA20 {
		return 0
	}
	return 10
}

// momentumBonus awards up to +5 when the ticker's 20-bar return exceeds
// its industry's median 20-bar return.
func momentumBonus(in Input) float64 {
	if in.TwentyBarReturn <= in.IndustryMedianReturn {
		return 0
	}
	return 5
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// reason reports the first bound that failed, or a summary of the
// highest-weighted satisfied bounds when none failed.
func reason(outcomes []boundOutcome) string {
	for _, o := range outcomes {
		if o.hardFail {
			return fmt.Sprintf("failed hard bound on %s", o.spec.Field)
		}
		if !o.satisfied && !o.absent {
			return fmt.Sprintf("failed bound on %s", o.spec.Field)
		}
	}

	satisfied := make([]boundOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.satisfied {
			satisfied = append(satisfied, o)
		}
	}
	if len(satisfied) == 0 {
		return "no bounds evaluated"
	}
	sort.Slice(satisfied, func(i, j int) bool {
		return satisfied[i].spec.EffectiveWeight() > satisfied[j].spec.EffectiveWeight()
	})

	top := satisfied
	if len(top) > 3 {
		top = top[:3]
	}
	fields := make([]string, len(top))
	for i, o := range top {
		fields[i] = o.spec.Field
	}
	return "satisfied " + strings.Join(fields, ", ")
}
