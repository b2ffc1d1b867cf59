package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/sentinel/internal/domain"
)

func simpleDef(specs ...domain.ParamSpec) domain.StrategyDefinition {
	return domain.StrategyDefinition{ID: "test", ParameterSchema: specs}
}

func TestEvaluateAllBoundsSatisfied(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(25)},
		domain.ParamSpec{Field: "roe", Kind: domain.ParamKindFundamental, Min: f(8)},
	)
	in := Input{
		Ticker:       domain.TickerRef{Code: "600001"},
		Fundamentals: domain.Fundamentals{PE: f(15), ROE: f(12)},
	}

	out := Evaluate(def, nil, in, 50)

	assert.Equal(t, 100.0, out.Score)
	assert.True(t, out.Qualified)
	assert.Equal(t, 2, out.SignalsCount)
	assert.Equal(t, domain.GradeS, out.Grade)
}

func TestEvaluateCopiesSnapshotSourceIntoDataSource(t *testing.T) {
	def := simpleDef()
	in := Input{
		Ticker:   domain.TickerRef{Code: "600001"},
		Snapshot: domain.QuoteSnapshot{Close: 10, Source: "eastmoney"},
	}

	out := Evaluate(def, nil, in, 0)

	assert.Equal(t, "eastmoney", out.DataSource)
}

func TestEvaluateSoftViolationLowersScoreButDoesNotDisqualifyByItself(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(25), Weight: 1},
		domain.ParamSpec{Field: "roe", Kind: domain.ParamKindFundamental, Min: f(8), Weight: 1},
	)
	in := Input{
		Fundamentals: domain.Fundamentals{PE: f(40), ROE: f(12)}, // PE fails, ROE passes
	}

	out := Evaluate(def, nil, in, 40)

	assert.Equal(t, 50.0, out.Score) // one of two equally-weighted bounds satisfied
	assert.True(t, out.Qualified, "score 50 >= minScore 40 and no hard violation")
	assert.Contains(t, out.Reason, "pe")
}

func TestEvaluateHardViolationDisqualifiesRegardlessOfScore(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "dividend_yield", Kind: domain.ParamKindFundamental, Min: f(2), Hard: true},
		domain.ParamSpec{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(100)},
	)
	in := Input{
		Fundamentals: domain.Fundamentals{DividendYield: f(0.5), PE: f(10)},
	}

	out := Evaluate(def, nil, in, 0)

	assert.False(t, out.Qualified, "a hard bound violation must disqualify even with minScore 0")
	assert.Contains(t, out.Reason, "dividend_yield")
}

func TestEvaluateAbsentFieldIsNeitherSatisfiedNorFailedUnlessHard(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(25)},
	)
	in := Input{Fundamentals: domain.Fundamentals{}} // PE absent

	out := Evaluate(def, nil, in, 0)

	assert.Equal(t, 0, out.SignalsCount)
	assert.True(t, out.Qualified, "an absent soft field must not count as a violation")
}

func TestEvaluateAbsentHardFieldDisqualifies(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "dividend_yield", Kind: domain.ParamKindFundamental, Min: f(2), Hard: true},
	)
	in := Input{Fundamentals: domain.Fundamentals{}}

	out := Evaluate(def, nil, in, 0)
	assert.False(t, out.Qualified)
}

func TestEvaluateParamsOverrideSchemaDefaults(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(25)},
	)
	in := Input{Fundamentals: domain.Fundamentals{PE: f(30)}}

	withDefault := Evaluate(def, nil, in, 0)
	assert.False(t, withDefault.Qualified == true && withDefault.SignalsCount == 1, "sanity: PE 30 fails default max 25")

	withOverride := Evaluate(def, domain.StrategyParameters{"pe_max": 50}, in, 0)
	assert.Equal(t, 1, withOverride.SignalsCount, "override should let PE 30 satisfy a raised max of 50")
}

func TestEvaluateTechnicalAlignmentBonus(t *testing.T) {
	def := simpleDef() // empty schema: raw score defaults to 100
	ma20 := 10.0
	in := Input{
		Snapshot: domain.QuoteSnapshot{Close: 12},
		Indicators: domain.IndicatorSet{
			MA20: &ma20,
			MACDHistory: []domain.MACD{
				{DIF: -1, DEA: 0},
				{DIF: 1, DEA: 0},
			},
		},
	}

	out := Evaluate(def, nil, in, 0)
	assert.Equal(t, 100.0, out.Score, "raw 100 + bonus 10 is clipped to 100")
}

func TestEvaluateMomentumBonus(t *testing.T) {
	def := domain.StrategyDefinition{
		ID: "test",
		ParameterSchema: []domain.ParamSpec{
			{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(1)}, // always fails -> raw 0
		},
	}
	in := Input{
		Fundamentals:         domain.Fundamentals{PE: f(99)},
		TwentyBarReturn:      10,
		IndustryMedianReturn: 2,
	}

	out := Evaluate(def, nil, in, 0)
	assert.Equal(t, 5.0, out.Score, "raw 0 + momentum bonus 5")
}

func TestEvaluateEmptySchemaYieldsFullRawScore(t *testing.T) {
	def := simpleDef()
	out := Evaluate(def, nil, Input{}, 0)
	assert.Equal(t, 100.0, out.Score)
	assert.True(t, out.Qualified)
}

func TestEvaluateFieldAccessorsAcrossKinds(t *testing.T) {
	def := simpleDef(
		domain.ParamSpec{Field: "percent_change", Kind: domain.ParamKindSnapshot, Min: f(0)},
		domain.ParamSpec{Field: "market_cap", Kind: domain.ParamKindReference, Min: f(100)},
	)
	in := Input{
		Snapshot: domain.QuoteSnapshot{Close: 11, PreviousClose: 10},
		Ticker:   domain.TickerRef{TotalMarketCap: 500},
	}

	out := Evaluate(def, nil, in, 0)
	assert.Equal(t, 2, out.SignalsCount)
}
