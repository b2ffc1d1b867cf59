package strategy

import "github.com/aristath/sentinel/internal/domain"

func f(v float64) *float64 { return &v }

// Registry is the process-local immutable list of StrategyDefinitions
// loaded at startup. Adding a strategy means adding an entry here; the
// engine itself is parameter-driven and needs no code change.
type Registry struct {
	byID map[string]domain.StrategyDefinition
	list []domain.StrategyDefinition
}

// NewRegistry builds the registry with the built-in strategy set.
func NewRegistry() *Registry {
	r := &Registry{byID: make(map[string]domain.StrategyDefinition)}
	for _, def := range builtins() {
		r.byID[def.ID] = def
		r.list = append(r.list, def)
	}
	return r
}

// Get returns the strategy definition by id, or domain.ErrUnknownStrategy.
func (r *Registry) Get(id string) (domain.StrategyDefinition, error) {
	def, ok := r.byID[id]
	if !ok {
		return domain.StrategyDefinition{}, domain.ErrUnknownStrategy
	}
	return def, nil
}

// List returns every registered strategy, in registration order.
func (r *Registry) List() []domain.StrategyDefinition {
	return r.list
}

func builtins() []domain.StrategyDefinition {
	return []domain.StrategyDefinition{
		{
			ID:       "blue-chip-stable",
			Name:     "Blue-chip Stable",
			Category: "value",
			RiskLevel: "low",
			ParameterSchema: []domain.ParamSpec{
				{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(25), Weight: 1},
				{Field: "pb", Kind: domain.ParamKindFundamental, Max: f(5), Weight: 1},
				{Field: "roe", Kind: domain.ParamKindFundamental, Min: f(8), Weight: 1},
				{Field: "market_cap", Kind: domain.ParamKindReference, Min: f(500), Weight: 1},
			},
			DefaultParameters: domain.StrategyParameters{
				"pe_max":         25,
				"pb_max":         3,
				"roe_min":        10,
				"market_cap_min": 1000,
			},
			MinScoreDefault: 60,
		},
		{
			ID:       "growth-momentum",
			Name:     "Growth Momentum",
			Category: "growth",
			RiskLevel: "high",
			ParameterSchema: []domain.ParamSpec{
				{Field: "revenue_growth", Kind: domain.ParamKindFundamental, Min: f(15), Weight: 1.5},
				{Field: "profit_growth", Kind: domain.ParamKindFundamental, Min: f(10), Weight: 1.5},
				{Field: "pe", Kind: domain.ParamKindFundamental, Max: f(80), Weight: 0.5},
			},
			DefaultParameters: domain.StrategyParameters{
				"revenue_growth_min": 20,
				"profit_growth_min":  15,
				"pe_max":             80,
			},
			MinScoreDefault: 55,
		},
		{
			ID:       "dividend-income",
			Name:     "Dividend Income",
			Category: "income",
			RiskLevel: "low",
			ParameterSchema: []domain.ParamSpec{
				{Field: "dividend_yield", Kind: domain.ParamKindFundamental, Min: f(2), Weight: 2, Hard: true},
				{Field: "payout_ratio", Kind: domain.ParamKindFundamental, Max: f(80), Weight: 1},
				{Field: "debt_ratio", Kind: domain.ParamKindFundamental, Max: f(60), Weight: 1},
			},
			DefaultParameters: domain.StrategyParameters{
				"dividend_yield_min": 3,
				"payout_ratio_max":   70,
				"debt_ratio_max":     55,
			},
			MinScoreDefault: 60,
		},
	}
}
