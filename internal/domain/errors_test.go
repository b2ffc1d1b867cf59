package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrongerError(t *testing.T) {
	wrapped := fmt.Errorf("wrapped: %w", ErrRateLimited)

	tests := []struct {
		name string
		a, b error
		want error
	}{
		{"a nil returns b", nil, ErrNotFound, ErrNotFound},
		{"b nil returns a", ErrMalformed, nil, ErrMalformed},
		{"both nil returns nil", nil, nil, nil},
		{"unavailable beats malformed", ErrUnavailable, ErrMalformed, ErrUnavailable},
		{"malformed beats rate limited", ErrMalformed, ErrRateLimited, ErrMalformed},
		{"rate limited beats not found", ErrRateLimited, ErrNotFound, ErrRateLimited},
		{"order doesn't matter", ErrNotFound, ErrUnavailable, ErrUnavailable},
		{"wrapped error still ranks by its sentinel", wrapped, ErrNotFound, wrapped},
		{"unranked error loses to a ranked one", errors.New("boom"), ErrNotFound, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StrongerError(tt.a, tt.b)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarketFromCode(t *testing.T) {
	tests := []struct {
		code string
		want Market
	}{
		{"600519", MarketPrimary},
		{"688981", MarketPrimary},
		{"000001", MarketSecondary},
		{"300750", MarketSecondary},
		{"830799", MarketTertiary},
		{"400001", MarketTertiary},
		{"999999", MarketUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, MarketFromCode(tt.code))
		})
	}
}

func TestGradeFromScore(t *testing.T) {
	tests := []struct {
		score float64
		want  Grade
	}{
		{95, GradeS}, {90, GradeS}, {89.9, GradeA}, {80, GradeA},
		{79.9, GradeB}, {70, GradeB}, {69.9, GradeC}, {60, GradeC}, {0, GradeD},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GradeFromScore(tt.score))
	}
}

func TestUniverseFilterMatching(t *testing.T) {
	all := UniverseFilter{}
	assert.True(t, all.MatchesMarket(MarketPrimary))
	assert.True(t, all.MatchesIndustry("Banking"))

	restricted := UniverseFilter{Markets: []string{"A"}, Industries: []string{"Banking"}}
	assert.True(t, restricted.MatchesMarket(MarketPrimary))
	assert.False(t, restricted.MatchesMarket(MarketSecondary))
	assert.True(t, restricted.MatchesIndustry("banking"))
	assert.False(t, restricted.MatchesIndustry("Tech"))

	wildcard := UniverseFilter{Markets: []string{ALLTag}}
	assert.True(t, wildcard.MatchesMarket(MarketTertiary))
}

func TestUniverseFilterValidate(t *testing.T) {
	assert.NoError(t, UniverseFilter{}.Validate())
	assert.NoError(t, UniverseFilter{Markets: []string{ALLTag}}.Validate())
	assert.NoError(t, UniverseFilter{Markets: []string{"A", "B", "C"}}.Validate())
	// Industries are unchecked: any free-form tag passes.
	assert.NoError(t, UniverseFilter{Industries: []string{"anything"}}.Validate())

	err := UniverseFilter{Markets: []string{"XX"}}.Validate()
	assert.ErrorIs(t, err, ErrBadFilter)
}

func TestIsSuspendedOrDelisted(t *testing.T) {
	assert.True(t, TickerRef{Name: "ST Foo"}.IsSuspendedOrDelisted())
	assert.True(t, TickerRef{Name: "Bar退"}.IsSuspendedOrDelisted())
	assert.False(t, TickerRef{Name: "Normal Co"}.IsSuspendedOrDelisted())
}
