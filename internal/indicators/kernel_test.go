package indicators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/sentinel/internal/domain"
)

func makeHistory(n int) domain.History {
	hist := make(domain.History, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		close := 10 + float64(i)*0.1
		hist[i] = domain.HistoryBar{
			Date:   base.AddDate(0, 0, i),
			Open:   close - 0.05,
			High:   close + 0.2,
			Low:    close - 0.2,
			Close:  close,
			Volume: 1000 + float64(i),
		}
	}
	return hist
}

func TestComputeEmptyHistoryReturnsZeroValueSet(t *testing.T) {
	set := Compute(nil)
	assert.Nil(t, set.MA5)
	assert.Nil(t, set.MACD)
	assert.Nil(t, set.KDJ)
	assert.Nil(t, set.Chips)
}

func TestComputeInsufficientBarsLeavesLongWindowFieldsAbsent(t *testing.T) {
	set := Compute(makeHistory(10))
	assert.NotNil(t, set.MA5)
	assert.Nil(t, set.MA20, "20-bar window needs >= 20 bars")
	assert.Nil(t, set.MA60)
	assert.Nil(t, set.MACD, "MACD needs >= 35 bars")
}

func TestComputeFullHistoryPopulatesAllFields(t *testing.T) {
	set := Compute(makeHistory(90))
	require.NotNil(t, set.MA5)
	require.NotNil(t, set.MA20)
	require.NotNil(t, set.MA60)
	require.NotNil(t, set.MACD)
	require.NotNil(t, set.RSI)
	require.NotNil(t, set.Bollinger)
	require.NotNil(t, set.KDJ)
	require.NotNil(t, set.Chips)

	// Prices rise monotonically across the whole window, so the fast
	// average must sit above the slow one.
	assert.Greater(t, *set.MA5, *set.MA60)
}

func TestKDJReturnsNilWithTooFewBars(t *testing.T) {
	// Fewer than n bars: kdj returns nil outright.
	assert.Nil(t, kdj(makeHistory(5), 9, 3, 3))
}

func TestKDJProducesBoundedValuesForRisingSeries(t *testing.T) {
	out := kdj(makeHistory(30), 9, 3, 3)
	require.NotNil(t, out)
	// A steadily rising series should put %K well above the midline.
	assert.Greater(t, out.K, 50.0)
	assert.InDelta(t, 3*out.K-2*out.D, out.J, 1e-9)
}

func TestChipDistributionEmptyHistoryReturnsNil(t *testing.T) {
	assert.Nil(t, chipDistribution(nil))
}

func TestChipDistributionFlatRangeReturnsNil(t *testing.T) {
	flat := domain.History{
		{Low: 10, High: 10, Close: 10, Volume: 100},
		{Low: 10, High: 10, Close: 10, Volume: 100},
	}
	assert.Nil(t, chipDistribution(flat))
}

func TestChipDistributionRatiosStayInUnitRange(t *testing.T) {
	hist := makeHistory(30)
	out := chipDistribution(hist)
	require.NotNil(t, out)

	assert.InDelta(t, 1.0, sum(out.Buckets)/sum(out.Buckets), 1e-9) // sanity: non-zero mass
	assert.GreaterOrEqual(t, out.ProfitRatio, 0.0)
	assert.LessOrEqual(t, out.ProfitRatio, 1.0)
	assert.GreaterOrEqual(t, out.Concentration, 0.0)
	assert.LessOrEqual(t, out.Concentration, 1.0)
}

func TestPowComputesIntegerExponent(t *testing.T) {
	assert.InDelta(t, 1.0, pow(0.95, 0), 1e-9)
	assert.InDelta(t, 0.95, pow(0.95, 1), 1e-9)
	assert.InDelta(t, 0.9025, pow(0.95, 2), 1e-9)
}
