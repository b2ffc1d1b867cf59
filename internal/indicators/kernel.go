// Package indicators implements IndicatorKernel: pure, stateless functions
// turning a HistoryBar sequence into an IndicatorSet. Moving averages,
// MACD, RSI, and Bollinger bands are computed with go-talib, the same
// library the teacher's trader subtree uses for these formulas; KDJ and
// chip distribution have no talib primitive and are hand-rolled following
// the trader formulas' doc-comment-plus-nil-for-absent style.
package indicators

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/sentinel/internal/domain"
)

// Compute derives the full IndicatorSet from a ticker's History, ordered
// oldest-first. Returns a zero-value IndicatorSet (all fields nil) when
// history is empty.
func Compute(history domain.History) domain.IndicatorSet {
	closes := history.Closes()
	if len(closes) == 0 {
		return domain.IndicatorSet{}
	}

	set := domain.IndicatorSet{
		MA5:  sma(closes, 5),
		MA10: sma(closes, 10),
		MA20: sma(closes, 20),
		MA60: sma(closes, 60),
	}

	set.MACD, set.MACDHistory = macd(closes)
	set.RSI = rsi(closes, 14)
	set.Bollinger = bollinger(closes, 20, 2)
	set.KDJ = kdj(history, 9, 3, 3)
	set.Chips = chipDistribution(history)

	return set
}

// sma is the Moving average over window n. Requires at least n bars;
// returns nil ("absent") otherwise.
func sma(closes []float64, n int) *float64 {
	if len(closes) < n {
		return nil
	}
	out := talib.Sma(closes, n)
	if len(out) == 0 || isNaN(out[len(out)-1]) {
		return nil
	}
	v := out[len(out)-1]
	return &v
}

// macd computes DIF = EMA12 - EMA26, DEA = EMA9(DIF), histogram = 2*(DIF-DEA),
// returning both the latest triple and a short trailing history (up to 4
// bars) for crossover detection.
func macd(closes []float64) (*domain.MACD, []domain.MACD) {
	if len(closes) < 26+9 {
		return nil, nil
	}
	dif, dea, hist := talib.Macd(closes, 12, 26, 9)
	n := len(dif)
	if n == 0 || isNaN(dif[n-1]) || isNaN(dea[n-1]) {
		return nil, nil
	}

	latest := &domain.MACD{DIF: dif[n-1], DEA: dea[n-1], Histogram: hist[n-1]}

	trailStart := n - 4
	if trailStart < 0 {
		trailStart = 0
	}
	trail := make([]domain.MACD, 0, n-trailStart)
	for i := trailStart; i < n; i++ {
		if isNaN(dif[i]) || isNaN(dea[i]) {
			continue
		}
		trail = append(trail, domain.MACD{DIF: dif[i], DEA: dea[i], Histogram: hist[i]})
	}
	return latest, trail
}

// rsi is RSI(length) with Wilder smoothing; first value emitted once
// length+1 bars are available.
func rsi(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}
	out := talib.Rsi(closes, length)
	if len(out) == 0 || isNaN(out[len(out)-1]) {
		return nil
	}
	v := out[len(out)-1]
	return &v
}

// bollinger is middle = SMA(length); bands = middle +/- stdDevMultiplier *
// population stddev of the last `length` closes.
func bollinger(closes []float64, length int, stdDevMultiplier float64) *domain.Bollinger {
	if len(closes) < length {
		return nil
	}
	// MAType 0 = SMA, matching the teacher's trader/pkg/formulas usage.
	upper, middle, lower := talib.BBands(closes, length, stdDevMultiplier, stdDevMultiplier, 0)
	n := len(upper)
	if n == 0 || isNaN(upper[n-1]) {
		return nil
	}
	return &domain.Bollinger{
		Upper:  upper[n-1],
		Middle: middle[n-1],
		Lower:  lower[n-1],
	}
}

func isNaN(f float64) bool { return f != f }
