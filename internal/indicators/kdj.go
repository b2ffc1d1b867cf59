package indicators

import "github.com/aristath/sentinel/internal/domain"

// kdj is the classical KDJ(n, m1, m2) recursion: go-talib has no KDJ
// primitive, so it is hand-rolled here.
//
// %K_raw = 100 * (close - lowest_low(n)) / (highest_high(n) - lowest_low(n))
// K = SMA-style recursive smoothing of %K_raw over m1 bars (seeded at 50)
// D = same recursive smoothing of K over m2 bars (seeded at 50)
// J = 3*K - 2*D
func kdj(history domain.History, n, m1, m2 int) *domain.KDJ {
	if len(history) < n {
		return nil
	}

	k, d := 50.0, 50.0
	for i := n - 1; i < len(history); i++ {
		window := history[i-n+1 : i+1]
		lowest, highest := window[0].Low, window[0].High
		for _, bar := range window {
			if bar.Low < lowest {
				lowest = bar.Low
			}
			if bar.High > highest {
				highest = bar.High
			}
		}

		rawK := 50.0
		if highest > lowest {
			rawK = 100 * (history[i].Close - lowest) / (highest - lowest)
		}

		k = (k*float64(m1-1) + rawK) / float64(m1)
		d = (d*float64(m2-1) + k) / float64(m2)
	}

	j := 3*k - 2*d
	return &domain.KDJ{K: k, D: d, J: j}
}
