package indicators

import "github.com/aristath/sentinel/internal/domain"

const chipBucketCount = 100
const chipDecay = 0.95

// chipDistribution bucketizes each bar's volume uniformly across its
// [low, high] range into chipBucketCount price buckets, weighted by
// chipDecay^age (age 0 = most recent bar). The main peak is the bucket
// with the largest accumulated mass; ties go to the higher-price bucket,
// the more conservative read of "where holders sit".
func chipDistribution(history domain.History) *domain.ChipDistribution {
	if len(history) == 0 {
		return nil
	}

	low, high := history[0].Low, history[0].High
	for _, bar := range history {
		if bar.Low < low {
			low = bar.Low
		}
		if bar.High > high {
			high = bar.High
		}
	}
	if high <= low {
		return nil
	}

	bucketWidth := (high - low) / float64(chipBucketCount)
	buckets := make([]float64, chipBucketCount)

	last := len(history) - 1
	for i, bar := range history {
		age := last - i
		decay := pow(chipDecay, age)
		spreadBucketLow := bucketIndex(bar.Low, low, bucketWidth)
		spreadBucketHigh := bucketIndex(bar.High, low, bucketWidth)
		if spreadBucketHigh < spreadBucketLow {
			spreadBucketHigh = spreadBucketLow
		}
		span := spreadBucketHigh - spreadBucketLow + 1
		share := bar.Volume * decay / float64(span)
		for b := spreadBucketLow; b <= spreadBucketHigh; b++ {
			buckets[b] += share
		}
	}

	peak := mainPeak(buckets)
	peakPrice := low + (float64(peak)+0.5)*bucketWidth

	concentration := concentrationAround(buckets, peak, 20)
	avgCost := averageCost(buckets, low, bucketWidth)

	lastClose := history[last].Close
	support, resistance := supportResistance(buckets, low, bucketWidth, lastClose)
	profitRatio := massBelow(buckets, low, bucketWidth, lastClose)

	return &domain.ChipDistribution{
		Buckets:       buckets,
		BucketLow:     low,
		BucketHigh:    high,
		MainPeakPrice: peakPrice,
		AverageCost:   avgCost,
		Concentration: concentration,
		Support:       support,
		Resistance:    resistance,
		ProfitRatio:   profitRatio,
	}
}

func bucketIndex(price, low, width float64) int {
	idx := int((price - low) / width)
	if idx < 0 {
		idx = 0
	}
	if idx >= chipBucketCount {
		idx = chipBucketCount - 1
	}
	return idx
}

// mainPeak returns the bucket with the largest mass; ties prefer the
// higher-price (later) bucket.
func mainPeak(buckets []float64) int {
	peak := 0
	for i := 1; i < len(buckets); i++ {
		if buckets[i] >= buckets[peak] {
			peak = i
		}
	}
	return peak
}

// concentrationAround is the fraction of total mass within `span` buckets
// centered on peak.
func concentrationAround(buckets []float64, peak, span int) float64 {
	total := sum(buckets)
	if total == 0 {
		return 0
	}
	lo := peak - span/2
	hi := lo + span - 1
	if lo < 0 {
		lo = 0
	}
	if hi >= len(buckets) {
		hi = len(buckets) - 1
	}
	var windowMass float64
	for i := lo; i <= hi; i++ {
		windowMass += buckets[i]
	}
	return windowMass / total
}

// averageCost is the mass-weighted mean of bucket center prices.
func averageCost(buckets []float64, low, width float64) float64 {
	total := sum(buckets)
	if total == 0 {
		return 0
	}
	var weighted float64
	for i, mass := range buckets {
		center := low + (float64(i)+0.5)*width
		weighted += mass * center
	}
	return weighted / total
}

// supportResistance returns the nearest significant mass concentration
// below and above the current close, approximated here as the highest-mass
// bucket strictly below and strictly above the close's own bucket.
func supportResistance(buckets []float64, low, width, close float64) (float64, float64) {
	closeBucket := bucketIndex(close, low, width)

	support, resistance := low, low+width*float64(len(buckets))
	var bestBelow, bestAbove float64
	for i, mass := range buckets {
		center := low + (float64(i)+0.5)*width
		if i < closeBucket && mass > bestBelow {
			bestBelow = mass
			support = center
		}
		if i > closeBucket && mass > bestAbove {
			bestAbove = mass
			resistance = center
		}
	}
	return support, resistance
}

// massBelow is the fraction of total mass at or below the current close —
// an estimate of the share of holders currently in profit.
func massBelow(buckets []float64, low, width, close float64) float64 {
	total := sum(buckets)
	if total == 0 {
		return 0
	}
	closeBucket := bucketIndex(close, low, width)
	var below float64
	for i := 0; i <= closeBucket && i < len(buckets); i++ {
		below += buckets[i]
	}
	return below / total
}

func sum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func pow(base float64, exp int) float64 {
	result := 1.0
	for i := 0; i < exp; i++ {
		result *= base
	}
	return result
}
