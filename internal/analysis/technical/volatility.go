package technical

import "math"

// CalculateBollingerBands calculates upper, middle and lower Bollinger Bands.
// The band width uses the population standard deviation of the window.
func CalculateBollingerBands(closes []float64, period int, stdDev float64) ([]float64, []float64, []float64) {
	middle := CalculateSMA(closes, period)
	sd := CalculateRollingStd(closes, period, false)

	upper := make([]float64, len(closes))
	lower := make([]float64, len(closes))
	for i := range closes {
		upper[i] = middle[i] + (sd[i] * stdDev)
		lower[i] = middle[i] - (sd[i] * stdDev)
	}
	return upper, middle, lower
}

// CalculateTrueRange calculates the true range of every bar.
// The first bar has no previous close and uses its high-low range.
func CalculateTrueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		// True Range is the greatest of:
		// 1. Current High - Current Low
		// 2. Abs(Current High - Previous Close)
		// 3. Abs(Current Low - Previous Close)
		highLow := highs[i] - lows[i]
		if i == 0 {
			out[i] = highLow
			continue
		}
		highPrevClose := math.Abs(highs[i] - closes[i-1])
		lowPrevClose := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(highLow, math.Max(highPrevClose, lowPrevClose))
	}
	return out
}

// CalculateATR calculates Average True Range.
// The first value is the plain mean of the first period ranges, later values use Wilder smoothing.
func CalculateATR(highs, lows, closes []float64, period int) []float64 {
	out := undefinedSeries(len(closes))
	if period <= 0 || len(closes) < period {
		return out
	}

	trueRanges := CalculateTrueRange(highs, lows, closes)

	var sum float64
	for i := 0; i < period; i++ {
		sum += trueRanges[i]
	}
	atr := sum / float64(period)
	out[period-1] = atr

	for i := period; i < len(closes); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
		out[i] = atr
	}
	return out
}
