package technical

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CalculateADX calculates the Average Directional Index with +DI and -DI.
// DI values are defined from index period, ADX from index 2*period-1.
func CalculateADX(highs, lows, closes []float64, period int) ([]float64, []float64, []float64) {
	n := len(closes)
	adx := undefinedSeries(n)
	plusDI := undefinedSeries(n)
	minusDI := undefinedSeries(n)
	if period <= 0 || n <= period {
		return adx, plusDI, minusDI
	}

	trueRanges := CalculateTrueRange(highs, lows, closes)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		upMove := highs[i] - highs[i-1]
		downMove := lows[i-1] - lows[i]

		// +DM occurs when the up move dominates and is positive
		if upMove > downMove && upMove > 0 {
			plusDM[i] = upMove
		}
		// -DM occurs when the down move dominates and is positive
		if downMove > upMove && downMove > 0 {
			minusDM[i] = downMove
		}
	}

	// Initial smoothed sums over the first period moves
	var smoothedPlusDM, smoothedMinusDM, smoothedTR float64
	for i := 1; i <= period; i++ {
		smoothedPlusDM += plusDM[i]
		smoothedMinusDM += minusDM[i]
		smoothedTR += trueRanges[i]
	}

	dx := undefinedSeries(n)
	for i := period; i < n; i++ {
		if i > period {
			smoothedPlusDM = smoothedPlusDM - (smoothedPlusDM / float64(period)) + plusDM[i]
			smoothedMinusDM = smoothedMinusDM - (smoothedMinusDM / float64(period)) + minusDM[i]
			smoothedTR = smoothedTR - (smoothedTR / float64(period)) + trueRanges[i]
		}

		p, m := 0.0, 0.0
		if smoothedTR > 0 {
			p = (smoothedPlusDM / smoothedTR) * 100
			m = (smoothedMinusDM / smoothedTR) * 100
		}
		plusDI[i] = p
		minusDI[i] = m

		if p+m > 0 {
			dx[i] = math.Abs(p-m) / (p + m) * 100
		} else {
			dx[i] = 0
		}
	}

	first := 2*period - 1
	if first >= n {
		return adx, plusDI, minusDI
	}
	// ADX starts as the mean DX of the first period values, then is smoothed
	value := stat.Mean(dx[period:first+1], nil)
	adx[first] = value
	for i := first + 1; i < n; i++ {
		value = ((float64(period-1) * value) + dx[i]) / float64(period)
		adx[i] = value
	}
	return adx, plusDI, minusDI
}

// CCIConstant scales the mean deviation in the Commodity Channel Index
const CCIConstant = 0.015

// CalculateCCI calculates the Commodity Channel Index from typical prices.
// A window without any deviation yields 0.
func CalculateCCI(highs, lows, closes []float64, period int) []float64 {
	n := len(closes)
	out := undefinedSeries(n)
	if period <= 0 {
		return out
	}

	typical := make([]float64, n)
	for i := range closes {
		typical[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	sma := CalculateSMA(typical, period)

	for i := period - 1; i < n; i++ {
		var deviation float64
		for j := i - period + 1; j <= i; j++ {
			deviation += math.Abs(typical[j] - sma[i])
		}
		meanDeviation := deviation / float64(period)
		if meanDeviation == 0 {
			out[i] = 0
			continue
		}
		out[i] = (typical[i] - sma[i]) / (CCIConstant * meanDeviation)
	}
	return out
}
