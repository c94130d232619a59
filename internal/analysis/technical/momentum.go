package technical

import "math"

// CalculateRSI calculates the Relative Strength Index series.
// Gains and losses are smoothed with Wilder's factor 1/period.
// RSI is undefined where both averages are zero (a flat window).
func CalculateRSI(closes []float64, period int) []float64 {
	n := len(closes)
	if period <= 0 {
		return undefinedSeries(n)
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains[i] = change
		} else {
			losses[i] = -change
		}
	}

	alpha := 1.0 / float64(period)
	avgGain := ewm(gains, alpha, period)
	avgLoss := ewm(losses, alpha, period)

	out := undefinedSeries(n)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) {
			continue
		}
		if avgGain[i] == 0 && avgLoss[i] == 0 {
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100.0
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100.0 - (100.0 / (1.0 + rs))
	}
	return out
}

// CalculateMACD calculates the MACD line, its signal line and their difference
func CalculateMACD(closes []float64, fastPeriod, slowPeriod, signalPeriod int) ([]float64, []float64, []float64) {
	fastEMA := CalculateEMA(closes, fastPeriod)
	slowEMA := CalculateEMA(closes, slowPeriod)

	macdLine := make([]float64, len(closes))
	for i := range closes {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}

	// Signal line is an EMA of the MACD line once it is defined
	signalLine := CalculateEMA(macdLine, signalPeriod)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, diff
}
