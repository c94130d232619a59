package technical

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// IsDefined reports whether an indicator value is usable
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func undefinedSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// CalculateSMA calculates the trailing simple moving average.
// Values before the window is full are NaN.
func CalculateSMA(values []float64, window int) []float64 {
	out := undefinedSeries(len(values))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(values); i++ {
		out[i] = stat.Mean(values[i-window+1:i+1], nil)
	}
	return out
}

// CalculateRollingStd calculates the trailing standard deviation over window bars.
// sample selects the n-1 denominator, otherwise the population form is used.
func CalculateRollingStd(values []float64, window int, sample bool) []float64 {
	out := undefinedSeries(len(values))
	if window < 2 {
		return out
	}
	n := float64(window)
	for i := window - 1; i < len(values); i++ {
		_, variance := stat.MeanVariance(values[i-window+1:i+1], nil)
		if !sample {
			variance = variance * (n - 1) / n
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}

// ewm is the recursive exponentially weighted mean seeded with the first defined value.
// Leading NaNs are skipped and the result stays NaN until minPeriods values were seen.
func ewm(values []float64, alpha float64, minPeriods int) []float64 {
	out := undefinedSeries(len(values))
	var avg float64
	seen := 0
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if seen == 0 {
			avg = v
		} else {
			avg = alpha*v + (1-alpha)*avg
		}
		seen++
		if seen >= minPeriods {
			out[i] = avg
		}
	}
	return out
}

// CalculateEMA calculates the exponential moving average with the given span
func CalculateEMA(values []float64, span int) []float64 {
	if span <= 0 {
		return undefinedSeries(len(values))
	}
	return ewm(values, 2.0/float64(span+1), span)
}

// CalculatePctChange calculates v[i]/v[i-1] - 1
func CalculatePctChange(values []float64) []float64 {
	out := undefinedSeries(len(values))
	for i := 1; i < len(values); i++ {
		if values[i-1] == 0 {
			continue
		}
		out[i] = values[i]/values[i-1] - 1
	}
	return out
}
