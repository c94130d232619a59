package technical

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func assertSeries(t *testing.T, name string, got, want []float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: length = %d, want %d", name, len(got), len(want))
	}
	for i := range want {
		if math.IsNaN(want[i]) {
			if !math.IsNaN(got[i]) {
				t.Errorf("%s[%d] = %v, want NaN", name, i, got[i])
			}
			continue
		}
		if !almostEqual(got[i], want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func TestMovingAverages(t *testing.T) {
	nan := math.NaN()
	values := []float64{1, 2, 3, 4, 5}

	tests := []struct {
		name string
		got  []float64
		want []float64
	}{
		{"sma window 2", CalculateSMA(values, 2), []float64{nan, 1.5, 2.5, 3.5, 4.5}},
		{"sma window 5", CalculateSMA(values, 5), []float64{nan, nan, nan, nan, 3}},
		{"sma window too long", CalculateSMA(values, 6), []float64{nan, nan, nan, nan, nan}},
		{"ema span 3", CalculateEMA(values, 3), []float64{nan, nan, 2.25, 3.125, 4.0625}},
		{"pct change", CalculatePctChange([]float64{100, 110, 99}), []float64{nan, 0.1, -0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertSeries(t, tt.name, tt.got, tt.want)
		})
	}
}

func TestRollingStd(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	population := CalculateRollingStd(values, 8, false)
	if !almostEqual(population[7], 2) {
		t.Errorf("population std = %v, want 2", population[7])
	}

	sample := CalculateRollingStd(values, 8, true)
	if !almostEqual(sample[7], math.Sqrt(32.0/7.0)) {
		t.Errorf("sample std = %v, want %v", sample[7], math.Sqrt(32.0/7.0))
	}
	if !math.IsNaN(sample[6]) {
		t.Errorf("expected NaN before the window is full, got %v", sample[6])
	}
}

func TestCalculateRSI(t *testing.T) {
	rising := make([]float64, 30)
	falling := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
		falling[i] = 100 - float64(i)
	}

	rsiUp := CalculateRSI(rising, 14)
	if !math.IsNaN(rsiUp[12]) {
		t.Errorf("rsi[12] = %v, want NaN", rsiUp[12])
	}
	if rsiUp[13] != 100 || rsiUp[29] != 100 {
		t.Errorf("rising series RSI = %v/%v, want 100", rsiUp[13], rsiUp[29])
	}

	rsiDown := CalculateRSI(falling, 14)
	if !almostEqual(rsiDown[29], 0) {
		t.Errorf("falling series RSI = %v, want 0", rsiDown[29])
	}
}

func TestCalculateRSIFlatWindow(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	for i, v := range CalculateRSI(flat, 14) {
		if !math.IsNaN(v) {
			t.Fatalf("flat RSI[%d] = %v, want NaN", i, v)
		}
	}

	// a single move keeps the averages positive for the rest of the series
	moved := append([]float64(nil), flat...)
	moved[5] = 101
	rsi := CalculateRSI(moved, 14)
	if math.IsNaN(rsi[20]) || rsi[20] <= 0 || rsi[20] >= 100 {
		t.Errorf("RSI after a move = %v, want within (0, 100)", rsi[20])
	}
}

func TestCalculateMACDWarmUp(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*3
	}

	macd, signal, diff := CalculateMACD(closes, 12, 26, 9)
	if !math.IsNaN(macd[24]) || math.IsNaN(macd[25]) {
		t.Errorf("macd should start at index 25")
	}
	if !math.IsNaN(signal[32]) || math.IsNaN(signal[33]) {
		t.Errorf("signal should start at index 33")
	}
	if !almostEqual(diff[40], macd[40]-signal[40]) {
		t.Errorf("diff[40] = %v, want %v", diff[40], macd[40]-signal[40])
	}
}

func flatBars(n int) ([]float64, []float64, []float64) {
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		highs[i] = 11
		lows[i] = 9
		closes[i] = 10
	}
	return highs, lows, closes
}

func TestCalculateATRAndBands(t *testing.T) {
	highs, lows, closes := flatBars(30)

	atr := CalculateATR(highs, lows, closes, 14)
	if !math.IsNaN(atr[12]) {
		t.Errorf("atr[12] = %v, want NaN", atr[12])
	}
	for i := 13; i < 30; i++ {
		if !almostEqual(atr[i], 2) {
			t.Fatalf("atr[%d] = %v, want 2", i, atr[i])
		}
	}

	upper, middle, lower := CalculateBollingerBands(closes, 20, 2)
	if !almostEqual(upper[25], 10) || !almostEqual(middle[25], 10) || !almostEqual(lower[25], 10) {
		t.Errorf("flat bands = %v/%v/%v, want 10", upper[25], middle[25], lower[25])
	}

	cci := CalculateCCI(highs, lows, closes, 20)
	if cci[25] != 0 {
		t.Errorf("flat CCI = %v, want 0", cci[25])
	}
}

func TestCalculateADXTrend(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := 0; i < n; i++ {
		base := 100 + float64(i)*2
		highs[i] = base + 1
		lows[i] = base - 1
		closes[i] = base
	}

	adx, plusDI, minusDI := CalculateADX(highs, lows, closes, 14)
	if !math.IsNaN(adx[26]) || math.IsNaN(adx[27]) {
		t.Fatalf("adx should start at index 27")
	}
	if math.IsNaN(plusDI[14]) {
		t.Fatalf("+DI should start at index 14")
	}
	if plusDI[50] <= minusDI[50] {
		t.Errorf("uptrend +DI %v should exceed -DI %v", plusDI[50], minusDI[50])
	}
	if adx[50] < 90 {
		t.Errorf("steady uptrend ADX = %v, want strong trend", adx[50])
	}
}

func TestCalculateVolumeRatio(t *testing.T) {
	volumes := []float64{10, 10, 20, 0, 0, 0}
	ma, ratio := CalculateVolumeRatio(volumes, 2)
	if !almostEqual(ma[2], 15) || !almostEqual(ratio[2], 20.0/15.0) {
		t.Errorf("ma/ratio = %v/%v", ma[2], ratio[2])
	}
	if !math.IsNaN(ratio[5]) {
		t.Errorf("ratio over zero average = %v, want NaN", ratio[5])
	}
}
