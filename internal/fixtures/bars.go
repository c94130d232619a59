// Package fixtures builds deterministic synthetic bars for tests.
package fixtures

import (
	"math"
	"math/rand"
	"time"

	"github.com/Alias1177/futures-analyzer/internal/model"
)

// Start is the first bar date of every synthetic series
var Start = time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)

// Bars returns n daily bars per instrument, interleaved by date.
// Prices follow a seeded random walk with a slow cycle so all three labels occur.
func Bars(instruments []string, n int, seed int64) []model.PriceBar {
	rng := rand.New(rand.NewSource(seed))
	prices := make([]float64, len(instruments))
	for i := range prices {
		prices[i] = 3000 + 500*float64(i)
	}

	bars := make([]model.PriceBar, 0, n*len(instruments))
	for day := 0; day < n; day++ {
		date := Start.AddDate(0, 0, day)
		for k, instrument := range instruments {
			prev := prices[k]
			drift := 0.004 * math.Sin(float64(day)/9+float64(k))
			ret := drift + rng.NormFloat64()*0.012
			closePrice := prev * (1 + ret)
			openPrice := prev * (1 + rng.NormFloat64()*0.003)
			high := math.Max(openPrice, closePrice) * (1 + math.Abs(rng.NormFloat64())*0.004)
			low := math.Min(openPrice, closePrice) * (1 - math.Abs(rng.NormFloat64())*0.004)
			prices[k] = closePrice

			bars = append(bars, model.PriceBar{
				Date:         date,
				Instrument:   instrument,
				Open:         openPrice,
				High:         high,
				Low:          low,
				Close:        closePrice,
				Volume:       int64(1000 + rng.Intn(5000)),
				OpenInterest: int64(20000 + rng.Intn(10000)),
			})
		}
	}
	return bars
}

// Filter keeps the bars of one instrument
func Filter(bars []model.PriceBar, instrument string) []model.PriceBar {
	var out []model.PriceBar
	for _, b := range bars {
		if b.Instrument == instrument {
			out = append(out, b)
		}
	}
	return out
}
