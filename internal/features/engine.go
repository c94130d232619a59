// Package features derives technical indicator columns from validated price bars.
package features

import (
	"fmt"
	"sort"

	"github.com/Alias1177/futures-analyzer/internal/analysis/technical"
	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
)

// Stats describes a feature build
type Stats struct {
	InputRows   int `json:"input_rows"`
	OutputRows  int `json:"output_rows"`
	WarmUpRows  int `json:"warm_up_rows"`
	Instruments int `json:"instruments"`
}

// Build computes indicator columns for every instrument independently.
// Rows keep the chronological order of bars; rows lacking any indicator value are dropped.
func Build(bars []model.PriceBar, cfg Config) (*model.FeatureTable, Stats, error) {
	stats := Stats{InputRows: len(bars)}
	if len(bars) == 0 {
		return nil, stats, &pipelineerr.StateError{Stage: "build features", Need: "no data loaded"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, stats, fmt.Errorf("feature config: %w", err)
	}

	groups, order := groupByInstrument(bars)
	stats.Instruments = len(order)

	type indexedRow struct {
		pos int
		row model.FeatureRow
	}
	var collected []indexedRow
	longest := 0

	for _, instrument := range order {
		positions := groups[instrument]
		longest = max(longest, len(positions))

		series := make([]model.PriceBar, len(positions))
		for i, pos := range positions {
			series[i] = bars[pos]
		}

		for i, values := range computeSeries(series, cfg) {
			if values == nil {
				continue
			}
			collected = append(collected, indexedRow{
				pos: positions[i],
				row: model.FeatureRow{PriceBar: series[i], Values: values},
			})
		}
	}

	if len(collected) == 0 {
		return nil, stats, &pipelineerr.InsufficientDataError{
			What: "feature warm-up",
			Have: longest,
			Need: cfg.WarmUp(),
		}
	}

	sort.Slice(collected, func(i, j int) bool {
		return collected[i].pos < collected[j].pos
	})

	table := &model.FeatureTable{
		Columns: Columns(cfg),
		Rows:    make([]model.FeatureRow, len(collected)),
	}
	for i, c := range collected {
		table.Rows[i] = c.row
	}

	stats.OutputRows = len(table.Rows)
	stats.WarmUpRows = stats.InputRows - stats.OutputRows
	return table, stats, nil
}

// groupByInstrument returns bar positions per instrument and instruments in first-seen order
func groupByInstrument(bars []model.PriceBar) (map[string][]int, []string) {
	groups := make(map[string][]int)
	var order []string
	for i, b := range bars {
		if _, ok := groups[b.Instrument]; !ok {
			order = append(order, b.Instrument)
		}
		groups[b.Instrument] = append(groups[b.Instrument], i)
	}
	return groups, order
}

// computeSeries returns one value map per bar, nil where any indicator is undefined.
// bars must belong to a single instrument in chronological order.
func computeSeries(bars []model.PriceBar, cfg Config) []map[string]float64 {
	n := len(bars)
	opens := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		opens[i] = b.Open
		highs[i] = b.High
		lows[i] = b.Low
		closes[i] = b.Close
		volumes[i] = float64(b.Volume)
	}

	columns := make(map[string][]float64)

	columns[ColPriceChange] = technical.CalculatePctChange(closes)
	highLow := make([]float64, n)
	openClose := make([]float64, n)
	for i := range bars {
		highLow[i] = highs[i] / lows[i]
		openClose[i] = opens[i] / closes[i]
	}
	columns[ColHighLowRatio] = highLow
	columns[ColOpenCloseRatio] = openClose

	for _, w := range cfg.MovingAverages {
		ma := technical.CalculateSMA(closes, w)
		vsMA := make([]float64, n)
		for i := range closes {
			vsMA[i] = closes[i]/ma[i] - 1
		}
		columns[MAColumn(w)] = ma
		columns[PriceVsMAColumn(w)] = vsMA
	}

	columns[ColRSI] = technical.CalculateRSI(closes, cfg.RSIPeriod)

	macd, signal, diff := technical.CalculateMACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	columns[ColMACD] = macd
	columns[ColMACDSignal] = signal
	columns[ColMACDDiff] = diff

	upper, middle, lower := technical.CalculateBollingerBands(closes, cfg.BBPeriod, cfg.BBStd)
	width := make([]float64, n)
	for i := range closes {
		width[i] = upper[i] - lower[i]
	}
	columns[ColBBUpper] = upper
	columns[ColBBMiddle] = middle
	columns[ColBBLower] = lower
	columns[ColBBWidth] = width

	volumeMA, volumeRatio := technical.CalculateVolumeRatio(volumes, cfg.VolumeMAPeriod)
	columns[ColVolumeMA] = volumeMA
	columns[ColVolumeRatio] = volumeRatio

	columns[ColVolatility] = technical.CalculateRollingStd(closes, cfg.VolatilityPeriod, true)
	columns[ColATR] = technical.CalculateATR(highs, lows, closes, cfg.ATRPeriod)

	adx, plusDI, minusDI := technical.CalculateADX(highs, lows, closes, cfg.ADXPeriod)
	columns[ColADX] = adx
	columns[ColPlusDI] = plusDI
	columns[ColMinusDI] = minusDI

	columns[ColCCI] = technical.CalculateCCI(highs, lows, closes, cfg.CCIPeriod)

	names := Columns(cfg)
	out := make([]map[string]float64, n)
	for i := 0; i < n; i++ {
		values := make(map[string]float64, len(names))
		complete := true
		for _, name := range names {
			v := columns[name][i]
			if !technical.IsDefined(v) {
				complete = false
				break
			}
			values[name] = v
		}
		if complete {
			out[i] = values
		}
	}
	return out
}
