package features

import "strconv"

// Feature column names
const (
	ColPriceChange    = "price_change"
	ColHighLowRatio   = "high_low_ratio"
	ColOpenCloseRatio = "open_close_ratio"
	ColRSI            = "rsi"
	ColMACD           = "macd"
	ColMACDSignal     = "macd_signal"
	ColMACDDiff       = "macd_diff"
	ColBBUpper        = "bb_upper"
	ColBBMiddle       = "bb_middle"
	ColBBLower        = "bb_lower"
	ColBBWidth        = "bb_width"
	ColVolumeMA       = "volume_ma"
	ColVolumeRatio    = "volume_ratio"
	ColVolatility     = "volatility"
	ColATR            = "atr"
	ColADX            = "adx"
	ColPlusDI         = "plus_di"
	ColMinusDI        = "minus_di"
	ColCCI            = "cci"
)

// MAColumn names the moving average over window bars
func MAColumn(window int) string {
	return "ma_" + strconv.Itoa(window)
}

// PriceVsMAColumn names close relative to the moving average over window bars
func PriceVsMAColumn(window int) string {
	return "price_vs_ma" + strconv.Itoa(window)
}

// ModelColumns is the fixed ordered list of model inputs
var ModelColumns = []string{
	ColPriceChange, ColHighLowRatio, ColOpenCloseRatio,
	PriceVsMAColumn(5), PriceVsMAColumn(10), PriceVsMAColumn(20), PriceVsMAColumn(50),
	ColRSI, ColMACD, ColMACDSignal, ColBBWidth, ColVolumeRatio,
	ColVolatility, ColATR, ColADX, ColCCI,
}

// Columns lists every column produced under cfg, in output order
func Columns(cfg Config) []string {
	cols := []string{ColPriceChange, ColHighLowRatio, ColOpenCloseRatio}
	for _, w := range cfg.MovingAverages {
		cols = append(cols, MAColumn(w))
	}
	for _, w := range cfg.MovingAverages {
		cols = append(cols, PriceVsMAColumn(w))
	}
	return append(cols,
		ColRSI, ColMACD, ColMACDSignal, ColMACDDiff,
		ColBBUpper, ColBBMiddle, ColBBLower, ColBBWidth,
		ColVolumeMA, ColVolumeRatio,
		ColVolatility, ColATR,
		ColADX, ColPlusDI, ColMinusDI, ColCCI,
	)
}
