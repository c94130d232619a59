package features

import (
	"fmt"

	"github.com/Alias1177/futures-analyzer/internal/utils"
)

// Config holds indicator lookback settings
type Config struct {
	MovingAverages   []int   `yaml:"moving_averages" default:"[5,10,20,50]" validate:"min=1,unique,dive,gt=0"`
	RSIPeriod        int     `yaml:"rsi_period" default:"14" validate:"gt=0"`
	MACDFast         int     `yaml:"macd_fast" default:"12" validate:"gt=0"`
	MACDSlow         int     `yaml:"macd_slow" default:"26" validate:"gtfield=MACDFast"`
	MACDSignal       int     `yaml:"macd_signal" default:"9" validate:"gt=0"`
	BBPeriod         int     `yaml:"bb_period" default:"20" validate:"gt=1"`
	BBStd            float64 `yaml:"bb_std" default:"2" validate:"gt=0"`
	ATRPeriod        int     `yaml:"atr_period" default:"14" validate:"gt=0"`
	ADXPeriod        int     `yaml:"adx_period" default:"14" validate:"gt=0"`
	CCIPeriod        int     `yaml:"cci_period" default:"20" validate:"gt=0"`
	VolumeMAPeriod   int     `yaml:"volume_ma_period" default:"20" validate:"gt=0"`
	VolatilityPeriod int     `yaml:"volatility_period" default:"20" validate:"gt=1"`
}

// DefaultConfig returns the standard indicator settings
func DefaultConfig() Config {
	var cfg Config
	if err := utils.ApplyDefaults(&cfg); err != nil {
		panic(fmt.Sprintf("features: invalid default tags: %v", err))
	}
	return cfg
}

// Validate checks the settings
func (c Config) Validate() error {
	return utils.ValidateParams(c)
}

// WarmUp returns the number of bars an instrument needs before its first complete row.
// Every instrument loses its first WarmUp()-1 bars.
func (c Config) WarmUp() int {
	need := 2 // price_change needs a previous close
	for _, w := range c.MovingAverages {
		need = max(need, w)
	}
	need = max(need,
		c.RSIPeriod,
		c.MACDSlow+c.MACDSignal-1,
		c.BBPeriod,
		c.ATRPeriod,
		2*c.ADXPeriod,
		c.CCIPeriod,
		c.VolumeMAPeriod,
		c.VolatilityPeriod,
	)
	return need
}
