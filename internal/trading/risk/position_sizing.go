package risk

import (
	"fmt"
	"math"

	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/utils"
)

// Grades
const (
	GradeHigh      = "HIGH"
	GradeMedium    = "MEDIUM"
	GradeLow       = "LOW"
	GradeExcellent = "EXCELLENT"
	GradeGood      = "GOOD"
	GradePoor      = "POOR"
)

// Config holds ATR multipliers, grading thresholds and sizing limits
type Config struct {
	StopLossATR   float64 `yaml:"stop_loss_atr" default:"2.0" validate:"gt=0"`
	TakeProfitATR float64 `yaml:"take_profit_atr" default:"3.0" validate:"gt=0"`
	// ATRFallback is the fraction of price used when ATR is unavailable
	ATRFallback float64 `yaml:"atr_fallback" default:"0.02" validate:"gt=0,lt=1"`

	HighSuccessRate     float64 `yaml:"high_success_rate" default:"70" validate:"gt=0,lte=100,gtfield=MediumSuccessRate"`
	MediumSuccessRate   float64 `yaml:"medium_success_rate" default:"50" validate:"gt=0,lte=100"`
	ExcellentRiskReward float64 `yaml:"excellent_risk_reward" default:"2.0" validate:"gt=0,gtfield=GoodRiskReward"`
	GoodRiskReward      float64 `yaml:"good_risk_reward" default:"1.5" validate:"gt=0"`

	// AccountSize of 0 disables position sizing
	AccountSize     float64 `yaml:"account_size" validate:"gte=0"`
	RiskPerTrade    float64 `yaml:"risk_per_trade" default:"0.02" validate:"gt=0,lte=1"`
	MaxPositionSize float64 `yaml:"max_position_size" default:"0.1" validate:"gt=0,lte=1"`
}

// DefaultConfig returns stop 2xATR, target 3xATR and a 10% position cap
func DefaultConfig() Config {
	var c Config
	if err := utils.ApplyDefaults(&c); err != nil {
		panic(fmt.Sprintf("risk: invalid default tags: %v", err))
	}
	return c
}

// Validate checks thresholds and limits
func (c Config) Validate() error {
	return utils.ValidateParams(c)
}

// EffectiveATR returns atr when it is a usable positive number, else the price-based fallback
func (c Config) EffectiveATR(price, atr float64) float64 {
	if atr > 0 && !math.IsNaN(atr) && !math.IsInf(atr, 0) {
		return atr
	}
	return price * c.ATRFallback
}

// Levels returns stop-loss and take-profit for action. Both are nil for hold.
func (c Config) Levels(action model.Action, price, atr float64) (stopLoss, takeProfit *float64) {
	var sl, tp float64
	switch action {
	case model.ActionLong:
		sl = price - c.StopLossATR*atr
		tp = price + c.TakeProfitATR*atr
	case model.ActionShort:
		sl = price + c.StopLossATR*atr
		tp = price - c.TakeProfitATR*atr
	default:
		return nil, nil
	}
	return &sl, &tp
}

// RiskReward is reward/risk measured from price in the trade direction.
// It is 0 for hold or when risk is not positive.
func RiskReward(action model.Action, price float64, stopLoss, takeProfit *float64) float64 {
	if stopLoss == nil || takeProfit == nil {
		return 0
	}

	var risk, reward float64
	switch action {
	case model.ActionLong:
		risk = price - *stopLoss
		reward = *takeProfit - price
	case model.ActionShort:
		risk = *stopLoss - price
		reward = price - *takeProfit
	default:
		return 0
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// GradeSuccessRate buckets a success rate percentage
func (c Config) GradeSuccessRate(rate float64) string {
	switch {
	case rate >= c.HighSuccessRate:
		return GradeHigh
	case rate >= c.MediumSuccessRate:
		return GradeMedium
	default:
		return GradeLow
	}
}

// GradeRiskReward buckets a risk/reward ratio
func (c Config) GradeRiskReward(ratio float64) string {
	switch {
	case ratio >= c.ExcellentRiskReward:
		return GradeExcellent
	case ratio >= c.GoodRiskReward:
		return GradeGood
	default:
		return GradePoor
	}
}

// PositionSize returns the number of units whose stop-out loses
// AccountSize*RiskPerTrade, capped so the notional stays within
// AccountSize*MaxPositionSize. It is 0 when sizing is disabled or the stop is at price.
func (c Config) PositionSize(price, stopLoss float64) float64 {
	stopDistance := math.Abs(price - stopLoss)
	if c.AccountSize <= 0 || stopDistance == 0 || price <= 0 {
		return 0
	}

	size := c.AccountSize * c.RiskPerTrade / stopDistance
	maxSize := c.AccountSize * c.MaxPositionSize / price
	return math.Min(size, maxSize)
}
