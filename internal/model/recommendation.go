package model

// Action is the recommended trading direction
type Action string

const (
	ActionLong  Action = "long"
	ActionShort Action = "short"
	ActionHold  Action = "hold"
)

// ClassProbability is the classifier's probability for a single class
type ClassProbability struct {
	Class       Target  `json:"class"`
	Probability float64 `json:"probability"`
}

// StrategyRecommendation is the actionable output of inference.
// StopLoss and TakeProfit are nil for hold.
type StrategyRecommendation struct {
	Instrument         string             `json:"contract"`
	Date               string             `json:"date"`
	Action             Action             `json:"action"`
	CurrentPrice       float64            `json:"current_price"`
	StopLoss           *float64           `json:"stop_loss,omitempty"`
	TakeProfit         *float64           `json:"take_profit,omitempty"`
	SuccessRate        float64            `json:"success_rate"`
	RiskRewardRatio    float64            `json:"risk_reward_ratio"`
	PredictedClass     Target             `json:"predicted_class"`
	ClassProbabilities []ClassProbability `json:"class_probabilities"`
	ATR                float64            `json:"atr"`
	SuccessGrade       string             `json:"success_grade"`     // HIGH, MEDIUM, LOW
	RiskRewardGrade    string             `json:"risk_reward_grade"` // EXCELLENT, GOOD, POOR
	PositionSize       float64            `json:"position_size,omitempty"`
}
