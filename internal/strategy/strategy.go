// Package strategy turns a trained model's prediction on the latest feature row
// into a trade recommendation.
package strategy

import (
	"fmt"

	"github.com/Alias1177/futures-analyzer/internal/features"
	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
	"github.com/Alias1177/futures-analyzer/internal/trading/risk"
	"github.com/Alias1177/futures-analyzer/internal/training"
)

// Recommend predicts on the most recent row of table
func Recommend(m *training.TrainedModel, table *model.FeatureTable, cfg risk.Config) (model.StrategyRecommendation, error) {
	if m == nil {
		return model.StrategyRecommendation{}, &pipelineerr.StateError{Stage: "predict strategy", Need: "no model trained"}
	}
	if table.Len() == 0 {
		return model.StrategyRecommendation{}, &pipelineerr.InsufficientDataError{What: "inference rows", Have: 0, Need: 1}
	}
	return recommendRow(m, table.Rows[table.Len()-1], cfg)
}

// RecommendFor predicts on the most recent row of one instrument
func RecommendFor(m *training.TrainedModel, table *model.FeatureTable, instrument string, cfg risk.Config) (model.StrategyRecommendation, error) {
	if m == nil {
		return model.StrategyRecommendation{}, &pipelineerr.StateError{Stage: "predict strategy", Need: "no model trained"}
	}
	for i := table.Len() - 1; i >= 0; i-- {
		if table.Rows[i].Instrument == instrument {
			return recommendRow(m, table.Rows[i], cfg)
		}
	}
	return model.StrategyRecommendation{}, fmt.Errorf("no feature rows for instrument %q", instrument)
}

func recommendRow(m *training.TrainedModel, row model.FeatureRow, cfg risk.Config) (model.StrategyRecommendation, error) {
	predicted, proba, err := m.Predict(row)
	if err != nil {
		return model.StrategyRecommendation{}, err
	}

	price := row.Close
	atr, _ := row.Value(features.ColATR)
	atr = cfg.EffectiveATR(price, atr)

	action := predicted.Action()
	stopLoss, takeProfit := cfg.Levels(action, price, atr)
	rr := risk.RiskReward(action, price, stopLoss, takeProfit)

	best := 0.0
	for _, p := range proba {
		best = max(best, p.Probability)
	}
	successRate := best * 100

	rec := model.StrategyRecommendation{
		Instrument:         row.Instrument,
		Date:               row.Day(),
		Action:             action,
		CurrentPrice:       price,
		StopLoss:           stopLoss,
		TakeProfit:         takeProfit,
		SuccessRate:        successRate,
		RiskRewardRatio:    rr,
		PredictedClass:     predicted,
		ClassProbabilities: proba,
		ATR:                atr,
		SuccessGrade:       cfg.GradeSuccessRate(successRate),
		RiskRewardGrade:    cfg.GradeRiskReward(rr),
	}
	if stopLoss != nil {
		rec.PositionSize = cfg.PositionSize(price, *stopLoss)
	}
	return rec, nil
}
