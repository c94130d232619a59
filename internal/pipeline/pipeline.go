// Package pipeline runs the analysis stages over an explicit, immutable State.
// Every stage takes the current State and returns the next one with a Result;
// on failure the input State is returned unchanged.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/futures-analyzer/internal/features"
	"github.com/Alias1177/futures-analyzer/internal/ingest"
	"github.com/Alias1177/futures-analyzer/internal/labeling"
	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
	"github.com/Alias1177/futures-analyzer/internal/strategy"
	"github.com/Alias1177/futures-analyzer/internal/trading/risk"
	"github.com/Alias1177/futures-analyzer/internal/training"
)

// Stage names
const (
	StageLoad     = "load_data"
	StageFeatures = "create_features"
	StageTarget   = "create_target"
	StageTrain    = "train_model"
	StagePredict  = "predict_strategy"
)

// Result is the outcome of one stage
type Result struct {
	Stage    string
	Success  bool
	Message  string
	Code     string
	Err      error
	Rows     int
	Duration time.Duration
}

// State is one analysis session. Stages never modify a State in place.
type State struct {
	Session string

	Bars   []model.PriceBar
	Ingest ingest.Report

	Features     *model.FeatureTable
	FeatureStats features.Stats

	Samples    *model.SampleTable
	LabelStats labeling.Stats

	Model *training.TrainedModel
}

// New starts an empty session
func New() State {
	return State{Session: uuid.NewString()}
}

func (s State) logger(stage string) zerolog.Logger {
	return log.With().
		Str("component", "pipeline").
		Str("session", s.Session).
		Str("stage", stage).
		Logger()
}

func succeed(stage string, started time.Time, rows int, format string, args ...interface{}) Result {
	return Result{
		Stage:    stage,
		Success:  true,
		Message:  fmt.Sprintf(format, args...),
		Rows:     rows,
		Duration: time.Since(started),
	}
}

func fail(stage string, started time.Time, err error) Result {
	return Result{
		Stage:    stage,
		Success:  false,
		Message:  failureMessages[stage] + ": " + err.Error(),
		Code:     pipelineerr.Code(err),
		Err:      err,
		Duration: time.Since(started),
	}
}

var failureMessages = map[string]string{
	StageLoad:     "data import failed",
	StageFeatures: "feature creation failed",
	StageTarget:   "target creation failed",
	StageTrain:    "model training failed",
	StagePredict:  "strategy prediction failed",
}

// LoadData replaces the bar store with the validated rows of src. Tables derived
// from earlier bars are discarded; a trained model is kept.
func LoadData(ctx context.Context, s State, src ingest.TableSource, mapping ingest.ColumnMapping) (State, Result) {
	started := time.Now()
	logger := s.logger(StageLoad)

	bars, report, err := ingest.Load(ctx, src, mapping)
	if err != nil {
		logger.Error().Err(err).Int("source_rows", report.SourceRows).Msg("Data import failed")
		return s, fail(StageLoad, started, err)
	}
	if report.Dropped() > 0 {
		logger.Warn().
			Int("bad_date", report.DroppedDate).
			Int("missing", report.DroppedMissing).
			Int("invalid", report.DroppedInvalid).
			Int("duplicate", report.DroppedDuplicate).
			Int("malformed", report.DroppedMalformed).
			Msg("Dropped unusable rows")
	}

	next := s
	next.Bars = bars
	next.Ingest = report
	next.Features, next.FeatureStats = nil, features.Stats{}
	next.Samples, next.LabelStats = nil, labeling.Stats{}

	res := succeed(StageLoad, started, len(bars),
		"data imported: %d rows, %d contracts (%d dropped)", len(bars), report.Instruments, report.Dropped())
	logger.Info().Int("rows", len(bars)).Int("contracts", report.Instruments).Dur("took", res.Duration).Msg("Data imported")
	return next, res
}

// BuildFeatures derives the feature table from the bar store
func BuildFeatures(s State, cfg features.Config) (State, Result) {
	started := time.Now()
	logger := s.logger(StageFeatures)

	table, stats, err := features.Build(s.Bars, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Feature creation failed")
		return s, fail(StageFeatures, started, err)
	}

	next := s
	next.Features = table
	next.FeatureStats = stats
	next.Samples, next.LabelStats = nil, labeling.Stats{}

	res := succeed(StageFeatures, started, table.Len(),
		"features created: %d rows, %d columns (%d warm-up rows dropped)", table.Len(), len(table.Columns), stats.WarmUpRows)
	logger.Info().Int("rows", table.Len()).Int("warm_up", stats.WarmUpRows).Dur("took", res.Duration).Msg("Features created")
	return next, res
}

// CreateTarget labels the feature table
func CreateTarget(s State, p labeling.Params) (State, Result) {
	started := time.Now()
	logger := s.logger(StageTarget)

	samples, stats, err := labeling.Label(s.Features, p)
	if err != nil {
		logger.Error().Err(err).Msg("Target creation failed")
		return s, fail(StageTarget, started, err)
	}

	next := s
	next.Samples = samples
	next.LabelStats = stats

	counts := stats.ClassCounts
	res := succeed(StageTarget, started, samples.Len(),
		"target created: %d samples (long %d, hold %d, short %d)",
		samples.Len(), counts[model.TargetLong], counts[model.TargetHold], counts[model.TargetShort])
	logger.Info().
		Int("samples", samples.Len()).
		Int("long", counts[model.TargetLong]).
		Int("hold", counts[model.TargetHold]).
		Int("short", counts[model.TargetShort]).
		Int("dropped", stats.Dropped).
		Dur("took", res.Duration).
		Msg("Target created")
	return next, res
}

// TrainModel fits a classifier on the labeled samples, replacing any previous model
func TrainModel(s State, p training.Params) (State, Result) {
	started := time.Now()
	logger := s.logger(StageTrain)

	trained, err := training.Train(s.Samples, p)
	if err != nil {
		logger.Error().Err(err).Str("model_type", p.ModelType).Msg("Model training failed")
		return s, fail(StageTrain, started, err)
	}

	next := s
	next.Model = trained

	r := trained.Report
	res := succeed(StageTrain, started, r.TrainSize,
		"model trained: %s accuracy %.4f (train %d, test %d)", trained.Kind, r.Accuracy, r.TrainSize, r.TestSize)
	logger.Info().
		Str("model_type", string(trained.Kind)).
		Float64("accuracy", r.Accuracy).
		Float64("macro_f1", r.MacroF1).
		Int("train", r.TrainSize).
		Int("test", r.TestSize).
		Dur("took", res.Duration).
		Msg("Model trained")
	return next, res
}

// PredictStrategy recommends a trade from the latest row of table. A nil table
// means the labeled samples of s. The State is never modified.
func PredictStrategy(s State, table *model.FeatureTable, cfg risk.Config) (model.StrategyRecommendation, Result) {
	return predict(s, cfg, func(m *training.TrainedModel, t *model.FeatureTable) (model.StrategyRecommendation, error) {
		return strategy.Recommend(m, t, cfg)
	}, table)
}

// PredictFor recommends a trade from the latest row of one contract
func PredictFor(s State, table *model.FeatureTable, instrument string, cfg risk.Config) (model.StrategyRecommendation, Result) {
	return predict(s, cfg, func(m *training.TrainedModel, t *model.FeatureTable) (model.StrategyRecommendation, error) {
		return strategy.RecommendFor(m, t, instrument, cfg)
	}, table)
}

type recommender func(*training.TrainedModel, *model.FeatureTable) (model.StrategyRecommendation, error)

func predict(s State, cfg risk.Config, run recommender, table *model.FeatureTable) (model.StrategyRecommendation, Result) {
	started := time.Now()
	logger := s.logger(StagePredict)

	if s.Model == nil {
		err := &pipelineerr.StateError{Stage: "predict strategy", Need: "no model trained"}
		logger.Error().Err(err).Msg("Strategy prediction failed")
		return model.StrategyRecommendation{}, fail(StagePredict, started, err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Strategy prediction failed")
		return model.StrategyRecommendation{}, fail(StagePredict, started, fmt.Errorf("risk config: %w", err))
	}
	if table == nil {
		if s.Samples.Len() == 0 {
			err := &pipelineerr.StateError{Stage: "predict strategy", Need: "no labeled samples to predict from"}
			logger.Error().Err(err).Msg("Strategy prediction failed")
			return model.StrategyRecommendation{}, fail(StagePredict, started, err)
		}
		table = s.Samples.Features()
	}

	rec, err := run(s.Model, table)
	if err != nil {
		logger.Error().Err(err).Msg("Strategy prediction failed")
		return model.StrategyRecommendation{}, fail(StagePredict, started, err)
	}

	res := succeed(StagePredict, started, 1,
		"strategy predicted: %s %s at %.4f, success rate %.1f%%, risk/reward %.2f",
		rec.Instrument, rec.Action, rec.CurrentPrice, rec.SuccessRate, rec.RiskRewardRatio)
	logger.Info().
		Str("contract", rec.Instrument).
		Str("date", rec.Date).
		Str("action", string(rec.Action)).
		Float64("success_rate", rec.SuccessRate).
		Float64("risk_reward", rec.RiskRewardRatio).
		Dur("took", res.Duration).
		Msg("Strategy predicted")
	return rec, res
}
