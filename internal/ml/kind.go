package ml

import (
	"fmt"
	"strings"

	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
	"github.com/Alias1177/futures-analyzer/internal/utils"
)

// Kind names a supported classifier family
type Kind string

const (
	KindRandomForest       Kind = "random_forest"
	KindGradientBoosting   Kind = "gradient_boosting"
	KindLogisticRegression Kind = "logistic_regression"
	KindXGBoost            Kind = "xgboost"
	KindLightGBM           Kind = "lightgbm"
	KindCatBoost           Kind = "catboost"
)

// Kinds lists every supported classifier family
var Kinds = []Kind{
	KindRandomForest, KindGradientBoosting, KindLogisticRegression,
	KindXGBoost, KindLightGBM, KindCatBoost,
}

// ParseKind resolves a model type name. Unknown names fail with UnknownModelTypeError.
func ParseKind(name string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds {
		if k == normalized {
			return k, nil
		}
	}
	return "", &pipelineerr.UnknownModelTypeError{Name: name}
}

// Spec is a classifier family together with its hyperparameters
type Spec interface {
	Kind() Kind
	New() Classifier
}

// RandomForestParams configures bagged CART trees
type RandomForestParams struct {
	NEstimators     int   `yaml:"n_estimators" default:"100" validate:"gt=0"`
	MaxDepth        int   `yaml:"max_depth" validate:"gte=0"` // 0 = unlimited
	MinSamplesSplit int   `yaml:"min_samples_split" default:"2" validate:"gte=2"`
	MinSamplesLeaf  int   `yaml:"min_samples_leaf" default:"1" validate:"gte=1"`
	Bootstrap       bool  `yaml:"bootstrap" default:"true"`
	Workers         int   `yaml:"workers" default:"4" validate:"gt=0"`
	RandomState     int64 `yaml:"random_state" default:"42"`
}

func (p RandomForestParams) Kind() Kind      { return KindRandomForest }
func (p RandomForestParams) New() Classifier { return NewRandomForest(p) }

// GradientBoostingParams configures classic gradient boosted trees
type GradientBoostingParams struct {
	NEstimators    int     `yaml:"n_estimators" default:"100" validate:"gt=0"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0"`
	MaxDepth       int     `yaml:"max_depth" default:"3" validate:"gt=0"`
	MinSamplesLeaf int     `yaml:"min_samples_leaf" default:"1" validate:"gte=1"`
	RandomState    int64   `yaml:"random_state" default:"42"`
}

func (p GradientBoostingParams) Kind() Kind { return KindGradientBoosting }
func (p GradientBoostingParams) New() Classifier {
	return NewBooster(BoostConfig{
		Rounds:         p.NEstimators,
		LearningRate:   p.LearningRate,
		MaxDepth:       p.MaxDepth,
		MinSamplesLeaf: p.MinSamplesLeaf,
		Policy:         GrowDepthwise,
	})
}

// LogisticRegressionParams configures multinomial logistic regression
type LogisticRegressionParams struct {
	MaxIter     int     `yaml:"max_iter" default:"1000" validate:"gt=0"`
	C           float64 `yaml:"c" default:"1.0" validate:"gt=0"` // inverse L2 strength
	RandomState int64   `yaml:"random_state" default:"42"`
}

func (p LogisticRegressionParams) Kind() Kind      { return KindLogisticRegression }
func (p LogisticRegressionParams) New() Classifier { return NewLogisticRegression(p) }

// XGBoostParams configures level-wise second-order boosting with L2 leaf regularisation
type XGBoostParams struct {
	NEstimators    int     `yaml:"n_estimators" default:"100" validate:"gt=0"`
	LearningRate   float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0"`
	MaxDepth       int     `yaml:"max_depth" default:"3" validate:"gt=0"`
	Lambda         float64 `yaml:"reg_lambda" default:"1" validate:"gte=0"`
	Gamma          float64 `yaml:"gamma" validate:"gte=0"`
	MinChildWeight float64 `yaml:"min_child_weight" default:"1" validate:"gte=0"`
	RandomState    int64   `yaml:"random_state" default:"42"`
}

func (p XGBoostParams) Kind() Kind { return KindXGBoost }
func (p XGBoostParams) New() Classifier {
	return NewBooster(BoostConfig{
		Rounds:         p.NEstimators,
		LearningRate:   p.LearningRate,
		MaxDepth:       p.MaxDepth,
		Lambda:         p.Lambda,
		Gamma:          p.Gamma,
		MinChildWeight: p.MinChildWeight,
		MinSamplesLeaf: 1,
		Policy:         GrowDepthwise,
	})
}

// LightGBMParams configures leaf-wise (best-first) boosting
type LightGBMParams struct {
	NEstimators     int     `yaml:"n_estimators" default:"100" validate:"gt=0"`
	LearningRate    float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0"`
	MaxDepth        int     `yaml:"max_depth" default:"3" validate:"gte=0"` // 0 = unlimited
	NumLeaves       int     `yaml:"num_leaves" default:"31" validate:"gte=2"`
	MinChildSamples int     `yaml:"min_child_samples" default:"20" validate:"gte=1"`
	Lambda          float64 `yaml:"reg_lambda" validate:"gte=0"`
	RandomState     int64   `yaml:"random_state" default:"42"`
}

func (p LightGBMParams) Kind() Kind { return KindLightGBM }
func (p LightGBMParams) New() Classifier {
	return NewBooster(BoostConfig{
		Rounds:         p.NEstimators,
		LearningRate:   p.LearningRate,
		MaxDepth:       p.MaxDepth,
		MaxLeaves:      p.NumLeaves,
		MinSamplesLeaf: p.MinChildSamples,
		Lambda:         p.Lambda,
		Policy:         GrowLeafwise,
	})
}

// CatBoostParams configures boosting over oblivious (symmetric) trees
type CatBoostParams struct {
	Iterations   int     `yaml:"iterations" default:"100" validate:"gt=0"`
	LearningRate float64 `yaml:"learning_rate" default:"0.1" validate:"gt=0"`
	Depth        int     `yaml:"depth" default:"3" validate:"gt=0,lte=10"`
	L2LeafReg    float64 `yaml:"l2_leaf_reg" default:"3" validate:"gte=0"`
	RandomState  int64   `yaml:"random_state" default:"42"`
}

func (p CatBoostParams) Kind() Kind { return KindCatBoost }
func (p CatBoostParams) New() Classifier {
	return NewBooster(BoostConfig{
		Rounds:         p.Iterations,
		LearningRate:   p.LearningRate,
		MaxDepth:       p.Depth,
		Lambda:         p.L2LeafReg,
		MinSamplesLeaf: 1,
		Policy:         GrowOblivious,
	})
}

// Hyperparameters holds one parameter set per classifier family
type Hyperparameters struct {
	RandomForest       RandomForestParams       `yaml:"random_forest"`
	GradientBoosting   GradientBoostingParams   `yaml:"gradient_boosting"`
	LogisticRegression LogisticRegressionParams `yaml:"logistic_regression"`
	XGBoost            XGBoostParams            `yaml:"xgboost"`
	LightGBM           LightGBMParams           `yaml:"lightgbm"`
	CatBoost           CatBoostParams           `yaml:"catboost"`
}

// DefaultHyperparameters returns the stock parameter sets
func DefaultHyperparameters() Hyperparameters {
	var h Hyperparameters
	if err := utils.ApplyDefaults(&h); err != nil {
		panic(fmt.Sprintf("ml: invalid default tags: %v", err))
	}
	return h
}

// Spec returns the validated parameter set for kind
func (h Hyperparameters) Spec(kind Kind) (Spec, error) {
	var spec Spec
	switch kind {
	case KindRandomForest:
		spec = h.RandomForest
	case KindGradientBoosting:
		spec = h.GradientBoosting
	case KindLogisticRegression:
		spec = h.LogisticRegression
	case KindXGBoost:
		spec = h.XGBoost
	case KindLightGBM:
		spec = h.LightGBM
	case KindCatBoost:
		spec = h.CatBoost
	default:
		return nil, &pipelineerr.UnknownModelTypeError{Name: string(kind)}
	}
	if err := utils.ValidateParams(spec); err != nil {
		return nil, fmt.Errorf("%s hyperparameters: %w", kind, err)
	}
	return spec, nil
}
