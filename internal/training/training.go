// Package training fits a classifier on labeled samples and evaluates it on a
// stratified held-out split.
package training

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/Alias1177/futures-analyzer/internal/features"
	"github.com/Alias1177/futures-analyzer/internal/ml"
	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
	"github.com/Alias1177/futures-analyzer/internal/utils"
)

// Params controls a training run
type Params struct {
	ModelType       string             `yaml:"model_type" default:"random_forest" validate:"required"`
	TestFraction    float64            `yaml:"test_fraction" default:"0.2" validate:"gt=0,lt=1"`
	RandomState     int64              `yaml:"random_state" default:"42"`
	Hyperparameters ml.Hyperparameters `yaml:"models"`
}

// DefaultParams returns random forest with a 20% test split
func DefaultParams() Params {
	var p Params
	if err := utils.ApplyDefaults(&p); err != nil {
		panic(fmt.Sprintf("training: invalid default tags: %v", err))
	}
	return p
}

// Validate checks the split settings
func (p Params) Validate() error {
	return utils.ValidateParams(p)
}

// TrainedModel binds a fitted classifier to the ordered feature list and
// scaler it was trained with
type TrainedModel struct {
	Kind       ml.Kind
	Features   []string
	Scaler     *ml.Scaler
	Classifier ml.Classifier
	// Classes maps classifier output index to label
	Classes []model.Target
	Report  model.EvaluationReport
}

// Train selects the model inputs present in samples, splits them, fits the scaler
// on the training part only and fits the classifier.
func Train(samples *model.SampleTable, p Params) (*TrainedModel, error) {
	if samples.Len() == 0 {
		return nil, &pipelineerr.StateError{Stage: "train model", Need: "no labeled samples"}
	}
	kind, err := ml.ParseKind(p.ModelType)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("training params: %w", err)
	}
	spec, err := p.Hyperparameters.Spec(kind)
	if err != nil {
		return nil, err
	}

	cols := SelectFeatures(samples.Columns)
	if len(cols) == 0 {
		return nil, &pipelineerr.InsufficientDataError{What: "model feature columns", Have: 0, Need: len(features.ModelColumns)}
	}

	classes := presentClasses(samples)
	if len(classes) < 2 {
		return nil, &pipelineerr.InsufficientDataError{What: "distinct classes", Have: len(classes), Need: 2}
	}
	classIndex := make(map[model.Target]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}

	X := make([][]float64, samples.Len())
	y := make([]int, samples.Len())
	for i, row := range samples.Rows {
		vec, err := Vector(row.FeatureRow, cols)
		if err != nil {
			return nil, err
		}
		X[i] = vec
		y[i] = classIndex[row.Target]
	}

	trainIdx, testIdx, err := StratifiedSplit(y, len(classes), p.TestFraction, p.RandomState)
	if err != nil {
		return nil, err
	}

	trainX, trainY := subset(X, y, trainIdx)
	testX, testY := subset(X, y, testIdx)

	scaler, err := ml.FitScaler(trainX)
	if err != nil {
		return nil, err
	}
	clf := spec.New()
	if err := clf.Fit(scaler.TransformAll(trainX), trainY, len(classes)); err != nil {
		return nil, fmt.Errorf("fit %s: %w", kind, err)
	}

	trained := &TrainedModel{
		Kind:       kind,
		Features:   cols,
		Scaler:     scaler,
		Classifier: clf,
		Classes:    classes,
	}
	trained.Report = evaluate(trained, scaler.TransformAll(testX), testY, trainY)
	return trained, nil
}

// SelectFeatures returns the model input columns present in available, in model order
func SelectFeatures(available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, c := range available {
		have[c] = struct{}{}
	}
	var cols []string
	for _, c := range features.ModelColumns {
		if _, ok := have[c]; ok {
			cols = append(cols, c)
		}
	}
	return cols
}

// Vector extracts cols from row in order. A missing or undefined value is a FeatureMismatchError.
func Vector(row model.FeatureRow, cols []string) ([]float64, error) {
	vec := make([]float64, len(cols))
	var missing []string
	for j, c := range cols {
		v, ok := row.Value(c)
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			missing = append(missing, c)
			continue
		}
		vec[j] = v
	}
	if len(missing) > 0 {
		return nil, &pipelineerr.FeatureMismatchError{Missing: missing}
	}
	return vec, nil
}

// Predict standardises row with the training scaler and returns the predicted
// label with the probability of every class, ordered as Classes.
func (m *TrainedModel) Predict(row model.FeatureRow) (model.Target, []model.ClassProbability, error) {
	vec, err := Vector(row, m.Features)
	if err != nil {
		return 0, nil, err
	}
	proba := m.Classifier.PredictProba(m.Scaler.Transform(vec))
	if len(proba) != len(m.Classes) {
		return 0, nil, fmt.Errorf("classifier returned %d probabilities for %d classes", len(proba), len(m.Classes))
	}

	out := make([]model.ClassProbability, len(proba))
	for i, p := range proba {
		out[i] = model.ClassProbability{Class: m.Classes[i], Probability: p}
	}
	return m.Classes[ml.Argmax(proba)], out, nil
}

func presentClasses(samples *model.SampleTable) []model.Target {
	var classes []model.Target
	for c := range samples.ClassCounts() {
		classes = append(classes, c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	sx := make([][]float64, len(idx))
	sy := make([]int, len(idx))
	for i, k := range idx {
		sx[i] = X[k]
		sy[i] = y[k]
	}
	return sx, sy
}

// StratifiedSplit shuffles each class with a seeded generator and moves
// round(testFraction * classSize) members of it to the test set, keeping at least
// one member on each side. Every class needs two members.
func StratifiedSplit(y []int, numClasses int, testFraction float64, seed int64) ([]int, []int, error) {
	byClass := make([][]int, numClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}
	for c, members := range byClass {
		if len(members) < 2 {
			return nil, nil, &pipelineerr.InsufficientDataError{
				What: fmt.Sprintf("stratified split of class index %d", c),
				Have: len(members),
				Need: 2,
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	var train, test []int
	for _, members := range byClass {
		shuffled := append([]int(nil), members...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		nTest := int(math.Round(testFraction * float64(len(shuffled))))
		nTest = min(max(nTest, 1), len(shuffled)-1)
		test = append(test, shuffled[:nTest]...)
		train = append(train, shuffled[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test, nil
}
