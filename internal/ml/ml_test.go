package ml

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/optimize"

	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
)

// clusters returns three well separated gaussian blobs in 4 dimensions,
// the last two of which are noise
func clusters(perClass int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	centers := [][2]float64{{-3, 0}, {0, 3}, {3, 0}}
	var X [][]float64
	var y []int
	for c, center := range centers {
		for i := 0; i < perClass; i++ {
			X = append(X, []float64{
				center[0] + rng.NormFloat64()*0.5,
				center[1] + rng.NormFloat64()*0.5,
				rng.NormFloat64(),
				rng.NormFloat64(),
			})
			y = append(y, c)
		}
	}
	return X, y
}

func accuracy(c Classifier, X [][]float64, y []int) float64 {
	correct := 0
	for i, row := range X {
		if Predict(c, row) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(X))
}

func smallHyperparameters() Hyperparameters {
	h := DefaultHyperparameters()
	h.RandomForest.NEstimators = 25
	h.GradientBoosting.NEstimators = 30
	h.XGBoost.NEstimators = 30
	h.LightGBM.NEstimators = 30
	h.LightGBM.MinChildSamples = 5
	h.CatBoost.Iterations = 30
	return h
}

func TestClassifiersSeparateClusters(t *testing.T) {
	X, y := clusters(40, 1)
	testX, testY := clusters(20, 2)
	h := smallHyperparameters()

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			spec, err := h.Spec(kind)
			if err != nil {
				t.Fatalf("Spec() error = %v", err)
			}
			if spec.Kind() != kind {
				t.Fatalf("Kind() = %s, want %s", spec.Kind(), kind)
			}

			clf := spec.New()
			if err := clf.Fit(X, y, 3); err != nil {
				t.Fatalf("Fit() error = %v", err)
			}

			if acc := accuracy(clf, testX, testY); acc < 0.9 {
				t.Errorf("held-out accuracy = %.2f, want >= 0.9", acc)
			}

			proba := clf.PredictProba(testX[0])
			if len(proba) != 3 {
				t.Fatalf("len(proba) = %d, want 3", len(proba))
			}
			sum := 0.0
			for _, p := range proba {
				if p < 0 || p > 1 {
					t.Errorf("probability %v outside [0,1]", p)
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("probabilities sum to %v", sum)
			}
		})
	}
}

func TestClassifiersAreDeterministic(t *testing.T) {
	X, y := clusters(30, 3)
	probe := []float64{0.2, 1.1, -0.3, 0.4}
	h := smallHyperparameters()

	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			spec, _ := h.Spec(kind)
			a, b := spec.New(), spec.New()
			if err := a.Fit(X, y, 3); err != nil {
				t.Fatal(err)
			}
			if err := b.Fit(X, y, 3); err != nil {
				t.Fatal(err)
			}
			pa, pb := a.PredictProba(probe), b.PredictProba(probe)
			for c := range pa {
				if pa[c] != pb[c] {
					t.Fatalf("class %d: %v != %v", c, pa[c], pb[c])
				}
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		want    Kind
		wantErr bool
	}{
		{"random_forest", KindRandomForest, false},
		{" XGBoost ", KindXGBoost, false},
		{"catboost", KindCatBoost, false},
		{"neural_network", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				var unknown *pipelineerr.UnknownModelTypeError
				if !errors.As(err, &unknown) {
					t.Errorf("expected UnknownModelTypeError, got %T", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseKind() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDefaultHyperparameters(t *testing.T) {
	h := DefaultHyperparameters()
	if h.RandomForest.NEstimators != 100 || h.RandomForest.RandomState != 42 || !h.RandomForest.Bootstrap {
		t.Errorf("random forest defaults = %+v", h.RandomForest)
	}
	if h.GradientBoosting.MaxDepth != 3 || h.GradientBoosting.LearningRate != 0.1 {
		t.Errorf("gradient boosting defaults = %+v", h.GradientBoosting)
	}
	if h.LogisticRegression.MaxIter != 1000 {
		t.Errorf("logistic regression max_iter = %d", h.LogisticRegression.MaxIter)
	}
	if h.CatBoost.Depth != 3 || h.CatBoost.Iterations != 100 {
		t.Errorf("catboost defaults = %+v", h.CatBoost)
	}

	h.XGBoost.LearningRate = 0
	if _, err := h.Spec(KindXGBoost); err == nil {
		t.Error("expected validation error for zero learning rate")
	}
	if _, err := h.Spec(Kind("svm")); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	h := DefaultHyperparameters()
	spec, _ := h.Spec(KindRandomForest)

	tests := []struct {
		name string
		X    [][]float64
		y    []int
		k    int
	}{
		{"empty", nil, nil, 3},
		{"length mismatch", [][]float64{{1}, {2}}, []int{0}, 2},
		{"label out of range", [][]float64{{1}, {2}}, []int{0, 5}, 2},
		{"ragged rows", [][]float64{{1, 2}, {2}}, []int{0, 1}, 2},
		{"single class", [][]float64{{1}, {2}}, []int{0, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := spec.New().Fit(tt.X, tt.y, tt.k); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestGrowthPolicies(t *testing.T) {
	X, y := clusters(30, 4)
	data := newDataset(X)
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))
	for i, c := range y {
		if c == 0 {
			grad[i] = -1
		} else {
			grad[i] = 0.5
		}
		hess[i] = 0.25
	}

	t.Run("depthwise", func(t *testing.T) {
		tr := growGradientTree(data, grad, hess, gradTreeConfig{maxDepth: 3, minSamplesLeaf: 1, policy: GrowDepthwise})
		if d := tr.depth(); d < 1 || d > 3 {
			t.Errorf("depth = %d, want 1..3", d)
		}
	})

	t.Run("leafwise", func(t *testing.T) {
		tr := growGradientTree(data, grad, hess, gradTreeConfig{maxLeaves: 4, minSamplesLeaf: 1, policy: GrowLeafwise})
		if l := tr.leaves(); l < 2 || l > 4 {
			t.Errorf("leaves = %d, want 2..4", l)
		}
	})

	t.Run("oblivious", func(t *testing.T) {
		tr := growGradientTree(data, grad, hess, gradTreeConfig{maxDepth: 2, minSamplesLeaf: 1, lambda: 1, policy: GrowOblivious})
		d := tr.depth()
		if tr.leaves() != 1<<d {
			t.Errorf("oblivious tree of depth %d has %d leaves", d, tr.leaves())
		}
		// every node on a level shares the root's level split
		root := tr.Nodes[0]
		if root.Left == leafNode {
			t.Fatal("expected at least one split")
		}
		if d == 2 {
			l, r := tr.Nodes[root.Left], tr.Nodes[root.Right]
			if l.Feature != r.Feature || l.Threshold != r.Threshold {
				t.Errorf("level 1 splits differ: %+v vs %+v", l, r)
			}
		}
	})
}

func TestFittedModelState(t *testing.T) {
	X, y := clusters(20, 5)

	forest := NewRandomForest(RandomForestParams{NEstimators: 7, MinSamplesSplit: 2, MinSamplesLeaf: 1, Bootstrap: true, Workers: 2, RandomState: 1})
	if err := forest.Fit(X, y, 3); err != nil {
		t.Fatal(err)
	}
	if forest.Trees() != 7 {
		t.Errorf("Trees() = %d, want 7", forest.Trees())
	}

	booster := NewBooster(BoostConfig{Rounds: 5, LearningRate: 0.1, MaxDepth: 2, MinSamplesLeaf: 1, Lambda: 1, Policy: GrowDepthwise})
	if err := booster.Fit(X, y, 3); err != nil {
		t.Fatal(err)
	}
	if booster.Rounds() != 5 {
		t.Errorf("Rounds() = %d, want 5", booster.Rounds())
	}

	lr := NewLogisticRegression(LogisticRegressionParams{MaxIter: 200, C: 1})
	if err := lr.Fit(X, y, 3); err != nil {
		t.Fatal(err)
	}
	if lr.Status() == optimize.NotTerminated {
		t.Error("optimiser status not set after Fit")
	}
}

func TestScaler(t *testing.T) {
	X := [][]float64{{1, 5}, {3, 5}, {5, 5}}
	s, err := FitScaler(X)
	if err != nil {
		t.Fatal(err)
	}
	if s.Mean[0] != 3 || math.Abs(s.Scale[0]-math.Sqrt(8.0/3.0)) > 1e-12 {
		t.Errorf("column 0 mean/scale = %v/%v", s.Mean[0], s.Scale[0])
	}
	if s.Scale[1] != 1 {
		t.Errorf("constant column scale = %v, want 1", s.Scale[1])
	}
	out := s.Transform([]float64{3, 7})
	if out[0] != 0 || out[1] != 2 {
		t.Errorf("Transform() = %v", out)
	}

	if _, err := FitScaler(nil); err == nil {
		t.Error("expected error for empty matrix")
	}
}

func TestArgmaxTies(t *testing.T) {
	if got := Argmax([]float64{0.4, 0.4, 0.2}); got != 0 {
		t.Errorf("Argmax() = %d, want 0", got)
	}
	if got := Argmax([]float64{0.1, 0.3, 0.6}); got != 2 {
		t.Errorf("Argmax() = %d, want 2", got)
	}
}
