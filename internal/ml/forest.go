package ml

import (
	"fmt"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// RandomForest averages the class distributions of bootstrapped CART trees
type RandomForest struct {
	params     RandomForestParams
	trees      []*tree
	numClasses int
}

// NewRandomForest returns an unfitted forest
func NewRandomForest(p RandomForestParams) *RandomForest {
	return &RandomForest{params: p}
}

// Fit grows the trees concurrently. Tree i always draws from seed RandomState+i,
// so the fitted forest does not depend on scheduling.
func (f *RandomForest) Fit(X [][]float64, y []int, numClasses int) error {
	width, err := checkTrainingSet(X, y, numClasses)
	if err != nil {
		return fmt.Errorf("random forest: %w", err)
	}
	if f.params.NEstimators <= 0 {
		return fmt.Errorf("random forest: n_estimators must be positive")
	}

	data := newDataset(X)
	cfg := cartConfig{
		maxDepth:        f.params.MaxDepth,
		minSamplesSplit: max(f.params.MinSamplesSplit, 2),
		minSamplesLeaf:  max(f.params.MinSamplesLeaf, 1),
		maxFeatures:     sqrtFeatures(width),
	}

	trees := make([]*tree, f.params.NEstimators)
	var g errgroup.Group
	g.SetLimit(max(f.params.Workers, 1))
	for t := range trees {
		t := t
		g.Go(func() error {
			rng := rand.New(rand.NewSource(f.params.RandomState + int64(t)))
			weights := make([]float64, len(X))
			if f.params.Bootstrap {
				for range X {
					weights[rng.Intn(len(X))]++
				}
			} else {
				for i := range weights {
					weights[i] = 1
				}
			}
			trees[t] = growCART(data, y, numClasses, weights, cfg, rng)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("random forest: %w", err)
	}

	f.trees = trees
	f.numClasses = numClasses
	return nil
}

// PredictProba averages the leaf distributions over all trees
func (f *RandomForest) PredictProba(x []float64) []float64 {
	proba := make([]float64, f.numClasses)
	if len(f.trees) == 0 {
		return proba
	}
	for _, t := range f.trees {
		for c, p := range t.leaf(x).Dist {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.trees))
	}
	return proba
}

// Trees reports how many trees were grown
func (f *RandomForest) Trees() int { return len(f.trees) }
