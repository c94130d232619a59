package ml

import (
	"fmt"
	"math"
)

// BoostConfig drives the shared gradient boosting engine. The library-flavoured
// families differ only in regularisation and tree growth policy.
type BoostConfig struct {
	Rounds         int
	LearningRate   float64
	MaxDepth       int
	MaxLeaves      int
	MinSamplesLeaf int
	MinChildWeight float64
	Lambda         float64
	Gamma          float64
	Policy         GrowPolicy
}

// Booster is a multinomial gradient boosted tree ensemble: every round fits one
// regression tree per class to the softmax gradients
type Booster struct {
	cfg        BoostConfig
	numClasses int
	base       []float64
	rounds     [][]*tree
}

// NewBooster returns an unfitted booster
func NewBooster(cfg BoostConfig) *Booster {
	return &Booster{cfg: cfg}
}

// Fit runs cfg.Rounds boosting rounds starting from the log class priors
func (b *Booster) Fit(X [][]float64, y []int, numClasses int) error {
	if _, err := checkTrainingSet(X, y, numClasses); err != nil {
		return fmt.Errorf("%s boosting: %w", b.cfg.Policy, err)
	}
	if b.cfg.Rounds <= 0 || b.cfg.LearningRate <= 0 {
		return fmt.Errorf("%s boosting: rounds and learning rate must be positive", b.cfg.Policy)
	}

	n := len(X)
	data := newDataset(X)
	treeCfg := gradTreeConfig{
		maxDepth:       b.cfg.MaxDepth,
		maxLeaves:      b.cfg.MaxLeaves,
		minSamplesLeaf: max(b.cfg.MinSamplesLeaf, 1),
		minChildWeight: b.cfg.MinChildWeight,
		lambda:         b.cfg.Lambda,
		gamma:          b.cfg.Gamma,
		policy:         b.cfg.Policy,
	}
	if treeCfg.policy == GrowLeafwise && treeCfg.maxLeaves < 2 {
		treeCfg.maxLeaves = 31
	}

	b.numClasses = numClasses
	b.base = logPriors(y, numClasses)
	b.rounds = make([][]*tree, 0, b.cfg.Rounds)

	raw := make([][]float64, n)
	for i := range raw {
		raw[i] = append([]float64(nil), b.base...)
	}
	proba := make([]float64, numClasses)
	grad := make([][]float64, numClasses)
	hess := make([][]float64, numClasses)
	for c := range grad {
		grad[c] = make([]float64, n)
		hess[c] = make([]float64, n)
	}

	for r := 0; r < b.cfg.Rounds; r++ {
		for i := 0; i < n; i++ {
			softmax(raw[i], proba)
			for c := 0; c < numClasses; c++ {
				target := 0.0
				if y[i] == c {
					target = 1
				}
				grad[c][i] = proba[c] - target
				hess[c][i] = math.Max(proba[c]*(1-proba[c]), minHessian)
			}
		}

		round := make([]*tree, numClasses)
		for c := 0; c < numClasses; c++ {
			t := growGradientTree(data, grad[c], hess[c], treeCfg)
			for j := range t.Nodes {
				t.Nodes[j].Value *= b.cfg.LearningRate
			}
			round[c] = t
			for i := 0; i < n; i++ {
				raw[i][c] += t.leaf(X[i]).Value
			}
		}
		b.rounds = append(b.rounds, round)
	}
	return nil
}

// PredictProba applies softmax to the accumulated raw scores
func (b *Booster) PredictProba(x []float64) []float64 {
	proba := make([]float64, b.numClasses)
	if b.numClasses == 0 {
		return proba
	}
	raw := append([]float64(nil), b.base...)
	for _, round := range b.rounds {
		for c, t := range round {
			raw[c] += t.leaf(x).Value
		}
	}
	softmax(raw, proba)
	return proba
}

// Rounds reports how many boosting rounds were fitted
func (b *Booster) Rounds() int { return len(b.rounds) }

func logPriors(y []int, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, c := range y {
		counts[c]++
	}
	base := make([]float64, numClasses)
	for c, n := range counts {
		// an absent class starts strongly negative instead of -Inf
		base[c] = math.Log(math.Max(n, 1e-3) / float64(len(y)))
	}
	return base
}
