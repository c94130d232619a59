package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// LogisticRegression is an L2-regularised multinomial (softmax) classifier fitted with L-BFGS
type LogisticRegression struct {
	params     LogisticRegressionParams
	numClasses int
	width      int
	// weights holds numClasses rows of width coefficients followed by one intercept
	weights []float64
	status  optimize.Status
}

// NewLogisticRegression returns an unfitted model
func NewLogisticRegression(p LogisticRegressionParams) *LogisticRegression {
	return &LogisticRegression{params: p}
}

// Fit minimises mean cross-entropy plus ||W||^2 / (2*C*n); intercepts are not penalised
func (m *LogisticRegression) Fit(X [][]float64, y []int, numClasses int) error {
	width, err := checkTrainingSet(X, y, numClasses)
	if err != nil {
		return fmt.Errorf("logistic regression: %w", err)
	}
	if m.params.C <= 0 {
		return fmt.Errorf("logistic regression: C must be positive")
	}

	m.numClasses = numClasses
	m.width = width
	stride := width + 1
	n := float64(len(X))
	alpha := 1 / (m.params.C * n)

	scores := make([]float64, numClasses)
	proba := make([]float64, numClasses)

	objective := func(w, grad []float64) float64 {
		if grad != nil {
			for j := range grad {
				grad[j] = 0
			}
		}
		var loss float64
		for i, row := range X {
			for c := 0; c < numClasses; c++ {
				scores[c] = linear(w[c*stride:(c+1)*stride], row)
			}
			softmax(scores, proba)
			loss -= math.Log(math.Max(proba[y[i]], 1e-300))
			if grad == nil {
				continue
			}
			for c := 0; c < numClasses; c++ {
				d := proba[c]
				if c == y[i] {
					d--
				}
				d /= n
				g := grad[c*stride : (c+1)*stride]
				for j, v := range row {
					g[j] += d * v
				}
				g[width] += d
			}
		}
		loss /= n

		for c := 0; c < numClasses; c++ {
			for j := 0; j < width; j++ {
				v := w[c*stride+j]
				loss += 0.5 * alpha * v * v
				if grad != nil {
					grad[c*stride+j] += alpha * v
				}
			}
		}
		return loss
	}

	problem := optimize.Problem{
		Func: func(w []float64) float64 { return objective(w, nil) },
		Grad: func(grad, w []float64) { objective(w, grad) },
	}
	settings := &optimize.Settings{
		MajorIterations:   m.params.MaxIter,
		GradientThreshold: 1e-6,
	}

	initial := make([]float64, numClasses*stride)
	result, err := optimize.Minimize(problem, initial, settings, &optimize.LBFGS{})
	if result == nil || len(result.X) != len(initial) || math.IsNaN(result.F) {
		if err == nil {
			err = fmt.Errorf("no solution")
		}
		return fmt.Errorf("logistic regression: %w", err)
	}
	// a line search that stalls at the optimum still leaves a usable location
	m.weights = append([]float64(nil), result.X...)
	m.status = result.Status
	return nil
}

// PredictProba returns the softmax of the class scores
func (m *LogisticRegression) PredictProba(x []float64) []float64 {
	proba := make([]float64, m.numClasses)
	if m.weights == nil {
		return proba
	}
	stride := m.width + 1
	scores := make([]float64, m.numClasses)
	for c := range scores {
		scores[c] = linear(m.weights[c*stride:(c+1)*stride], x)
	}
	softmax(scores, proba)
	return proba
}

// Status reports why the optimiser stopped
func (m *LogisticRegression) Status() optimize.Status { return m.status }

// linear evaluates coef[:len(x)]·x + coef[len(x)]
func linear(coef, x []float64) float64 {
	s := coef[len(x)]
	for j, v := range x {
		s += coef[j] * v
	}
	return s
}
