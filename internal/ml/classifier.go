// Package ml implements the classifier families used to predict trade direction.
// Every classifier works on dense row-major feature matrices and integer-coded
// labels in [0, numClasses).
package ml

import (
	"fmt"
	"math"
)

// Classifier is a probabilistic multi-class model
type Classifier interface {
	// Fit trains on X (rows x features) with labels y in [0, numClasses)
	Fit(X [][]float64, y []int, numClasses int) error
	// PredictProba returns one probability per class, summing to 1
	PredictProba(x []float64) []float64
}

// Argmax returns the index of the largest value; ties resolve to the lowest index
func Argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}
	return best
}

// Predict returns the most probable class for x
func Predict(c Classifier, x []float64) int {
	return Argmax(c.PredictProba(x))
}

func checkTrainingSet(X [][]float64, y []int, numClasses int) (int, error) {
	if len(X) == 0 {
		return 0, fmt.Errorf("empty training set")
	}
	if len(X) != len(y) {
		return 0, fmt.Errorf("rows (%d) and labels (%d) differ", len(X), len(y))
	}
	if numClasses < 2 {
		return 0, fmt.Errorf("need at least 2 classes, got %d", numClasses)
	}
	width := len(X[0])
	if width == 0 {
		return 0, fmt.Errorf("no features")
	}
	for i, row := range X {
		if len(row) != width {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
		if y[i] < 0 || y[i] >= numClasses {
			return 0, fmt.Errorf("row %d label %d outside [0,%d)", i, y[i], numClasses)
		}
	}
	return width, nil
}

// softmax writes the normalised exponentials of scores into out
func softmax(scores, out []float64) {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
}
