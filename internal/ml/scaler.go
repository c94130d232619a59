package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardises features to zero mean and unit population variance
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// FitScaler learns per-column mean and scale from X. Constant columns get scale 1.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 || len(X[0]) == 0 {
		return nil, fmt.Errorf("scaler: empty matrix")
	}
	width := len(X[0])
	s := &Scaler{Mean: make([]float64, width), Scale: make([]float64, width)}
	column := make([]float64, len(X))
	n := float64(len(X))

	for j := 0; j < width; j++ {
		for i, row := range X {
			if len(row) != width {
				return nil, fmt.Errorf("scaler: row %d has %d features, want %d", i, len(row), width)
			}
			column[i] = row[j]
		}
		mean, variance := stat.MeanVariance(column, nil)
		std := 0.0
		if len(X) > 1 {
			std = math.Sqrt(variance * (n - 1) / n)
		}
		s.Mean[j] = mean
		s.Scale[j] = std
		if std == 0 || math.IsNaN(std) {
			s.Scale[j] = 1
		}
	}
	return s, nil
}

// Transform returns a standardised copy of x
func (s *Scaler) Transform(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out
}

// TransformAll standardises every row of X
func (s *Scaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
