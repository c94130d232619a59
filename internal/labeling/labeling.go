// Package labeling assigns forward-return trading labels to feature rows.
package labeling

import (
	"fmt"

	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
	"github.com/Alias1177/futures-analyzer/internal/utils"
)

// Params controls the lookahead horizon and the class boundaries
type Params struct {
	Lookforward     int     `yaml:"lookforward" default:"5" validate:"gt=0"`
	ProfitThreshold float64 `yaml:"profit_threshold" default:"0.02" validate:"gt=0"`
	LossThreshold   float64 `yaml:"loss_threshold" default:"-0.01" validate:"lt=0"`
}

// DefaultParams returns lookforward 5, profit 2%, loss -1%
func DefaultParams() Params {
	var p Params
	if err := utils.ApplyDefaults(&p); err != nil {
		panic(fmt.Sprintf("labeling: invalid default tags: %v", err))
	}
	return p
}

// Validate checks the parameters
func (p Params) Validate() error {
	return utils.ValidateParams(p)
}

// Stats describes a labeling run
type Stats struct {
	InputRows   int                  `json:"input_rows"`
	OutputRows  int                  `json:"output_rows"`
	Dropped     int                  `json:"dropped"`
	ClassCounts map[model.Target]int `json:"class_counts"`
}

// Classify maps a forward return to a label. The profit check runs first and
// both boundaries are exclusive: a return equal to a threshold is hold.
func Classify(futureReturn float64, p Params) model.Target {
	switch {
	case futureReturn > p.ProfitThreshold:
		return model.TargetLong
	case futureReturn < p.LossThreshold:
		return model.TargetShort
	default:
		return model.TargetHold
	}
}

// Label computes future_return = close[t+lookforward]/close[t] - 1 within each
// instrument and labels the row. The last lookforward rows of each instrument are dropped.
func Label(table *model.FeatureTable, p Params) (*model.SampleTable, Stats, error) {
	stats := Stats{InputRows: table.Len(), ClassCounts: make(map[model.Target]int)}
	if table.Len() == 0 {
		return nil, stats, &pipelineerr.StateError{Stage: "create target", Need: "no features created"}
	}
	if err := p.Validate(); err != nil {
		return nil, stats, fmt.Errorf("label params: %w", err)
	}

	groups := make(map[string][]int)
	for i, row := range table.Rows {
		groups[row.Instrument] = append(groups[row.Instrument], i)
	}

	future := make([]float64, len(table.Rows))
	defined := make([]bool, len(table.Rows))
	longest := 0
	for _, positions := range groups {
		longest = max(longest, len(positions))
		for j := 0; j+p.Lookforward < len(positions); j++ {
			now := table.Rows[positions[j]].Close
			later := table.Rows[positions[j+p.Lookforward]].Close
			future[positions[j]] = later/now - 1
			defined[positions[j]] = true
		}
	}

	samples := &model.SampleTable{Columns: table.Columns}
	for i, row := range table.Rows {
		if !defined[i] {
			stats.Dropped++
			continue
		}
		target := Classify(future[i], p)
		stats.ClassCounts[target]++
		samples.Rows = append(samples.Rows, model.LabeledSample{
			FeatureRow:   row,
			FutureReturn: future[i],
			Target:       target,
		})
	}

	stats.OutputRows = samples.Len()
	if samples.Len() == 0 {
		return nil, stats, &pipelineerr.InsufficientDataError{
			What: "lookahead horizon",
			Have: longest,
			Need: p.Lookforward + 1,
		}
	}
	return samples, stats, nil
}
