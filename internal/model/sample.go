package model

import "fmt"

// Target is the three-class trading label
type Target int

const (
	TargetShort Target = -1
	TargetHold  Target = 0
	TargetLong  Target = 1
)

// Targets lists every class in ascending order
var Targets = []Target{TargetShort, TargetHold, TargetLong}

// Action maps the label to the trading action it stands for
func (t Target) Action() Action {
	switch t {
	case TargetLong:
		return ActionLong
	case TargetShort:
		return ActionShort
	default:
		return ActionHold
	}
}

func (t Target) String() string {
	return fmt.Sprintf("%d(%s)", int(t), t.Action())
}

// LabeledSample is a feature row with its forward return and label
type LabeledSample struct {
	FeatureRow
	FutureReturn float64 `json:"future_return"`
	Target       Target  `json:"target"`
}

// SampleTable holds labeled samples in the order of the feature table they came from
type SampleTable struct {
	Columns []string        `json:"columns"`
	Rows    []LabeledSample `json:"rows"`
}

// Len returns the number of samples
func (t *SampleTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ClassCounts counts samples per target
func (t *SampleTable) ClassCounts() map[Target]int {
	counts := make(map[Target]int, len(Targets))
	if t == nil {
		return counts
	}
	for _, r := range t.Rows {
		counts[r.Target]++
	}
	return counts
}

// Features returns the sample table viewed as a feature table
func (t *SampleTable) Features() *FeatureTable {
	if t == nil {
		return nil
	}
	rows := make([]FeatureRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.FeatureRow
	}
	return &FeatureTable{Columns: t.Columns, Rows: rows}
}
