package pipeline

import (
	"sort"

	"github.com/Alias1177/futures-analyzer/internal/model"
)

// Overview summarises what a session holds
type Overview struct {
	Session     string               `json:"session"`
	Rows        int                  `json:"rows"`
	Contracts   []string             `json:"contracts"`
	FirstDate   string               `json:"first_date,omitempty"`
	LastDate    string               `json:"last_date,omitempty"`
	FeatureRows int                  `json:"feature_rows"`
	Samples     int                  `json:"samples"`
	ClassCounts map[model.Target]int `json:"class_counts,omitempty"`
	ModelType   string               `json:"model_type,omitempty"`
	Accuracy    float64              `json:"accuracy,omitempty"`
}

// Summarize reports row counts, contracts, date range and training status
func Summarize(s State) Overview {
	o := Overview{
		Session:     s.Session,
		Rows:        len(s.Bars),
		FeatureRows: s.Features.Len(),
		Samples:     s.Samples.Len(),
	}

	seen := make(map[string]struct{})
	for _, b := range s.Bars {
		if _, ok := seen[b.Instrument]; !ok {
			seen[b.Instrument] = struct{}{}
			o.Contracts = append(o.Contracts, b.Instrument)
		}
	}
	sort.Strings(o.Contracts)

	if len(s.Bars) > 0 {
		// bars are sorted by date
		o.FirstDate = s.Bars[0].Day()
		o.LastDate = s.Bars[len(s.Bars)-1].Day()
	}
	if s.Samples.Len() > 0 {
		o.ClassCounts = s.Samples.ClassCounts()
	}
	if s.Model != nil {
		o.ModelType = string(s.Model.Kind)
		o.Accuracy = s.Model.Report.Accuracy
	}
	return o
}
