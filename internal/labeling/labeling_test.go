package labeling

import (
	"errors"
	"testing"
	"time"

	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
)

func TestClassifyBoundaries(t *testing.T) {
	p := DefaultParams()

	tests := []struct {
		name         string
		futureReturn float64
		want         model.Target
	}{
		{"above profit threshold", 0.03, model.TargetLong},
		{"below loss threshold", -0.02, model.TargetShort},
		{"flat", 0.0, model.TargetHold},
		{"exactly profit threshold", 0.02, model.TargetHold},
		{"exactly loss threshold", -0.01, model.TargetHold},
		{"just above profit threshold", 0.0200001, model.TargetLong},
		{"just below loss threshold", -0.0100001, model.TargetShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.futureReturn, p); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.futureReturn, got, tt.want)
			}
		})
	}
}

func TestDefaultParams(t *testing.T) {
	p := DefaultParams()
	if p.Lookforward != 5 || p.ProfitThreshold != 0.02 || p.LossThreshold != -0.01 {
		t.Errorf("DefaultParams() = %+v", p)
	}
	bad := p
	bad.Lookforward = 0
	if bad.Validate() == nil {
		t.Error("expected error for zero lookforward")
	}
	bad = p
	bad.LossThreshold = 0.01
	if bad.Validate() == nil {
		t.Error("expected error for positive loss threshold")
	}
}

func rowsFor(instrument string, closes []float64) []model.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.FeatureRow, len(closes))
	for i, c := range closes {
		rows[i] = model.FeatureRow{
			PriceBar: model.PriceBar{Date: start.AddDate(0, 0, i), Instrument: instrument, Close: c},
			Values:   map[string]float64{"rsi": 50},
		}
	}
	return rows
}

func TestLabelPerInstrument(t *testing.T) {
	a := rowsFor("A", []float64{100, 103, 99, 100})
	b := rowsFor("B", []float64{200, 199, 210})

	// interleave by date: A0 B0 A1 B1 A2 B2 A3
	table := &model.FeatureTable{Columns: []string{"rsi"}}
	table.Rows = []model.FeatureRow{a[0], b[0], a[1], b[1], a[2], b[2], a[3]}

	p := Params{Lookforward: 1, ProfitThreshold: 0.02, LossThreshold: -0.01}
	samples, stats, err := Label(table, p)
	if err != nil {
		t.Fatalf("Label() error = %v", err)
	}

	want := []struct {
		instrument string
		target     model.Target
	}{
		{"A", model.TargetLong},  // 100 -> 103
		{"B", model.TargetHold},  // 200 -> 199 is -0.5%
		{"A", model.TargetShort}, // 103 -> 99
		{"B", model.TargetLong},  // 199 -> 210
		{"A", model.TargetHold},  // 99 -> 100
	}
	if samples.Len() != len(want) {
		t.Fatalf("samples = %d, want %d", samples.Len(), len(want))
	}
	for i, w := range want {
		got := samples.Rows[i]
		if got.Instrument != w.instrument || got.Target != w.target {
			t.Errorf("sample %d = %s/%v, want %s/%v", i, got.Instrument, got.Target, w.instrument, w.target)
		}
	}
	if stats.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2 (last row of each instrument)", stats.Dropped)
	}
	if stats.ClassCounts[model.TargetLong] != 2 || stats.ClassCounts[model.TargetShort] != 1 || stats.ClassCounts[model.TargetHold] != 2 {
		t.Errorf("ClassCounts = %v", stats.ClassCounts)
	}
}

func TestLabelErrors(t *testing.T) {
	_, _, err := Label(&model.FeatureTable{}, DefaultParams())
	var stateErr *pipelineerr.StateError
	if !errors.As(err, &stateErr) {
		t.Errorf("expected StateError, got %v", err)
	}

	table := &model.FeatureTable{Rows: rowsFor("A", []float64{1, 2, 3})}
	_, _, err = Label(table, DefaultParams())
	var dataErr *pipelineerr.InsufficientDataError
	if !errors.As(err, &dataErr) {
		t.Errorf("expected InsufficientDataError, got %v", err)
	}
}
