package database

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/Alias1177/futures-analyzer/internal/model"
)

func TestSelectAllQuotesTable(t *testing.T) {
	tests := []struct {
		table string
		want  string
	}{
		{"price_bars", `SELECT * FROM "price_bars"`},
		{`odd"name`, `SELECT * FROM "odd""name"`},
	}
	for _, tt := range tests {
		if got := selectAll(tt.table); got != tt.want {
			t.Errorf("selectAll(%q) = %s, want %s", tt.table, got, tt.want)
		}
	}
}

func TestToRecord(t *testing.T) {
	values := []sql.NullString{
		{String: "2024-01-02T00:00:00Z", Valid: true},
		{String: "RB2405", Valid: true},
		{},
	}
	want := []string{"2024-01-02T00:00:00Z", "RB2405", ""}
	if got := toRecord(values); !reflect.DeepEqual(got, want) {
		t.Errorf("toRecord() = %v, want %v", got, want)
	}
}

func TestRecommendationArgs(t *testing.T) {
	sl, tp := 96.0, 106.0
	rec := model.StrategyRecommendation{
		Instrument:      "RB2405",
		Date:            "2024-03-01",
		Action:          model.ActionLong,
		CurrentPrice:    100,
		StopLoss:        &sl,
		TakeProfit:      &tp,
		SuccessRate:     71.5,
		RiskRewardRatio: 1.5,
	}

	args := recommendationArgs("sess", "random_forest", rec)
	if len(args) != 10 {
		t.Fatalf("len(args) = %d, want 10", len(args))
	}
	if args[6] != (sql.NullFloat64{Float64: 96, Valid: true}) {
		t.Errorf("stop_loss arg = %v", args[6])
	}

	rec.Action = model.ActionHold
	rec.StopLoss, rec.TakeProfit = nil, nil
	args = recommendationArgs("sess", "random_forest", rec)
	if args[6] != (sql.NullFloat64{}) || args[7] != (sql.NullFloat64{}) {
		t.Errorf("hold levels should be NULL, got %v %v", args[6], args[7])
	}
}
