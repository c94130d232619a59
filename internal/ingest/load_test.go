package ingest

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
)

const userCSV = `trade_date,symbol,o,h,l,c,vol,oi
2024-01-03,RB2405,3900,3950,3880,3920,1200,5000
2024-01-02,RB2405,3880,3910,3860,3900,1100,4900
2024-01-02,HC2405,4000,4020,3990,4010,800,3000
not-a-date,RB2405,3900,3950,3880,3920,1200,5000
2024-01-04,RB2405,3920,abc,3900,3930,1000,5100
2024-01-05,RB2405,3930,3960,3910,3950,,5200
2024-01-06,RB2405,3950,3970,3940,-1,900,5200
2024-01-03,RB2405,1,1,1,1,1,1
2024/01/07,HC2405,4010,4040,4000,4030,700.0,3100
`

func userMapping() ColumnMapping {
	return ColumnMapping{
		"trade_date": "date",
		"symbol":     "contract",
		"o":          "open",
		"h":          "high",
		"l":          "low",
		"c":          "close",
		"vol":        "volume",
		"oi":         "open_interest",
	}
}

func TestLoadDropsUnusableRows(t *testing.T) {
	bars, report, err := Load(context.Background(), NewCSVSource(strings.NewReader(userCSV)), userMapping())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if report.SourceRows != 9 {
		t.Errorf("SourceRows = %d, want 9", report.SourceRows)
	}
	if report.DroppedDate != 1 || report.DroppedMissing != 2 || report.DroppedInvalid != 1 || report.DroppedDuplicate != 1 {
		t.Errorf("unexpected drop counts: %+v", report)
	}
	if len(bars) != 4 || report.Loaded != 4 {
		t.Fatalf("loaded %d bars, want 4", len(bars))
	}
	if report.Instruments != 2 {
		t.Errorf("Instruments = %d, want 2", report.Instruments)
	}

	var got []string
	for _, b := range bars {
		got = append(got, b.Day()+"/"+b.Instrument)
	}
	want := []string{"2024-01-02/RB2405", "2024-01-02/HC2405", "2024-01-03/RB2405", "2024-01-07/HC2405"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}

	// the duplicate 2024-01-03 row comes later in the source and is dropped
	if bars[2].Close != 3920 {
		t.Errorf("kept duplicate close = %v, want 3920", bars[2].Close)
	}
	if bars[3].Volume != 700 {
		t.Errorf("volume = %d, want 700", bars[3].Volume)
	}
}

func TestLoadStrictlyIncreasingDatesPerInstrument(t *testing.T) {
	bars, _, err := Load(context.Background(), NewCSVSource(strings.NewReader(userCSV)), userMapping())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	last := map[string]string{}
	for _, b := range bars {
		if prev, ok := last[b.Instrument]; ok && b.Day() <= prev {
			t.Fatalf("%s: date %s not after %s", b.Instrument, b.Day(), prev)
		}
		last[b.Instrument] = b.Day()
	}
}

func TestLoadSkipsMalformedRecords(t *testing.T) {
	csv := "date,contract,open,high,low,close,volume,open_interest\n" +
		"2024-01-02,RB,3900,3950,3880,3920,1200,5000\n" +
		"2024-01-03,R\"B,3920,3960,3900,3940,1100,5100\n" +
		"2024-01-04,RB,3940,3970,3920,3950,1000,5200\n"

	bars, report, err := Load(context.Background(), NewCSVSource(strings.NewReader(csv)), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(bars) != 2 || bars[0].Day() != "2024-01-02" || bars[1].Day() != "2024-01-04" {
		t.Fatalf("bars = %+v", bars)
	}
	if report.SourceRows != 3 || report.DroppedMalformed != 1 || report.Dropped() != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(report.Issues) != 1 || report.Issues[0].Row != 3 || report.Issues[0].Field != "record" {
		t.Errorf("issues = %+v", report.Issues)
	}
}

func TestLoadSchemaError(t *testing.T) {
	mapping := userMapping()
	delete(mapping, "oi")
	delete(mapping, "vol")

	_, _, err := Load(context.Background(), NewCSVSource(strings.NewReader(userCSV)), mapping)

	var schemaErr *pipelineerr.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
	if !reflect.DeepEqual(schemaErr.Missing, []string{"volume", "open_interest"}) {
		t.Errorf("Missing = %v", schemaErr.Missing)
	}
	if pipelineerr.Code(err) != pipelineerr.CodeMissingColumns {
		t.Errorf("Code = %s", pipelineerr.Code(err))
	}
}

func TestLoadCanonicalHeaderNeedsNoMapping(t *testing.T) {
	csv := "date,contract,open,high,low,close,volume,open_interest\n2024-01-02,IF2401,1,2,0.5,1.5,10,20\n"
	bars, _, err := Load(context.Background(), NewCSVSource(strings.NewReader(csv)), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(bars) != 1 || bars[0].Instrument != "IF2401" {
		t.Errorf("bars = %+v", bars)
	}
}

func TestLoadNoValidRows(t *testing.T) {
	csv := "date,contract,open,high,low,close,volume,open_interest\nbad,IF2401,1,2,0.5,1.5,10,20\n"
	_, _, err := Load(context.Background(), NewCSVSource(strings.NewReader(csv)), nil)

	var dataErr *pipelineerr.InsufficientDataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
}

func TestColumnMappingValidate(t *testing.T) {
	tests := []struct {
		name    string
		mapping ColumnMapping
		wantErr bool
	}{
		{"valid", userMapping(), false},
		{"instrument alias", ColumnMapping{"sym": "instrument"}, false},
		{"unknown target", ColumnMapping{"x": "price"}, true},
		{"duplicate target", ColumnMapping{"a": "close", "b": "close"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mapping.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]string{"日期=date", " symbol = contract ", ""})
	if err != nil {
		t.Fatalf("ParseMapping() error = %v", err)
	}
	if m["日期"] != "date" || m["symbol"] != "contract" {
		t.Errorf("mapping = %v", m)
	}

	if _, err := ParseMapping([]string{"nodelimiter"}); err == nil {
		t.Error("expected error for pair without '='")
	}
}
