package ingest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Alias1177/futures-analyzer/internal/model"
	"github.com/Alias1177/futures-analyzer/internal/pipelineerr"
)

// maxIssues caps how many row-level problems a report keeps
const maxIssues = 20

// dateLayouts are tried in order when parsing the date column
var dateLayouts = []string{
	model.DateLayout,
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006.01.02",
}

// Report summarises what ingestion kept and dropped
type Report struct {
	SourceRows       int                       `json:"source_rows"`
	Loaded           int                       `json:"loaded"`
	DroppedDate      int                       `json:"dropped_date"`
	DroppedMissing   int                       `json:"dropped_missing"`
	DroppedInvalid   int                       `json:"dropped_invalid"`
	DroppedDuplicate int                       `json:"dropped_duplicate"`
	DroppedMalformed int                       `json:"dropped_malformed"`
	Instruments      int                       `json:"instruments"`
	Issues           []*pipelineerr.ParseError `json:"-"`
}

// Dropped returns the total number of rows removed
func (r Report) Dropped() int {
	return r.DroppedDate + r.DroppedMissing + r.DroppedInvalid + r.DroppedDuplicate + r.DroppedMalformed
}

func (r *Report) note(issue *pipelineerr.ParseError) {
	if len(r.Issues) < maxIssues {
		r.Issues = append(r.Issues, issue)
	}
}

// Load reads src, renames columns with mapping and returns validated bars sorted by date.
// Rows with unparseable dates, missing or invalid values are dropped; for a repeated
// (instrument, date) pair the first row in source order is kept.
func Load(ctx context.Context, src TableSource, mapping ColumnMapping) ([]model.PriceBar, Report, error) {
	var report Report

	if err := mapping.Validate(); err != nil {
		return nil, report, fmt.Errorf("column mapping: %w", err)
	}

	table, err := src.ReadTable(ctx)
	if err != nil {
		return nil, report, fmt.Errorf("read source: %w", err)
	}
	report.SourceRows = len(table.Records) + len(table.Malformed)
	report.DroppedMalformed = len(table.Malformed)
	for _, line := range table.Malformed {
		report.note(&pipelineerr.ParseError{Row: line, Field: "record"})
	}

	index, err := resolveColumns(mapping.Apply(table.Header))
	if err != nil {
		return nil, report, err
	}

	bars := make([]model.PriceBar, 0, len(table.Records))
	for i, record := range table.Records {
		bar, ok := parseRecord(i+1, record, index, &report)
		if ok {
			bars = append(bars, bar)
		}
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	bars = dropDuplicates(bars, &report)

	instruments := make(map[string]struct{})
	for _, b := range bars {
		instruments[b.Instrument] = struct{}{}
	}
	report.Instruments = len(instruments)
	report.Loaded = len(bars)

	if len(bars) == 0 {
		return nil, report, &pipelineerr.InsufficientDataError{What: "valid bars", Have: 0, Need: 1}
	}
	return bars, report, nil
}

// resolveColumns locates every canonical field in a renamed header
func resolveColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(RequiredFields))
	for i, col := range header {
		name := canonicalName(col)
		if _, seen := index[name]; seen {
			continue
		}
		if isRequired(name) {
			index[name] = i
		}
	}

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := index[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &pipelineerr.SchemaError{Missing: missing}
	}
	return index, nil
}

func cell(record []string, index map[string]int, field string) string {
	i := index[field]
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseRecord(row int, record []string, index map[string]int, report *Report) (model.PriceBar, bool) {
	var bar model.PriceBar

	rawDate := cell(record, index, FieldDate)
	date, ok := parseDate(rawDate)
	if !ok {
		report.DroppedDate++
		report.note(&pipelineerr.ParseError{Row: row, Field: FieldDate, Value: rawDate})
		return bar, false
	}
	bar.Date = date

	bar.Instrument = cell(record, index, FieldInstrument)
	if bar.Instrument == "" {
		report.DroppedMissing++
		report.note(&pipelineerr.ParseError{Row: row, Field: FieldInstrument})
		return bar, false
	}

	prices := []struct {
		field string
		dst   *float64
	}{
		{FieldOpen, &bar.Open},
		{FieldHigh, &bar.High},
		{FieldLow, &bar.Low},
		{FieldClose, &bar.Close},
	}
	for _, p := range prices {
		raw := cell(record, index, p.field)
		v, ok := parseNumber(raw)
		if !ok {
			report.DroppedMissing++
			report.note(&pipelineerr.ParseError{Row: row, Field: p.field, Value: raw})
			return bar, false
		}
		if v <= 0 {
			report.DroppedInvalid++
			report.note(&pipelineerr.ParseError{Row: row, Field: p.field, Value: raw})
			return bar, false
		}
		*p.dst = v
	}

	counts := []struct {
		field string
		dst   *int64
	}{
		{FieldVolume, &bar.Volume},
		{FieldOpenInterest, &bar.OpenInterest},
	}
	for _, c := range counts {
		raw := cell(record, index, c.field)
		v, ok := parseCount(raw)
		if !ok {
			report.DroppedMissing++
			report.note(&pipelineerr.ParseError{Row: row, Field: c.field, Value: raw})
			return bar, false
		}
		if v < 0 {
			report.DroppedInvalid++
			report.note(&pipelineerr.ParseError{Row: row, Field: c.field, Value: raw})
			return bar, false
		}
		*c.dst = v
	}

	return bar, true
}

func parseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// parseNumber converts a decimal cell, treating blanks, NaN and Inf as missing
func parseNumber(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseCount converts an integer cell; "1200.0" is accepted, "1200.5" is not
func parseCount(raw string) (int64, bool) {
	if raw == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return v, true
	}
	f, ok := parseNumber(raw)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func dropDuplicates(bars []model.PriceBar, report *Report) []model.PriceBar {
	type key struct {
		instrument string
		day        string
	}
	seen := make(map[key]struct{}, len(bars))
	out := bars[:0]
	for _, b := range bars {
		k := key{instrument: b.Instrument, day: b.Day()}
		if _, dup := seen[k]; dup {
			report.DroppedDuplicate++
			continue
		}
		seen[k] = struct{}{}
		out = append(out, b)
	}
	return out
}
