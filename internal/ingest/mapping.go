package ingest

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical field names every bar source must provide after mapping
const (
	FieldDate         = "date"
	FieldInstrument   = "contract"
	FieldOpen         = "open"
	FieldHigh         = "high"
	FieldLow          = "low"
	FieldClose        = "close"
	FieldVolume       = "volume"
	FieldOpenInterest = "open_interest"
)

// RequiredFields lists the canonical fields in schema order
var RequiredFields = []string{
	FieldDate, FieldInstrument, FieldOpen, FieldHigh,
	FieldLow, FieldClose, FieldVolume, FieldOpenInterest,
}

// fieldAliases normalises alternative canonical spellings
var fieldAliases = map[string]string{
	"instrument": FieldInstrument,
}

// ColumnMapping maps source column names to canonical field names.
// Source columns that already carry a canonical name need no entry.
type ColumnMapping map[string]string

// ParseMapping builds a mapping from "source=canonical" pairs
func ParseMapping(pairs []string) (ColumnMapping, error) {
	m := make(ColumnMapping, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		source, target, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid mapping %q, expected source=field", pair)
		}
		source = strings.TrimSpace(source)
		if source == "" {
			return nil, fmt.Errorf("invalid mapping %q: empty source column", pair)
		}
		m[source] = strings.TrimSpace(target)
	}
	return m, m.Validate()
}

// Validate rejects unknown canonical targets and fields mapped from two columns
func (m ColumnMapping) Validate() error {
	seen := make(map[string]string, len(m))
	sources := make([]string, 0, len(m))
	for source := range m {
		sources = append(sources, source)
	}
	sort.Strings(sources)

	for _, source := range sources {
		target := canonicalName(m[source])
		if !isRequired(target) {
			return fmt.Errorf("column %q mapped to unknown field %q", source, m[source])
		}
		if prev, dup := seen[target]; dup {
			return fmt.Errorf("field %q mapped from both %q and %q", target, prev, source)
		}
		seen[target] = source
	}
	return nil
}

// Apply renames a header row, leaving unmapped columns untouched
func (m ColumnMapping) Apply(header []string) []string {
	out := make([]string, len(header))
	for i, col := range header {
		col = strings.TrimSpace(col)
		if target, ok := m[col]; ok {
			out[i] = canonicalName(target)
			continue
		}
		out[i] = col
	}
	return out
}

func canonicalName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := fieldAliases[name]; ok {
		return alias
	}
	return name
}

func isRequired(name string) bool {
	for _, f := range RequiredFields {
		if f == name {
			return true
		}
	}
	return false
}
