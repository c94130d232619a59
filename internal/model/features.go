package model

// FeatureRow is a price bar together with its derived indicator values
type FeatureRow struct {
	PriceBar
	Values map[string]float64 `json:"values"`
}

// Value returns the named feature and whether it is present
func (r FeatureRow) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// FeatureTable holds feature rows in chronological order.
// Columns lists the derived feature names in the order they were computed.
type FeatureTable struct {
	Columns []string     `json:"columns"`
	Rows    []FeatureRow `json:"rows"`
}

// Len returns the number of rows
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Has reports whether the table carries the named column
func (t *FeatureTable) Has(name string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}
