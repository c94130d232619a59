package model

import "time"

// PriceBar represents one validated OHLCV observation of an instrument
type PriceBar struct {
	Date         time.Time `json:"date"`
	Instrument   string    `json:"contract"`
	Open         float64   `json:"open"`
	High         float64   `json:"high"`
	Low          float64   `json:"low"`
	Close        float64   `json:"close"`
	Volume       int64     `json:"volume"`
	OpenInterest int64     `json:"open_interest"`
}

// DateLayout is the calendar date format used for bars
const DateLayout = "2006-01-02"

// Day returns the bar date formatted as YYYY-MM-DD
func (b PriceBar) Day() string {
	return b.Date.Format(DateLayout)
}
