package models

import "time"

// IndicatorRow holds the derived indicators for one timestamp.
// Rows only exist when every value is finite.
type IndicatorRow struct {
	Time         time.Time
	Close        float64
	EMA5         float64
	EMA20        float64
	Momentum5    float64
	Volatility10 float64
	RSI14        float64
}

// IndicatorTable is chronological and a suffix-subset of its source series.
type IndicatorTable []IndicatorRow

// Closes returns the closing prices of the table rows.
func (t IndicatorTable) Closes() []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = r.Close
	}
	return out
}
