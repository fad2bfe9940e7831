package models

import "time"

// PricePoint is one daily close.
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries is a chronological closing-price series.
// Symbol tells which candidate produced it ("synthetic" for the offline fallback);
// it is kept for logs and metrics only and never leaves the process.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// SyntheticSymbol marks a series generated when every candidate failed.
const SyntheticSymbol = "synthetic"

// Closes returns the closing prices in order.
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Close
	}
	return out
}

// Len returns the number of points.
func (s PriceSeries) Len() int { return len(s.Points) }

// Group is a named, ordered list of candidate tickers.
type Group struct {
	Name    string
	Tickers []string
}
