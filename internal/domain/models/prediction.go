package models

import "errors"

// ErrInsufficientData is reported for a group whose indicator table has fewer than two rows.
var ErrInsufficientData = errors.New("insufficient data")

// Decision is the directional call for a group.
type Decision string

const (
	DecisionUp      Decision = "UP"
	DecisionDown    Decision = "DOWN"
	DecisionNeutral Decision = "NEUTRAL"
)

// LatestIndicators is the rounded view of the last indicator row.
type LatestIndicators struct {
	RSI     float64
	EMAFast float64
	EMASlow float64
	Mom5    float64
	Vol10   float64
}

// Prediction is the scored outcome for one group.
type Prediction struct {
	Decision     Decision
	Probability  float64 // 0..100
	Confidence   float64 // >= 0
	Score        float64 // raw rule score, 0..4.5
	Comment      string
	Color        string
	Latest       LatestIndicators
	RecentCloses []float64
}

// GroupResult is either a Prediction or an error (ErrInsufficientData).
type GroupResult struct {
	Name       string
	Prediction *Prediction
	Err        error
}

// OK reports whether the group produced a prediction.
func (r GroupResult) OK() bool { return r.Err == nil && r.Prediction != nil }
