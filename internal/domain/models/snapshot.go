package models

import "time"

// Trend is the overall market label derived from the average probability.
type Trend string

const (
	TrendOptimistic Trend = "optimistic"
	TrendNegative   Trend = "negative"
	TrendNeutral    Trend = "neutral"
)

// HistoryEntry is one point of the rolling average-probability chart.
type HistoryEntry struct {
	Time           string // wall clock, minute resolution ("15:04")
	AvgProbability float64
}

// Summary aggregates every successful group of a snapshot.
type Summary struct {
	Trend          Trend
	AvgProbability float64
	AvgConfidence  float64
	History        []HistoryEntry
	GeneratedAt    time.Time
}

// Snapshot is one complete run of the pipeline across all groups.
// Groups keep the caller-supplied order.
type Snapshot struct {
	Groups  []GroupResult
	Summary Summary
}

// Group returns the result for name, if present.
func (s *Snapshot) Group(name string) (GroupResult, bool) {
	for _, g := range s.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return GroupResult{}, false
}
