package service

import (
	"context"

	"MarketPulse/internal/domain/models"
)

// SeriesSource resolves ordered candidate tickers into a single price series.
// It never fails: when every candidate is unusable a synthetic series is returned.
type SeriesSource interface {
	Resolve(ctx context.Context, candidates []string) models.PriceSeries
}

// IndicatorEngine derives the finite-only indicator table from a series.
type IndicatorEngine interface {
	Derive(series models.PriceSeries) models.IndicatorTable
}

// DecisionEngine scores an indicator table into a prediction.
// Returns models.ErrInsufficientData when the table has fewer than two rows.
type DecisionEngine interface {
	Score(table models.IndicatorTable) (models.Prediction, error)
}

// GroupRunner runs the full pipeline for one instrument group.
type GroupRunner interface {
	Run(ctx context.Context, group models.Group) models.GroupResult
}
