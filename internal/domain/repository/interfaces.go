package repository

import (
	"context"

	"MarketPulse/internal/domain/models"
)

// MarketData fetches recent daily closes for one symbol.
type MarketData interface {
	FetchDaily(ctx context.Context, symbol string) ([]models.PricePoint, error)
}

// SnapshotPublisher emits a notification for every completed snapshot.
type SnapshotPublisher interface {
	PublishSnapshot(ctx context.Context, snap *models.Snapshot) error
	Close() error
}

type Metrics interface {
	RecordCandidate(symbol, result string)
	RecordFallback()
	RecordDecision(group string, decision models.Decision, probability float64)
	RecordAverageProbability(p float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
