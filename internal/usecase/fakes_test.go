package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
)

type fakeMarketData struct {
	mu     sync.Mutex
	series map[string][]models.PricePoint
	errs   map[string]error
	block  map[string]bool
	calls  []string
}

func (f *fakeMarketData) FetchDaily(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if f.block[symbol] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.series[symbol], nil
}

func (f *fakeMarketData) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type fakeMetrics struct {
	mu         sync.Mutex
	candidates map[string]string
	fallbacks  int
	decisions  map[string]models.Decision
	avgProb    float64
	errs       []string
	latency    map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{candidates: map[string]string{}, decisions: map[string]models.Decision{}, latency: map[string]float64{}}
}

func (m *fakeMetrics) RecordCandidate(symbol, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[symbol] = result
}

func (m *fakeMetrics) RecordFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *fakeMetrics) RecordDecision(group string, d models.Decision, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions[group] = d
}

func (m *fakeMetrics) RecordAverageProbability(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.avgProb = p
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, kind)
}

func (m *fakeMetrics) RecordLatency(op string, secs float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency[op] = secs
}

var errUnavailable = errors.New("provider unavailable")

func daily(closes ...float64) []models.PricePoint {
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.PricePoint, len(closes))
	for i, c := range closes {
		out[i] = models.PricePoint{Time: start.AddDate(0, 0, i), Close: c}
	}
	return out
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
