package usecase

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
)

const (
	syntheticPoints = 30
	syntheticStart  = 100.0
	syntheticEnd    = 110.0
	syntheticNoise  = 1.0
)

var errEmptySeries = errors.New("empty series")

// PriceSeriesSource tries candidate tickers in order and falls back to synthetic data.
type PriceSeriesSource struct {
	provider domrepo.MarketData
	timeout  time.Duration
	metrics  domrepo.Metrics
	l        *applogger.Logger
	now      func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

type SeriesSourceOption func(*PriceSeriesSource)

// WithCandidateTimeout bounds each provider call.
func WithCandidateTimeout(d time.Duration) SeriesSourceOption {
	return func(s *PriceSeriesSource) { s.timeout = d }
}

// WithRand injects the synthetic noise source.
func WithRand(r *rand.Rand) SeriesSourceOption {
	return func(s *PriceSeriesSource) { s.rng = r }
}

func WithSourceClock(now func() time.Time) SeriesSourceOption {
	return func(s *PriceSeriesSource) { s.now = now }
}

func WithSourceMetrics(m domrepo.Metrics) SeriesSourceOption {
	return func(s *PriceSeriesSource) { s.metrics = m }
}

func NewPriceSeriesSource(provider domrepo.MarketData, l *applogger.Logger, opts ...SeriesSourceOption) *PriceSeriesSource {
	s := &PriceSeriesSource{
		provider: provider,
		timeout:  5 * time.Second,
		metrics:  metrics.Nop{},
		l:        l,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		seed := uint64(s.now().UnixNano())
		s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
	return s
}

// Resolve returns the first non-empty series among candidates. It never fails.
func (s *PriceSeriesSource) Resolve(ctx context.Context, candidates []string) models.PriceSeries {
	for _, symbol := range candidates {
		points, err := s.fetch(ctx, symbol)
		if err != nil {
			result := "error"
			if errors.Is(err, errEmptySeries) {
				result = "empty"
			}
			s.metrics.RecordCandidate(symbol, result)
			s.l.Warn("candidate unavailable",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
			continue
		}
		s.metrics.RecordCandidate(symbol, "ok")
		return models.PriceSeries{Symbol: symbol, Points: points}
	}

	s.metrics.RecordFallback()
	s.l.Warn("all candidates failed, using synthetic series",
		applogger.Strings("candidates", candidates),
	)
	return s.Synthetic()
}

func (s *PriceSeriesSource) fetch(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	points, err := s.provider.FetchDaily(ctx, symbol)
	s.metrics.RecordLatency("fetch_daily", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	points = normalize(points)
	if len(points) == 0 {
		return nil, errEmptySeries
	}
	return points, nil
}

// Synthetic builds 30 daily points ending now: linspace(100, 110, 30) plus uniform noise in [-1, 1].
func (s *PriceSeriesSource) Synthetic() models.PriceSeries {
	end := s.now()
	points := make([]models.PricePoint, syntheticPoints)

	s.mu.Lock()
	defer s.mu.Unlock()
	step := (syntheticEnd - syntheticStart) / float64(syntheticPoints-1)
	for i := range points {
		noise := (s.rng.Float64()*2 - 1) * syntheticNoise
		points[i] = models.PricePoint{
			Time:  end.AddDate(0, 0, i-(syntheticPoints-1)),
			Close: syntheticStart + float64(i)*step + noise,
		}
	}
	return models.PriceSeries{Symbol: models.SyntheticSymbol, Points: points}
}

// normalize drops unusable closes, sorts by time and removes duplicate timestamps.
func normalize(points []models.PricePoint) []models.PricePoint {
	out := make([]models.PricePoint, 0, len(points))
	for _, p := range points {
		if p.Close > 0 && !math.IsInf(p.Close, 0) && !math.IsNaN(p.Close) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })

	dedup := out[:0]
	for _, p := range out {
		if len(dedup) > 0 && p.Time.Equal(dedup[len(dedup)-1].Time) {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup
}
