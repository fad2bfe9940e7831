package usecase

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"MarketPulse/internal/domain/models"
	domrepo "MarketPulse/internal/domain/repository"
	domsvc "MarketPulse/internal/domain/service"
	"MarketPulse/internal/services/decision"
	applogger "MarketPulse/pkg/logger"
	"MarketPulse/pkg/metrics"
)

// SnapshotAggregator runs every group and owns the rolling history.
type SnapshotAggregator struct {
	runner    domsvc.GroupRunner
	history   *HistoryBuffer
	publisher domrepo.SnapshotPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
	parallel  bool

	mu        sync.RWMutex
	listeners []func(*models.Snapshot)
	latest    *models.Snapshot
}

type AggregatorOption func(*SnapshotAggregator)

// WithParallelGroups runs groups concurrently.
func WithParallelGroups(on bool) AggregatorOption {
	return func(a *SnapshotAggregator) { a.parallel = on }
}

func WithPublisher(p domrepo.SnapshotPublisher) AggregatorOption {
	return func(a *SnapshotAggregator) { a.publisher = p }
}

func WithAggregatorMetrics(m domrepo.Metrics) AggregatorOption {
	return func(a *SnapshotAggregator) { a.metrics = m }
}

func WithAggregatorClock(now func() time.Time) AggregatorOption {
	return func(a *SnapshotAggregator) { a.now = now }
}

func NewSnapshotAggregator(runner domsvc.GroupRunner, history *HistoryBuffer, l *applogger.Logger, opts ...AggregatorOption) *SnapshotAggregator {
	a := &SnapshotAggregator{
		runner:  runner,
		history: history,
		metrics: metrics.Nop{},
		l:       l,
		now:     time.Now,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Subscribe registers fn to receive every snapshot after it is built.
// fn must not block.
func (a *SnapshotAggregator) Subscribe(fn func(*models.Snapshot)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Latest returns the most recent snapshot, or nil before the first run.
func (a *SnapshotAggregator) Latest() *models.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.latest
}

// History returns a copy of the rolling history without mutating it.
func (a *SnapshotAggregator) History() []models.HistoryEntry {
	return a.history.Entries()
}

// Snapshot runs every group and returns a well-formed snapshot; it appends one history entry.
func (a *SnapshotAggregator) Snapshot(ctx context.Context, groups []models.Group) *models.Snapshot {
	start := a.now()
	results := a.runGroups(ctx, groups)

	var probSum, confSum float64
	var ok int
	for _, r := range results {
		if !r.OK() {
			continue
		}
		ok++
		probSum += r.Prediction.Probability
		confSum += r.Prediction.Confidence
		a.metrics.RecordDecision(r.Name, r.Prediction.Decision, r.Prediction.Probability)
	}

	var avgProb, avgConf float64
	if ok > 0 {
		avgProb = probSum / float64(ok)
		avgConf = confSum / float64(ok)
	}

	history := a.history.Append(models.HistoryEntry{
		Time:           start.Format("15:04"),
		AvgProbability: decision.Round(avgProb, 2),
	})

	snap := &models.Snapshot{
		Groups: results,
		Summary: models.Summary{
			Trend:          TrendFor(avgProb),
			AvgProbability: avgProb,
			AvgConfidence:  avgConf,
			History:        history,
			GeneratedAt:    start,
		},
	}

	a.metrics.RecordAverageProbability(avgProb)
	a.metrics.RecordLatency("snapshot", a.now().Sub(start).Seconds())
	a.l.Info("snapshot built",
		applogger.Int("groups", len(groups)),
		applogger.Int("scored", ok),
		applogger.String("trend", string(snap.Summary.Trend)),
		applogger.Float64("avg_prob", avgProb),
	)

	a.publish(ctx, snap)
	a.notify(snap)
	return snap
}

func (a *SnapshotAggregator) runGroups(ctx context.Context, groups []models.Group) []models.GroupResult {
	results := make([]models.GroupResult, len(groups))
	if !a.parallel {
		for i, g := range groups {
			results[i] = a.runner.Run(ctx, g)
		}
		return results
	}

	// Run never fails, so the group's error is always nil; errgroup only joins.
	var eg errgroup.Group
	for i, g := range groups {
		eg.Go(func() error {
			results[i] = a.runner.Run(ctx, g)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (a *SnapshotAggregator) publish(ctx context.Context, snap *models.Snapshot) {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.PublishSnapshot(ctx, snap); err != nil {
		a.metrics.RecordError("publish_snapshot")
		a.l.Error("publish snapshot", applogger.Error(err))
	}
}

func (a *SnapshotAggregator) notify(snap *models.Snapshot) {
	a.mu.Lock()
	a.latest = snap
	listeners := slices.Clone(a.listeners)
	a.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// TrendFor labels the average probability: optimistic above 55, negative below 45.
func TrendFor(avgProb float64) models.Trend {
	switch {
	case avgProb > 55:
		return models.TrendOptimistic
	case avgProb < 45:
		return models.TrendNegative
	default:
		return models.TrendNeutral
	}
}
