package usecase

import (
	"context"
	"sync"
	"time"

	"MarketPulse/internal/domain/models"
	applogger "MarketPulse/pkg/logger"
)

// Snapshotter is the query side of SnapshotAggregator used by the refresher.
type Snapshotter interface {
	Snapshot(ctx context.Context, groups []models.Group) *models.Snapshot
}

// Refresher builds a snapshot on a fixed interval so stream clients get updates without polling.
type Refresher struct {
	agg      Snapshotter
	groups   []models.Group
	interval time.Duration
	timeout  time.Duration
	l        *applogger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefresher returns a refresher; interval <= 0 disables it.
func NewRefresher(agg Snapshotter, groups []models.Group, interval time.Duration, l *applogger.Logger) *Refresher {
	return &Refresher{agg: agg, groups: groups, interval: interval, timeout: 30 * time.Second, l: l}
}

func (r *Refresher) Enabled() bool { return r.interval > 0 }

// Start runs one snapshot immediately and then one per interval until Stop or ctx is done.
func (r *Refresher) Start(ctx context.Context) {
	if !r.Enabled() {
		return
	}
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	r.l.Info("snapshot refresher started", applogger.Duration("interval_ms", r.interval))
}

func (r *Refresher) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

func (r *Refresher) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	r.agg.Snapshot(ctx, r.groups)
}

// Stop cancels the loop and waits for an in-flight snapshot to finish.
func (r *Refresher) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
}
