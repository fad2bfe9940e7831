package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	applogger "MarketPulse/pkg/logger"
)

type countingSnapshotter struct{ n atomic.Int32 }

func (c *countingSnapshotter) Snapshot(context.Context, []models.Group) *models.Snapshot {
	c.n.Add(1)
	return &models.Snapshot{}
}

func TestRefresherTicks(t *testing.T) {
	s := &countingSnapshotter{}
	r := NewRefresher(s, []models.Group{{Name: "G"}}, 10*time.Millisecond, applogger.Nop())
	r.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for s.n.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	r.Stop()

	n := s.n.Load()
	if n < 3 {
		t.Fatalf("snapshots = %d, want >= 3", n)
	}
	time.Sleep(30 * time.Millisecond)
	if s.n.Load() != n {
		t.Fatalf("refresher kept running after Stop")
	}
}

func TestRefresherDisabled(t *testing.T) {
	s := &countingSnapshotter{}
	r := NewRefresher(s, nil, 0, applogger.Nop())
	r.Start(context.Background())
	r.Stop()
	if r.Enabled() || s.n.Load() != 0 {
		t.Fatalf("disabled refresher ran")
	}
}
