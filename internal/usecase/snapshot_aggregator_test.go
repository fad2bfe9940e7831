package usecase

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
	"MarketPulse/internal/services/decision"
	"MarketPulse/internal/services/features"
	applogger "MarketPulse/pkg/logger"
)

type stubRunner struct {
	mu      sync.Mutex
	results map[string]models.GroupResult
	delay   map[string]time.Duration
	calls   int
}

func (r *stubRunner) Run(_ context.Context, g models.Group) models.GroupResult {
	if d := r.delay[g.Name]; d > 0 {
		time.Sleep(d)
	}
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if res, ok := r.results[g.Name]; ok {
		return res
	}
	return models.GroupResult{Name: g.Name, Err: models.ErrInsufficientData}
}

func predicted(name string, prob, conf float64) models.GroupResult {
	return models.GroupResult{Name: name, Prediction: &models.Prediction{
		Decision: decision.Classify(prob), Probability: prob, Confidence: conf,
	}}
}

type capturePublisher struct {
	mu    sync.Mutex
	snaps []*models.Snapshot
	err   error
}

func (p *capturePublisher) PublishSnapshot(_ context.Context, s *models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snaps = append(p.snaps, s)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

var clock = func() time.Time { return time.Date(2024, 6, 3, 9, 5, 30, 0, time.Local) }

func TestSnapshotAveragesSuccessfulGroups(t *testing.T) {
	runner := &stubRunner{results: map[string]models.GroupResult{
		"Global": predicted("Global", 100, 25),
		"Crypto": predicted("Crypto", 60, 5),
	}}
	m := newFakeMetrics()
	agg := NewSnapshotAggregator(runner, NewHistoryBuffer(30), applogger.Nop(),
		WithAggregatorClock(clock), WithAggregatorMetrics(m))

	groups := []models.Group{{Name: "Global"}, {Name: "Crypto"}, {Name: "Europe"}}
	snap := agg.Snapshot(context.Background(), groups)

	for i, g := range groups {
		if snap.Groups[i].Name != g.Name {
			t.Fatalf("group %d = %s, want %s", i, snap.Groups[i].Name, g.Name)
		}
	}
	if !errors.Is(snap.Groups[2].Err, models.ErrInsufficientData) {
		t.Fatalf("Europe should be insufficient: %+v", snap.Groups[2])
	}
	if snap.Summary.AvgProbability != 80 || snap.Summary.AvgConfidence != 15 {
		t.Fatalf("averages = %v / %v", snap.Summary.AvgProbability, snap.Summary.AvgConfidence)
	}
	if snap.Summary.Trend != models.TrendOptimistic {
		t.Fatalf("trend = %s", snap.Summary.Trend)
	}
	h := snap.Summary.History
	if len(h) != 1 || h[0].Time != "09:05" || h[0].AvgProbability != 80 {
		t.Fatalf("history = %+v", h)
	}
	if m.decisions["Global"] != models.DecisionUp || m.avgProb != 80 {
		t.Fatalf("metrics = %+v", m)
	}
}

func TestSnapshotNoSuccessfulGroups(t *testing.T) {
	agg := NewSnapshotAggregator(&stubRunner{}, NewHistoryBuffer(30), applogger.Nop())
	snap := agg.Snapshot(context.Background(), []models.Group{{Name: "A"}})

	if snap.Summary.AvgProbability != 0 || snap.Summary.AvgConfidence != 0 {
		t.Fatalf("averages should be zero: %+v", snap.Summary)
	}
	if snap.Summary.Trend != models.TrendNegative {
		t.Fatalf("trend = %s", snap.Summary.Trend)
	}
	if len(snap.Summary.History) != 1 || snap.Summary.History[0].AvgProbability != 0 {
		t.Fatalf("history = %+v", snap.Summary.History)
	}
}

func TestSnapshotHistoryIsBounded(t *testing.T) {
	runner := &stubRunner{results: map[string]models.GroupResult{"G": predicted("G", 50, 0)}}
	agg := NewSnapshotAggregator(runner, NewHistoryBuffer(30), applogger.Nop())

	var snap *models.Snapshot
	for i := 0; i < 31; i++ {
		snap = agg.Snapshot(context.Background(), []models.Group{{Name: "G"}})
	}
	if n := len(snap.Summary.History); n != 30 {
		t.Fatalf("history len = %d, want 30", n)
	}
	if n := len(agg.History()); n != 30 {
		t.Fatalf("History() len = %d, want 30", n)
	}
	if snap.Summary.Trend != models.TrendNeutral {
		t.Fatalf("trend = %s", snap.Summary.Trend)
	}
}

func TestSnapshotParallelKeepsOrder(t *testing.T) {
	runner := &stubRunner{
		results: map[string]models.GroupResult{
			"slow": predicted("slow", 10, 1),
			"fast": predicted("fast", 90, 1),
		},
		delay: map[string]time.Duration{"slow": 30 * time.Millisecond},
	}
	agg := NewSnapshotAggregator(runner, NewHistoryBuffer(30), applogger.Nop(), WithParallelGroups(true))

	snap := agg.Snapshot(context.Background(), []models.Group{{Name: "slow"}, {Name: "fast"}})
	if snap.Groups[0].Name != "slow" || snap.Groups[1].Name != "fast" {
		t.Fatalf("order = %s, %s", snap.Groups[0].Name, snap.Groups[1].Name)
	}
	if runner.calls != 2 {
		t.Fatalf("calls = %d", runner.calls)
	}
	if snap.Summary.AvgProbability != 50 {
		t.Fatalf("avg = %v", snap.Summary.AvgProbability)
	}
}

func TestSnapshotPublishesAndNotifies(t *testing.T) {
	pub := &capturePublisher{err: errors.New("broker down")}
	m := newFakeMetrics()
	agg := NewSnapshotAggregator(&stubRunner{}, NewHistoryBuffer(30), applogger.Nop(),
		WithPublisher(pub), WithAggregatorMetrics(m))

	var got *models.Snapshot
	agg.Subscribe(func(s *models.Snapshot) { got = s })

	if agg.Latest() != nil {
		t.Fatalf("latest should be nil before the first run")
	}
	snap := agg.Snapshot(context.Background(), []models.Group{{Name: "A"}})

	if got != snap || agg.Latest() != snap {
		t.Fatalf("listener or latest not updated")
	}
	if len(pub.snaps) != 1 {
		t.Fatalf("published %d snapshots", len(pub.snaps))
	}
	if len(m.errs) != 1 || m.errs[0] != "publish_snapshot" {
		t.Fatalf("errors = %v", m.errs)
	}
}

func TestTrendFor(t *testing.T) {
	cases := map[float64]models.Trend{
		55.01: models.TrendOptimistic,
		55:    models.TrendNeutral,
		45:    models.TrendNeutral,
		44.99: models.TrendNegative,
	}
	for p, want := range cases {
		if got := TrendFor(p); got != want {
			t.Fatalf("TrendFor(%v) = %s, want %s", p, got, want)
		}
	}
}

// End-to-end over the real engines with a fake provider.
func TestSnapshotPipelineScenarios(t *testing.T) {
	md := &fakeMarketData{
		series: map[string][]models.PricePoint{
			"UP":   daily(linear(40, 100, 1)...),
			"DOWN": daily(linear(40, 200, -1)...),
			"FLAT": daily(linear(30, 100, 0)...),
		},
	}
	source := NewPriceSeriesSource(md, applogger.Nop(), WithRand(rand.New(rand.NewPCG(3, 3))))
	pipeline := NewGroupPipeline(source, features.NewEngine(), decision.NewScorer(), applogger.Nop())
	agg := NewSnapshotAggregator(pipeline, NewHistoryBuffer(30), applogger.Nop(), WithParallelGroups(true))

	snap := agg.Snapshot(context.Background(), []models.Group{
		{Name: "Up", Tickers: []string{"UP"}},
		{Name: "Down", Tickers: []string{"DOWN"}},
		{Name: "Flat", Tickers: []string{"FLAT"}},
	})

	up, _ := snap.Group("Up")
	if !up.OK() || up.Prediction.Decision != models.DecisionUp || up.Prediction.Probability != 100 {
		t.Fatalf("up = %+v", up)
	}
	down, _ := snap.Group("Down")
	if !down.OK() || down.Prediction.Decision != models.DecisionDown {
		t.Fatalf("down = %+v", down)
	}
	flat, _ := snap.Group("Flat")
	if !errors.Is(flat.Err, models.ErrInsufficientData) {
		t.Fatalf("flat = %+v", flat)
	}

	want := (100 + 100.0/9.0) / 2
	if math.Abs(snap.Summary.AvgProbability-want) > 1e-9 {
		t.Fatalf("avg = %v, want %v", snap.Summary.AvgProbability, want)
	}
	if snap.Summary.Trend != models.TrendOptimistic {
		t.Fatalf("trend = %s", snap.Summary.Trend)
	}
	if snap.Summary.History[0].AvgProbability != 55.56 {
		t.Fatalf("history prob = %v", snap.Summary.History[0].AvgProbability)
	}
}

func TestSnapshotLatencyUsesInjectedClock(t *testing.T) {
	base := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	var ticks int
	clock := func() time.Time {
		ticks++
		return base.Add(time.Duration(ticks) * 3 * time.Second)
	}
	m := newFakeMetrics()
	agg := NewSnapshotAggregator(&stubRunner{}, NewHistoryBuffer(30), applogger.Nop(),
		WithAggregatorClock(clock), WithAggregatorMetrics(m), WithParallelGroups(false))

	var seen []int
	agg.Subscribe(func(*models.Snapshot) { seen = append(seen, 1) })
	agg.Subscribe(func(*models.Snapshot) { seen = append(seen, 2) })

	agg.Snapshot(context.Background(), []models.Group{{Name: "A"}})

	if got := m.latency["snapshot"]; got != 3 {
		t.Fatalf("latency = %v, want 3", got)
	}
	if len(seen) != 2 || seen[0] != 1 || seen[1] != 2 {
		t.Fatalf("listeners called %v", seen)
	}
}
