package logger

import (
	"context"
	"sync"
	"testing"
	"time"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLogCollectorDeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Topic: "errors", Publisher: pub})

	fields := map[string]interface{}{"symbol": "^GSPC"}
	c.AddLog("error", "fetch failed", fields, "yahoo/client.go:10")
	c.AddLog("error", "fetch failed", fields, "yahoo/client.go:10")
	c.AddLog("error", "decode failed", nil, "yahoo/client.go:20")

	if got := c.Pending(); got != 2 {
		t.Fatalf("pending = %d, want 2", got)
	}
	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if pub.topic != "errors" {
		t.Fatalf("topic = %q", pub.topic)
	}
	if len(pub.batches) != 1 || len(pub.batches[0]) != 2 {
		t.Fatalf("unexpected batches: %+v", pub.batches)
	}
	for _, e := range pub.batches[0] {
		if e.Message == "fetch failed" && e.Count != 2 {
			t.Fatalf("fetch failed count = %d, want 2", e.Count)
		}
	}
}

func TestLoggerWithSharesCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 10, Publisher: pub})
	child := l.With("aggregator")
	child.Error("boom", String("group", "Global"))

	if got := l.collector.Pending(); got != 1 {
		t.Fatalf("pending = %d, want 1", got)
	}
	l.RemoveCollector()
}
