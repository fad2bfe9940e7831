package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketPulse/internal/domain/models"
)

type fakeProducer struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (f *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	f.topic, f.key, f.value = topic, key, value
	return f.err
}

func (f *fakeProducer) Close() error { return nil }

func sampleSnapshot() *models.Snapshot {
	return &models.Snapshot{
		Groups: []models.GroupResult{
			{Name: "Global", Prediction: &models.Prediction{Decision: models.DecisionUp, Probability: 77.8, Confidence: 12}},
			{Name: "Europe", Err: models.ErrInsufficientData},
		},
		Summary: models.Summary{
			Trend:          models.TrendOptimistic,
			AvgProbability: 77.8,
			AvgConfidence:  12,
			GeneratedAt:    time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC),
		},
	}
}

func TestKafkaSnapshotPublisher(t *testing.T) {
	fp := &fakeProducer{}
	pub := NewKafkaSnapshotPublisher(fp, "marketpulse.snapshots")

	if err := pub.PublishSnapshot(context.Background(), sampleSnapshot()); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if fp.topic != "marketpulse.snapshots" || string(fp.key) != "optimistic" {
		t.Fatalf("topic=%s key=%s", fp.topic, fp.key)
	}
	ev, ok := fp.value.(SnapshotEvent)
	if !ok {
		t.Fatalf("value type %T", fp.value)
	}
	if ev.Groups["Global"].Decision != models.DecisionUp || ev.Groups["Europe"].Error != "insufficient data" {
		t.Fatalf("groups = %+v", ev.Groups)
	}
}

func TestKafkaSnapshotPublisherWrapsErrors(t *testing.T) {
	boom := errors.New("no brokers")
	pub := NewKafkaSnapshotPublisher(&fakeProducer{err: boom}, "t")
	if err := pub.PublishSnapshot(context.Background(), sampleSnapshot()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}
