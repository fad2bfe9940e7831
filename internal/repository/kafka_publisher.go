package repository

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/domain/models"
)

// MessagePublisher is the producer surface the snapshot publisher needs.
type MessagePublisher interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// SnapshotEvent is the outbound notification for one snapshot.
type SnapshotEvent struct {
	GeneratedAt time.Time             `json:"generated_at"`
	Trend       models.Trend          `json:"trend"`
	AvgProb     float64               `json:"avg_prob"`
	AvgConf     float64               `json:"avg_conf"`
	Groups      map[string]GroupEvent `json:"groups"`
}

type GroupEvent struct {
	Decision models.Decision `json:"decision,omitempty"`
	Prob     float64         `json:"prob,omitempty"`
	Conf     float64         `json:"conf,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// KafkaSnapshotPublisher implements domain.repository.SnapshotPublisher on a Kafka topic,
// keyed by trend.
type KafkaSnapshotPublisher struct {
	producer MessagePublisher
	topic    string
}

func NewKafkaSnapshotPublisher(p MessagePublisher, topic string) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: p, topic: topic}
}

func (k *KafkaSnapshotPublisher) PublishSnapshot(ctx context.Context, snap *models.Snapshot) error {
	ev := NewSnapshotEvent(snap)
	if err := k.producer.Publish(ctx, k.topic, []byte(ev.Trend), ev); err != nil {
		return fmt.Errorf("publish snapshot event: %w", err)
	}
	return nil
}

func (k *KafkaSnapshotPublisher) Close() error { return k.producer.Close() }

// NewSnapshotEvent summarizes snap; chart data and indicators are left out.
func NewSnapshotEvent(snap *models.Snapshot) SnapshotEvent {
	ev := SnapshotEvent{
		GeneratedAt: snap.Summary.GeneratedAt,
		Trend:       snap.Summary.Trend,
		AvgProb:     snap.Summary.AvgProbability,
		AvgConf:     snap.Summary.AvgConfidence,
		Groups:      make(map[string]GroupEvent, len(snap.Groups)),
	}
	for _, g := range snap.Groups {
		if !g.OK() {
			ev.Groups[g.Name] = GroupEvent{Error: models.ErrInsufficientData.Error()}
			continue
		}
		ev.Groups[g.Name] = GroupEvent{
			Decision: g.Prediction.Decision,
			Prob:     g.Prediction.Probability,
			Conf:     g.Prediction.Confidence,
		}
	}
	return ev
}

// NopSnapshotPublisher is used when Kafka is disabled.
type NopSnapshotPublisher struct{}

func (NopSnapshotPublisher) PublishSnapshot(context.Context, *models.Snapshot) error {
	return nil
}

func (NopSnapshotPublisher) Close() error {
	return nil
}
