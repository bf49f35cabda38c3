package repository

import (
	"context"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	pkgkafka "RallyScan/pkg/kafka"
)

// KafkaEventPublisher pushes detected rally events to a Kafka topic,
// keyed by symbol so one symbol stays on one partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishEvents(ctx context.Context, events []models.RallyEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(e.Symbol),
			Value: eventPayload(e),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func eventPayload(e models.RallyEvent) map[string]interface{} {
	m := map[string]interface{}{
		"symbol":          e.Symbol,
		"tf":              e.Timeframe,
		"event_index":     e.EventIndex,
		"event_time":      e.EventTime.UnixMilli(),
		"peak_index":      e.PeakIndex,
		"bars_to_peak":    e.BarsToPeak,
		"future_max_gain": e.FutureMaxGainPct,
		"rally_bucket":    e.RallyBucket,
	}
	if e.HasParent() {
		m["parent_id"] = e.ParentID
		m["parent_start"] = e.ParentStart.UnixMilli()
	}
	if e.GrandparentID != models.NoParent {
		m["grandparent_id"] = e.GrandparentID
		m["grandparent_start"] = e.GrandparentStart.UnixMilli()
	}
	return m
}
