package usecase

import (
	"context"
	"fmt"
	"time"

	"RallyScan/internal/domain/models"
	drepo "RallyScan/internal/domain/repository"
)

// EventProcessor routes detected rally events to the configured backend.
type EventProcessor struct {
	pub     drepo.Publisher
	store   drepo.EventStore
	metrics drepo.Metrics
	backend string
}

// NewEventProcessor creates a new EventProcessor instance.
func NewEventProcessor(pub drepo.Publisher, store drepo.EventStore, metrics drepo.Metrics, backend string) *EventProcessor {
	return &EventProcessor{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Process routes one symbol's event batch to the configured backend.
// "both" stores first, then publishes.
func (p *EventProcessor) Process(ctx context.Context, events []models.RallyEvent) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishEvents(ctx, events)
	case "clickhouse":
		err = p.store.StoreEvents(ctx, events)
	case "both":
		if err = p.store.StoreEvents(ctx, events); err == nil {
			err = p.pub.PublishEvents(ctx, events)
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_events")
		return fmt.Errorf("process events: %w", err)
	}

	p.metrics.RecordLatency("process_events", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *EventProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
