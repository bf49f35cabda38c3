package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RallyScan/internal/domain/models"
)

func sampleEvents(n int) []models.RallyEvent {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.RallyEvent, n)
	for i := range out {
		out[i] = models.RallyEvent{
			Symbol:           "BTCUSDT",
			Timeframe:        "15m",
			EventIndex:       i,
			EventTime:        t0.Add(time.Duration(i) * 15 * time.Minute),
			FutureMaxGainPct: 0.10,
			RallyBucket:      "10p_20p",
			ParentID:         models.NoParent,
			GrandparentID:    models.NoParent,
		}
	}
	return out
}

func TestEventProcessorKafkaBackend(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeEventStore{}
	proc := NewEventProcessor(pub, store, newFakeMetrics(), "kafka")

	if err := proc.Process(context.Background(), sampleEvents(3)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(pub.published) != 3 || len(store.stored) != 0 {
		t.Fatalf("kafka backend must only publish: published=%d stored=%d", len(pub.published), len(store.stored))
	}
}

func TestEventProcessorClickHouseBackend(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeEventStore{}
	proc := NewEventProcessor(pub, store, newFakeMetrics(), "clickhouse")

	if err := proc.Process(context.Background(), sampleEvents(2)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(store.stored) != 2 || len(pub.published) != 0 {
		t.Fatalf("clickhouse backend must only store: published=%d stored=%d", len(pub.published), len(store.stored))
	}
}

func TestEventProcessorBothStoresThenPublishes(t *testing.T) {
	var ops []string
	pub := &fakePublisher{ops: &ops}
	store := &fakeEventStore{ops: &ops}
	proc := NewEventProcessor(pub, store, newFakeMetrics(), "both")

	if err := proc.Process(context.Background(), sampleEvents(1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(ops) != 2 || ops[0] != "store" || ops[1] != "publish" {
		t.Fatalf("expected store before publish, got %v", ops)
	}
}

func TestEventProcessorBothSkipsPublishOnStoreFailure(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeEventStore{storeErr: errors.New("insert failed")}
	metrics := newFakeMetrics()
	proc := NewEventProcessor(pub, store, metrics, "both")

	if err := proc.Process(context.Background(), sampleEvents(1)); err == nil {
		t.Fatalf("store failure must propagate")
	}
	if len(pub.published) != 0 {
		t.Fatalf("publish must not run after a failed store")
	}
	if len(metrics.errors) != 1 || metrics.errors[0] != "process_events" {
		t.Fatalf("expected process_events error metric, got %v", metrics.errors)
	}
}

func TestEventProcessorUnknownBackend(t *testing.T) {
	proc := NewEventProcessor(&fakePublisher{}, &fakeEventStore{}, newFakeMetrics(), "s3")
	if err := proc.Process(context.Background(), sampleEvents(1)); err == nil {
		t.Fatalf("unknown backend must error")
	}
}

func TestEventProcessorEmptyBatchIsNoop(t *testing.T) {
	pub := &fakePublisher{}
	store := &fakeEventStore{}
	proc := NewEventProcessor(pub, store, newFakeMetrics(), "both")

	if err := proc.Process(context.Background(), nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(pub.published) != 0 || len(store.stored) != 0 {
		t.Fatalf("empty batch must touch nothing")
	}
}

func TestEventProcessorClose(t *testing.T) {
	pub := &fakePublisher{}
	proc := NewEventProcessor(pub, &fakeEventStore{}, newFakeMetrics(), "kafka")
	proc.Close()
	if !pub.closed {
		t.Fatalf("close must reach the publisher")
	}
}
