package repository

import (
	"context"

	"RallyScan/internal/domain/models"
)

// EventStore persists detected rally events and simulated trades.
type EventStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	StoreEvents(ctx context.Context, events []models.RallyEvent) error
	QueryEvents(ctx context.Context, symbol string, tf Timeframe, linkedOnly bool, limit int) ([]models.RallyEvent, error)
	StoreTrades(ctx context.Context, trades []models.Trade) error
	Health(ctx context.Context) error // ping
	Close() error
}

// Publisher pushes detected rally events to downstream consumers.
type Publisher interface {
	PublishEvents(ctx context.Context, events []models.RallyEvent) error
	Close() error
}

// Metrics records pipeline observability counters.
type Metrics interface {
	RecordEventsDetected(symbol, tf string, n int)
	RecordEventsKept(symbol, tf string, n int)
	RecordTradesSimulated(symbol string, n int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
