package usecase

import (
	"context"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
)

// Shared in-memory fakes for the usecase tests.

type fakeFeatureStore struct {
	byTF map[domrepo.Timeframe][]models.Candle
	err  error
}

func (f *fakeFeatureStore) GetCandles(_ context.Context, _ string, _, _ time.Time, tf domrepo.Timeframe) ([]models.Candle, error) {
	return f.byTF[tf], f.err
}

func (f *fakeFeatureStore) GetLatestNCandles(_ context.Context, _ string, _ int, tf domrepo.Timeframe) ([]models.Candle, error) {
	return f.byTF[tf], f.err
}

type fakeEventStore struct {
	events   []models.RallyEvent
	stored   []models.RallyEvent
	trades   []models.Trade
	queryErr error
	storeErr error
	ops      *[]string
}

func (f *fakeEventStore) Init(context.Context) error { return nil }

func (f *fakeEventStore) StoreEvents(_ context.Context, events []models.RallyEvent) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	if f.ops != nil {
		*f.ops = append(*f.ops, "store")
	}
	f.stored = append(f.stored, events...)
	return nil
}

func (f *fakeEventStore) QueryEvents(_ context.Context, _ string, _ domrepo.Timeframe, _ bool, _ int) ([]models.RallyEvent, error) {
	return f.events, f.queryErr
}

func (f *fakeEventStore) StoreTrades(_ context.Context, trades []models.Trade) error {
	f.trades = append(f.trades, trades...)
	return f.storeErr
}

func (f *fakeEventStore) Health(context.Context) error { return nil }
func (f *fakeEventStore) Close() error                 { return nil }

type fakePublisher struct {
	published []models.RallyEvent
	err       error
	closed    bool
	ops       *[]string
}

func (f *fakePublisher) PublishEvents(_ context.Context, events []models.RallyEvent) error {
	if f.err != nil {
		return f.err
	}
	if f.ops != nil {
		*f.ops = append(*f.ops, "publish")
	}
	f.published = append(f.published, events...)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeMetrics struct {
	detected map[string]int
	kept     map[string]int
	trades   int
	errors   []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{detected: map[string]int{}, kept: map[string]int{}}
}

func (m *fakeMetrics) RecordEventsDetected(_, tf string, n int) { m.detected[tf] += n }
func (m *fakeMetrics) RecordEventsKept(_, tf string, n int)     { m.kept[tf] += n }
func (m *fakeMetrics) RecordTradesSimulated(_ string, n int)    { m.trades += n }
func (m *fakeMetrics) RecordError(kind string)                  { m.errors = append(m.errors, kind) }
func (m *fakeMetrics) RecordLatency(string, float64)            {}

type fakeDetector struct {
	oracle     []models.RallyEvent
	refined    []models.RallyEvent
	sequential map[string][]models.RallyEvent
}

func (d *fakeDetector) DetectOracle(_, _ string, _ []models.Candle) []models.RallyEvent {
	return d.oracle
}

func (d *fakeDetector) DetectRefined(_, _ string, _ []models.Candle) []models.RallyEvent {
	return d.refined
}

func (d *fakeDetector) DetectSequential(_, tf string, _ []models.Candle) []models.RallyEvent {
	return d.sequential[tf]
}
