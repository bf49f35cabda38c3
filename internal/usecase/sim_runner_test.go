package usecase

import (
	"context"
	"testing"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	"RallyScan/internal/services/sim"
)

func TestSimRunnerOrdersFiltersAndStores(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	step := 15 * time.Minute

	bars := make([]models.Candle, 8)
	for i := range bars {
		bars[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * step),
			Symbol: "BTCUSDT",
			Open:   100, High: 106, Low: 99, Close: 100,
			Volume: 100,
		}
	}

	late := sampleEvents(1)[0]
	late.EventTime = t0.Add(4 * step)
	early := sampleEvents(1)[0]
	early.EventTime = t0
	small := sampleEvents(1)[0]
	small.EventTime = t0.Add(2 * step)
	small.FutureMaxGainPct = 0.01

	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{domrepo.TF15m: bars}}
	// returned out of order; the runner must sort by event time before
	// simulating since equity compounds
	events := &fakeEventStore{events: []models.RallyEvent{late, early, small}}
	metrics := newFakeMetrics()

	cfg := sim.DefaultConfig("BTCUSDT", "15m")
	cfg.MinGainPct = 0.05

	r := NewSimRunner(store, events, metrics)
	res, err := r.Run(context.Background(), cfg, 3000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Trades) != 2 {
		t.Fatalf("expected 2 trades after the gain filter, got %d", len(res.Trades))
	}
	if !res.Trades[0].EntryTime.Equal(t0) || !res.Trades[1].EntryTime.Equal(t0.Add(4*step)) {
		t.Fatalf("trades must run in event-time order: %+v", res.Trades)
	}
	if len(events.trades) != 2 {
		t.Fatalf("trade log must be persisted, stored %d", len(events.trades))
	}
	if metrics.trades != 2 {
		t.Fatalf("expected 2 simulated trades recorded, got %d", metrics.trades)
	}
	if res.Summary.NumTrades != 2 {
		t.Fatalf("summary mismatch: %+v", res.Summary)
	}
}

func TestSimRunnerRejectsInvalidConfig(t *testing.T) {
	cfg := sim.DefaultConfig("BTCUSDT", "15m")
	cfg.SLPct = 0

	r := NewSimRunner(&fakeFeatureStore{}, &fakeEventStore{}, newFakeMetrics())
	if _, err := r.Run(context.Background(), cfg, 3000); err == nil {
		t.Fatalf("invalid config must be rejected before any query")
	}
}

func TestSimRunnerNoTradesSkipsPersist(t *testing.T) {
	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF15m: {{Bucket: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Close: 100, High: 100, Low: 100}},
	}}
	events := &fakeEventStore{}

	r := NewSimRunner(store, events, newFakeMetrics())
	res, err := r.Run(context.Background(), sim.DefaultConfig("BTCUSDT", "15m"), 3000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 0 || len(events.trades) != 0 {
		t.Fatalf("no events means no trades and no persist: %+v", res.Trades)
	}
	if len(res.Equity) != 1 {
		t.Fatalf("equity curve must keep its starting sample, got %d points", len(res.Equity))
	}
}

func TestSimRunnerEmptyCandleSeries(t *testing.T) {
	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{}}
	events := &fakeEventStore{}

	cfg := sim.DefaultConfig("BTCUSDT", "15m")
	cfg.InitialEquity = 1000

	r := NewSimRunner(store, events, newFakeMetrics())
	res, err := r.Run(context.Background(), cfg, 3000)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Trades) != 0 {
		t.Fatalf("no candles means no trades, got %d", len(res.Trades))
	}
	if res.Summary.FinalEquity != 1000 {
		t.Fatalf("final equity must stay at initial equity without candles, got %v", res.Summary.FinalEquity)
	}
}

func TestCandlesUseCaseValidation(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	uc := NewCandlesUseCase(&fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF15m: flatSeries(domrepo.TF15m, 5),
	}})

	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{From: t0, To: t0.Add(time.Hour), Timeframe: domrepo.TF15m}); err == nil {
		t.Fatalf("missing symbol must error")
	}
	if _, err := uc.GetCandles(context.Background(), GetCandlesParams{Symbol: "BTCUSDT", From: t0.Add(time.Hour), To: t0, Timeframe: domrepo.TF15m}); err == nil {
		t.Fatalf("inverted range must error")
	}

	res, err := uc.GetCandles(context.Background(), GetCandlesParams{
		Symbol: "BTCUSDT", From: t0, To: t0.Add(24 * time.Hour), Timeframe: domrepo.TF15m, Limit: 3,
	})
	if err != nil {
		t.Fatalf("get candles: %v", err)
	}
	if res.Count != 3 || len(res.Candles) != 3 {
		t.Fatalf("limit must truncate the series, got %d", res.Count)
	}
}
