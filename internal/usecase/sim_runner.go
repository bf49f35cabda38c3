package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	"RallyScan/internal/services/sim"
)

// SimRunner replays stored rally events through the trade simulator.
type SimRunner struct {
	store   domrepo.FeatureStore
	events  domrepo.EventStore
	metrics domrepo.Metrics
}

func NewSimRunner(store domrepo.FeatureStore, events domrepo.EventStore, metrics domrepo.Metrics) *SimRunner {
	return &SimRunner{store: store, events: events, metrics: metrics}
}

// SimRunResult carries one simulation run's full output.
type SimRunResult struct {
	Trades  []models.Trade
	Equity  []models.EquityPoint
	Summary models.SimSummary
}

// Run loads the qualified events and bar series for the config's symbol and
// timeframe, simulates, persists the trade log, and summarizes. The event
// order is fixed to event time before simulating: equity compounds, so
// ordering is part of the result.
func (r *SimRunner) Run(ctx context.Context, cfg sim.Config, bars int) (*SimRunResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim config: %w", err)
	}
	tf := domrepo.NormalizeTimeframe(cfg.Timeframe)

	start := time.Now()
	events, err := r.events.QueryEvents(ctx, cfg.Symbol, tf, cfg.LinkedOnly, 0)
	if err != nil {
		r.metrics.RecordError("sim_query_events")
		return nil, fmt.Errorf("query events: %w", err)
	}
	events = sim.FilterEvents(events, cfg)
	sort.Slice(events, func(i, j int) bool { return events[i].EventTime.Before(events[j].EventTime) })

	candles, err := r.store.GetLatestNCandles(ctx, cfg.Symbol, bars, tf)
	if err != nil {
		r.metrics.RecordError("sim_fetch_candles")
		return nil, fmt.Errorf("fetch candles: %w", err)
	}

	trades, equity := sim.Simulate(events, candles, cfg)
	summary := sim.Summarize(trades, equity)

	if len(trades) > 0 {
		if err := r.events.StoreTrades(ctx, trades); err != nil {
			r.metrics.RecordError("sim_store_trades")
			return nil, fmt.Errorf("store trades: %w", err)
		}
	}
	r.metrics.RecordTradesSimulated(cfg.Symbol, len(trades))
	r.metrics.RecordLatency("simulate", time.Since(start).Seconds())

	return &SimRunResult{Trades: trades, Equity: equity, Summary: summary}, nil
}
