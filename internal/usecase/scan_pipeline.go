package usecase

import (
	"context"
	"fmt"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
	domsvc "RallyScan/internal/domain/service"
	"RallyScan/internal/services/detect"
	"RallyScan/internal/services/hierarchy"
	applogger "RallyScan/pkg/logger"
)

// Detection modes for the 15m level. The refined mode validates each dip's
// peak (volume, retention); the oracle mode takes the raw best dip-to-peak
// gain, useful for labeling and backfill runs.
const (
	ScanModeRefined = "refined"
	ScanModeOracle  = "oracle"
)

// ScanPipeline runs the full three-timeframe rally detection for one symbol:
// fetch candles per timeframe, detect (refined or oracle extrema scan on
// 15m, sequential scan on 1h/4h), soft-dedup the 15m set, then prune through
// the containment hierarchy. Each run touches no shared mutable state, so
// pipelines for different symbols can run concurrently.
type ScanPipeline struct {
	store    domrepo.FeatureStore
	detector domsvc.RallyDetector
	metrics  domrepo.Metrics
	l        *applogger.Logger
	barsPer  int    // candles fetched per timeframe
	mode     string // 15m detection variant, ScanModeRefined or ScanModeOracle
}

// ScanResult is one symbol's hierarchy-filtered event set.
type ScanResult struct {
	Symbol    string
	Events4h  []models.RallyEvent
	Events1h  []models.RallyEvent
	Events15m []models.RallyEvent
	Stats     []models.HierarchyStats
}

// Events returns all levels flattened, 4h first.
func (r *ScanResult) Events() []models.RallyEvent {
	out := make([]models.RallyEvent, 0, len(r.Events4h)+len(r.Events1h)+len(r.Events15m))
	out = append(out, r.Events4h...)
	out = append(out, r.Events1h...)
	out = append(out, r.Events15m...)
	return out
}

func NewScanPipeline(store domrepo.FeatureStore, detector domsvc.RallyDetector, metrics domrepo.Metrics, l *applogger.Logger, barsPerScan int, mode string) *ScanPipeline {
	if barsPerScan <= 0 {
		barsPerScan = 3000
	}
	if mode != ScanModeOracle {
		mode = ScanModeRefined
	}
	return &ScanPipeline{store: store, detector: detector, metrics: metrics, l: l, barsPer: barsPerScan, mode: mode}
}

// Run executes the pipeline for one symbol. A missing or empty series on one
// timeframe empties its level (and everything below it, by containment) but
// is not an error; only store failures propagate.
func (p *ScanPipeline) Run(ctx context.Context, symbol string) (*ScanResult, error) {
	start := time.Now()

	c15m, err := p.fetch(ctx, symbol, domrepo.TF15m)
	if err != nil {
		return nil, err
	}
	c1h, err := p.fetch(ctx, symbol, domrepo.TF1h)
	if err != nil {
		return nil, err
	}
	c4h, err := p.fetch(ctx, symbol, domrepo.TF4h)
	if err != nil {
		return nil, err
	}

	var r15m []models.RallyEvent
	if p.mode == ScanModeOracle {
		r15m = p.detector.DetectOracle(symbol, string(domrepo.TF15m), c15m)
	} else {
		r15m = p.detector.DetectRefined(symbol, string(domrepo.TF15m), c15m)
	}
	r15m = detect.DedupNearby(r15m, domrepo.BarDuration(domrepo.TF15m))
	r1h := p.detector.DetectSequential(symbol, string(domrepo.TF1h), c1h)
	r4h := p.detector.DetectSequential(symbol, string(domrepo.TF4h), c4h)

	p.metrics.RecordEventsDetected(symbol, string(domrepo.TF15m), len(r15m))
	p.metrics.RecordEventsDetected(symbol, string(domrepo.TF1h), len(r1h))
	p.metrics.RecordEventsDetected(symbol, string(domrepo.TF4h), len(r4h))

	f4h, f1h, f15m := hierarchy.BuildHierarchy(r4h, r1h, r15m)

	p.metrics.RecordEventsKept(symbol, string(domrepo.TF1h), len(f1h))
	p.metrics.RecordEventsKept(symbol, string(domrepo.TF15m), len(f15m))
	p.metrics.RecordLatency("scan_pipeline", time.Since(start).Seconds())

	if p.l != nil {
		p.l.Info("scan pipeline done",
			applogger.String("symbol", symbol),
			applogger.Int("events_4h", len(f4h)),
			applogger.Int("events_1h", len(f1h)),
			applogger.Int("events_15m", len(f15m)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}

	stats := hierarchy.Stats(r4h, r1h, r15m, f4h, f1h, f15m)
	if p.l != nil {
		for _, st := range stats {
			p.l.Debug("containment retention",
				applogger.String("symbol", symbol),
				applogger.String("tf", st.Timeframe),
				applogger.Float64("retention_pct", st.RetentionPct),
			)
		}
	}

	return &ScanResult{
		Symbol:    symbol,
		Events4h:  f4h,
		Events1h:  f1h,
		Events15m: f15m,
		Stats:     stats,
	}, nil
}

func (p *ScanPipeline) fetch(ctx context.Context, symbol string, tf domrepo.Timeframe) ([]models.Candle, error) {
	candles, err := p.store.GetLatestNCandles(ctx, symbol, p.barsPer, tf)
	if err != nil {
		p.metrics.RecordError("fetch_candles")
		return nil, fmt.Errorf("fetch %s %s candles: %w", symbol, tf, err)
	}
	return candles, nil
}
