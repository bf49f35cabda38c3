package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
)

func flatSeries(tf domrepo.Timeframe, n int) []models.Candle {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	step := domrepo.BarDuration(tf)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * step),
			Symbol: "BTCUSDT",
			Open:   100, High: 101, Low: 99, Close: 100,
			Volume: 100,
		}
	}
	return out
}

func scanEvent(tf string, start time.Time, barsToPeak int) models.RallyEvent {
	return models.RallyEvent{
		Symbol:           "BTCUSDT",
		Timeframe:        tf,
		EventTime:        start,
		BarsToPeak:       barsToPeak,
		PeakIndex:        barsToPeak,
		FutureMaxGainPct: 0.10,
		RallyBucket:      "10p_20p",
		ParentID:         models.NoParent,
		GrandparentID:    models.NoParent,
	}
}

func TestScanPipelineLinksHierarchy(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF15m: flatSeries(domrepo.TF15m, 100),
		domrepo.TF1h:  flatSeries(domrepo.TF1h, 100),
		domrepo.TF4h:  flatSeries(domrepo.TF4h, 100),
	}}
	detector := &fakeDetector{
		// 15m: one event inside the surviving 1h window, one orphan far out
		refined: []models.RallyEvent{
			scanEvent("15m", t0.Add(2*time.Hour), 2),
			scanEvent("15m", t0.Add(200*time.Hour), 2),
		},
		sequential: map[string][]models.RallyEvent{
			// 1h window: [t0+1h, t0+5h], inside the 4h window [t0, t0+12h]
			"1h": {scanEvent("1h", t0.Add(time.Hour), 4)},
			"4h": {scanEvent("4h", t0, 3)},
		},
	}
	metrics := newFakeMetrics()

	p := NewScanPipeline(store, detector, metrics, nil, 3000, ScanModeRefined)
	res, err := p.Run(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(res.Events4h) != 1 || len(res.Events1h) != 1 || len(res.Events15m) != 1 {
		t.Fatalf("unexpected filtered counts: 4h=%d 1h=%d 15m=%d",
			len(res.Events4h), len(res.Events1h), len(res.Events15m))
	}
	e := res.Events15m[0]
	if e.ParentID != 0 || !e.ParentStart.Equal(t0.Add(time.Hour)) {
		t.Fatalf("15m parent link wrong: %+v", e)
	}
	if e.GrandparentID != 0 || !e.GrandparentStart.Equal(t0) {
		t.Fatalf("15m grandparent link wrong: %+v", e)
	}

	all := res.Events()
	if len(all) != 3 || all[0].Timeframe != "4h" || all[2].Timeframe != "15m" {
		t.Fatalf("flattened events must run 4h first: %+v", all)
	}

	if metrics.detected["15m"] != 2 || metrics.kept["15m"] != 1 {
		t.Fatalf("metrics: detected=%v kept=%v", metrics.detected, metrics.kept)
	}
	if len(res.Stats) != 3 || res.Stats[2].RetentionPct != 50 {
		t.Fatalf("unexpected stats: %+v", res.Stats)
	}
}

func TestScanPipelineEmptyParentLevelDropsChildren(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{}}
	detector := &fakeDetector{
		refined: []models.RallyEvent{scanEvent("15m", t0, 2)},
		sequential: map[string][]models.RallyEvent{
			"1h": {scanEvent("1h", t0, 4)},
			// no 4h events at all
		},
	}

	p := NewScanPipeline(store, detector, newFakeMetrics(), nil, 0, "")
	res, err := p.Run(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Events1h) != 0 || len(res.Events15m) != 0 {
		t.Fatalf("missing 4h level must cascade: 1h=%d 15m=%d", len(res.Events1h), len(res.Events15m))
	}
}

func TestScanPipelineOracleMode(t *testing.T) {
	t0 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeFeatureStore{byTF: map[domrepo.Timeframe][]models.Candle{
		domrepo.TF15m: flatSeries(domrepo.TF15m, 100),
		domrepo.TF1h:  flatSeries(domrepo.TF1h, 100),
		domrepo.TF4h:  flatSeries(domrepo.TF4h, 100),
	}}
	detector := &fakeDetector{
		oracle:  []models.RallyEvent{scanEvent("15m", t0.Add(2*time.Hour), 2)},
		refined: []models.RallyEvent{scanEvent("15m", t0.Add(3*time.Hour), 2)},
		sequential: map[string][]models.RallyEvent{
			"1h": {scanEvent("1h", t0.Add(time.Hour), 4)},
			"4h": {scanEvent("4h", t0, 3)},
		},
	}

	p := NewScanPipeline(store, detector, newFakeMetrics(), nil, 3000, ScanModeOracle)
	res, err := p.Run(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Events15m) != 1 {
		t.Fatalf("expected 1 surviving 15m event, got %d", len(res.Events15m))
	}
	if !res.Events15m[0].EventTime.Equal(t0.Add(2 * time.Hour)) {
		t.Fatalf("oracle mode must take the oracle detector's events, got %v", res.Events15m[0].EventTime)
	}
}

func TestScanPipelineStoreErrorPropagates(t *testing.T) {
	store := &fakeFeatureStore{err: errors.New("clickhouse down")}
	metrics := newFakeMetrics()

	p := NewScanPipeline(store, &fakeDetector{}, metrics, nil, 3000, ScanModeRefined)
	if _, err := p.Run(context.Background(), "BTCUSDT"); err == nil {
		t.Fatalf("store failure must propagate")
	}
	if len(metrics.errors) == 0 || metrics.errors[0] != "fetch_candles" {
		t.Fatalf("expected fetch_candles error metric, got %v", metrics.errors)
	}
}
