package sim

import (
	"testing"
	"time"

	"RallyScan/internal/domain/models"
)

var t0 = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

const barStep = 15 * time.Minute

func bars(ohlc ...[4]float64) []models.Candle {
	out := make([]models.Candle, len(ohlc))
	for i, b := range ohlc {
		out[i] = models.Candle{
			Bucket: t0.Add(time.Duration(i) * barStep),
			Symbol: "BTCUSDT",
			Open:   b[0],
			High:   b[1],
			Low:    b[2],
			Close:  b[3],
			Volume: 100,
		}
	}
	return out
}

func entryEvent(barIdx int) models.RallyEvent {
	return models.RallyEvent{
		Symbol:           "BTCUSDT",
		Timeframe:        "15m",
		EventIndex:       barIdx,
		EventTime:        t0.Add(time.Duration(barIdx) * barStep),
		FutureMaxGainPct: 0.10,
		RallyBucket:      "10p_20p",
		ParentID:         models.NoParent,
		GrandparentID:    models.NoParent,
	}
}

func testConfig() Config {
	cfg := DefaultConfig("BTCUSDT", "15m")
	cfg.InitialEquity = 1000
	return cfg
}

func TestSimulateStopLossBeforeTakeProfit(t *testing.T) {
	// entry close 100, TP 105, SL 98; bar 2 touches both levels, and the
	// adverse fill is assumed first
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 103, 99, 101},
		[4]float64{101, 106, 97.5, 99},
	)
	trades, _ := Simulate([]models.RallyEvent{entryEvent(0)}, series, testConfig())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.ExitReason != models.ExitSL {
		t.Fatalf("SL must resolve before TP, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 98 {
		t.Fatalf("SL exit must fill at the stop level, got %v", tr.ExitPrice)
	}
	if !tr.ExitTime.Equal(series[2].Bucket) {
		t.Fatalf("unexpected exit time %v", tr.ExitTime)
	}
}

func TestSimulateRiskSizing(t *testing.T) {
	// equity 1000, risk 1%, SL 2% -> position 500; a -2% move loses 10
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 97, 98},
	)
	trades, curve := Simulate([]models.RallyEvent{entryEvent(0)}, series, testConfig())
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.PnL != -10 {
		t.Fatalf("expected pnl -10, got %v", tr.PnL)
	}
	if tr.EquityAfter != 990 {
		t.Fatalf("expected equity 990, got %v", tr.EquityAfter)
	}
	if curve[len(curve)-1].Equity != 990 {
		t.Fatalf("curve must end at post-trade equity, got %v", curve[len(curve)-1].Equity)
	}
}

func TestSimulatePositionCappedAtEquity(t *testing.T) {
	// risk 50% with SL 2% would demand 25x equity; cap to equity (no leverage)
	cfg := testConfig()
	cfg.RiskPerTradePct = 0.5
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 100, 97, 98},
	)
	trades, _ := Simulate([]models.RallyEvent{entryEvent(0)}, series, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	// position = 1000, SL fill at 98 -> -2% of 1000
	if trades[0].PnL != -20 {
		t.Fatalf("capped position should lose 20, got %v", trades[0].PnL)
	}
}

func TestSimulateTimeoutExitsAtWindowClose(t *testing.T) {
	cfg := testConfig()
	cfg.MaxHorizonBars = 2
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 101, 99.5, 100.5},
		[4]float64{100.5, 102, 100, 101},
		[4]float64{101, 120, 95, 110}, // outside the horizon
	)
	trades, _ := Simulate([]models.RallyEvent{entryEvent(0)}, series, cfg)
	if len(trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(trades))
	}
	tr := trades[0]
	if tr.ExitReason != models.ExitTimeout {
		t.Fatalf("expected timeout exit, got %s", tr.ExitReason)
	}
	if tr.ExitPrice != 101 || !tr.ExitTime.Equal(series[2].Bucket) {
		t.Fatalf("timeout must exit at the horizon bar close: %+v", tr)
	}
}

func TestSimulateEntryOnFinalBarSkipped(t *testing.T) {
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 101, 99, 100},
	)
	trades, curve := Simulate([]models.RallyEvent{entryEvent(1)}, series, testConfig())
	if len(trades) != 0 {
		t.Fatalf("entry with no horizon bars must be skipped, got %d trades", len(trades))
	}
	if len(curve) != 1 || curve[0].Equity != 1000 {
		t.Fatalf("skipped entry must leave the curve at its starting sample: %+v", curve)
	}
}

func TestSimulateEmptySeriesKeepsInitialEquity(t *testing.T) {
	trades, curve := Simulate(nil, nil, testConfig())
	if len(trades) != 0 {
		t.Fatalf("no bars must produce no trades, got %d", len(trades))
	}
	s := Summarize(trades, curve)
	if s.FinalEquity != 1000 {
		t.Fatalf("final equity must equal initial equity with no bars, got %v", s.FinalEquity)
	}
	if s.NumTrades != 0 || s.TotalPnLPct != 0 {
		t.Fatalf("empty run must report zero activity: %+v", s)
	}
}

func TestSimulateSkipsUnknownTimestamps(t *testing.T) {
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 110, 100, 108},
	)
	ghost := entryEvent(0)
	ghost.EventTime = t0.Add(-24 * time.Hour)

	trades, curve := Simulate([]models.RallyEvent{ghost}, series, testConfig())
	if len(trades) != 0 {
		t.Fatalf("event outside the series must be skipped, got %d trades", len(trades))
	}
	if len(curve) != 1 || curve[0].Equity != 1000 {
		t.Fatalf("curve must still carry the starting sample: %+v", curve)
	}
}

func TestSimulateEquityCompounds(t *testing.T) {
	// two sequential winners: TP at +5% on a 500 position, then on a larger one
	cfg := testConfig()
	series := bars(
		[4]float64{100, 100, 100, 100},
		[4]float64{100, 106, 100, 105}, // TP for trade 1
		[4]float64{105, 105, 105, 100},
		[4]float64{100, 106, 100, 105}, // TP for trade 2
	)
	events := []models.RallyEvent{entryEvent(0), entryEvent(2)}
	trades, _ := Simulate(events, series, cfg)
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	// trade 1: position 500, +5% -> +25, equity 1025
	if trades[0].EquityAfter != 1025 {
		t.Fatalf("expected equity 1025 after first win, got %v", trades[0].EquityAfter)
	}
	// trade 2 sizes off the new equity: 1025*0.01/0.02 = 512.5 -> +25.625
	if trades[1].EquityAfter != 1050.625 {
		t.Fatalf("expected compounded equity 1050.625, got %v", trades[1].EquityAfter)
	}
}

func TestFilterEvents(t *testing.T) {
	linked := entryEvent(0)
	linked.ParentID = 3
	small := entryEvent(1)
	small.FutureMaxGainPct = 0.02
	otherBucket := entryEvent(2)
	otherBucket.RallyBucket = "5p_10p"

	cfg := testConfig()
	cfg.MinGainPct = 0.05
	cfg.LinkedOnly = true
	cfg.AllowedBuckets = []string{"10p_20p"}

	out := FilterEvents([]models.RallyEvent{linked, small, otherBucket}, cfg)
	if len(out) != 1 || out[0].ParentID != 3 {
		t.Fatalf("filters should keep only the linked 10p_20p event: %+v", out)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig("BTCUSDT", "15m").Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
	bad := DefaultConfig("BTCUSDT", "15m")
	bad.SLPct = 0
	if err := bad.Validate(); err == nil {
		t.Fatalf("zero stop loss must fail validation")
	}
	bad = DefaultConfig("BTCUSDT", "15m")
	bad.RiskPerTradePct = 1.5
	if err := bad.Validate(); err == nil {
		t.Fatalf("risk above 100%% must fail validation")
	}
}
