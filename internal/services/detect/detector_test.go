package detect

import (
	"testing"
	"time"

	"RallyScan/internal/domain/models"
)

func TestDetectSequentialEventGap(t *testing.T) {
	candles := flatCandles(40, 100)
	// two qualifying rises: one inside the gap window of the first, one after
	candles[3].High = 110
	candles[6].High = 111
	candles[20].High = 112

	d := NewDetector(Params{
		MinGain:      0.05,
		MaxLookahead: 10,
		EventGap:     12,
	}, nil)
	events := d.DetectSequential("BTCUSDT", "1h", candles)

	if len(events) != 2 {
		t.Fatalf("expected 2 events (gap suppresses the middle one), got %d", len(events))
	}
	if events[0].EventIndex != 0 {
		t.Fatalf("first event should start at bar 0, got %d", events[0].EventIndex)
	}
	if events[1].EventIndex < 12 {
		t.Fatalf("second event must start after the gap, got %d", events[1].EventIndex)
	}
}

func TestDetectSequentialBelowThreshold(t *testing.T) {
	candles := flatCandles(40, 100)
	candles[5].High = 103

	d := NewDetector(Params{MinGain: 0.05, MaxLookahead: 10, EventGap: 5}, nil)
	if events := d.DetectSequential("BTCUSDT", "4h", candles); len(events) != 0 {
		t.Fatalf("sub-threshold rise must not emit, got %d", len(events))
	}
}

func TestDetectOraclePicksBestPeak(t *testing.T) {
	candles := flatCandles(40, 100)
	// dip at 7 with room on both sides for radius 3
	for i := 4; i <= 10; i++ {
		candles[i].Low = 98
		candles[i].Close = 99
	}
	candles[7].Low = 92
	candles[7].Close = 95
	// two rises after the dip; the oracle must take the larger one
	candles[14].High = 108
	candles[17].High = 112

	d := NewDetector(Params{
		WindowRadius: 3,
		MinGain:      0.05,
		MaxLookahead: 20,
	}, nil)
	events := d.DetectOracle("BTCUSDT", "15m", candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 oracle event, got %d", len(events))
	}
	e := events[0]
	if e.EventIndex != 7 || e.PeakIndex != 17 {
		t.Fatalf("oracle must pair the dip with the highest-gain peak, got %d -> %d", e.EventIndex, e.PeakIndex)
	}
	want := (112.0 - 95.0) / 95.0
	if diff := e.FutureMaxGainPct - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("gain must be measured close-at-dip to high-at-peak, got %v want %v", e.FutureMaxGainPct, want)
	}
}

func TestDetectorAdaptiveRadius(t *testing.T) {
	quiet := flatCandles(100, 100)
	for i := range quiet {
		quiet[i].ATR = 0.1 // 0.1% of price, calm
	}
	violent := flatCandles(100, 100)
	for i := range violent {
		violent[i].ATR = 3 // 3% of price
	}
	noFeature := flatCandles(100, 100)

	d := NewDetector(Params{WindowRadius: 10}, nil)
	if got := d.radius(quiet); got != wideRadius {
		t.Fatalf("calm series should widen radius, got %d", got)
	}
	if got := d.radius(violent); got != narrowRadius {
		t.Fatalf("violent series should narrow radius, got %d", got)
	}
	if got := d.radius(noFeature); got != 10 {
		t.Fatalf("missing ATR should keep configured radius, got %d", got)
	}
}

func TestDetectRefinedCarriesValidationMetadata(t *testing.T) {
	candles := flatCandles(40, 100)
	// dip at 7 with room on both sides for radius 3
	for i := 4; i <= 10; i++ {
		candles[i].Low = 98
		candles[i].Close = 99
	}
	candles[7].Low = 92
	candles[7].Close = 95
	// peak at 14, well held afterwards
	candles[14].High = 108
	for i := 15; i < 20; i++ {
		candles[i].Close = 106
	}

	d := NewDetector(Params{
		WindowRadius: 3,
		MinGain:      0.05,
		MaxLookahead: 20,
		Validator: ValidatorParams{
			MinRetention:  0.9,
			RetentionBars: 3,
			Lookforward:   20,
		},
	}, nil)
	events := d.DetectRefined("BTCUSDT", "15m", candles)
	if len(events) != 1 {
		t.Fatalf("expected 1 refined event, got %d", len(events))
	}
	e := events[0]
	if e.EventIndex != 7 || e.PeakIndex != 14 {
		t.Fatalf("unexpected pairing %d -> %d", e.EventIndex, e.PeakIndex)
	}
	if e.RetentionScore < 0.9 {
		t.Fatalf("retention score should carry over, got %v", e.RetentionScore)
	}
	if !e.VolumeConfirmed {
		t.Fatalf("absent volume data should confirm vacuously")
	}
}

func TestDedupNearbyKeepsHigherGain(t *testing.T) {
	bar := 15 * time.Minute
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	ev := func(idx, barsToPeak int, gain float64) models.RallyEvent {
		return models.RallyEvent{
			Symbol:           "BTCUSDT",
			Timeframe:        "15m",
			EventIndex:       idx,
			EventTime:        start.Add(time.Duration(idx) * bar),
			PeakIndex:        idx + barsToPeak,
			BarsToPeak:       barsToPeak,
			FutureMaxGainPct: gain,
			ParentID:         models.NoParent,
			GrandparentID:    models.NoParent,
		}
	}

	// same peak bar, 2 bars apart, gains within 1%
	a := ev(10, 8, 0.100)
	b := ev(12, 6, 0.105)
	out := DedupNearby([]models.RallyEvent{a, b}, bar)
	if len(out) != 1 {
		t.Fatalf("near-duplicates must merge, got %d", len(out))
	}
	if out[0].EventIndex != 12 {
		t.Fatalf("higher gain should survive, got index %d", out[0].EventIndex)
	}

	// distinct peaks stay separate
	c := ev(30, 5, 0.08)
	out = DedupNearby([]models.RallyEvent{a, c}, bar)
	if len(out) != 2 {
		t.Fatalf("distant events must both survive, got %d", len(out))
	}

	// merging is stable on re-application
	again := DedupNearby(out, bar)
	if len(again) != len(out) {
		t.Fatalf("dedup must be idempotent")
	}
}
