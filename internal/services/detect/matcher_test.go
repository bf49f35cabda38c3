package detect

import (
	"testing"
	"time"

	"RallyScan/internal/domain/models"
)

func flatCandles(n int, price float64) []models.Candle {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{
			Bucket: start.Add(time.Duration(i) * 15 * time.Minute),
			Symbol: "BTCUSDT",
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 100,
		}
	}
	return out
}

func TestMatchRalliesSelectsBestGainPeak(t *testing.T) {
	candles := flatCandles(30, 100)
	candles[10].Low = 95
	candles[14].High = 106
	candles[20].High = 112

	events := MatchRallies("BTCUSDT", "15m", candles, []int{10}, []int{14, 20}, MatchParams{
		MaxLookahead: 48,
		MinGain:      0.05,
	})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.PeakIndex != 20 {
		t.Fatalf("expected best-gain peak 20, got %d", e.PeakIndex)
	}
	if e.BarsToPeak != 10 {
		t.Fatalf("expected bars_to_peak 10, got %d", e.BarsToPeak)
	}
	if e.FutureMaxGainPct != 0.12 {
		t.Fatalf("expected gain 0.12, got %v", e.FutureMaxGainPct)
	}
	if e.RallyBucket != "10p_20p" {
		t.Fatalf("expected bucket 10p_20p, got %q", e.RallyBucket)
	}
	if e.ParentID != models.NoParent {
		t.Fatalf("fresh event must be unlinked")
	}
}

func TestMatchRalliesRespectsLookahead(t *testing.T) {
	candles := flatCandles(30, 100)
	candles[25].High = 120

	events := MatchRallies("BTCUSDT", "15m", candles, []int{10}, []int{25}, MatchParams{
		MaxLookahead: 10,
		MinGain:      0.05,
	})
	if len(events) != 0 {
		t.Fatalf("peak outside lookahead must not match, got %d events", len(events))
	}
}

func TestMatchRalliesSharedPeakLowestDipWins(t *testing.T) {
	candles := flatCandles(30, 100)
	candles[5].Low = 96
	candles[8].Low = 94
	candles[15].High = 110

	events := MatchRallies("BTCUSDT", "15m", candles, []int{5, 8}, []int{15}, MatchParams{
		MaxLookahead: 48,
		MinGain:      0.05,
	})
	if len(events) != 1 {
		t.Fatalf("shared peak must dedup to 1 event, got %d", len(events))
	}
	if events[0].EventIndex != 8 {
		t.Fatalf("expected the lower dip (8) to survive, got %d", events[0].EventIndex)
	}
}

func TestMatchRalliesSharedPeakTieKeepsEarliest(t *testing.T) {
	candles := flatCandles(30, 100)
	candles[5].Low = 95
	candles[8].Low = 95
	candles[15].High = 110

	events := MatchRallies("BTCUSDT", "15m", candles, []int{5, 8}, []int{15}, MatchParams{
		MaxLookahead: 48,
		MinGain:      0.05,
	})
	if len(events) != 1 || events[0].EventIndex != 5 {
		t.Fatalf("expected earliest dip on tie, got %+v", events)
	}
}

func TestMatchRalliesDropsSubThresholdGain(t *testing.T) {
	candles := flatCandles(30, 100)
	candles[14].High = 103 // 3%, below the first bucket

	events := MatchRallies("BTCUSDT", "15m", candles, []int{10}, []int{14}, MatchParams{
		MaxLookahead: 48,
		MinGain:      0.01,
	})
	if len(events) != 0 {
		t.Fatalf("sub-bucket gain must be dropped, got %d events", len(events))
	}
}

func TestRallyBucketLabels(t *testing.T) {
	cases := []struct {
		gain float64
		want string
	}{
		{0.03, ""},
		{0.05, "5p_10p"},
		{0.07, "5p_10p"},
		{0.10, "10p_20p"},
		{0.19, "10p_20p"},
		{0.25, "20p_30p"},
		{0.30, "30p_plus"},
		{0.90, "30p_plus"},
	}
	for _, c := range cases {
		if got := RallyBucket(c.gain, DefaultBucketThresholds); got != c.want {
			t.Fatalf("RallyBucket(%v) = %q, want %q", c.gain, got, c.want)
		}
	}
}

func TestWindowRadiusAdaptive(t *testing.T) {
	if got := WindowRadius(2.5, 10); got != narrowRadius {
		t.Fatalf("high vol should narrow, got %d", got)
	}
	if got := WindowRadius(0.3, 10); got != wideRadius {
		t.Fatalf("low vol should widen, got %d", got)
	}
	if got := WindowRadius(1.0, 10); got != 10 {
		t.Fatalf("mid vol should keep default, got %d", got)
	}
}

func TestAvgATRPercentAbsentFeature(t *testing.T) {
	candles := flatCandles(10, 100)
	if got := AvgATRPercent(candles); got != 0 {
		t.Fatalf("no ATR data should yield 0, got %v", got)
	}
}
