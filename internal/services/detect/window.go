package detect

import "RallyScan/internal/domain/models"

// Adaptive window thresholds. Above highVolATRPct the series is violent and
// genuine turns sit close together, so the extrema window narrows; below
// lowVolATRPct a narrow window over-detects noise, so it widens.
const (
	narrowRadius  = 7
	wideRadius    = 15
	highVolATRPct = 2.0
	lowVolATRPct  = 0.5
)

// WindowRadius maps average ATR (as a percent of price) to an extrema search
// radius. Monotone step function: narrow for volatile series, wide for calm
// ones, def otherwise.
func WindowRadius(avgATRPct float64, def int) int {
	switch {
	case avgATRPct > highVolATRPct:
		return narrowRadius
	case avgATRPct < lowVolATRPct:
		return wideRadius
	default:
		return def
	}
}

// AvgATRPercent computes mean(ATR)/mean(close)*100 over bars carrying an ATR
// value. Returns 0 when the feature is absent, which keeps the default radius.
func AvgATRPercent(candles []models.Candle) float64 {
	var atrSum, closeSum float64
	var n int
	for i := range candles {
		if candles[i].ATR <= 0 || candles[i].Close <= 0 {
			continue
		}
		atrSum += candles[i].ATR
		closeSum += candles[i].Close
		n++
	}
	if n == 0 || closeSum == 0 {
		return 0
	}
	return (atrSum / float64(n)) / (closeSum / float64(n)) * 100
}
