package detect

import (
	"sort"
	"time"

	"RallyScan/internal/domain/models"
	applogger "RallyScan/pkg/logger"
)

// Params bundles everything a detection run needs.
type Params struct {
	WindowRadius int     // base extrema radius; adapted by ATR when available
	MinGain      float64 // minimum gain fraction
	MaxLookahead int     // peak search cap, bars
	EventGap     int     // sequential detector: bars skipped after an event
	Thresholds   []float64
	Validator    ValidatorParams
}

// Detector runs the rally detection variants over complete candle series.
// Pure and deterministic given the same inputs; the logger only reports
// counts.
type Detector struct {
	p Params
	l *applogger.Logger
}

func NewDetector(p Params, l *applogger.Logger) *Detector {
	if p.Thresholds == nil {
		p.Thresholds = DefaultBucketThresholds
	}
	return &Detector{p: p, l: l}
}

// radius resolves the effective extrema radius for a series: the adaptive
// policy applies only when the ATR feature is present.
func (d *Detector) radius(candles []models.Candle) int {
	if avg := AvgATRPercent(candles); avg > 0 {
		return WindowRadius(avg, d.p.WindowRadius)
	}
	return d.p.WindowRadius
}

// DetectOracle finds rallies as best dip-to-peak pairs over rolling extrema.
// Empty or too-short input yields an empty result.
func (d *Detector) DetectOracle(symbol, tf string, candles []models.Candle) []models.RallyEvent {
	flags := ScanExtrema(candles, d.radius(candles))
	events := MatchRallies(symbol, tf, candles, DipIndexes(flags), PeakIndexes(flags), MatchParams{
		MaxLookahead: d.p.MaxLookahead,
		MinGain:      d.p.MinGain,
		Thresholds:   d.p.Thresholds,
	})
	d.logCount("oracle", symbol, tf, len(events))
	return events
}

// DetectRefined is the v2 variant: each dip's peak is chosen by the
// multi-pass validator (volume, retention, then highest survivor) instead of
// raw maximum gain. Events carry the validator's confirmation metadata.
func (d *Detector) DetectRefined(symbol, tf string, candles []models.Candle) []models.RallyEvent {
	flags := ScanExtrema(candles, d.radius(candles))
	peaks := PeakIndexes(flags)

	v := d.p.Validator
	if v.Lookforward == 0 {
		v.Lookforward = d.p.MaxLookahead
	}

	raw := make([]rawMatch, 0, 16)
	for _, dip := range DipIndexes(flags) {
		dipClose := candles[dip].Close
		if dipClose <= 0 {
			continue
		}
		val, ok := ValidatePeak(candles, dip, peaks, v)
		if !ok {
			continue
		}
		gain := (val.PeakPrice - dipClose) / dipClose
		if gain < d.p.MinGain {
			continue
		}
		raw = append(raw, rawMatch{
			dipIdx:   dip,
			peakIdx:  val.PeakIndex,
			gain:     gain,
			dipLow:   candles[dip].Low,
			volOK:    val.VolumeConfirmed,
			retScore: val.RetentionScore,
		})
	}
	events := buildEvents(symbol, tf, candles, dedupByPeak(raw), d.p.Thresholds)
	d.logCount("refined", symbol, tf, len(events))
	return events
}

// DetectSequential is the generic walk-forward detector used for the larger
// timeframes: at each bar it takes the max high over the lookahead window,
// emits an event when the gain clears the threshold, then skips EventGap bars
// so consecutive events cannot overlap.
func (d *Detector) DetectSequential(symbol, tf string, candles []models.Candle) []models.RallyEvent {
	n := len(candles)
	events := make([]models.RallyEvent, 0, 16)
	for i := 0; i < n-1; {
		end := i + d.p.MaxLookahead
		if end > n-1 {
			end = n - 1
		}
		closeNow := candles[i].Close
		if closeNow <= 0 || end <= i {
			i++
			continue
		}
		bestPeak, bestHigh := i+1, candles[i+1].High
		for j := i + 2; j <= end; j++ {
			if candles[j].High > bestHigh {
				bestHigh = candles[j].High
				bestPeak = j
			}
		}
		gain := (bestHigh - closeNow) / closeNow
		if gain >= d.p.MinGain {
			if bucket := RallyBucket(gain, d.p.Thresholds); bucket != "" {
				events = append(events, models.RallyEvent{
					Symbol:           symbol,
					Timeframe:        tf,
					EventIndex:       i,
					EventTime:        candles[i].Bucket,
					PeakIndex:        bestPeak,
					BarsToPeak:       bestPeak - i,
					FutureMaxGainPct: gain,
					RallyBucket:      bucket,
					ParentID:         models.NoParent,
					GrandparentID:    models.NoParent,
				})
				if d.p.EventGap > 1 {
					i += d.p.EventGap
				} else {
					i++
				}
				continue
			}
		}
		i++
	}
	d.logCount("sequential", symbol, tf, len(events))
	return events
}

func (d *Detector) logCount(mode, symbol, tf string, n int) {
	if d.l == nil || n == 0 {
		return
	}
	d.l.Info("rally detection done",
		applogger.String("mode", mode),
		applogger.String("symbol", symbol),
		applogger.String("tf", tf),
		applogger.Int("events", n),
	)
}

// DedupNearby merges near-duplicate events: same peak bar bucket, starts
// within 3 bars, gains within 1%, durations within 2 bars. The higher gain
// survives, ties going to the earlier event. Events further apart stay as
// separate opportunities.
func DedupNearby(events []models.RallyEvent, barDuration time.Duration) []models.RallyEvent {
	if len(events) < 2 {
		return events
	}
	byPeak := make(map[int64][]models.RallyEvent)
	for _, e := range events {
		key := e.PeakTime(barDuration).Truncate(barDuration).Unix()
		byPeak[key] = append(byPeak[key], e)
	}

	out := make([]models.RallyEvent, 0, len(events))
	for _, group := range byPeak {
		sort.Slice(group, func(i, j int) bool { return group[i].EventTime.Before(group[j].EventTime) })
		keep := make([]bool, len(group))
		for i := range keep {
			keep[i] = true
		}
		for i := 0; i < len(group); i++ {
			if !keep[i] {
				continue
			}
			for j := i + 1; j < len(group); j++ {
				if !keep[j] {
					continue
				}
				barsApart := float64(group[j].EventTime.Sub(group[i].EventTime)) / float64(barDuration)
				gainDiff := abs(group[j].FutureMaxGainPct - group[i].FutureMaxGainPct)
				durDiff := group[j].BarsToPeak - group[i].BarsToPeak
				if durDiff < 0 {
					durDiff = -durDiff
				}
				if barsApart <= 3 && gainDiff < 0.01 && durDiff <= 2 {
					if group[j].FutureMaxGainPct > group[i].FutureMaxGainPct {
						keep[i] = false
						break
					}
					keep[j] = false
				}
			}
		}
		for i, k := range keep {
			if k {
				out = append(out, group[i])
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventTime.Before(out[j].EventTime) })
	return out
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
