package detect

import (
	"sort"

	"RallyScan/internal/domain/models"
)

// MatchParams controls dip-to-peak pairing.
type MatchParams struct {
	MaxLookahead int       // furthest peak considered, in bars after the dip
	MinGain      float64   // minimum gain fraction to qualify as a rally
	Thresholds   []float64 // bucket boundaries; nil uses DefaultBucketThresholds
}

// rawMatch is a dip-peak pair before deduplication.
type rawMatch struct {
	dipIdx   int
	peakIdx  int
	gain     float64
	dipLow   float64 // for "lowest dip wins" dedup
	volOK    bool
	retScore float64
}

// MatchRallies pairs each dip with the peak of maximum gain within the
// lookahead cap, drops pairs below the minimum gain, and deduplicates dips
// that share a peak (a ragged bottom): the dip with the lowest low survives,
// ties broken by earliest index. Empty dip or peak lists yield an empty
// result.
//
// Gain is measured from close at the dip to high at the peak for both
// detector variants.
func MatchRallies(symbol, tf string, candles []models.Candle, dips, peaks []int, p MatchParams) []models.RallyEvent {
	raw := make([]rawMatch, 0, len(dips))
	for _, d := range dips {
		dipClose := candles[d].Close
		if dipClose <= 0 {
			continue
		}
		bestPeak, bestGain := -1, 0.0
		for _, pk := range peaks {
			if pk <= d || pk > d+p.MaxLookahead {
				continue
			}
			gain := (candles[pk].High - dipClose) / dipClose
			if gain > bestGain {
				bestGain = gain
				bestPeak = pk
			}
		}
		if bestPeak < 0 || bestGain < p.MinGain {
			continue
		}
		raw = append(raw, rawMatch{
			dipIdx:  d,
			peakIdx: bestPeak,
			gain:    bestGain,
			dipLow:  candles[d].Low,
		})
	}
	return buildEvents(symbol, tf, candles, dedupByPeak(raw), p.Thresholds)
}

// dedupByPeak keeps, per shared peak, the match with the lowest dip low
// (best theoretical entry); equal lows fall back to the earliest dip.
func dedupByPeak(raw []rawMatch) []rawMatch {
	best := make(map[int]rawMatch, len(raw))
	for _, m := range raw {
		cur, ok := best[m.peakIdx]
		if !ok || m.dipLow < cur.dipLow || (m.dipLow == cur.dipLow && m.dipIdx < cur.dipIdx) {
			best[m.peakIdx] = m
		}
	}
	out := make([]rawMatch, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].dipIdx < out[j].dipIdx })
	return out
}

// buildEvents attaches buckets and emits events sorted by event index.
// Matches whose gain falls below the first bucket threshold are dropped.
func buildEvents(symbol, tf string, candles []models.Candle, matches []rawMatch, thresholds []float64) []models.RallyEvent {
	if thresholds == nil {
		thresholds = DefaultBucketThresholds
	}
	events := make([]models.RallyEvent, 0, len(matches))
	for _, m := range matches {
		bucket := RallyBucket(m.gain, thresholds)
		if bucket == "" {
			continue
		}
		events = append(events, models.RallyEvent{
			Symbol:           symbol,
			Timeframe:        tf,
			EventIndex:       m.dipIdx,
			EventTime:        candles[m.dipIdx].Bucket,
			PeakIndex:        m.peakIdx,
			BarsToPeak:       m.peakIdx - m.dipIdx,
			FutureMaxGainPct: m.gain,
			RallyBucket:      bucket,
			VolumeConfirmed:  m.volOK,
			RetentionScore:   m.retScore,
			ParentID:         models.NoParent,
			GrandparentID:    models.NoParent,
		})
	}
	return events
}
