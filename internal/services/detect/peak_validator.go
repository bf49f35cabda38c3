package detect

import "RallyScan/internal/domain/models"

// ValidatorParams controls the multi-pass peak refinement.
type ValidatorParams struct {
	VolumeThreshold float64 // min mean vol_rel in the peak's ±1 bar window
	MinRetention    float64 // min mean post-peak close / peak high
	RetentionBars   int     // bars inspected after the peak for retention
	Lookforward     int     // furthest candidate peak considered after the dip
}

// PeakValidation carries the refinement outcome for the selected peak.
type PeakValidation struct {
	PeakIndex          int
	PeakPrice          float64
	TotalCandidates    int
	VolumeValid        int
	RetentionValid     int
	RetentionScore     float64
	VolumeConfirmed    bool
	RetentionConfirmed bool
}

// ValidatePeak refines the candidate peaks ahead of a dip in three passes:
// volume confirmation, post-peak retention, then selection of the highest
// survivor. Each filter pass is soft: if it would eliminate every candidate
// it falls back to the previous set, so an inconclusive heuristic can never
// kill detection on its own. Filtering before maximizing is deliberate: it
// stops a single unconfirmed spike from beating a slightly lower but
// well-held top.
//
// Returns false only when no candidate peak lies within Lookforward of the
// dip.
func ValidatePeak(candles []models.Candle, dip int, candidatePeaks []int, p ValidatorParams) (PeakValidation, bool) {
	future := make([]int, 0, len(candidatePeaks))
	for _, pk := range candidatePeaks {
		if pk > dip && pk <= dip+p.Lookforward {
			future = append(future, pk)
		}
	}
	if len(future) == 0 {
		return PeakValidation{}, false
	}

	volumeValid := softFilter(future, func(pk int) bool {
		return peakVolumeConfirmed(candles, pk, p.VolumeThreshold)
	})

	retention := make(map[int]float64, len(volumeValid))
	retentionValid := softFilter(volumeValid, func(pk int) bool {
		r := peakRetention(candles, pk, p.RetentionBars)
		retention[pk] = r
		return r >= p.MinRetention
	})

	best := retentionValid[0]
	for _, pk := range retentionValid[1:] {
		if candles[pk].High > candles[best].High {
			best = pk
		}
	}

	// Confirmation flags reflect the selected peak's own filter results, not
	// membership in a possibly fallen-back set.
	return PeakValidation{
		PeakIndex:          best,
		PeakPrice:          candles[best].High,
		TotalCandidates:    len(future),
		VolumeValid:        len(volumeValid),
		RetentionValid:     len(retentionValid),
		RetentionScore:     retention[best],
		VolumeConfirmed:    peakVolumeConfirmed(candles, best, p.VolumeThreshold),
		RetentionConfirmed: retention[best] >= p.MinRetention,
	}, true
}

// softFilter applies keep to candidates, falling back to the unfiltered set
// when nothing survives.
func softFilter(candidates []int, keep func(int) bool) []int {
	kept := make([]int, 0, len(candidates))
	for _, c := range candidates {
		if keep(c) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return candidates
	}
	return kept
}

// peakVolumeConfirmed checks mean vol_rel over the peak bar ±1. Bars without
// the feature make the pass vacuously true: absence of data is not evidence
// against the peak.
func peakVolumeConfirmed(candles []models.Candle, peak int, threshold float64) bool {
	lo := peak - 1
	if lo < 0 {
		lo = 0
	}
	hi := peak + 1
	if hi > len(candles)-1 {
		hi = len(candles) - 1
	}
	var sum float64
	var n int
	for i := lo; i <= hi; i++ {
		if candles[i].VolRel <= 0 {
			continue
		}
		sum += candles[i].VolRel
		n++
	}
	if n == 0 {
		return true
	}
	return sum/float64(n) >= threshold
}

// peakRetention computes mean close over the bars after the peak divided by
// the peak high. A peak at the end of the series retains nothing.
func peakRetention(candles []models.Candle, peak, bars int) float64 {
	if peak >= len(candles)-1 || candles[peak].High <= 0 {
		return 0
	}
	end := peak + bars
	if end > len(candles)-1 {
		end = len(candles) - 1
	}
	var sum float64
	var n int
	for i := peak + 1; i <= end; i++ {
		sum += candles[i].Close
		n++
	}
	if n == 0 {
		return 0
	}
	return (sum / float64(n)) / candles[peak].High
}
