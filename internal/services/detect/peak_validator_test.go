package detect

import "testing"

func TestValidatePeakFiltersThenMaximizes(t *testing.T) {
	candles := flatCandles(20, 100)
	// spiky peak: high 120, then price collapses
	candles[5].High = 120
	candles[6].Close = 100
	candles[7].Close = 100
	// lower but well-held peak: high 115, closes hold near it
	candles[8].High = 115
	candles[9].Close = 112
	candles[10].Close = 112

	v, ok := ValidatePeak(candles, 0, []int{5, 8}, ValidatorParams{
		MinRetention:  0.9,
		RetentionBars: 2,
		Lookforward:   48,
	})
	if !ok {
		t.Fatalf("expected a validated peak")
	}
	if v.PeakIndex != 8 {
		t.Fatalf("retention filter should prefer held peak 8 over spike 5, got %d", v.PeakIndex)
	}
	if !v.RetentionConfirmed {
		t.Fatalf("selected peak should be retention confirmed")
	}
	if v.TotalCandidates != 2 || v.RetentionValid != 1 {
		t.Fatalf("unexpected counts: %+v", v)
	}
}

func TestValidatePeakSoftFallback(t *testing.T) {
	candles := flatCandles(20, 100)
	candles[5].High = 120
	candles[8].High = 115
	// every close after both peaks is far below: retention fails everywhere
	for i := 6; i < 20; i++ {
		candles[i].Close = 50
	}

	v, ok := ValidatePeak(candles, 0, []int{5, 8}, ValidatorParams{
		MinRetention:  0.9,
		RetentionBars: 2,
		Lookforward:   48,
	})
	if !ok {
		t.Fatalf("soft filters must never kill detection")
	}
	if v.PeakIndex != 5 {
		t.Fatalf("fallback set should pick the highest peak 5, got %d", v.PeakIndex)
	}
	if v.RetentionConfirmed {
		t.Fatalf("fallback selection is not retention confirmed")
	}
}

func TestValidatePeakNoFutureCandidates(t *testing.T) {
	candles := flatCandles(20, 100)
	if _, ok := ValidatePeak(candles, 10, []int{3, 5}, ValidatorParams{Lookforward: 48}); ok {
		t.Fatalf("peaks behind the dip must not validate")
	}
	if _, ok := ValidatePeak(candles, 2, []int{15}, ValidatorParams{Lookforward: 5}); ok {
		t.Fatalf("peaks beyond lookforward must not validate")
	}
}

func TestValidatePeakVolumeVacuousWithoutData(t *testing.T) {
	candles := flatCandles(20, 100)
	candles[5].High = 110
	candles[6].Close = 108
	candles[7].Close = 108

	v, ok := ValidatePeak(candles, 0, []int{5}, ValidatorParams{
		VolumeThreshold: 1.5,
		MinRetention:    0.9,
		RetentionBars:   2,
		Lookforward:     48,
	})
	if !ok || !v.VolumeConfirmed {
		t.Fatalf("absent vol_rel must not count against the peak: %+v", v)
	}
}

func TestValidatePeakVolumeFilter(t *testing.T) {
	candles := flatCandles(20, 100)
	// weak-volume peak
	candles[5].High = 120
	candles[4].VolRel = 0.2
	candles[5].VolRel = 0.2
	candles[6].VolRel = 0.2
	// confirmed-volume peak
	candles[8].High = 115
	candles[7].VolRel = 2.0
	candles[8].VolRel = 2.0
	candles[9].VolRel = 2.0
	for i := 6; i < 20; i++ {
		candles[i].Close = 112
	}

	v, ok := ValidatePeak(candles, 0, []int{5, 8}, ValidatorParams{
		VolumeThreshold: 1.5,
		MinRetention:    0.5,
		RetentionBars:   2,
		Lookforward:     48,
	})
	if !ok {
		t.Fatalf("expected a validated peak")
	}
	if v.PeakIndex != 8 || !v.VolumeConfirmed {
		t.Fatalf("volume pass should drop the weak peak: %+v", v)
	}
}
