package detect

import "RallyScan/internal/domain/models"

// ScanExtrema flags local dips (low equals the window min) and peaks (high
// equals the window max) over a centered window of 2*radius+1 bars.
//
// Bars within radius of either boundary are never flagged: without context on
// both sides there is no reliable confirmation of a turn. Ties are all
// flagged; downstream stages must tolerate repeated equal extrema.
//
// Uses monotonic deques for the sliding min/max, so the scan is O(n).
func ScanExtrema(candles []models.Candle, radius int) []models.ExtremaFlags {
	n := len(candles)
	flags := make([]models.ExtremaFlags, n)
	if radius <= 0 || n < 2*radius+1 {
		return flags
	}

	lows := make([]float64, n)
	highs := make([]float64, n)
	for i := range candles {
		lows[i] = candles[i].Low
		highs[i] = candles[i].High
	}

	winMin := slidingWindow(lows, radius, func(a, b float64) bool { return a <= b })
	winMax := slidingWindow(highs, radius, func(a, b float64) bool { return a >= b })

	for i := radius; i < n-radius; i++ {
		flags[i].IsDip = lows[i] == winMin[i]
		flags[i].IsPeak = highs[i] == winMax[i]
	}
	return flags
}

// slidingWindow computes, for every index i, the extreme value of
// xs[i-radius..i+radius] under the given dominance order. Entries whose
// window crosses a boundary are left as the partial-window extreme; callers
// must not read them.
func slidingWindow(xs []float64, radius int, dominates func(a, b float64) bool) []float64 {
	n := len(xs)
	out := make([]float64, n)
	deque := make([]int, 0, 2*radius+1) // indexes, extreme value at the front

	for i := 0; i < n; i++ {
		// window for center c covers [c-radius, c+radius]; index i enters the
		// window of center c = i - radius
		for len(deque) > 0 && dominates(xs[i], xs[deque[len(deque)-1]]) {
			deque = deque[:len(deque)-1]
		}
		deque = append(deque, i)

		c := i - radius
		if c < 0 {
			continue
		}
		for deque[0] < c-radius {
			deque = deque[1:]
		}
		out[c] = xs[deque[0]]
	}
	return out
}

// DipIndexes returns the indexes flagged as dips.
func DipIndexes(flags []models.ExtremaFlags) []int {
	out := make([]int, 0, len(flags)/8)
	for i := range flags {
		if flags[i].IsDip {
			out = append(out, i)
		}
	}
	return out
}

// PeakIndexes returns the indexes flagged as peaks.
func PeakIndexes(flags []models.ExtremaFlags) []int {
	out := make([]int, 0, len(flags)/8)
	for i := range flags {
		if flags[i].IsPeak {
			out = append(out, i)
		}
	}
	return out
}
