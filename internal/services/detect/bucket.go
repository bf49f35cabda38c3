package detect

import "fmt"

// DefaultBucketThresholds are the gain-fraction boundaries for the standard
// magnitude buckets: 5-10%, 10-20%, 20-30%, 30%+.
var DefaultBucketThresholds = []float64{0.05, 0.10, 0.20, 0.30}

// RallyBucket maps a gain fraction to its magnitude bucket label. Thresholds
// must be ascending. Gains below the first threshold yield "", gains at or
// above the last threshold map to the open-ended top bucket.
func RallyBucket(gainPct float64, thresholds []float64) string {
	if len(thresholds) == 0 || gainPct < thresholds[0] {
		return ""
	}
	for i := 0; i < len(thresholds)-1; i++ {
		if gainPct < thresholds[i+1] {
			return bucketLabel(thresholds[i], thresholds[i+1])
		}
	}
	return fmt.Sprintf("%dp_plus", int(thresholds[len(thresholds)-1]*100))
}

func bucketLabel(lo, hi float64) string {
	return fmt.Sprintf("%dp_%dp", int(lo*100), int(hi*100))
}
