// Package hierarchy prunes short-timeframe rally events to those contained
// in a larger-timeframe rally's span. Short-timeframe rallies detected in
// isolation are noisy; requiring a structural parent move is the pipeline's
// primary false-positive reduction.
package hierarchy

import (
	"sort"
	"time"

	"RallyScan/internal/domain/models"
	domrepo "RallyScan/internal/domain/repository"
)

// FilterByParents keeps the child events whose start time falls inside a
// parent window [parent.EventTime, parent.EventTime + BarsToPeak*parentBar],
// attaching the parent link. Parents are scanned in chronological order and
// the first containing window wins, so a child never belongs to more than
// one parent even when windows overlap. Children without a parent are
// dropped. O(children × parents); event volumes are small enough that no
// indexing is attempted.
func FilterByParents(children, parents []models.RallyEvent, parentBar time.Duration) []models.RallyEvent {
	if len(children) == 0 || len(parents) == 0 {
		return nil
	}

	ordered := make([]models.RallyEvent, len(parents))
	copy(ordered, parents)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].EventTime.Before(ordered[j].EventTime) })

	out := make([]models.RallyEvent, 0, len(children))
	for _, child := range children {
		for id, parent := range ordered {
			start := parent.EventTime
			end := parent.PeakTime(parentBar)
			if !child.EventTime.Before(start) && !child.EventTime.After(end) {
				child.ParentID = id
				child.ParentStart = start
				out = append(out, child)
				break
			}
		}
	}
	return out
}

// BuildHierarchy applies the containment filter twice (4h over 1h, then the
// surviving 1h set over 15m) and propagates each 15m survivor's 4h
// grandparent link through its 1h parent. The 4h events pass through
// unchanged as the master timeline.
func BuildHierarchy(r4h, r1h, r15m []models.RallyEvent) (out4h, out1h, out15m []models.RallyEvent) {
	out4h = r4h
	out1h = FilterByParents(r1h, r4h, domrepo.BarDuration(domrepo.TF4h))
	out15m = FilterByParents(r15m, out1h, domrepo.BarDuration(domrepo.TF1h))

	// out1h is already 1h-chronological, so a 15m child's ParentID indexes
	// straight into it.
	for i := range out15m {
		pid := out15m[i].ParentID
		if pid < 0 || pid >= len(out1h) {
			continue
		}
		out15m[i].GrandparentID = out1h[pid].ParentID
		out15m[i].GrandparentStart = out1h[pid].ParentStart
	}
	return out4h, out1h, out15m
}

// Stats compares original and filtered event sets per level.
func Stats(orig4h, orig1h, orig15m, filt4h, filt1h, filt15m []models.RallyEvent) []models.HierarchyStats {
	return []models.HierarchyStats{
		levelStats(string(domrepo.TF4h), orig4h, filt4h),
		levelStats(string(domrepo.TF1h), orig1h, filt1h),
		levelStats(string(domrepo.TF15m), orig15m, filt15m),
	}
}

func levelStats(tf string, orig, filt []models.RallyEvent) models.HierarchyStats {
	s := models.HierarchyStats{
		Timeframe:   tf,
		Original:    len(orig),
		Filtered:    len(filt),
		AvgGainOrig: avgGain(orig),
		AvgGainFilt: avgGain(filt),
	}
	if len(orig) > 0 {
		s.RetentionPct = float64(len(filt)) / float64(len(orig)) * 100
	}
	return s
}

func avgGain(events []models.RallyEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	var sum float64
	for _, e := range events {
		sum += e.FutureMaxGainPct
	}
	return sum / float64(len(events))
}
