package models

import "time"

// NoParent is the ParentID/GrandparentID value for an unlinked event.
const NoParent = -1

// RallyEvent is a detected dip-to-peak upward move on a single timeframe.
// Events are immutable after detection except for the parent-link fields,
// which the hierarchy filter attaches.
type RallyEvent struct {
	Symbol    string
	Timeframe string

	EventIndex       int
	EventTime        time.Time
	PeakIndex        int
	BarsToPeak       int
	FutureMaxGainPct float64
	RallyBucket      string

	// Validation metadata from the refined detector. Zero values when the
	// oracle detector produced the event.
	VolumeConfirmed bool
	RetentionScore  float64

	// Parent links attached by the hierarchy filter. IDs index into the
	// parent event slice in chronological order; NoParent when unset.
	// A 15m event carries both its direct 1h parent and the 4h grandparent
	// propagated through it.
	ParentID         int
	ParentStart      time.Time
	GrandparentID    int
	GrandparentStart time.Time
}

// HasParent reports whether the hierarchy filter linked this event to a
// parent-timeframe rally.
func (e *RallyEvent) HasParent() bool { return e.ParentID != NoParent }

// PeakTime returns the event's peak timestamp given the bar duration of
// its own timeframe.
func (e *RallyEvent) PeakTime(barDuration time.Duration) time.Time {
	return e.EventTime.Add(time.Duration(e.BarsToPeak) * barDuration)
}

// HierarchyStats summarizes how many events per timeframe survived the
// containment filter, with average gains before and after.
type HierarchyStats struct {
	Timeframe    string
	Original     int
	Filtered     int
	RetentionPct float64
	AvgGainOrig  float64
	AvgGainFilt  float64
}
