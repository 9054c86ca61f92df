// Package timeline provides the shared event data model and the
// priority-based interval resolver that turns a mixed set of planned and
// evidence-derived events into a single non-overlapping day timeline.
//
// All reasoning happens in local-day minute coordinates (0-1439). Days are
// pre-localized by the caller; no timezone math happens here.
package timeline

// TimeInterval is a half-open interval [StartMinutes, StartMinutes+Duration)
// measured in minutes since local midnight.
type TimeInterval struct {
	StartMinutes int `json:"start_minutes"`
	Duration     int `json:"duration"`
}

// End returns the exclusive end minute of the interval.
func (t TimeInterval) End() int {
	return t.StartMinutes + t.Duration
}

// Overlaps reports whether two intervals share at least one minute.
// Touching intervals (End == Start) do not overlap.
func (t TimeInterval) Overlaps(o TimeInterval) bool {
	return t.StartMinutes < o.End() && o.StartMinutes < t.End()
}

// OverlapMinutes returns the number of minutes shared by both intervals,
// or zero when they don't overlap.
func (t TimeInterval) OverlapMinutes(o TimeInterval) int {
	start := t.StartMinutes
	if o.StartMinutes > start {
		start = o.StartMinutes
	}
	end := t.End()
	if o.End() < end {
		end = o.End()
	}
	if end <= start {
		return 0
	}
	return end - start
}

// Contains reports whether o lies entirely within t.
func (t TimeInterval) Contains(o TimeInterval) bool {
	return t.StartMinutes <= o.StartMinutes && o.End() <= t.End()
}
