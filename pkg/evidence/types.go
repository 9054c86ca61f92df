// Package evidence models the day-scoped sensor facts the reconciliation
// engine consumes: location dwell history, phone screen-time, and health
// workouts. A Bundle is a read-only snapshot supplied by an external
// evidence source; malformed rows are skipped at construction, never
// reported as errors.
package evidence

import "github.com/dayrec-dev/dayrec/pkg/timeline"

// LocationHour is one hourly location aggregate: during hour Hour the user
// was (mostly) at the given place, backed by Samples location fixes.
type LocationHour struct {
	Hour          int    `json:"hour"`
	PlaceID       string `json:"place_id,omitempty"`
	PlaceLabel    string `json:"place_label"`
	PlaceCategory string `json:"place_category"`
	Samples       int    `json:"samples"`
}

// Interval returns the minute interval the hour bucket covers.
func (l LocationHour) Interval() timeline.TimeInterval {
	return timeline.TimeInterval{StartMinutes: l.Hour * 60, Duration: 60}
}

// AppSession is a precise per-app screen session in minute coordinates.
type AppSession struct {
	App          string `json:"app"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
}

// Interval returns the session's minute interval.
func (s AppSession) Interval() timeline.TimeInterval {
	return timeline.TimeInterval{StartMinutes: s.StartMinutes, Duration: s.EndMinutes - s.StartMinutes}
}

// AppHourlyRow is the coarser fallback: seconds of use of one app within one
// hour bucket.
type AppHourlyRow struct {
	App     string `json:"app"`
	Hour    int    `json:"hour"`
	Seconds int    `json:"seconds"`
}

// Workout is one health workout row.
type Workout struct {
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Activity     string `json:"activity"`
}

// Interval returns the workout's minute interval.
func (w Workout) Interval() timeline.TimeInterval {
	return timeline.TimeInterval{StartMinutes: w.StartMinutes, Duration: w.EndMinutes - w.StartMinutes}
}

// Bundle aggregates all evidence for one user-day. It is read-only to the
// engine: nothing in this module mutates a bundle after construction.
type Bundle struct {
	Location []LocationHour `json:"location"`
	Screen   ScreenTime     `json:"screen"`
	Workouts []Workout      `json:"workouts"`
}

// NewBundle assembles a bundle, dropping rows that cannot possibly be valid
// for a single local day (out-of-range hours, inverted intervals).
func NewBundle(location []LocationHour, screen ScreenTime, workouts []Workout) *Bundle {
	b := &Bundle{Screen: screen}
	for _, l := range location {
		if l.Hour < 0 || l.Hour > 23 {
			continue
		}
		b.Location = append(b.Location, l)
	}
	for _, w := range workouts {
		if w.EndMinutes <= w.StartMinutes || w.StartMinutes < 0 || w.EndMinutes > 1440 {
			continue
		}
		b.Workouts = append(b.Workouts, w)
	}
	return b
}

// LocationOverlapping returns the location rows whose hour bucket overlaps
// the given interval.
func (b *Bundle) LocationOverlapping(iv timeline.TimeInterval) []LocationHour {
	var out []LocationHour
	for _, l := range b.Location {
		if l.Interval().Overlaps(iv) {
			out = append(out, l)
		}
	}
	return out
}

// WorkoutOverlapping returns the first workout overlapping the interval, or
// false when none does.
func (b *Bundle) WorkoutOverlapping(iv timeline.TimeInterval) (Workout, bool) {
	best := Workout{}
	bestOverlap := 0
	for _, w := range b.Workouts {
		if ov := w.Interval().OverlapMinutes(iv); ov > bestOverlap {
			best = w
			bestOverlap = ov
		}
	}
	return best, bestOverlap > 0
}

// DominantPlace aggregates the location rows overlapping iv and returns the
// place with the most samples, along with the total overlap minutes and
// total sample count across all overlapping rows.
func (b *Bundle) DominantPlace(iv timeline.TimeInterval) (place LocationHour, overlapMinutes, totalSamples int, ok bool) {
	samplesByPlace := make(map[string]int)
	rowByPlace := make(map[string]LocationHour)
	for _, l := range b.LocationOverlapping(iv) {
		key := l.PlaceLabel + "|" + l.PlaceCategory
		samplesByPlace[key] += l.Samples
		rowByPlace[key] = l
		overlapMinutes += l.Interval().OverlapMinutes(iv)
		totalSamples += l.Samples
	}
	bestSamples, bestKey := -1, ""
	for key, n := range samplesByPlace {
		// Tie-break on key so map iteration order can't leak into results.
		if n > bestSamples || (n == bestSamples && key < bestKey) {
			bestSamples, bestKey = n, key
			place = rowByPlace[key]
			ok = true
		}
	}
	return place, overlapMinutes, totalSamples, ok
}
