package verify

import (
	"fmt"

	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// refineTiming adjusts the verdict when location evidence shows the event
// happened but shifted in time. Only meaningful location evidence is used:
// the rule must consult location and the dominant place must have matched.
// The overrides are checked in priority order: early, late, shortened,
// extended. When none fires, verified is softened to mostly_verified (the
// evidence window wiggled but stayed inside the variance) and partial to
// partially_verified.
func (v *Verifier) refineTiming(e timeline.ScheduledEvent, b *evidence.Bundle, rule Rule, res *Result) {
	switch res.Status {
	case StatusVerified, StatusPartial:
	default:
		return
	}
	if res.Location == nil || !res.Location.Match {
		return
	}

	actualStart, actualEnd, ok := coveredWindow(b, e.Interval, rule.PlaceCategories)
	if !ok {
		if res.Status == StatusPartial {
			res.Status = StatusPartiallyVerified
		}
		return
	}

	variance := v.timingVariance
	plannedStart := e.Interval.StartMinutes
	plannedEnd := e.Interval.End()
	actualDur := actualEnd - actualStart

	switch {
	case plannedStart-actualStart > variance:
		res.Status = StatusEarly
		res.EarlyMinutes = plannedStart - actualStart
		res.Reason = fmt.Sprintf("started about %d minutes early", res.EarlyMinutes)
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "timing",
			Expected: fmt.Sprintf("start at minute %d", plannedStart),
			Actual:   fmt.Sprintf("evidence from minute %d", actualStart),
			Severity: SeverityMinor,
		})
	case actualStart-plannedStart > variance:
		res.Status = StatusLate
		res.LateMinutes = actualStart - plannedStart
		res.Reason = fmt.Sprintf("started about %d minutes late", res.LateMinutes)
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "timing",
			Expected: fmt.Sprintf("start at minute %d", plannedStart),
			Actual:   fmt.Sprintf("evidence from minute %d", actualStart),
			Severity: SeverityMinor,
		})
	case e.Interval.Duration-actualDur > variance:
		res.Status = StatusShortened
		res.ShortenedMinutes = e.Interval.Duration - actualDur
		res.Reason = fmt.Sprintf("about %d minutes shorter than planned", res.ShortenedMinutes)
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "duration",
			Expected: fmt.Sprintf("%d minutes", e.Interval.Duration),
			Actual:   fmt.Sprintf("%d minutes", actualDur),
			Severity: SeverityModerate,
		})
	case actualDur-e.Interval.Duration > variance:
		res.Status = StatusExtended
		res.ExtendedMinutes = actualDur - e.Interval.Duration
		res.Reason = fmt.Sprintf("ran about %d minutes over", res.ExtendedMinutes)
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "duration",
			Expected: fmt.Sprintf("%d minutes", e.Interval.Duration),
			Actual:   fmt.Sprintf("%d minutes", actualDur),
			Severity: SeverityModerate,
		})
	case res.Status == StatusVerified && res.Confidence >= 0.85 &&
		(actualStart != plannedStart || actualEnd != plannedEnd):
		// Right place, small wiggle: confidently verified, just not to
		// the minute.
		res.Status = StatusMostlyVerified
	case res.Status == StatusPartial:
		res.Status = StatusPartiallyVerified
	}
}

// coveredWindow finds the contiguous run of matching location hours around
// the event: the earliest and latest minute the user's (matching) location
// evidence covers, extending outward from the event's own hours.
func coveredWindow(b *evidence.Bundle, iv timeline.TimeInterval, accepted []string) (start, end int, ok bool) {
	matching := make(map[int]bool)
	for _, l := range b.Location {
		if placeMatches(l, accepted) {
			matching[l.Hour] = true
		}
	}
	if len(matching) == 0 {
		return 0, 0, false
	}

	// Seed with any matching hour overlapping the event.
	seed := -1
	for h := range 24 {
		if !matching[h] {
			continue
		}
		hourIv := timeline.TimeInterval{StartMinutes: h * 60, Duration: 60}
		if hourIv.Overlaps(iv) {
			seed = h
			break
		}
	}
	if seed < 0 {
		return 0, 0, false
	}

	first, last := seed, seed
	for first > 0 && matching[first-1] {
		first--
	}
	for last < 23 && matching[last+1] {
		last++
	}
	return first * 60, (last + 1) * 60, true
}
