package synth

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dayrec-dev/dayrec/pkg/apps"
	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// screenGroup is a contiguous run of screen evidence with per-app minutes.
type screenGroup struct {
	interval   timeline.TimeInterval
	appMinutes map[string]float64
}

func (g screenGroup) dominantApp() string {
	best, bestMin := "", -1.0
	for app, m := range g.appMinutes {
		if m > bestMin || (m == bestMin && app < best) {
			best, bestMin = app, m
		}
	}
	return best
}

func (g screenGroup) roundedAppMinutes() map[string]int {
	out := make(map[string]int, len(g.appMinutes))
	for app, m := range g.appMinutes {
		if r := int(math.Round(m)); r > 0 {
			out[app] = r
		}
	}
	return out
}

// groupScreen merges the day's screen evidence into contiguous groups,
// tolerating small idle gaps. Sessions are used verbatim; hourly evidence is
// reduced to one segment per hour anchored at the hour start, sized by the
// recorded use.
func (s *Synthesizer) groupScreen(st evidence.ScreenTime) []screenGroup {
	type segment struct {
		iv  timeline.TimeInterval
		app string
		min float64
	}
	var segments []segment

	switch st.Granularity {
	case evidence.GranularitySessions:
		for _, sess := range st.Sessions {
			segments = append(segments, segment{
				iv:  sess.Interval(),
				app: sess.App,
				min: float64(sess.Interval().Duration),
			})
		}
	case evidence.GranularityAppHourly:
		for _, row := range st.AppHourly {
			minutes := float64(row.Seconds) / 60.0
			if minutes < 1 {
				continue
			}
			dur := int(math.Min(60, math.Ceil(minutes)))
			segments = append(segments, segment{
				iv:  timeline.TimeInterval{StartMinutes: row.Hour * 60, Duration: dur},
				app: row.App,
				min: minutes,
			})
		}
	case evidence.GranularityAggregate:
		for h, secs := range st.Aggregate {
			minutes := float64(secs) / 60.0
			if minutes < 1 {
				continue
			}
			dur := int(math.Min(60, math.Ceil(minutes)))
			segments = append(segments, segment{
				iv:  timeline.TimeInterval{StartMinutes: h * 60, Duration: dur},
				app: evidence.AggregateApp,
				min: minutes,
			})
		}
	case evidence.GranularityNone:
		return nil
	}
	if len(segments) == 0 {
		return nil
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].iv.StartMinutes < segments[j].iv.StartMinutes
	})

	var groups []screenGroup
	current := screenGroup{
		interval:   segments[0].iv,
		appMinutes: map[string]float64{segments[0].app: segments[0].min},
	}
	for _, seg := range segments[1:] {
		if seg.iv.StartMinutes <= current.interval.End()+s.gapToleranceMinutes {
			if seg.iv.End() > current.interval.End() {
				current.interval.Duration = seg.iv.End() - current.interval.StartMinutes
			}
			current.appMinutes[seg.app] += seg.min
			continue
		}
		groups = append(groups, current)
		current = screenGroup{
			interval:   seg.iv,
			appMinutes: map[string]float64{seg.app: seg.min},
		}
	}
	return append(groups, current)
}

// DeriveBlocks turns evidence not claimed by any existing non-digital event
// into standalone actual blocks: screen-time groups, location dwells, and
// workouts. Blocks overlapping an existing non-digital event are skipped
// wholesale; no partial-overlap trimming happens here.
func (s *Synthesizer) DeriveBlocks(b *evidence.Bundle, existing []timeline.ScheduledEvent) []ActualBlock {
	var blocks []ActualBlock
	blocks = append(blocks, s.screenBlocks(b, existing)...)
	blocks = append(blocks, s.locationBlocks(b, existing)...)
	blocks = append(blocks, s.workoutBlocks(b, existing)...)
	sort.SliceStable(blocks, func(i, j int) bool {
		return blocks[i].Interval.StartMinutes < blocks[j].Interval.StartMinutes
	})
	return blocks
}

// claimed reports whether any existing non-digital event overlaps iv.
func claimed(iv timeline.TimeInterval, existing []timeline.ScheduledEvent) bool {
	for _, e := range existing {
		if !isDigital(e) && e.Interval.Overlaps(iv) {
			return true
		}
	}
	return false
}

func (s *Synthesizer) screenBlocks(b *evidence.Bundle, existing []timeline.ScheduledEvent) []ActualBlock {
	var blocks []ActualBlock
	for _, g := range s.groupScreen(b.Screen) {
		if g.interval.Duration < s.minBlockMinutes {
			continue
		}
		if claimed(g.interval, existing) {
			continue
		}
		top := g.dominantApp()
		blocks = append(blocks, ActualBlock{
			ID:          s.newID(),
			Title:       apps.FriendlyPhrase(top),
			Description: fmt.Sprintf("%d min of screen time", g.interval.Duration),
			Category:    timeline.CategoryDigital,
			Interval:    g.interval,
			Source:      SourceScreenTime,
			Confidence:  0.75,
			Evidence:    timeline.EvidenceSummary{AppMinutes: g.roundedAppMinutes()},
		})
	}
	return blocks
}

// placeCategoryRules routes a dwell's place category to an event category.
// Ordered: the first matching substring wins, so "home office" is work.
var placeCategoryRules = []struct {
	substr   string
	category timeline.Category
}{
	{"gym", timeline.CategoryHealth},
	{"fitness", timeline.CategoryHealth},
	{"office", timeline.CategoryWork},
	{"cowork", timeline.CategoryWork},
	{"restaurant", timeline.CategoryMeal},
	{"cafe", timeline.CategoryMeal},
	{"food", timeline.CategoryMeal},
	{"transit", timeline.CategoryTravel},
	{"station", timeline.CategoryTravel},
	{"airport", timeline.CategoryTravel},
	{"home", timeline.CategoryRoutine},
}

func dwellCategory(placeCategory string) timeline.Category {
	key := strings.ToLower(placeCategory)
	for _, rule := range placeCategoryRules {
		if strings.Contains(key, rule.substr) {
			return rule.category
		}
	}
	return timeline.CategoryFree
}

func (s *Synthesizer) locationBlocks(b *evidence.Bundle, existing []timeline.ScheduledEvent) []ActualBlock {
	rows := make([]evidence.LocationHour, len(b.Location))
	copy(rows, b.Location)
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Hour < rows[j].Hour })

	var blocks []ActualBlock
	flush := func(run []evidence.LocationHour) {
		if len(run) == 0 {
			return
		}
		iv := timeline.TimeInterval{
			StartMinutes: run[0].Hour * 60,
			Duration:     len(run) * 60,
		}
		if claimed(iv, existing) {
			return
		}
		samples := 0
		for _, r := range run {
			samples += r.Samples
		}
		conf := 0.5 + 0.5*math.Min(1, float64(samples)/float64(12*len(run)))
		blocks = append(blocks, ActualBlock{
			ID:          s.newID(),
			Title:       "At " + run[0].PlaceLabel,
			Description: fmt.Sprintf("%d location samples", samples),
			Category:    dwellCategory(run[0].PlaceCategory),
			Interval:    iv,
			Source:      SourceLocation,
			Confidence:  conf,
			Evidence: timeline.EvidenceSummary{
				PlaceLabel:    run[0].PlaceLabel,
				PlaceCategory: run[0].PlaceCategory,
			},
		})
	}

	var run []evidence.LocationHour
	for _, r := range rows {
		if len(run) > 0 &&
			(r.Hour != run[len(run)-1].Hour+1 || r.PlaceLabel != run[0].PlaceLabel) {
			flush(run)
			run = nil
		}
		run = append(run, r)
	}
	flush(run)
	return blocks
}

func (s *Synthesizer) workoutBlocks(b *evidence.Bundle, existing []timeline.ScheduledEvent) []ActualBlock {
	var blocks []ActualBlock
	for _, w := range b.Workouts {
		iv := w.Interval()
		if claimed(iv, existing) {
			continue
		}
		blocks = append(blocks, ActualBlock{
			ID:          s.newID(),
			Title:       apps.Display(w.Activity),
			Description: fmt.Sprintf("%d min %s", iv.Duration, w.Activity),
			Category:    timeline.CategoryHealth,
			Interval:    iv,
			Source:      SourceWorkout,
			Confidence:  0.9,
			Evidence:    timeline.EvidenceSummary{WorkoutType: w.Activity},
		})
	}
	return blocks
}
