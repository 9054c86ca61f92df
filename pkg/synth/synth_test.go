package synth

import (
	"fmt"
	"strings"
	"testing"

	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

func testSynth(opts ...Option) *Synthesizer {
	n := 0
	base := []Option{WithIDFunc(func() string {
		n++
		return fmt.Sprintf("blk-%d", n)
	})}
	return NewSynthesizer(append(base, opts...)...)
}

func event(id string, cat timeline.Category, start, dur int) timeline.ScheduledEvent {
	return timeline.ScheduledEvent{
		ID:       id,
		Title:    id,
		Category: cat,
		Interval: timeline.TimeInterval{StartMinutes: start, Duration: dur},
		Meta:     timeline.Meta{Source: timeline.SourceUser},
	}
}

func sessionBundle(sessions ...evidence.AppSession) *evidence.Bundle {
	return evidence.NewBundle(nil, evidence.ScreenFromSessions(sessions), nil)
}

func TestAnnotateAddsDistractionDescription(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{event("deep-work", timeline.CategoryWork, 540, 120)}
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 545, EndMinutes: 580})

	out := s.Annotate(events, b)
	if len(out) != 1 {
		t.Fatalf("got %d events, want 1", len(out))
	}
	want := "Distracted: 35 min on Youtube"
	if out[0].Description != want {
		t.Errorf("description = %q, want %q", out[0].Description, want)
	}
	// Input must be untouched.
	if events[0].Description != "" {
		t.Errorf("input event mutated: %q", events[0].Description)
	}
}

func TestAnnotateKeepsExistingDescription(t *testing.T) {
	s := testSynth()
	e := event("deep-work", timeline.CategoryWork, 540, 120)
	e.Description = "Quarterly report"
	b := sessionBundle(evidence.AppSession{App: "reddit", StartMinutes: 600, EndMinutes: 615})

	out := s.Annotate([]timeline.ScheduledEvent{e}, b)
	if !strings.HasPrefix(out[0].Description, "Quarterly report") {
		t.Errorf("original description lost: %q", out[0].Description)
	}
	if !strings.Contains(out[0].Description, "Distracted: 15 min on Reddit") {
		t.Errorf("missing distraction suffix: %q", out[0].Description)
	}
}

func TestAnnotateIgnoresShortOverlap(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{event("deep-work", timeline.CategoryWork, 540, 120)}
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 545, EndMinutes: 550})

	out := s.Annotate(events, b)
	if out[0].Description != "" {
		t.Errorf("5 min of screen time should not annotate, got %q", out[0].Description)
	}
}

func TestAnnotateSkipsDigitalEvents(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{event("gaming", timeline.CategoryDigital, 1200, 60)}
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 1200, EndMinutes: 1260})

	out := s.Annotate(events, b)
	if out[0].Description != "" {
		t.Errorf("digital events are their own screen time, got %q", out[0].Description)
	}
}

func TestSleepOnsetDelayShrinksSleepAndEmitsBlock(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{event("sleep", timeline.CategorySleep, 1320, 120)}
	// Scrolling from 21:40 through 22:30; sleep was planned for 22:00.
	b := sessionBundle(evidence.AppSession{App: "tiktok", StartMinutes: 1300, EndMinutes: 1350})

	out := s.Annotate(events, b)
	if len(out) != 2 {
		t.Fatalf("got %d events, want sleep + screen block", len(out))
	}

	sleep := out[0]
	if sleep.Interval.StartMinutes != 1350 || sleep.Interval.Duration != 90 {
		t.Errorf("sleep interval = [%d,+%d), want [1350,+90)", sleep.Interval.StartMinutes, sleep.Interval.Duration)
	}
	if !strings.Contains(sleep.Description, "Fell asleep about 30 min late") {
		t.Errorf("sleep description = %q", sleep.Description)
	}
	if !strings.Contains(sleep.Description, "TikTok scrolling") {
		t.Errorf("sleep description should name the app phrase: %q", sleep.Description)
	}

	blk := out[1]
	if blk.Interval.StartMinutes != 1320 || blk.Interval.Duration != 30 {
		t.Errorf("screen block = [%d,+%d), want [1320,+30)", blk.Interval.StartMinutes, blk.Interval.Duration)
	}
	if blk.Meta.Kind != timeline.KindScreenTime || blk.Meta.Derivation != timeline.DerivationScreenTime {
		t.Errorf("screen block meta = %+v", blk.Meta)
	}
	if blk.Meta.Confidence != 0.75 {
		t.Errorf("screen block confidence = %v, want 0.75", blk.Meta.Confidence)
	}
}

func TestSleepOnsetDelayKeepsUserPrecedence(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{event("sleep", timeline.CategorySleep, 1320, 120)}
	b := sessionBundle(evidence.AppSession{App: "tiktok", StartMinutes: 1300, EndMinutes: 1350})

	out := s.Annotate(events, b)
	sleep := out[0]
	if sleep.Meta.Source != timeline.SourceActualAdjust {
		t.Errorf("adjusted sleep source = %q, want actual_adjust", sleep.Meta.Source)
	}
	// The adjustment must not demote the user's event in overlap resolution.
	if got := timeline.PriorityFor(sleep); got != timeline.PriorityUserEdited {
		t.Errorf("adjusted sleep priority = %v, want user_edited", got)
	}
}

func TestSleepOnsetDelaySuppressesBlockOnCollision(t *testing.T) {
	s := testSynth()
	events := []timeline.ScheduledEvent{
		event("reading", timeline.CategoryRoutine, 1300, 40),
		event("sleep", timeline.CategorySleep, 1320, 120),
	}
	b := sessionBundle(evidence.AppSession{App: "tiktok", StartMinutes: 1310, EndMinutes: 1350})

	out := s.Annotate(events, b)
	if len(out) != 2 {
		t.Fatalf("got %d events, want 2 (no extra block when the slot is claimed)", len(out))
	}
	var sleep timeline.ScheduledEvent
	for _, e := range out {
		if e.ID == "sleep" {
			sleep = e
		}
	}
	if sleep.Interval.StartMinutes != 1350 {
		t.Errorf("sleep should still shrink: start = %d, want 1350", sleep.Interval.StartMinutes)
	}
}

func TestGroupScreenMergesWithinGapTolerance(t *testing.T) {
	s := testSynth()
	st := evidence.ScreenFromSessions([]evidence.AppSession{
		{App: "youtube", StartMinutes: 600, EndMinutes: 625},
		{App: "reddit", StartMinutes: 630, EndMinutes: 650},
		{App: "youtube", StartMinutes: 700, EndMinutes: 720},
	})

	groups := s.groupScreen(st)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	first := groups[0]
	if first.interval.StartMinutes != 600 || first.interval.End() != 650 {
		t.Errorf("merged group = [%d,%d), want [600,650)", first.interval.StartMinutes, first.interval.End())
	}
	if first.dominantApp() != "youtube" {
		t.Errorf("dominant app = %q, want youtube", first.dominantApp())
	}
	if groups[1].interval.StartMinutes != 700 {
		t.Errorf("second group starts at %d, want 700", groups[1].interval.StartMinutes)
	}
}

func TestGroupScreenHourlyAnchorsAtHourStart(t *testing.T) {
	s := testSynth(WithGapTolerance(0))
	st := evidence.ScreenFromAppHourly([]evidence.AppHourlyRow{
		{App: "instagram", Hour: 20, Seconds: 1800},
	})

	groups := s.groupScreen(st)
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.interval.StartMinutes != 1200 || g.interval.Duration != 30 {
		t.Errorf("group = [%d,+%d), want [1200,+30)", g.interval.StartMinutes, g.interval.Duration)
	}
	if g.roundedAppMinutes()["instagram"] != 30 {
		t.Errorf("app minutes = %v, want instagram:30", g.roundedAppMinutes())
	}
}

func TestDeriveBlocksScreenGroup(t *testing.T) {
	s := testSynth()
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 840, EndMinutes: 900})

	blocks := s.DeriveBlocks(b, nil)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	blk := blocks[0]
	if blk.Title != "YouTube rabbit hole" {
		t.Errorf("title = %q", blk.Title)
	}
	if blk.Category != timeline.CategoryDigital || blk.Source != SourceScreenTime {
		t.Errorf("category/source = %v/%v", blk.Category, blk.Source)
	}
	if blk.ID != "blk-1" {
		t.Errorf("id = %q, want deterministic blk-1", blk.ID)
	}

	ev := blk.Event()
	if ev.Meta.Kind != timeline.KindScreenTime || ev.Meta.Derivation != timeline.DerivationScreenTime {
		t.Errorf("converted event meta = %+v", ev.Meta)
	}
}

func TestDeriveBlocksDropsShortGroups(t *testing.T) {
	s := testSynth(WithMinBlockMinutes(30))
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 840, EndMinutes: 865})

	if blocks := s.DeriveBlocks(b, nil); len(blocks) != 0 {
		t.Errorf("25 min group under a 30 min floor should be dropped, got %d", len(blocks))
	}
}

func TestDeriveBlocksSkipsClaimedTime(t *testing.T) {
	s := testSynth()
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 840, EndMinutes: 900})
	existing := []timeline.ScheduledEvent{event("meeting", timeline.CategoryMeeting, 850, 60)}

	if blocks := s.DeriveBlocks(b, existing); len(blocks) != 0 {
		t.Errorf("screen time under an existing meeting must not become a block, got %d", len(blocks))
	}
}

func TestDeriveBlocksDigitalEventsDoNotClaim(t *testing.T) {
	s := testSynth()
	b := sessionBundle(evidence.AppSession{App: "youtube", StartMinutes: 840, EndMinutes: 900})
	existing := []timeline.ScheduledEvent{event("gaming", timeline.CategoryDigital, 850, 60)}

	if blocks := s.DeriveBlocks(b, existing); len(blocks) != 1 {
		t.Errorf("digital events should not block derivation, got %d blocks", len(blocks))
	}
}

func TestDeriveBlocksLocationDwell(t *testing.T) {
	s := testSynth()
	b := evidence.NewBundle([]evidence.LocationHour{
		{Hour: 9, PlaceLabel: "HQ", PlaceCategory: "office", Samples: 12},
		{Hour: 10, PlaceLabel: "HQ", PlaceCategory: "office", Samples: 12},
		{Hour: 12, PlaceLabel: "Cafe Luna", PlaceCategory: "cafe", Samples: 6},
	}, evidence.ScreenTime{}, nil)

	blocks := s.DeriveBlocks(b, nil)
	if len(blocks) != 2 {
		t.Fatalf("got %d blocks, want 2 dwell runs", len(blocks))
	}

	hq := blocks[0]
	if hq.Interval.StartMinutes != 540 || hq.Interval.Duration != 120 {
		t.Errorf("HQ dwell = [%d,+%d), want [540,+120)", hq.Interval.StartMinutes, hq.Interval.Duration)
	}
	if hq.Category != timeline.CategoryWork {
		t.Errorf("office dwell category = %v, want work", hq.Category)
	}
	// Full sample density: confidence saturates at 1.0.
	if hq.Confidence != 1.0 {
		t.Errorf("HQ confidence = %v, want 1.0", hq.Confidence)
	}

	cafe := blocks[1]
	if cafe.Category != timeline.CategoryMeal {
		t.Errorf("cafe dwell category = %v, want meal", cafe.Category)
	}
	if cafe.Evidence.PlaceLabel != "Cafe Luna" {
		t.Errorf("place label = %q", cafe.Evidence.PlaceLabel)
	}
}

func TestDeriveBlocksWorkout(t *testing.T) {
	s := testSynth()
	b := evidence.NewBundle(nil, evidence.ScreenTime{}, []evidence.Workout{
		{StartMinutes: 420, EndMinutes: 465, Activity: "running"},
	})

	blocks := s.DeriveBlocks(b, nil)
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	w := blocks[0]
	if w.Category != timeline.CategoryHealth || w.Source != SourceWorkout {
		t.Errorf("category/source = %v/%v", w.Category, w.Source)
	}
	if w.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", w.Confidence)
	}
	if w.Evidence.WorkoutType != "running" {
		t.Errorf("workout type = %q", w.Evidence.WorkoutType)
	}
}

func TestDeriveBlocksSortedByStart(t *testing.T) {
	s := testSynth()
	b := evidence.NewBundle(
		[]evidence.LocationHour{{Hour: 18, PlaceLabel: "Iron Temple", PlaceCategory: "gym", Samples: 10}},
		evidence.ScreenFromSessions([]evidence.AppSession{{App: "youtube", StartMinutes: 600, EndMinutes: 640}}),
		[]evidence.Workout{{StartMinutes: 420, EndMinutes: 465, Activity: "running"}},
	)

	blocks := s.DeriveBlocks(b, nil)
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks, want 3", len(blocks))
	}
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Interval.StartMinutes < blocks[i-1].Interval.StartMinutes {
			t.Errorf("blocks out of order at %d: %d < %d", i,
				blocks[i].Interval.StartMinutes, blocks[i-1].Interval.StartMinutes)
		}
	}
}
