package verify

import (
	"math"
	"testing"

	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

func block(id string, start, dur int, label, category string, samples int, conf float64) LocationBlock {
	return LocationBlock{
		ID:            id,
		Interval:      timeline.TimeInterval{StartMinutes: start, Duration: dur},
		PlaceLabel:    label,
		PlaceCategory: category,
		Samples:       samples,
		Confidence:    conf,
	}
}

func TestNoOverlapIsUnverified(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("work", timeline.CategoryWork, 540, 120)}
	blocks := []LocationBlock{block("evening", 1080, 120, "Home", "home", 10, 0.9)}

	results := VerifyPlannedAgainstBlocks(planned, blocks)
	if results["work"].Status != StatusUnverified {
		t.Errorf("status = %v, want unverified", results["work"].Status)
	}
}

func TestFullCoverageAtExpectedPlaceIsVerified(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("work", timeline.CategoryWork, 540, 120)}
	blocks := []LocationBlock{block("office", 480, 300, "HQ", "office", 12, 0.9)}

	res := results(t, planned, blocks)["work"]
	if res.Status != StatusVerified {
		t.Errorf("status = %v, want verified", res.Status)
	}
	// overlapRatio 1.0, samples 12/12 = 1.0, block confidence 0.9:
	// 0.6 + 0.2 + 0.18 = 0.98
	if math.Abs(res.Confidence-0.98) > 0.001 {
		t.Errorf("confidence = %v, want 0.98", res.Confidence)
	}
}

func TestWorkCoveredByGymIsContradicted(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("work", timeline.CategoryWork, 540, 120)}
	blocks := []LocationBlock{block("gym", 500, 200, "Iron Temple", "gym", 20, 0.8)}

	res := results(t, planned, blocks)["work"]
	if res.Status != StatusContradicted {
		t.Errorf("status = %v, want contradicted", res.Status)
	}
	if res.LocationMatch {
		t.Error("gym should not match a work event")
	}
}

func TestPartialOverlapWithMatch(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("lunch", timeline.CategoryMeal, 720, 60)}
	// Only 20 of 60 minutes covered, but at a matching place.
	blocks := []LocationBlock{block("cafe", 700, 40, "Cafe Luna", "cafe", 6, 0.7)}

	res := results(t, planned, blocks)["lunch"]
	if res.Status != StatusPartial {
		t.Errorf("status = %v, want partial", res.Status)
	}
	if res.OverlapMinutes != 20 {
		t.Errorf("overlap = %d, want 20", res.OverlapMinutes)
	}
}

func TestCategoryWithoutExpectationAlwaysMatches(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("errand", timeline.CategoryFree, 900, 60)}
	blocks := []LocationBlock{block("mall", 880, 120, "Galleria", "shopping", 9, 0.8)}

	res := results(t, planned, blocks)["errand"]
	if !res.LocationMatch {
		t.Error("categories without an expectation entry must always match")
	}
	if res.Status != StatusVerified {
		t.Errorf("status = %v, want verified (full coverage, nothing to contradict)", res.Status)
	}
}

func TestDominantBlockIsLargestOverlap(t *testing.T) {
	planned := []timeline.ScheduledEvent{plannedEvent("work", timeline.CategoryWork, 540, 120)}
	blocks := []LocationBlock{
		block("short", 540, 20, "Cafe Luna", "cafe", 5, 0.6),
		block("long", 560, 100, "HQ", "office", 12, 0.9),
	}

	res := results(t, planned, blocks)["work"]
	if res.DominantBlockID != "long" {
		t.Errorf("dominant block = %q, want long", res.DominantBlockID)
	}
	if !res.LocationMatch {
		t.Error("dominant office block should match work")
	}
}

func results(t *testing.T, planned []timeline.ScheduledEvent, blocks []LocationBlock) map[string]BlockResult {
	t.Helper()
	out := VerifyPlannedAgainstBlocks(planned, blocks)
	for id, r := range out {
		if r.Confidence < 0 || r.Confidence > 1 {
			t.Errorf("confidence out of bounds for %s: %v", id, r.Confidence)
		}
	}
	return out
}
