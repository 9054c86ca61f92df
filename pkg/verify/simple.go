package verify

import (
	"sort"
	"strings"

	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// LocationBlock is a resolved location dwell block, the only input the
// simple verifier needs.
type LocationBlock struct {
	ID            string                `json:"id"`
	Interval      timeline.TimeInterval `json:"interval"`
	PlaceLabel    string                `json:"place_label"`
	PlaceCategory string                `json:"place_category"`
	Samples       int                   `json:"samples"`
	Confidence    float64               `json:"confidence"`
}

// BlockResult is the coarse 4-state verdict of the simple verifier.
type BlockResult struct {
	Status          Status  `json:"status"`
	Confidence      float64 `json:"confidence"`
	OverlapMinutes  int     `json:"overlap_minutes"`
	LocationMatch   bool    `json:"location_match"`
	DominantBlockID string  `json:"dominant_block_id,omitempty"`
}

// expectedPlaceSubstrings is the lightweight category->place expectation
// table for the simple verifier. Categories without an entry always match:
// there is nothing to contradict.
var expectedPlaceSubstrings = map[timeline.Category][]string{
	timeline.CategoryWork:    {"office", "cowork", "workplace"},
	timeline.CategoryMeeting: {"office", "cowork", "conference"},
	timeline.CategoryHealth:  {"gym", "fitness", "studio", "pool", "park"},
	timeline.CategoryMeal:    {"restaurant", "cafe", "food", "home"},
	timeline.CategoryTravel:  {"transit", "station", "airport"},
	timeline.CategorySocial:  {"restaurant", "bar", "cafe", "venue", "park"},
}

// VerifyPlannedAgainstBlocks is the coarse location-only classifier: for
// each planned event it checks how much of the event the location blocks
// cover and whether the dominant block's place fits the category. Used where
// full multi-evidence verification is unnecessary.
func VerifyPlannedAgainstBlocks(planned []timeline.ScheduledEvent, blocks []LocationBlock) map[string]BlockResult {
	results := make(map[string]BlockResult, len(planned))
	for _, e := range planned {
		results[e.ID] = verifyAgainstBlocks(e, blocks)
	}
	return results
}

func verifyAgainstBlocks(e timeline.ScheduledEvent, blocks []LocationBlock) BlockResult {
	if e.Interval.Duration <= 0 {
		return BlockResult{Status: StatusUnverified}
	}

	type overlap struct {
		block   LocationBlock
		minutes int
	}
	var overlapping []overlap
	total := 0
	for _, blk := range blocks {
		if m := blk.Interval.OverlapMinutes(e.Interval); m > 0 {
			overlapping = append(overlapping, overlap{block: blk, minutes: m})
			total += m
		}
	}
	if len(overlapping) == 0 {
		return BlockResult{Status: StatusUnverified}
	}
	sort.SliceStable(overlapping, func(i, j int) bool {
		return overlapping[i].minutes > overlapping[j].minutes
	})
	dominant := overlapping[0]

	ratio := float64(total) / float64(e.Interval.Duration)
	if ratio > 1 {
		ratio = 1
	}
	match := blockPlaceMatches(e.Category, dominant.block)

	samples := float64(dominant.block.Samples) / 12.0
	if samples > 1 {
		samples = 1
	}
	confidence := clamp01(0.6*ratio + 0.2*samples + 0.2*dominant.block.Confidence)

	status := StatusUnverified
	switch {
	case !match && ratio >= 0.5:
		status = StatusContradicted
	case match && ratio >= 0.6:
		status = StatusVerified
	case ratio >= 0.3 || match:
		// Any positive overlap with a matching place still earns partial.
		status = StatusPartial
	}

	return BlockResult{
		Status:          status,
		Confidence:      confidence,
		OverlapMinutes:  total,
		LocationMatch:   match,
		DominantBlockID: dominant.block.ID,
	}
}

func blockPlaceMatches(cat timeline.Category, blk LocationBlock) bool {
	expected, exists := expectedPlaceSubstrings[cat]
	if !exists {
		return true
	}
	label := strings.ToLower(blk.PlaceLabel)
	category := strings.ToLower(blk.PlaceCategory)
	for _, sub := range expected {
		if strings.Contains(category, sub) || strings.Contains(label, sub) {
			return true
		}
	}
	return false
}
