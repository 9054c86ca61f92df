// Package verify scores planned events against a day's evidence bundle and
// produces verification verdicts. Two verifiers live here: the full
// evidence-weighted verifier driven by a per-category rule catalog, and a
// deliberately coarse location-only classifier for callers that don't need
// multi-evidence scoring.
package verify

import "github.com/dayrec-dev/dayrec/pkg/timeline"

// EvidenceType names one kind of evidence a rule can consult.
type EvidenceType string

// Evidence types.
const (
	EvidenceLocation EvidenceType = "location"
	EvidenceScreen   EvidenceType = "screen_time"
	EvidenceHealth   EvidenceType = "health"
)

// WildcardApp in a rule's DistractionApps flags any phone use at all as a
// distraction (used for sleep and similar categories).
const WildcardApp = "*"

// Rule is the static per-category verification configuration. A rule with
// an empty VerifyWith list is permissive: events in its category always come
// back unverified with zero discrepancies, never an error.
type Rule struct {
	// PlaceCategories are accepted place category/label substrings,
	// matched case-insensitively against the dominant place.
	PlaceCategories []string
	// LocationRequired makes missing location evidence count against the
	// event, and a mismatching dominant place a hard contradiction.
	LocationRequired bool

	// ScreenExpected means phone use during the event is normal (digital
	// and comm categories). When false, screen time is budgeted by the
	// ceilings below.
	ScreenExpected bool
	// AllowedApps don't count toward the distraction budget even if the
	// global table classifies them as distractions.
	AllowedApps []string
	// DistractionApps extend the global distraction table for this
	// category. The WildcardApp entry makes every app a distraction.
	DistractionApps []string
	// MaxScreenMinutes caps total overlapping screen use before credit is
	// withheld (only meaningful when ScreenExpected is false).
	MaxScreenMinutes int
	// MaxDistractionMinutes caps distraction app minutes before the event
	// is flagged as distracted.
	MaxDistractionMinutes int

	// WorkoutRequired demands an overlapping workout (health category).
	WorkoutRequired bool
	// WorkoutContradicts marks an overlapping workout as suspicious for
	// this category (e.g. sleep).
	WorkoutContradicts bool

	// VerifyWith lists the evidence types this rule scores.
	VerifyWith []EvidenceType
	// Weights are per-evidence-type weights; a missing entry weighs 1.
	Weights map[EvidenceType]float64
}

// weight returns the rule's weight for an evidence type.
func (r Rule) weight(et EvidenceType) float64 {
	if w, exists := r.Weights[et]; exists {
		return w
	}
	return 1
}

// Catalog maps categories to their rules. Built once at process start and
// treated as immutable afterward.
type Catalog map[timeline.Category]Rule

// RuleFor looks up the category's rule, falling back to the permissive
// unknown rule when the category has no entry.
func (c Catalog) RuleFor(cat timeline.Category) Rule {
	if r, exists := c[cat]; exists {
		return r
	}
	return Rule{} // permissive: VerifyWith is empty
}

// DefaultCatalog returns the stock rule set. Faith shares the routine rule
// shape: light expectations, no mandatory evidence.
func DefaultCatalog() Catalog {
	routine := Rule{
		MaxScreenMinutes:      20,
		MaxDistractionMinutes: 10,
		VerifyWith:            []EvidenceType{EvidenceScreen},
	}
	return Catalog{
		timeline.CategoryWork: {
			PlaceCategories:       []string{"office", "cowork", "workplace"},
			LocationRequired:      true,
			AllowedApps:           []string{"slack", "gmail", "calendar", "docs", "meet", "zoom"},
			MaxScreenMinutes:      45,
			MaxDistractionMinutes: 15,
			VerifyWith:            []EvidenceType{EvidenceLocation, EvidenceScreen},
			Weights:               map[EvidenceType]float64{EvidenceLocation: 0.6, EvidenceScreen: 0.4},
		},
		timeline.CategoryMeeting: {
			PlaceCategories:       []string{"office", "cowork", "workplace", "conference"},
			AllowedApps:           []string{"meet", "zoom", "teams"},
			MaxScreenMinutes:      30,
			MaxDistractionMinutes: 10,
			VerifyWith:            []EvidenceType{EvidenceLocation, EvidenceScreen},
			Weights:               map[EvidenceType]float64{EvidenceLocation: 0.5, EvidenceScreen: 0.5},
		},
		timeline.CategoryHealth: {
			PlaceCategories:       []string{"gym", "fitness", "studio", "pool", "park", "trail"},
			WorkoutRequired:       true,
			MaxScreenMinutes:      15,
			MaxDistractionMinutes: 10,
			VerifyWith:            []EvidenceType{EvidenceLocation, EvidenceScreen, EvidenceHealth},
			Weights: map[EvidenceType]float64{
				EvidenceLocation: 0.3,
				EvidenceScreen:   0.2,
				EvidenceHealth:   0.5,
			},
		},
		timeline.CategoryMeal: {
			PlaceCategories:       []string{"restaurant", "cafe", "food", "home", "kitchen"},
			MaxScreenMinutes:      25,
			MaxDistractionMinutes: 15,
			VerifyWith:            []EvidenceType{EvidenceLocation, EvidenceScreen},
			Weights:               map[EvidenceType]float64{EvidenceLocation: 0.6, EvidenceScreen: 0.4},
		},
		timeline.CategorySleep: {
			DistractionApps:       []string{WildcardApp},
			MaxScreenMinutes:      10,
			MaxDistractionMinutes: 10,
			WorkoutContradicts:    true,
			VerifyWith:            []EvidenceType{EvidenceScreen, EvidenceHealth},
			Weights:               map[EvidenceType]float64{EvidenceScreen: 0.8, EvidenceHealth: 0.2},
		},
		timeline.CategoryTravel: {
			PlaceCategories: []string{"transit", "station", "airport", "highway", "road"},
			ScreenExpected:  true,
			VerifyWith:      []EvidenceType{EvidenceLocation, EvidenceScreen},
			Weights:         map[EvidenceType]float64{EvidenceLocation: 0.7, EvidenceScreen: 0.3},
		},
		timeline.CategorySocial: {
			PlaceCategories:       []string{"restaurant", "bar", "cafe", "park", "venue"},
			MaxScreenMinutes:      30,
			MaxDistractionMinutes: 20,
			VerifyWith:            []EvidenceType{EvidenceLocation, EvidenceScreen},
			Weights:               map[EvidenceType]float64{EvidenceLocation: 0.5, EvidenceScreen: 0.5},
		},
		timeline.CategoryFamily: {
			MaxScreenMinutes:      30,
			MaxDistractionMinutes: 15,
			VerifyWith:            []EvidenceType{EvidenceScreen},
		},
		timeline.CategoryComm: {
			ScreenExpected: true,
			AllowedApps:    []string{"mail", "gmail", "outlook", "slack", "whatsapp", "messages"},
			VerifyWith:     []EvidenceType{EvidenceScreen},
		},
		timeline.CategoryDigital: {
			// Leisure screen time: every app is fair game.
			ScreenExpected: true,
			AllowedApps:    []string{WildcardApp},
			VerifyWith:     []EvidenceType{EvidenceScreen},
		},
		timeline.CategoryFinance: {
			MaxScreenMinutes:      60,
			MaxDistractionMinutes: 20,
			VerifyWith:            []EvidenceType{EvidenceScreen},
		},
		timeline.CategoryRoutine: routine,
		timeline.CategoryFaith:   routine,
		// Free time and unknown carry no expectations at all.
		timeline.CategoryFree:    {},
		timeline.CategoryUnknown: {},
	}
}
