package timeline

// Category classifies what an event is about. The set is fixed; free-text
// categories from upstream are normalized to CategoryUnknown.
type Category string

// Event categories.
const (
	CategoryWork    Category = "work"
	CategoryHealth  Category = "health"
	CategoryMeal    Category = "meal"
	CategoryRoutine Category = "routine"
	CategoryFaith   Category = "faith"
	CategorySleep   Category = "sleep"
	CategoryFamily  Category = "family"
	CategorySocial  Category = "social"
	CategoryTravel  Category = "travel"
	CategoryFinance Category = "finance"
	CategoryComm    Category = "comm"
	CategoryDigital Category = "digital"
	CategoryMeeting Category = "meeting"
	CategoryUnknown Category = "unknown"
	CategoryFree    Category = "free"
)

// ParseCategory normalizes a free-text category string.
func ParseCategory(s string) Category {
	switch Category(s) {
	case CategoryWork, CategoryHealth, CategoryMeal, CategoryRoutine,
		CategoryFaith, CategorySleep, CategoryFamily, CategorySocial,
		CategoryTravel, CategoryFinance, CategoryComm, CategoryDigital,
		CategoryMeeting, CategoryFree:
		return Category(s)
	default:
		return CategoryUnknown
	}
}

// Source records where an event came from.
type Source string

// Event sources.
const (
	SourceUnset        Source = ""
	SourceUser         Source = "user"
	SourceSystem       Source = "system"
	SourceEvidence     Source = "evidence"
	SourceActualAdjust Source = "actual_adjust"
)

// Well-known values for Meta.Kind. Kind is free text upstream; these are the
// values the priority classifier cares about.
const (
	KindScreenTime    = "screen_time"
	KindSleepSchedule = "sleep_schedule"
	KindUnknownGap    = "unknown_gap"
	KindPatternGap    = "pattern_gap"
)

// DerivationKind marks events synthesized from evidence. It is set at
// creation time by whichever component derives the event, replacing the old
// habit of sniffing ID prefixes (which is still honored as a fallback, see
// PriorityFor).
type DerivationKind string

// Derivation kinds.
const (
	DerivationNone       DerivationKind = ""
	DerivationActual     DerivationKind = "derived_actual"
	DerivationScreenTime DerivationKind = "screen_time"
	DerivationLocation   DerivationKind = "location"
	DerivationWorkout    DerivationKind = "workout"
)

// EvidenceSummary carries the sensor facts that justified an event. All
// fields are optional.
type EvidenceSummary struct {
	PlaceLabel    string         `json:"place_label,omitempty"`
	PlaceCategory string         `json:"place_category,omitempty"`
	AppMinutes    map[string]int `json:"app_minutes,omitempty"`
	WorkoutType   string         `json:"workout_type,omitempty"`
}

// Meta is the opaque record riding along with every event.
type Meta struct {
	Source     Source           `json:"source,omitempty"`
	Kind       string           `json:"kind,omitempty"`
	Derivation DerivationKind   `json:"derivation,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
	Evidence   *EvidenceSummary `json:"evidence,omitempty"`
}

// ScheduledEvent is a planned or evidence-derived block of time. Events with
// Duration <= 0 are invalid and are dropped before they reach the resolver.
type ScheduledEvent struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    Category     `json:"category"`
	Interval    TimeInterval `json:"interval"`
	Meta        Meta         `json:"meta"`
}
