package verify

// Status is the verification verdict for one planned event.
type Status string

// Verdicts. The timing statuses (early/late/shortened/extended) override the
// confidence-based ones when location evidence shows the event happened but
// shifted; contradicted and distracted override everything below them.
const (
	StatusVerified          Status = "verified"
	StatusMostlyVerified    Status = "mostly_verified"
	StatusPartiallyVerified Status = "partially_verified"
	StatusPartial           Status = "partial"
	StatusUnverified        Status = "unverified"
	StatusContradicted      Status = "contradicted"
	StatusDistracted        Status = "distracted"
	StatusEarly             Status = "early"
	StatusLate              Status = "late"
	StatusShortened         Status = "shortened"
	StatusExtended          Status = "extended"
)

// Severity grades a discrepancy. Timing gaps are minor, duration gaps
// moderate, location contradictions major.
type Severity string

// Discrepancy severities.
const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeverityMajor    Severity = "major"
)

// Discrepancy is one audit-trail mismatch between plan and evidence.
type Discrepancy struct {
	Type     string   `json:"type"`
	Expected string   `json:"expected"`
	Actual   string   `json:"actual"`
	Severity Severity `json:"severity"`
}

// EvidenceCheck records how one evidence type scored, for audit.
type EvidenceCheck struct {
	Type   EvidenceType `json:"type"`
	Match  bool         `json:"match"`
	Detail string       `json:"detail"`
	Weight float64      `json:"weight"`
	Earned float64      `json:"earned"`
}

// Report is the structured audit record accompanying every result.
type Report struct {
	Evidence      []EvidenceCheck `json:"evidence,omitempty"`
	Discrepancies []Discrepancy   `json:"discrepancies,omitempty"`
}

// LocationEvidence summarizes the location facts behind a verdict.
type LocationEvidence struct {
	PlaceLabel     string `json:"place_label,omitempty"`
	PlaceCategory  string `json:"place_category,omitempty"`
	Match          bool   `json:"match"`
	OverlapMinutes int    `json:"overlap_minutes"`
	Samples        int    `json:"samples"`
}

// ScreenEvidence summarizes the screen-time facts behind a verdict.
type ScreenEvidence struct {
	TotalMinutes       int            `json:"total_minutes"`
	DistractionMinutes int            `json:"distraction_minutes"`
	TopApp             string         `json:"top_app,omitempty"`
	AppMinutes         map[string]int `json:"app_minutes,omitempty"`
}

// HealthEvidence summarizes the workout facts behind a verdict.
type HealthEvidence struct {
	Found          bool   `json:"found"`
	Activity       string `json:"activity,omitempty"`
	OverlapMinutes int    `json:"overlap_minutes,omitempty"`
}

// Result is the per-planned-event verdict.
type Result struct {
	Status      Status   `json:"status"`
	Confidence  float64  `json:"confidence"`
	Reason      string   `json:"reason"`
	Suggestions []string `json:"suggestions,omitempty"`

	Location *LocationEvidence `json:"location,omitempty"`
	Screen   *ScreenEvidence   `json:"screen,omitempty"`
	Health   *HealthEvidence   `json:"health,omitempty"`

	EarlyMinutes     int `json:"early_minutes,omitempty"`
	LateMinutes      int `json:"late_minutes,omitempty"`
	ShortenedMinutes int `json:"shortened_minutes,omitempty"`
	ExtendedMinutes  int `json:"extended_minutes,omitempty"`

	Report Report `json:"report"`
}

// Thresholds are the confidence cutoffs for verified/partial/unverified.
type Thresholds struct {
	VerifiedMin float64
	PartialMin  float64
}

// Threshold presets.
var (
	DefaultThresholds = Thresholds{VerifiedMin: 0.7, PartialMin: 0.3}
	StrictThresholds  = Thresholds{VerifiedMin: 0.85, PartialMin: 0.5}
	LenientThresholds = Thresholds{VerifiedMin: 0.55, PartialMin: 0.2}
)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
