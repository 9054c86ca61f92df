package verify

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/dayrec-dev/dayrec/pkg/apps"
	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// distractionNoiseFloorMinutes is the minimum distraction minutes before an
// event can be flagged as distracted, regardless of how low a rule sets
// MaxDistractionMinutes. Keeps a stray one-minute glance from flipping a
// verdict.
const distractionNoiseFloorMinutes = 5

// Verifier scores planned events against evidence bundles. It holds only
// immutable configuration, so one Verifier may be shared across days and
// goroutines.
type Verifier struct {
	catalog        Catalog
	overrides      apps.Overrides
	thresholds     Thresholds
	timingVariance int
	logger         *slog.Logger
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithCatalog replaces the default rule catalog.
func WithCatalog(c Catalog) Option {
	return func(v *Verifier) { v.catalog = c }
}

// WithOverrides supplies per-user app classification overrides.
func WithOverrides(ov apps.Overrides) Option {
	return func(v *Verifier) { v.overrides = ov }
}

// WithThresholds replaces the default confidence thresholds.
func WithThresholds(t Thresholds) Option {
	return func(v *Verifier) { v.thresholds = t }
}

// WithTimingVariance sets how many minutes an event may shift before the
// timing statuses kick in.
func WithTimingVariance(minutes int) Option {
	return func(v *Verifier) {
		if minutes > 0 {
			v.timingVariance = minutes
		}
	}
}

// WithLogger sets the verifier's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) { v.logger = logger }
}

// NewVerifier returns a verifier with the default catalog and thresholds.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{
		catalog:        DefaultCatalog(),
		thresholds:     DefaultThresholds,
		timingVariance: 30,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyEvent scores one planned event against the day's evidence. It never
// fails: categories without rules come back unverified, and all confidence
// values are clamped into [0,1].
func (v *Verifier) VerifyEvent(e timeline.ScheduledEvent, b *evidence.Bundle) Result {
	rule := v.catalog.RuleFor(e.Category)
	if len(rule.VerifyWith) == 0 {
		return Result{
			Status:     StatusUnverified,
			Confidence: 0,
			Reason:     fmt.Sprintf("no verification rules for category %q", e.Category),
		}
	}

	res := Result{}
	var earned, maxScore float64
	var contradicted, distracted bool

	for _, et := range rule.VerifyWith {
		switch et {
		case EvidenceLocation:
			w, got, hard := v.scoreLocation(e, b, rule, &res)
			maxScore += w
			earned += got
			contradicted = contradicted || hard
		case EvidenceScreen:
			w, got, flagged := v.scoreScreen(e, b, rule, &res)
			maxScore += w
			earned += got
			distracted = distracted || flagged
		case EvidenceHealth:
			w, got := v.scoreHealth(e, b, rule, &res)
			maxScore += w
			earned += got
		}
	}

	// A category whose rules contributed no applicable weight can never be
	// verified; guard the division too.
	if maxScore == 0 {
		res.Status = StatusUnverified
		res.Reason = "no applicable evidence for this event"
		return res
	}
	res.Confidence = clamp01(earned / maxScore)

	switch {
	case contradicted:
		res.Status = StatusContradicted
		res.Reason = contradictionReason(res)
	case distracted:
		res.Status = StatusDistracted
		res.Reason = distractionReason(res)
	case res.Confidence >= v.thresholds.VerifiedMin:
		res.Status = StatusVerified
		res.Reason = "evidence supports the planned event"
	case res.Confidence >= v.thresholds.PartialMin:
		res.Status = StatusPartial
		res.Reason = "evidence partially supports the planned event"
	default:
		res.Status = StatusUnverified
		res.Reason = "not enough supporting evidence"
	}

	v.refineTiming(e, b, rule, &res)

	v.logger.Debug("verified event",
		"event", e.ID,
		"category", e.Category,
		"status", res.Status,
		"confidence", res.Confidence)
	return res
}

// scoreLocation awards the location weight. Full weight for a matching
// dominant place, ~30% partial credit for a mismatch when location isn't
// mandatory, and a hard contradiction when it is.
func (v *Verifier) scoreLocation(e timeline.ScheduledEvent, b *evidence.Bundle, rule Rule, res *Result) (weight, earned float64, contradicted bool) {
	w := rule.weight(EvidenceLocation)
	place, overlapMin, samples, found := b.DominantPlace(e.Interval)

	if !found {
		check := EvidenceCheck{Type: EvidenceLocation, Detail: "no location data"}
		if !rule.LocationRequired {
			// Not required and nothing recorded: the weight isn't
			// applicable, so absence doesn't drag confidence down.
			res.Report.Evidence = append(res.Report.Evidence, check)
			return 0, 0, false
		}
		check.Weight = w
		res.Report.Evidence = append(res.Report.Evidence, check)
		return w, 0, false
	}

	match := placeMatches(place, rule.PlaceCategories)
	res.Location = &LocationEvidence{
		PlaceLabel:     place.PlaceLabel,
		PlaceCategory:  place.PlaceCategory,
		Match:          match,
		OverlapMinutes: overlapMin,
		Samples:        samples,
	}

	check := EvidenceCheck{
		Type:   EvidenceLocation,
		Match:  match,
		Weight: w,
		Detail: fmt.Sprintf("dominant place %q (%s), %d overlap minutes", place.PlaceLabel, place.PlaceCategory, overlapMin),
	}

	switch {
	case match:
		check.Earned = w
	case rule.LocationRequired:
		// Required location, evidence present, mismatch: contradiction.
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "location",
			Expected: strings.Join(rule.PlaceCategories, "/"),
			Actual:   place.PlaceCategory,
			Severity: SeverityMajor,
		})
		contradicted = true
	default:
		check.Earned = w * 0.3
	}

	res.Report.Evidence = append(res.Report.Evidence, check)
	return w, check.Earned, contradicted
}

// scoreScreen awards the screen weight and decides the distracted flag.
func (v *Verifier) scoreScreen(e timeline.ScheduledEvent, b *evidence.Bundle, rule Rule, res *Result) (weight, earned float64, distracted bool) {
	w := rule.weight(EvidenceScreen)
	perApp := b.Screen.AppOverlapMinutes(e.Interval)

	total := 0.0
	distractionMin := 0.0
	appMinutes := make(map[string]int, len(perApp))
	topApp, topMin := "", 0.0
	for app, m := range perApp {
		total += m
		appMinutes[app] = int(math.Round(m))
		if m > topMin || (m == topMin && app < topApp) {
			topApp, topMin = app, m
		}
		if v.isDistraction(app, rule) {
			distractionMin += m
		}
	}

	if total > 0 {
		res.Screen = &ScreenEvidence{
			TotalMinutes:       int(math.Round(total)),
			DistractionMinutes: int(math.Round(distractionMin)),
			TopApp:             topApp,
			AppMinutes:         appMinutes,
		}
	}

	check := EvidenceCheck{Type: EvidenceScreen, Weight: w}
	switch {
	case distractionMin > float64(rule.MaxDistractionMinutes) && distractionMin >= distractionNoiseFloorMinutes:
		check.Detail = fmt.Sprintf("%.0f distraction minutes (limit %d)", distractionMin, rule.MaxDistractionMinutes)
		distracted = true
		res.Suggestions = append(res.Suggestions,
			fmt.Sprintf("Put %s away during %s", apps.Display(topApp), e.Title))
	case rule.ScreenExpected && total > 0:
		check.Match = true
		check.Earned = w
		check.Detail = fmt.Sprintf("expected screen use present (%.0f min)", total)
	case rule.ScreenExpected:
		check.Detail = "expected screen use but found none"
	case total <= float64(rule.MaxScreenMinutes):
		check.Match = true
		check.Earned = w
		check.Detail = fmt.Sprintf("screen use within budget (%.0f of %d min)", total, rule.MaxScreenMinutes)
	default:
		check.Earned = w * 0.3
		check.Detail = fmt.Sprintf("screen use over budget (%.0f of %d min)", total, rule.MaxScreenMinutes)
		res.Suggestions = append(res.Suggestions,
			fmt.Sprintf("Reduce phone use during %s", e.Title))
	}

	res.Report.Evidence = append(res.Report.Evidence, check)
	return w, check.Earned, distracted
}

// isDistraction classifies one app for this rule: allow-list first (a
// wildcard allows everything), then the rule's distraction list (a wildcard
// flags everything), then the global table with per-user overrides.
func (v *Verifier) isDistraction(app string, rule Rule) bool {
	key := apps.Normalize(app)
	for _, a := range rule.AllowedApps {
		if a == WildcardApp || apps.Normalize(a) == key {
			return false
		}
	}
	for _, d := range rule.DistractionApps {
		if d == WildcardApp || apps.Normalize(d) == key {
			return true
		}
	}
	return apps.Classify(app, v.overrides) == apps.ClassDistraction
}

// scoreHealth awards the health weight. The weight only applies when a
// workout is required or one actually overlapped; a quiet health ledger on a
// work event shouldn't cost confidence.
func (v *Verifier) scoreHealth(e timeline.ScheduledEvent, b *evidence.Bundle, rule Rule, res *Result) (weight, earned float64) {
	w := rule.weight(EvidenceHealth)
	wk, found := b.WorkoutOverlapping(e.Interval)
	if found {
		res.Health = &HealthEvidence{
			Found:          true,
			Activity:       wk.Activity,
			OverlapMinutes: wk.Interval().OverlapMinutes(e.Interval),
		}
	}

	check := EvidenceCheck{Type: EvidenceHealth, Weight: w}
	switch {
	case rule.WorkoutRequired && found:
		check.Match = true
		check.Earned = w
		check.Detail = fmt.Sprintf("workout found: %s", wk.Activity)
	case rule.WorkoutRequired:
		check.Detail = "required workout not found"
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "workout",
			Expected: "workout overlapping event",
			Actual:   "none",
			Severity: SeverityModerate,
		})
		res.Suggestions = append(res.Suggestions,
			fmt.Sprintf("No workout recorded during %s", e.Title))
	case rule.WorkoutContradicts && found:
		check.Detail = fmt.Sprintf("workout contradicts category: %s", wk.Activity)
		res.Report.Discrepancies = append(res.Report.Discrepancies, Discrepancy{
			Type:     "workout",
			Expected: "no workout",
			Actual:   wk.Activity,
			Severity: SeverityModerate,
		})
	case found:
		// Coincidental workout: partial credit.
		check.Match = true
		check.Earned = w * 0.5
		check.Detail = fmt.Sprintf("coincidental workout: %s", wk.Activity)
	default:
		// Not required, none found: weight not applicable.
		return 0, 0
	}

	res.Report.Evidence = append(res.Report.Evidence, check)
	return w, check.Earned
}

// placeMatches reports whether the place's category or label contains one of
// the accepted substrings. An empty accepted set always matches: there is
// nothing to contradict.
func placeMatches(place evidence.LocationHour, accepted []string) bool {
	if len(accepted) == 0 {
		return true
	}
	cat := strings.ToLower(place.PlaceCategory)
	label := strings.ToLower(place.PlaceLabel)
	for _, a := range accepted {
		needle := strings.ToLower(a)
		if strings.Contains(cat, needle) || strings.Contains(label, needle) {
			return true
		}
	}
	return false
}

func contradictionReason(res Result) string {
	if res.Location != nil {
		return fmt.Sprintf("location evidence places you at %q instead", res.Location.PlaceLabel)
	}
	return "evidence contradicts the planned event"
}

func distractionReason(res Result) string {
	if res.Screen != nil && res.Screen.TopApp != "" {
		return fmt.Sprintf("%d min of distraction, mostly %s",
			res.Screen.DistractionMinutes, apps.Display(res.Screen.TopApp))
	}
	return "distraction screen time exceeded the budget"
}
