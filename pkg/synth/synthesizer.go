// Package synth derives "actual" timeline material from raw evidence: it
// annotates planned/actual events with distraction descriptions and turns
// unclaimed evidence into standalone blocks. Overlap resolution is not done
// here; synthesized blocks are conservative (they never overlap an existing
// non-digital event) and anything finer is deferred to the timeline builder.
package synth

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"

	"github.com/dayrec-dev/dayrec/pkg/apps"
	"github.com/dayrec-dev/dayrec/pkg/evidence"
	"github.com/dayrec-dev/dayrec/pkg/timeline"
)

// BlockSource names the evidence kind a synthesized block came from.
type BlockSource string

// Block sources.
const (
	SourceLocation   BlockSource = "location"
	SourceScreenTime BlockSource = "screen_time"
	SourceWorkout    BlockSource = "workout"
	SourceDerived    BlockSource = "derived"
)

// ActualBlock is a synthesized, non-planned interval derived from evidence
// that no existing event claimed.
type ActualBlock struct {
	ID          string                   `json:"id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description,omitempty"`
	Category    timeline.Category        `json:"category"`
	Interval    timeline.TimeInterval    `json:"interval"`
	Source      BlockSource              `json:"source"`
	Confidence  float64                  `json:"confidence"`
	Evidence    timeline.EvidenceSummary `json:"evidence"`
}

// Event converts the block into a ScheduledEvent suitable for the timeline
// builder, with derivation metadata set so the priority classifier slots it
// correctly.
func (ab ActualBlock) Event() timeline.ScheduledEvent {
	meta := timeline.Meta{
		Source:     timeline.SourceEvidence,
		Derivation: timeline.DerivationActual,
		Confidence: ab.Confidence,
		Evidence:   &ab.Evidence,
	}
	if ab.Source == SourceScreenTime {
		meta.Kind = timeline.KindScreenTime
		meta.Derivation = timeline.DerivationScreenTime
	}
	return timeline.ScheduledEvent{
		ID:          ab.ID,
		Title:       ab.Title,
		Description: ab.Description,
		Category:    ab.Category,
		Interval:    ab.Interval,
		Meta:        meta,
	}
}

// Synthesizer holds the thresholds and tables used for derivation. It keeps
// no per-day state; one instance serves any number of days.
type Synthesizer struct {
	overrides             apps.Overrides
	minDistractionMinutes int
	minBlockMinutes       int
	gapToleranceMinutes   int
	logger                *slog.Logger
	newID                 func() string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithOverrides supplies per-user app classification overrides.
func WithOverrides(ov apps.Overrides) Option {
	return func(s *Synthesizer) { s.overrides = ov }
}

// WithMinDistractionMinutes sets the minimum overlapping screen minutes
// before an event gets a distraction annotation.
func WithMinDistractionMinutes(m int) Option {
	return func(s *Synthesizer) {
		if m > 0 {
			s.minDistractionMinutes = m
		}
	}
}

// WithMinBlockMinutes sets the minimum duration for a standalone
// screen-time block.
func WithMinBlockMinutes(m int) Option {
	return func(s *Synthesizer) {
		if m > 0 {
			s.minBlockMinutes = m
		}
	}
}

// WithGapTolerance sets how many idle minutes may separate screen evidence
// that is still merged into one block.
func WithGapTolerance(m int) Option {
	return func(s *Synthesizer) {
		if m >= 0 {
			s.gapToleranceMinutes = m
		}
	}
}

// WithLogger sets the synthesizer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// WithIDFunc replaces the block ID generator (tests use deterministic IDs).
func WithIDFunc(f func() string) Option {
	return func(s *Synthesizer) { s.newID = f }
}

// NewSynthesizer returns a synthesizer with stock thresholds.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		minDistractionMinutes: 10,
		minBlockMinutes:       20,
		gapToleranceMinutes:   15,
		logger:                slog.Default(),
		newID:                 uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// isDigital reports whether the event is itself screen time, and therefore
// exempt from distraction annotation and overlap blocking.
func isDigital(e timeline.ScheduledEvent) bool {
	return e.Category == timeline.CategoryDigital || e.Meta.Kind == timeline.KindScreenTime
}

// Annotate returns copies of the events with distraction/lateness
// descriptions where overlapping screen evidence warrants them. Sleep events
// are special-cased: screen time at the start of a sleep window means the
// user wasn't asleep yet, so the sleep interval shrinks and a separate
// preceding Screen Time block is emitted (when it doesn't collide with any
// other non-digital event).
func (s *Synthesizer) Annotate(events []timeline.ScheduledEvent, b *evidence.Bundle) []timeline.ScheduledEvent {
	groups := s.groupScreen(b.Screen)
	out := make([]timeline.ScheduledEvent, 0, len(events))
	var extra []timeline.ScheduledEvent

	for _, e := range events {
		if isDigital(e) {
			out = append(out, e)
			continue
		}
		if e.Category == timeline.CategorySleep {
			adjusted, screenBlock, delayed := s.delaySleepOnset(e, groups, events)
			out = append(out, adjusted)
			if delayed && screenBlock != nil {
				extra = append(extra, *screenBlock)
			}
			continue
		}

		total := b.Screen.TotalOverlapMinutes(e.Interval)
		if total >= float64(s.minDistractionMinutes) {
			top, _, _ := b.Screen.TopApp(e.Interval)
			annotated := e
			annotated.Description = appendDescription(e.Description,
				fmt.Sprintf("Distracted: %d min on %s", int(math.Round(total)), apps.Display(top)))
			s.logger.Debug("annotated distraction", "event", e.ID, "minutes", int(math.Round(total)), "app", top)
			out = append(out, annotated)
			continue
		}
		out = append(out, e)
	}

	return append(out, extra...)
}

// delaySleepOnset shrinks a sleep event whose start is covered by screen
// evidence and returns the optional preceding Screen Time block.
func (s *Synthesizer) delaySleepOnset(e timeline.ScheduledEvent, groups []screenGroup, all []timeline.ScheduledEvent) (timeline.ScheduledEvent, *timeline.ScheduledEvent, bool) {
	start := e.Interval.StartMinutes
	for _, g := range groups {
		// The group must reach back to (or before) the sleep start and
		// extend into the sleep window.
		if g.interval.StartMinutes > start || g.interval.End() <= start {
			continue
		}
		delay := g.interval.End() - start
		if delay < s.minDistractionMinutes || delay >= e.Interval.Duration {
			continue
		}

		adjusted := e
		adjusted.Interval = timeline.TimeInterval{
			StartMinutes: start + delay,
			Duration:     e.Interval.Duration - delay,
		}
		// The shrunk interval is an adjusted actual, not fresh evidence:
		// keep user precedence in later overlap resolution.
		adjusted.Meta.Source = timeline.SourceActualAdjust
		adjusted.Description = appendDescription(e.Description,
			fmt.Sprintf("Fell asleep about %d min late (%s)", delay, apps.FriendlyPhrase(g.dominantApp())))

		blockIv := timeline.TimeInterval{StartMinutes: start, Duration: delay}
		for _, other := range all {
			if other.ID == e.ID || isDigital(other) {
				continue
			}
			if other.Interval.Overlaps(blockIv) {
				// Something else already owns that time; keep the
				// shrunk sleep but skip the screen block.
				return adjusted, nil, true
			}
		}
		block := timeline.ScheduledEvent{
			ID:       s.newID(),
			Title:    "Screen Time",
			Category: timeline.CategoryDigital,
			Interval: blockIv,
			Meta: timeline.Meta{
				Source:     timeline.SourceEvidence,
				Kind:       timeline.KindScreenTime,
				Derivation: timeline.DerivationScreenTime,
				Confidence: 0.75,
				Evidence:   &timeline.EvidenceSummary{AppMinutes: g.roundedAppMinutes()},
			},
		}
		return adjusted, &block, true
	}
	return e, nil, false
}

func appendDescription(desc, suffix string) string {
	if desc == "" {
		return suffix
	}
	return desc + " — " + suffix
}
