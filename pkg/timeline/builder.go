package timeline

import "sort"

// Builder accumulates events and resolves them into a non-overlapping
// timeline. It owns its accumulator; it is not safe for concurrent use and
// is not meant to be shared. Build independent instances for independent
// days instead.
type Builder struct {
	events      []sequenced
	seq         int
	minDuration int
}

type sequenced struct {
	event    ScheduledEvent
	priority Priority
	seq      int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMinDuration discards resolved segments shorter than m minutes. The
// default of 1 only drops segments the splitter already reduced to nothing.
func WithMinDuration(m int) BuilderOption {
	return func(b *Builder) {
		if m > 0 {
			b.minDuration = m
		}
	}
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{minDuration: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddEvent accumulates one event. Events with a non-positive duration are
// invalid and silently dropped; they must never reach the splitting logic.
func (b *Builder) AddEvent(e ScheduledEvent) {
	if e.Interval.Duration <= 0 {
		return
	}
	b.events = append(b.events, sequenced{
		event:    e,
		priority: PriorityFor(e),
		seq:      b.seq,
	})
	b.seq++
}

// AddEvents accumulates a list of events in order.
func (b *Builder) AddEvents(events []ScheduledEvent) {
	for _, e := range events {
		b.AddEvent(e)
	}
}

// EventCount returns the number of accumulated (valid) events.
func (b *Builder) EventCount() int {
	return len(b.events)
}

// Clear resets the accumulator, including insertion sequence numbers.
func (b *Builder) Clear() {
	b.events = nil
	b.seq = 0
}

// Build resolves all accumulated overlaps and returns the events ordered by
// start time. The accumulator is left untouched, so Build is repeatable.
//
// Resolution is by priority-based interval splitting: for each overlapping
// pair, the higher-priority event is kept fully intact and the overlapping
// region is carved out of the other, leaving zero, one, or two remainder
// segments that inherit the loser's identity. Equal priorities are broken by
// insertion order: the event added first wins. This makes output stable and
// reproducible for equal-priority inputs.
func (b *Builder) Build() []ScheduledEvent {
	working := make([]sequenced, len(b.events))
	copy(working, b.events)

	// Repeatedly scan for overlapping pairs until none remain. Every split
	// strictly shrinks the total overlapping area, so this converges.
	for {
		conflict := false
		for i := 0; i < len(working) && !conflict; i++ {
			for j := i + 1; j < len(working); j++ {
				if !working[i].event.Interval.Overlaps(working[j].event.Interval) {
					continue
				}
				winner, loser := i, j
				if loses(working[i], working[j]) {
					winner, loser = j, i
				}
				working = splitLoser(working, winner, loser)
				conflict = true
				break
			}
		}
		if !conflict {
			break
		}
	}

	out := make([]ScheduledEvent, 0, len(working))
	for _, s := range working {
		if s.event.Interval.Duration < b.minDuration {
			continue
		}
		out = append(out, s.event)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Interval.StartMinutes < out[j].Interval.StartMinutes
	})
	return out
}

// loses reports whether a yields to b in a conflict.
func loses(a, b sequenced) bool {
	if a.priority != b.priority {
		return a.priority > b.priority
	}
	// Equal priority: first event added wins.
	return a.seq > b.seq
}

// splitLoser removes the region overlapped by the winner from the loser,
// replacing the loser with its before/after remainders (if any). Remainder
// segments keep the loser's identity, priority, and sequence number so that
// later conflicts resolve the same way the original would have.
func splitLoser(events []sequenced, winner, loser int) []sequenced {
	w := events[winner].event.Interval
	l := events[loser]
	li := l.event.Interval

	var remainders []sequenced
	if li.StartMinutes < w.StartMinutes {
		before := l
		before.event.Interval = TimeInterval{
			StartMinutes: li.StartMinutes,
			Duration:     w.StartMinutes - li.StartMinutes,
		}
		remainders = append(remainders, before)
	}
	if li.End() > w.End() {
		after := l
		after.event.Interval = TimeInterval{
			StartMinutes: w.End(),
			Duration:     li.End() - w.End(),
		}
		remainders = append(remainders, after)
	}

	out := make([]sequenced, 0, len(events)+1)
	out = append(out, events[:loser]...)
	out = append(out, events[loser+1:]...)
	out = append(out, remainders...)
	return out
}

// OverlapPair identifies two events that still overlap after resolution.
type OverlapPair struct {
	AID string `json:"a_id"`
	BID string `json:"b_id"`
}

// Validation is the advisory result of an overlap check. It never carries an
// error: callers assert invariants with it in tests without crashing
// production paths.
type Validation struct {
	Valid    bool          `json:"valid"`
	Overlaps []OverlapPair `json:"overlaps,omitempty"`
}

// Validate builds the timeline and checks the primary correctness invariant:
// no two output events may overlap.
func (b *Builder) Validate() Validation {
	return ValidateEvents(b.Build())
}

// ValidateEvents checks a resolved event list for pairwise overlaps.
func ValidateEvents(events []ScheduledEvent) Validation {
	v := Validation{Valid: true}
	for i := range events {
		for j := i + 1; j < len(events); j++ {
			if events[i].Interval.Overlaps(events[j].Interval) {
				v.Valid = false
				v.Overlaps = append(v.Overlaps, OverlapPair{AID: events[i].ID, BID: events[j].ID})
			}
		}
	}
	return v
}
