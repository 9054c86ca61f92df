package timeline

import "strings"

// Priority ranks events for overlap resolution. Lower value wins.
type Priority int

// Priority classes, highest precedence first.
const (
	PriorityUserEdited      Priority = 1
	PriorityStoredActual    Priority = 2
	PriorityDerivedEvidence Priority = 3
	PriorityScreenTime      Priority = 4
	PriorityUnknown         Priority = 5
)

func (p Priority) String() string {
	switch p {
	case PriorityUserEdited:
		return "user_edited"
	case PriorityStoredActual:
		return "stored_actual"
	case PriorityDerivedEvidence:
		return "derived_evidence"
	case PriorityScreenTime:
		return "screen_time"
	case PriorityUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// PriorityFor assigns a priority class to an event. Deterministic and total:
// every event gets exactly one class, and the class never changes for a
// given event instance. Ties between equal-priority events are broken later
// by insertion order, not here.
func PriorityFor(e ScheduledEvent) Priority {
	switch e.Meta.Source {
	case SourceUser, SourceActualAdjust:
		return PriorityUserEdited
	}
	switch e.Meta.Kind {
	case KindUnknownGap, KindPatternGap:
		return PriorityUnknown
	case KindScreenTime:
		return PriorityScreenTime
	}
	if e.Meta.Source == SourceEvidence || e.Meta.Kind == KindSleepSchedule ||
		e.Meta.Derivation != DerivationNone || hasDerivedIDMarker(e.ID) {
		return PriorityDerivedEvidence
	}
	// SourceSystem and unset sources land here: rows that came back from
	// storage without further qualification.
	return PriorityStoredActual
}

// hasDerivedIDMarker recognizes legacy derivation-id prefixes. Kept only as
// a fallback for events created before Meta.Derivation existed; new code
// sets Derivation explicitly.
func hasDerivedIDMarker(id string) bool {
	return strings.HasPrefix(id, "derived_actual:") || strings.HasPrefix(id, "st:")
}
