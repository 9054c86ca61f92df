package timeline

import "testing"

func TestPriorityFor(t *testing.T) {
	tests := []struct {
		name  string
		event ScheduledEvent
		want  Priority
	}{
		{
			name:  "user source wins everything",
			event: ScheduledEvent{Meta: Meta{Source: SourceUser, Kind: KindScreenTime}},
			want:  PriorityUserEdited,
		},
		{
			name:  "actual adjust counts as user edited",
			event: ScheduledEvent{Meta: Meta{Source: SourceActualAdjust}},
			want:  PriorityUserEdited,
		},
		{
			name:  "unknown gap kind",
			event: ScheduledEvent{Meta: Meta{Kind: KindUnknownGap}},
			want:  PriorityUnknown,
		},
		{
			name:  "pattern gap kind",
			event: ScheduledEvent{Meta: Meta{Source: SourceSystem, Kind: KindPatternGap}},
			want:  PriorityUnknown,
		},
		{
			name:  "screen time kind",
			event: ScheduledEvent{Meta: Meta{Kind: KindScreenTime}},
			want:  PriorityScreenTime,
		},
		{
			name:  "evidence source",
			event: ScheduledEvent{Meta: Meta{Source: SourceEvidence}},
			want:  PriorityDerivedEvidence,
		},
		{
			name:  "sleep schedule kind",
			event: ScheduledEvent{Meta: Meta{Source: SourceSystem, Kind: KindSleepSchedule}},
			want:  PriorityDerivedEvidence,
		},
		{
			name:  "explicit derivation kind",
			event: ScheduledEvent{Meta: Meta{Derivation: DerivationLocation}},
			want:  PriorityDerivedEvidence,
		},
		{
			name:  "legacy derived_actual id prefix",
			event: ScheduledEvent{ID: "derived_actual:abc123"},
			want:  PriorityDerivedEvidence,
		},
		{
			name:  "legacy st id prefix",
			event: ScheduledEvent{ID: "st:evening"},
			want:  PriorityDerivedEvidence,
		},
		{
			name:  "system source falls back to stored actual",
			event: ScheduledEvent{ID: "row-42", Meta: Meta{Source: SourceSystem}},
			want:  PriorityStoredActual,
		},
		{
			name:  "no source at all",
			event: ScheduledEvent{ID: "row-43"},
			want:  PriorityStoredActual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriorityFor(tt.event); got != tt.want {
				t.Errorf("PriorityFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPriorityIsStableAcrossCalls(t *testing.T) {
	e := ScheduledEvent{ID: "st:x", Meta: Meta{Kind: KindScreenTime}}
	first := PriorityFor(e)
	for range 10 {
		if got := PriorityFor(e); got != first {
			t.Fatalf("priority changed between calls: %v then %v", first, got)
		}
	}
}
