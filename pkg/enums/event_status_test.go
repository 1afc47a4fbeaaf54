package enums

import "testing"

func TestEventStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from EventStatus
		to   EventStatus
		want bool
	}{
		{EventStatusDraft, EventStatusPending, true},
		{EventStatusDraft, EventStatusActive, true},
		{EventStatusPending, EventStatusActive, true},
		{EventStatusActive, EventStatusCompleted, true},
		{EventStatusActive, EventStatusPending, false},
		{EventStatusPending, EventStatusDraft, false},
		{EventStatusDraft, EventStatusCancelled, true},
		{EventStatusActive, EventStatusCancelled, true},
		{EventStatusCompleted, EventStatusCancelled, false},
		{EventStatusCancelled, EventStatusActive, false},
		{EventStatusCompleted, EventStatusActive, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tt.from, tt.to, tt.want, got)
		}
	}
}

func TestEventStatusIsTerminal(t *testing.T) {
	if !EventStatusCompleted.IsTerminal() || !EventStatusCancelled.IsTerminal() {
		t.Fatal("completed and cancelled are terminal")
	}
	if EventStatusDraft.IsTerminal() || EventStatusActive.IsTerminal() {
		t.Fatal("draft and active are not terminal")
	}
}

func TestParseEventStatus(t *testing.T) {
	status, err := ParseEventStatus("active")
	if err != nil {
		t.Fatalf("ParseEventStatus returned error: %v", err)
	}
	if status != EventStatusActive {
		t.Fatalf("expected active, got %s", status)
	}

	if _, err := ParseEventStatus("archived"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
