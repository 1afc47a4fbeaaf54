package enums

import "fmt"

// EventStatus tracks the lifecycle of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPending   EventStatus = "pending"
	EventStatusActive    EventStatus = "active"
	EventStatusCompleted EventStatus = "completed"
	EventStatusCancelled EventStatus = "cancelled"
)

var validEventStatuses = []EventStatus{
	EventStatusDraft,
	EventStatusPending,
	EventStatusActive,
	EventStatusCompleted,
	EventStatusCancelled,
}

// statuses only move forward; cancellation is a manual admin escape hatch.
var eventStatusRank = map[EventStatus]int{
	EventStatusDraft:     0,
	EventStatusPending:   1,
	EventStatusActive:    2,
	EventStatusCompleted: 3,
}

// String implements fmt.Stringer.
func (s EventStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known EventStatus.
func (s EventStatus) IsValid() bool {
	for _, candidate := range validEventStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s EventStatus) IsTerminal() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Forward-only, except that any non-terminal status may be cancelled.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == EventStatusCancelled {
		return true
	}
	from, okFrom := eventStatusRank[s]
	to, okTo := eventStatusRank[next]
	return okFrom && okTo && to > from
}

// ParseEventStatus converts raw input into an EventStatus.
func ParseEventStatus(value string) (EventStatus, error) {
	for _, candidate := range validEventStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event status %q", value)
}
