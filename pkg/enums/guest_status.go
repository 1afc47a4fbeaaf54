package enums

import "fmt"

// GuestStatus tracks a guest's check-in state. Present and Absent are
// terminal; nothing returns a guest to Pending.
type GuestStatus string

const (
	GuestStatusPending GuestStatus = "pending"
	GuestStatusPresent GuestStatus = "present"
	GuestStatusAbsent  GuestStatus = "absent"
)

var validGuestStatuses = []GuestStatus{
	GuestStatusPending,
	GuestStatusPresent,
	GuestStatusAbsent,
}

// String implements fmt.Stringer.
func (s GuestStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known GuestStatus.
func (s GuestStatus) IsValid() bool {
	for _, candidate := range validGuestStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted.
func (s GuestStatus) IsTerminal() bool {
	return s == GuestStatusPresent || s == GuestStatusAbsent
}

// ParseGuestStatus converts raw input into a GuestStatus.
func ParseGuestStatus(value string) (GuestStatus, error) {
	for _, candidate := range validGuestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid guest status %q", value)
}
