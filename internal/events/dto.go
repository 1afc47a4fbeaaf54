package events

import (
	"time"

	"github.com/google/uuid"
)

// GuestInput is one named roster entry supplied at creation or added later.
type GuestInput struct {
	Name  string  `json:"name" validate:"required"`
	Email *string `json:"email" validate:"omitempty,email"`
}

// CreateEventInput captures a new event request. Guests is optional; when
// present its length must equal NumberOfGuests.
type CreateEventInput struct {
	PlannerID           uuid.UUID    `json:"plannerId" validate:"required"`
	Name                string       `json:"name" validate:"required,min=1,max=200"`
	Location            *string      `json:"location" validate:"omitempty,max=300"`
	Date                time.Time    `json:"date" validate:"required"`
	Time                *string      `json:"time"`
	Description         *string      `json:"description" validate:"omitempty,max=2000"`
	NumberOfGuests      int          `json:"numberOfGuests" validate:"required,gt=0"`
	IncludeGuestDetails bool         `json:"includeGuestDetails"`
	Guests              []GuestInput `json:"guests" validate:"omitempty,dive"`
}

// AddGuestsInput appends named guests to an existing event.
type AddGuestsInput struct {
	EventID   uuid.UUID    `json:"eventId" validate:"required"`
	PlannerID uuid.UUID    `json:"plannerId" validate:"required"`
	Guests    []GuestInput `json:"guests" validate:"required,min=1,dive"`
}

// UpdateEventInput patches descriptive fields. Guest capacity and status are
// not editable here.
type UpdateEventInput struct {
	EventID        uuid.UUID  `json:"eventId" validate:"required"`
	PlannerID      uuid.UUID  `json:"plannerId" validate:"required"`
	Name           *string    `json:"name" validate:"omitempty,min=1,max=200"`
	Location       *string    `json:"location" validate:"omitempty,max=300"`
	Date           *time.Time `json:"date"`
	Time           *string    `json:"time"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	NumberOfGuests *int       `json:"numberOfGuests"`
}
