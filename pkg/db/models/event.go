package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
)

// Event is an admitted event with a fixed guest capacity. NumberOfGuests is
// immutable after creation; status changes flow through the check-in state
// machine or the admin status transition.
type Event struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	PlannerID      uuid.UUID         `gorm:"column:planner_id;type:uuid;not null;index"`
	Planner        *User             `gorm:"foreignKey:PlannerID"`
	Name           string            `gorm:"column:name;not null"`
	Location       *string           `gorm:"column:location"`
	Date           time.Time         `gorm:"column:date;not null"`
	Time           *string           `gorm:"column:time"`
	Description    *string           `gorm:"column:description"`
	NumberOfGuests int               `gorm:"column:number_of_guests;not null"`
	Status         enums.EventStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Guests         []Guest           `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	Tickets        []Ticket          `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
