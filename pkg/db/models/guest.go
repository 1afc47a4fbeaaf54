package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
)

// Guest is one admitted slot of an event, carrying the ticket code it was
// issued and its check-in status.
type Guest struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID         `gorm:"column:event_id;type:uuid;not null;index"`
	Name       string            `gorm:"column:name;not null"`
	Email      *string           `gorm:"column:email"`
	TicketCode string            `gorm:"column:ticket_code;not null"`
	Status     enums.GuestStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
