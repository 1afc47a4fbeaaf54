package models

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a uniquely-coded admission ticket bound to one guest slot of an
// event. The (event_id, code) pair is unique; Image holds the rendered QR
// PNG bytes, opaque to the rest of the system.
type Ticket struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID   uuid.UUID `gorm:"column:event_id;type:uuid;not null;uniqueIndex:idx_tickets_event_code"`
	GuestName string    `gorm:"column:guest_name;not null"`
	Code      string    `gorm:"column:code;not null;uniqueIndex:idx_tickets_event_code"`
	Image     []byte    `gorm:"column:image"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
