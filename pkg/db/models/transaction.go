package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
)

// Transaction records a balance top-up attempt. Status moves from pending to
// exactly one terminal state and never changes afterwards; transactions are
// never deleted.
type Transaction struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID               `gorm:"column:user_id;type:uuid;not null;index"`
	User          *User                   `gorm:"foreignKey:UserID"`
	EventID       *uuid.UUID              `gorm:"column:event_id;type:uuid"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric;not null"`
	Gateway       enums.PaymentGateway    `gorm:"column:gateway;type:text;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Reference     string                  `gorm:"column:reference;type:text;not null;uniqueIndex"`
	ProofFilePath *string                 `gorm:"column:proof_file_path"`
	PaymentURL    *string                 `gorm:"column:payment_url"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
