package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
)

// User represents the canonical identity entity. The embedded account
// balance is mutated only by the ledger service.
type User struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FullName     string          `gorm:"column:full_name;not null"`
	Username     string          `gorm:"column:username;type:text;not null;uniqueIndex"`
	Email        string          `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string          `gorm:"column:password_hash;not null"`
	Phone        *string         `gorm:"column:phone"`
	Country      *string         `gorm:"column:country"`
	CompanyName  *string         `gorm:"column:company_name"`
	Role         enums.UserRole  `gorm:"column:role;type:text;not null"`
	IsBlocked    bool            `gorm:"column:is_blocked;not null;default:false"`
	Balance      decimal.Decimal `gorm:"column:balance;type:numeric;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
