package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SiteSetting is the single-row pricing and mail configuration consumed by
// the admission cost formula and the email sender.
type SiteSetting struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SiteName        string          `gorm:"column:site_name;not null"`
	PerGuestPrice   decimal.Decimal `gorm:"column:per_guest_price;type:numeric;not null;default:0"`
	GuestDetailsFee decimal.Decimal `gorm:"column:guest_details_fee;type:numeric;not null;default:0"`
	Currency        *string         `gorm:"column:currency"`
	SMTPHost        *string         `gorm:"column:smtp_host"`
	SMTPPort        int             `gorm:"column:smtp_port;not null;default:0"`
	SMTPUsername    *string         `gorm:"column:smtp_username"`
	SMTPPassword    *string         `gorm:"column:smtp_password"`
	SMTPFrom        *string         `gorm:"column:smtp_from"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
