package settings

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service exposes the pricing collaborator consumed by the admission cost
// formula, plus the admin update surface.
type Service interface {
	Get(ctx context.Context) (*models.SiteSetting, error)
	Update(ctx context.Context, actor auth.Identity, input UpdateSettingsInput) (*models.SiteSetting, error)
}

// UpdateSettingsInput patches the settings row; nil fields are left as-is.
type UpdateSettingsInput struct {
	SiteName        *string
	PerGuestPrice   *decimal.Decimal
	GuestDetailsFee *decimal.Decimal
	Currency        *string
	SMTPHost        *string
	SMTPPort        *int
	SMTPUsername    *string
	SMTPPassword    *string
	SMTPFrom        *string
}

type service struct {
	repo Repository
}

// NewService wires a settings service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context) (*models.SiteSetting, error) {
	setting, err := s.repo.Get(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeConfiguration, "site settings not configured")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load site settings")
	}
	return setting, nil
}

func (s *service) Update(ctx context.Context, actor auth.Identity, input UpdateSettingsInput) (*models.SiteSetting, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}

	setting, err := s.Get(ctx)
	if err != nil {
		return nil, err
	}

	if input.SiteName != nil && *input.SiteName != "" {
		setting.SiteName = *input.SiteName
	}
	if input.PerGuestPrice != nil {
		if input.PerGuestPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "per guest price cannot be negative")
		}
		setting.PerGuestPrice = *input.PerGuestPrice
	}
	if input.GuestDetailsFee != nil {
		if input.GuestDetailsFee.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest details fee cannot be negative")
		}
		setting.GuestDetailsFee = *input.GuestDetailsFee
	}
	if input.Currency != nil {
		setting.Currency = input.Currency
	}
	if input.SMTPHost != nil {
		setting.SMTPHost = input.SMTPHost
	}
	if input.SMTPPort != nil {
		setting.SMTPPort = *input.SMTPPort
	}
	if input.SMTPUsername != nil {
		setting.SMTPUsername = input.SMTPUsername
	}
	if input.SMTPPassword != nil {
		setting.SMTPPassword = input.SMTPPassword
	}
	if input.SMTPFrom != nil {
		setting.SMTPFrom = input.SMTPFrom
	}

	if err := s.repo.Save(ctx, setting); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save site settings")
	}
	return setting, nil
}
