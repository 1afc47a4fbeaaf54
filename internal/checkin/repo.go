package checkin

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages the guest and event status rows the check-in state
// machine owns.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindTicket(ctx context.Context, eventID uuid.UUID, code string) (*models.Ticket, error)
	FindGuestsByName(ctx context.Context, eventID uuid.UUID, name string) ([]models.Guest, error)
	ListGuests(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error)
	UpdateGuestStatus(ctx context.Context, guestID uuid.UUID, status enums.GuestStatus) error
	MarkPendingAbsent(ctx context.Context, eventID uuid.UUID) (int64, error)
	UpdateEventStatus(ctx context.Context, eventID uuid.UUID, status enums.EventStatus) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a check-in repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindTicket(ctx context.Context, eventID uuid.UUID, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND code = ?", eventID, code).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) FindGuestsByName(ctx context.Context, eventID uuid.UUID, name string) ([]models.Guest, error) {
	var guests []models.Guest
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND name = ?", eventID, name).
		Find(&guests).Error
	if err != nil {
		return nil, err
	}
	return guests, nil
}

func (r *repository) ListGuests(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	var guests []models.Guest
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&guests).Error
	if err != nil {
		return nil, err
	}
	return guests, nil
}

func (r *repository) UpdateGuestStatus(ctx context.Context, guestID uuid.UUID, status enums.GuestStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("id = ?", guestID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

func (r *repository) MarkPendingAbsent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("event_id = ? AND status = ?", eventID, enums.GuestStatusPending).
		Updates(map[string]any{
			"status":     enums.GuestStatusAbsent,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) UpdateEventStatus(ctx context.Context, eventID uuid.UUID, status enums.EventStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", eventID).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}
