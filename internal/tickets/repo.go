package tickets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository manages persistence for tickets and the guest ticket-code
// binding the issuer maintains.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error)
	Create(ctx context.Context, ticket *models.Ticket) error
	DeleteByEvent(ctx context.Context, eventID uuid.UUID) error
	FindByEventAndCode(ctx context.Context, eventID uuid.UUID, code string) (*models.Ticket, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error)
	ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error)
	UpdateGuestCode(ctx context.Context, guestID uuid.UUID, code string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a tickets repository bound to the provided DB.
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

func (r *repository) CountByEvent(ctx context.Context, eventID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *repository) DeleteByEvent(ctx context.Context, eventID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Delete(&models.Ticket{}).Error
}

func (r *repository) FindByEventAndCode(ctx context.Context, eventID uuid.UUID, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ? AND code = ?", eventID, code).
		First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *repository) ListGuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
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

func (r *repository) UpdateGuestCode(ctx context.Context, guestID uuid.UUID, code string) error {
	return r.db.WithContext(ctx).
		Model(&models.Guest{}).
		Where("id = ?", guestID).
		Updates(map[string]any{
			"ticket_code": code,
			"updated_at":  time.Now().UTC(),
		}).Error
}
