package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository manages event rows and their guest and ticket associations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, event *models.Event) error
	CreateGuest(ctx context.Context, guest *models.Guest) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindByIDWithAssociations(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error)
	ListUpcomingByPlanner(ctx context.Context, plannerID uuid.UUID, cutoff time.Time) ([]models.Event, error)
	ListAll(ctx context.Context) ([]models.Event, error)
	Save(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EventStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListGuests(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error)
	ListTickets(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an events repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) Create(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Guests", "Tickets", "Planner").Create(event).Error
}

func (r *repository) CreateGuest(ctx context.Context, guest *models.Guest) error {
	return r.db.WithContext(ctx).Create(guest).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) FindByIDWithAssociations(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.db.WithContext(ctx).
		Preload("Guests", func(db *gorm.DB) *gorm.DB { return db.Order("guests.created_at ASC") }).
		Preload("Tickets", func(db *gorm.DB) *gorm.DB { return db.Order("tickets.created_at ASC") }).
		Where("id = ?", id).
		First(&event).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("planner_id = ?", plannerID).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListUpcomingByPlanner(ctx context.Context, plannerID uuid.UUID, cutoff time.Time) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Where("planner_id = ? AND date >= ? AND status <> ?", plannerID, cutoff, enums.EventStatusCompleted).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) ListAll(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.db.WithContext(ctx).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) Save(ctx context.Context, event *models.Event) error {
	return r.db.WithContext(ctx).Omit("Guests", "Tickets", "Planner").Save(event).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.EventStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		}).Error
}

// Delete removes the event and its dependents explicitly so the cascade does
// not rely on database-level foreign key actions.
func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("event_id = ?", id).Delete(&models.Ticket{}).Error; err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Where("event_id = ?", id).Delete(&models.Guest{}).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Event{}).Error
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

func (r *repository) ListTickets(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
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
