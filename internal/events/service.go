package events

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/internal/ledger"
	"github.com/tolujohnson/eventmanager-backend/internal/settings"
	"github.com/tolujohnson/eventmanager-backend/internal/tickets"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/email"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"gorm.io/gorm"
)

// upcomingGrace keeps events visible for a day after their date passes.
const upcomingGrace = 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the event lifecycle. Creation is the admission gate: the
// planner's balance is debited and the event, its guest slots and their
// tickets are written in one transaction.
type Service interface {
	Create(ctx context.Context, input CreateEventInput) (*models.Event, error)
	AddGuests(ctx context.Context, input AddGuestsInput) (*models.Event, error)
	Update(ctx context.Context, input UpdateEventInput) (*models.Event, error)
	UpdateStatus(ctx context.Context, adminID uuid.UUID, eventID uuid.UUID, status enums.EventStatus) (*models.Event, error)
	Delete(ctx context.Context, actor auth.Identity, eventID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	ListByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error)
	ListUpcomingByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error)
	ListAll(ctx context.Context, actor auth.Identity) ([]models.Event, error)
	GuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error)
	TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error)
}

type service struct {
	repo     Repository
	settings settings.Service
	ledger   ledger.Service
	tickets  tickets.Service
	mailer   email.Sender
	tx       txRunner
	log      *logger.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewService wires the event lifecycle service and its collaborators.
// A nil mailer disables ticket delivery.
func NewService(repo Repository, settingsSvc settings.Service, ledgerSvc ledger.Service, ticketSvc tickets.Service, mailer email.Sender, tx txRunner, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("events repository required")
	}
	if settingsSvc == nil {
		return nil, fmt.Errorf("settings service required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if ticketSvc == nil {
		return nil, fmt.Errorf("tickets service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if mailer == nil {
		mailer = email.Noop{}
	}
	return &service{
		repo:     repo,
		settings: settingsSvc,
		ledger:   ledgerSvc,
		tickets:  ticketSvc,
		mailer:   mailer,
		tx:       tx,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}, nil
}

// AdmissionCost prices an event: every guest slot pays the per-guest price,
// and collecting guest details adds the per-guest fee on top.
func AdmissionCost(guests int, perGuestPrice, detailsFee decimal.Decimal, includeDetails bool) decimal.Decimal {
	n := decimal.NewFromInt(int64(guests))
	cost := n.Mul(perGuestPrice)
	if includeDetails {
		cost = cost.Add(n.Mul(detailsFee))
	}
	return cost
}

func (s *service) Create(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event input")
	}
	if len(input.Guests) > 0 && len(input.Guests) != input.NumberOfGuests {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest list length must match number of guests")
	}
	for _, g := range input.Guests {
		if g.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name cannot be empty")
		}
	}

	planner, err := s.repo.FindUser(ctx, input.PlannerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "planner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load planner")
	}
	if planner.Role != enums.UserRolePlanner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "planner role required")
	}

	setting, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	cost := AdmissionCost(input.NumberOfGuests, setting.PerGuestPrice, setting.GuestDetailsFee, input.IncludeGuestDetails)

	slots := make([]GuestInput, input.NumberOfGuests)
	if len(input.Guests) > 0 {
		copy(slots, input.Guests)
	} else {
		prefix := tickets.CodePrefix(input.Name)
		for i := range slots {
			slots[i] = GuestInput{Name: fmt.Sprintf("%s-%04d", prefix, i+1)}
		}
	}

	var created *models.Event
	var admitted []models.Guest
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.ledger.AuthorizeDebit(ctx, tx, planner.ID, cost); err != nil {
			return err
		}

		repo := s.repo.WithTx(tx)
		event := &models.Event{
			PlannerID:      planner.ID,
			Name:           input.Name,
			Location:       input.Location,
			Date:           input.Date,
			Time:           input.Time,
			Description:    input.Description,
			NumberOfGuests: input.NumberOfGuests,
			Status:         enums.EventStatusDraft,
		}
		if err := repo.Create(ctx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create event")
		}

		for _, slot := range slots {
			guest, err := s.admitGuest(ctx, tx, repo, event.ID, slot)
			if err != nil {
				return err
			}
			admitted = append(admitted, *guest)
		}
		created = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverTickets(ctx, created.Name, admitted)

	logCtx := s.log.WithFields(ctx, map[string]any{
		"event_id": created.ID.String(),
		"planner":  planner.Username,
		"guests":   created.NumberOfGuests,
		"cost":     cost.String(),
	})
	s.log.Info(logCtx, "event created")
	return created, nil
}

// admitGuest issues a ticket for one slot and writes the guest row carrying
// the issued code. Must run inside the caller's transaction.
func (s *service) admitGuest(ctx context.Context, tx *gorm.DB, repo Repository, eventID uuid.UUID, slot GuestInput) (*models.Guest, error) {
	ticket, err := s.tickets.Issue(ctx, tx, tickets.IssueTicketInput{
		EventID:    eventID,
		GuestName:  slot.Name,
		GuestEmail: slot.Email,
	})
	if err != nil {
		return nil, err
	}
	guest := &models.Guest{
		EventID:    eventID,
		Name:       slot.Name,
		Email:      slot.Email,
		TicketCode: ticket.Code,
		Status:     enums.GuestStatusPending,
	}
	if err := repo.CreateGuest(ctx, guest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create guest")
	}
	return guest, nil
}

// deliverTickets mails each guest their code after the admitting transaction
// commits. Delivery is best effort; a mail failure never fails admission.
func (s *service) deliverTickets(ctx context.Context, eventName string, guests []models.Guest) {
	for _, guest := range guests {
		if guest.Email == nil || *guest.Email == "" {
			continue
		}
		subject := "Your ticket for " + eventName
		body := fmt.Sprintf("Hello %s,\n\nYour ticket code for %s is %s. Present it at the gate.\n", guest.Name, eventName, guest.TicketCode)
		if err := s.mailer.Send(ctx, *guest.Email, subject, body); err != nil {
			logCtx := s.log.WithFields(ctx, map[string]any{"guest": guest.Name, "email": *guest.Email})
			s.log.Warn(logCtx, "ticket email delivery failed")
		}
	}
}

func (s *service) AddGuests(ctx context.Context, input AddGuestsInput) (*models.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid guest input")
	}
	for _, g := range input.Guests {
		if g.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name cannot be empty")
		}
	}

	var eventName string
	var admitted []models.Guest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindByID(ctx, input.EventID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
		}
		if event.PlannerID != input.PlannerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another planner")
		}
		if event.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "event no longer accepts guests")
		}
		eventName = event.Name

		for _, slot := range input.Guests {
			guest, err := s.admitGuest(ctx, tx, repo, event.ID, slot)
			if err != nil {
				return err
			}
			admitted = append(admitted, *guest)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.deliverTickets(ctx, eventName, admitted)
	return s.repo.FindByIDWithAssociations(ctx, input.EventID)
}

func (s *service) Update(ctx context.Context, input UpdateEventInput) (*models.Event, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid update input")
	}
	if input.NumberOfGuests != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "number of guests cannot be changed after creation")
	}

	event, err := s.repo.FindByID(ctx, input.EventID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if event.PlannerID != input.PlannerID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another planner")
	}

	if input.Name != nil {
		event.Name = *input.Name
	}
	if input.Location != nil {
		event.Location = input.Location
	}
	if input.Date != nil {
		event.Date = *input.Date
	}
	if input.Time != nil {
		event.Time = input.Time
	}
	if input.Description != nil {
		event.Description = input.Description
	}

	if err := s.repo.Save(ctx, event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save event")
	}
	return event, nil
}

func (s *service) UpdateStatus(ctx context.Context, adminID uuid.UUID, eventID uuid.UUID, status enums.EventStatus) (*models.Event, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event status")
	}

	admin, err := s.repo.FindUser(ctx, adminID)
	if err != nil || admin.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
	}

	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	if !event.Status.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot transition event from %s to %s", event.Status, status))
	}

	if err := s.repo.UpdateStatus(ctx, event.ID, status); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update event status")
	}
	event.Status = status

	logCtx := s.log.WithFields(ctx, map[string]any{
		"event_id": event.ID.String(),
		"status":   status.String(),
	})
	s.log.Info(logCtx, "event status updated")
	return event, nil
}

func (s *service) Delete(ctx context.Context, actor auth.Identity, eventID uuid.UUID) error {
	if eventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		event, err := repo.FindByID(ctx, eventID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
		}
		if actor.Role != enums.UserRoleAdmin && event.PlannerID != actor.UserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another planner")
		}
		if err := repo.Delete(ctx, event.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete event")
		}
		return nil
	})
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	event, err := s.repo.FindByIDWithAssociations(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}
	return event, nil
}

func (s *service) ListByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error) {
	if plannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner id required")
	}
	events, err := s.repo.ListByPlanner(ctx, plannerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	return events, nil
}

func (s *service) ListUpcomingByPlanner(ctx context.Context, plannerID uuid.UUID) ([]models.Event, error) {
	if plannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner id required")
	}
	cutoff := s.now().UTC().Add(-upcomingGrace)
	events, err := s.repo.ListUpcomingByPlanner(ctx, plannerID, cutoff)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list upcoming events")
	}
	return events, nil
}

func (s *service) ListAll(ctx context.Context, actor auth.Identity) ([]models.Event, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	events, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list events")
	}
	return events, nil
}

func (s *service) GuestsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Guest, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	guests, err := s.repo.ListGuests(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guests")
	}
	return guests, nil
}

func (s *service) TicketsByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	tickets, err := s.repo.ListTickets(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return tickets, nil
}
