package checkin

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/lock"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service drives the guest check-in state machine. Scans for the same event
// are serialized with a per-event lock so two gate devices can never both
// admit the final pending guest and race the event completion check.
type Service interface {
	Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error)
	MarkRemainingAbsent(ctx context.Context, input MarkAbsentInput) (*MarkAbsentResult, error)
}

// RedeemInput identifies one scanned ticket at the gate.
type RedeemInput struct {
	EventID   uuid.UUID
	PlannerID uuid.UUID
	Code      string
}

// RedeemResult reports the admitted guest and whether this scan was the one
// that completed the event.
type RedeemResult struct {
	Guest          *models.Guest
	EventCompleted bool
}

// MarkAbsentInput closes the gate for an event.
type MarkAbsentInput struct {
	EventID   uuid.UUID
	PlannerID uuid.UUID
}

// MarkAbsentResult reports how many pending guests were marked absent.
type MarkAbsentResult struct {
	MarkedAbsent int64
}

type service struct {
	repo   Repository
	tx     txRunner
	locker lock.Locker
	log    *logger.Logger
}

// NewService wires the check-in service with its repository, transaction
// runner and per-event locker.
func NewService(repo Repository, tx txRunner, locker lock.Locker, log *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("checkin repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if locker == nil {
		return nil, fmt.Errorf("locker required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, locker: locker, log: log}, nil
}

func lockKey(eventID uuid.UUID) string {
	return "checkin:" + eventID.String()
}

// Redeem admits the guest behind a scanned ticket code. A second scan of the
// same code is rejected, and the event flips to completed inside the same
// transaction when the last pending guest arrives.
func (s *service) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.PlannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner id required")
	}
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ticket code required")
	}

	var result *RedeemResult
	err := s.locker.WithLock(ctx, lockKey(input.EventID), func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			event, err := repo.FindEvent(ctx, input.EventID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
			}
			if event.PlannerID != input.PlannerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another planner")
			}

			ticket, err := repo.FindTicket(ctx, event.ID, code)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "invalid ticket code")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load ticket")
			}

			guest, err := s.resolveGuest(ctx, repo, event.ID, ticket)
			if err != nil {
				return err
			}
			if guest.Status == enums.GuestStatusPresent {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "guest already checked in")
			}

			if err := repo.UpdateGuestStatus(ctx, guest.ID, enums.GuestStatusPresent); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update guest status")
			}
			guest.Status = enums.GuestStatusPresent

			guests, err := repo.ListGuests(ctx, event.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guests")
			}
			completed := true
			for _, g := range guests {
				if g.ID != guest.ID && g.Status == enums.GuestStatusPending {
					completed = false
					break
				}
			}
			if completed && event.Status != enums.EventStatusCompleted {
				if err := repo.UpdateEventStatus(ctx, event.ID, enums.EventStatusCompleted); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete event")
				}
			}

			result = &RedeemResult{Guest: guest, EventCompleted: completed}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"event_id":        input.EventID.String(),
		"guest":           result.Guest.Name,
		"event_completed": result.EventCompleted,
	})
	s.log.Info(logCtx, "guest checked in")
	return result, nil
}

// resolveGuest maps a ticket back to its guest row. The stored guest ticket
// code is the primary link; guest name is the fallback for tickets issued
// before a reissue overwrote the codes.
func (s *service) resolveGuest(ctx context.Context, repo Repository, eventID uuid.UUID, ticket *models.Ticket) (*models.Guest, error) {
	guests, err := repo.FindGuestsByName(ctx, eventID, ticket.GuestName)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load guest")
	}
	var fallback *models.Guest
	for i := range guests {
		if guests[i].TicketCode == ticket.Code {
			return &guests[i], nil
		}
		if fallback == nil && guests[i].Status != enums.GuestStatusPresent {
			fallback = &guests[i]
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	if len(guests) > 0 {
		return &guests[0], nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "guest not found for ticket")
}

// MarkRemainingAbsent marks every still-pending guest absent and completes
// the event. Running it on an event with no pending guests still completes
// the event.
func (s *service) MarkRemainingAbsent(ctx context.Context, input MarkAbsentInput) (*MarkAbsentResult, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if input.PlannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner id required")
	}

	var result *MarkAbsentResult
	err := s.locker.WithLock(ctx, lockKey(input.EventID), func(ctx context.Context) error {
		return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			event, err := repo.FindEvent(ctx, input.EventID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
			}
			if event.PlannerID != input.PlannerID {
				return pkgerrors.New(pkgerrors.CodeForbidden, "event belongs to another planner")
			}

			marked, err := repo.MarkPendingAbsent(ctx, event.ID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark guests absent")
			}
			if event.Status != enums.EventStatusCompleted {
				if err := repo.UpdateEventStatus(ctx, event.ID, enums.EventStatusCompleted); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete event")
				}
			}

			result = &MarkAbsentResult{MarkedAbsent: marked}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"event_id":      input.EventID.String(),
		"marked_absent": result.MarkedAbsent,
	})
	s.log.Info(logCtx, "remaining guests marked absent")
	return result, nil
}
