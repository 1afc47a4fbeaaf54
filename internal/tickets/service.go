package tickets

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tolujohnson/eventmanager-backend/pkg/db"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/qr"
	"gorm.io/gorm"
)

// fallbackPrefix is used when the event name is shorter than four characters.
const fallbackPrefix = "EVNT"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service mints uniquely-coded tickets for event guest slots and renders
// their scannable images.
type Service interface {
	Issue(ctx context.Context, tx *gorm.DB, input IssueTicketInput) (*models.Ticket, error)
	ReissueAll(ctx context.Context, eventID uuid.UUID) error
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error)
}

// IssueTicketInput captures one guest slot to issue a ticket for.
type IssueTicketInput struct {
	EventID    uuid.UUID
	GuestName  string
	GuestEmail *string
}

type service struct {
	repo     Repository
	renderer qr.Renderer
	tx       txRunner
}

// NewService builds a ticket issuer with the required dependencies.
func NewService(repo Repository, renderer qr.Renderer, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tickets repository required")
	}
	if renderer == nil {
		return nil, fmt.Errorf("code renderer required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, renderer: renderer, tx: tx}, nil
}

// CodePrefix derives the four-character uppercase ticket prefix from an
// event name. The cut is rune-based so multibyte names stay valid UTF-8.
func CodePrefix(eventName string) string {
	name := []rune(strings.TrimSpace(eventName))
	if len(name) < 4 {
		return fallbackPrefix
	}
	return strings.ToUpper(string(name[:4]))
}

// Issue mints the next sequential code for the event inside the caller's
// transaction. Counting then inserting races under concurrency, so the
// unique (event_id, code) index is the arbiter: a losing writer recomputes
// the sequence once before giving up with a retryable conflict.
func (s *service) Issue(ctx context.Context, tx *gorm.DB, input IssueTicketInput) (*models.Ticket, error) {
	if input.EventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	if strings.TrimSpace(input.GuestName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "guest name cannot be empty")
	}

	repo := s.repo.WithTx(tx)
	event, err := repo.FindEvent(ctx, input.EventID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
	}

	prefix := CodePrefix(event.Name)

	var ticket *models.Ticket
	for attempt := 0; attempt < 2; attempt++ {
		count, err := repo.CountByEvent(ctx, event.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count tickets")
		}

		code := fmt.Sprintf("%s-%04d", prefix, count+1)
		image, err := s.renderer.Render(code)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "render ticket image")
		}

		candidate := &models.Ticket{
			EventID:   event.ID,
			GuestName: input.GuestName,
			Code:      code,
			Image:     image,
		}
		if err := s.insertCandidate(ctx, tx, repo, candidate, attempt); err != nil {
			// (event_id, code) is the only unique index on tickets, so any
			// unique violation here is a code collision.
			if db.IsUniqueViolation(err, "") {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ticket")
		}
		ticket = candidate
		break
	}
	if ticket == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "ticket code collision, retry issuance")
	}
	return ticket, nil
}

// insertCandidate writes the ticket row. Inside a live transaction the
// insert runs under a savepoint: Postgres aborts the whole transaction on a
// unique violation, and rolling back to the savepoint keeps it usable for
// the recount and retry.
func (s *service) insertCandidate(ctx context.Context, tx *gorm.DB, repo Repository, ticket *models.Ticket, attempt int) error {
	if tx == nil || tx.Statement == nil {
		return repo.Create(ctx, ticket)
	}
	if _, inTx := tx.Statement.ConnPool.(gorm.TxCommitter); !inTx {
		return repo.Create(ctx, ticket)
	}

	savepoint := fmt.Sprintf("issue_ticket_%d", attempt)
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return err
	}
	err := repo.Create(ctx, ticket)
	if err != nil && db.IsUniqueViolation(err, "") {
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return rbErr
		}
	}
	return err
}

// ReissueAll invalidates every existing ticket for the event and issues one
// fresh ticket per guest, in guest order, overwriting each guest's stored
// code.
func (s *service) ReissueAll(ctx context.Context, eventID uuid.UUID) error {
	if eventID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindEvent(ctx, eventID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "event not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load event")
		}

		guests, err := repo.ListGuestsByEvent(ctx, eventID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list guests")
		}

		if err := repo.DeleteByEvent(ctx, eventID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete tickets")
		}

		for _, guest := range guests {
			ticket, err := s.Issue(ctx, tx, IssueTicketInput{
				EventID:    eventID,
				GuestName:  guest.Name,
				GuestEmail: guest.Email,
			})
			if err != nil {
				return err
			}
			if err := repo.UpdateGuestCode(ctx, guest.ID, ticket.Code); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update guest code")
			}
		}
		return nil
	})
}

func (s *service) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Ticket, error) {
	if eventID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event id required")
	}
	tickets, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tickets")
	}
	return tickets, nil
}
