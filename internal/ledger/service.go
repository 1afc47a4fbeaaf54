package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns every account balance mutation. Callers compose the debit and
// credit operations into their own transactions so balance changes commit
// together with the record they pay for.
type Service interface {
	AuthorizeDebit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, cost decimal.Decimal) error
	Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error
	Adjust(ctx context.Context, input AdjustBalanceInput) (*models.User, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// AdjustBalanceInput is the privileged manual balance adjustment. Delta may
// be negative; the resulting balance is clamped to zero.
type AdjustBalanceInput struct {
	AdminID   uuid.UUID
	PlannerID uuid.UUID
	Delta     decimal.Decimal
}

type service struct {
	repo Repository
	tx   txRunner
}

// NewService wires a ledger service with the provided repository and
// transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) AuthorizeDebit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, cost decimal.Decimal) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if cost.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost cannot be negative")
	}

	repo := s.repo.WithTx(tx)
	debited, err := repo.DebitIfSufficient(ctx, userID, cost)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
	}
	if debited {
		return nil
	}

	// The conditional update matched no row: either the account is missing
	// or the balance is short. Load once to report the right denial.
	user, err := repo.FindUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance, please top up").
		WithDetails(map[string]any{
			"balance": user.Balance.String(),
			"cost":    cost.String(),
		})
}

func (s *service) Credit(ctx context.Context, tx *gorm.DB, userID uuid.UUID, amount decimal.Decimal) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if amount.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "credit amount cannot be negative")
	}

	credited, err := s.repo.WithTx(tx).Credit(ctx, userID, amount)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}
	if !credited {
		return pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
	}
	return nil
}

func (s *service) Adjust(ctx context.Context, input AdjustBalanceInput) (*models.User, error) {
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "admin id required")
	}
	if input.PlannerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "planner id required")
	}

	var adjusted *models.User
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		admin, err := repo.FindUser(ctx, input.AdminID)
		if err != nil || admin.Role != enums.UserRoleAdmin {
			return pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}

		planner, err := repo.FindUser(ctx, input.PlannerID)
		if err != nil || planner.Role != enums.UserRolePlanner {
			return pkgerrors.New(pkgerrors.CodeNotFound, "planner not found")
		}

		balance := planner.Balance.Add(input.Delta)
		if balance.IsNegative() {
			balance = decimal.Zero
		}
		if err := repo.SetBalance(ctx, planner.ID, balance); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set balance")
		}
		planner.Balance = balance
		adjusted = planner
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adjusted, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	if userID == uuid.Nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := s.repo.FindUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "account not found")
		}
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	return user.Balance, nil
}
