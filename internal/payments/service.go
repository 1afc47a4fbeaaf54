package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tolujohnson/eventmanager-backend/internal/ledger"
	"github.com/tolujohnson/eventmanager-backend/pkg/auth"
	"github.com/tolujohnson/eventmanager-backend/pkg/db/models"
	"github.com/tolujohnson/eventmanager-backend/pkg/enums"
	pkgerrors "github.com/tolujohnson/eventmanager-backend/pkg/errors"
	"github.com/tolujohnson/eventmanager-backend/pkg/logger"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProofStore persists uploaded proof-of-payment files.
type ProofStore interface {
	Save(originalName string, content []byte) (string, error)
}

// Service runs the transaction approval workflow. A transaction starts
// Pending, reaches exactly one terminal state, and only the transition into
// Completed credits the ledger.
type Service interface {
	SubmitManual(ctx context.Context, input SubmitManualInput) (*models.Transaction, error)
	InitiateAutomatic(ctx context.Context, input InitiateAutomaticInput) (*models.Transaction, error)
	Verify(ctx context.Context, reference string) (*models.Transaction, error)
	Approve(ctx context.Context, input ApproveInput) (*models.Transaction, error)
	Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
	ListByStatus(ctx context.Context, actor auth.Identity, status enums.TransactionStatus) ([]models.Transaction, error)
	ListAll(ctx context.Context, actor auth.Identity) ([]models.Transaction, error)
	Overview(ctx context.Context, actor auth.Identity) ([]StatusSummary, error)
}

type service struct {
	repo           Repository
	ledger         ledger.Service
	proofs         ProofStore
	tx             txRunner
	log            *logger.Logger
	gatewayBaseURL string
	validate       *validator.Validate
}

// NewService wires the payment approval workflow and its collaborators.
func NewService(repo Repository, ledgerSvc ledger.Service, proofs ProofStore, tx txRunner, log *logger.Logger, gatewayBaseURL string) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if proofs == nil {
		return nil, fmt.Errorf("proof store required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if gatewayBaseURL == "" {
		return nil, fmt.Errorf("gateway base url required")
	}
	return &service{
		repo:           repo,
		ledger:         ledgerSvc,
		proofs:         proofs,
		tx:             tx,
		log:            log,
		gatewayBaseURL: strings.TrimRight(gatewayBaseURL, "/"),
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

func (s *service) SubmitManual(ctx context.Context, input SubmitManualInput) (*models.Transaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment input")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if len(input.ProofContent) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "proof of payment required")
	}

	user, err := s.repo.FindUser(ctx, input.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "planner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load planner")
	}
	if user.Role != enums.UserRolePlanner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "planner role required")
	}

	proofPath, err := s.proofs.Save(input.ProofFileName, input.ProofContent)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save proof of payment")
	}

	transaction := &models.Transaction{
		UserID:        user.ID,
		Amount:        input.Amount,
		Gateway:       enums.PaymentGatewayManual,
		Status:        enums.TransactionStatusPending,
		Reference:     uuid.NewString(),
		ProofFilePath: &proofPath,
	}
	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"transaction_id": transaction.ID.String(),
		"reference":      transaction.Reference,
		"amount":         transaction.Amount.String(),
	})
	s.log.Info(logCtx, "manual payment submitted")
	return transaction, nil
}

func (s *service) InitiateAutomatic(ctx context.Context, input InitiateAutomaticInput) (*models.Transaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment input")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	gateway, err := enums.ParsePaymentGateway(input.Gateway)
	if err != nil || !gateway.IsAutomatic() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment gateway")
	}

	user, err := s.repo.FindUser(ctx, input.UserID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "planner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load planner")
	}
	if user.Role != enums.UserRolePlanner {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "planner role required")
	}

	reference := uuid.NewString()
	paymentURL := s.gatewayBaseURL + "/" + reference
	transaction := &models.Transaction{
		UserID:     user.ID,
		Amount:     input.Amount,
		Gateway:    gateway,
		Status:     enums.TransactionStatusPending,
		Reference:  reference,
		PaymentURL: &paymentURL,
	}
	if err := s.repo.Create(ctx, transaction); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"transaction_id": transaction.ID.String(),
		"reference":      transaction.Reference,
		"gateway":        gateway.String(),
	})
	s.log.Info(logCtx, "automatic payment initiated")
	return transaction, nil
}

// Verify settles a gateway callback by reference. The caller is trusted to
// have authenticated the callback; a transaction that already reached a
// terminal state is never credited again.
func (s *service) Verify(ctx context.Context, reference string) (*models.Transaction, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference required")
	}

	var verified *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transaction, err := repo.FindByReference(ctx, reference)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if transaction.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already settled")
		}

		if err := repo.UpdateStatus(ctx, transaction.ID, enums.TransactionStatusCompleted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction status")
		}
		if err := s.ledger.Credit(ctx, tx, transaction.UserID, transaction.Amount); err != nil {
			return err
		}
		transaction.Status = enums.TransactionStatusCompleted
		verified = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"transaction_id": verified.ID.String(),
		"reference":      verified.Reference,
	})
	s.log.Info(logCtx, "payment verified")
	return verified, nil
}

// Approve is the admin decision on a pending transaction. Approval credits
// the planner in the same transaction that flips the status; rejection never
// touches the ledger.
func (s *service) Approve(ctx context.Context, input ApproveInput) (*models.Transaction, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid approval input")
	}

	admin, err := s.repo.FindUser(ctx, input.AdminID)
	if err != nil || admin.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
	}

	var decided *models.Transaction
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		transaction, err := repo.FindByID(ctx, input.TransactionID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction")
		}
		if transaction.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction already settled")
		}

		status := enums.TransactionStatusFailed
		if input.Approve {
			status = enums.TransactionStatusCompleted
		}
		if err := repo.UpdateStatus(ctx, transaction.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update transaction status")
		}
		if input.Approve {
			if err := s.ledger.Credit(ctx, tx, transaction.UserID, transaction.Amount); err != nil {
				return err
			}
		}
		transaction.Status = status
		decided = transaction
		return nil
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.log.WithFields(ctx, map[string]any{
		"transaction_id": decided.ID.String(),
		"approved":       input.Approve,
	})
	s.log.Info(logCtx, "payment reviewed")
	return decided, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, userID)
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	transactions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, nil
}

func (s *service) ListByStatus(ctx context.Context, actor auth.Identity, status enums.TransactionStatus) ([]models.Transaction, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid transaction status")
	}
	transactions, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, nil
}

func (s *service) ListAll(ctx context.Context, actor auth.Identity) ([]models.Transaction, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	transactions, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return transactions, nil
}

// Overview is the admin dashboard aggregate: transaction counts and amount
// totals grouped by status.
func (s *service) Overview(ctx context.Context, actor auth.Identity) ([]StatusSummary, error) {
	if actor.Role != enums.UserRoleAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
	}
	summary, err := s.repo.SummarizeByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summarize transactions")
	}
	return summary, nil
}
