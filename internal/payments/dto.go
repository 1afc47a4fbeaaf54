package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitManualInput is a bank-transfer style top-up with an uploaded proof
// of payment awaiting admin review.
type SubmitManualInput struct {
	UserID        uuid.UUID       `json:"userId" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	ProofFileName string          `json:"proofFileName" validate:"required"`
	ProofContent  []byte          `json:"-" validate:"required"`
}

// InitiateAutomaticInput starts a gateway-hosted top-up.
type InitiateAutomaticInput struct {
	UserID  uuid.UUID       `json:"userId" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Gateway string          `json:"gateway" validate:"required"`
}

// ApproveInput is an admin decision on a pending transaction.
type ApproveInput struct {
	AdminID       uuid.UUID `json:"adminId" validate:"required"`
	TransactionID uuid.UUID `json:"transactionId" validate:"required"`
	Approve       bool      `json:"approve"`
}
