package models

import (
	"time"

	"github.com/google/uuid"
)

type CreditTxType string

const (
	TxDeductionClips    CreditTxType = "DEDUCTION_CLIPS"
	TxDeductionCaptions CreditTxType = "DEDUCTION_CAPTIONS"
	TxDeductionReframe  CreditTxType = "DEDUCTION_REFRAME"
	TxRefund            CreditTxType = "REFUND"
)

// CreditTransaction is one ledger row. Reference is unique and carries the
// idempotency key for refunds.
type CreditTransaction struct {
	TxID          uuid.UUID    `json:"tx_id" db:"tx_id"`
	OrgID         uuid.UUID    `json:"org_id" db:"org_id"`
	ProjectID     uuid.UUID    `json:"project_id" db:"project_id"`
	Type          CreditTxType `json:"type" db:"type"`
	Amount        int64        `json:"amount" db:"amount"`
	BalanceBefore int64        `json:"balance_before" db:"balance_before"`
	BalanceAfter  int64        `json:"balance_after" db:"balance_after"`
	Reference     string       `json:"reference" db:"reference"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

type Organization struct {
	OrgID     uuid.UUID `json:"org_id" db:"org_id"`
	Name      string    `json:"name" db:"name"`
	Tier      Tier      `json:"tier" db:"tier"`
	Credits   int64     `json:"credits" db:"credits"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
