package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type creditsRepo struct {
	db *sqlx.DB
}

func NewCreditsRepo(db *sqlx.DB) credits.Repository {
	return &creditsRepo{
		db: db,
	}
}

func (c *creditsRepo) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	if err := c.db.QueryRowxContext(ctx, getOrganizationQuery, orgID).StructScan(org); err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// Deduct charges an org inside one transaction: balance check, ledger row
// and project credits_used all commit together. A reference collision means
// the project was already charged; the call is a no-op returning nil, nil.
func (c *creditsRepo) Deduct(ctx context.Context, orgID, projectID uuid.UUID, amount int64, txType models.CreditTxType, reference string) (*models.CreditTransaction, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin deduct tx: %w", err)
	}
	defer tx.Rollback()

	org := &models.Organization{}
	if err = tx.QueryRowxContext(ctx, getOrganizationForUpdateQuery, orgID).StructScan(org); err != nil {
		return nil, fmt.Errorf("failed to lock organization: %w", err)
	}
	if org.Credits < amount {
		return nil, credits.ErrInsufficientCredits
	}

	ledger := &models.CreditTransaction{}
	err = tx.QueryRowxContext(
		ctx,
		insertTransactionQuery,
		orgID,
		projectID,
		txType,
		amount,
		org.Credits,
		org.Credits-amount,
		reference,
	).StructScan(ledger)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert deduction: %w", err)
	}

	if _, err = tx.ExecContext(ctx, deductBalanceQuery, orgID, amount); err != nil {
		return nil, fmt.Errorf("failed to deduct balance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, setProjectCreditsQuery, projectID, amount); err != nil {
		return nil, fmt.Errorf("failed to record project credits: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit deduction: %w", err)
	}
	return ledger, nil
}

// Refund credits back. The unique reference makes the refund exactly-once:
// a second call with the same reference hits the conflict and returns
// nil, nil without touching the balance.
func (c *creditsRepo) Refund(ctx context.Context, orgID, projectID uuid.UUID, amount int64, reference string) (*models.CreditTransaction, error) {
	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin refund tx: %w", err)
	}
	defer tx.Rollback()

	org := &models.Organization{}
	if err = tx.QueryRowxContext(ctx, getOrganizationForUpdateQuery, orgID).StructScan(org); err != nil {
		return nil, fmt.Errorf("failed to lock organization: %w", err)
	}

	ledger := &models.CreditTransaction{}
	err = tx.QueryRowxContext(
		ctx,
		insertTransactionQuery,
		orgID,
		projectID,
		models.TxRefund,
		amount,
		org.Credits,
		org.Credits+amount,
		reference,
	).StructScan(ledger)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to insert refund: %w", err)
	}

	if _, err = tx.ExecContext(ctx, refundBalanceQuery, orgID, amount); err != nil {
		return nil, fmt.Errorf("failed to refund balance: %w", err)
	}
	if _, err = tx.ExecContext(ctx, setProjectCreditsQuery, projectID, 0); err != nil {
		return nil, fmt.Errorf("failed to clear project credits: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit refund: %w", err)
	}
	return ledger, nil
}

func (c *creditsRepo) ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.CreditTransaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := c.db.QueryxContext(ctx, listTransactionsQuery, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()
	txs := make([]*models.CreditTransaction, 0, limit)
	for rows.Next() {
		var t models.CreditTransaction
		if err = rows.StructScan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, &t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan transactions: %w", err)
	}
	return txs, nil
}
