package credits

import (
	"context"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
)

// Repository is the credit ledger store.
type Repository interface {
	GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)
	Deduct(ctx context.Context, orgID, projectID uuid.UUID, amount int64, txType models.CreditTxType, reference string) (*models.CreditTransaction, error)
	Refund(ctx context.Context, orgID, projectID uuid.UUID, amount int64, reference string) (*models.CreditTransaction, error)
	ListTransactions(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.CreditTransaction, error)
}
