package credits

import (
	"context"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

// UseCase is the billing boundary the pipeline charges against.
type UseCase interface {
	CalculateCredits(duration time.Duration) int64
	HasSufficient(ctx context.Context, orgID uuid.UUID, duration time.Duration) (bool, error)
	Charge(ctx context.Context, orgID, projectID uuid.UUID, duration time.Duration, txType models.CreditTxType) (int64, error)
	Refund(ctx context.Context, orgID, projectID uuid.UUID, amount int64, failureEventID string) error
	Balance(ctx context.Context, orgID uuid.UUID) (int64, error)
	Transactions(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.CreditTransaction, error)
}
