package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/logger"
	"github.com/google/uuid"
)

type creditsUC struct {
	cfg        *config.Config
	ledgerRepo credits.Repository
	redisRepo  credits.RedisRepository
	logger     logger.Logger
}

func NewCreditsUseCase(
	cfg *config.Config,
	ledgerRepo credits.Repository,
	redisRepo credits.RedisRepository,
	log logger.Logger,
) credits.UseCase {
	return &creditsUC{
		cfg:        cfg,
		ledgerRepo: ledgerRepo,
		redisRepo:  redisRepo,
		logger:     log,
	}
}

// CalculateCredits prices one credit per minute of source video. Anything
// under a minute costs one credit; partial minutes beyond that are free.
func (c *creditsUC) CalculateCredits(duration time.Duration) int64 {
	if duration <= 0 {
		return 0
	}
	minutes := int64(duration / time.Minute)
	if minutes < 1 {
		return 1
	}
	return minutes
}

// HasSufficient checks the org can cover a pipeline run before any job is
// queued. An unknown source duration is priced at the one credit minimum.
func (c *creditsUC) HasSufficient(ctx context.Context, orgID uuid.UUID, duration time.Duration) (bool, error) {
	required := c.CalculateCredits(duration)
	if required == 0 {
		required = 1
	}
	balance, err := c.Balance(ctx, orgID)
	if err != nil {
		return false, err
	}
	return balance >= required, nil
}

func (c *creditsUC) Charge(ctx context.Context, orgID, projectID uuid.UUID, duration time.Duration, txType models.CreditTxType) (int64, error) {
	amount := c.CalculateCredits(duration)
	if amount == 0 {
		return 0, nil
	}
	reference := fmt.Sprintf("charge:%s:%s", projectID, txType)
	ledger, err := c.ledgerRepo.Deduct(ctx, orgID, projectID, amount, txType, reference)
	if err != nil {
		c.logger.Errorf("Charge - Deduct error for project %s: %v", projectID, err)
		return 0, err
	}
	if ledger == nil {
		c.logger.Infof("project %s already charged, skipping", projectID)
		return amount, nil
	}
	c.logger.Infof("charged %d credits to org %s for project %s (balance %d -> %d)",
		amount, orgID, projectID, ledger.BalanceBefore, ledger.BalanceAfter)

	c.maybeWarn(ctx, orgID, ledger.BalanceAfter)
	return amount, nil
}

func (c *creditsUC) Refund(ctx context.Context, orgID, projectID uuid.UUID, amount int64, failureEventID string) error {
	if amount <= 0 {
		return nil
	}
	reference := fmt.Sprintf("refund:%s:%s", projectID, failureEventID)
	ledger, err := c.ledgerRepo.Refund(ctx, orgID, projectID, amount, reference)
	if err != nil {
		c.logger.Errorf("Refund - ledger error for project %s: %v", projectID, err)
		return err
	}
	if ledger == nil {
		c.logger.Infof("refund %s already applied, skipping", reference)
		return nil
	}
	c.logger.Infof("refunded %d credits to org %s for project %s", amount, orgID, projectID)
	return nil
}

func (c *creditsUC) Balance(ctx context.Context, orgID uuid.UUID) (int64, error) {
	org, err := c.ledgerRepo.GetOrganization(ctx, orgID)
	if err != nil {
		c.logger.Errorf("Balance - GetOrganization error: %v", err)
		return 0, err
	}
	return org.Credits, nil
}

func (c *creditsUC) Transactions(ctx context.Context, orgID uuid.UUID, limit int) ([]*models.CreditTransaction, error) {
	if limit < 1 || limit > 200 {
		limit = 50
	}
	txs, err := c.ledgerRepo.ListTransactions(ctx, orgID, limit)
	if err != nil {
		c.logger.Errorf("Transactions - ListTransactions error: %v", err)
		return nil, err
	}
	return txs, nil
}

// maybeWarn logs a low-balance warning at most once per org per month.
func (c *creditsUC) maybeWarn(ctx context.Context, orgID uuid.UUID, balance int64) {
	threshold := c.cfg.Credits.LowBalanceThreshold
	if threshold <= 0 || balance >= threshold {
		return
	}
	period := time.Now().UTC().Format("2006-01")
	first, err := c.redisRepo.MarkWarned(ctx, orgID, period)
	if err != nil {
		c.logger.Errorf("maybeWarn - MarkWarned error: %v", err)
		return
	}
	if first {
		c.logger.Warnf("org %s balance %d below threshold %d", orgID, balance, threshold)
	}
}
