package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const warnedTTL = 35 * 24 * time.Hour

type creditsRedisRepo struct {
	redisClient *redis.Client
}

func NewCreditsRedisRepo(redisClient *redis.Client) credits.RedisRepository {
	return &creditsRedisRepo{
		redisClient: redisClient,
	}
}

// MarkWarned returns true the first time an org is flagged for a period.
func (c *creditsRedisRepo) MarkWarned(ctx context.Context, orgID uuid.UUID, period string) (bool, error) {
	key := fmt.Sprintf("credits:warned:%s:%s", orgID, period)
	first, err := c.redisClient.SetNX(ctx, key, 1, warnedTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark warning for %s: %w", orgID, err)
	}
	return first, nil
}
