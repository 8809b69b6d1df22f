package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/go-redis/redis/v8"
)

const (
	jobKeyPrefix  = "jobs:data:"
	readySuffix   = ":ready"
	delayedSuffix = ":delayed"
	activeSuffix  = ":active"
	failedSuffix  = ":failed"
	queuePrefix   = "queue:"
)

type queueRedisRepo struct {
	redisClient *redis.Client
}

func NewQueueRedisRepo(redisClient *redis.Client) pipeline.QueueRepository {
	return &queueRedisRepo{
		redisClient: redisClient,
	}
}

func readyKey(stage pipeline.Stage) string   { return queuePrefix + string(stage) + readySuffix }
func delayedKey(stage pipeline.Stage) string { return queuePrefix + string(stage) + delayedSuffix }
func activeKey(stage pipeline.Stage) string  { return queuePrefix + string(stage) + activeSuffix }
func failedKey(stage pipeline.Stage) string  { return queuePrefix + string(stage) + failedSuffix }

func (q *queueRedisRepo) SaveJob(ctx context.Context, job *models.PipelineJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.redisClient.Set(ctx, jobKeyPrefix+job.JobID, data, 0).Err()
}

func (q *queueRedisRepo) GetJob(ctx context.Context, jobID string) (*models.PipelineJob, error) {
	data, err := q.redisClient.Get(ctx, jobKeyPrefix+jobID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	job := &models.PipelineJob{}
	if err = json.Unmarshal([]byte(data), job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}
	return job, nil
}

func (q *queueRedisRepo) DeleteJob(ctx context.Context, jobID string) error {
	return q.redisClient.Del(ctx, jobKeyPrefix+jobID).Err()
}

func (q *queueRedisRepo) PushReady(ctx context.Context, stage pipeline.Stage, jobID string) error {
	return q.redisClient.LPush(ctx, readyKey(stage), jobID).Err()
}

func (q *queueRedisRepo) PopReady(ctx context.Context, stage pipeline.Stage, timeout time.Duration) (string, error) {
	res, err := q.redisClient.BRPop(ctx, timeout, readyKey(stage)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to pop from %s: %w", stage, err)
	}
	return res[1], nil
}

func (q *queueRedisRepo) ScheduleDelayed(ctx context.Context, stage pipeline.Stage, jobID string, readyAt time.Time) error {
	return q.redisClient.ZAdd(ctx, delayedKey(stage), &redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: jobID,
	}).Err()
}

// PromoteDue moves delayed jobs whose ready time has passed onto the ready
// list. Returns the number promoted.
func (q *queueRedisRepo) PromoteDue(ctx context.Context, stage pipeline.Stage, now time.Time) (int, error) {
	due, err := q.redisClient.ZRangeByScore(ctx, delayedKey(stage), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read delayed jobs for %s: %w", stage, err)
	}
	promoted := 0
	for _, jobID := range due {
		removed, err := q.redisClient.ZRem(ctx, delayedKey(stage), jobID).Result()
		if err != nil {
			return promoted, fmt.Errorf("failed to remove delayed job %s: %w", jobID, err)
		}
		if removed == 0 {
			continue
		}
		if err := q.redisClient.LPush(ctx, readyKey(stage), jobID).Err(); err != nil {
			return promoted, fmt.Errorf("failed to promote job %s: %w", jobID, err)
		}
		promoted++
	}
	return promoted, nil
}

func (q *queueRedisRepo) TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return q.redisClient.SetNX(ctx, key, 1, ttl).Result()
}

func (q *queueRedisRepo) ExtendLock(ctx context.Context, key string, ttl time.Duration) error {
	return q.redisClient.PExpire(ctx, key, ttl).Err()
}

func (q *queueRedisRepo) Release(ctx context.Context, key string) error {
	return q.redisClient.Del(ctx, key).Err()
}

func (q *queueRedisRepo) MarkActive(ctx context.Context, stage pipeline.Stage, jobID string) error {
	return q.redisClient.SAdd(ctx, activeKey(stage), jobID).Err()
}

func (q *queueRedisRepo) ClearActive(ctx context.Context, stage pipeline.Stage, jobID string) error {
	return q.redisClient.SRem(ctx, activeKey(stage), jobID).Err()
}

func (q *queueRedisRepo) MarkFailed(ctx context.Context, stage pipeline.Stage, jobID string) error {
	return q.redisClient.LPush(ctx, failedKey(stage), jobID).Err()
}

func (q *queueRedisRepo) Metrics(ctx context.Context, stage pipeline.Stage) (*models.QueueMetrics, error) {
	pipe := q.redisClient.Pipeline()
	waiting := pipe.LLen(ctx, readyKey(stage))
	delayed := pipe.ZCard(ctx, delayedKey(stage))
	active := pipe.SCard(ctx, activeKey(stage))
	failed := pipe.LLen(ctx, failedKey(stage))
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to collect metrics for %s: %w", stage, err)
	}
	return &models.QueueMetrics{
		Queue:   string(stage),
		Waiting: waiting.Val(),
		Delayed: delayed.Val(),
		Active:  active.Val(),
		Failed:  failed.Val(),
	}, nil
}
