package pipeline

import (
	"context"
	"time"

	"github.com/clipforge/pipeline/internal/models"
)

// QueueRepository is the Redis-backed queue state behind the orchestrator.
type QueueRepository interface {
	SaveJob(ctx context.Context, job *models.PipelineJob) error
	GetJob(ctx context.Context, jobID string) (*models.PipelineJob, error)
	DeleteJob(ctx context.Context, jobID string) error
	PushReady(ctx context.Context, stage Stage, jobID string) error
	PopReady(ctx context.Context, stage Stage, timeout time.Duration) (string, error)
	ScheduleDelayed(ctx context.Context, stage Stage, jobID string, readyAt time.Time) error
	PromoteDue(ctx context.Context, stage Stage, now time.Time) (int, error)
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ExtendLock(ctx context.Context, key string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
	MarkActive(ctx context.Context, stage Stage, jobID string) error
	ClearActive(ctx context.Context, stage Stage, jobID string) error
	MarkFailed(ctx context.Context, stage Stage, jobID string) error
	Metrics(ctx context.Context, stage Stage) (*models.QueueMetrics, error)
}
