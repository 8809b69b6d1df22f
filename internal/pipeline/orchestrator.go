package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/logger"
)

const pendingTTL = 24 * time.Hour

func pendingKey(jobID string) string { return "jobs:pending:" + jobID }
func lockKey(jobID string) string    { return "jobs:lock:" + jobID }

// Orchestrator is the single entry point for queueing pipeline stages.
// Submitting a stage that is already queued for the same project coalesces
// into the existing job with the newer payload.
type Orchestrator struct {
	repo   QueueRepository
	logger logger.Logger
}

func NewOrchestrator(repo QueueRepository, logger logger.Logger) *Orchestrator {
	return &Orchestrator{
		repo:   repo,
		logger: logger,
	}
}

func (o *Orchestrator) Enqueue(ctx context.Context, stage Stage, job *models.PipelineJob) (*models.PipelineJob, error) {
	cfg, ok := Queues[stage]
	if !ok {
		return nil, fmt.Errorf("unknown pipeline stage %q", stage)
	}
	job.Stage = string(stage)
	job.JobID = JobID(stage, job.ProjectID)
	job.Priority = cfg.Priority
	job.EnqueuedAt = time.Now()

	acquired, err := o.repo.TryAcquire(ctx, pendingKey(job.JobID), pendingTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve job %s: %w", job.JobID, err)
	}
	if err = o.repo.SaveJob(ctx, job); err != nil {
		if acquired {
			o.repo.Release(ctx, pendingKey(job.JobID))
		}
		return nil, fmt.Errorf("failed to save job %s: %w", job.JobID, err)
	}
	if !acquired {
		o.logger.Infof("job %s already queued, coalesced payload", job.JobID)
		return job, nil
	}
	if err = o.repo.PushReady(ctx, stage, job.JobID); err != nil {
		return nil, fmt.Errorf("failed to queue job %s: %w", job.JobID, err)
	}
	o.logger.Infof("queued %s for project %s", stage, job.ProjectID)
	return job, nil
}

// EnqueueNext routes a finished job to its follow-up stage, if the pipeline
// has one. The follow-up inherits project, org and pipeline kind; payload is
// whatever the finishing handler left on the job.
func (o *Orchestrator) EnqueueNext(ctx context.Context, job *models.PipelineJob, outcome Outcome) (Stage, bool, error) {
	next, ok := Route(job.Kind, Stage(job.Stage), outcome)
	if !ok {
		return "", false, nil
	}
	nextJob := &models.PipelineJob{
		Kind:      job.Kind,
		ProjectID: job.ProjectID,
		OrgID:     job.OrgID,
		Payload:   job.Payload,
	}
	if _, err := o.Enqueue(ctx, next, nextJob); err != nil {
		return next, true, err
	}
	return next, true, nil
}

// Complete removes a finished job so its deterministic ID can be reused.
func (o *Orchestrator) Complete(ctx context.Context, job *models.PipelineJob) error {
	if err := o.repo.DeleteJob(ctx, job.JobID); err != nil {
		return err
	}
	return o.repo.Release(ctx, pendingKey(job.JobID))
}

func (o *Orchestrator) Metrics(ctx context.Context) ([]*models.QueueMetrics, error) {
	stages := []Stage{StageImport, StageTranscription, StageDetection, StageClipExport, StageCaptionExport, StageReframe}
	out := make([]*models.QueueMetrics, 0, len(stages))
	for _, stage := range stages {
		m, err := o.repo.Metrics(ctx, stage)
		if err != nil {
			return nil, err
		}
		m.Priority = Queues[stage].Priority
		out = append(out, m)
	}
	return out, nil
}
