package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/logger"
	"github.com/clipforge/pipeline/pkg/utils"
)

// Handler processes jobs for one stage.
type Handler interface {
	Stage() Stage
	Handle(ctx context.Context, job *models.PipelineJob) error
}

// FailureFunc runs once per exhausted job. permanent distinguishes input
// errors from unexpected ones.
type FailureFunc func(ctx context.Context, job *models.PipelineJob, jobErr error, permanent bool)

type Worker struct {
	cfg       *config.Config
	repo      QueueRepository
	orch      *Orchestrator
	handlers  map[Stage]Handler
	onFailure FailureFunc
	logger    logger.Logger
	wg        sync.WaitGroup
}

func NewWorker(cfg *config.Config, repo QueueRepository, orch *Orchestrator, onFailure FailureFunc, logger logger.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		repo:      repo,
		orch:      orch,
		handlers:  make(map[Stage]Handler),
		onFailure: onFailure,
		logger:    logger,
	}
}

func (w *Worker) Register(h Handler) {
	w.handlers[h.Stage()] = h
}

// Start spins up a promoter and a bounded pool per registered stage and
// blocks until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	for stage := range w.handlers {
		qc := Queues[stage]
		w.wg.Add(1)
		go w.promoteLoop(ctx, qc)
		for i := 0; i < qc.Concurrency; i++ {
			w.wg.Add(1)
			go w.workLoop(ctx, qc)
		}
	}
	w.wg.Wait()
}

func (w *Worker) promoteLoop(ctx context.Context, qc QueueConfig) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.cfg.Worker.PromoteInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.repo.PromoteDue(ctx, qc.Stage, time.Now()); err != nil && ctx.Err() == nil {
				w.logger.Errorf("promote %s: %v", qc.Stage, err)
			}
		}
	}
}

func (w *Worker) workLoop(ctx context.Context, qc QueueConfig) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if qc.CPUBound {
				if ok, usage := utils.CheckCPUUsage(w.cfg.Worker.MaxCPUUsage); !ok {
					w.logger.Infof("CPU usage is high: %.2f, backing off %s", usage, qc.Stage)
					time.Sleep(w.cfg.Worker.PollTimeout)
					continue
				}
			}
			w.processOne(ctx, qc)
		}
	}
}

func (w *Worker) processOne(ctx context.Context, qc QueueConfig) {
	jobID, err := w.repo.PopReady(ctx, qc.Stage, w.cfg.Worker.PollTimeout)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Errorf("pop %s: %v", qc.Stage, err)
		}
		return
	}
	if jobID == "" {
		return
	}

	locked, err := w.repo.TryAcquire(ctx, lockKey(jobID), qc.Lock())
	if err != nil {
		w.logger.Errorf("lock %s: %v", jobID, err)
		return
	}
	if !locked {
		// Another worker holds this job, park it briefly.
		if err := w.repo.ScheduleDelayed(ctx, qc.Stage, jobID, time.Now().Add(qc.Lock())); err != nil {
			w.logger.Errorf("park %s: %v", jobID, err)
		}
		return
	}
	defer w.repo.Release(ctx, lockKey(jobID))

	job, err := w.repo.GetJob(ctx, jobID)
	if err != nil || job == nil {
		if err != nil {
			w.logger.Errorf("load %s: %v", jobID, err)
		}
		w.repo.Release(ctx, pendingKey(jobID))
		return
	}

	handler, ok := w.handlers[qc.Stage]
	if !ok {
		w.logger.Errorf("no handler registered for %s", qc.Stage)
		return
	}

	job.Attempts++
	job.StartedAt = time.Now()
	if err := w.repo.SaveJob(ctx, job); err != nil {
		w.logger.Errorf("save %s: %v", jobID, err)
		return
	}
	w.repo.MarkActive(ctx, qc.Stage, jobID)
	defer w.repo.ClearActive(ctx, qc.Stage, jobID)

	w.logger.Infof("processing %s attempt %d", jobID, job.Attempts)
	handleCtx, cancel := context.WithTimeout(ctx, qc.Timeout())
	stopHeartbeat := w.keepLockAlive(handleCtx, lockKey(jobID), qc.Lock())
	handleErr := handler.Handle(handleCtx, job)
	stopHeartbeat()
	cancel()

	if handleErr == nil {
		w.complete(ctx, job)
		return
	}
	w.retryOrFail(ctx, qc, job, handleErr)
}

// keepLockAlive renews the job lock at half its TTL for as long as the
// handler runs. Handlers may legitimately outlive the lock window, so the
// lock fences other workers rather than bounding runtime.
func (w *Worker) keepLockAlive(ctx context.Context, key string, ttl time.Duration) func() {
	hbCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-hbCtx.Done():
				return
			case <-ticker.C:
				if err := w.repo.ExtendLock(hbCtx, key, ttl); err != nil && hbCtx.Err() == nil {
					w.logger.Errorf("extend lock %s: %v", key, err)
				}
			}
		}
	}()
	return func() {
		stop()
		<-done
	}
}

func (w *Worker) complete(ctx context.Context, job *models.PipelineJob) {
	if err := w.orch.Complete(ctx, job); err != nil {
		w.logger.Errorf("complete %s: %v", job.JobID, err)
	}
	next, chained, err := w.orch.EnqueueNext(ctx, job, OutcomeCompleted)
	if err != nil {
		w.logger.Errorf("chain %s -> %s: %v", job.JobID, next, err)
		return
	}
	if chained {
		w.logger.Infof("job %s completed, chained to %s", job.JobID, next)
	} else {
		w.logger.Infof("job %s completed, pipeline done", job.JobID)
	}
}

func (w *Worker) retryOrFail(ctx context.Context, qc QueueConfig, job *models.PipelineJob, handleErr error) {
	permanent := IsPermanent(handleErr)
	job.LastError = handleErr.Error()

	if !permanent && job.Attempts < qc.MaxAttempts {
		delay := BackoffDelay(qc.Backoff, job.Attempts)
		w.logger.Warnf("job %s attempt %d failed, retrying in %s: %v", job.JobID, job.Attempts, delay, handleErr)
		if err := w.repo.SaveJob(ctx, job); err != nil {
			w.logger.Errorf("save %s: %v", job.JobID, err)
		}
		if err := w.repo.ScheduleDelayed(ctx, qc.Stage, job.JobID, time.Now().Add(delay)); err != nil {
			w.logger.Errorf("schedule retry %s: %v", job.JobID, err)
		}
		return
	}

	w.logger.Errorf("job %s failed after %d attempts: %v", job.JobID, job.Attempts, handleErr)
	if err := w.repo.SaveJob(ctx, job); err != nil {
		w.logger.Errorf("save %s: %v", job.JobID, err)
	}
	if err := w.repo.MarkFailed(ctx, qc.Stage, job.JobID); err != nil {
		w.logger.Errorf("mark failed %s: %v", job.JobID, err)
	}
	w.repo.Release(ctx, pendingKey(job.JobID))
	if w.onFailure != nil {
		w.onFailure(ctx, job, handleErr, permanent)
	}
}
