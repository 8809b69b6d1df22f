package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type stubHandler struct {
	stage Stage
	errs  []error
	calls int
}

func (s *stubHandler) Stage() Stage { return s.stage }

func (s *stubHandler) Handle(_ context.Context, _ *models.PipelineJob) error {
	s.calls++
	if s.calls <= len(s.errs) {
		return s.errs[s.calls-1]
	}
	return nil
}

func newTestWorker(repo QueueRepository, onFailure FailureFunc) (*Worker, *Orchestrator) {
	cfg := &config.Config{}
	cfg.Worker.PromoteInterval = time.Millisecond
	cfg.Worker.PollTimeout = time.Millisecond
	orch := NewOrchestrator(repo, nopLogger{})
	return NewWorker(cfg, repo, orch, onFailure, nopLogger{}), orch
}

// TestWorkerCompletesAndChains runs one import job and expects the follow-up
// stage to be queued through the router.
func TestWorkerCompletesAndChains(t *testing.T) {
	repo := newFakeQueueRepo()
	w, orch := newTestWorker(repo, nil)
	handler := &stubHandler{stage: StageImport}
	w.Register(handler)
	ctx := context.Background()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
	if _, err := orch.Enqueue(ctx, StageImport, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.processOne(ctx, Queues[StageImport])

	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1", handler.calls)
	}
	if n := repo.readyLen(StageTranscription); n != 1 {
		t.Fatalf("transcription ready = %d, want 1 chained job", n)
	}
	if got, _ := repo.GetJob(ctx, JobID(StageImport, job.ProjectID)); got != nil {
		t.Fatal("completed job should be deleted")
	}
}

// TestWorkerRetriesTransientWithBackoff fails once and checks the retry is
// parked on the delayed set with the initial backoff.
func TestWorkerRetriesTransientWithBackoff(t *testing.T) {
	repo := newFakeQueueRepo()
	w, orch := newTestWorker(repo, nil)
	handler := &stubHandler{stage: StageTranscription, errs: []error{errors.New("provider timeout")}}
	w.Register(handler)
	ctx := context.Background()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
	if _, err := orch.Enqueue(ctx, StageTranscription, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	before := time.Now()
	w.processOne(ctx, Queues[StageTranscription])

	jobID := JobID(StageTranscription, job.ProjectID)
	readyAt, ok := repo.delayed[StageTranscription][jobID]
	if !ok {
		t.Fatal("transient failure should schedule a delayed retry")
	}
	delay := readyAt.Sub(before)
	if delay < 2*time.Second || delay > 3*time.Second {
		t.Fatalf("first retry delay = %s, want ~2s", delay)
	}

	stored, _ := repo.GetJob(ctx, jobID)
	if stored.Attempts != 1 || stored.LastError == "" {
		t.Fatalf("job bookkeeping wrong: %+v", stored)
	}

	// Promote and run again, this time the handler succeeds.
	repo.PromoteDue(ctx, StageTranscription, time.Now().Add(time.Minute))
	w.processOne(ctx, Queues[StageTranscription])
	if handler.calls != 2 {
		t.Fatalf("handler calls = %d, want 2", handler.calls)
	}
	if n := repo.readyLen(StageDetection); n != 1 {
		t.Fatalf("detection ready = %d, want 1 after recovery", n)
	}
}

type slowHandler struct {
	stage   Stage
	runFor  time.Duration
	ctxErrs []error
}

func (s *slowHandler) Stage() Stage { return s.stage }

func (s *slowHandler) Handle(ctx context.Context, _ *models.PipelineJob) error {
	select {
	case <-time.After(s.runFor):
	case <-ctx.Done():
	}
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return ctx.Err()
}

// TestWorkerRenewsLockDuringLongHandler runs a handler that outlives the lock
// TTL several times over and expects the worker to keep renewing the lock
// instead of cancelling the handler.
func TestWorkerRenewsLockDuringLongHandler(t *testing.T) {
	repo := newFakeQueueRepo()
	w, orch := newTestWorker(repo, nil)
	handler := &slowHandler{stage: StageClipExport, runFor: 60 * time.Millisecond}
	w.Register(handler)
	ctx := context.Background()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
	if _, err := orch.Enqueue(ctx, StageClipExport, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	qc := Queues[StageClipExport]
	qc.LockDuration = 10 * time.Millisecond
	w.processOne(ctx, qc)

	if len(handler.ctxErrs) != 1 || handler.ctxErrs[0] != nil {
		t.Fatalf("handler context errs = %v, want one nil", handler.ctxErrs)
	}
	jobID := JobID(StageClipExport, job.ProjectID)
	if repo.extendCount(lockKey(jobID)) == 0 {
		t.Fatal("lock was never renewed while the handler ran")
	}
	if len(repo.delayed[StageClipExport]) != 0 {
		t.Fatal("a successful long handler must not schedule a retry")
	}
	if got, _ := repo.GetJob(ctx, jobID); got != nil {
		t.Fatal("completed job should be deleted")
	}
}

// TestWorkerFailsPermanentImmediately checks input errors skip retries and
// invoke the failure hook exactly once.
func TestWorkerFailsPermanentImmediately(t *testing.T) {
	repo := newFakeQueueRepo()
	var failures int
	var gotPermanent bool
	w, orch := newTestWorker(repo, func(_ context.Context, _ *models.PipelineJob, _ error, permanent bool) {
		failures++
		gotPermanent = permanent
	})
	handler := &stubHandler{stage: StageTranscription, errs: []error{ErrNoSourceVideo, ErrNoSourceVideo, ErrNoSourceVideo}}
	w.Register(handler)
	ctx := context.Background()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
	if _, err := orch.Enqueue(ctx, StageTranscription, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w.processOne(ctx, Queues[StageTranscription])

	if handler.calls != 1 {
		t.Fatalf("handler calls = %d, want 1 for permanent error", handler.calls)
	}
	if failures != 1 || !gotPermanent {
		t.Fatalf("failure hook: calls=%d permanent=%v, want 1/true", failures, gotPermanent)
	}
	if len(repo.failed[StageTranscription]) != 1 {
		t.Fatal("job should be on the failed list")
	}
	if len(repo.delayed[StageTranscription]) != 0 {
		t.Fatal("permanent failure must not schedule retries")
	}
}

// TestWorkerExhaustsRetriesThenFails drives a transient error past the
// attempt limit.
func TestWorkerExhaustsRetriesThenFails(t *testing.T) {
	repo := newFakeQueueRepo()
	var failures int
	w, orch := newTestWorker(repo, func(_ context.Context, _ *models.PipelineJob, _ error, permanent bool) {
		failures++
		if permanent {
			t.Error("transient exhaustion should not be flagged permanent")
		}
	})
	boom := errors.New("ffmpeg crashed")
	handler := &stubHandler{stage: StageClipExport, errs: []error{boom, boom, boom}}
	w.Register(handler)
	ctx := context.Background()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
	if _, err := orch.Enqueue(ctx, StageClipExport, job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	qc := Queues[StageClipExport]
	for i := 0; i < qc.MaxAttempts; i++ {
		w.processOne(ctx, qc)
		repo.PromoteDue(ctx, StageClipExport, time.Now().Add(time.Hour))
	}

	if handler.calls != qc.MaxAttempts {
		t.Fatalf("handler calls = %d, want %d", handler.calls, qc.MaxAttempts)
	}
	if failures != 1 {
		t.Fatalf("failure hook calls = %d, want 1", failures)
	}
}
