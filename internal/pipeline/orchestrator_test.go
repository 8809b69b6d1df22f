package pipeline

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
)

type fakeQueueRepo struct {
	mu       sync.Mutex
	jobs     map[string]*models.PipelineJob
	ready    map[Stage][]string
	delayed  map[Stage]map[string]time.Time
	locks    map[string]bool
	extended map[string]int
	active   map[Stage]map[string]bool
	failed   map[Stage][]string
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{
		jobs:     make(map[string]*models.PipelineJob),
		ready:    make(map[Stage][]string),
		delayed:  make(map[Stage]map[string]time.Time),
		locks:    make(map[string]bool),
		extended: make(map[string]int),
		active:   make(map[Stage]map[string]bool),
		failed:   make(map[Stage][]string),
	}
}

func (f *fakeQueueRepo) SaveJob(_ context.Context, job *models.PipelineJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *job
	f.jobs[job.JobID] = &copied
	return nil
}

func (f *fakeQueueRepo) GetJob(_ context.Context, jobID string) (*models.PipelineJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, nil
	}
	copied := *job
	return &copied, nil
}

func (f *fakeQueueRepo) DeleteJob(_ context.Context, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.jobs, jobID)
	return nil
}

func (f *fakeQueueRepo) PushReady(_ context.Context, stage Stage, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ready[stage] = append(f.ready[stage], jobID)
	return nil
}

func (f *fakeQueueRepo) PopReady(_ context.Context, stage Stage, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	queue := f.ready[stage]
	if len(queue) == 0 {
		return "", nil
	}
	jobID := queue[0]
	f.ready[stage] = queue[1:]
	return jobID, nil
}

func (f *fakeQueueRepo) ScheduleDelayed(_ context.Context, stage Stage, jobID string, readyAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delayed[stage] == nil {
		f.delayed[stage] = make(map[string]time.Time)
	}
	f.delayed[stage][jobID] = readyAt
	return nil
}

func (f *fakeQueueRepo) PromoteDue(_ context.Context, stage Stage, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	promoted := 0
	for jobID, readyAt := range f.delayed[stage] {
		if !readyAt.After(now) {
			delete(f.delayed[stage], jobID)
			f.ready[stage] = append(f.ready[stage], jobID)
			promoted++
		}
	}
	return promoted, nil
}

func (f *fakeQueueRepo) TryAcquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[key] {
		return false, nil
	}
	f.locks[key] = true
	return true, nil
}

func (f *fakeQueueRepo) ExtendLock(_ context.Context, key string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extended[key]++
	return nil
}

func (f *fakeQueueRepo) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, key)
	return nil
}

func (f *fakeQueueRepo) MarkActive(_ context.Context, stage Stage, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[stage] == nil {
		f.active[stage] = make(map[string]bool)
	}
	f.active[stage][jobID] = true
	return nil
}

func (f *fakeQueueRepo) ClearActive(_ context.Context, stage Stage, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active[stage], jobID)
	return nil
}

func (f *fakeQueueRepo) MarkFailed(_ context.Context, stage Stage, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed[stage] = append(f.failed[stage], jobID)
	return nil
}

func (f *fakeQueueRepo) Metrics(_ context.Context, stage Stage) (*models.QueueMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.QueueMetrics{
		Queue:   string(stage),
		Waiting: int64(len(f.ready[stage])),
		Delayed: int64(len(f.delayed[stage])),
		Active:  int64(len(f.active[stage])),
		Failed:  int64(len(f.failed[stage])),
	}, nil
}

func (f *fakeQueueRepo) readyLen(stage Stage) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ready[stage])
}

func (f *fakeQueueRepo) extendCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.extended[key]
}

type nopLogger struct{}

func (nopLogger) InitLogger()                    {}
func (nopLogger) Debug(...interface{})           {}
func (nopLogger) Debugf(string, ...interface{})  {}
func (nopLogger) Info(...interface{})            {}
func (nopLogger) Infof(string, ...interface{})   {}
func (nopLogger) Warn(...interface{})            {}
func (nopLogger) Warnf(string, ...interface{})   {}
func (nopLogger) Error(...interface{})           {}
func (nopLogger) Errorf(string, ...interface{})  {}
func (nopLogger) DPanic(...interface{})          {}
func (nopLogger) DPanicf(string, ...interface{}) {}
func (nopLogger) Fatal(...interface{})           {}
func (nopLogger) Fatalf(string, ...interface{})  {}

// TestEnqueueDeduplicatesByProject verifies the deterministic job ID
// coalesces duplicate submissions.
func TestEnqueueDeduplicatesByProject(t *testing.T) {
	repo := newFakeQueueRepo()
	orch := NewOrchestrator(repo, nopLogger{})
	ctx := context.Background()
	projectID := uuid.New()

	first := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: projectID, Payload: json.RawMessage(`{"v":1}`)}
	if _, err := orch.Enqueue(ctx, StageImport, first); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: projectID, Payload: json.RawMessage(`{"v":2}`)}
	if _, err := orch.Enqueue(ctx, StageImport, second); err != nil {
		t.Fatalf("enqueue duplicate: %v", err)
	}

	if n := repo.readyLen(StageImport); n != 1 {
		t.Fatalf("ready queue length = %d, want 1", n)
	}
	stored, _ := repo.GetJob(ctx, JobID(StageImport, projectID))
	if stored == nil {
		t.Fatal("job not saved")
	}
	if string(stored.Payload) != `{"v":2}` {
		t.Fatalf("payload = %s, want coalesced latest", stored.Payload)
	}
}

// TestEnqueueDistinctProjectsDoNotCollide checks dedup scoping.
func TestEnqueueDistinctProjectsDoNotCollide(t *testing.T) {
	repo := newFakeQueueRepo()
	orch := NewOrchestrator(repo, nopLogger{})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}
		if _, err := orch.Enqueue(ctx, StageImport, job); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	if n := repo.readyLen(StageImport); n != 3 {
		t.Fatalf("ready queue length = %d, want 3", n)
	}
}

// TestCompleteFreesJobID verifies a completed job's ID can be reused.
func TestCompleteFreesJobID(t *testing.T) {
	repo := newFakeQueueRepo()
	orch := NewOrchestrator(repo, nopLogger{})
	ctx := context.Background()
	projectID := uuid.New()

	job := &models.PipelineJob{Kind: models.PipelineClip, ProjectID: projectID}
	queued, err := orch.Enqueue(ctx, StageImport, job)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := orch.Complete(ctx, queued); err != nil {
		t.Fatalf("complete: %v", err)
	}

	repo.ready[StageImport] = nil
	if _, err := orch.Enqueue(ctx, StageImport, &models.PipelineJob{Kind: models.PipelineClip, ProjectID: projectID}); err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if n := repo.readyLen(StageImport); n != 1 {
		t.Fatalf("ready queue length = %d, want 1 after completion", n)
	}
}

// TestMetricsReportQueuePriority checks the metrics surface carries each
// queue's configured priority alongside its depth counters.
func TestMetricsReportQueuePriority(t *testing.T) {
	repo := newFakeQueueRepo()
	orch := NewOrchestrator(repo, nopLogger{})
	ctx := context.Background()

	if _, err := orch.Enqueue(ctx, StageImport, &models.PipelineJob{Kind: models.PipelineClip, ProjectID: uuid.New()}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	metrics, err := orch.Metrics(ctx)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if len(metrics) != len(Queues) {
		t.Fatalf("metrics rows = %d, want %d", len(metrics), len(Queues))
	}
	for _, m := range metrics {
		want := Queues[Stage(m.Queue)].Priority
		if m.Priority != want {
			t.Fatalf("queue %s priority = %d, want %d", m.Queue, m.Priority, want)
		}
		if m.Queue == string(StageImport) && m.Waiting != 1 {
			t.Fatalf("import waiting = %d, want 1", m.Waiting)
		}
	}
}

// TestEnqueueNextFollowsRouter checks chaining goes through the routing
// table and inherits project identity.
func TestEnqueueNextFollowsRouter(t *testing.T) {
	repo := newFakeQueueRepo()
	orch := NewOrchestrator(repo, nopLogger{})
	ctx := context.Background()
	projectID := uuid.New()
	orgID := uuid.New()

	job := &models.PipelineJob{
		JobID:     JobID(StageImport, projectID),
		Stage:     string(StageImport),
		Kind:      models.PipelineCaption,
		ProjectID: projectID,
		OrgID:     orgID,
	}
	next, chained, err := orch.EnqueueNext(ctx, job, OutcomeCompleted)
	if err != nil {
		t.Fatalf("enqueue next: %v", err)
	}
	if !chained || next != StageTranscription {
		t.Fatalf("next = %s (%v), want transcription", next, chained)
	}
	queued, _ := repo.GetJob(ctx, JobID(StageTranscription, projectID))
	if queued == nil {
		t.Fatal("chained job not saved")
	}
	if queued.OrgID != orgID || queued.Kind != models.PipelineCaption {
		t.Fatalf("chained job lost identity: %+v", queued)
	}

	job.Stage = string(StageDetection)
	job.Kind = models.PipelineClip
	if _, chained, _ := orch.EnqueueNext(ctx, job, OutcomeCompleted); chained {
		t.Fatal("detection should not chain")
	}
}
