package pipeline

import (
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/google/uuid"
)

// Stage names double as queue names in Redis.
type Stage string

const (
	StageImport        Stage = "video-import"
	StageTranscription Stage = "transcription"
	StageDetection     Stage = "clip-detection"
	StageClipExport    Stage = "clip-export"
	StageCaptionExport Stage = "caption-export"
	StageReframe       Stage = "reframe"
)

type QueueConfig struct {
	Stage          Stage
	Concurrency    int
	Priority       int
	MaxAttempts    int
	Backoff        time.Duration
	LockDuration   time.Duration
	HandlerTimeout time.Duration
	CPUBound       bool
}

// Queue settings per stage. Export-class stages run long, so they get fewer
// attempts, a slower backoff and a five minute lock. The lock only fences
// other workers and is renewed while a handler runs; the handler timeout is
// the actual runtime ceiling.
var Queues = map[Stage]QueueConfig{
	StageImport: {
		Stage:          StageImport,
		Concurrency:    3,
		Priority:       1,
		MaxAttempts:    3,
		Backoff:        2 * time.Second,
		HandlerTimeout: 15 * time.Minute,
	},
	StageTranscription: {
		Stage:          StageTranscription,
		Concurrency:    2,
		Priority:       2,
		MaxAttempts:    3,
		Backoff:        2 * time.Second,
		HandlerTimeout: 20 * time.Minute,
	},
	StageDetection: {
		Stage:       StageDetection,
		Concurrency: 5,
		Priority:    3,
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
	},
	StageClipExport: {
		Stage:          StageClipExport,
		Concurrency:    2,
		Priority:       2,
		MaxAttempts:    2,
		Backoff:        5 * time.Second,
		LockDuration:   5 * time.Minute,
		HandlerTimeout: 30 * time.Minute,
		CPUBound:       true,
	},
	StageCaptionExport: {
		Stage:          StageCaptionExport,
		Concurrency:    2,
		Priority:       2,
		MaxAttempts:    2,
		Backoff:        5 * time.Second,
		LockDuration:   5 * time.Minute,
		HandlerTimeout: 30 * time.Minute,
		CPUBound:       true,
	},
	StageReframe: {
		Stage:          StageReframe,
		Concurrency:    2,
		Priority:       2,
		MaxAttempts:    2,
		Backoff:        5 * time.Second,
		LockDuration:   5 * time.Minute,
		HandlerTimeout: 30 * time.Minute,
		CPUBound:       true,
	},
}

const (
	defaultLockDuration   = time.Minute
	defaultHandlerTimeout = 10 * time.Minute
)

func (c QueueConfig) Lock() time.Duration {
	if c.LockDuration > 0 {
		return c.LockDuration
	}
	return defaultLockDuration
}

func (c QueueConfig) Timeout() time.Duration {
	if c.HandlerTimeout > 0 {
		return c.HandlerTimeout
	}
	return defaultHandlerTimeout
}

// JobID is deterministic so the same stage for the same project coalesces
// into one queued job.
func JobID(stage Stage, projectID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", stage, projectID)
}

// BackoffDelay grows exponentially with the attempt number (1-based).
func BackoffDelay(initial time.Duration, attempt int) time.Duration {
	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
	}
	return delay
}

// Phase each stage runs under while active.
var stagePhases = map[Stage]models.Phase{
	StageImport:        models.PhaseImporting,
	StageTranscription: models.PhaseTranscribing,
	StageDetection:     models.PhaseDetecting,
	StageCaptionExport: models.PhaseRendering,
	StageReframe:       models.PhaseReframing,
}

// ActivePhase returns the project phase a stage should record when it starts,
// or false when the stage does not touch the project phase (clip exports run
// against an already READY project).
func ActivePhase(stage Stage) (models.Phase, bool) {
	p, ok := stagePhases[stage]
	return p, ok
}
