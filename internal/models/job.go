package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PipelineJob is the unit of work flowing through the stage queues. JobID is
// deterministic per (stage, project) so re-submissions coalesce instead of
// duplicating work.
type PipelineJob struct {
	JobID      string          `json:"job_id"`
	Stage      string          `json:"stage"`
	Kind       PipelineKind    `json:"pipeline_kind"`
	ProjectID  uuid.UUID       `json:"project_id"`
	OrgID      uuid.UUID       `json:"org_id"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Priority   int             `json:"priority"`
	Attempts   int             `json:"attempts"`
	LastError  string          `json:"last_error,omitempty"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
}

func (j *PipelineJob) MarshalBinary() ([]byte, error) {
	return json.Marshal(j)
}

func (j *PipelineJob) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, j)
}

// ImportPayload rides on video-import jobs. SourceURL is either an http(s)
// URL or an s3:// key inside the service bucket.
type ImportPayload struct {
	SourceURL string `json:"source_url"`
}

// ExportPayload rides on clip-export jobs.
type ExportPayload struct {
	ExportID uuid.UUID `json:"export_id"`
}

type QueueMetrics struct {
	Queue    string `json:"queue"`
	Priority int    `json:"priority"`
	Waiting  int64  `json:"waiting"`
	Active   int64  `json:"active"`
	Delayed  int64  `json:"delayed"`
	Failed   int64  `json:"failed"`
}
