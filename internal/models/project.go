package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Plan tiers, lowest to highest. FREE exports carry a watermark.
type Tier string

const (
	TierFree       Tier = "FREE"
	TierStarter    Tier = "STARTER"
	TierPro        Tier = "PRO"
	TierBusiness   Tier = "BUSINESS"
	TierEnterprise Tier = "ENTERPRISE"
)

// Monthly credit allocation per tier.
var TierCredits = map[Tier]int64{
	TierFree:       60,
	TierStarter:    150,
	TierPro:        300,
	TierBusiness:   1000,
	TierEnterprise: 10000,
}

// Days a project is retained before it drops out of listings.
var TierRetentionDays = map[Tier]int{
	TierFree:       7,
	TierStarter:    30,
	TierPro:        90,
	TierBusiness:   180,
	TierEnterprise: 365,
}

func (t Tier) Paid() bool {
	return t != TierFree && t != ""
}

type Project struct {
	ProjectID   uuid.UUID    `json:"project_id" db:"project_id" validate:"omitempty"`
	OrgID       uuid.UUID    `json:"org_id" db:"org_id" validate:"omitempty"`
	Title       string       `json:"title" db:"title" validate:"required,lte=255"`
	SourceURL   string       `json:"source_url" db:"source_url" validate:"omitempty,lte=2048"`
	Kind        PipelineKind `json:"pipeline_kind" db:"pipeline_kind" validate:"required,oneof=clip caption reframe"`
	Phase       Phase        `json:"phase" db:"phase" validate:"omitempty"`
	Tier        Tier         `json:"tier" db:"tier" validate:"omitempty"`
	Settings    ClipSettings `json:"settings" db:"settings"`
	CreditsUsed int64        `json:"credits_used" db:"credits_used"`
	ExpiresAt   time.Time    `json:"expires_at" db:"expires_at"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`
}

// ClipSettings is stored as a jsonb column on projects.
type ClipSettings struct {
	AspectRatio   string `json:"aspect_ratio" validate:"omitempty,oneof=original 9:16 16:9 1:1 4:5"`
	ReframeMode   string `json:"reframe_mode" validate:"omitempty,oneof=crop pad smart"`
	PadColor      string `json:"pad_color" validate:"omitempty,lte=16"`
	ClipLength    int    `json:"clip_length" validate:"omitempty,min=5,max=180"`
	NumberOfClips int    `json:"number_of_clips" validate:"omitempty,min=1,max=20"`
	CaptionStyle  string `json:"caption_style" validate:"omitempty,lte=40"`
	Language      string `json:"language" validate:"omitempty,lte=10"`
}

func (s ClipSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *ClipSettings) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into ClipSettings", src)
}

type ProjectList struct {
	Projects   []*Project `json:"projects"`
	TotalCount int        `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	HasMore    bool       `json:"has_more"`
}

type CreateProjectInput struct {
	Title     string       `json:"title" validate:"required,lte=255"`
	Kind      PipelineKind `json:"pipeline_kind" validate:"required,oneof=clip caption reframe"`
	SourceURL string       `json:"source_url" validate:"omitempty,url"`
	Settings  ClipSettings `json:"settings"`
}

// StartPipelineInput carries the client-reported source duration so the
// balance check can price the run before anything is queued. Zero means the
// duration is unknown.
type StartPipelineInput struct {
	DurationSec float64 `json:"duration_sec" validate:"omitempty,gte=0"`
}
