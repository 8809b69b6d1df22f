package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ExportStatus string

const (
	ExportPending    ExportStatus = "PENDING"
	ExportProcessing ExportStatus = "PROCESSING"
	ExportCompleted  ExportStatus = "COMPLETED"
	ExportFailed     ExportStatus = "FAILED"
)

type Export struct {
	ExportID        uuid.UUID     `json:"export_id" db:"export_id"`
	ProjectID       uuid.UUID     `json:"project_id" db:"project_id"`
	MomentID        uuid.UUID     `json:"moment_id" db:"moment_id"`
	Status          ExportStatus  `json:"status" db:"status"`
	Options         ExportOptions `json:"options" db:"options"`
	Artifacts       JSONMap       `json:"artifacts" db:"artifacts"`
	Metrics         JSONMap       `json:"metrics" db:"metrics"`
	ProcessingError string        `json:"processing_error" db:"processing_error"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

type ExportOptions struct {
	AspectRatio   string  `json:"aspect_ratio" validate:"omitempty,oneof=original 9:16 16:9 1:1 4:5"`
	ReframeMode   string  `json:"reframe_mode" validate:"omitempty,oneof=crop pad smart"`
	PadColor      string  `json:"pad_color" validate:"omitempty,lte=16"`
	Captions      bool    `json:"captions"`
	CaptionStyle  string  `json:"caption_style" validate:"omitempty,lte=40"`
	Crossfade     bool    `json:"crossfade"`
	FadeDuration  float64 `json:"fade_duration" validate:"omitempty,gt=0,lte=2"`
	IncludeSRT    bool    `json:"include_srt"`
	GenerateThumb bool    `json:"generate_thumbnail"`
}

func (o ExportOptions) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *ExportOptions) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into ExportOptions", src)
}

type JSONMap map[string]interface{}

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		m = JSONMap{}
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into JSONMap", src)
}

type CreateExportInput struct {
	MomentID uuid.UUID     `json:"moment_id" validate:"required"`
	Options  ExportOptions `json:"options"`
}
