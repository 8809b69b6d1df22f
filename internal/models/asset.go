package models

import (
	"time"

	"github.com/google/uuid"
)

type AssetKind string

const (
	AssetOriginal  AssetKind = "ORIGINAL"
	AssetClip      AssetKind = "CLIP"
	AssetReframed  AssetKind = "REFRAMED"
	AssetCaptioned AssetKind = "CAPTIONED"
)

// UploadInput describes a source file the client wants to upload directly
// to object storage.
type UploadInput struct {
	Name     string `json:"name" validate:"required,lte=255"`
	MimeType string `json:"mime_type" validate:"required,lte=100"`
	FileSize int64  `json:"file_size" validate:"required,gt=0"`
}

type Asset struct {
	AssetID    uuid.UUID `json:"asset_id" db:"asset_id"`
	ProjectID  uuid.UUID `json:"project_id" db:"project_id"`
	Kind       AssetKind `json:"kind" db:"kind"`
	StorageKey string    `json:"storage_key" db:"storage_key"`
	Duration   float64   `json:"duration" db:"duration"`
	Width      int       `json:"width" db:"width"`
	Height     int       `json:"height" db:"height"`
	FileSize   int64     `json:"file_size" db:"file_size"`
	MimeType   string    `json:"mime_type" db:"mime_type"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
