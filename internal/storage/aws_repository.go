package storage

import (
	"context"
	"io"
	"time"
)

// AWSRepository is the object storage boundary. Keys follow the
// projects/{projectID}/... convention.
type AWSRepository interface {
	Upload(ctx context.Context, key, mimeType string, size int64, body io.Reader) error
	UploadFile(ctx context.Context, key, mimeType, path string) error
	Download(ctx context.Context, key, destPath string) error
	GetStream(ctx context.Context, key string) (io.ReadCloser, error)
	Exists(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) error
	PresignUpload(ctx context.Context, key, mimeType string, size int64, expires time.Duration) (string, error)
	PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error)
}
