package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/clipforge/pipeline/internal/storage"
	"github.com/pkg/errors"
)

var videoKeyPattern = regexp.MustCompile(`.+\.(mp4|mkv|avi|mov|wmv|flv|webm|m4v|mpeg|mpg|3gp|ogv|vob|ts|mxf)$`)

type awsRepository struct {
	client        *s3.Client
	preSignClient *s3.PresignClient
	bucket        string
}

func NewAwsRepository(awsClient *s3.Client, preSignClient *s3.PresignClient, bucket string) storage.AWSRepository {
	return &awsRepository{
		client:        awsClient,
		preSignClient: preSignClient,
		bucket:        bucket,
	}
}

func (a *awsRepository) Upload(ctx context.Context, key, mimeType string, size int64, body io.Reader) error {
	_, err := a.client.PutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &a.bucket,
			Key:           &key,
			ContentType:   &mimeType,
			ContentLength: &size,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}

func (a *awsRepository) UploadFile(ctx context.Context, key, mimeType, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return a.Upload(ctx, key, mimeType, info.Size(), f)
}

func (a *awsRepository) Download(ctx context.Context, key, destPath string) error {
	stream, err := a.GetStream(ctx, key)
	if err != nil {
		return err
	}
	defer stream.Close()

	if err = os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("failed to create dir for %s: %w", destPath, err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer f.Close()
	if _, err = io.Copy(f, stream); err != nil {
		return fmt.Errorf("failed to write %s: %w", destPath, err)
	}
	return nil
}

func (a *awsRepository) GetStream(ctx context.Context, key string) (io.ReadCloser, error) {
	res, err := a.client.GetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	return res.Body, nil
}

func (a *awsRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey") {
			return false, nil
		}
		return false, fmt.Errorf("failed to head %s: %w", key, err)
	}
	return true, nil
}

func (a *awsRepository) Remove(ctx context.Context, key string) error {
	_, err := a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

func (a *awsRepository) PresignUpload(ctx context.Context, key, mimeType string, size int64, expires time.Duration) (string, error) {
	if !videoKeyPattern.MatchString(key) {
		return "", fmt.Errorf("invalid file format: %s", key)
	}
	req, err := a.preSignClient.PresignPutObject(
		ctx,
		&s3.PutObjectInput{
			Bucket:        &a.bucket,
			Key:           &key,
			ContentLength: &size,
			ContentType:   &mimeType,
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign put object: %w", err)
	}
	return req.URL, nil
}

func (a *awsRepository) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	req, err := a.preSignClient.PresignGetObject(
		ctx,
		&s3.GetObjectInput{
			Bucket: &a.bucket,
			Key:    &key,
		},
		s3.WithPresignExpires(expires),
	)
	if err != nil {
		return "", fmt.Errorf("failed to presign get object: %w", err)
	}
	return req.URL, nil
}
