package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/clipforge/pipeline/internal/render"
	"github.com/clipforge/pipeline/internal/storage"
	"github.com/clipforge/pipeline/pkg/logger"
)

// TranscriptionProvider is the external speech-to-text boundary. It returns
// word-level timings and the detected language.
type TranscriptionProvider interface {
	Transcribe(ctx context.Context, mediaURL, language string) ([]models.Word, string, error)
}

// MomentDetector is the external highlight detection boundary.
type MomentDetector interface {
	Detect(ctx context.Context, transcript *models.Transcript, settings models.ClipSettings) ([]*models.Moment, error)
}

// FaceDetector locates the dominant face cluster for smart reframing. A nil
// detector, or a nil region, falls back to a center crop.
type FaceDetector interface {
	DominantRegion(ctx context.Context, videoPath string) (*render.Region, error)
}

// Downloader fetches remote source videos.
type Downloader interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// VideoRunner is the ffmpeg surface the handlers cut, stitch and reframe
// through. *render.Runner satisfies it.
type VideoRunner interface {
	TempDir(prefix string) (string, func(), error)
	Probe(ctx context.Context, path string) (*render.VideoInfo, error)
	CutSegment(ctx context.Context, in, out string, start, duration float64) error
	Concat(ctx context.Context, parts []string, out string) error
	CrossfadeConcat(ctx context.Context, parts []string, durations []float64, fade float64, out string) error
	Reframe(ctx context.Context, in, out string, plan *render.FramePlan) error
	Watermark(ctx context.Context, in, out, text string) error
	Thumbnail(ctx context.Context, in, out string, at float64) error
}

// CaptionRenderer burns styled captions into a clip. *captions.Engine
// satisfies it.
type CaptionRenderer interface {
	Render(ctx context.Context, in, out, workDir string, words []models.Word, style captions.Style, duration float64, width, height int) (bool, error)
}

// Deps carries everything the stage handlers share.
type Deps struct {
	Cfg         *config.Config
	Projects    projects.Repository
	Storage     storage.AWSRepository
	Credits     credits.UseCase
	Runner      VideoRunner
	Captions    CaptionRenderer
	Transcriber TranscriptionProvider
	Detector    MomentDetector
	Faces       FaceDetector
	Downloader  Downloader
	Logger      logger.Logger
}

type httpDownloader struct {
	client *http.Client
}

func NewHTTPDownloader() Downloader {
	return &httpDownloader{
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

func (d *httpDownloader) Fetch(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", pipeline.ErrBadSourceURL, err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: status %d", pipeline.ErrBadSourceURL, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("source fetch returned status %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer out.Close()
	if _, err = io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write source: %w", err)
	}
	return nil
}

func txTypeFor(kind models.PipelineKind) models.CreditTxType {
	switch kind {
	case models.PipelineCaption:
		return models.TxDeductionCaptions
	case models.PipelineReframe:
		return models.TxDeductionReframe
	default:
		return models.TxDeductionClips
	}
}
