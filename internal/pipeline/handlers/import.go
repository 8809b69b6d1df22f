package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
)

// ImportHandler fetches the project source, normalizes it into object
// storage, records the original asset and charges credits for the run.
type ImportHandler struct {
	d *Deps
}

func NewImportHandler(d *Deps) pipeline.Handler {
	return &ImportHandler{d: d}
}

func (h *ImportHandler) Stage() pipeline.Stage {
	return pipeline.StageImport
}

func (h *ImportHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	var payload models.ImportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return pipeline.Permanent(fmt.Errorf("bad import payload: %w", err))
	}
	if payload.SourceURL == "" {
		return pipeline.ErrNoSourceVideo
	}

	if _, err := h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseImporting); err != nil {
		return fmt.Errorf("failed to enter import phase: %w", err)
	}

	dir, cleanup, err := h.d.Runner.TempDir("import-")
	if err != nil {
		return err
	}
	defer cleanup()

	localPath := filepath.Join(dir, "source.mp4")
	storageKey := fmt.Sprintf("projects/%s/source/original.mp4", job.ProjectID)
	uploaded := false

	if strings.HasPrefix(payload.SourceURL, "s3://") {
		// Direct upload already landed in the bucket.
		storageKey = strings.TrimPrefix(payload.SourceURL, "s3://")
		ok, err := h.d.Storage.Exists(ctx, storageKey)
		if err != nil {
			return fmt.Errorf("failed to check source object: %w", err)
		}
		if !ok {
			return pipeline.ErrNoSourceVideo
		}
		if err = h.d.Storage.Download(ctx, storageKey, localPath); err != nil {
			return fmt.Errorf("failed to download source: %w", err)
		}
		uploaded = true
	} else {
		if err = h.d.Downloader.Fetch(ctx, payload.SourceURL, localPath); err != nil {
			return err
		}
	}

	info, err := h.d.Runner.Probe(ctx, localPath)
	if err != nil {
		return pipeline.Permanent(fmt.Errorf("source is not a playable video: %w", err))
	}

	if !uploaded {
		if err = h.d.Storage.UploadFile(ctx, storageKey, "video/mp4", localPath); err != nil {
			return fmt.Errorf("failed to store source: %w", err)
		}
	}

	stat, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}
	if _, err = h.d.Projects.CreateAsset(ctx, &models.Asset{
		ProjectID:  job.ProjectID,
		Kind:       models.AssetOriginal,
		StorageKey: storageKey,
		Duration:   info.Duration,
		Width:      info.Width,
		Height:     info.Height,
		FileSize:   stat.Size(),
		MimeType:   "video/mp4",
	}); err != nil {
		return fmt.Errorf("failed to record source asset: %w", err)
	}

	duration := time.Duration(info.Duration * float64(time.Second))
	if _, err = h.d.Credits.Charge(ctx, job.OrgID, job.ProjectID, duration, txTypeFor(job.Kind)); err != nil {
		if errors.Is(err, credits.ErrInsufficientCredits) {
			return pipeline.Permanent(err)
		}
		return fmt.Errorf("failed to charge credits: %w", err)
	}

	h.d.Logger.Infof("imported %.1fs %dx%d source for project %s", info.Duration, info.Width, info.Height, job.ProjectID)
	return nil
}
