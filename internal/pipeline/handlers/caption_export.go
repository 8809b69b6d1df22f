package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
)

// CaptionExportHandler burns captions over the full source video and
// finishes the caption pipeline.
type CaptionExportHandler struct {
	d *Deps
}

func NewCaptionExportHandler(d *Deps) pipeline.Handler {
	return &CaptionExportHandler{d: d}
}

func (h *CaptionExportHandler) Stage() pipeline.Stage {
	return pipeline.StageCaptionExport
}

func (h *CaptionExportHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	if _, err := h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseRendering); err != nil {
		return fmt.Errorf("failed to enter rendering phase: %w", err)
	}

	project, err := h.d.Projects.GetProjectByID(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	asset, err := h.d.Projects.GetAssetByKind(ctx, job.ProjectID, models.AssetOriginal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.ErrNoSourceVideo
		}
		return fmt.Errorf("failed to load source asset: %w", err)
	}
	transcript, err := h.d.Projects.GetTranscript(ctx, job.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.ErrNoTranscript
		}
		return fmt.Errorf("failed to load transcript: %w", err)
	}

	dir, cleanup, err := h.d.Runner.TempDir("caption-export-")
	if err != nil {
		return err
	}
	defer cleanup()

	src := filepath.Join(dir, "source.mp4")
	if err = h.d.Storage.Download(ctx, asset.StorageKey, src); err != nil {
		return fmt.Errorf("failed to download source: %w", err)
	}
	info, err := h.d.Runner.Probe(ctx, src)
	if err != nil {
		return fmt.Errorf("failed to probe source: %w", err)
	}

	out := filepath.Join(dir, "captioned.mp4")
	degraded, err := h.d.Captions.Render(ctx, src, out, dir, transcript.Words,
		captions.GetStyle(project.Settings.CaptionStyle), info.Duration, info.Width, info.Height)
	if err != nil {
		return fmt.Errorf("caption render failed: %w", err)
	}
	if degraded {
		h.d.Logger.Warnf("caption render degraded to uncaptioned source for project %s", job.ProjectID)
	}

	if !project.Tier.Paid() {
		watermarked := filepath.Join(dir, "watermarked.mp4")
		text := h.d.Cfg.Render.WatermarkText
		if text == "" {
			text = "made with clipforge"
		}
		if err = h.d.Runner.Watermark(ctx, out, watermarked, text); err != nil {
			return fmt.Errorf("watermark failed: %w", err)
		}
		out = watermarked
	}

	key := fmt.Sprintf("projects/%s/captioned.mp4", job.ProjectID)
	if err = h.d.Storage.UploadFile(ctx, key, "video/mp4", out); err != nil {
		return fmt.Errorf("failed to upload captioned video: %w", err)
	}

	stat, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}
	if _, err = h.d.Projects.CreateAsset(ctx, &models.Asset{
		ProjectID:  job.ProjectID,
		Kind:       models.AssetCaptioned,
		StorageKey: key,
		Duration:   info.Duration,
		Width:      info.Width,
		Height:     info.Height,
		FileSize:   stat.Size(),
		MimeType:   "video/mp4",
	}); err != nil {
		return fmt.Errorf("failed to record captioned asset: %w", err)
	}

	if _, err = h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseReady); err != nil {
		return fmt.Errorf("failed to finish caption render: %w", err)
	}
	return nil
}
