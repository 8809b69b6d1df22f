package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/render"
)

// ReframeHandler converts the full source video to the requested aspect
// ratio and finishes the reframe pipeline.
type ReframeHandler struct {
	d *Deps
}

func NewReframeHandler(d *Deps) pipeline.Handler {
	return &ReframeHandler{d: d}
}

func (h *ReframeHandler) Stage() pipeline.Stage {
	return pipeline.StageReframe
}

func (h *ReframeHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	if _, err := h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseReframing); err != nil {
		return fmt.Errorf("failed to enter reframing phase: %w", err)
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

	ratio := project.Settings.AspectRatio
	if ratio == "" {
		ratio = "9:16"
	}
	mode := project.Settings.ReframeMode
	if mode == "" {
		mode = render.ModeCrop
	}

	dir, cleanup, err := h.d.Runner.TempDir("reframe-")
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

	var face *render.Region
	if mode == render.ModeSmart && h.d.Faces != nil {
		region, err := h.d.Faces.DominantRegion(ctx, src)
		if err != nil {
			h.d.Logger.Warnf("face detection failed, using center crop: %v", err)
		} else {
			face = region
		}
	}

	plan, err := render.PlanFrame(info.Width, info.Height, ratio, mode, face)
	if err != nil {
		return pipeline.Permanent(err)
	}
	plan.PadColor = project.Settings.PadColor

	out := filepath.Join(dir, "reframed.mp4")
	if err = h.d.Runner.Reframe(ctx, src, out, plan); err != nil {
		return fmt.Errorf("reframe failed: %w", err)
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

	key := fmt.Sprintf("projects/%s/reframed.mp4", job.ProjectID)
	if err = h.d.Storage.UploadFile(ctx, key, "video/mp4", out); err != nil {
		return fmt.Errorf("failed to upload reframed video: %w", err)
	}

	stat, err := os.Stat(out)
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}
	if _, err = h.d.Projects.CreateAsset(ctx, &models.Asset{
		ProjectID:  job.ProjectID,
		Kind:       models.AssetReframed,
		StorageKey: key,
		Duration:   info.Duration,
		Width:      plan.OutW,
		Height:     plan.OutH,
		FileSize:   stat.Size(),
		MimeType:   "video/mp4",
	}); err != nil {
		return fmt.Errorf("failed to record reframed asset: %w", err)
	}

	if _, err = h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseReady); err != nil {
		return fmt.Errorf("failed to finish reframe: %w", err)
	}
	return nil
}
