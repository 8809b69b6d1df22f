package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/render"
)

const defaultFadeDuration = 0.5

// ClipExportHandler renders one moment into a deliverable clip: segment
// cuts, stitching, aspect conversion, captions, watermark and thumbnail.
// Exports run against an already READY project and track their own status.
type ClipExportHandler struct {
	d *Deps
}

func NewClipExportHandler(d *Deps) pipeline.Handler {
	return &ClipExportHandler{d: d}
}

func (h *ClipExportHandler) Stage() pipeline.Stage {
	return pipeline.StageClipExport
}

func (h *ClipExportHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	var payload models.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return pipeline.Permanent(fmt.Errorf("bad export payload: %w", err))
	}

	export, err := h.d.Projects.GetExportByID(ctx, payload.ExportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.Permanent(fmt.Errorf("export %s not found", payload.ExportID))
		}
		return fmt.Errorf("failed to load export: %w", err)
	}
	if export.Status == models.ExportCompleted {
		return nil
	}
	export.Status = models.ExportProcessing
	if export, err = h.d.Projects.UpdateExport(ctx, export); err != nil {
		return fmt.Errorf("failed to mark export processing: %w", err)
	}

	project, err := h.d.Projects.GetProjectByID(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	moment, err := h.d.Projects.GetMomentByID(ctx, export.MomentID)
	if err != nil {
		return fmt.Errorf("failed to load moment: %w", err)
	}
	asset, err := h.d.Projects.GetAssetByKind(ctx, job.ProjectID, models.AssetOriginal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.ErrNoSourceVideo
		}
		return fmt.Errorf("failed to load source asset: %w", err)
	}

	dir, cleanup, err := h.d.Runner.TempDir("clip-export-")
	if err != nil {
		return err
	}
	defer cleanup()

	started := time.Now()
	current, info, err := h.stitch(ctx, dir, asset.StorageKey, moment, export.Options)
	if err != nil {
		return err
	}

	current, info, err = h.reframe(ctx, dir, current, info, project.Settings, export.Options)
	if err != nil {
		return err
	}

	var words []models.Word
	degraded := false
	if export.Options.Captions {
		transcript, err := h.d.Projects.GetTranscript(ctx, job.ProjectID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return pipeline.ErrNoTranscript
			}
			return fmt.Errorf("failed to load transcript: %w", err)
		}
		words = wordsForMoment(transcript, moment)

		styleName := export.Options.CaptionStyle
		if styleName == "" {
			styleName = project.Settings.CaptionStyle
		}
		captioned := filepath.Join(dir, "captioned.mp4")
		degraded, err = h.d.Captions.Render(ctx, current, captioned, dir, words,
			captions.GetStyle(styleName), moment.Duration(), info.Width, info.Height)
		if err != nil {
			return fmt.Errorf("caption render failed: %w", err)
		}
		current = captioned
	}

	if !project.Tier.Paid() {
		watermarked := filepath.Join(dir, "watermarked.mp4")
		if err = h.d.Runner.Watermark(ctx, current, watermarked, h.watermarkText()); err != nil {
			return fmt.Errorf("watermark failed: %w", err)
		}
		current = watermarked
	}

	artifacts := models.JSONMap{}
	videoKey := fmt.Sprintf("projects/%s/exports/%s/clip.mp4", project.ProjectID, export.ExportID)
	if err = h.d.Storage.UploadFile(ctx, videoKey, "video/mp4", current); err != nil {
		return fmt.Errorf("failed to upload clip: %w", err)
	}
	artifacts["video"] = videoKey

	if export.Options.GenerateThumb {
		thumbPath := filepath.Join(dir, "thumb.jpg")
		if err = h.d.Runner.Thumbnail(ctx, current, thumbPath, 0); err != nil {
			h.d.Logger.Warnf("thumbnail failed for export %s: %v", export.ExportID, err)
		} else {
			thumbKey := fmt.Sprintf("projects/%s/exports/%s/thumb.jpg", project.ProjectID, export.ExportID)
			if err = h.d.Storage.UploadFile(ctx, thumbKey, "image/jpeg", thumbPath); err != nil {
				return fmt.Errorf("failed to upload thumbnail: %w", err)
			}
			artifacts["thumbnail"] = thumbKey
		}
	}

	if export.Options.IncludeSRT && len(words) > 0 {
		srt := captions.FormatSRT(captions.BuildCues(words, 0))
		srtKey := fmt.Sprintf("projects/%s/exports/%s/captions.srt", project.ProjectID, export.ExportID)
		if err = h.d.Storage.Upload(ctx, srtKey, "application/x-subrip", int64(len(srt)), strings.NewReader(srt)); err != nil {
			return fmt.Errorf("failed to upload srt: %w", err)
		}
		artifacts["srt"] = srtKey
	}

	stat, err := os.Stat(current)
	if err != nil {
		return fmt.Errorf("failed to stat output: %w", err)
	}
	export.Status = models.ExportCompleted
	export.Artifacts = artifacts
	export.Metrics = models.JSONMap{
		"duration":          moment.Duration(),
		"width":             info.Width,
		"height":            info.Height,
		"file_size":         stat.Size(),
		"render_ms":         time.Since(started).Milliseconds(),
		"degraded_captions": degraded,
	}
	if _, err = h.d.Projects.UpdateExport(ctx, export); err != nil {
		return fmt.Errorf("failed to complete export: %w", err)
	}

	h.d.Logger.Infof("export %s completed in %s", export.ExportID, time.Since(started).Round(time.Millisecond))
	return nil
}

// stitch produces the moment's base clip. A stored proxy of the moment is
// reused when present so repeat exports skip the source download and the
// cuts; otherwise the source is fetched, cut and joined, and the plain
// concat result is kept as the moment's proxy for the next export.
// Crossfaded stitches are bespoke to their fade settings, so they neither
// read nor write the proxy.
func (h *ClipExportHandler) stitch(ctx context.Context, dir, sourceKey string, moment *models.Moment, opts models.ExportOptions) (string, *render.VideoInfo, error) {
	if moment.ProxyKey != "" && !opts.Crossfade {
		proxy := filepath.Join(dir, "proxy.mp4")
		if err := h.d.Storage.Download(ctx, moment.ProxyKey, proxy); err != nil {
			h.d.Logger.Warnf("proxy %s unavailable, re-cutting: %v", moment.ProxyKey, err)
		} else if info, err := h.d.Runner.Probe(ctx, proxy); err != nil {
			h.d.Logger.Warnf("proxy %s unreadable, re-cutting: %v", moment.ProxyKey, err)
		} else {
			return proxy, info, nil
		}
	}

	src := filepath.Join(dir, "source.mp4")
	if err := h.d.Storage.Download(ctx, sourceKey, src); err != nil {
		return "", nil, fmt.Errorf("failed to download source: %w", err)
	}

	segments := moment.EffectiveSegments()
	parts := make([]string, 0, len(segments))
	durations := make([]float64, 0, len(segments))
	for i, seg := range segments {
		part := filepath.Join(dir, fmt.Sprintf("segment_%02d.mp4", i))
		if err := h.d.Runner.CutSegment(ctx, src, part, seg.Start, seg.Duration()); err != nil {
			return "", nil, fmt.Errorf("segment %d cut failed: %w", i, err)
		}
		parts = append(parts, part)
		durations = append(durations, seg.Duration())
	}

	stitched := filepath.Join(dir, "stitched.mp4")
	crossfaded := opts.Crossfade && len(parts) > 1
	if crossfaded {
		fade := opts.FadeDuration
		if fade <= 0 {
			fade = defaultFadeDuration
		}
		if err := h.d.Runner.CrossfadeConcat(ctx, parts, durations, fade, stitched); err != nil {
			return "", nil, fmt.Errorf("crossfade stitch failed: %w", err)
		}
	} else if err := h.d.Runner.Concat(ctx, parts, stitched); err != nil {
		return "", nil, fmt.Errorf("stitch failed: %w", err)
	}

	info, err := h.d.Runner.Probe(ctx, stitched)
	if err != nil {
		return "", nil, fmt.Errorf("failed to probe stitched clip: %w", err)
	}

	if !crossfaded && moment.ProxyKey == "" {
		key := fmt.Sprintf("projects/%s/moments/%s/proxy.mp4", moment.ProjectID, moment.MomentID)
		if err := h.d.Storage.UploadFile(ctx, key, "video/mp4", stitched); err != nil {
			h.d.Logger.Warnf("failed to store proxy for moment %s: %v", moment.MomentID, err)
		} else if err := h.d.Projects.UpdateMomentProxy(ctx, moment.MomentID, key); err != nil {
			h.d.Logger.Warnf("failed to record proxy for moment %s: %v", moment.MomentID, err)
		}
	}
	return stitched, info, nil
}

// reframe converts the clip to the requested aspect ratio, if any.
func (h *ClipExportHandler) reframe(ctx context.Context, dir, in string, info *render.VideoInfo, settings models.ClipSettings, opts models.ExportOptions) (string, *render.VideoInfo, error) {
	ratio := opts.AspectRatio
	if ratio == "" {
		ratio = settings.AspectRatio
	}
	if ratio == "" || ratio == "original" {
		return in, info, nil
	}

	mode := opts.ReframeMode
	if mode == "" {
		mode = settings.ReframeMode
	}
	if mode == "" {
		mode = render.ModeCrop
	}

	var face *render.Region
	if mode == render.ModeSmart && h.d.Faces != nil {
		region, err := h.d.Faces.DominantRegion(ctx, in)
		if err != nil {
			h.d.Logger.Warnf("face detection failed, using center crop: %v", err)
		} else {
			face = region
		}
	}

	plan, err := render.PlanFrame(info.Width, info.Height, ratio, mode, face)
	if err != nil {
		return "", nil, pipeline.Permanent(err)
	}
	plan.PadColor = opts.PadColor
	if plan.PadColor == "" {
		plan.PadColor = settings.PadColor
	}

	out := filepath.Join(dir, "reframed.mp4")
	if err = h.d.Runner.Reframe(ctx, in, out, plan); err != nil {
		return "", nil, fmt.Errorf("reframe failed: %w", err)
	}
	framed := *info
	framed.Width = plan.OutW
	framed.Height = plan.OutH
	return out, &framed, nil
}

func (h *ClipExportHandler) watermarkText() string {
	if h.d.Cfg.Render.WatermarkText != "" {
		return h.d.Cfg.Render.WatermarkText
	}
	return "made with clipforge"
}

// wordsForMoment collects transcript words inside the moment's segments and
// rebases them onto the stitched clip's timeline.
func wordsForMoment(t *models.Transcript, m *models.Moment) []models.Word {
	out := make([]models.Word, 0)
	elapsed := 0.0
	for _, seg := range m.EffectiveSegments() {
		for _, w := range t.WordsBetween(seg.Start, seg.End) {
			w.Start += elapsed
			w.End += elapsed
			out = append(out, w)
		}
		elapsed += seg.Duration()
	}
	return out
}
