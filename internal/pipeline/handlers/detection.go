package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
)

// DetectionHandler runs highlight detection over the transcript and stores
// the resulting moments. Detection finishes the clip pipeline, so it also
// moves the project to READY.
type DetectionHandler struct {
	d *Deps
}

func NewDetectionHandler(d *Deps) pipeline.Handler {
	return &DetectionHandler{d: d}
}

func (h *DetectionHandler) Stage() pipeline.Stage {
	return pipeline.StageDetection
}

func (h *DetectionHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	if _, err := h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseDetecting); err != nil {
		return fmt.Errorf("failed to enter detection phase: %w", err)
	}

	transcript, err := h.d.Projects.GetTranscript(ctx, job.ProjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.ErrNoTranscript
		}
		return fmt.Errorf("failed to load transcript: %w", err)
	}

	project, err := h.d.Projects.GetProjectByID(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	moments, err := h.d.Detector.Detect(ctx, transcript, project.Settings)
	if err != nil {
		return fmt.Errorf("moment detection failed: %w", err)
	}
	for _, moment := range moments {
		if err = moment.Validate(); err != nil {
			return pipeline.Permanent(fmt.Errorf("detector produced unusable moment: %w", err))
		}
	}
	if err = h.d.Projects.SaveMoments(ctx, job.ProjectID, moments); err != nil {
		return fmt.Errorf("failed to save moments: %w", err)
	}
	if _, err = h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseReady); err != nil {
		return fmt.Errorf("failed to finish detection: %w", err)
	}

	h.d.Logger.Infof("detected %d moments for project %s", len(moments), job.ProjectID)
	return nil
}
