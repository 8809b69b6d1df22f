package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
)

const transcribeURLExpiry = 2 * time.Hour

// TranscriptionHandler hands the source to the speech-to-text provider and
// stores the word-level transcript.
type TranscriptionHandler struct {
	d *Deps
}

func NewTranscriptionHandler(d *Deps) pipeline.Handler {
	return &TranscriptionHandler{d: d}
}

func (h *TranscriptionHandler) Stage() pipeline.Stage {
	return pipeline.StageTranscription
}

func (h *TranscriptionHandler) Handle(ctx context.Context, job *models.PipelineJob) error {
	if _, err := h.d.Projects.UpdatePhase(ctx, job.ProjectID, models.PhaseTranscribing); err != nil {
		return fmt.Errorf("failed to enter transcription phase: %w", err)
	}

	asset, err := h.d.Projects.GetAssetByKind(ctx, job.ProjectID, models.AssetOriginal)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pipeline.ErrNoSourceVideo
		}
		return fmt.Errorf("failed to load source asset: %w", err)
	}

	project, err := h.d.Projects.GetProjectByID(ctx, job.ProjectID)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}

	mediaURL, err := h.d.Storage.PresignDownload(ctx, asset.StorageKey, transcribeURLExpiry)
	if err != nil {
		return fmt.Errorf("failed to presign source for transcription: %w", err)
	}

	words, language, err := h.d.Transcriber.Transcribe(ctx, mediaURL, project.Settings.Language)
	if err != nil {
		return fmt.Errorf("transcription provider failed: %w", err)
	}
	if len(words) == 0 {
		return pipeline.ErrNoTranscript
	}

	if _, err = h.d.Projects.SaveTranscript(ctx, &models.Transcript{
		ProjectID: job.ProjectID,
		Language:  language,
		Words:     words,
	}); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}

	h.d.Logger.Infof("transcribed project %s: %d words (%s)", job.ProjectID, len(words), language)
	return nil
}
