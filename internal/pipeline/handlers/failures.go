package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/clipforge/pipeline/pkg/logger"
)

// NewFailureHook builds the worker's exhausted-job callback: it moves the
// project into its failure phase, marks failed exports, and refunds any
// credits already deducted. The refund is keyed per failure event, so a
// hook that fires twice for the same exhaustion produces one ledger row.
func NewFailureHook(repo projects.Repository, creditsUC credits.UseCase, log logger.Logger) pipeline.FailureFunc {
	return func(ctx context.Context, job *models.PipelineJob, jobErr error, permanent bool) {
		log.Errorf("pipeline stage %s failed for project %s: %v", job.Stage, job.ProjectID, jobErr)

		if pipeline.Stage(job.Stage) == pipeline.StageClipExport {
			failExport(ctx, repo, job, jobErr, log)
		} else {
			phase := models.PhaseError
			if permanent {
				phase = models.PhaseFailed
			}
			if _, err := repo.UpdatePhase(ctx, job.ProjectID, phase); err != nil {
				log.Errorf("failed to move project %s to %s: %v", job.ProjectID, phase, err)
			}
		}

		project, err := repo.GetProjectByID(ctx, job.ProjectID)
		if err != nil {
			log.Errorf("failed to load project %s for refund: %v", job.ProjectID, err)
			return
		}
		if project.CreditsUsed <= 0 {
			return
		}
		failureEventID := fmt.Sprintf("%s#%d", job.JobID, job.Attempts)
		if err := creditsUC.Refund(ctx, job.OrgID, job.ProjectID, project.CreditsUsed, failureEventID); err != nil {
			log.Errorf("refund failed for project %s event %s: %v", job.ProjectID, failureEventID, err)
		}
	}
}

func failExport(ctx context.Context, repo projects.Repository, job *models.PipelineJob, jobErr error, log logger.Logger) {
	var payload models.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		log.Errorf("failed export has unreadable payload: %v", err)
		return
	}
	export, err := repo.GetExportByID(ctx, payload.ExportID)
	if err != nil {
		log.Errorf("failed to load export %s: %v", payload.ExportID, err)
		return
	}
	export.Status = models.ExportFailed
	export.ProcessingError = jobErr.Error()
	if _, err := repo.UpdateExport(ctx, export); err != nil {
		log.Errorf("failed to mark export %s failed: %v", payload.ExportID, err)
	}
}
