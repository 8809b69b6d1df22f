package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/clipforge/pipeline/internal/captions"
	"github.com/clipforge/pipeline/internal/config"
	"github.com/clipforge/pipeline/internal/credits"
	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/pipeline"
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/clipforge/pipeline/internal/storage"
	"github.com/clipforge/pipeline/pkg/logger"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/google/uuid"
)

const (
	uploadURLExpiry   = 15 * time.Minute
	downloadURLExpiry = time.Hour
)

type projectsUC struct {
	cfg          *config.Config
	projectsRepo projects.Repository
	awsRepo      storage.AWSRepository
	orchestrator *pipeline.Orchestrator
	creditsUC    credits.UseCase
	logger       logger.Logger
}

func NewProjectsUseCase(
	cfg *config.Config,
	projectsRepo projects.Repository,
	awsRepo storage.AWSRepository,
	orchestrator *pipeline.Orchestrator,
	creditsUC credits.UseCase,
	log logger.Logger,
) projects.UseCase {
	return &projectsUC{
		cfg:          cfg,
		projectsRepo: projectsRepo,
		awsRepo:      awsRepo,
		orchestrator: orchestrator,
		creditsUC:    creditsUC,
		logger:       log,
	}
}

func (u *projectsUC) CreateProject(ctx context.Context, orgID uuid.UUID, input *models.CreateProjectInput) (*models.Project, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("CreateProject - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}
	org, err := u.projectsRepo.GetOrganization(ctx, orgID)
	if err != nil {
		u.logger.Errorf("CreateProject - GetOrganization error: %v", err)
		return nil, err
	}
	retention, ok := models.TierRetentionDays[org.Tier]
	if !ok {
		retention = models.TierRetentionDays[models.TierFree]
	}
	project := &models.Project{
		OrgID:     orgID,
		Title:     input.Title,
		SourceURL: input.SourceURL,
		Kind:      input.Kind,
		Phase:     models.PhaseCreated,
		Tier:      org.Tier,
		Settings:  input.Settings,
		ExpiresAt: time.Now().UTC().AddDate(0, 0, retention),
	}
	project, err = u.projectsRepo.CreateProject(ctx, project)
	if err != nil {
		u.logger.Errorf("CreateProject - CreateProject error: %v", err)
		return nil, err
	}
	return project, nil
}

// GetPresignUpload hands the client a direct-to-storage upload URL and
// points the project source at the resulting object.
func (u *projectsUC) GetPresignUpload(ctx context.Context, projectID uuid.UUID, input *models.UploadInput) (string, error) {
	if input == nil {
		return "", fmt.Errorf("invalid input: input is nil")
	}
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("GetPresignUpload - ValidateStruct error: %v", err)
		return "", err
	}
	project, err := u.projectsRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return "", fmt.Errorf("project not found: %v", err)
	}
	if project.Phase != models.PhaseCreated {
		return "", fmt.Errorf("project source can no longer be changed in phase %s", project.Phase)
	}

	key := fmt.Sprintf("projects/%s/source/%s", projectID, input.Name)
	url, err := u.awsRepo.PresignUpload(ctx, key, input.MimeType, input.FileSize, uploadURLExpiry)
	if err != nil {
		u.logger.Errorf("GetPresignUpload - PresignUpload error: %v", err)
		return "", fmt.Errorf("failed to generate upload URL: %v", err)
	}
	if err = u.projectsRepo.UpdateSourceURL(ctx, projectID, "s3://"+key); err != nil {
		u.logger.Errorf("GetPresignUpload - UpdateSourceURL error: %v", err)
		return "", err
	}
	return url, nil
}

// StartPipeline moves a freshly created project into its pipeline by
// queueing the import stage. The org balance is checked up front so a broke
// org never gets a job queued; the import handler re-checks at charge time
// to cover the window between the two.
func (u *projectsUC) StartPipeline(ctx context.Context, projectID uuid.UUID, input *models.StartPipelineInput) (*models.PipelineJob, error) {
	project, err := u.projectsRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	if project.Phase != models.PhaseCreated {
		return nil, fmt.Errorf("pipeline already started for project %s", projectID)
	}
	if project.SourceURL == "" {
		return nil, fmt.Errorf("project has no source video")
	}

	var duration time.Duration
	if input != nil && input.DurationSec > 0 {
		duration = time.Duration(input.DurationSec * float64(time.Second))
	}
	enough, err := u.creditsUC.HasSufficient(ctx, project.OrgID, duration)
	if err != nil {
		u.logger.Errorf("StartPipeline - HasSufficient error: %v", err)
		return nil, fmt.Errorf("failed to check credit balance: %v", err)
	}
	if !enough {
		return nil, credits.ErrInsufficientCredits
	}

	if _, err = u.projectsRepo.UpdatePhase(ctx, projectID, models.PhaseIngesting); err != nil {
		u.logger.Errorf("StartPipeline - UpdatePhase error: %v", err)
		return nil, err
	}

	payload, err := json.Marshal(models.ImportPayload{SourceURL: project.SourceURL})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal import payload: %w", err)
	}
	job := &models.PipelineJob{
		Kind:      project.Kind,
		ProjectID: project.ProjectID,
		OrgID:     project.OrgID,
		Payload:   payload,
	}
	job, err = u.orchestrator.Enqueue(ctx, pipeline.StageImport, job)
	if err != nil {
		u.logger.Errorf("StartPipeline - Enqueue error: %v", err)
		return nil, fmt.Errorf("failed to queue import: %v", err)
	}
	return job, nil
}

func (u *projectsUC) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	if projectID == uuid.Nil {
		return nil, fmt.Errorf("invalid project id: cannot be empty")
	}
	project, err := u.projectsRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project not found")
		}
		u.logger.Errorf("GetProject - failed to fetch project: %v", err)
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	return project, nil
}

func (u *projectsUC) ListProjects(ctx context.Context, orgID uuid.UUID, pagination *utils.Pagination) (*models.ProjectList, error) {
	if pagination == nil {
		pagination = &utils.Pagination{
			Page: 1,
			Size: 10,
		}
	}
	if pagination.Page < 1 {
		pagination.Page = 1
	}
	if pagination.Size < 1 || pagination.Size > 100 {
		pagination.Size = 10
	}
	list, err := u.projectsRepo.GetProjects(ctx, orgID, pagination)
	if err != nil {
		u.logger.Errorf("ListProjects - failed to fetch projects for org %s: %v", orgID, err)
		return nil, fmt.Errorf("failed to fetch projects: %v", err)
	}
	return list, nil
}

func (u *projectsUC) DeleteProject(ctx context.Context, orgID, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return fmt.Errorf("invalid project id: cannot be empty")
	}
	if err := u.projectsRepo.DeleteProject(ctx, orgID, projectID); err != nil {
		u.logger.Errorf("DeleteProject - failed to delete project: %v", err)
		return fmt.Errorf("failed to delete project: %v", err)
	}
	return nil
}

func (u *projectsUC) ListMoments(ctx context.Context, projectID uuid.UUID) ([]*models.Moment, error) {
	moments, err := u.projectsRepo.GetMoments(ctx, projectID)
	if err != nil {
		u.logger.Errorf("ListMoments - failed to fetch moments: %v", err)
		return nil, fmt.Errorf("failed to fetch moments: %v", err)
	}
	return moments, nil
}

func (u *projectsUC) ListAssets(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error) {
	assets, err := u.projectsRepo.GetAssets(ctx, projectID)
	if err != nil {
		u.logger.Errorf("ListAssets - failed to fetch assets: %v", err)
		return nil, fmt.Errorf("failed to fetch assets: %v", err)
	}
	return assets, nil
}

// GetTranscriptFile renders the stored transcript as a subtitle file.
func (u *projectsUC) GetTranscriptFile(ctx context.Context, projectID uuid.UUID, format string) (string, error) {
	transcript, err := u.projectsRepo.GetTranscript(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("transcript not available")
		}
		return "", fmt.Errorf("failed to fetch transcript: %v", err)
	}
	cues := captions.BuildCues(transcript.Words, 0)
	switch format {
	case "srt", "":
		return captions.FormatSRT(cues), nil
	case "vtt":
		return captions.FormatVTT(cues), nil
	default:
		return "", fmt.Errorf("unsupported transcript format %q", format)
	}
}

// CreateExport records a render request and queues it. Exports run against a
// finished project and do not move its phase.
func (u *projectsUC) CreateExport(ctx context.Context, projectID uuid.UUID, input *models.CreateExportInput) (*models.Export, error) {
	if err := utils.ValidateStruct(ctx, input); err != nil {
		u.logger.Errorf("CreateExport - ValidateStruct error: %v", err)
		return nil, fmt.Errorf("invalid input: %v", err)
	}
	project, err := u.projectsRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("project not found")
		}
		return nil, fmt.Errorf("failed to fetch project: %v", err)
	}
	if project.Kind != models.PipelineClip {
		return nil, fmt.Errorf("exports are only available for clip projects")
	}
	if project.Phase != models.PhaseReady {
		return nil, fmt.Errorf("project is not ready for export, current phase %s", project.Phase)
	}
	moment, err := u.projectsRepo.GetMomentByID(ctx, input.MomentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("moment not found")
		}
		return nil, fmt.Errorf("failed to fetch moment: %v", err)
	}
	if moment.ProjectID != projectID {
		return nil, fmt.Errorf("moment does not belong to project")
	}
	if err = moment.Validate(); err != nil {
		return nil, fmt.Errorf("moment cannot be rendered: %v", err)
	}

	export := &models.Export{
		ProjectID: projectID,
		MomentID:  input.MomentID,
		Status:    models.ExportPending,
		Options:   input.Options,
	}
	export, err = u.projectsRepo.CreateExport(ctx, export)
	if err != nil {
		u.logger.Errorf("CreateExport - CreateExport error: %v", err)
		return nil, err
	}

	payload, err := json.Marshal(models.ExportPayload{ExportID: export.ExportID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export payload: %w", err)
	}
	job := &models.PipelineJob{
		Kind:      project.Kind,
		ProjectID: project.ProjectID,
		OrgID:     project.OrgID,
		Payload:   payload,
	}
	if _, err = u.orchestrator.Enqueue(ctx, pipeline.StageClipExport, job); err != nil {
		u.logger.Errorf("CreateExport - Enqueue error: %v", err)
		return nil, fmt.Errorf("failed to queue export: %v", err)
	}
	return export, nil
}

func (u *projectsUC) GetExport(ctx context.Context, exportID uuid.UUID) (*models.Export, error) {
	if exportID == uuid.Nil {
		return nil, fmt.Errorf("invalid export id: cannot be empty")
	}
	export, err := u.projectsRepo.GetExportByID(ctx, exportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("export not found")
		}
		return nil, fmt.Errorf("failed to fetch export: %v", err)
	}
	return export, nil
}

func (u *projectsUC) ListExports(ctx context.Context, projectID uuid.UUID) ([]*models.Export, error) {
	exports, err := u.projectsRepo.GetExports(ctx, projectID)
	if err != nil {
		u.logger.Errorf("ListExports - failed to fetch exports: %v", err)
		return nil, fmt.Errorf("failed to fetch exports: %v", err)
	}
	return exports, nil
}

// GetDownloadURL presigns one artifact of a completed export. artifact
// defaults to the rendered video.
func (u *projectsUC) GetDownloadURL(ctx context.Context, exportID uuid.UUID, artifact string) (string, error) {
	export, err := u.GetExport(ctx, exportID)
	if err != nil {
		return "", err
	}
	if export.Status != models.ExportCompleted {
		return "", fmt.Errorf("export is not completed, current status %s", export.Status)
	}
	if artifact == "" {
		artifact = "video"
	}
	key, ok := export.Artifacts[artifact].(string)
	if !ok || key == "" {
		return "", fmt.Errorf("export has no %q artifact", artifact)
	}
	url, err := u.awsRepo.PresignDownload(ctx, key, downloadURLExpiry)
	if err != nil {
		u.logger.Errorf("GetDownloadURL - PresignDownload error: %v", err)
		return "", fmt.Errorf("failed to generate download URL: %v", err)
	}
	return url, nil
}
