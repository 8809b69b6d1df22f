package projects

import (
	"context"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/google/uuid"
)

type UseCase interface {
	CreateProject(ctx context.Context, orgID uuid.UUID, input *models.CreateProjectInput) (*models.Project, error)
	GetPresignUpload(ctx context.Context, projectID uuid.UUID, input *models.UploadInput) (string, error)
	StartPipeline(ctx context.Context, projectID uuid.UUID, input *models.StartPipelineInput) (*models.PipelineJob, error)
	GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	ListProjects(ctx context.Context, orgID uuid.UUID, pagination *utils.Pagination) (*models.ProjectList, error)
	DeleteProject(ctx context.Context, orgID, projectID uuid.UUID) error

	ListMoments(ctx context.Context, projectID uuid.UUID) ([]*models.Moment, error)
	ListAssets(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error)
	GetTranscriptFile(ctx context.Context, projectID uuid.UUID, format string) (string, error)

	CreateExport(ctx context.Context, projectID uuid.UUID, input *models.CreateExportInput) (*models.Export, error)
	GetExport(ctx context.Context, exportID uuid.UUID) (*models.Export, error)
	ListExports(ctx context.Context, projectID uuid.UUID) ([]*models.Export, error)
	GetDownloadURL(ctx context.Context, exportID uuid.UUID, artifact string) (string, error)
}
