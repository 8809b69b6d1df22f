package projects

import (
	"context"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/google/uuid"
)

// Repository is the relational store for projects and everything hanging
// off them. UpdatePhase enforces the pipeline's legal phase transitions.
type Repository interface {
	CreateProject(ctx context.Context, project *models.Project) (*models.Project, error)
	GetProjectByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error)
	GetProjects(ctx context.Context, orgID uuid.UUID, pq *utils.Pagination) (*models.ProjectList, error)
	UpdatePhase(ctx context.Context, projectID uuid.UUID, phase models.Phase) (*models.Project, error)
	UpdateSourceURL(ctx context.Context, projectID uuid.UUID, sourceURL string) error
	DeleteProject(ctx context.Context, orgID, projectID uuid.UUID) error

	GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error)

	CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	GetAssetByKind(ctx context.Context, projectID uuid.UUID, kind models.AssetKind) (*models.Asset, error)
	GetAssets(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error)

	SaveMoments(ctx context.Context, projectID uuid.UUID, moments []*models.Moment) error
	GetMoments(ctx context.Context, projectID uuid.UUID) ([]*models.Moment, error)
	GetMomentByID(ctx context.Context, momentID uuid.UUID) (*models.Moment, error)
	UpdateMomentProxy(ctx context.Context, momentID uuid.UUID, proxyKey string) error

	SaveTranscript(ctx context.Context, transcript *models.Transcript) (*models.Transcript, error)
	GetTranscript(ctx context.Context, projectID uuid.UUID) (*models.Transcript, error)

	CreateExport(ctx context.Context, export *models.Export) (*models.Export, error)
	GetExportByID(ctx context.Context, exportID uuid.UUID) (*models.Export, error)
	GetExports(ctx context.Context, projectID uuid.UUID) ([]*models.Export, error)
	UpdateExport(ctx context.Context, export *models.Export) (*models.Export, error)
}
