package repository

import (
	"context"
	"fmt"

	"github.com/clipforge/pipeline/internal/models"
	"github.com/clipforge/pipeline/internal/projects"
	"github.com/clipforge/pipeline/pkg/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type projectsRepo struct {
	db *sqlx.DB
}

func NewProjectsRepo(db *sqlx.DB) projects.Repository {
	return &projectsRepo{
		db: db,
	}
}

func (r *projectsRepo) CreateProject(ctx context.Context, project *models.Project) (*models.Project, error) {
	created := &models.Project{}
	if err := r.db.QueryRowxContext(
		ctx,
		createProjectQuery,
		project.OrgID,
		project.Title,
		project.SourceURL,
		project.Kind,
		project.Phase,
		project.Tier,
		project.Settings,
		project.ExpiresAt,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

func (r *projectsRepo) GetProjectByID(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	project := &models.Project{}
	if err := r.db.QueryRowxContext(
		ctx,
		getProjectByIDQuery,
		projectID,
	).StructScan(project); err != nil {
		return nil, fmt.Errorf("failed to get project by id: %w", err)
	}
	return project, nil
}

func (r *projectsRepo) GetProjects(ctx context.Context, orgID uuid.UUID, pq *utils.Pagination) (*models.ProjectList, error) {
	var totalCount int
	if err := r.db.GetContext(
		ctx,
		&totalCount,
		getTotalProjectsByOrgQuery,
		orgID,
	); err != nil {
		return nil, fmt.Errorf("failed to get total projects count: %w", err)
	}
	if totalCount == 0 {
		return &models.ProjectList{
			Projects:   make([]*models.Project, 0),
			TotalCount: 0,
			Page:       pq.GetPage(),
			PageSize:   pq.GetSize(),
			HasMore:    false,
		}, nil
	}
	rows, err := r.db.QueryxContext(
		ctx,
		getProjectsByOrgQuery,
		orgID,
		pq.GetOffset(),
		pq.GetLimit(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects by org: %w", err)
	}
	defer rows.Close()
	var list = make([]*models.Project, 0, pq.GetSize())
	for rows.Next() {
		var project models.Project
		if err = rows.StructScan(&project); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		list = append(list, &project)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan projects: %w", err)
	}
	return &models.ProjectList{
		Projects:   list,
		TotalCount: totalCount,
		Page:       pq.GetPage(),
		PageSize:   pq.GetSize(),
		HasMore:    utils.GetHasMore(pq.GetPage(), totalCount, pq.GetSize()),
	}, nil
}

// UpdatePhase moves a project to the next phase inside a transaction,
// rejecting transitions the pipeline does not allow.
func (r *projectsRepo) UpdatePhase(ctx context.Context, projectID uuid.UUID, phase models.Phase) (*models.Project, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	current := &models.Project{}
	if err = tx.QueryRowxContext(ctx, getProjectForUpdateQuery, projectID).StructScan(current); err != nil {
		return nil, fmt.Errorf("failed to lock project: %w", err)
	}
	if current.Phase == phase {
		return current, nil
	}
	if _, err = models.Transition(current.Kind, current.Phase, phase); err != nil {
		return nil, err
	}

	updated := &models.Project{}
	if err = tx.QueryRowxContext(ctx, updateProjectPhaseQuery, phase, projectID).StructScan(updated); err != nil {
		return nil, fmt.Errorf("failed to update project phase: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit phase update: %w", err)
	}
	return updated, nil
}

func (r *projectsRepo) UpdateSourceURL(ctx context.Context, projectID uuid.UUID, sourceURL string) error {
	if _, err := r.db.ExecContext(ctx, updateProjectSourceQuery, sourceURL, projectID); err != nil {
		return fmt.Errorf("failed to update project source: %w", err)
	}
	return nil
}

func (r *projectsRepo) DeleteProject(ctx context.Context, orgID, projectID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, deleteProjectQuery, projectID, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	count, _ := res.RowsAffected()
	if count == 0 {
		return fmt.Errorf("no project found to delete")
	}
	return nil
}

func (r *projectsRepo) GetOrganization(ctx context.Context, orgID uuid.UUID) (*models.Organization, error) {
	org := &models.Organization{}
	if err := r.db.QueryRowxContext(ctx, getOrganizationQuery, orgID).StructScan(org); err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

func (r *projectsRepo) CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	created := &models.Asset{}
	if err := r.db.QueryRowxContext(
		ctx,
		createAssetQuery,
		asset.ProjectID,
		asset.Kind,
		asset.StorageKey,
		asset.Duration,
		asset.Width,
		asset.Height,
		asset.FileSize,
		asset.MimeType,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}
	return created, nil
}

func (r *projectsRepo) GetAssetByKind(ctx context.Context, projectID uuid.UUID, kind models.AssetKind) (*models.Asset, error) {
	asset := &models.Asset{}
	if err := r.db.QueryRowxContext(ctx, getAssetByKindQuery, projectID, kind).StructScan(asset); err != nil {
		return nil, fmt.Errorf("failed to get %s asset: %w", kind, err)
	}
	return asset, nil
}

func (r *projectsRepo) GetAssets(ctx context.Context, projectID uuid.UUID) ([]*models.Asset, error) {
	rows, err := r.db.QueryxContext(ctx, getAssetsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer rows.Close()
	assets := make([]*models.Asset, 0)
	for rows.Next() {
		var asset models.Asset
		if err = rows.StructScan(&asset); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, &asset)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan assets: %w", err)
	}
	return assets, nil
}

// SaveMoments replaces a project's detected moments in one transaction so a
// re-run of detection never leaves a mix of old and new results.
func (r *projectsRepo) SaveMoments(ctx context.Context, projectID uuid.UUID, moments []*models.Moment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, deleteMomentsQuery, projectID); err != nil {
		return fmt.Errorf("failed to clear moments: %w", err)
	}
	for _, m := range moments {
		if _, err = tx.ExecContext(
			ctx,
			createMomentQuery,
			projectID,
			m.Title,
			m.Reason,
			m.Score,
			m.Start,
			m.End,
			m.Segments,
		); err != nil {
			return fmt.Errorf("failed to insert moment: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit moments: %w", err)
	}
	return nil
}

func (r *projectsRepo) GetMoments(ctx context.Context, projectID uuid.UUID) ([]*models.Moment, error) {
	rows, err := r.db.QueryxContext(ctx, getMomentsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get moments: %w", err)
	}
	defer rows.Close()
	moments := make([]*models.Moment, 0)
	for rows.Next() {
		var moment models.Moment
		if err = rows.StructScan(&moment); err != nil {
			return nil, fmt.Errorf("failed to scan moment: %w", err)
		}
		moments = append(moments, &moment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan moments: %w", err)
	}
	return moments, nil
}

func (r *projectsRepo) GetMomentByID(ctx context.Context, momentID uuid.UUID) (*models.Moment, error) {
	moment := &models.Moment{}
	if err := r.db.QueryRowxContext(ctx, getMomentByIDQuery, momentID).StructScan(moment); err != nil {
		return nil, fmt.Errorf("failed to get moment by id: %w", err)
	}
	return moment, nil
}

func (r *projectsRepo) UpdateMomentProxy(ctx context.Context, momentID uuid.UUID, proxyKey string) error {
	if _, err := r.db.ExecContext(ctx, updateMomentProxyQuery, proxyKey, momentID); err != nil {
		return fmt.Errorf("failed to update moment proxy: %w", err)
	}
	return nil
}

func (r *projectsRepo) SaveTranscript(ctx context.Context, transcript *models.Transcript) (*models.Transcript, error) {
	saved := &models.Transcript{}
	if err := r.db.QueryRowxContext(
		ctx,
		upsertTranscriptQuery,
		transcript.ProjectID,
		transcript.Language,
		transcript.Words,
	).StructScan(saved); err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}
	return saved, nil
}

func (r *projectsRepo) GetTranscript(ctx context.Context, projectID uuid.UUID) (*models.Transcript, error) {
	transcript := &models.Transcript{}
	if err := r.db.QueryRowxContext(ctx, getTranscriptQuery, projectID).StructScan(transcript); err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return transcript, nil
}

func (r *projectsRepo) CreateExport(ctx context.Context, export *models.Export) (*models.Export, error) {
	created := &models.Export{}
	if err := r.db.QueryRowxContext(
		ctx,
		createExportQuery,
		export.ProjectID,
		export.MomentID,
		export.Status,
		export.Options,
	).StructScan(created); err != nil {
		return nil, fmt.Errorf("failed to create export: %w", err)
	}
	return created, nil
}

func (r *projectsRepo) GetExportByID(ctx context.Context, exportID uuid.UUID) (*models.Export, error) {
	export := &models.Export{}
	if err := r.db.QueryRowxContext(ctx, getExportByIDQuery, exportID).StructScan(export); err != nil {
		return nil, fmt.Errorf("failed to get export by id: %w", err)
	}
	return export, nil
}

func (r *projectsRepo) GetExports(ctx context.Context, projectID uuid.UUID) ([]*models.Export, error) {
	rows, err := r.db.QueryxContext(ctx, getExportsQuery, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exports: %w", err)
	}
	defer rows.Close()
	exports := make([]*models.Export, 0)
	for rows.Next() {
		var export models.Export
		if err = rows.StructScan(&export); err != nil {
			return nil, fmt.Errorf("failed to scan export: %w", err)
		}
		exports = append(exports, &export)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan exports: %w", err)
	}
	return exports, nil
}

func (r *projectsRepo) UpdateExport(ctx context.Context, export *models.Export) (*models.Export, error) {
	updated := &models.Export{}
	if err := r.db.QueryRowxContext(
		ctx,
		updateExportQuery,
		export.Status,
		export.Artifacts,
		export.Metrics,
		export.ProcessingError,
		export.ExportID,
	).StructScan(updated); err != nil {
		return nil, fmt.Errorf("failed to update export: %w", err)
	}
	return updated, nil
}
