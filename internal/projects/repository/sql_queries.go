package repository

const (
	createProjectQuery = `INSERT INTO projects (org_id, title, source_url, pipeline_kind, phase, tier, settings, expires_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING *`
	getProjectByIDQuery = `SELECT project_id, org_id, title, source_url, pipeline_kind, phase, tier, settings, credits_used, expires_at, created_at, updated_at
					FROM projects WHERE project_id = $1`
	getProjectForUpdateQuery = `SELECT project_id, org_id, title, source_url, pipeline_kind, phase, tier, settings, credits_used, expires_at, created_at, updated_at
					FROM projects WHERE project_id = $1 FOR UPDATE`
	getProjectsByOrgQuery = `SELECT project_id, org_id, title, source_url, pipeline_kind, phase, tier, settings, credits_used, expires_at, created_at, updated_at
					FROM projects WHERE org_id = $1 AND expires_at > now() ORDER BY created_at DESC OFFSET $2 LIMIT $3`
	getTotalProjectsByOrgQuery = `SELECT COUNT(project_id) FROM projects WHERE org_id = $1 AND expires_at > now()`
	updateProjectPhaseQuery    = `UPDATE projects SET phase = $1, updated_at = now() WHERE project_id = $2 RETURNING *`
	updateProjectSourceQuery   = `UPDATE projects SET source_url = $1, updated_at = now() WHERE project_id = $2`
	deleteProjectQuery         = `DELETE FROM projects WHERE project_id = $1 AND org_id = $2`

	getOrganizationQuery = `SELECT org_id, name, tier, credits, created_at, updated_at FROM organizations WHERE org_id = $1`

	createAssetQuery = `INSERT INTO assets (project_id, kind, storage_key, duration, width, height, file_size, mime_type)
					VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING *`
	getAssetByKindQuery = `SELECT asset_id, project_id, kind, storage_key, duration, width, height, file_size, mime_type, created_at
					FROM assets WHERE project_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`
	getAssetsQuery = `SELECT asset_id, project_id, kind, storage_key, duration, width, height, file_size, mime_type, created_at
					FROM assets WHERE project_id = $1 ORDER BY created_at`

	createMomentQuery = `INSERT INTO moments (project_id, title, reason, score, start_sec, end_sec, segments)
					VALUES ($1, $2, $3, $4, $5, $6, $7)`
	deleteMomentsQuery = `DELETE FROM moments WHERE project_id = $1`
	getMomentsQuery    = `SELECT moment_id, project_id, title, reason, score, start_sec, end_sec, segments, proxy_key, created_at
					FROM moments WHERE project_id = $1 ORDER BY score DESC`
	getMomentByIDQuery = `SELECT moment_id, project_id, title, reason, score, start_sec, end_sec, segments, proxy_key, created_at
					FROM moments WHERE moment_id = $1`
	updateMomentProxyQuery = `UPDATE moments SET proxy_key = $1 WHERE moment_id = $2`

	upsertTranscriptQuery = `INSERT INTO transcripts (project_id, language, words) VALUES ($1, $2, $3)
					ON CONFLICT (project_id) DO UPDATE SET language = EXCLUDED.language, words = EXCLUDED.words
					RETURNING *`
	getTranscriptQuery = `SELECT transcript_id, project_id, language, words, created_at FROM transcripts WHERE project_id = $1`

	createExportQuery = `INSERT INTO exports (project_id, moment_id, status, options)
					VALUES ($1, $2, $3, $4) RETURNING *`
	getExportByIDQuery = `SELECT export_id, project_id, moment_id, status, options, artifacts, metrics, processing_error, created_at, updated_at
					FROM exports WHERE export_id = $1`
	getExportsQuery = `SELECT export_id, project_id, moment_id, status, options, artifacts, metrics, processing_error, created_at, updated_at
					FROM exports WHERE project_id = $1 ORDER BY created_at DESC`
	updateExportQuery = `UPDATE exports
					SET status = $1, artifacts = $2, metrics = $3, processing_error = $4, updated_at = now()
					WHERE export_id = $5 RETURNING *`
)
