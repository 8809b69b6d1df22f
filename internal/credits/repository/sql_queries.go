package repository

const (
	getOrganizationQuery = `SELECT org_id, name, tier, credits, created_at, updated_at FROM organizations WHERE org_id = $1`

	getOrganizationForUpdateQuery = `SELECT org_id, name, tier, credits, created_at, updated_at FROM organizations WHERE org_id = $1 FOR UPDATE`

	deductBalanceQuery = `UPDATE organizations SET credits = credits - $2, updated_at = now()
						WHERE org_id = $1 AND credits >= $2
						RETURNING credits`

	refundBalanceQuery = `UPDATE organizations SET credits = credits + $2, updated_at = now()
						WHERE org_id = $1
						RETURNING credits`

	insertTransactionQuery = `INSERT INTO credit_transactions (org_id, project_id, type, amount, balance_before, balance_after, reference)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
						ON CONFLICT (reference) DO NOTHING
						RETURNING tx_id, org_id, project_id, type, amount, balance_before, balance_after, reference, created_at`

	setProjectCreditsQuery = `UPDATE projects SET credits_used = $2, updated_at = now() WHERE project_id = $1`

	listTransactionsQuery = `SELECT tx_id, org_id, project_id, type, amount, balance_before, balance_after, reference, created_at
						FROM credit_transactions WHERE org_id = $1 ORDER BY created_at DESC LIMIT $2`
)
