package store

// Run queries
const (
	queryInsertRun = `
		INSERT INTO runs (id, cluster, revision, firmware, completeness, inventory, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	queryGetRun = `
		SELECT id, cluster, revision, firmware, completeness, inventory, created_at
		FROM runs WHERE id = ?`

	queryLatestRun = `
		SELECT id, cluster, revision, firmware, completeness, inventory, created_at
		FROM runs ORDER BY created_at DESC LIMIT 1`

	queryPruneRuns = `
		DELETE FROM runs WHERE id NOT IN (
			SELECT id FROM runs ORDER BY created_at DESC LIMIT ?
		)`
)
