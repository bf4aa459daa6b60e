package postgres

// SQL queries for pipeline snapshot storage

const (
	// queryInsertRun writes the run header. run_id is generated by the caller.
	queryInsertRun = `
		INSERT INTO aggregation_runs (
			run_id, rule_name, rule_fingerprint, index_name, index_version,
			columns, row_count, started_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	queryInsertRow = `
		INSERT INTO aggregation_rows (run_id, ordinal, data)
		VALUES ($1, $2, $3)
	`

	// queryLatestRun picks the newest finished run of one rule.
	queryLatestRun = `
		SELECT
			run_id, rule_name, rule_fingerprint, index_name, index_version,
			columns, started_at, finished_at
		FROM aggregation_runs
		WHERE rule_name = $1
		ORDER BY finished_at DESC
		LIMIT 1
	`

	queryRunRows = `
		SELECT data
		FROM aggregation_rows
		WHERE run_id = $1
		ORDER BY ordinal ASC
	`

	queryTableExists = `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_name = $1
		)
	`
)
