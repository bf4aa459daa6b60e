package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/google/uuid"
)

// SnapshotAdapter stores pipeline run results in PostgreSQL.
// A run header and its rows are written in a single transaction.
type SnapshotAdapter struct {
	db *sql.DB
}

// NewSnapshotAdapter creates a new SnapshotAdapter sharing the given connection.
func NewSnapshotAdapter(db *sql.DB) *SnapshotAdapter {
	return &SnapshotAdapter{db: db}
}

// Save writes the run and its rows. A missing RunID is generated.
func (a *SnapshotAdapter) Save(ctx context.Context, snap *aggregation.Snapshot) error {
	if snap.RunID == "" {
		snap.RunID = uuid.New().String()
	}

	columnsJSON, err := json.Marshal(snap.Columns)
	if err != nil {
		return fmt.Errorf("snapshot save: marshal columns: %w", err)
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("snapshot save: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, queryInsertRun,
		snap.RunID,
		snap.Rule,
		snap.RuleFingerprint,
		snap.Index,
		snap.Version,
		columnsJSON,
		len(snap.Rows),
		snap.StartedAt,
		snap.FinishedAt,
	); err != nil {
		return fmt.Errorf("snapshot save: insert run: %w", err)
	}

	if len(snap.Rows) > 0 {
		stmt, err := tx.PrepareContext(ctx, queryInsertRow)
		if err != nil {
			return fmt.Errorf("snapshot save: prepare row insert: %w", err)
		}
		defer stmt.Close()

		for i, row := range snap.Rows {
			data, err := marshalRow(row)
			if err != nil {
				return fmt.Errorf("snapshot save: row %d: %w", i, err)
			}
			if _, err := stmt.ExecContext(ctx, snap.RunID, i, data); err != nil {
				return fmt.Errorf("snapshot save: insert row %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("snapshot save: commit: %w", err)
	}

	slog.Info("[Postgres] Snapshot saved",
		"rule", snap.Rule,
		"run_id", snap.RunID,
		"rows", len(snap.Rows),
	)
	return nil
}

// Latest returns the newest run of rule with its rows in result order.
func (a *SnapshotAdapter) Latest(ctx context.Context, rule string) (*aggregation.Snapshot, error) {
	snap, err := scanRunRow(a.db.QueryRowContext(ctx, queryLatestRun, rule))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", aggregation.ErrSnapshotNotFound, rule)
	}
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, queryRunRows, snap.RunID)
	if err != nil {
		return nil, fmt.Errorf("latest snapshot rows: %w", err)
	}
	defer rows.Close()

	snap.Rows = []map[string]any{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("latest snapshot rows: scan: %w", err)
		}
		var row map[string]any
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("latest snapshot rows: unmarshal: %w", err)
		}
		snap.Rows = append(snap.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("latest snapshot rows: iterate: %w", err)
	}

	return snap, nil
}
