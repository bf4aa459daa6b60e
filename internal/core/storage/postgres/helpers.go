package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanRunRow scans a run header. Rows are loaded separately.
func scanRunRow(row scanner) (*aggregation.Snapshot, error) {
	var snap aggregation.Snapshot
	var columnsJSON []byte

	err := row.Scan(
		&snap.RunID,
		&snap.Rule,
		&snap.RuleFingerprint,
		&snap.Index,
		&snap.Version,
		&columnsJSON,
		&snap.StartedAt,
		&snap.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(columnsJSON, &snap.Columns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal columns: %w", err)
	}
	return &snap, nil
}

// marshalRow encodes one result row as JSONB. Nil rows produce "{}".
func marshalRow(row map[string]any) ([]byte, error) {
	if row == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal row: %w", err)
	}
	return data, nil
}
