package aggregation

import (
	"errors"
	"time"
)

// ErrSnapshotNotFound is returned when a rule has never been run to completion.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is the materialized result of one saved pipeline run.
type Snapshot struct {
	RunID           string           `json:"run_id"`
	Rule            string           `json:"rule"`
	RuleFingerprint string           `json:"rule_fingerprint"`
	Index           string           `json:"index"`
	Version         int              `json:"version"`
	Columns         []string         `json:"columns"`
	Rows            []map[string]any `json:"rows"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
}

// Duration is the wall time of the run.
func (s *Snapshot) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
