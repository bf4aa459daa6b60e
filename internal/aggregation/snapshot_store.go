package aggregation

import (
	"context"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// SnapshotStore is the interface for durable pipeline run results.
// The scheduler saves every successful run through this interface.
//
// Contract: a run and its rows are written atomically, so Latest never
// observes a run with a partial row set.
type SnapshotStore interface {
	// Save stores the run header and all of its rows in one transaction.
	Save(ctx context.Context, snapshot *aggregation.Snapshot) error

	// Latest returns the most recently finished run of a rule.
	// Returns aggregation.ErrSnapshotNotFound when the rule has no stored run.
	Latest(ctx context.Context, rule string) (*aggregation.Snapshot, error)
}
