package aggregation

import core "github.com/aevon-lab/aevon-search/internal/core/aggregation"

// Re-export core aggregation types for package-level compatibility.
type PipelineRule = core.PipelineRule
type Snapshot = core.Snapshot
type RuleRepository = core.RuleRepository

var (
	ErrRuleNotFound     = core.ErrRuleNotFound
	ErrSnapshotNotFound = core.ErrSnapshotNotFound
)
