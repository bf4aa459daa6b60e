package projection

import (
	"time"

	coreagg "github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/aevon-lab/aevon-search/internal/stream"
)

// AggregateRequest is the body of POST /v1/aggregate.
// Steps use the same shape as saved pipeline files.
type AggregateRequest struct {
	Index    string         `json:"index" binding:"required"`
	Version  int            `json:"version"` // 0 = latest active
	Query    string         `json:"query"`
	Verbatim bool           `json:"verbatim"`
	Timeout  string         `json:"timeout"` // e.g. "500ms"
	MaxRows  int            `json:"max_rows"`
	Steps    []coreagg.Step `json:"steps" binding:"required"`

	// PageSize > 0 switches to cursor paging and returns a session token.
	PageSize int    `json:"page_size"`
	Page     int    `json:"page"`
	MaxIdle  string `json:"max_idle"`
}

// AggregateResponse is the body of a non-paged aggregate.
type AggregateResponse struct {
	Index   string         `json:"index"`
	Version int            `json:"version"`
	Columns []string       `json:"columns"`
	Count   int            `json:"count"`
	Rows    []stream.Tuple `json:"rows"`
}

// PageResponse is one cursor page. Token is empty once the cursor is exhausted.
type PageResponse struct {
	Token   string         `json:"token,omitempty"`
	Columns []string       `json:"columns"`
	Page    int            `json:"page"`
	Size    int            `json:"size"`
	HasNext bool           `json:"has_next"`
	Rows    []stream.Tuple `json:"rows"`
}

// SnapshotResponse is a stored or freshly run pipeline result.
type SnapshotResponse struct {
	RunID           string           `json:"run_id"`
	Rule            string           `json:"rule"`
	RuleFingerprint string           `json:"rule_fingerprint"`
	Index           string           `json:"index"`
	Version         int              `json:"version"`
	Columns         []string         `json:"columns"`
	Count           int              `json:"count"`
	Rows            []map[string]any `json:"rows"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
	DurationMs      int64            `json:"duration_ms"`
}

func toSnapshotResponse(s *coreagg.Snapshot) *SnapshotResponse {
	rows := s.Rows
	if rows == nil {
		rows = []map[string]any{}
	}
	return &SnapshotResponse{
		RunID:           s.RunID,
		Rule:            s.Rule,
		RuleFingerprint: s.RuleFingerprint,
		Index:           s.Index,
		Version:         s.Version,
		Columns:         s.Columns,
		Count:           len(rows),
		Rows:            rows,
		StartedAt:       s.StartedAt,
		FinishedAt:      s.FinishedAt,
		DurationMs:      s.Duration().Milliseconds(),
	}
}
