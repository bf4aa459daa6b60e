package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/aevon-lab/aevon-search/internal/stream"
	"github.com/google/uuid"
)

// ModelResolver returns the compiled index model a pipeline runs against.
// *schema.Catalog satisfies it.
type ModelResolver interface {
	Model(ctx context.Context, index string, version int) (*schema.IndexModel, error)
}

// RunnerOptions holds defaults applied when a rule leaves them unset.
type RunnerOptions struct {
	MaxRows int
	Timeout time.Duration
	Dialect int
}

// Runner turns pipeline rules into streams and executes them.
type Runner struct {
	models ModelResolver
	exec   stream.Executor
	opts   RunnerOptions
	now    func() time.Time
}

// NewRunner creates a runner. A MaxRows of 0 uses stream.DefaultMaxRows.
func NewRunner(models ModelResolver, exec stream.Executor, opts RunnerOptions) *Runner {
	if opts.MaxRows <= 0 {
		opts.MaxRows = stream.DefaultMaxRows
	}
	return &Runner{models: models, exec: exec, opts: opts, now: time.Now}
}

// Build resolves the rule's index model and replays its steps onto a new stream.
// Builder errors surface here rather than at execution.
func (r *Runner) Build(ctx context.Context, rule PipelineRule) (*stream.Stream[map[string]any], *schema.IndexModel, error) {
	model, err := r.models.Model(ctx, rule.Index, rule.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("pipeline %q: %w", rule.Name, err)
	}

	opts := []stream.Option[map[string]any]{
		stream.WithDecoder(schema.EntityDecoder[map[string]any](model)),
	}
	if r.opts.Dialect > 0 {
		opts = append(opts, stream.WithDialect[map[string]any](r.opts.Dialect))
	}

	s := stream.New(r.exec, rule.Index, rule.Query, opts...).ApplySteps(model, rule.Steps...)
	if err := s.Err(); err != nil {
		return nil, nil, fmt.Errorf("pipeline %q: %w", rule.Name, err)
	}
	return s, model, nil
}

// ExecOptions returns the execution options of rule with runner defaults filled in.
func (r *Runner) ExecOptions(rule PipelineRule) []stream.ExecOption {
	maxRows := rule.MaxRows
	if maxRows <= 0 {
		maxRows = r.opts.MaxRows
	}
	timeout := rule.Timeout
	if timeout <= 0 {
		timeout = r.opts.Timeout
	}

	opts := []stream.ExecOption{stream.WithMaxRows(maxRows)}
	if timeout > 0 {
		opts = append(opts, stream.WithTimeout(timeout))
	}
	if rule.Verbatim {
		opts = append(opts, stream.Verbatim())
	}
	return opts
}

// Run executes rule and returns its result as a snapshot. Rules with a cursor
// step are read to exhaustion, page by page.
func (r *Runner) Run(ctx context.Context, rule PipelineRule) (*Snapshot, error) {
	started := r.now().UTC()

	s, model, err := r.Build(ctx, rule)
	if err != nil {
		return nil, err
	}

	var tuples []stream.Tuple
	if cursor := s.Pipeline().Cursor; cursor != nil {
		tuples, err = r.drain(ctx, s, cursor, r.ExecOptions(rule))
	} else {
		tuples, err = s.CollectHintedTuples(ctx, r.ExecOptions(rule)...)
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", rule.Name, err)
	}

	rows := make([]map[string]any, 0, len(tuples))
	for _, t := range tuples {
		rows = append(rows, t.JSONMap())
	}

	snap := &Snapshot{
		RunID:           uuid.New().String(),
		Rule:            rule.Name,
		RuleFingerprint: rule.Fingerprint,
		Index:           model.Index,
		Version:         model.Version,
		Columns:         s.Columns(),
		Rows:            rows,
		StartedAt:       started,
		FinishedAt:      r.now().UTC(),
	}

	slog.Debug("[Runner] Pipeline executed",
		"rule", rule.Name,
		"index", rule.Index,
		"rows", len(rows),
		"duration", snap.Duration(),
	)
	return snap, nil
}

func (r *Runner) drain(ctx context.Context, s *stream.Stream[map[string]any], cursor *stream.CursorOptions, opts []stream.ExecOption) ([]stream.Tuple, error) {
	types := make([]stream.ValueType, len(s.Columns()))
	page, err := s.FirstPage(ctx, stream.PageRequest{
		Size:    cursor.Count,
		MaxIdle: cursor.MaxIdle,
		Options: opts,
	}, types...)
	if err != nil {
		return nil, err
	}
	// No-op once exhausted; releases the cursor when a later read fails.
	defer page.Close(ctx) //nolint:errcheck

	out := append([]stream.Tuple(nil), page.Content...)
	for page.HasNext {
		if page, err = page.Next(ctx); err != nil {
			return nil, err
		}
		out = append(out, page.Content...)
	}
	return out, nil
}
