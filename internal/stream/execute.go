package stream

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// DefaultMaxRows caps pipelines executed without an explicit limit.
const DefaultMaxRows = 10000

// Row is one raw result row. Values are string, []byte, []any or nil.
type Row map[string]any

// Result is the raw reply of an aggregate or cursor read.
type Result struct {
	Total    int64
	Rows     []Row
	CursorID int64 // 0 when no cursor is open
}

// ExecOption adjusts a single terminal call without touching the builder.
type ExecOption func(*execOptions)

type execOptions struct {
	timeout  time.Duration
	maxRows  int
	verbatim bool
}

// WithTimeout sets the server-side timeout of the request.
func WithTimeout(d time.Duration) ExecOption {
	return func(o *execOptions) { o.timeout = d }
}

// WithMaxRows overrides DefaultMaxRows for pipelines without an explicit limit.
func WithMaxRows(n int) ExecOption {
	return func(o *execOptions) { o.maxRows = n }
}

// Verbatim disables stemming and query expansion.
func Verbatim() ExecOption {
	return func(o *execOptions) { o.verbatim = true }
}

func buildExecOptions(opts []ExecOption) execOptions {
	o := execOptions{maxRows: DefaultMaxRows}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Execute flushes open state and dispatches the pipeline.
func (s *Stream[E]) Execute(ctx context.Context, opts ...ExecOption) (*Result, error) {
	p, err := s.prepare(buildExecOptions(opts), true)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, p)
}

// ExecuteVerbatim is Execute with stemming and query expansion disabled.
func (s *Stream[E]) ExecuteVerbatim(ctx context.Context, opts ...ExecOption) (*Result, error) {
	return s.Execute(ctx, append(opts, Verbatim())...)
}

// prepare flushes and returns the pipeline snapshot to dispatch.
// The default cap is applied only when capped is set and no limit was given.
func (s *Stream[E]) prepare(o execOptions, capped bool) (*Pipeline, error) {
	s.flush()
	if s.err != nil {
		return nil, s.err
	}
	p := s.pipeline.Clone()
	if capped && !p.HasLimit() && o.maxRows > 0 {
		p.Stages = append(p.Stages, LimitStage{Offset: 0, Count: o.maxRows})
	}
	if o.timeout > 0 {
		p.Timeout = o.timeout
	}
	if o.verbatim {
		p.Verbatim = true
	}
	return p, nil
}

func (s *Stream[E]) dispatch(ctx context.Context, p *Pipeline) (*Result, error) {
	s.logger.DebugContext(ctx, "[Stream] dispatching aggregate",
		"index", p.Index,
		"args", strings.Join(p.Args(), " "),
	)
	res, err := s.exec.Aggregate(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("%w: aggregate %s: %w", aggregation.ErrTransportFailure, p.Index, err)
	}
	if res == nil {
		res = &Result{}
	}
	return res, nil
}
