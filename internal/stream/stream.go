// Package stream builds FT.AGGREGATE pipelines fluently and materializes their
// results as typed tuples, entities or cursor pages.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// Executor dispatches pipelines and cursor requests to the aggregation engine.
// Implementations are shared and must be safe for concurrent use.
type Executor interface {
	Aggregate(ctx context.Context, p *Pipeline) (*Result, error)
	CursorRead(ctx context.Context, index string, cursorID int64, count int) (*Result, error)
	CursorDelete(ctx context.Context, index string, cursorID int64) error
}

// Stream is a single-owner pipeline builder over index entities of type E.
// Builder errors are sticky: the first one is kept and returned by every
// terminal call, which then skips dispatch.
type Stream[E any] struct {
	exec     Executor
	pipeline Pipeline
	cols     *columns
	group    *groupState
	decoder  EntityDecoder[E]
	logger   *slog.Logger
	err      error
}

// Option configures a Stream at construction.
type Option[E any] func(*Stream[E])

// WithDecoder sets the entity decoder used by CollectEntities and FirstEntityPage.
func WithDecoder[E any](d EntityDecoder[E]) Option[E] {
	return func(s *Stream[E]) { s.decoder = d }
}

// WithDialect pins the query dialect.
func WithDialect[E any](dialect int) Option[E] {
	return func(s *Stream[E]) { s.pipeline.Dialect = dialect }
}

// WithLogger replaces the default logger.
func WithLogger[E any](l *slog.Logger) Option[E] {
	return func(s *Stream[E]) { s.logger = l }
}

// WithGroupBy opens a group on fields right away, as if GroupBy were the first call.
// Without fields it does nothing.
func WithGroupBy[E any](fields ...aggregation.FieldDescriptor) Option[E] {
	return func(s *Stream[E]) { s.group.openGroup(false, fields...) }
}

// New creates a stream over index filtered by query ("" or "*" matches all).
func New[E any](exec Executor, index, query string, opts ...Option[E]) *Stream[E] {
	cols := newColumns()
	s := &Stream[E]{
		exec:     exec,
		pipeline: Pipeline{Index: index, Query: query},
		cols:     cols,
		group:    newGroupState(cols),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if index == "" {
		s.fail(fmt.Errorf("%w: index must not be empty", aggregation.ErrInvalidArgument))
	}
	return s
}

// Err returns the first builder error, if any.
func (s *Stream[E]) Err() error {
	return s.err
}

// Columns returns the registered output labels in order, flushing open state first.
func (s *Stream[E]) Columns() []string {
	s.flush()
	return s.cols.names()
}

// Hint returns the recorded type hint of label (zero if none).
func (s *Stream[E]) Hint(label string) aggregation.ValueType {
	return s.cols.hint(label)
}

// Pipeline flushes open state and returns a snapshot of the pipeline built so far.
func (s *Stream[E]) Pipeline() *Pipeline {
	s.flush()
	return s.pipeline.Clone()
}

func (s *Stream[E]) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// flush emits the open group, if any.
func (s *Stream[E]) flush() {
	stage, ok, err := s.group.flush()
	if err != nil {
		s.fail(err)
		s.group.reset()
		return
	}
	if ok {
		s.pipeline.Stages = append(s.pipeline.Stages, stage)
	}
}

func (s *Stream[E]) appendStage(stage Stage) {
	s.pipeline.Stages = append(s.pipeline.Stages, stage)
}

// Load projects fields and registers them as output columns with their declared types.
func (s *Stream[E]) Load(fields ...aggregation.FieldDescriptor) *Stream[E] {
	s.flush()
	if len(fields) == 0 {
		s.fail(fmt.Errorf("%w: load requires at least one field", aggregation.ErrInvalidArgument))
		return s
	}
	stage := LoadStage{Properties: make([]string, 0, len(fields))}
	for _, f := range fields {
		stage.Properties = append(stage.Properties, f.Property())
		s.cols.add(f.SearchAlias(), f.Type)
	}
	s.appendStage(stage)
	return s
}

// LoadAll loads every document field. No columns can be registered for it.
func (s *Stream[E]) LoadAll() *Stream[E] {
	s.flush()
	s.appendStage(LoadAllStage{})
	return s
}

// GroupBy closes any open group and opens a new one keyed by fields.
// Without fields the group collects all rows into one bucket.
func (s *Stream[E]) GroupBy(fields ...aggregation.FieldDescriptor) *Stream[E] {
	s.flush()
	s.group.openGroup(true, fields...)
	return s
}

// Reduce attaches a reducer that takes no field, such as COUNT.
func (s *Stream[E]) Reduce(kind aggregation.ReducerKind, params ...interface{}) *Stream[E] {
	return s.reduce(kind, nil, params)
}

// ReduceOn attaches a reducer over field. The field's bare column is superseded
// by the reducer output.
func (s *Stream[E]) ReduceOn(kind aggregation.ReducerKind, field aggregation.FieldDescriptor, params ...interface{}) *Stream[E] {
	return s.reduce(kind, &field, params)
}

// ReduceAlias attaches a reducer over a property known only by its alias,
// typically one produced by an earlier stage. It is treated as a string field.
func (s *Stream[E]) ReduceAlias(kind aggregation.ReducerKind, alias string, params ...interface{}) *Stream[E] {
	field := aggregation.AliasField(aggregation.StripPropertyMarker(alias))
	return s.reduce(kind, &field, params)
}

func (s *Stream[E]) reduce(kind aggregation.ReducerKind, field *aggregation.FieldDescriptor, params []interface{}) *Stream[E] {
	if err := s.group.attachReducer(kind, field, params); err != nil {
		s.fail(err)
	}
	return s
}

// As names the output of the most recent reducer. Without one it does nothing.
func (s *Stream[E]) As(alias string) *Stream[E] {
	s.group.renameOpenReducer(aggregation.StripPropertyMarker(alias))
	return s
}

// Apply computes expr into alias. The column carries no type hint.
func (s *Stream[E]) Apply(expr, alias string) *Stream[E] {
	s.flush()
	alias = aggregation.StripPropertyMarker(alias)
	if expr == "" || alias == "" {
		s.fail(fmt.Errorf("%w: apply requires an expression and an alias", aggregation.ErrInvalidArgument))
		return s
	}
	s.appendStage(ApplyStage{Expr: expr, Alias: alias})
	s.cols.add(alias, aggregation.ValueType{})
	return s
}

// Sorted sorts by keys.
func (s *Stream[E]) Sorted(keys ...SortKey) *Stream[E] {
	return s.SortedMax(0, keys...)
}

// SortedMax sorts by keys and keeps the first maxRows rows (0 = all).
func (s *Stream[E]) SortedMax(maxRows int, keys ...SortKey) *Stream[E] {
	s.flush()
	if len(keys) == 0 {
		s.fail(fmt.Errorf("%w: sort requires at least one property", aggregation.ErrInvalidArgument))
		return s
	}
	if maxRows < 0 {
		s.fail(fmt.Errorf("%w: sort max must be >= 0, got %d", aggregation.ErrInvalidArgument, maxRows))
		return s
	}
	stage := SortStage{Keys: make([]SortKey, 0, len(keys)), Max: maxRows}
	for _, k := range keys {
		name := aggregation.StripPropertyMarker(k.Property)
		stage.Keys = append(stage.Keys, SortKey{Property: name, Descending: k.Descending})
		s.cols.add(name, aggregation.ValueType{})
	}
	s.appendStage(stage)
	return s
}

// Filter appends one filter stage per expression.
func (s *Stream[E]) Filter(exprs ...string) *Stream[E] {
	s.flush()
	for _, expr := range exprs {
		s.appendStage(FilterStage{Expr: expr})
	}
	return s
}

// Limit keeps the first n rows. An explicit limit disables the default row cap.
func (s *Stream[E]) Limit(n int) *Stream[E] {
	return s.LimitOffset(0, n)
}

// LimitOffset keeps n rows starting at offset.
func (s *Stream[E]) LimitOffset(offset, n int) *Stream[E] {
	s.flush()
	if offset < 0 || n < 0 {
		s.fail(fmt.Errorf("%w: limit offset and count must be >= 0, got %d, %d", aggregation.ErrInvalidArgument, offset, n))
		return s
	}
	s.appendStage(LimitStage{Offset: offset, Count: n})
	return s
}

// Cursor enables cursor reads of count rows per batch. A timeout <= 0 leaves
// the idle timeout to the engine.
func (s *Stream[E]) Cursor(count int, timeout time.Duration) *Stream[E] {
	s.flush()
	if count <= 0 {
		s.fail(fmt.Errorf("%w: cursor count must be > 0, got %d", aggregation.ErrInvalidArgument, count))
		return s
	}
	if timeout <= 0 {
		timeout = NoCursorTimeout
	}
	s.pipeline.Cursor = &CursorOptions{Count: count, MaxIdle: timeout}
	return s
}
