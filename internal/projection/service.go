package projection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	aggsvc "github.com/aevon-lab/aevon-search/internal/aggregation"
	coreagg "github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/aevon-lab/aevon-search/internal/stream"
)

// ErrInvalidQuery marks request validation errors that should return HTTP 400.
var ErrInvalidQuery = errors.New("invalid aggregate query")

// Pipelines runs and reads saved pipelines. *aggregation.Scheduler satisfies it.
type Pipelines interface {
	Trigger(ctx context.Context, name string) (*coreagg.Snapshot, error)
	Latest(ctx context.Context, name string) (*coreagg.Snapshot, error)
}

// Service implements the query layer: ad-hoc pipelines, cursor pages and
// saved pipeline results.
type Service struct {
	runner    *aggsvc.Runner
	pipelines Pipelines
	sessions  *SessionCache
}

// NewService creates a new query service.
func NewService(runner *aggsvc.Runner, pipelines Pipelines, sessions *SessionCache) *Service {
	return &Service{
		runner:    runner,
		pipelines: pipelines,
		sessions:  sessions,
	}
}

// Aggregate runs an ad-hoc pipeline and returns every row.
func (s *Service) Aggregate(ctx context.Context, req AggregateRequest) (*AggregateResponse, error) {
	rule, err := toRule(req)
	if err != nil {
		return nil, err
	}

	st, model, err := s.runner.Build(ctx, rule)
	if err != nil {
		return nil, err
	}
	if st.Pipeline().Cursor != nil {
		return nil, invalidQueryf("cursor steps are not allowed, use page_size")
	}

	tuples, err := st.CollectHintedTuples(ctx, s.runner.ExecOptions(rule)...)
	if err != nil {
		return nil, err
	}
	if tuples == nil {
		tuples = []stream.Tuple{}
	}

	return &AggregateResponse{
		Index:   model.Index,
		Version: model.Version,
		Columns: st.Columns(),
		Count:   len(tuples),
		Rows:    tuples,
	}, nil
}

// OpenPages runs an ad-hoc pipeline through a cursor and returns page req.Page.
// While more pages remain, the response carries a token for NextPage.
func (s *Service) OpenPages(ctx context.Context, req AggregateRequest) (*PageResponse, error) {
	rule, err := toRule(req)
	if err != nil {
		return nil, err
	}
	var maxIdle time.Duration
	if req.MaxIdle != "" {
		if maxIdle, err = coreagg.ParseInterval(req.MaxIdle); err != nil {
			return nil, invalidQueryf("max_idle: %v", err)
		}
	}

	st, _, err := s.runner.Build(ctx, rule)
	if err != nil {
		return nil, err
	}
	columns := st.Columns()

	page, err := st.FirstPage(ctx, stream.PageRequest{
		Page:    req.Page,
		Size:    req.PageSize,
		MaxIdle: maxIdle,
		Options: s.runner.ExecOptions(rule),
	}, make([]stream.ValueType, len(columns))...)
	if err != nil {
		return nil, err
	}

	resp := toPageResponse(columns, page)
	if page.HasNext {
		sess := &pageSession{index: req.Index, columns: columns, page: page}
		token, err := s.sessions.open(sess)
		if err != nil {
			closeQuietly(sess)
			return nil, err
		}
		resp.Token = token
		slog.Debug("[Projection] Page session opened", "token", resp.Token, "index", req.Index)
	}
	return resp, nil
}

// NextPage reads the page after the last one served for token.
// Exhausted sessions are removed.
func (s *Service) NextPage(ctx context.Context, token string) (*PageResponse, error) {
	sess, err := s.sessions.get(token)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	next, err := sess.page.Next(ctx)
	if err != nil {
		s.sessions.remove(token)
		closeQuietly(sess)
		return nil, err
	}
	sess.page = next

	resp := toPageResponse(sess.columns, next)
	if next.HasNext {
		resp.Token = token
	} else {
		s.sessions.remove(token)
	}
	return resp, nil
}

// ClosePages closes the cursor behind token and forgets the session.
func (s *Service) ClosePages(ctx context.Context, token string) error {
	sess, err := s.sessions.get(token)
	if err != nil {
		return err
	}
	s.sessions.remove(token)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.page.Close(ctx)
}

// RunPipeline runs a saved pipeline now and stores its snapshot.
func (s *Service) RunPipeline(ctx context.Context, name string) (*SnapshotResponse, error) {
	snap, err := s.pipelines.Trigger(ctx, name)
	if err != nil {
		return nil, err
	}
	return toSnapshotResponse(snap), nil
}

// LatestSnapshot returns the most recent stored result of a saved pipeline.
func (s *Service) LatestSnapshot(ctx context.Context, name string) (*SnapshotResponse, error) {
	snap, err := s.pipelines.Latest(ctx, name)
	if err != nil {
		return nil, err
	}
	return toSnapshotResponse(snap), nil
}

func toRule(req AggregateRequest) (coreagg.PipelineRule, error) {
	if req.Index == "" {
		return coreagg.PipelineRule{}, invalidQueryf("index is required")
	}
	if req.Version < 0 {
		return coreagg.PipelineRule{}, invalidQueryf("version must be >= 0")
	}
	if req.MaxRows < 0 {
		return coreagg.PipelineRule{}, invalidQueryf("max_rows must be >= 0")
	}
	if err := coreagg.ValidateSteps(req.Steps); err != nil {
		return coreagg.PipelineRule{}, err
	}

	rule := coreagg.PipelineRule{
		Name:     "adhoc:" + req.Index,
		Index:    req.Index,
		Version:  req.Version,
		Query:    req.Query,
		Verbatim: req.Verbatim,
		MaxRows:  req.MaxRows,
		Steps:    req.Steps,
	}
	if req.Timeout != "" {
		timeout, err := coreagg.ParseInterval(req.Timeout)
		if err != nil {
			return coreagg.PipelineRule{}, invalidQueryf("timeout: %v", err)
		}
		rule.Timeout = timeout
	}
	return rule, nil
}

func toPageResponse(columns []string, page *stream.Page[stream.Tuple]) *PageResponse {
	rows := page.Content
	if rows == nil {
		rows = []stream.Tuple{}
	}
	return &PageResponse{
		Columns: columns,
		Page:    page.Number,
		Size:    page.Size,
		HasNext: page.HasNext,
		Rows:    rows,
	}
}

func closeQuietly(sess *pageSession) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = sess.page.Close(ctx)
}

func invalidQueryf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}
