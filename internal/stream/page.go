package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// PageRequest asks for page Page (zero-based) of Size rows.
// Options apply to the request that opens the cursor; the default row cap
// never does.
type PageRequest struct {
	Page    int
	Size    int
	MaxIdle time.Duration // cursor idle timeout, 0 = engine default
	Options []ExecOption
}

// Page is one batch of decoded rows read through a cursor.
type Page[T any] struct {
	Content []T
	Number  int
	Size    int
	HasNext bool

	pager *pager[T]
}

// Next reads the following page. Once the cursor is exhausted it returns an
// empty page without contacting the engine.
func (p *Page[T]) Next(ctx context.Context) (*Page[T], error) {
	return p.pager.next(ctx)
}

// Close releases the cursor if it is still open.
func (p *Page[T]) Close(ctx context.Context) error {
	return p.pager.close(ctx)
}

type pagerState int

const (
	pagerActive pagerState = iota
	pagerExhausted
)

// pager owns the cursor behind a sequence of pages.
type pager[T any] struct {
	exec     Executor
	index    string
	size     int
	state    pagerState
	cursorID int64
	number   int
	decode   func([]Row) ([]T, error)
}

// advance records the cursor id of a reply and returns whether rows remain.
func (pg *pager[T]) advance(res *Result) bool {
	pg.cursorID = res.CursorID
	if len(res.Rows) == 0 || res.CursorID == 0 {
		pg.state = pagerExhausted
	}
	return pg.state == pagerActive
}

func (pg *pager[T]) page(rows []T) *Page[T] {
	return &Page[T]{
		Content: rows,
		Number:  pg.number,
		Size:    pg.size,
		HasNext: pg.state == pagerActive,
		pager:   pg,
	}
}

func (pg *pager[T]) read(ctx context.Context) (*Result, error) {
	res, err := pg.exec.CursorRead(ctx, pg.index, pg.cursorID, pg.size)
	if err != nil {
		return nil, fmt.Errorf("%w: cursor read %s/%d: %w", aggregation.ErrTransportFailure, pg.index, pg.cursorID, err)
	}
	if res == nil {
		res = &Result{}
	}
	return res, nil
}

func (pg *pager[T]) next(ctx context.Context) (*Page[T], error) {
	if pg.state == pagerExhausted {
		pg.number++
		return pg.page(nil), nil
	}
	res, err := pg.read(ctx)
	if err != nil {
		return nil, err
	}
	pg.advance(res)
	rows, err := pg.decode(res.Rows)
	if err != nil {
		return nil, pg.abort(ctx, err)
	}
	pg.number++
	return pg.page(rows), nil
}

// abort ends paging after a batch failed to decode. The engine has already
// moved past that batch, so the cursor is released and the pager exhausted.
func (pg *pager[T]) abort(ctx context.Context, cause error) error {
	if err := pg.close(ctx); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (pg *pager[T]) close(ctx context.Context) error {
	if pg.state == pagerExhausted {
		return nil
	}
	pg.state = pagerExhausted
	if pg.cursorID == 0 {
		return nil
	}
	if err := pg.exec.CursorDelete(ctx, pg.index, pg.cursorID); err != nil {
		return fmt.Errorf("%w: cursor delete %s/%d: %w", aggregation.ErrTransportFailure, pg.index, pg.cursorID, err)
	}
	return nil
}

// FirstPage opens a cursor with batch size req.Size and returns page req.Page
// decoded as tuples. Earlier pages are read and discarded.
func (s *Stream[E]) FirstPage(ctx context.Context, req PageRequest, types ...aggregation.ValueType) (*Page[Tuple], error) {
	s.flush()
	if s.err != nil {
		return nil, s.err
	}
	dec, err := s.tupleDecoder(types)
	if err != nil {
		return nil, err
	}
	return openPages(ctx, s, req, dec.decodeRows)
}

// FirstEntityPage is FirstPage decoding rows with the stream's entity decoder.
func (s *Stream[E]) FirstEntityPage(ctx context.Context, req PageRequest) (*Page[E], error) {
	s.flush()
	if s.err != nil {
		return nil, s.err
	}
	if s.decoder == nil {
		return nil, fmt.Errorf("%w: stream has no entity decoder", aggregation.ErrInvalidState)
	}
	dec := s.decoder
	return openPages(ctx, s, req, func(rows []Row) ([]E, error) { return decodeEntities(dec, rows) })
}

func openPages[E, T any](ctx context.Context, s *Stream[E], req PageRequest, decode func([]Row) ([]T, error)) (*Page[T], error) {
	if req.Size <= 0 {
		return nil, fmt.Errorf("%w: page size must be > 0, got %d", aggregation.ErrInvalidArgument, req.Size)
	}
	if req.Page < 0 {
		return nil, fmt.Errorf("%w: page number must be >= 0, got %d", aggregation.ErrInvalidArgument, req.Page)
	}

	p, err := s.prepare(buildExecOptions(req.Options), false)
	if err != nil {
		return nil, err
	}
	maxIdle := req.MaxIdle
	if maxIdle <= 0 {
		maxIdle = NoCursorTimeout
	}
	p.Cursor = &CursorOptions{Count: req.Size, MaxIdle: maxIdle}

	res, err := s.dispatch(ctx, p)
	if err != nil {
		return nil, err
	}

	pg := &pager[T]{exec: s.exec, index: p.Index, size: req.Size, decode: decode}
	pg.advance(res)
	for pg.number < req.Page {
		if pg.state == pagerExhausted {
			pg.number = req.Page
			return pg.page(nil), nil
		}
		if res, err = pg.read(ctx); err != nil {
			return nil, err
		}
		pg.advance(res)
		pg.number++
	}

	rows, err := decode(res.Rows)
	if err != nil {
		return nil, pg.abort(ctx, err)
	}
	return pg.page(rows), nil
}
