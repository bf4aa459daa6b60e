package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/aevon-lab/aevon-search/internal/stream"
	"github.com/redis/go-redis/v9"
)

// replyProtocol pins RESP2: FT.AGGREGATE replies are then plain nested arrays.
const replyProtocol = 2

var (
	ErrAddrMissing    = errors.New("redis addresses must be specified")
	ErrMalformedReply = errors.New("malformed aggregate reply")
)

const cursorNotFoundMsg = "Cursor not found"

type Option func(e *Executor)

// Executor runs aggregation pipelines against RediSearch.
// It is safe for concurrent use.
type Executor struct {
	db             int
	addrs          []string
	userCredential string
	passCredential string
	client         redis.UniversalClient
	ownsClient     bool
}

func WithAddr(addrs string) Option {
	return func(e *Executor) {
		e.addrs = strings.Split(addrs, ",")
	}
}

func WithUserCredential(credential string) Option {
	return func(e *Executor) {
		e.userCredential = credential
	}
}

func WithPassCredential(credential string) Option {
	return func(e *Executor) {
		e.passCredential = credential
	}
}

func WithDatabase(db int) Option {
	return func(e *Executor) {
		e.db = db
	}
}

// WithClient uses an existing client instead of dialing one. The caller keeps
// ownership and must use RESP2.
func WithClient(client redis.UniversalClient) Option {
	return func(e *Executor) {
		e.client = client
	}
}

// New creates an executor.
func New(opts ...Option) (*Executor, error) {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}

	if e.client != nil {
		return e, nil
	}
	if err := e.validate(); err != nil {
		return nil, err
	}

	e.client = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    e.addrs,
		DB:       e.db,
		Username: e.userCredential,
		Password: e.passCredential,
		Protocol: replyProtocol,
	})
	e.ownsClient = true
	return e, nil
}

func (e *Executor) validate() error {
	if len(e.addrs) == 0 || (len(e.addrs) == 1 && e.addrs[0] == "") {
		return ErrAddrMissing
	}
	return nil
}

// Ping returns the Redis server liveliness response.
func (e *Executor) Ping(ctx context.Context) error {
	return e.client.Ping(ctx).Err()
}

// Close closes the connection pool if the executor created it.
func (e *Executor) Close() error {
	if !e.ownsClient {
		return nil
	}
	return e.client.Close()
}

// Aggregate runs FT.AGGREGATE.
func (e *Executor) Aggregate(ctx context.Context, p *stream.Pipeline) (*stream.Result, error) {
	args := commandArgs("FT.AGGREGATE", p.Args())
	reply, err := e.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("FT.AGGREGATE %s: %w", p.Index, err)
	}
	res, err := parseReply(reply, p.Cursor != nil)
	if err != nil {
		return nil, fmt.Errorf("FT.AGGREGATE %s: %w", p.Index, err)
	}
	slog.DebugContext(ctx, "[Redis] aggregate",
		"index", p.Index,
		"rows", len(res.Rows),
		"cursor_id", res.CursorID,
	)
	return res, nil
}

// CursorRead runs FT.CURSOR READ for the next count rows.
func (e *Executor) CursorRead(ctx context.Context, index string, cursorID int64, count int) (*stream.Result, error) {
	args := []interface{}{"FT.CURSOR", "READ", index, strconv.FormatInt(cursorID, 10)}
	if count > 0 {
		args = append(args, "COUNT", strconv.Itoa(count))
	}
	reply, err := e.client.Do(ctx, args...).Result()
	if err != nil {
		return nil, fmt.Errorf("FT.CURSOR READ %s %d: %w", index, cursorID, err)
	}
	return parseReply(reply, true)
}

// CursorDelete runs FT.CURSOR DEL. A cursor the engine already dropped is not an error.
func (e *Executor) CursorDelete(ctx context.Context, index string, cursorID int64) error {
	err := e.client.Do(ctx, "FT.CURSOR", "DEL", index, strconv.FormatInt(cursorID, 10)).Err()
	if err != nil && !strings.Contains(err.Error(), cursorNotFoundMsg) {
		return fmt.Errorf("FT.CURSOR DEL %s %d: %w", index, cursorID, err)
	}
	return nil
}

func commandArgs(name string, args []string) []interface{} {
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, name)
	for _, a := range args {
		out = append(out, a)
	}
	return out
}

// parseReply decodes a RESP2 aggregate reply:
// [total, row...] or, with a cursor, [[total, row...], cursorID].
func parseReply(reply interface{}, withCursor bool) (*stream.Result, error) {
	res := &stream.Result{}
	body, ok := reply.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected array, got %T", ErrMalformedReply, reply)
	}

	if withCursor {
		if len(body) != 2 {
			return nil, fmt.Errorf("%w: cursor reply has %d elements", ErrMalformedReply, len(body))
		}
		id, err := toInt64(body[1])
		if err != nil {
			return nil, fmt.Errorf("%w: cursor id: %v", ErrMalformedReply, err)
		}
		res.CursorID = id
		results, ok := body[0].([]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: cursor results are %T", ErrMalformedReply, body[0])
		}
		body = results
	}

	if len(body) == 0 {
		return res, nil
	}
	total, err := toInt64(body[0])
	if err != nil {
		return nil, fmt.Errorf("%w: total: %v", ErrMalformedReply, err)
	}
	res.Total = total

	res.Rows = make([]stream.Row, 0, len(body)-1)
	for i, raw := range body[1:] {
		row, err := parseRow(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedReply, i, err)
		}
		res.Rows = append(res.Rows, row)
	}
	return res, nil
}

func parseRow(raw interface{}) (stream.Row, error) {
	pairs, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected array, got %T", raw)
	}
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("odd number of elements (%d)", len(pairs))
	}
	row := make(stream.Row, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, fmt.Errorf("field name is %T", pairs[i])
		}
		row[key] = pairs[i+1]
	}
	return row, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	}
	return 0, fmt.Errorf("unexpected %T", v)
}
