package projection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	aggsvc "github.com/aevon-lab/aevon-search/internal/aggregation"
	coreagg "github.com/aevon-lab/aevon-search/internal/core/aggregation"
	httperr "github.com/aevon-lab/aevon-search/internal/core/errors"
	streammocks "github.com/aevon-lab/aevon-search/internal/mocks/stream"
	"github.com/aevon-lab/aevon-search/internal/schema"
	"github.com/aevon-lab/aevon-search/internal/schema/formats/yaml"
	"github.com/aevon-lab/aevon-search/internal/schema/storage"
	"github.com/aevon-lab/aevon-search/internal/stream"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const productsYAML = `
index: products
version: 1
storage: hash
prefix: "product:"
fields:
  brand: string
  price: double
  stock: int
`

type testEnv struct {
	router   *gin.Engine
	exec     *streammocks.Executor
	store    *aggsvc.MemorySnapshotStore
	sessions *SessionCache
}

func newTestEnv(t *testing.T, rules ...coreagg.PipelineRule) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := schema.NewRegistry(storage.NewMemoryRepository())
	_, err := registry.Register(context.Background(), "products", 1, schema.FormatYaml, []byte(productsYAML))
	require.NoError(t, err)

	resolver := schema.InitializeResolver()
	resolver.RegisterFormat(schema.FormatYaml, yaml.NewCompiler())
	catalog := schema.NewCatalog(registry, resolver)

	exec := streammocks.NewExecutor(t)
	store := aggsvc.NewMemorySnapshotStore()
	runner := aggsvc.NewRunner(catalog, exec, aggsvc.RunnerOptions{MaxRows: 100})
	scheduler := aggsvc.NewScheduler(time.Minute, runner, store, aggsvc.NewInMemoryRuleRepository(rules...), 1)

	sessions, err := NewSessionCache(100, time.Minute)
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	router := gin.New()
	NewService(runner, scheduler, sessions).RegisterRoutes(router)
	return &testEnv{router: router, exec: exec, store: store, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func avgPriceSteps() []coreagg.Step {
	return []coreagg.Step{
		{GroupBy: []string{"brand"}},
		{Reduce: &coreagg.ReduceStep{Op: "avg", Field: "price", As: "avg_price"}},
	}
}

func onIndex(index string) interface{} {
	return mock.MatchedBy(func(p *stream.Pipeline) bool { return p.Index == index })
}

type rowsBody struct {
	Index   string           `json:"index"`
	Version int              `json:"version"`
	Columns []string         `json:"columns"`
	Count   int              `json:"count"`
	Rows    []map[string]any `json:"rows"`
}

type pageBody struct {
	Token   string           `json:"token"`
	Columns []string         `json:"columns"`
	Page    int              `json:"page"`
	Size    int              `json:"size"`
	HasNext bool             `json:"has_next"`
	Rows    []map[string]any `json:"rows"`
}

func TestHandleAggregate_ReturnsTypedRows(t *testing.T) {
	env := newTestEnv(t)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Run(func(_ context.Context, p *stream.Pipeline) {
			assert.Contains(t, p.Args(), "GROUPBY")
			assert.Equal(t, 250*time.Millisecond, p.Timeout)
		}).
		Return(&stream.Result{Total: 1, Rows: []stream.Row{{"brand": "acme", "avg_price": "12.5"}}}, nil).
		Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:   "products",
		Timeout: "250ms",
		Steps:   avgPriceSteps(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decodeBody[rowsBody](t, w)
	assert.Equal(t, "products", body.Index)
	assert.Equal(t, 1, body.Version)
	assert.Equal(t, []string{"brand", "avg_price"}, body.Columns)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, []map[string]any{{"brand": "acme", "avg_price": 12.5}}, body.Rows)
}

func TestHandleAggregate_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		configure  func(exec *streammocks.Executor)
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed body",
			body:       `{"index":`,
			configure:  func(*streammocks.Executor) {},
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidJsonError,
		},
		{
			name: "unknown reducer",
			body: AggregateRequest{Index: "products", Steps: []coreagg.Step{
				{Reduce: &coreagg.ReduceStep{Op: "median", Field: "price"}},
			}},
			configure:  func(*streammocks.Executor) {},
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidPipelineError,
		},
		{
			name:       "invalid timeout",
			body:       AggregateRequest{Index: "products", Timeout: "soon", Steps: avgPriceSteps()},
			configure:  func(*streammocks.Executor) {},
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidPipelineError,
		},
		{
			name: "cursor step without paging",
			body: AggregateRequest{Index: "products", Steps: []coreagg.Step{
				{Load: []string{"brand"}},
				{Cursor: &coreagg.CursorStep{Count: 10}},
			}},
			configure:  func(*streammocks.Executor) {},
			wantStatus: http.StatusBadRequest,
			wantType:   httperr.HttpInvalidPipelineError,
		},
		{
			name:       "unknown index",
			body:       AggregateRequest{Index: "orders", Steps: avgPriceSteps()},
			configure:  func(*streammocks.Executor) {},
			wantStatus: http.StatusNotFound,
			wantType:   httperr.HttpIndexNotFoundError,
		},
		{
			name: "decode failure",
			body: AggregateRequest{Index: "products", Steps: avgPriceSteps()},
			configure: func(exec *streammocks.Executor) {
				exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
					Return(&stream.Result{Rows: []stream.Row{{"brand": "acme", "avg_price": "n/a"}}}, nil).
					Once()
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   httperr.HttpDecodeFailureError,
		},
		{
			name: "engine failure",
			body: AggregateRequest{Index: "products", Steps: avgPriceSteps()},
			configure: func(exec *streammocks.Executor) {
				exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
					Return(nil, errors.New("connection refused")).
					Once()
			},
			wantStatus: http.StatusBadGateway,
			wantType:   httperr.HttpEngineError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.configure(env.exec)

			w := env.do(t, http.MethodPost, "/v1/aggregate", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			body := decodeBody[httperr.ErrorResponse](t, w)
			assert.Equal(t, tt.wantType, body.ErrorType)
		})
	}
}

func TestHandleAggregate_PagesThroughCursor(t *testing.T) {
	env := newTestEnv(t)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Run(func(_ context.Context, p *stream.Pipeline) {
			require.NotNil(t, p.Cursor)
			assert.Equal(t, 2, p.Cursor.Count)
		}).
		Return(&stream.Result{CursorID: 9, Rows: []stream.Row{{"brand": "acme"}, {"brand": "beta"}}}, nil).
		Once()
	env.exec.EXPECT().CursorRead(mock.Anything, "products", int64(9), 2).
		Return(&stream.Result{CursorID: 0, Rows: []stream.Row{{"brand": "zeta"}}}, nil).
		Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:    "products",
		Steps:    []coreagg.Step{{Load: []string{"brand"}}},
		PageSize: 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	first := decodeBody[pageBody](t, w)
	assert.Equal(t, 0, first.Page)
	assert.True(t, first.HasNext)
	assert.Len(t, first.Rows, 2)
	require.NotEmpty(t, first.Token)

	w = env.do(t, http.MethodGet, "/v1/aggregate/pages/"+first.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decodeBody[pageBody](t, w)
	assert.Equal(t, 1, second.Page)
	assert.False(t, second.HasNext)
	assert.Empty(t, second.Token)
	assert.Equal(t, []map[string]any{{"brand": "zeta"}}, second.Rows)

	// Exhausted sessions are gone.
	w = env.do(t, http.MethodGet, "/v1/aggregate/pages/"+first.Token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, httperr.HttpSessionNotFound, decodeBody[httperr.ErrorResponse](t, w).ErrorType)
}

func TestHandleAggregate_SinglePageHasNoToken(t *testing.T) {
	env := newTestEnv(t)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Return(&stream.Result{CursorID: 0, Rows: []stream.Row{{"brand": "acme"}}}, nil).
		Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:    "products",
		Steps:    []coreagg.Step{{Load: []string{"brand"}}},
		PageSize: 10,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody[pageBody](t, w)
	assert.False(t, body.HasNext)
	assert.Empty(t, body.Token)
}

func TestHandleClosePages(t *testing.T) {
	env := newTestEnv(t)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Return(&stream.Result{CursorID: 9, Rows: []stream.Row{{"brand": "acme"}}}, nil).
		Once()
	env.exec.EXPECT().CursorDelete(mock.Anything, "products", int64(9)).Return(nil).Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:    "products",
		Steps:    []coreagg.Step{{Load: []string{"brand"}}},
		PageSize: 1,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decodeBody[pageBody](t, w).Token
	require.NotEmpty(t, token)

	w = env.do(t, http.MethodDelete, "/v1/aggregate/pages/"+token, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/v1/aggregate/pages/"+token, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleAggregate_PagedRequestKeepsExecutionOptions(t *testing.T) {
	env := newTestEnv(t)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Run(func(_ context.Context, p *stream.Pipeline) {
			require.NotNil(t, p.Cursor)
			assert.True(t, p.Verbatim)
			assert.Equal(t, 300*time.Millisecond, p.Timeout)
			assert.False(t, p.HasLimit())
		}).
		Return(&stream.Result{CursorID: 0, Rows: []stream.Row{{"brand": "acme"}}}, nil).
		Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:    "products",
		Verbatim: true,
		Timeout:  "300ms",
		Steps:    []coreagg.Step{{Load: []string{"brand"}}},
		PageSize: 5,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

// refusingStore admits no session.
type refusingStore struct{}

func (refusingStore) SetWithTTL(string, *pageSession, int64, time.Duration) bool { return false }
func (refusingStore) Get(string) (*pageSession, bool) { return nil, false }
func (refusingStore) Delete(string) {}
func (refusingStore) Close() {}

func TestHandleAggregate_RejectedSessionClosesCursor(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.cache.Close()
	env.sessions.cache = refusingStore{}

	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Return(&stream.Result{CursorID: 9, Rows: []stream.Row{{"brand": "acme"}}}, nil).
		Once()
	env.exec.EXPECT().CursorDelete(mock.Anything, "products", int64(9)).Return(nil).Once()

	w := env.do(t, http.MethodPost, "/v1/aggregate", AggregateRequest{
		Index:    "products",
		Steps:    []coreagg.Step{{Load: []string{"brand"}}},
		PageSize: 1,
	})
	require.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())
	body := decodeBody[httperr.ErrorResponse](t, w)
	assert.Equal(t, httperr.HttpSessionRejected, body.ErrorType)
}

func TestPipelineEndpoints(t *testing.T) {
	env := newTestEnv(t,
		coreagg.PipelineRule{Name: "avg_price", Index: "products", Query: "*", Fingerprint: "fp", Steps: avgPriceSteps()},
		coreagg.PipelineRule{Name: "never_run", Index: "products", Query: "*", Steps: avgPriceSteps()},
	)
	env.exec.EXPECT().Aggregate(mock.Anything, onIndex("products")).
		Return(&stream.Result{Rows: []stream.Row{{"brand": "acme", "avg_price": "4"}}}, nil).
		Once()

	w := env.do(t, http.MethodPost, "/v1/pipelines/avg_price/run", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	run := decodeBody[SnapshotResponse](t, w)
	assert.Equal(t, "avg_price", run.Rule)
	assert.Equal(t, "fp", run.RuleFingerprint)
	assert.Equal(t, 1, run.Count)
	assert.Equal(t, 1, env.store.Saved())

	w = env.do(t, http.MethodGet, "/v1/pipelines/avg_price/snapshot", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	latest := decodeBody[SnapshotResponse](t, w)
	assert.Equal(t, run.RunID, latest.RunID)
	assert.Equal(t, []string{"brand", "avg_price"}, latest.Columns)
	assert.Equal(t, []map[string]any{{"brand": "acme", "avg_price": 4.0}}, latest.Rows)

	w = env.do(t, http.MethodGet, "/v1/pipelines/never_run/snapshot", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, httperr.HttpSnapshotNotFound, decodeBody[httperr.ErrorResponse](t, w).ErrorType)

	w = env.do(t, http.MethodPost, "/v1/pipelines/missing/run", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, httperr.HttpPipelineNotFound, decodeBody[httperr.ErrorResponse](t, w).ErrorType)
}
