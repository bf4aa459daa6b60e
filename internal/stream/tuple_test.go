package stream

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectTuples_DecodesByRequestedTypes(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Total: 2, Rows: []Row{
		{"total": []byte("42"), "name": []byte("widgets")},
		{"name": "gadgets"},
	}}}
	s := New[product](exec, "products", "*").
		Apply("@qty * 2", "total").
		Apply("upper(@title)", "name")

	tuples, err := s.CollectTuples(context.Background(), Long, String)
	require.NoError(t, err)
	require.Len(t, tuples, 2)

	assert.Equal(t, []string{"total", "name"}, tuples[0].Labels())
	assert.Equal(t, []any{int64(42), "widgets"}, tuples[0].Values())
	assert.Equal(t, int64(42), tuples[0].Long("total"))
	assert.Equal(t, "widgets", tuples[0].Text("name"))

	// missing value decodes to the zero value of its type
	assert.Equal(t, []any{int64(0), "gadgets"}, tuples[1].Values())
}

func TestCollectTuples_UsesHintsForZeroTypes(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{
		{"brand": "acme", "avg": "12.5", "count": "3", "max": "7"},
	}}}
	s := New[product](exec, "products", "*").
		GroupBy(brand).
		ReduceOn(Avg, price).
		Reduce(Count).
		ReduceOn(Max, stock)

	tuples, err := s.CollectTuples(context.Background(), ValueType{}, ValueType{}, ValueType{}, ValueType{})
	require.NoError(t, err)
	require.Len(t, tuples, 1)
	assert.Equal(t, "acme", tuples[0].Text("brand"))
	assert.Equal(t, 12.5, tuples[0].Double("avg"))
	assert.Equal(t, int64(3), tuples[0].Long("count"))
	assert.Equal(t, 7, tuples[0].Int("max"))

	hinted, err := s.CollectHintedTuples(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tuples, hinted)
}

func TestCollectTuples_ListColumns(t *testing.T) {
	rows := []Row{{"tags": []any{[]byte("a"), []byte("b")}}}

	t.Run("element type from request", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: rows}}
		s := New[product](exec, "products", "*").Apply("split(@csv)", "tags")

		tuples, err := s.CollectTuples(context.Background(), ListOf(String))
		require.NoError(t, err)
		assert.Equal(t, []any{"a", "b"}, tuples[0].List("tags"))
	})

	t.Run("no element type keeps the raw sequence", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: rows}}
		s := New[product](exec, "products", "*").Apply("split(@csv)", "tags")

		tuples, err := s.CollectTuples(context.Background(), ValueType{Kind: ListOf(String).Kind})
		require.NoError(t, err)
		assert.Equal(t, []any{[]byte("a"), []byte("b")}, tuples[0].List("tags"))
	})

	t.Run("element type from list hint", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: []Row{{"brand": "acme", "tolist": []any{"x", "y"}}}}}
		s := New[product](exec, "products", "*").GroupBy(brand).ReduceOn(ToList, tags)

		tuples, err := s.CollectTuples(context.Background(), String, ValueType{Kind: ListOf(String).Kind})
		require.NoError(t, err)
		assert.Equal(t, []any{"x", "y"}, tuples[0].List("tolist"))
	})

	t.Run("element type from scalar hint", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: []Row{{"brand": "acme", "tolist": []any{"1.5", "2"}}}}}
		s := New[product](exec, "products", "*").GroupBy(brand).ReduceOn(ToList, price)

		tuples, err := s.CollectHintedTuples(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []any{1.5, 2.0}, tuples[0].List("tolist"))

		tuples, err = s.CollectTuples(context.Background(), String, ListOf(ValueType{}))
		require.NoError(t, err)
		assert.Equal(t, []any{1.5, 2.0}, tuples[0].List("tolist"))
	})

	t.Run("scalar in list column passes through", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: []Row{{"tags": "solo"}}}}
		s := New[product](exec, "products", "*").Apply("@tag", "tags")

		tuples, err := s.CollectTuples(context.Background(), ListOf(String))
		require.NoError(t, err)
		v, ok := tuples[0].Get("tags")
		require.True(t, ok)
		assert.Equal(t, "solo", v)
	})

	t.Run("missing list is nil", func(t *testing.T) {
		exec := &fakeExecutor{result: &Result{Rows: []Row{{}}}}
		s := New[product](exec, "products", "*").Apply("@tag", "tags")

		tuples, err := s.CollectTuples(context.Background(), ListOf(String))
		require.NoError(t, err)
		assert.Nil(t, tuples[0].List("tags"))
	})
}

func TestCollectTuples_AllKinds(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{{
		"i": "7", "l": "1e3", "d": "0.25", "dec": "19.99", "b": "1", "ts": "1700000000", "iso": "2026-01-02T03:04:05Z",
	}}}}
	s := New[product](exec, "products", "*")
	for _, label := range []string{"i", "l", "d", "dec", "b", "ts", "iso"} {
		s.Apply("@"+label, label)
	}

	tuples, err := s.CollectTuples(context.Background(), Int, Long, Double, Decimal, Bool, Time, Time)
	require.NoError(t, err)
	tp := tuples[0]
	assert.Equal(t, 7, tp.Int("i"))
	assert.Equal(t, int64(1000), tp.Long("l"))
	assert.Equal(t, 0.25, tp.Double("d"))
	assert.True(t, decimal.RequireFromString("19.99").Equal(tp.Decimal("dec")))
	assert.True(t, tp.Bool("b"))
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), tp.Time("ts"))
	assert.Equal(t, time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), tp.Time("iso"))
}

func TestCollectTuples_ZeroValues(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{{}}}}
	s := New[product](exec, "products", "*")
	for _, label := range []string{"s", "i", "l", "d", "dec", "b", "ts"} {
		s.Apply("@"+label, label)
	}

	tuples, err := s.CollectTuples(context.Background(), String, Int, Long, Double, Decimal, Bool, Time)
	require.NoError(t, err)
	assert.Equal(t, []any{"", 0, int64(0), 0.0, decimal.Zero, false, time.Time{}}, tuples[0].Values())
}

func TestCollectHintedTuples_MissingUntypedColumnIsEmptyString(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{{"label": "sale"}, {}}}}
	s := New[product](exec, "products", "*").Apply("@tag", "label")

	tuples, err := s.CollectHintedTuples(context.Background())
	require.NoError(t, err)
	require.Len(t, tuples, 2)
	assert.Equal(t, []any{"sale"}, tuples[0].Values())
	assert.Equal(t, []any{""}, tuples[1].Values())
}

func TestCollectTuples_DecodeFailure(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{{"total": "abc"}}}}
	s := New[product](exec, "products", "*").Apply("@x", "total")

	tuples, err := s.CollectTuples(context.Background(), Long)
	require.Nil(t, tuples)
	require.ErrorIs(t, err, ErrDecodeFailure)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, "total", decodeErr.Column)
	assert.Equal(t, "abc", decodeErr.Raw)
	assert.Equal(t, "long", decodeErr.Type)
}

func TestCollectTuples_NonIntegralIntFails(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: []Row{{"n": "2.5"}}}}
	s := New[product](exec, "products", "*").Apply("@x", "n")

	_, err := s.CollectTuples(context.Background(), Int)
	require.ErrorIs(t, err, ErrDecodeFailure)
}

func TestCollectTuples_SchemaMismatch(t *testing.T) {
	exec := &fakeExecutor{}
	s := New[product](exec, "products", "*").GroupBy(brand).Reduce(Count)

	_, err := s.CollectTuples(context.Background(), String)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.False(t, errors.Is(err, ErrCapacity))
	assert.Empty(t, exec.aggregated, "mismatch is detected before dispatch")
}

func TestCollectTuples_Capacity(t *testing.T) {
	exec := &fakeExecutor{}
	s := New[product](exec, "products", "*")
	types := make([]ValueType, 0, MaxTupleArity+1)
	for i := 0; i <= MaxTupleArity; i++ {
		label := "c" + string(rune('a'+i))
		s.Apply("@"+label, label)
		types = append(types, String)
	}

	_, err := s.CollectTuples(context.Background(), types...)
	require.ErrorIs(t, err, ErrCapacity)
	require.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Empty(t, exec.aggregated)
}

func TestTuple_MarshalJSONKeepsOrder(t *testing.T) {
	tp := NewTuple(
		[]string{"zeta", "alpha", "tags"},
		[]any{int64(1), "a", []any{[]byte("x"), "y"}},
	)

	out, err := json.Marshal(tp)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"a","tags":["x","y"]}`, string(out))
	assert.Equal(t, map[string]any{"zeta": int64(1), "alpha": "a", "tags": []any{[]byte("x"), "y"}}, tp.Map())
	assert.Equal(t, map[string]any{"zeta": int64(1), "alpha": "a", "tags": []any{"x", "y"}}, tp.JSONMap())
}

func TestTuple_Accessors(t *testing.T) {
	tp := NewTuple([]string{"n"}, []any{int64(5)})

	assert.Equal(t, 1, tp.Len())
	assert.Equal(t, int64(5), tp.At(0))
	assert.Nil(t, tp.At(3))
	assert.Equal(t, "", tp.Text("n"), "wrong type yields zero value")
	assert.Equal(t, int64(0), tp.Long("missing"))
}
