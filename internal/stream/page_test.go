package stream

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsOf(brands ...string) []Row {
	rows := make([]Row, 0, len(brands))
	for _, b := range brands {
		rows = append(rows, Row{"brand": b})
	}
	return rows
}

func TestFirstPage_OpensCursorWithPageSize(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("a", "b"), CursorID: 77}}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Size: 50}, String)
	require.NoError(t, err)

	require.Len(t, exec.aggregated, 1)
	p := exec.aggregated[0]
	require.NotNil(t, p.Cursor)
	assert.Equal(t, 50, p.Cursor.Count)
	assert.Equal(t, NoCursorTimeout, p.Cursor.MaxIdle)
	assert.False(t, p.HasLimit(), "paged reads are never capped")

	assert.Equal(t, 0, page.Number)
	assert.Equal(t, 50, page.Size)
	assert.True(t, page.HasNext)
	require.Len(t, page.Content, 2)
	assert.Equal(t, "a", page.Content[0].Text("brand"))
}

func TestPage_NextUntilExhausted(t *testing.T) {
	exec := &fakeExecutor{
		result:  &Result{Rows: rowsOf("a"), CursorID: 77},
		batches: []*Result{{Rows: rowsOf("b"), CursorID: 77}, {CursorID: 0}},
	}
	s := New[product](exec, "products", "*").GroupBy(brand)

	first, err := s.FirstPage(context.Background(), PageRequest{Size: 50, MaxIdle: time.Minute}, String)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, exec.aggregated[0].Cursor.MaxIdle)

	second, err := first.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Number)
	assert.True(t, second.HasNext)
	assert.Equal(t, "b", second.Content[0].Text("brand"))
	assert.Equal(t, []cursorCall{{index: "products", cursorID: 77, count: 50}}, exec.reads)

	third, err := second.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, third.HasNext)
	assert.Empty(t, third.Content)
	require.Len(t, exec.reads, 2)

	// exhausted is terminal: no transport call
	fourth, err := third.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, fourth.HasNext)
	assert.Empty(t, fourth.Content)
	assert.Len(t, exec.reads, 2)

	require.NoError(t, fourth.Close(context.Background()))
	assert.Empty(t, exec.deleted, "exhausted cursor is not deleted")
}

func TestFirstPage_SinglePageResult(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("a"), CursorID: 0}}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Size: 10}, String)
	require.NoError(t, err)
	assert.False(t, page.HasNext)
	assert.Len(t, page.Content, 1)

	next, err := page.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, next.HasNext)
	assert.Empty(t, exec.reads)
}

func TestFirstPage_SkipsEarlierPages(t *testing.T) {
	exec := &fakeExecutor{
		result:  &Result{Rows: rowsOf("a"), CursorID: 5},
		batches: []*Result{{Rows: rowsOf("b"), CursorID: 5}, {Rows: rowsOf("c"), CursorID: 5}},
	}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Page: 2, Size: 1}, String)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Number)
	assert.Equal(t, "c", page.Content[0].Text("brand"))
	assert.True(t, page.HasNext)
	assert.Len(t, exec.reads, 2)
}

func TestFirstPage_PageBeyondEnd(t *testing.T) {
	exec := &fakeExecutor{
		result:  &Result{Rows: rowsOf("a"), CursorID: 5},
		batches: []*Result{{CursorID: 0}},
	}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Page: 4, Size: 1}, String)
	require.NoError(t, err)
	assert.Equal(t, 4, page.Number)
	assert.False(t, page.HasNext)
	assert.Empty(t, page.Content)
	assert.Len(t, exec.reads, 1)
}

func TestPage_CloseDeletesActiveCursor(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("a"), CursorID: 9}}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Size: 1}, String)
	require.NoError(t, err)

	require.NoError(t, page.Close(context.Background()))
	assert.Equal(t, []int64{9}, exec.deleted)

	next, err := page.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, next.HasNext)
	assert.Empty(t, exec.reads)

	require.NoError(t, page.Close(context.Background()))
	assert.Len(t, exec.deleted, 1)
}

func TestPage_TransportErrors(t *testing.T) {
	cause := errors.New("broken pipe")
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("a"), CursorID: 9}, readErr: cause, deleteErr: cause}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Size: 1}, String)
	require.NoError(t, err)

	_, err = page.Next(context.Background())
	require.ErrorIs(t, err, ErrTransportFailure)
	require.ErrorIs(t, err, cause)

	err = page.Close(context.Background())
	require.ErrorIs(t, err, ErrTransportFailure)
}

func TestFirstPage_InvalidRequests(t *testing.T) {
	exec := &fakeExecutor{}
	s := New[product](exec, "products", "*").GroupBy(brand)

	_, err := s.FirstPage(context.Background(), PageRequest{Size: 0}, String)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.FirstPage(context.Background(), PageRequest{Page: -1, Size: 10}, String)
	require.ErrorIs(t, err, ErrInvalidArgument)

	_, err = s.FirstPage(context.Background(), PageRequest{Size: 10})
	require.ErrorIs(t, err, ErrSchemaMismatch)

	assert.Empty(t, exec.aggregated)
}

func TestFirstEntityPage(t *testing.T) {
	exec := &fakeExecutor{
		result:  &Result{Rows: []Row{{"$": `{"sku":"A-1"}`}}, CursorID: 3},
		batches: []*Result{{Rows: []Row{{"$": `{"sku":"B-2"}`}}, CursorID: 0}},
	}
	s := New(exec, "catalog", "*", WithDecoder[catalogItem](JSONDocumentDecoder[catalogItem]{})).LoadAll()

	page, err := s.FirstEntityPage(context.Background(), PageRequest{Size: 1})
	require.NoError(t, err)
	assert.Equal(t, "A-1", page.Content[0].SKU)
	assert.True(t, page.HasNext)

	next, err := page.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B-2", next.Content[0].SKU)
	assert.False(t, next.HasNext)

	_, err = New[catalogItem](exec, "catalog", "*").FirstEntityPage(context.Background(), PageRequest{Size: 1})
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestFirstPage_AppliesExecOptionsWithoutCap(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("a"), CursorID: 0}}
	s := New[product](exec, "products", "*").GroupBy(brand)

	_, err := s.FirstPage(context.Background(), PageRequest{
		Size:    10,
		Options: []ExecOption{Verbatim(), WithTimeout(500 * time.Millisecond), WithMaxRows(3)},
	}, String)
	require.NoError(t, err)

	p := exec.aggregated[0]
	assert.True(t, p.Verbatim)
	assert.Equal(t, 500*time.Millisecond, p.Timeout)
	assert.False(t, p.HasLimit())
	assert.Contains(t, joinArgs(p.Args()), "VERBATIM")
}

func TestPage_DecodeFailureReleasesCursor(t *testing.T) {
	exec := &fakeExecutor{
		result:  &Result{Rows: rowsOf("1"), CursorID: 9},
		batches: []*Result{{Rows: rowsOf("not-a-number"), CursorID: 9}, {Rows: rowsOf("3"), CursorID: 0}},
	}
	s := New[product](exec, "products", "*").GroupBy(brand)

	page, err := s.FirstPage(context.Background(), PageRequest{Size: 1}, Long)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Content[0].Long("brand"))

	_, err = page.Next(context.Background())
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Equal(t, []int64{9}, exec.deleted)

	// the failed batch is not skipped over silently
	next, err := page.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, next.HasNext)
	assert.Empty(t, next.Content)
	assert.Len(t, exec.reads, 1)
}

func TestFirstPage_DecodeFailureReleasesCursor(t *testing.T) {
	exec := &fakeExecutor{result: &Result{Rows: rowsOf("x"), CursorID: 4}}
	s := New[product](exec, "products", "*").GroupBy(brand)

	_, err := s.FirstPage(context.Background(), PageRequest{Size: 1}, Long)
	require.ErrorIs(t, err, ErrDecodeFailure)
	assert.Equal(t, []int64{4}, exec.deleted)
}
