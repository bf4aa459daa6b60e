package stream

import (
	"context"
	"strings"
)

type cursorCall struct {
	index    string
	cursorID int64
	count    int
}

// fakeExecutor records every call and replays canned replies.
type fakeExecutor struct {
	aggregated []*Pipeline
	reads      []cursorCall
	deleted    []int64

	result    *Result
	err       error
	batches   []*Result
	readErr   error
	deleteErr error
}

func (f *fakeExecutor) Aggregate(_ context.Context, p *Pipeline) (*Result, error) {
	f.aggregated = append(f.aggregated, p)
	if f.err != nil {
		return nil, f.err
	}
	if f.result == nil {
		return &Result{}, nil
	}
	return f.result, nil
}

func (f *fakeExecutor) CursorRead(_ context.Context, index string, cursorID int64, count int) (*Result, error) {
	f.reads = append(f.reads, cursorCall{index: index, cursorID: cursorID, count: count})
	if f.readErr != nil {
		return nil, f.readErr
	}
	if len(f.batches) == 0 {
		return &Result{}, nil
	}
	next := f.batches[0]
	f.batches = f.batches[1:]
	return next, nil
}

func (f *fakeExecutor) CursorDelete(_ context.Context, _ string, cursorID int64) error {
	f.deleted = append(f.deleted, cursorID)
	return f.deleteErr
}

func (f *fakeExecutor) lastArgs() []string {
	if len(f.aggregated) == 0 {
		return nil
	}
	return f.aggregated[len(f.aggregated)-1].Args()
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}

func groupStages(p *Pipeline) []GroupStage {
	var out []GroupStage
	for _, s := range p.Stages {
		if g, ok := s.(GroupStage); ok {
			out = append(out, g)
		}
	}
	return out
}

var (
	brand = Field("brand", String)
	price = Field("price", Double)
	stock = Field("stock", Int)
	tags  = Field("tags", ListOf(String))
)
