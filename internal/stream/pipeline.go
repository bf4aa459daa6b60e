package stream

import (
	"strconv"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// NoCursorTimeout leaves the cursor idle timeout to the engine.
const NoCursorTimeout time.Duration = -1

// StageKind identifies a pipeline stage.
type StageKind int

const (
	StageLoad StageKind = iota + 1
	StageLoadAll
	StageGroup
	StageApply
	StageSort
	StageFilter
	StageLimit
)

func (k StageKind) String() string {
	switch k {
	case StageLoad:
		return "load"
	case StageLoadAll:
		return "load_all"
	case StageGroup:
		return "group"
	case StageApply:
		return "apply"
	case StageSort:
		return "sort"
	case StageFilter:
		return "filter"
	case StageLimit:
		return "limit"
	}
	return "unknown"
}

// Stage is one operation of an aggregation pipeline.
type Stage interface {
	Kind() StageKind
	// Args renders the stage as FT.AGGREGATE arguments.
	Args() []string
}

// LoadStage projects document fields into the pipeline.
type LoadStage struct {
	Properties []string
}

func (LoadStage) Kind() StageKind { return StageLoad }

func (s LoadStage) Args() []string {
	args := []string{"LOAD", strconv.Itoa(len(s.Properties))}
	return append(args, s.Properties...)
}

// LoadAllStage loads every document field.
type LoadAllStage struct{}

func (LoadAllStage) Kind() StageKind { return StageLoadAll }
func (LoadAllStage) Args() []string  { return []string{"LOAD", "*"} }

// GroupStage groups rows by Properties (none = one bucket) and reduces them.
type GroupStage struct {
	Properties []string
	Reducers   []aggregation.Reducer
}

func (GroupStage) Kind() StageKind { return StageGroup }

func (s GroupStage) Args() []string {
	args := []string{"GROUPBY", strconv.Itoa(len(s.Properties))}
	args = append(args, s.Properties...)
	for _, r := range s.Reducers {
		args = append(args, r.Args()...)
	}
	return args
}

// ApplyStage computes Expr into a new property named Alias.
type ApplyStage struct {
	Expr  string
	Alias string
}

func (ApplyStage) Kind() StageKind { return StageApply }

func (s ApplyStage) Args() []string {
	return []string{"APPLY", s.Expr, "AS", s.Alias}
}

// SortKey is one property of a sort stage.
type SortKey = aggregation.SortOrder

// Asc sorts by property in ascending order.
func Asc(property string) SortKey {
	return SortKey{Property: property}
}

// Desc sorts by property in descending order.
func Desc(property string) SortKey {
	return SortKey{Property: property, Descending: true}
}

// SortStage sorts rows by Keys. Max > 0 keeps only the top Max rows.
type SortStage struct {
	Keys []SortKey
	Max  int
}

func (SortStage) Kind() StageKind { return StageSort }

func (s SortStage) Args() []string {
	args := []string{"SORTBY", strconv.Itoa(len(s.Keys) * 2)}
	for _, k := range s.Keys {
		direction := "ASC"
		if k.Descending {
			direction = "DESC"
		}
		args = append(args, aggregation.PropertyRef(k.Property), direction)
	}
	if s.Max > 0 {
		args = append(args, "MAX", strconv.Itoa(s.Max))
	}
	return args
}

// FilterStage drops rows not matching Expr.
type FilterStage struct {
	Expr string
}

func (FilterStage) Kind() StageKind { return StageFilter }

func (s FilterStage) Args() []string {
	return []string{"FILTER", s.Expr}
}

// LimitStage keeps Count rows starting at Offset.
type LimitStage struct {
	Offset int
	Count  int
}

func (LimitStage) Kind() StageKind { return StageLimit }

func (s LimitStage) Args() []string {
	return []string{"LIMIT", strconv.Itoa(s.Offset), strconv.Itoa(s.Count)}
}

// CursorOptions enables cursor reads of Count rows per batch.
type CursorOptions struct {
	Count   int
	MaxIdle time.Duration // NoCursorTimeout or a positive duration
}

// Pipeline is a fully built FT.AGGREGATE request.
type Pipeline struct {
	Index    string
	Query    string
	Stages   []Stage
	Verbatim bool
	Timeout  time.Duration // 0 = engine default
	Cursor   *CursorOptions
	Dialect  int // 0 = engine default
}

// Clone returns a copy whose stage list and cursor options can be changed independently.
func (p *Pipeline) Clone() *Pipeline {
	cp := *p
	cp.Stages = append([]Stage(nil), p.Stages...)
	if p.Cursor != nil {
		c := *p.Cursor
		cp.Cursor = &c
	}
	return &cp
}

// HasLimit reports whether any stage is a limit.
func (p *Pipeline) HasLimit() bool {
	for _, s := range p.Stages {
		if s.Kind() == StageLimit {
			return true
		}
	}
	return false
}

// Args renders the full command without the command name:
// index, query, flags, stages, then cursor and dialect options.
func (p *Pipeline) Args() []string {
	query := p.Query
	if query == "" {
		query = "*"
	}
	args := []string{p.Index, query}
	if p.Verbatim {
		args = append(args, "VERBATIM")
	}
	if p.Timeout > 0 {
		args = append(args, "TIMEOUT", aggregation.Millis(p.Timeout))
	}
	for _, s := range p.Stages {
		args = append(args, s.Args()...)
	}
	if p.Cursor != nil {
		args = append(args, "WITHCURSOR", "COUNT", strconv.Itoa(p.Cursor.Count))
		if p.Cursor.MaxIdle > 0 {
			args = append(args, "MAXIDLE", aggregation.Millis(p.Cursor.MaxIdle))
		}
	}
	if p.Dialect > 0 {
		args = append(args, "DIALECT", strconv.Itoa(p.Dialect))
	}
	return args
}
