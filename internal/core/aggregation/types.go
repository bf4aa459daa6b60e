package aggregation

import (
	"fmt"
	"time"
)

// PipelineRule is a saved aggregation pipeline.
// Rules are loaded at startup from YAML files and fingerprinted for staleness detection.
type PipelineRule struct {
	Name        string        `json:"name"`
	Index       string        `json:"index"`
	Version     int           `json:"version"`
	Query       string        `json:"query"`
	Verbatim    bool          `json:"verbatim,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	MaxRows     int           `json:"max_rows,omitempty"`
	Steps       []Step        `json:"steps"`
	Fingerprint string        `json:"fingerprint,omitempty"` // SHA-256 of the raw YAML file
}

// Step is one builder call of a saved or ad-hoc pipeline. Exactly one field is set.
type Step struct {
	Load    []string    `yaml:"load,omitempty" json:"load,omitempty"`
	LoadAll bool        `yaml:"load_all,omitempty" json:"load_all,omitempty"`
	GroupBy []string    `yaml:"group_by,omitempty" json:"group_by,omitempty"`
	Group   bool        `yaml:"group_all,omitempty" json:"group_all,omitempty"`
	Reduce  *ReduceStep `yaml:"reduce,omitempty" json:"reduce,omitempty"`
	Apply   *ApplyStep  `yaml:"apply,omitempty" json:"apply,omitempty"`
	Sort    *SortStep   `yaml:"sort,omitempty" json:"sort,omitempty"`
	Filter  string      `yaml:"filter,omitempty" json:"filter,omitempty"`
	Limit   *LimitStep  `yaml:"limit,omitempty" json:"limit,omitempty"`
	Cursor  *CursorStep `yaml:"cursor,omitempty" json:"cursor,omitempty"`
}

// ReduceStep attaches a reducer to the open group.
// Field names a model field or, when the model has no such field, a bare alias.
type ReduceStep struct {
	Op     string   `yaml:"op" json:"op"`
	Field  string   `yaml:"field,omitempty" json:"field,omitempty"`
	As     string   `yaml:"as,omitempty" json:"as,omitempty"`
	Params []string `yaml:"params,omitempty" json:"params,omitempty"`
}

type ApplyStep struct {
	Expr string `yaml:"expr" json:"expr"`
	As   string `yaml:"as" json:"as"`
}

// SortStep sorts by the listed properties. A leading "-" sorts descending.
type SortStep struct {
	By  []string `yaml:"by" json:"by"`
	Max int      `yaml:"max,omitempty" json:"max,omitempty"`
}

type LimitStep struct {
	Offset int `yaml:"offset,omitempty" json:"offset,omitempty"`
	Count  int `yaml:"count" json:"count"`
}

type CursorStep struct {
	Count   int    `yaml:"count" json:"count"`
	MaxIdle string `yaml:"max_idle,omitempty" json:"max_idle,omitempty"`
}

// Kind names the operation the step carries.
func (s Step) Kind() string {
	switch {
	case len(s.Load) > 0:
		return "load"
	case s.LoadAll:
		return "load_all"
	case len(s.GroupBy) > 0:
		return "group_by"
	case s.Group:
		return "group_all"
	case s.Reduce != nil:
		return "reduce"
	case s.Apply != nil:
		return "apply"
	case s.Sort != nil:
		return "sort"
	case s.Filter != "":
		return "filter"
	case s.Limit != nil:
		return "limit"
	case s.Cursor != nil:
		return "cursor"
	}
	return ""
}

// Validate checks that exactly one operation is set and its arguments are well formed.
func (s Step) Validate() error {
	set := 0
	for _, ok := range []bool{
		len(s.Load) > 0, s.LoadAll, len(s.GroupBy) > 0, s.Group, s.Reduce != nil,
		s.Apply != nil, s.Sort != nil, s.Filter != "", s.Limit != nil, s.Cursor != nil,
	} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return invalidArgumentf("step must set exactly one operation, got %d", set)
	}

	switch {
	case s.Reduce != nil:
		if _, err := ParseReducerKind(s.Reduce.Op); err != nil {
			return err
		}
	case s.Apply != nil:
		if s.Apply.Expr == "" || s.Apply.As == "" {
			return invalidArgumentf("apply requires expr and as")
		}
	case s.Sort != nil:
		if len(s.Sort.By) == 0 {
			return invalidArgumentf("sort requires at least one property")
		}
		if s.Sort.Max < 0 {
			return invalidArgumentf("sort max must be >= 0, got %d", s.Sort.Max)
		}
	case s.Limit != nil:
		if s.Limit.Offset < 0 || s.Limit.Count < 0 {
			return invalidArgumentf("limit offset and count must be >= 0")
		}
	case s.Cursor != nil:
		if s.Cursor.Count <= 0 {
			return invalidArgumentf("cursor count must be > 0, got %d", s.Cursor.Count)
		}
		if s.Cursor.MaxIdle != "" {
			if _, err := ParseInterval(s.Cursor.MaxIdle); err != nil {
				return fmt.Errorf("%w: cursor max_idle: %v", ErrInvalidArgument, err)
			}
		}
	}
	return nil
}

// ValidateSteps validates every step and reports the first failure with its position.
func ValidateSteps(steps []Step) error {
	if len(steps) == 0 {
		return invalidArgumentf("pipeline must have at least one step")
	}
	for i, step := range steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
	}
	return nil
}
