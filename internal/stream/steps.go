package stream

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// FieldResolver looks up index fields by name or alias.
type FieldResolver interface {
	Field(name string) (aggregation.FieldDescriptor, bool)
}

// ApplySteps replays declarative steps onto the stream, in order.
// Names the resolver does not know are treated as string-typed aliases.
func (s *Stream[E]) ApplySteps(fields FieldResolver, steps ...aggregation.Step) *Stream[E] {
	for i, step := range steps {
		if s.err != nil {
			return s
		}
		if err := step.Validate(); err != nil {
			s.fail(fmt.Errorf("step %d: %w", i, err))
			return s
		}
		s.applyStep(fields, step)
	}
	return s
}

func (s *Stream[E]) applyStep(fields FieldResolver, step aggregation.Step) {
	switch {
	case len(step.Load) > 0:
		s.Load(resolveFields(fields, step.Load)...)
	case step.LoadAll:
		s.LoadAll()
	case len(step.GroupBy) > 0:
		s.GroupBy(resolveFields(fields, step.GroupBy)...)
	case step.Group:
		s.GroupBy()
	case step.Reduce != nil:
		s.applyReduce(fields, step.Reduce)
	case step.Apply != nil:
		s.Apply(step.Apply.Expr, step.Apply.As)
	case step.Sort != nil:
		keys := make([]SortKey, 0, len(step.Sort.By))
		for _, by := range step.Sort.By {
			if name, ok := strings.CutPrefix(by, "-"); ok {
				keys = append(keys, Desc(resolveName(fields, name)))
			} else {
				keys = append(keys, Asc(resolveName(fields, strings.TrimPrefix(by, "+"))))
			}
		}
		s.SortedMax(step.Sort.Max, keys...)
	case step.Filter != "":
		s.Filter(step.Filter)
	case step.Limit != nil:
		s.LimitOffset(step.Limit.Offset, step.Limit.Count)
	case step.Cursor != nil:
		idle := NoCursorTimeout
		if step.Cursor.MaxIdle != "" {
			d, err := aggregation.ParseInterval(step.Cursor.MaxIdle)
			if err != nil {
				s.fail(fmt.Errorf("%w: cursor max_idle: %v", aggregation.ErrInvalidArgument, err))
				return
			}
			idle = d
		}
		s.Cursor(step.Cursor.Count, idle)
	}
}

func (s *Stream[E]) applyReduce(fields FieldResolver, r *aggregation.ReduceStep) {
	kind, err := aggregation.ParseReducerKind(r.Op)
	if err != nil {
		s.fail(err)
		return
	}
	params := reduceParams(kind, r.Params)
	switch {
	case r.Field == "":
		s.Reduce(kind, params...)
	default:
		if f, ok := lookupField(fields, r.Field); ok {
			s.ReduceOn(kind, f, params...)
		} else {
			s.ReduceAlias(kind, r.Field, params...)
		}
	}
	if r.As != "" {
		s.As(r.As)
	}
}

// reduceParams converts textual params. FIRST_VALUE takes "[-]property" as its order.
func reduceParams(kind aggregation.ReducerKind, raw []string) []interface{} {
	params := make([]interface{}, 0, len(raw))
	for _, p := range raw {
		if kind == aggregation.FirstValue {
			name, desc := strings.CutPrefix(p, "-")
			params = append(params, aggregation.SortOrder{Property: name, Descending: desc})
			continue
		}
		if f, err := strconv.ParseFloat(p, 64); err == nil {
			params = append(params, f)
			continue
		}
		params = append(params, p)
	}
	return params
}

func lookupField(fields FieldResolver, name string) (aggregation.FieldDescriptor, bool) {
	if fields == nil {
		return aggregation.FieldDescriptor{}, false
	}
	return fields.Field(aggregation.StripPropertyMarker(name))
}

func resolveName(fields FieldResolver, name string) string {
	if f, ok := lookupField(fields, name); ok {
		return f.SearchAlias()
	}
	return aggregation.StripPropertyMarker(name)
}

func resolveFields(fields FieldResolver, names []string) []aggregation.FieldDescriptor {
	out := make([]aggregation.FieldDescriptor, 0, len(names))
	for _, name := range names {
		if f, ok := lookupField(fields, name); ok {
			out = append(out, f)
			continue
		}
		out = append(out, aggregation.AliasField(aggregation.StripPropertyMarker(name)))
	}
	return out
}
