package stream

import (
	"fmt"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
)

// openReducer is a reducer whose alias is not final yet.
type openReducer struct {
	reducer aggregation.Reducer
	field   *aggregation.FieldDescriptor
}

// groupClause is the group under construction.
type groupClause struct {
	properties []string
	reducers   []aggregation.Reducer
	aliases    map[string]struct{}
}

// groupState holds at most one open group and at most one open reducer in it.
// State changes only through the methods below.
type groupState struct {
	cols    *columns
	group   *groupClause
	pending *openReducer
}

func newGroupState(cols *columns) *groupState {
	return &groupState{cols: cols}
}

// isOpen reports whether a group clause is under construction.
func (g *groupState) isOpen() bool {
	return g.group != nil
}

// openGroup starts a group keyed by fields and registers each as an output column.
// With no fields it opens an aggregate-all group only when force is set.
// The caller flushes any previous group first.
func (g *groupState) openGroup(force bool, fields ...aggregation.FieldDescriptor) {
	if len(fields) == 0 && !force {
		return
	}
	group := &groupClause{aliases: make(map[string]struct{})}
	for _, f := range fields {
		group.properties = append(group.properties, f.Property())
		g.cols.add(f.SearchAlias(), f.Type)
	}
	g.group = group
}

// attachReducer drops the field's column, finalizes the open reducer, then
// installs a new one built from the catalog. A reduce with no open group opens an aggregate-all group.
func (g *groupState) attachReducer(kind aggregation.ReducerKind, field *aggregation.FieldDescriptor, params []interface{}) error {
	property := ""
	if field != nil {
		property = field.Property()
	}
	reducer, err := aggregation.NewReducer(kind, property, params...)
	if err != nil {
		return err
	}

	if g.group == nil {
		g.openGroup(true)
	}
	// The field's raw column goes first so a previous reducer aliased to the
	// same label is re-registered when it is finalized.
	if field != nil {
		g.cols.remove(field.SearchAlias())
	}
	if err := g.finalizePending(); err != nil {
		return err
	}
	g.pending = &openReducer{reducer: reducer, field: field}
	return nil
}

// renameOpenReducer sets the alias of the open reducer. No-op without one.
func (g *groupState) renameOpenReducer(alias string) {
	if g.pending == nil {
		return
	}
	g.pending.reducer.Alias = alias
}

// flush finalizes the open reducer and returns the completed group stage.
// Returns false when nothing was open.
func (g *groupState) flush() (GroupStage, bool, error) {
	if g.group == nil {
		return GroupStage{}, false, nil
	}
	if err := g.finalizePending(); err != nil {
		return GroupStage{}, false, err
	}
	stage := GroupStage{
		Properties: g.group.properties,
		Reducers:   g.group.reducers,
	}
	g.group = nil
	return stage, true, nil
}

// reset drops any open state without emitting it.
func (g *groupState) reset() {
	g.group = nil
	g.pending = nil
}

func (g *groupState) finalizePending() error {
	if g.pending == nil {
		return nil
	}
	p := g.pending
	g.pending = nil

	r := p.reducer
	if r.Alias == "" {
		r.Alias = r.DefaultAlias()
	}
	if _, dup := g.group.aliases[r.Alias]; dup {
		return fmt.Errorf("%w: reducer alias %q is already used in this group", aggregation.ErrInvalidState, r.Alias)
	}
	g.group.aliases[r.Alias] = struct{}{}
	g.group.reducers = append(g.group.reducers, r)

	var fieldType aggregation.ValueType
	if p.field != nil {
		fieldType = p.field.Type
	}
	g.cols.add(r.Alias, aggregation.ResultType(r.Kind, fieldType))
	return nil
}
