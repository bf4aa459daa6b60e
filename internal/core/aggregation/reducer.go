package aggregation

import (
	"fmt"
	"strconv"
	"strings"
)

// ReducerKind names a reduce function understood by the aggregation engine.
type ReducerKind string

const (
	Count            ReducerKind = "COUNT"
	CountDistinct    ReducerKind = "COUNT_DISTINCT"
	CountDistinctish ReducerKind = "COUNT_DISTINCTISH"
	Sum              ReducerKind = "SUM"
	Min              ReducerKind = "MIN"
	Max              ReducerKind = "MAX"
	Avg              ReducerKind = "AVG"
	StdDev           ReducerKind = "STDDEV"
	Quantile         ReducerKind = "QUANTILE"
	ToList           ReducerKind = "TOLIST"
	FirstValue       ReducerKind = "FIRST_VALUE"
	RandomSample     ReducerKind = "RANDOM_SAMPLE"
)

const defaultResultKind = KindString

// Reducer is one REDUCE clause inside a group stage.
type Reducer struct {
	Kind     ReducerKind
	Property string   // "@field", empty for COUNT
	Params   []string // arguments that follow the property
	Alias    string
}

// Name returns the engine-level function name.
func (r Reducer) Name() string {
	return string(r.Kind)
}

// DefaultAlias is the alias assigned when none was given: the lower-cased kind.
func (r Reducer) DefaultAlias() string {
	return strings.ToLower(string(r.Kind))
}

// Args renders "REDUCE <name> <nargs> <args...> [AS <alias>]".
func (r Reducer) Args() []string {
	var fnArgs []string
	if r.Property != "" {
		fnArgs = append(fnArgs, r.Property)
	}
	fnArgs = append(fnArgs, r.Params...)

	args := make([]string, 0, len(fnArgs)+5)
	args = append(args, "REDUCE", r.Name(), strconv.Itoa(len(fnArgs)))
	args = append(args, fnArgs...)
	if r.Alias != "" {
		args = append(args, "AS", r.Alias)
	}
	return args
}

// SortOrder is the optional ordering parameter of FIRST_VALUE.
type SortOrder struct {
	Property   string
	Descending bool
}

// ReducerSpec defines the reduce semantics of one reducer kind.
// To add a new reducer: implement this interface and register it in Reducers.
type ReducerSpec interface {
	// Build validates params and returns the reducer bound to property.
	Build(property string, params []interface{}) (Reducer, error)

	// ResultType is the decode type of the reducer output given the source field's type.
	ResultType(field ValueType) ValueType
}

// Reducers is the catalog of all supported reducer kinds.
var Reducers = map[ReducerKind]ReducerSpec{
	Count:            countReducer{},
	CountDistinct:    fieldReducer{kind: CountDistinct, result: fixedType(Long)},
	CountDistinctish: fieldReducer{kind: CountDistinctish, result: fixedType(Long)},
	Sum:              fieldReducer{kind: Sum, result: fieldType},
	Min:              fieldReducer{kind: Min, result: fieldType},
	Max:              fieldReducer{kind: Max, result: fieldType},
	Avg:              fieldReducer{kind: Avg, result: fixedType(Double)},
	StdDev:           fieldReducer{kind: StdDev, result: fixedType(Double)},
	ToList:           fieldReducer{kind: ToList, result: fieldType},
	Quantile:         quantileReducer{},
	FirstValue:       firstValueReducer{},
	RandomSample:     randomSampleReducer{},
}

// ValidReducer reports whether kind is a registered reducer.
func ValidReducer(kind ReducerKind) bool {
	_, ok := Reducers[kind]
	return ok
}

// ParseReducerKind accepts engine names in any case, e.g. "avg" or "count_distinct".
func ParseReducerKind(s string) (ReducerKind, error) {
	kind := ReducerKind(strings.ToUpper(strings.TrimSpace(s)))
	if !ValidReducer(kind) {
		return "", invalidArgumentf("unsupported reducer %q", s)
	}
	return kind, nil
}

// NewReducer builds a reducer of the given kind over property ("" for none).
func NewReducer(kind ReducerKind, property string, params ...interface{}) (Reducer, error) {
	spec, ok := Reducers[kind]
	if !ok {
		return Reducer{}, invalidArgumentf("unsupported reducer %q", kind)
	}
	return spec.Build(property, params)
}

// ResultType returns the default decode type of a reducer's output.
// Unknown kinds decode as strings.
func ResultType(kind ReducerKind, field ValueType) ValueType {
	spec, ok := Reducers[kind]
	if !ok {
		return ValueType{Kind: defaultResultKind}
	}
	return spec.ResultType(field)
}

func fixedType(t ValueType) func(ValueType) ValueType {
	return func(ValueType) ValueType { return t }
}

// fieldType returns the source field's declared type, or string without one.
func fieldType(field ValueType) ValueType {
	if field.Known() {
		return field
	}
	return ValueType{Kind: defaultResultKind}
}

// countReducer counts rows in the group. It takes no property and no params.
type countReducer struct{}

func (countReducer) Build(_ string, params []interface{}) (Reducer, error) {
	if len(params) != 0 {
		return Reducer{}, invalidArgumentf("%s takes no parameters, got %d", Count, len(params))
	}
	return Reducer{Kind: Count}, nil
}

func (countReducer) ResultType(ValueType) ValueType { return Long }

// fieldReducer covers every reducer that takes exactly one property and nothing else.
type fieldReducer struct {
	kind   ReducerKind
	result func(ValueType) ValueType
}

func (r fieldReducer) Build(property string, params []interface{}) (Reducer, error) {
	if property == "" {
		return Reducer{}, invalidArgumentf("%s requires a field", r.kind)
	}
	if len(params) != 0 {
		return Reducer{}, invalidArgumentf("%s takes no parameters, got %d", r.kind, len(params))
	}
	return Reducer{Kind: r.kind, Property: PropertyRef(property)}, nil
}

func (r fieldReducer) ResultType(field ValueType) ValueType { return r.result(field) }

// quantileReducer takes one numeric parameter in [0, 1].
type quantileReducer struct{}

func (quantileReducer) Build(property string, params []interface{}) (Reducer, error) {
	if property == "" {
		return Reducer{}, invalidArgumentf("%s requires a field", Quantile)
	}
	if len(params) != 1 {
		return Reducer{}, invalidArgumentf("%s requires exactly one parameter, got %d", Quantile, len(params))
	}
	q, err := strconv.ParseFloat(strings.TrimSpace(fmt.Sprint(params[0])), 64)
	if err != nil {
		return Reducer{}, invalidArgumentf("%s parameter %v is not a number", Quantile, params[0])
	}
	if q < 0 || q > 1 {
		return Reducer{}, invalidArgumentf("%s parameter %v must be between 0 and 1", Quantile, params[0])
	}
	return Reducer{
		Kind:     Quantile,
		Property: PropertyRef(property),
		Params:   []string{strconv.FormatFloat(q, 'f', -1, 64)},
	}, nil
}

func (quantileReducer) ResultType(field ValueType) ValueType { return fieldType(field) }

// firstValueReducer optionally takes a SortOrder (or a bare property name, ascending).
type firstValueReducer struct{}

func (firstValueReducer) Build(property string, params []interface{}) (Reducer, error) {
	if property == "" {
		return Reducer{}, invalidArgumentf("%s requires a field", FirstValue)
	}
	r := Reducer{Kind: FirstValue, Property: PropertyRef(property)}
	switch len(params) {
	case 0:
		return r, nil
	case 1:
	default:
		return Reducer{}, invalidArgumentf("%s takes at most one parameter, got %d", FirstValue, len(params))
	}

	var order SortOrder
	switch p := params[0].(type) {
	case SortOrder:
		order = p
	case *SortOrder:
		if p == nil {
			return r, nil
		}
		order = *p
	case string:
		order = SortOrder{Property: p}
	default:
		return Reducer{}, invalidArgumentf("%s parameter must be a sort order, got %T", FirstValue, params[0])
	}
	if StripPropertyMarker(order.Property) == "" {
		return Reducer{}, invalidArgumentf("%s sort order requires a property", FirstValue)
	}

	direction := "ASC"
	if order.Descending {
		direction = "DESC"
	}
	r.Params = []string{"BY", PropertyRef(order.Property), direction}
	return r, nil
}

func (firstValueReducer) ResultType(field ValueType) ValueType { return fieldType(field) }

// randomSampleReducer takes one positive integer sample size.
type randomSampleReducer struct{}

func (randomSampleReducer) Build(property string, params []interface{}) (Reducer, error) {
	if property == "" {
		return Reducer{}, invalidArgumentf("%s requires a field", RandomSample)
	}
	if len(params) != 1 {
		return Reducer{}, invalidArgumentf("%s requires exactly one parameter, got %d", RandomSample, len(params))
	}
	size, err := strconv.Atoi(strings.TrimSpace(fmt.Sprint(params[0])))
	if err != nil {
		return Reducer{}, invalidArgumentf("%s sample size %v is not an integer", RandomSample, params[0])
	}
	if size <= 0 {
		return Reducer{}, invalidArgumentf("%s sample size must be > 0, got %d", RandomSample, size)
	}
	return Reducer{
		Kind:     RandomSample,
		Property: PropertyRef(property),
		Params:   []string{strconv.Itoa(size)},
	}, nil
}

func (randomSampleReducer) ResultType(field ValueType) ValueType { return fieldType(field) }
