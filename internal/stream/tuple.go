package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// MaxTupleArity is the largest number of columns a tuple can carry.
const MaxTupleArity = 20

// Tuple is one decoded row: values labelled with the output columns, in order.
type Tuple struct {
	labels []string
	values []any
}

// NewTuple pairs labels with values. Both slices must have the same length.
func NewTuple(labels []string, values []any) Tuple {
	return Tuple{labels: labels, values: values}
}

func (t Tuple) Len() int         { return len(t.values) }
func (t Tuple) Labels() []string { return append([]string(nil), t.labels...) }
func (t Tuple) Values() []any    { return append([]any(nil), t.values...) }

// At returns the value at position i.
func (t Tuple) At(i int) any {
	if i < 0 || i >= len(t.values) {
		return nil
	}
	return t.values[i]
}

// Get returns the value labelled label.
func (t Tuple) Get(label string) (any, bool) {
	for i, l := range t.labels {
		if l == label {
			return t.values[i], true
		}
	}
	return nil, false
}

// Typed accessors return the zero value when the label is absent or holds another type.

func (t Tuple) Text(label string) string {
	v, _ := t.Get(label)
	s, _ := v.(string)
	return s
}

func (t Tuple) Int(label string) int {
	v, _ := t.Get(label)
	n, _ := v.(int)
	return n
}

func (t Tuple) Long(label string) int64 {
	v, _ := t.Get(label)
	n, _ := v.(int64)
	return n
}

func (t Tuple) Double(label string) float64 {
	v, _ := t.Get(label)
	f, _ := v.(float64)
	return f
}

func (t Tuple) Decimal(label string) decimal.Decimal {
	v, _ := t.Get(label)
	d, _ := v.(decimal.Decimal)
	return d
}

func (t Tuple) Bool(label string) bool {
	v, _ := t.Get(label)
	b, _ := v.(bool)
	return b
}

func (t Tuple) Time(label string) time.Time {
	v, _ := t.Get(label)
	ts, _ := v.(time.Time)
	return ts
}

func (t Tuple) List(label string) []any {
	v, _ := t.Get(label)
	l, _ := v.([]any)
	return l
}

// Map returns the tuple as a label->value map.
func (t Tuple) Map() map[string]any {
	m := make(map[string]any, len(t.labels))
	for i, l := range t.labels {
		m[l] = t.values[i]
	}
	return m
}

// JSONMap is Map with raw byte values converted to text, ready for json.Marshal.
func (t Tuple) JSONMap() map[string]any {
	m := make(map[string]any, len(t.labels))
	for i, l := range t.labels {
		m[l] = jsonValue(t.values[i])
	}
	return m
}

// MarshalJSON renders the tuple as a JSON object keeping column order.
func (t Tuple) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, l := range t.labels {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(l)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(jsonValue(t.values[i]))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", l, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// jsonValue turns raw []byte values into text so they do not render as base64.
func jsonValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonValue(item)
		}
		return out
	}
	return v
}

// CollectTuples executes the pipeline and decodes every row into a tuple.
// types must have one entry per registered column; a zero entry uses the
// column's recorded hint.
func (s *Stream[E]) CollectTuples(ctx context.Context, types ...aggregation.ValueType) ([]Tuple, error) {
	return s.CollectTuplesWith(ctx, types, nil)
}

// CollectHintedTuples is CollectTuples with every column decoded by its recorded hint.
func (s *Stream[E]) CollectHintedTuples(ctx context.Context, opts ...ExecOption) ([]Tuple, error) {
	s.flush()
	return s.CollectTuplesWith(ctx, make([]aggregation.ValueType, s.cols.count()), opts)
}

// CollectTuplesWith is CollectTuples with execution options.
func (s *Stream[E]) CollectTuplesWith(ctx context.Context, types []aggregation.ValueType, opts []ExecOption) ([]Tuple, error) {
	s.flush()
	if s.err != nil {
		return nil, s.err
	}
	dec, err := s.tupleDecoder(types)
	if err != nil {
		return nil, err
	}
	res, err := s.Execute(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return dec.decodeRows(res.Rows)
}

// tupleDecoder binds requested types to the registered columns.
type tupleDecoder struct {
	labels []string
	types  []aggregation.ValueType
}

func (s *Stream[E]) tupleDecoder(requested []aggregation.ValueType) (*tupleDecoder, error) {
	labels := s.cols.names()
	if len(labels) > MaxTupleArity || len(requested) > MaxTupleArity {
		return nil, fmt.Errorf("%w: %d columns, at most %d supported", aggregation.ErrCapacity, max(len(labels), len(requested)), MaxTupleArity)
	}
	if len(requested) != len(labels) {
		return nil, fmt.Errorf("%w: %d column types requested for %d columns %v", aggregation.ErrSchemaMismatch, len(requested), len(labels), labels)
	}
	types := make([]aggregation.ValueType, len(labels))
	for i, label := range labels {
		types[i] = resolveType(requested[i], s.cols.hint(label))
	}
	return &tupleDecoder{labels: labels, types: types}, nil
}

func (d *tupleDecoder) decodeRow(row Row) (Tuple, error) {
	values := make([]any, len(d.labels))
	for i, label := range d.labels {
		v, err := decodeValue(label, row[label], d.types[i])
		if err != nil {
			return Tuple{}, err
		}
		values[i] = v
	}
	return Tuple{labels: d.labels, values: values}, nil
}

func (d *tupleDecoder) decodeRows(rows []Row) ([]Tuple, error) {
	out := make([]Tuple, 0, len(rows))
	for _, row := range rows {
		t, err := d.decodeRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
