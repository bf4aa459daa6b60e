package stream

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aevon-lab/aevon-search/internal/core/aggregation"
	"github.com/shopspring/decimal"
)

// zeroValue is what a missing raw value decodes to. Untyped columns decode
// as strings, so their zero value is the empty string.
func zeroValue(t aggregation.ValueType) any {
	switch t.Kind {
	case aggregation.KindUnknown, aggregation.KindString:
		return ""
	case aggregation.KindInt:
		return 0
	case aggregation.KindLong:
		return int64(0)
	case aggregation.KindDouble:
		return 0.0
	case aggregation.KindDecimal:
		return decimal.Zero
	case aggregation.KindBool:
		return false
	case aggregation.KindTime:
		return time.Time{}
	case aggregation.KindList:
		return []any(nil)
	}
	return nil
}

// resolveType picks the decode type of a column: the requested type when set,
// else the recorded hint. List element types fall back the same way.
func resolveType(requested, hint aggregation.ValueType) aggregation.ValueType {
	if !requested.Known() {
		return hint
	}
	if requested.IsList() && !requested.ElemType().Known() {
		switch {
		case hint.IsList():
			if elem := hint.ElemType(); elem.Known() {
				return aggregation.ListOf(elem)
			}
		case hint.Known():
			return aggregation.ListOf(hint)
		}
	}
	return requested
}

// decodeValue converts one raw value of column label to t.
// A column with no type at all decodes scalars as strings and keeps lists raw.
func decodeValue(label string, raw any, t aggregation.ValueType) (any, error) {
	if raw == nil {
		return zeroValue(t), nil
	}

	if t.IsList() {
		items, ok := raw.([]any)
		if !ok {
			return raw, nil // scalar in a list column passes through unconverted
		}
		elem := t.ElemType()
		if !elem.Known() {
			return items, nil
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, err := decodeValue(label, item, elem)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	// Multi-value reducers reply with a list even when hinted with the scalar
	// field type; the scalar type then applies to each element.
	if items, ok := raw.([]any); ok {
		if !t.Known() {
			return items, nil
		}
		return decodeValue(label, items, aggregation.ListOf(t))
	}

	text := rawText(raw)
	switch t.Kind {
	case aggregation.KindUnknown, aggregation.KindString:
		return text, nil
	case aggregation.KindInt:
		n, err := parseInteger(text, 32)
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return int(n), nil
	case aggregation.KindLong:
		n, err := parseInteger(text, 64)
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return n, nil
	case aggregation.KindDouble:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return f, nil
	case aggregation.KindDecimal:
		d, err := aggregation.ToDecimal(text)
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return d, nil
	case aggregation.KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return b, nil
	case aggregation.KindTime:
		ts, err := parseTime(text)
		if err != nil {
			return nil, aggregation.NewDecodeError(label, text, t, err)
		}
		return ts, nil
	}
	return nil, aggregation.NewDecodeError(label, text, t, fmt.Errorf("unsupported type"))
}

func rawText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(raw)
}

// parseInteger accepts integral decimal text, including forms like "3.0" or "1e3"
// that the engine produces for numeric reducers.
func parseInteger(text string, bitSize int) (int64, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.ParseInt(text, 10, bitSize); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s is not an integer", text)
	}
	limit := float64(math.MaxInt64)
	if bitSize == 32 {
		limit = float64(math.MaxInt32)
	}
	if math.Abs(f) > limit {
		return 0, fmt.Errorf("%s is out of range", text)
	}
	return int64(f), nil
}

// parseTime accepts epoch seconds (the engine's numeric form) or RFC 3339 text.
func parseTime(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if secs, err := strconv.ParseFloat(text, 64); err == nil {
		whole, frac := math.Modf(secs)
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, text)
}
