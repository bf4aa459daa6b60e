package aggregation

import (
	"fmt"
	"strings"
)

// Kind is the closed set of decode targets an output column can carry.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindInt
	KindLong
	KindDouble
	KindDecimal
	KindBool
	KindTime
	KindList
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown",
	KindString:  "string",
	KindInt:     "int",
	KindLong:    "long",
	KindDouble:  "double",
	KindDecimal: "decimal",
	KindBool:    "bool",
	KindTime:    "time",
	KindList:    "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ValueType is a type hint for one output column. Elem is only set for KindList.
// The zero value means "no hint".
type ValueType struct {
	Kind Kind
	Elem *ValueType
}

var (
	String  = ValueType{Kind: KindString}
	Int     = ValueType{Kind: KindInt}
	Long    = ValueType{Kind: KindLong}
	Double  = ValueType{Kind: KindDouble}
	Decimal = ValueType{Kind: KindDecimal}
	Bool    = ValueType{Kind: KindBool}
	Time    = ValueType{Kind: KindTime}
)

// ListOf returns a list type with the given element type.
func ListOf(elem ValueType) ValueType {
	e := elem
	return ValueType{Kind: KindList, Elem: &e}
}

// Known reports whether t carries a usable hint.
func (t ValueType) Known() bool {
	return t.Kind != KindUnknown
}

// IsList reports whether t is a list type.
func (t ValueType) IsList() bool {
	return t.Kind == KindList
}

// ElemType returns the element type of a list, or the zero ValueType.
func (t ValueType) ElemType() ValueType {
	if t.Kind != KindList || t.Elem == nil {
		return ValueType{}
	}
	return *t.Elem
}

// Equal compares two value types structurally.
func (t ValueType) Equal(o ValueType) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind != KindList {
		return true
	}
	return t.ElemType().Equal(o.ElemType())
}

func (t ValueType) String() string {
	if t.Kind == KindList {
		if t.Elem == nil {
			return "list"
		}
		return "list<" + t.Elem.String() + ">"
	}
	return t.Kind.String()
}

// ParseValueType parses names such as "long", "double" or "list<string>".
// "text" and "tag" are accepted as aliases of string, "numeric" of double.
func ParseValueType(s string) (ValueType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if strings.HasPrefix(name, "list<") && strings.HasSuffix(name, ">") {
		elem, err := ParseValueType(name[len("list<") : len(name)-1])
		if err != nil {
			return ValueType{}, err
		}
		if elem.IsList() {
			return ValueType{}, fmt.Errorf("nested list type %q is not supported", s)
		}
		return ListOf(elem), nil
	}

	switch name {
	case "string", "text", "tag":
		return String, nil
	case "int", "int32", "integer":
		return Int, nil
	case "long", "int64":
		return Long, nil
	case "double", "float", "numeric":
		return Double, nil
	case "decimal":
		return Decimal, nil
	case "bool", "boolean":
		return Bool, nil
	case "time", "date", "timestamp":
		return Time, nil
	case "list":
		return ValueType{Kind: KindList}, nil
	default:
		return ValueType{}, fmt.Errorf("unsupported value type %q (must be: string, int, long, double, decimal, bool, time, list<T>)", s)
	}
}

// MarshalText renders the canonical type name.
func (t ValueType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts anything ParseValueType accepts.
func (t *ValueType) UnmarshalText(b []byte) error {
	parsed, err := ParseValueType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
