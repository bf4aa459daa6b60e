package aggregation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ToDecimal converts a raw reply value or a decoded JSON number into a decimal.
// Reply values arrive as text; JSON numbers unmarshal to float64, which
// NewFromFloat converts to an exact decimal representation.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch val := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return val, nil
	case float64:
		return decimal.NewFromFloat(val), nil
	case float32:
		return decimal.NewFromFloat(float64(val)), nil
	case int:
		return decimal.NewFromInt(int64(val)), nil
	case int64:
		return decimal.NewFromInt(val), nil
	case int32:
		return decimal.NewFromInt(int64(val)), nil
	case []byte:
		return parseDecimalText(string(val))
	case string:
		return parseDecimalText(val)
	}
	return decimal.Zero, fmt.Errorf("unsupported numeric value of type %T", v)
}

func parseDecimalText(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty numeric value")
	}
	return decimal.NewFromString(s)
}
