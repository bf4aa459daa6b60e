package aggregation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		want      decimal.Decimal
		wantError bool
	}{
		{name: "nil", value: nil, want: decimal.Zero},
		{name: "float64", value: 12.5, want: decimal.RequireFromString("12.5")},
		{name: "float32", value: float32(7.25), want: decimal.RequireFromString("7.25")},
		{name: "int", value: 7, want: decimal.NewFromInt(7)},
		{name: "int32", value: int32(8), want: decimal.NewFromInt(8)},
		{name: "int64", value: int64(9), want: decimal.NewFromInt(9)},
		{name: "string", value: "10.75", want: decimal.RequireFromString("10.75")},
		{name: "bytes with spaces", value: []byte(" 3.1 "), want: decimal.RequireFromString("3.1")},
		{name: "decimal passthrough", value: decimal.NewFromInt(4), want: decimal.NewFromInt(4)},
		{name: "invalid string", value: "abc", wantError: true},
		{name: "empty string", value: "", wantError: true},
		{name: "unsupported type", value: true, wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToDecimal(tc.value)
			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}
