package aggregation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValueType(t *testing.T) {
	tests := []struct {
		input     string
		want      ValueType
		wantError bool
	}{
		{input: "string", want: String},
		{input: "TEXT", want: String},
		{input: "tag", want: String},
		{input: "int", want: Int},
		{input: "int64", want: Long},
		{input: "numeric", want: Double},
		{input: "decimal", want: Decimal},
		{input: "boolean", want: Bool},
		{input: "timestamp", want: Time},
		{input: "list<long>", want: ListOf(Long)},
		{input: " list<string> ", want: ListOf(String)},
		{input: "list", want: ValueType{Kind: KindList}},
		{input: "list<list<int>>", wantError: true},
		{input: "list<blob>", wantError: true},
		{input: "uuid", wantError: true},
		{input: "", wantError: true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseValueType(tc.input)
			if tc.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestValueType_ListHelpers(t *testing.T) {
	tags := ListOf(String)
	assert.True(t, tags.IsList())
	assert.True(t, tags.Known())
	assert.Equal(t, String, tags.ElemType())
	assert.Equal(t, "list<string>", tags.String())

	assert.False(t, ValueType{}.Known())
	assert.Equal(t, ValueType{}, Long.ElemType())
	assert.Equal(t, "list", ValueType{Kind: KindList}.String())

	assert.True(t, ListOf(Long).Equal(ListOf(Long)))
	assert.False(t, ListOf(Long).Equal(ListOf(Int)))
	assert.False(t, Long.Equal(Int))
}

func TestValueType_TextRoundTrip(t *testing.T) {
	type column struct {
		Type ValueType `json:"type"`
	}

	out, err := json.Marshal(column{Type: ListOf(Double)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"list<double>"}`, string(out))

	var in column
	require.NoError(t, json.Unmarshal([]byte(`{"type":"long"}`), &in))
	assert.Equal(t, Long, in.Type)

	require.Error(t, json.Unmarshal([]byte(`{"type":"blob"}`), &in))
}

func TestFieldDescriptor(t *testing.T) {
	f := FieldDescriptor{Name: "price", Alias: "@cost", Type: Double}
	assert.Equal(t, "cost", f.SearchAlias())
	assert.Equal(t, "@cost", f.Property())

	plain := Field("brand", String)
	assert.Equal(t, "brand", plain.SearchAlias())
	assert.Equal(t, "@brand", plain.Property())

	alias := AliasField("total")
	assert.Equal(t, String, alias.Type)
	assert.Equal(t, "@total", alias.Property())

	assert.Equal(t, "@x", PropertyRef("x"))
	assert.Equal(t, "@x", PropertyRef("@x"))
	assert.Equal(t, "x", StripPropertyMarker("@x"))
}

func TestDecodeError(t *testing.T) {
	cause := errors.New("strconv: bad")
	err := NewDecodeError("total", "abc", Long, cause)

	assert.True(t, errors.Is(err, ErrDecodeFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "total")
	assert.Contains(t, err.Error(), `"abc"`)
	assert.Equal(t, map[string]interface{}{"column": "total", "raw": "abc", "type": "long"}, err.Details())

	assert.True(t, errors.Is(ErrCapacity, ErrSchemaMismatch))
}
