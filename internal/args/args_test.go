package args

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clierr "github.com/ggonzalez94/ledgertools/internal/errors"
)

type pageArgs struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Filter   string `json:"filter"`
	Refresh  bool   `json:"refresh"`
	PoolID   Text   `json:"poolId"`
}

func (a pageArgs) Validate() error {
	if a.Page < 1 {
		return errors.New("page must be >= 1")
	}
	return nil
}

var testSchema = MustCompile(map[string]any{
	"type": "object",
	"properties": map[string]any{
		"page":     map[string]any{"type": "integer"},
		"pageSize": map[string]any{"type": "integer"},
		"filter":   map[string]any{"type": "string"},
		"refresh":  map[string]any{"type": "boolean"},
		"poolId":   map[string]any{"type": []any{"string", "integer"}},
	},
})

func defaults() *pageArgs {
	return &pageArgs{Page: 1, PageSize: 10}
}

func TestDecodeAcceptsStringAndObject(t *testing.T) {
	fromString := defaults()
	require.NoError(t, Decode(`{"page":2,"filter":"HBAR"}`, testSchema, fromString))

	fromMap := defaults()
	require.NoError(t, Decode(map[string]any{"page": 2, "filter": "HBAR"}, testSchema, fromMap))

	fromRaw := defaults()
	require.NoError(t, Decode(json.RawMessage(`{"page":2,"filter":"HBAR"}`), testSchema, fromRaw))

	assert.Equal(t, fromString, fromMap)
	assert.Equal(t, fromString, fromRaw)
	assert.Equal(t, 2, fromString.Page)
	assert.Equal(t, 10, fromString.PageSize, "absent fields keep defaults")
}

func TestDecodeEmptyInputUsesDefaults(t *testing.T) {
	for _, input := range []any{"", "   ", nil, []byte("null")} {
		dst := defaults()
		require.NoError(t, Decode(input, testSchema, dst))
		assert.Equal(t, defaults(), dst)
	}
}

func TestDecodeRejectsStructuralErrors(t *testing.T) {
	cases := []any{
		`{"page":"two"}`,
		`{"refresh":"yes"}`,
		`[1,2]`,
		`{not json`,
	}
	for _, input := range cases {
		err := Decode(input, testSchema, defaults())
		require.Error(t, err, "input %v", input)
		assert.True(t, clierr.IsValidation(err), "input %v: expected validation error, got %v", input, err)
	}
}

func TestDecodeRunsDomainValidation(t *testing.T) {
	err := Decode(`{"page":0}`, testSchema, defaults())
	require.Error(t, err)
	assert.True(t, clierr.IsValidation(err))
	assert.Equal(t, "page must be >= 1", err.Error())
}

func TestTextAcceptsStringOrNumber(t *testing.T) {
	dst := defaults()
	require.NoError(t, Decode(`{"poolId":213}`, testSchema, dst))
	assert.Equal(t, Text("213"), dst.PoolID)

	dst = defaults()
	require.NoError(t, Decode(`{"poolId":" 1 "}`, testSchema, dst))
	assert.Equal(t, "1", dst.PoolID.String())
}

func TestRawFallsBackForNilSchema(t *testing.T) {
	var s *Schema
	assert.Equal(t, "object", s.Raw()["type"])
	assert.Equal(t, "object", testSchema.Raw()["type"])
}

func TestDecodeAcceptsWholeNumberFloats(t *testing.T) {
	dst := defaults()
	require.NoError(t, Decode(`{"page":2.0,"pageSize":1e1,"poolId":7.0}`, testSchema, dst))
	assert.Equal(t, 2, dst.Page)
	assert.Equal(t, 10, dst.PageSize)
	assert.Equal(t, Text("7"), dst.PoolID)

	err := Decode(`{"page":2.5}`, testSchema, defaults())
	require.Error(t, err)
	assert.True(t, clierr.IsValidation(err))
}

func TestDecodeTypeErrorNamesField(t *testing.T) {
	err := Decode(`{"page":"two"}`, nil, defaults())
	require.Error(t, err)
	assert.True(t, clierr.IsValidation(err))
	assert.Equal(t, "invalid tool input: page: expected int", err.Error())
}
