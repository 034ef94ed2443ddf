package coffees

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFields(t *testing.T) {
	f, err := DecodeFields(map[string]any{
		"name":       "Espresso",
		"price":      3.0,
		"flavours":   []any{"nutty", "sweet"},
		"roast":      "dark",
		"id":         99.0,
		"created_at": "yesterday",
	})
	require.NoError(t, err)

	require.NotNil(t, f.Name)
	assert.Equal(t, "Espresso", *f.Name)
	require.NotNil(t, f.Price)
	assert.Equal(t, 3.0, *f.Price)
	require.NotNil(t, f.Flavours)
	assert.Equal(t, []string{"nutty", "sweet"}, *f.Flavours)
	assert.Nil(t, f.Brand)
	assert.Equal(t, map[string]any{"roast": "dark"}, f.Extra)
	assert.False(t, f.Empty())
}

func TestDecodeFieldsRejects(t *testing.T) {
	tests := []struct {
		name string
		body map[string]any
	}{
		{"nil body", nil},
		{"price not a number", map[string]any{"price": "cheap"}},
		{"name not a string", map[string]any{"name": 12.0}},
		{"name too long", map[string]any{"name": strings.Repeat("x", 256)}},
		{"flavour too long", map[string]any{"flavours": []any{strings.Repeat("y", 65)}}},
		{"too many flavours", map[string]any{"flavours": manyFlavours(33)}},
		{"name as json number", map[string]any{"name": json.Number("12")}},
		{"flavour as json number", map[string]any{"flavours": []any{json.Number("1")}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFields(tt.body)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidBody)

			var be *BodyError
			assert.ErrorAs(t, err, &be)
			assert.NotEmpty(t, be.Msg)
		})
	}
}

func manyFlavours(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = "note"
	}
	return out
}

func TestDecodeFieldsFlavourLimit(t *testing.T) {
	f, err := DecodeFields(map[string]any{"flavours": manyFlavours(32)})
	require.NoError(t, err)
	assert.Len(t, *f.Flavours, 32)
}

func TestDecodeFieldsKeysAreCaseSensitive(t *testing.T) {
	f, err := DecodeFields(map[string]any{
		"NAME":  "Latte",
		"Price": "cheap",
		"name":  "Flat White",
	})
	require.NoError(t, err)

	require.NotNil(t, f.Name)
	assert.Equal(t, "Flat White", *f.Name)
	assert.Nil(t, f.Price)
	assert.Equal(t, map[string]any{"NAME": "Latte", "Price": "cheap"}, f.Extra)
}

func TestDecodeFieldsJSONNumbers(t *testing.T) {
	f, err := DecodeFields(map[string]any{
		"price": json.Number("2.5"),
		"sku":   json.Number("9007199254740993"),
	})
	require.NoError(t, err)

	require.NotNil(t, f.Price)
	assert.Equal(t, 2.5, *f.Price)
	assert.Equal(t, json.Number("9007199254740993"), f.Extra["sku"])
}

func TestAttributesKeepIntegerPrecision(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Scan([]byte(`{"sku":9007199254740993,"roast":"dark"}`)))
	assert.Equal(t, json.Number("9007199254740993"), a["sku"])
	assert.Equal(t, "dark", a["roast"])

	require.NoError(t, a.Scan(nil))
	assert.NotNil(t, a)
	assert.Empty(t, a)

	require.NoError(t, json.Unmarshal([]byte("null"), &a))
	assert.Empty(t, a)
}

func TestFieldsEmpty(t *testing.T) {
	f, err := DecodeFields(map[string]any{})
	require.NoError(t, err)
	assert.True(t, f.Empty())

	f, err = DecodeFields(map[string]any{"id": 4.0})
	require.NoError(t, err)
	assert.True(t, f.Empty())
}

func TestWindow(t *testing.T) {
	items := []Coffee{{ID: 1}, {ID: 2}, {ID: 3}}

	assert.Len(t, window(items, Page{}), 3)
	assert.Len(t, window(items, Page{Limit: 2}), 2)
	assert.Equal(t, int64(3), window(items, Page{Offset: 2})[0].ID)
	assert.Empty(t, window(items, Page{Offset: 3}))
	assert.Len(t, window(items, Page{Offset: -1}), 3)
}
