package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func decodeRaw(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestNormalize_DerivesItemTotals(t *testing.T) {
	raw := decodeRaw(t, `{"items":[
		{"description":"Consulting","quantity":2,"unit_price":50},
		{"description":"Hosting","quantity":"3","unit_price":"19.99"},
		{"description":"Fractional","quantity":0.5,"unit_price":10.1}
	]}`)

	inv, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, inv.Items, 3)

	for _, it := range inv.Items {
		assert.True(t, it.Quantity.Mul(it.UnitPrice).Equal(it.Total), "item %q", it.Description)
	}
	assertDec(t, "100", inv.Items[0].Total)
	assertDec(t, "59.97", inv.Items[1].Total)
	assertDec(t, "5.05", inv.Items[2].Total)
}

func TestNormalize_QuantityDefaultsToOne(t *testing.T) {
	raw := decodeRaw(t, `{"items":[
		{"description":"null","quantity":null,"unit_price":10},
		{"description":"missing","unit_price":10},
		{"description":"text","quantity":"a few","unit_price":10},
		{"description":"bool","quantity":true,"unit_price":10},
		{"description":"negative","quantity":-2,"unit_price":10}
	]}`)

	inv, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, inv.Items, 5)

	for _, it := range inv.Items {
		assertDec(t, "1", it.Quantity, it.Description)
		assertDec(t, "10", it.Total, it.Description)
	}
}

func TestNormalize_ItemDefaults(t *testing.T) {
	raw := decodeRaw(t, `{"items":[{}, {"description":"  ","unit_price":"abc","total":"n/a"}, {"unit_price":-5}]}`)

	inv, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, inv.Items, 3)

	for _, it := range inv.Items {
		assert.Equal(t, DefaultItemDescription, it.Description)
		assertDec(t, "1", it.Quantity)
		assertDec(t, "0", it.UnitPrice)
		assertDec(t, "0", it.Total)
	}
}

func TestNormalize_ExplicitItemTotalWins(t *testing.T) {
	raw := decodeRaw(t, `{"items":[{"description":"Discounted","quantity":2,"unit_price":50,"total":90}]}`)

	inv, err := Normalize(raw)
	require.NoError(t, err)
	assertDec(t, "90", inv.Items[0].Total)
	assertDec(t, "90", inv.Amount)
}

func TestNormalize_Amount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"numeric total wins over items", `{"total_amount":250,"items":[{"quantity":1,"unit_price":10}]}`, "250"},
		{"numeric string", `{"total_amount":" 99.50 ","items":[]}`, "99.5"},
		{"zero is honored", `{"total_amount":0,"items":[{"quantity":1,"unit_price":10}]}`, "0"},
		{"absent sums items", `{"items":[{"quantity":2,"unit_price":10},{"total":5}]}`, "25"},
		{"non-numeric sums items", `{"total_amount":"unknown","items":[{"quantity":3,"unit_price":3}]}`, "9"},
		{"null sums items", `{"total_amount":null,"items":[{"quantity":1,"unit_price":7}]}`, "7"},
		{"empty items", `{}`, "0"},
		{"stored amount when total absent", `{"amount":"100","items":[{"quantity":1,"unit_price":80}]}`, "100"},
		{"total wins over stored amount", `{"total_amount":120,"amount":"100","items":[]}`, "120"},
		{"unparsable stored amount sums items", `{"amount":"n/a","items":[{"quantity":1,"unit_price":80}]}`, "80"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := Normalize(decodeRaw(t, tt.raw))
			require.NoError(t, err)
			assertDec(t, tt.want, inv.Amount)
		})
	}
}

func TestNormalize_RecordRoundTrip(t *testing.T) {
	first, err := Normalize(decodeRaw(t, `{"client_name":"Acme","items":[{"quantity":1,"unit_price":80}],"total_amount":100}`))
	require.NoError(t, err)

	data, err := json.Marshal(first)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "created_at")

	var raw any
	d := json.NewDecoder(bytes.NewReader(data))
	d.UseNumber()
	require.NoError(t, d.Decode(&raw))

	second, err := Normalize(raw)
	require.NoError(t, err)
	assertDec(t, "100", second.Amount)
	assert.Equal(t, first.ClientName, second.ClientName)
	require.Len(t, second.Items, 1)
	assertDec(t, "80", second.Items[0].Total)
}

func TestNormalize_HeaderDefaults(t *testing.T) {
	inv, err := Normalize(map[string]any{
		"client_name":    nil,
		"invoice_number": "",
		"currency":       42,
		"items":          "not a list",
	})
	require.NoError(t, err)

	assert.Equal(t, UnknownClientName, inv.ClientName)
	assert.Equal(t, DefaultInvoiceNumber, inv.InvoiceNumber)
	assert.Equal(t, "42", inv.Currency)
	assert.Empty(t, inv.Date)
	assert.NotNil(t, inv.Items)
	assert.Empty(t, inv.Items)
	assert.Equal(t, InvoiceStatusPending, inv.Status)
}

func TestNormalize_TrimsAndUppercases(t *testing.T) {
	inv, err := Normalize(map[string]any{
		"client_name":    "  Acme S.L. ",
		"client_address": "Calle Mayor 1",
		"invoice_number": 1042.0,
		"currency":       "usd",
	})
	require.NoError(t, err)

	assert.Equal(t, "Acme S.L.", inv.ClientName)
	assert.Equal(t, "Calle Mayor 1", inv.ClientAddress)
	assert.Equal(t, "1042", inv.InvoiceNumber)
	assert.Equal(t, "USD", inv.Currency)
}

func TestNormalize_SkipsNonMappingItems(t *testing.T) {
	raw := decodeRaw(t, `{"items":["junk", 3, null, {"description":"Real","quantity":1,"unit_price":4}]}`)

	inv, err := Normalize(raw)
	require.NoError(t, err)
	require.Len(t, inv.Items, 1)
	assert.Equal(t, "Real", inv.Items[0].Description)
}

func TestNormalize_Dates(t *testing.T) {
	tests := map[string]string{
		"2024-01-31":           "2024-01-31",
		"2024/01/31":           "2024-01-31",
		"31/01/2024":           "2024-01-31",
		"31.01.2024":           "2024-01-31",
		"31-01-2024":           "2024-01-31",
		"2024-01-31T10:00:00Z": "2024-01-31",
		"January 31st":         "",
		"":                     "",
	}
	for in, want := range tests {
		inv, err := Normalize(map[string]any{"date": in})
		require.NoError(t, err)
		assert.Equal(t, want, inv.Date, "input %q", in)
	}
}

func TestNormalize_RejectsNonMapping(t *testing.T) {
	for _, raw := range []any{nil, "text", []any{}, 12.0} {
		_, err := Normalize(raw)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedExtraction))
	}
}

func TestCoerceDecimal(t *testing.T) {
	def := decimal.NewFromInt(7)

	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{2.5, "2.5", true},
		{3, "3", true},
		{int64(-4), "-4", true},
		{json.Number("12.30"), "12.3", true},
		{" 8 ", "8", true},
		{"", "7", false},
		{"1,000", "7", false},
		{true, "7", false},
		{nil, "7", false},
		{math.NaN(), "7", false},
		{math.Inf(1), "7", false},
		{map[string]any{}, "7", false},
	}
	for _, tt := range tests {
		got, ok := CoerceDecimal(tt.in, def)
		assert.Equal(t, tt.ok, ok, "input %#v", tt.in)
		assertDec(t, tt.want, got, "input %#v", tt.in)
	}
}
