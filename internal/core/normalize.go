package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// dateLayouts are the date spellings accepted from extraction output, tried in order.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
}

// Normalize turns a loosely-typed extraction result into a canonical invoice.
//
// Missing, null, or wrong-typed fields degrade to defaults; only a top-level
// value that is not an object is rejected. Date is left empty when absent or
// unparsable so the store can stamp the persistence date.
func Normalize(raw any) (*Invoice, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("normalize: got %T: %w", raw, ErrMalformedExtraction)
	}

	inv := &Invoice{
		ClientName:    coerceString(fields["client_name"], UnknownClientName),
		ClientAddress: coerceString(fields["client_address"], ""),
		InvoiceNumber: coerceString(fields["invoice_number"], DefaultInvoiceNumber),
		Date:          normalizeDate(fields["date"]),
		Currency:      strings.ToUpper(coerceString(fields["currency"], DefaultCurrency)),
		Items:         []LineItem{},
		Status:        InvoiceStatusPending,
	}

	if entries, ok := fields["items"].([]any); ok {
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				continue
			}
			inv.Items = append(inv.Items, normalizeItem(entry))
		}
	}

	// A stored record carries its total as "amount".
	if amount, ok := CoerceDecimal(fields["total_amount"], decimal.Zero); ok {
		inv.Amount = amount
	} else if amount, ok := CoerceDecimal(fields["amount"], decimal.Zero); ok {
		inv.Amount = amount
	} else {
		inv.Amount = inv.ItemsTotal()
	}

	return inv, nil
}

func normalizeItem(entry map[string]any) LineItem {
	qty, ok := CoerceDecimal(entry["quantity"], decimal.NewFromInt(1))
	if ok && qty.IsNegative() {
		qty = decimal.NewFromInt(1)
	}
	price, ok := CoerceDecimal(entry["unit_price"], decimal.Zero)
	if ok && price.IsNegative() {
		price = decimal.Zero
	}
	total, _ := CoerceDecimal(entry["total"], qty.Mul(price))

	return LineItem{
		Description: coerceString(entry["description"], DefaultItemDescription),
		Quantity:    qty,
		UnitPrice:   price,
		Total:       total,
	}
}

// CoerceDecimal parses v as a number. On any failure (nil, bool, non-numeric
// text, NaN or infinity) it returns def and false.
func CoerceDecimal(v any, def decimal.Decimal) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		f := float64(n)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return def, false
		}
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		return parseDecimal(string(n), def)
	case string:
		return parseDecimal(n, def)
	}
	return def, false
}

func parseDecimal(s string, def decimal.Decimal) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return def, false
	}
	return d, true
}

// coerceString returns v as trimmed text. Numbers are formatted; nil, empty
// text and other types yield def.
func coerceString(v any, def string) string {
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case json.Number:
		s = t.String()
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return def
		}
		s = decimal.NewFromFloat(t).String()
	case int:
		s = fmt.Sprintf("%d", t)
	case int64:
		s = fmt.Sprintf("%d", t)
	default:
		return def
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return def
	}
	return s
}

func normalizeDate(v any) string {
	s := coerceString(v, "")
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return ""
}
