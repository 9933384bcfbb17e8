package bill

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// LineItem is a single extracted line of a bill
type LineItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// TaxSet holds the five itemized tax fields an extraction may carry
type TaxSet struct {
	GST   float64 `json:"gst"`
	CGST  float64 `json:"cgst"`
	SGST  float64 `json:"sgst"`
	IGST  float64 `json:"igst"`
	Other float64 `json:"other"`
}

// Payload is a normalized extraction result. Every field is safe to use
// directly: amounts are numeric, the date is either YYYY-MM-DD or empty,
// and the merchant is never blank.
type Payload struct {
	Merchant string     `json:"merchant"`
	Date     string     `json:"date"`
	Total    float64    `json:"total"`
	Currency string     `json:"currency"`
	Items    []LineItem `json:"items"`
	Taxes    TaxSet     `json:"taxes"`
	Discount float64    `json:"discount"`
}

// CoerceAmount converts a loosely-typed extracted value to a float64.
// Numeric input (including numeric strings) yields its exact value;
// anything else, missing included, yields 0.
func CoerceAmount(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// dateLayouts are the ISO-8601 shapes providers actually produce
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// CoerceDate converts a loosely-typed extracted value to a YYYY-MM-DD
// string. Anything that does not parse as an ISO-8601 date yields "" so
// downstream code sees missing data, never a malformed date.
func CoerceDate(value interface{}) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.Format("2006-01-02")
		}
	}
	return ""
}

// NormalizePayload converts a raw parsed extraction into a Payload,
// coercing every field to a safe default. It never fails: malformed
// fields degrade to their zero values and malformed line items are
// dropped rather than poisoning the rest of the payload.
func NormalizePayload(raw map[string]interface{}) Payload {
	p := Payload{
		Merchant: strings.TrimSpace(stringField(raw, "merchant")),
		Date:     CoerceDate(raw["date"]),
		Total:    CoerceAmount(raw["total"]),
		Currency: strings.TrimSpace(stringField(raw, "currency")),
		Discount: CoerceAmount(raw["discount"]),
	}
	if p.Merchant == "" {
		p.Merchant = "Unknown"
	}

	if items, ok := raw["items"].([]interface{}); ok {
		p.Items = make([]LineItem, 0, len(items))
		for _, entry := range items {
			item, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			p.Items = append(p.Items, LineItem{
				Name:  strings.TrimSpace(stringField(item, "name")),
				Price: CoerceAmount(item["price"]),
			})
		}
	}

	if taxes, ok := raw["taxes"].(map[string]interface{}); ok {
		p.Taxes = TaxSet{
			GST:   CoerceAmount(taxes["gst"]),
			CGST:  CoerceAmount(taxes["cgst"]),
			SGST:  CoerceAmount(taxes["sgst"]),
			IGST:  CoerceAmount(taxes["igst"]),
			Other: CoerceAmount(taxes["other"]),
		}
	}

	return p
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
