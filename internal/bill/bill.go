package bill

import (
	"encoding/json"
	"time"
)

// Verdict is the outcome of reconciling a bill against its claimed total
type Verdict string

const (
	VerdictPassed Verdict = "PASSED"
	VerdictFailed Verdict = "FAILED"
)

// BillRecord represents an ingested bill with its extraction payload
type BillRecord struct {
	ID          uint64          `json:"id" bson:"id"`
	Merchant    string          `json:"merchant" bson:"merchant"`
	Date        string          `json:"date,omitempty" bson:"date"` // YYYY-MM-DD, empty when the extraction had no usable date
	Total       float64         `json:"total" bson:"total"`
	Currency    string          `json:"currency,omitempty" bson:"currency"`
	Category    string          `json:"category" bson:"category"`
	Extracted   json.RawMessage `json:"extracted" bson:"extracted"` // verbatim payload, authoritative for reconciliation
	Fingerprint string          `json:"file_fingerprint" bson:"file_fingerprint"`
	Filename    string          `json:"filename" bson:"filename"`
	ContentType string          `json:"content_type" bson:"content_type"`
	CreatedAt   time.Time       `json:"created_at" bson:"created_at"`
}

// ValidationRecord caches the last reconciliation verdict for a bill.
// At most one exists per bill; reviewing again overwrites it.
type ValidationRecord struct {
	BillID          uint64    `json:"bill_id" bson:"bill_id"`
	ClaimedTotal    float64   `json:"claimed_total" bson:"claimed_total"`
	ReconciledTotal float64   `json:"reconciled_total" bson:"reconciled_total"`
	Status          Verdict   `json:"status" bson:"status"`
	TaxInferred     bool      `json:"tax_inferred" bson:"tax_inferred"`
	CheckedAt       time.Time `json:"checked_at" bson:"checked_at"`
}

// CategorySpend aggregates spend for one category across dated bills
type CategorySpend struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
	Bills    int     `json:"bills"`
}

// FieldStatus reports which key fields of a bill carry usable values
type FieldStatus struct {
	BillID   uint64 `json:"bill_id"`
	Merchant bool   `json:"merchant"`
	Date     bool   `json:"date"`
	Total    bool   `json:"total"`
	Indexed  bool   `json:"indexed"`
}
