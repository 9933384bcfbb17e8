package bill

import "math"

// Reconciliation is the full audit trail of one reconciliation run
type Reconciliation struct {
	Subtotal        float64 `json:"subtotal"`
	EffectiveTax    float64 `json:"effective_tax"`
	Discount        float64 `json:"discount"`
	ReconciledTotal float64 `json:"reconciled_total"`
	ClaimedTotal    float64 `json:"claimed_total"`
	Tolerance       float64 `json:"tolerance"`
	Verdict         Verdict `json:"verdict"`
	TaxInferred     bool    `json:"tax_inferred"`
	ItemsPresent    bool    `json:"items_present"`
}

// Reconcile recomputes a bill's total from its itemized parts and judges it
// against the claimed total. Pure and deterministic; it always produces a
// verdict and never fails, because its inputs are already normalized.
//
// When no tax was itemized but line items exist, the gap between the claimed
// total and the subtotal is treated as the tax, provided it is positive.
// Extractions routinely omit tax lines even when tax is baked into the
// claimed total; without the inference every such bill would fail.
func Reconcile(items []LineItem, taxes TaxSet, discount, claimedTotal float64) Reconciliation {
	subtotal := 0.0
	for _, item := range items {
		subtotal += item.Price
	}
	if subtotal < 0 {
		subtotal = 0
	}

	itemizedTax := taxes.GST + taxes.CGST + taxes.SGST + taxes.IGST + taxes.Other
	if itemizedTax < 0 {
		itemizedTax = 0
	}

	effectiveTax := itemizedTax
	taxInferred := false
	// The trigger is exact zero, not "small": a bill with any itemized tax
	// at all is taken at its word.
	if itemizedTax == 0 && subtotal > 0 {
		if inferred := claimedTotal - subtotal; inferred > 0 {
			effectiveTax = inferred
			taxInferred = true
		} else {
			effectiveTax = 0
		}
	}

	reconciledTotal := subtotal + effectiveTax - discount

	// The band is anchored on the claimed total: that is the ground truth
	// being tested. A 2-unit floor keeps small bills from being judged by
	// a sub-rupee band.
	tolerance := max(2, 0.02*claimedTotal)

	verdict := VerdictFailed
	if reconciledTotal >= 0 && math.Abs(claimedTotal-reconciledTotal) <= tolerance {
		verdict = VerdictPassed
	}

	return Reconciliation{
		Subtotal:        subtotal,
		EffectiveTax:    effectiveTax,
		Discount:        discount,
		ReconciledTotal: reconciledTotal,
		ClaimedTotal:    claimedTotal,
		Tolerance:       tolerance,
		Verdict:         verdict,
		TaxInferred:     taxInferred,
		ItemsPresent:    len(items) > 0,
	}
}
