package bill

import "sort"

// SummarizeByCategory aggregates claimed totals per category across dated
// bills, largest spend first. Undated bills are excluded: without a date a
// bill cannot be placed in any spending period, so counting it would skew
// the totals against the dated history.
func SummarizeByCategory(records []*BillRecord) []CategorySpend {
	totals := make(map[string]*CategorySpend)
	for _, record := range records {
		if record.Date == "" {
			continue
		}
		spend, ok := totals[record.Category]
		if !ok {
			spend = &CategorySpend{Category: record.Category}
			totals[record.Category] = spend
		}
		spend.Total += record.Total
		spend.Bills++
	}

	summary := make([]CategorySpend, 0, len(totals))
	for _, spend := range totals {
		summary = append(summary, *spend)
	}
	sort.Slice(summary, func(i, j int) bool {
		if summary[i].Total != summary[j].Total {
			return summary[i].Total > summary[j].Total
		}
		return summary[i].Category < summary[j].Category
	})
	return summary
}

// CompletenessReport flags which key fields of each bill carry usable
// values. A bill is indexed when its merchant is known, it has a date and
// its claimed total is positive.
func CompletenessReport(records []*BillRecord) []FieldStatus {
	report := make([]FieldStatus, 0, len(records))
	for _, record := range records {
		status := FieldStatus{
			BillID:   record.ID,
			Merchant: record.Merchant != "" && record.Merchant != "Unknown",
			Date:     record.Date != "",
			Total:    record.Total > 0,
		}
		status.Indexed = status.Merchant && status.Date && status.Total
		report = append(report, status)
	}
	return report
}
