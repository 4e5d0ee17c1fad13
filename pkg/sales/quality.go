package sales

import (
	"fmt"
	"time"

	"datamesh/pkg/product"
)

// UniquenessCheck summarizes primary-key uniqueness over the stored records.
type UniquenessCheck struct {
	Rate       string `json:"rate"`
	Duplicates int    `json:"duplicates"`
	MeetsSLA   bool   `json:"meets_sla"`
}

// ValidityCheck summarizes per-field value validity.
type ValidityCheck struct {
	Rate     string `json:"rate"`
	Invalid  int    `json:"invalid"`
	MeetsSLA bool   `json:"meets_sla"`
}

// QualityReport is the sales data-quality summary. Rates are percentages
// formatted with one decimal place; SLA flags compare computed rates against
// the declared targets.
type QualityReport struct {
	Product               string            `json:"data_product"`
	Version               string            `json:"version"`
	GeneratedAt           time.Time         `json:"generated_at"`
	RecordCount           int               `json:"record_count"`
	FieldCompleteness     map[string]string `json:"field_completeness"`
	TransactionUniqueness UniquenessCheck   `json:"transaction_id_uniqueness"`
	AmountValidity        ValidityCheck     `json:"amount_validity"`
	DateValidity          ValidityCheck     `json:"date_validity"`
	MeetsCompletenessSLA  bool              `json:"meets_completeness_sla"`
	MeetsAccuracySLA      bool              `json:"meets_accuracy_sla"`
}

// QualityReport computes completeness, uniqueness, and validity rates over
// the current records. An empty product reports 100% on every check.
func (p *Product) QualityReport() QualityReport {
	snap := p.Snapshot()
	sla := p.store.SLA()
	total := len(snap.Records)

	report := QualityReport{
		Product:           snap.Metadata.Name,
		Version:           snap.Metadata.Version,
		GeneratedAt:       p.agg.nowFn(),
		RecordCount:       total,
		FieldCompleteness: map[string]string{},
	}

	minCompleteness := 100.0
	for _, field := range snap.Schema.FieldNames() {
		populated := 0
		for _, rec := range snap.Records {
			if value, ok := rec[field]; ok && value != nil && value != "" {
				populated++
			}
		}
		rate := percentage(populated, total)
		report.FieldCompleteness[field] = formatRate(rate)
		if rate < minCompleteness {
			minCompleteness = rate
		}
	}

	seen := map[string]bool{}
	duplicates := 0
	invalidAmounts := 0
	invalidDates := 0
	for _, rec := range snap.Records {
		if id, ok := rec["transaction_id"].(string); ok {
			if seen[id] {
				duplicates++
			}
			seen[id] = true
		}
		if amount, ok := product.NumericValue(rec["amount"]); !ok || amount <= 0 {
			invalidAmounts++
		}
		if date, ok := rec["date"].(string); !ok {
			invalidDates++
		} else if _, err := time.Parse(DateLayout, date); err != nil {
			invalidDates++
		}
	}

	uniqueRate := percentage(total-duplicates, total)
	amountRate := percentage(total-invalidAmounts, total)
	dateRate := percentage(total-invalidDates, total)

	report.TransactionUniqueness = UniquenessCheck{
		Rate:       formatRate(uniqueRate),
		Duplicates: duplicates,
		MeetsSLA:   uniqueRate >= sla.Accuracy,
	}
	report.AmountValidity = ValidityCheck{
		Rate:     formatRate(amountRate),
		Invalid:  invalidAmounts,
		MeetsSLA: amountRate >= sla.Accuracy,
	}
	report.DateValidity = ValidityCheck{
		Rate:     formatRate(dateRate),
		Invalid:  invalidDates,
		MeetsSLA: dateRate >= sla.Accuracy,
	}
	report.MeetsCompletenessSLA = minCompleteness >= sla.Completeness
	report.MeetsAccuracySLA = report.TransactionUniqueness.MeetsSLA &&
		report.AmountValidity.MeetsSLA && report.DateValidity.MeetsSLA
	return report
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(part) / float64(total) * 100
}

func formatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}
