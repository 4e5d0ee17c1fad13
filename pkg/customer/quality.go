package customer

import (
	"fmt"
	"time"

	"datamesh/pkg/product"
)

// UniquenessCheck summarizes primary-key uniqueness over the stored profiles.
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

// QualityReport is the customer data-quality summary.
type QualityReport struct {
	Product               string            `json:"data_product"`
	Version               string            `json:"version"`
	GeneratedAt           time.Time         `json:"generated_at"`
	RecordCount           int               `json:"record_count"`
	FieldCompleteness     map[string]string `json:"field_completeness"`
	CustomerUniqueness    UniquenessCheck   `json:"customer_id_uniqueness"`
	EmailValidity         ValidityCheck     `json:"email_validity"`
	LifetimeValueValidity ValidityCheck     `json:"lifetime_value_validity"`
	MeetsCompletenessSLA  bool              `json:"meets_completeness_sla"`
	MeetsAccuracySLA      bool              `json:"meets_accuracy_sla"`
}

// QualityReport computes completeness, uniqueness, and validity rates over
// the current profiles. An empty product reports 100% on every check.
func (p *Product) QualityReport() QualityReport {
	snap := p.store.Snapshot()
	sla := p.store.SLA()
	total := len(snap.Records)

	report := QualityReport{
		Product:           snap.Metadata.Name,
		Version:           snap.Metadata.Version,
		GeneratedAt:       p.nowFn(),
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
	invalidEmails := 0
	invalidLTVs := 0
	for _, rec := range snap.Records {
		if id, ok := rec["customer_id"].(string); ok {
			if seen[id] {
				duplicates++
			}
			seen[id] = true
		}
		if email, ok := rec["email"].(string); !ok || !emailPattern.MatchString(email) {
			invalidEmails++
		}
		if ltv, ok := product.NumericValue(rec["lifetime_value"]); !ok || ltv < 0 {
			invalidLTVs++
		}
	}

	uniqueRate := percentage(total-duplicates, total)
	emailRate := percentage(total-invalidEmails, total)
	ltvRate := percentage(total-invalidLTVs, total)

	report.CustomerUniqueness = UniquenessCheck{
		Rate:       formatRate(uniqueRate),
		Duplicates: duplicates,
		MeetsSLA:   uniqueRate >= sla.Accuracy,
	}
	report.EmailValidity = ValidityCheck{
		Rate:     formatRate(emailRate),
		Invalid:  invalidEmails,
		MeetsSLA: emailRate >= sla.Accuracy,
	}
	report.LifetimeValueValidity = ValidityCheck{
		Rate:     formatRate(ltvRate),
		Invalid:  invalidLTVs,
		MeetsSLA: ltvRate >= sla.Accuracy,
	}
	report.MeetsCompletenessSLA = minCompleteness >= sla.Completeness
	report.MeetsAccuracySLA = report.CustomerUniqueness.MeetsSLA &&
		report.EmailValidity.MeetsSLA && report.LifetimeValueValidity.MeetsSLA
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
