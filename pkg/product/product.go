// Package product defines the value objects, schema declarations, and rule
// evaluation primitives shared by data product implementations.
package product

import "time"

// Status identifies the lifecycle state of a data product.
type Status string

// Data product lifecycle states. Any transition is permitted; progression is
// descriptive, not enforced.
const (
	// StatusDraft marks a product still under development.
	StatusDraft Status = "draft"
	// StatusPublished marks a product available for consumption.
	StatusPublished Status = "published"
	// StatusDeprecated marks a product discouraged but still served.
	StatusDeprecated Status = "deprecated"
	StatusArchived   Status = "archived"
)

// QualityLevel describes data processing maturity. It is informational and
// never gates behavior beyond a non-blocking warning at publish time.
type QualityLevel string

// Quality tiers ordered by maturity.
const (
	// QualityBronze identifies raw, unprocessed data.
	QualityBronze QualityLevel = "bronze"
	// QualitySilver identifies cleaned and validated data.
	QualitySilver QualityLevel = "silver"
	QualityGold   QualityLevel = "gold"
)

// Metadata captures the identity and lifecycle state of a data product.
type Metadata struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Domain       string       `json:"domain"`
	Owner        string       `json:"owner"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	Status       Status       `json:"status"`
	QualityLevel QualityLevel `json:"quality_level"`
}

// Clone returns a deep copy of the metadata.
func (m Metadata) Clone() Metadata {
	cp := m
	if m.Tags != nil {
		cp.Tags = append([]string(nil), m.Tags...)
	}
	return cp
}

// SLA declares descriptive service-level targets. Targets are compared
// against computed rates in quality reports but never enforced: no record is
// rejected for violating an SLA.
type SLA struct {
	// Availability is a percentage, e.g. 99.9.
	Availability float64 `json:"availability"`
	// Freshness is the maximum update latency in minutes.
	Freshness int `json:"freshness"`
	// Completeness is the target percentage of populated fields.
	Completeness float64 `json:"completeness"`
	// Accuracy is the target percentage of valid values.
	Accuracy float64 `json:"accuracy"`
}
