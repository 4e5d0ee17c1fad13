package core

import (
	"fmt"
	"time"

	"datamesh/pkg/product"
)

// SLADisplay renders service-level targets as human-readable strings for
// metrics reports.
type SLADisplay struct {
	Availability string `json:"availability"`
	Freshness    string `json:"freshness"`
	Completeness string `json:"completeness"`
	Accuracy     string `json:"accuracy"`
}

// MetricsReport is the operational summary returned by Store.Metrics.
type MetricsReport struct {
	Product      string               `json:"data_product"`
	Version      string               `json:"version"`
	RecordCount  int                  `json:"record_count"`
	AccessCount  int                  `json:"access_count"`
	Status       product.Status       `json:"status"`
	QualityLevel product.QualityLevel `json:"quality_level"`
	SLA          SLADisplay           `json:"sla"`
}

// LineageReport describes the identity and declared data flow of a product.
type LineageReport struct {
	Product    string   `json:"data_product"`
	Version    string   `json:"version"`
	Domain     string   `json:"domain"`
	Owner      string   `json:"owner"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	Upstream   []string `json:"upstream"`
	Downstream []string `json:"downstream"`
}

// Metrics reports record and access counts alongside lifecycle state and SLA
// targets. Reading metrics is not an access-logged operation.
func (s *Store) Metrics() MetricsReport {
	return MetricsReport{
		Product:      s.meta.Name,
		Version:      s.meta.Version,
		RecordCount:  len(s.records),
		AccessCount:  len(s.accessLog),
		Status:       s.meta.Status,
		QualityLevel: s.meta.QualityLevel,
		SLA: SLADisplay{
			Availability: fmt.Sprintf("%g%%", s.sla.Availability),
			Freshness:    fmt.Sprintf("%d min", s.sla.Freshness),
			Completeness: fmt.Sprintf("%g%%", s.sla.Completeness),
			Accuracy:     fmt.Sprintf("%g%%", s.sla.Accuracy),
		},
	}
}

// Lineage reports the product identity, lifecycle timestamps, and registered
// upstream/downstream products. Lists are empty unless populated through
// RegisterUpstream and RegisterDownstream.
func (s *Store) Lineage() LineageReport {
	return LineageReport{
		Product:    s.meta.Name,
		Version:    s.meta.Version,
		Domain:     s.meta.Domain,
		Owner:      s.meta.Owner,
		CreatedAt:  s.meta.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  s.meta.UpdatedAt.UTC().Format(time.RFC3339),
		Upstream:   append([]string{}, s.upstream...),
		Downstream: append([]string{}, s.downstream...),
	}
}

// Snapshot is a point-in-time copy of a store suitable for export and
// archiving. It shares nothing with the live store.
type Snapshot struct {
	Metadata  product.Metadata      `json:"metadata"`
	Schema    product.Schema        `json:"schema"`
	SLA       product.SLA           `json:"sla"`
	Records   []product.Record      `json:"records"`
	AccessLog []product.AccessEntry `json:"access_log,omitempty"`
}

// Snapshot captures the current state of the store.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Metadata:  s.meta.Clone(),
		Schema:    s.schema.Clone(),
		SLA:       s.sla,
		Records:   product.CloneRecords(s.records),
		AccessLog: product.CloneAccessEntries(s.accessLog),
	}
}
