// Package sales provides the sales-transaction data product: a validated
// record store specialized with transaction rules, eagerly maintained revenue
// aggregates, and a data-quality report.
package sales

import (
	"context"
	"time"

	"datamesh/internal/core"
	"datamesh/pkg/product"
)

// DateLayout is the accepted transaction date format.
const DateLayout = "2006-01-02"

// Product is the sales data product. It composes the generic store with the
// sales rule set and aggregate strategy.
type Product struct {
	store *core.Store
	agg   *aggregator
}

type config struct {
	domain      string
	version     string
	description string
	recorder    core.MetricsRecorder
	nowFn       func() time.Time
}

// Option customizes product construction.
type Option func(*config)

// WithDomain overrides the default "sales" domain.
func WithDomain(domain string) Option {
	return func(c *config) { c.domain = domain }
}

// WithVersion overrides the default product version.
func WithVersion(version string) Option {
	return func(c *config) { c.version = version }
}

// WithDescription overrides the product description.
func WithDescription(desc string) Option {
	return func(c *config) { c.description = desc }
}

// WithMetricsRecorder installs an operation metrics sink on the store.
func WithMetricsRecorder(rec core.MetricsRecorder) Option {
	return func(c *config) { c.recorder = rec }
}

// WithNow overrides the time source. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(c *config) { c.nowFn = now }
}

// New constructs a sales data product owned by the given team.
func New(name, owner string, opts ...Option) *Product {
	cfg := config{
		domain:      "sales",
		version:     "1.0.0",
		description: "Sales transaction records with revenue aggregates",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	meta := product.Metadata{
		Name:         name,
		Version:      cfg.version,
		Domain:       cfg.domain,
		Owner:        owner,
		Description:  cfg.description,
		Tags:         []string{"sales", "transactions"},
		Status:       product.StatusDraft,
		QualityLevel: product.QualitySilver,
	}
	schema := product.Schema{
		Fields: map[string]product.FieldType{
			"transaction_id":   product.FieldString,
			"product_id":       product.FieldString,
			"customer_id":      product.FieldString,
			"amount":           product.FieldFloat,
			"date":             product.FieldString,
			"product_category": product.FieldString,
			"region":           product.FieldString,
		},
		PrimaryKey: "transaction_id",
		Indexes:    []string{"product_id", "customer_id", "date"},
	}
	sla := product.SLA{Availability: 99.9, Freshness: 60, Completeness: 99.0, Accuracy: 99.0}

	rules := product.NewRuleSet()
	rules.Register(dateFormatRule{})
	rules.Register(positiveAmountRule{})
	rules.Register(uniqueTransactionRule{})

	agg := &aggregator{nowFn: cfg.nowFn}
	if agg.nowFn == nil {
		agg.nowFn = func() time.Time { return time.Now().UTC() }
	}

	coreOpts := []core.Option{core.WithRuleSet(rules), core.WithAggregator(agg)}
	if cfg.recorder != nil {
		coreOpts = append(coreOpts, core.WithMetricsRecorder(cfg.recorder))
	}
	if cfg.nowFn != nil {
		coreOpts = append(coreOpts, core.WithNow(cfg.nowFn))
	}

	agg.Recompute(nil)
	return &Product{store: core.New(meta, schema, sla, coreOpts...), agg: agg}
}

// Add validates and appends a transaction record.
func (p *Product) Add(ctx context.Context, rec product.Record) (product.Result, error) {
	return p.store.Add(ctx, rec)
}

// Query returns transactions matching the filters in insertion order.
func (p *Product) Query(filters product.Filters) []product.Record {
	return p.store.Query(filters)
}

// Update patches transactions matching the filters.
func (p *Product) Update(ctx context.Context, filters product.Filters, patch product.Record) (int, product.Result, error) {
	return p.store.Update(ctx, filters, patch)
}

// Remove deletes transactions matching the filters.
func (p *Product) Remove(ctx context.Context, filters product.Filters) (int, product.Result) {
	return p.store.Remove(ctx, filters)
}

// Publish transitions the product to the published state.
func (p *Product) Publish(ctx context.Context) (product.Result, error) {
	return p.store.Publish(ctx)
}

// Metrics reports store-level operational metrics.
func (p *Product) Metrics() core.MetricsReport { return p.store.Metrics() }

// Lineage reports the product's registered data flow.
func (p *Product) Lineage() core.LineageReport { return p.store.Lineage() }

// AccessLog returns the audit trail.
func (p *Product) AccessLog() []product.AccessEntry { return p.store.AccessLog() }

// Snapshot captures the current product state for export or archiving.
func (p *Product) Snapshot() core.Snapshot { return p.store.Snapshot() }

// Metadata returns a copy of the product metadata.
func (p *Product) Metadata() product.Metadata { return p.store.Metadata() }

// Schema returns a copy of the product schema.
func (p *Product) Schema() product.Schema { return p.store.Schema() }

// RegisterUpstream declares a producing data product this one consumes from.
func (p *Product) RegisterUpstream(name string) { p.store.RegisterUpstream(name) }

// RegisterDownstream declares a consuming data product fed by this one.
func (p *Product) RegisterDownstream(name string) { p.store.RegisterDownstream(name) }

// SalesMetrics returns the current revenue aggregates. Figures are recomputed
// eagerly after every successful mutation.
func (p *Product) SalesMetrics() Metrics { return p.agg.metrics() }

// ByCategory returns the transactions in the given product category.
// The lookup is access-logged like any other query.
func (p *Product) ByCategory(category string) []product.Record {
	return p.store.Query(product.Filters{"product_category": category})
}

// ByRegion returns the transactions recorded in the given region.
func (p *Product) ByRegion(region string) []product.Record {
	return p.store.Query(product.Filters{"region": region})
}
