// Package customer provides the customer-profile data product: a validated
// record store specialized with profile rules, named customer segments with
// explicit refresh, and demographic and data-quality reports.
package customer

import (
	"context"
	"time"

	"datamesh/internal/core"
	"datamesh/pkg/product"
)

// Accepted date formats for customer records.
const (
	RegistrationDateLayout = "2006-01-02"
	InteractionLayout      = "2006-01-02 15:04:05"
)

// Product is the customer data product. Profiles may carry an optional
// last_interaction field beyond the required schema.
type Product struct {
	store    *core.Store
	gen      *generation
	segments map[string]*segment
	nowFn    func() time.Time
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

// WithDomain overrides the default "customer" domain.
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

// generation counts effective mutations so segments can report staleness
// without re-evaluating their predicates.
type generation struct{ n uint64 }

func (g *generation) Recompute([]product.Record) { g.n++ }

// New constructs a customer data product owned by the given team.
func New(name, owner string, opts ...Option) *Product {
	cfg := config{
		domain:      "customer",
		version:     "1.0.0",
		description: "Customer profiles with segmentation and demographics",
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
		Tags:         []string{"customer", "profiles"},
		Status:       product.StatusDraft,
		QualityLevel: product.QualitySilver,
	}
	schema := product.Schema{
		Fields: map[string]product.FieldType{
			"customer_id":       product.FieldString,
			"name":              product.FieldString,
			"email":             product.FieldString,
			"registration_date": product.FieldString,
			"lifetime_value":    product.FieldFloat,
			"tier":              product.FieldString,
		},
		PrimaryKey: "customer_id",
		Indexes:    []string{"email", "tier"},
	}
	sla := product.SLA{Availability: 99.9, Freshness: 5, Completeness: 99.5, Accuracy: 99.5}

	rules := product.NewRuleSet()
	rules.Register(emailFormatRule{})
	rules.Register(registrationDateRule{})
	rules.Register(interactionDateRule{})
	rules.Register(lifetimeValueRule{})
	rules.Register(uniqueCustomerRule{})

	gen := &generation{}
	coreOpts := []core.Option{core.WithRuleSet(rules), core.WithAggregator(gen)}
	if cfg.recorder != nil {
		coreOpts = append(coreOpts, core.WithMetricsRecorder(cfg.recorder))
	}
	if cfg.nowFn != nil {
		coreOpts = append(coreOpts, core.WithNow(cfg.nowFn))
	}
	nowFn := cfg.nowFn
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	return &Product{
		store:    core.New(meta, schema, sla, coreOpts...),
		gen:      gen,
		segments: map[string]*segment{},
		nowFn:    nowFn,
	}
}

// Add validates and appends a customer profile.
func (p *Product) Add(ctx context.Context, rec product.Record) (product.Result, error) {
	return p.store.Add(ctx, rec)
}

// Query returns profiles matching the filters in insertion order.
func (p *Product) Query(filters product.Filters) []product.Record {
	return p.store.Query(filters)
}

// Update patches profiles matching the filters.
func (p *Product) Update(ctx context.Context, filters product.Filters, patch product.Record) (int, product.Result, error) {
	return p.store.Update(ctx, filters, patch)
}

// Remove deletes profiles matching the filters.
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

// Demographics counts customers per tier. Profiles without a usable tier
// value are bucketed under "Unknown".
func (p *Product) Demographics() map[string]int {
	out := map[string]int{}
	for _, rec := range p.store.Snapshot().Records {
		tier, ok := rec["tier"].(string)
		if !ok || tier == "" {
			tier = "Unknown"
		}
		out[tier]++
	}
	return out
}
