// Package core implements the validated record store behind every data
// product: schema-checked mutation, exact-match retrieval, access auditing,
// publish gating, and the metrics/lineage reports.
//
// The store is synchronous and single-owner. It performs no internal locking;
// callers that share a store across goroutines must serialize access
// themselves.
package core

import (
	"context"
	"fmt"
	"time"

	"datamesh/pkg/product"
)

const ruleFilters = "filters"

// Aggregator recomputes derived figures after each successful mutation.
// Domain specializations plug their aggregate strategy in through this hook
// instead of overriding store operations.
type Aggregator interface {
	Recompute(records []product.Record)
}

// Store is a schema-validated, insertion-ordered record store with an
// append-only access log. Metadata, schema, and SLA are fixed at
// construction.
type Store struct {
	meta   product.Metadata
	schema product.Schema
	sla    product.SLA

	records    []product.Record
	accessLog  []product.AccessEntry
	upstream   []string
	downstream []string

	rules    *product.RuleSet
	agg      Aggregator
	recorder MetricsRecorder
	nowFn    func() time.Time
}

// Option customizes store construction.
type Option func(*Store)

// WithRuleSet installs the domain rule set evaluated on every Add.
func WithRuleSet(rules *product.RuleSet) Option {
	return func(s *Store) { s.rules = rules }
}

// WithAggregator installs the aggregate-recompute hook invoked after each
// successful mutation.
func WithAggregator(agg Aggregator) Option {
	return func(s *Store) { s.agg = agg }
}

// WithMetricsRecorder installs an operation metrics sink.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Store) { s.recorder = rec }
}

// WithNow overrides the time source used for audit timestamps and metadata
// updates. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *Store) { s.nowFn = now }
}

// New constructs a store from its immutable descriptors. The schema and
// metadata are cloned; later mutation of the caller's copies has no effect.
func New(meta product.Metadata, schema product.Schema, sla product.SLA, opts ...Option) *Store {
	s := &Store{
		meta:   meta.Clone(),
		schema: schema.Clone(),
		sla:    sla,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.meta.CreatedAt.IsZero() {
		s.meta.CreatedAt = s.nowFn()
	}
	if s.meta.UpdatedAt.IsZero() {
		s.meta.UpdatedAt = s.meta.CreatedAt
	}
	return s
}

// Metadata returns a copy of the product metadata.
func (s *Store) Metadata() product.Metadata { return s.meta.Clone() }

// Schema returns a copy of the product schema.
func (s *Store) Schema() product.Schema { return s.schema.Clone() }

// SLA returns the declared service-level targets.
func (s *Store) SLA() product.SLA { return s.sla }

// Len reports the number of stored records.
func (s *Store) Len() int { return len(s.records) }

// view adapts the store to product.RecordView for rule evaluation. Rules see
// the live sequence read-only; they must not retain or mutate it.
type view struct{ s *Store }

func (v view) Records() []product.Record { return v.s.records }
func (v view) Schema() product.Schema    { return v.s.schema }
func (v view) Len() int                  { return len(v.s.records) }

// Add validates the candidate against the schema and the rule set, and
// appends a copy when no blocking violation is found. Rejections return
// product.RuleViolationError carrying the full result. Add is not recorded in
// the access log.
func (s *Store) Add(ctx context.Context, rec product.Record) (product.Result, error) {
	start := s.nowFn()
	var result product.Result
	result.Merge(product.Result{Violations: s.schema.Validate(rec)})

	if s.rules != nil {
		ruleResult, err := s.rules.Evaluate(ctx, view{s}, rec)
		if err != nil {
			s.observe("add", outcomeError, start)
			return product.Result{}, fmt.Errorf("evaluate rules: %w", err)
		}
		result.Merge(ruleResult)
	}

	if result.HasBlocking() {
		s.observe("add", outcomeRejected, start)
		return result, product.RuleViolationError{Result: result}
	}

	s.records = append(s.records, rec.Clone())
	s.meta.UpdatedAt = s.nowFn()
	s.recompute()
	s.observe("add", outcomeSuccess, start)
	return result, nil
}

// Query returns copies of all records matching the filters, in insertion
// order. Empty or nil filters return the full sequence. Every call appends
// one access-log entry.
func (s *Store) Query(filters product.Filters) []product.Record {
	start := s.nowFn()
	out := make([]product.Record, 0, len(s.records))
	for _, rec := range s.records {
		if filters.Matches(rec) {
			out = append(out, rec.Clone())
		}
	}
	s.logAccess(product.OperationQuery, filters)
	s.observe("query", outcomeSuccess, start)
	return out
}

// Update merges patch into every record matching the filters. Empty filters
// are rejected with zero effect, as is any patch whose schema-declared fields
// carry the wrong type: the call is atomic, either every matching record is
// patched or none is. Returns the number of patched records. An access-log
// entry is appended only when at least one record changed.
func (s *Store) Update(ctx context.Context, filters product.Filters, patch product.Record) (int, product.Result, error) {
	_ = ctx
	start := s.nowFn()
	if len(filters) == 0 {
		res := emptyFiltersResult("update")
		s.observe("update", outcomeRejected, start)
		return 0, res, nil
	}

	var result product.Result
	for _, name := range s.schema.FieldNames() {
		value, ok := patch[name]
		if !ok {
			continue
		}
		if v := s.schema.CheckField(name, value); v != nil {
			result.Merge(product.Result{Violations: []product.Violation{*v}})
		}
	}
	if result.HasBlocking() {
		s.observe("update", outcomeRejected, start)
		return 0, result, nil
	}

	count := 0
	for _, rec := range s.records {
		if !filters.Matches(rec) {
			continue
		}
		// Each record gets its own copy; stored rows must not alias the
		// caller's patch or each other.
		for k, v := range patch {
			rec[k] = product.CloneValue(v)
		}
		count++
	}
	if count > 0 {
		s.meta.UpdatedAt = s.nowFn()
		s.logAccess(product.OperationUpdate, filters)
		s.recompute()
	}
	s.observe("update", outcomeSuccess, start)
	return count, result, nil
}

// Remove deletes every record matching the filters and returns the removal
// count. Empty filters are rejected with zero effect. An access-log entry is
// appended only when at least one record was removed.
func (s *Store) Remove(ctx context.Context, filters product.Filters) (int, product.Result) {
	_ = ctx
	start := s.nowFn()
	if len(filters) == 0 {
		res := emptyFiltersResult("remove")
		s.observe("remove", outcomeRejected, start)
		return 0, res
	}

	kept := s.records[:0]
	count := 0
	for _, rec := range s.records {
		if filters.Matches(rec) {
			count++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	if count > 0 {
		s.meta.UpdatedAt = s.nowFn()
		s.logAccess(product.OperationRemove, filters)
		s.recompute()
	}
	s.observe("remove", outcomeSuccess, start)
	return count, product.Result{}
}

// Publish transitions the product to the published state after checking its
// readiness: name, version, domain, and owner must be set and the schema must
// declare at least one field. The first unmet requirement blocks the
// transition. Publishing bronze-quality data succeeds with a warning.
func (s *Store) Publish(ctx context.Context) (product.Result, error) {
	_ = ctx
	start := s.nowFn()
	checks := []struct {
		ok      bool
		message string
	}{
		{s.meta.Name != "", "product name is required"},
		{s.meta.Version != "", "product version is required"},
		{s.meta.Domain != "", "product domain is required"},
		{s.meta.Owner != "", "product owner is required"},
		{len(s.schema.Fields) > 0, "schema must declare at least one field"},
	}
	for _, c := range checks {
		if c.ok {
			continue
		}
		result := product.Result{Violations: []product.Violation{{
			Rule:     "publish",
			Severity: product.SeverityBlock,
			Message:  c.message,
		}}}
		s.observe("publish", outcomeRejected, start)
		return result, product.RuleViolationError{Result: result}
	}

	var result product.Result
	if s.meta.QualityLevel == product.QualityBronze {
		result.Merge(product.Result{Violations: []product.Violation{{
			Rule:     "publish",
			Severity: product.SeverityWarn,
			Message:  "publishing bronze-quality data",
		}}})
	}
	s.meta.Status = product.StatusPublished
	s.meta.UpdatedAt = s.nowFn()
	s.observe("publish", outcomeSuccess, start)
	return result, nil
}

// AccessLog returns a copy of the audit trail in append order.
func (s *Store) AccessLog() []product.AccessEntry {
	return product.CloneAccessEntries(s.accessLog)
}

// RegisterUpstream declares a producing data product this one consumes from.
func (s *Store) RegisterUpstream(name string) {
	s.upstream = append(s.upstream, name)
}

// RegisterDownstream declares a consuming data product fed by this one.
func (s *Store) RegisterDownstream(name string) {
	s.downstream = append(s.downstream, name)
}

func (s *Store) logAccess(op product.Operation, params product.Filters) {
	s.accessLog = append(s.accessLog, product.AccessEntry{
		Timestamp: s.nowFn(),
		Operation: op,
		Params:    params.Clone(),
		Product:   s.meta.Name,
		Version:   s.meta.Version,
	})
}

func (s *Store) recompute() {
	if s.agg != nil {
		s.agg.Recompute(s.records)
	}
}

func (s *Store) observe(op, outcome string, start time.Time) {
	if s.recorder == nil {
		return
	}
	s.recorder.ObserveOperation(op, outcome, s.nowFn().Sub(start))
}

func emptyFiltersResult(op string) product.Result {
	return product.Result{Violations: []product.Violation{{
		Rule:     ruleFilters,
		Severity: product.SeverityBlock,
		Message:  fmt.Sprintf("%s requires at least one filter", op),
	}}}
}
