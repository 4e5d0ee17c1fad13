package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"datamesh/pkg/product"
)

func newTestProduct(t *testing.T) *Product {
	t.Helper()
	return New("customer-profiles", "crm-team@example.com")
}

func profile(id, email string, ltv float64) product.Record {
	return product.Record{
		"customer_id":       id,
		"name":              "Customer " + id,
		"email":             email,
		"registration_date": "2025-11-20",
		"lifetime_value":    ltv,
		"tier":              "silver",
	}
}

func mustAdd(t *testing.T, p *Product, rec product.Record) {
	t.Helper()
	if _, err := p.Add(context.Background(), rec); err != nil {
		t.Fatalf("add %v: %v", rec["customer_id"], err)
	}
}

func TestEmailValidation(t *testing.T) {
	p := newTestProduct(t)
	valid := []string{"a@b.co", "first.last@example.org", "x+tag@sub.domain.io"}
	for i, email := range valid {
		rec := profile(string(rune('A'+i)), email, 10)
		if _, err := p.Add(context.Background(), rec); err != nil {
			t.Fatalf("valid email %q rejected: %v", email, err)
		}
	}

	invalid := []string{"plain", "no-at.example.com", "two@@signs.com", "a@b@c.com", "missing@dot", "@example.com"}
	for i, email := range invalid {
		rec := profile(string(rune('a'+i)), email, 10)
		_, err := p.Add(context.Background(), rec)
		var rve product.RuleViolationError
		if !errors.As(err, &rve) {
			t.Fatalf("invalid email %q accepted", email)
		}
	}
	if p.Metrics().RecordCount != len(valid) {
		t.Fatalf("expected %d stored profiles, got %d", len(valid), p.Metrics().RecordCount)
	}
}

func TestRegistrationDateValidation(t *testing.T) {
	p := newTestProduct(t)
	rec := profile("C1", "c1@example.com", 10)
	rec["registration_date"] = "20/11/2025"
	if _, err := p.Add(context.Background(), rec); err == nil {
		t.Fatal("malformed registration_date accepted")
	}
}

func TestLastInteractionOptionalButValidated(t *testing.T) {
	p := newTestProduct(t)
	mustAdd(t, p, profile("C1", "c1@example.com", 10))

	withInteraction := profile("C2", "c2@example.com", 20)
	withInteraction["last_interaction"] = "2026-04-01 14:30:00"
	mustAdd(t, p, withInteraction)

	malformed := profile("C3", "c3@example.com", 30)
	malformed["last_interaction"] = "2026-04-01"
	if _, err := p.Add(context.Background(), malformed); err == nil {
		t.Fatal("malformed last_interaction accepted")
	}
}

func TestTierRequiredOnAdd(t *testing.T) {
	p := newTestProduct(t)
	rec := profile("C1", "c1@example.com", 10)
	delete(rec, "tier")

	_, err := p.Add(context.Background(), rec)
	var rve product.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("profile without tier accepted: %v", err)
	}
	if p.Metrics().RecordCount != 0 {
		t.Fatal("rejected profile must not be stored")
	}

	rec["tier"] = "gold"
	mustAdd(t, p, rec)
}

func TestNegativeLifetimeValueRejected(t *testing.T) {
	p := newTestProduct(t)
	if _, err := p.Add(context.Background(), profile("C1", "c1@example.com", -1)); err == nil {
		t.Fatal("negative lifetime_value accepted")
	}
	mustAdd(t, p, profile("C2", "c2@example.com", 0))
}

func TestDuplicateCustomerIDRejected(t *testing.T) {
	p := newTestProduct(t)
	mustAdd(t, p, profile("C1", "c1@example.com", 10))
	if _, err := p.Add(context.Background(), profile("C1", "other@example.com", 20)); err == nil {
		t.Fatal("duplicate customer_id accepted")
	}
}

func highValue(rec product.Record) bool {
	ltv, _ := product.NumericValue(rec["lifetime_value"])
	return ltv >= 100
}

func TestSegmentsAreSnapshotsUntilRefreshed(t *testing.T) {
	p := newTestProduct(t)
	mustAdd(t, p, profile("C1", "c1@example.com", 150))
	mustAdd(t, p, profile("C2", "c2@example.com", 50))

	members, err := p.CreateSegment("high-value", highValue)
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	if len(members) != 1 || members[0] != "C1" {
		t.Fatalf("unexpected members %v", members)
	}

	// A later qualifying customer must not appear until refresh.
	mustAdd(t, p, profile("C3", "c3@example.com", 300))
	cached, ok := p.Segment("high-value")
	if !ok || len(cached) != 1 {
		t.Fatalf("segment must stay a snapshot, got %v", cached)
	}
	stats := p.SegmentStatistics()
	if !stats["high-value"].Stale {
		t.Fatalf("mutated store must mark segment stale: %+v", stats)
	}

	refreshed, err := p.RefreshSegment("high-value")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(refreshed) != 2 || refreshed[0] != "C1" || refreshed[1] != "C3" {
		t.Fatalf("unexpected refreshed members %v", refreshed)
	}
	if stats := p.SegmentStatistics(); stats["high-value"].Stale {
		t.Fatal("freshly refreshed segment must not be stale")
	}
}

func TestRefreshSegmentUnknownName(t *testing.T) {
	p := newTestProduct(t)
	if _, err := p.RefreshSegment("missing"); err == nil {
		t.Fatal("expected error for unknown segment")
	}
}

func TestRefreshAllSegments(t *testing.T) {
	p := newTestProduct(t)
	mustAdd(t, p, profile("C1", "c1@example.com", 150))
	if _, err := p.CreateSegment("high-value", highValue); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := p.CreateSegment("all", func(product.Record) bool { return true }); err != nil {
		t.Fatalf("create: %v", err)
	}

	mustAdd(t, p, profile("C2", "c2@example.com", 200))
	p.RefreshAllSegments()
	for name, stats := range p.SegmentStatistics() {
		if stats.Stale {
			t.Fatalf("segment %q still stale after RefreshAllSegments", name)
		}
	}
	all, _ := p.Segment("all")
	if len(all) != 2 {
		t.Fatalf("unexpected membership %v", all)
	}
	if names := p.SegmentNames(); len(names) != 2 || names[0] != "all" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestCreateSegmentValidation(t *testing.T) {
	p := newTestProduct(t)
	if _, err := p.CreateSegment("", highValue); err == nil {
		t.Fatal("empty name accepted")
	}
	if _, err := p.CreateSegment("x", nil); err == nil {
		t.Fatal("nil predicate accepted")
	}
}

func TestDemographicsBucketsUnknownTier(t *testing.T) {
	p := newTestProduct(t)
	gold := profile("C1", "c1@example.com", 100)
	gold["tier"] = "gold"
	mustAdd(t, p, gold)
	mustAdd(t, p, profile("C2", "c2@example.com", 50))
	blank := profile("C3", "c3@example.com", 10)
	blank["tier"] = ""
	mustAdd(t, p, blank)

	demo := p.Demographics()
	if demo["gold"] != 1 || demo["silver"] != 1 || demo["Unknown"] != 1 {
		t.Fatalf("unexpected demographics %v", demo)
	}
}

func TestQualityReportFlagsInvalidEmailAfterUpdate(t *testing.T) {
	p := newTestProduct(t)
	mustAdd(t, p, profile("C1", "c1@example.com", 10))
	mustAdd(t, p, profile("C2", "c2@example.com", 20))

	if count, _, err := p.Update(context.Background(), product.Filters{"customer_id": "C2"}, product.Record{"email": "broken"}); err != nil || count != 1 {
		t.Fatalf("update failed: count=%d err=%v", count, err)
	}

	rep := p.QualityReport()
	if rep.EmailValidity.Invalid != 1 || rep.EmailValidity.MeetsSLA {
		t.Fatalf("invalid email not flagged: %+v", rep.EmailValidity)
	}
	if rep.CustomerUniqueness.Duplicates != 0 || !rep.CustomerUniqueness.MeetsSLA {
		t.Fatalf("uniqueness should be clean: %+v", rep.CustomerUniqueness)
	}
	if rep.MeetsAccuracySLA {
		t.Fatal("accuracy SLA must fail with invalid emails")
	}
}

func TestQualityReportUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
	p := New("customer-profiles", "crm-team@example.com", WithNow(func() time.Time { return fixed }))
	mustAdd(t, p, profile("C1", "c1@example.com", 10))

	rep := p.QualityReport()
	if !rep.GeneratedAt.Equal(fixed) {
		t.Fatalf("generated_at = %v, want %v", rep.GeneratedAt, fixed)
	}
}

func TestQualityReportEmptyProduct(t *testing.T) {
	p := newTestProduct(t)
	rep := p.QualityReport()
	if rep.RecordCount != 0 || !rep.MeetsAccuracySLA || !rep.MeetsCompletenessSLA {
		t.Fatalf("empty product must report clean: %+v", rep)
	}
}
