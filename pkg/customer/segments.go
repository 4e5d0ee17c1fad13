package customer

import (
	"fmt"
	"sort"

	"datamesh/pkg/product"
)

// Predicate decides segment membership for a customer profile.
type Predicate func(product.Record) bool

// segment caches the customer IDs matching a predicate at refresh time.
type segment struct {
	predicate Predicate
	members   []string
	gen       uint64
}

// SegmentStats describes one segment for reporting.
type SegmentStats struct {
	Size int `json:"size"`
	// Stale is set once the store has mutated since the segment was last
	// evaluated.
	Stale bool `json:"stale"`
}

// CreateSegment registers a named predicate and evaluates it over the current
// records. An existing segment of the same name is replaced. Returns the
// member customer IDs.
func (p *Product) CreateSegment(name string, pred Predicate) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("segment name must not be empty")
	}
	if pred == nil {
		return nil, fmt.Errorf("segment %q: predicate must not be nil", name)
	}
	seg := &segment{predicate: pred}
	p.evaluate(seg)
	p.segments[name] = seg
	return append([]string(nil), seg.members...), nil
}

// Segment returns the cached member IDs of a segment. Membership reflects
// the store as of the segment's last evaluation; mutations never refresh
// segments implicitly.
func (p *Product) Segment(name string) ([]string, bool) {
	seg, ok := p.segments[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), seg.members...), true
}

// RefreshSegment re-evaluates a segment's predicate over the current records
// and returns the new membership.
func (p *Product) RefreshSegment(name string) ([]string, error) {
	seg, ok := p.segments[name]
	if !ok {
		return nil, fmt.Errorf("unknown segment %q", name)
	}
	p.evaluate(seg)
	return append([]string(nil), seg.members...), nil
}

// RefreshAllSegments re-evaluates every registered segment.
func (p *Product) RefreshAllSegments() {
	for _, seg := range p.segments {
		p.evaluate(seg)
	}
}

// SegmentStatistics reports size and staleness per segment.
func (p *Product) SegmentStatistics() map[string]SegmentStats {
	out := make(map[string]SegmentStats, len(p.segments))
	for name, seg := range p.segments {
		out[name] = SegmentStats{
			Size:  len(seg.members),
			Stale: seg.gen != p.gen.n,
		}
	}
	return out
}

// SegmentNames returns the registered segment names in lexical order.
func (p *Product) SegmentNames() []string {
	names := make([]string, 0, len(p.segments))
	for name := range p.segments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *Product) evaluate(seg *segment) {
	seg.members = seg.members[:0]
	for _, rec := range p.store.Snapshot().Records {
		if !seg.predicate(rec) {
			continue
		}
		if id, ok := rec["customer_id"].(string); ok {
			seg.members = append(seg.members, id)
		}
	}
	seg.gen = p.gen.n
}
