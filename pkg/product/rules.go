package product

import "context"

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine whether a mutation is rejected.
const (
	// SeverityBlock rejects the mutation.
	SeverityBlock Severity = "block"
	// SeverityWarn reports a concern but allows the operation.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// RuleSchema names the built-in schema conformance check in violations.
const RuleSchema = "schema"

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
}

// Result aggregates violations from rule evaluation.
type Result struct {
	Violations []Violation `json:"violations,omitempty"`
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the warn-severity violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityWarn {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations reject an operation.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "operation blocked by rules"
}

// RecordView provides read-only access to the stored sequence for rule
// evaluation. Implementations return defensive copies.
type RecordView interface {
	Records() []Record
	Schema() Schema
	Len() int
}

// Rule defines a domain validation executed against a candidate record before
// it is admitted to the store.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RecordView, candidate Record) (Result, error)
}

// RuleSet orchestrates rule evaluation for a data product. Domain
// specializations supply their rule set at construction instead of
// subclassing the store.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet constructs an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

// Register appends a rule to the set.
func (s *RuleSet) Register(rule Rule) {
	s.rules = append(s.rules, rule)
}

// Rules returns the registered rules in registration order.
func (s *RuleSet) Rules() []Rule {
	return append([]Rule(nil), s.rules...)
}

// Evaluate executes all registered rules and aggregates their results.
func (s *RuleSet) Evaluate(ctx context.Context, view RecordView, candidate Record) (Result, error) {
	var combined Result
	for _, rule := range s.rules {
		res, err := rule.Evaluate(ctx, view, candidate)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
