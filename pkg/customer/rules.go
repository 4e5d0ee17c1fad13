package customer

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"datamesh/pkg/product"
)

// emailPattern requires a single @ with a dotted domain part. Deliberately
// permissive beyond that; this is a plausibility check, not RFC 5322.
var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// emailFormatRule blocks profiles whose email fails the plausibility check.
type emailFormatRule struct{}

func (emailFormatRule) Name() string { return "customer/email-format" }

func (r emailFormatRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	email, ok := candidate["email"].(string)
	if !ok {
		return product.Result{}, nil
	}
	if !emailPattern.MatchString(email) {
		return product.Result{Violations: []product.Violation{{
			Rule:     r.Name(),
			Severity: product.SeverityBlock,
			Field:    "email",
			Message:  fmt.Sprintf("email %q is not a valid address", email),
		}}}, nil
	}
	return product.Result{}, nil
}

// registrationDateRule blocks profiles whose registration_date does not parse
// as YYYY-MM-DD.
type registrationDateRule struct{}

func (registrationDateRule) Name() string { return "customer/registration-date" }

func (r registrationDateRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	value, ok := candidate["registration_date"].(string)
	if !ok {
		return product.Result{}, nil
	}
	if _, err := time.Parse(RegistrationDateLayout, value); err != nil {
		return product.Result{Violations: []product.Violation{{
			Rule:     r.Name(),
			Severity: product.SeverityBlock,
			Field:    "registration_date",
			Message:  fmt.Sprintf("registration_date %q is not in YYYY-MM-DD format", value),
		}}}, nil
	}
	return product.Result{}, nil
}

// interactionDateRule validates the optional last_interaction timestamp when
// present. Absence is fine; a malformed or non-string value blocks.
type interactionDateRule struct{}

func (interactionDateRule) Name() string { return "customer/last-interaction" }

func (r interactionDateRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	raw, present := candidate["last_interaction"]
	if !present {
		return product.Result{}, nil
	}
	value, ok := raw.(string)
	if ok {
		if _, err := time.Parse(InteractionLayout, value); err == nil {
			return product.Result{}, nil
		}
	}
	return product.Result{Violations: []product.Violation{{
		Rule:     r.Name(),
		Severity: product.SeverityBlock,
		Field:    "last_interaction",
		Message:  fmt.Sprintf("last_interaction %v is not in YYYY-MM-DD HH:MM:SS format", raw),
	}}}, nil
}

// lifetimeValueRule blocks negative lifetime values. Non-numeric values are
// left to the schema check.
type lifetimeValueRule struct{}

func (lifetimeValueRule) Name() string { return "customer/lifetime-value" }

func (r lifetimeValueRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	ltv, ok := product.NumericValue(candidate["lifetime_value"])
	if !ok {
		return product.Result{}, nil
	}
	if ltv < 0 {
		return product.Result{Violations: []product.Violation{{
			Rule:     r.Name(),
			Severity: product.SeverityBlock,
			Field:    "lifetime_value",
			Message:  fmt.Sprintf("lifetime_value must be non-negative, got %v", candidate["lifetime_value"]),
		}}}, nil
	}
	return product.Result{}, nil
}

// uniqueCustomerRule blocks candidates whose customer_id already exists.
type uniqueCustomerRule struct{}

func (uniqueCustomerRule) Name() string { return "customer/unique-customer" }

func (r uniqueCustomerRule) Evaluate(_ context.Context, view product.RecordView, candidate product.Record) (product.Result, error) {
	id, ok := candidate["customer_id"].(string)
	if !ok {
		return product.Result{}, nil
	}
	for _, rec := range view.Records() {
		if rec["customer_id"] == id {
			return product.Result{Violations: []product.Violation{{
				Rule:     r.Name(),
				Severity: product.SeverityBlock,
				Field:    "customer_id",
				Message:  fmt.Sprintf("customer %q already exists", id),
			}}}, nil
		}
	}
	return product.Result{}, nil
}
