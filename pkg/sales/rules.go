package sales

import (
	"context"
	"fmt"
	"time"

	"datamesh/pkg/product"
)

// dateFormatRule blocks transactions whose date does not parse as DateLayout.
// Presence and string typing are the schema's concern; the rule only checks
// the format.
type dateFormatRule struct{}

func (dateFormatRule) Name() string { return "sales/date-format" }

func (r dateFormatRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	value, ok := candidate["date"].(string)
	if !ok {
		return product.Result{}, nil
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		return product.Result{Violations: []product.Violation{{
			Rule:     r.Name(),
			Severity: product.SeverityBlock,
			Field:    "date",
			Message:  fmt.Sprintf("date %q is not in YYYY-MM-DD format", value),
		}}}, nil
	}
	return product.Result{}, nil
}

// positiveAmountRule blocks transactions with a non-positive amount. Any
// numeric representation is inspected; non-numeric values are left to the
// schema check.
type positiveAmountRule struct{}

func (positiveAmountRule) Name() string { return "sales/positive-amount" }

func (r positiveAmountRule) Evaluate(_ context.Context, _ product.RecordView, candidate product.Record) (product.Result, error) {
	amount, ok := product.NumericValue(candidate["amount"])
	if !ok {
		return product.Result{}, nil
	}
	if amount <= 0 {
		return product.Result{Violations: []product.Violation{{
			Rule:     r.Name(),
			Severity: product.SeverityBlock,
			Field:    "amount",
			Message:  fmt.Sprintf("amount must be positive, got %v", candidate["amount"]),
		}}}, nil
	}
	return product.Result{}, nil
}

// uniqueTransactionRule blocks candidates whose transaction_id is already
// present in the store.
type uniqueTransactionRule struct{}

func (uniqueTransactionRule) Name() string { return "sales/unique-transaction" }

func (r uniqueTransactionRule) Evaluate(_ context.Context, view product.RecordView, candidate product.Record) (product.Result, error) {
	id, ok := candidate["transaction_id"].(string)
	if !ok {
		return product.Result{}, nil
	}
	for _, rec := range view.Records() {
		if rec["transaction_id"] == id {
			return product.Result{Violations: []product.Violation{{
				Rule:     r.Name(),
				Severity: product.SeverityBlock,
				Field:    "transaction_id",
				Message:  fmt.Sprintf("transaction %q already exists", id),
			}}}, nil
		}
	}
	return product.Result{}, nil
}
