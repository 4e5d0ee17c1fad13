package sales

import (
	"math"
	"sort"
	"time"

	"datamesh/pkg/product"
)

// CustomerRevenue pairs a customer with their summed transaction revenue.
type CustomerRevenue struct {
	CustomerID string  `json:"customer_id"`
	Revenue    float64 `json:"revenue"`
}

// Metrics holds the eagerly maintained sales aggregates. Revenue figures are
// rounded to two decimal places.
type Metrics struct {
	TotalRevenue            float64            `json:"total_revenue"`
	TotalTransactions       int                `json:"total_transactions"`
	AverageTransactionValue float64            `json:"average_transaction_value"`
	SalesByCategory         map[string]float64 `json:"sales_by_category"`
	SalesByRegion           map[string]float64 `json:"sales_by_region"`
	TopCustomersByRevenue   []CustomerRevenue  `json:"top_customers_by_revenue"`
	LastUpdate              time.Time          `json:"last_metrics_update"`
}

// aggregator recomputes sales metrics from scratch after every successful
// mutation.
type aggregator struct {
	current Metrics
	nowFn   func() time.Time
}

func (a *aggregator) Recompute(records []product.Record) {
	m := Metrics{
		SalesByCategory: map[string]float64{},
		SalesByRegion:   map[string]float64{},
		LastUpdate:      a.nowFn(),
	}

	customerTotals := map[string]float64{}
	var customerOrder []string
	var total float64
	for _, rec := range records {
		amount, ok := product.NumericValue(rec["amount"])
		if !ok {
			continue
		}
		m.TotalTransactions++
		total += amount
		if cat, ok := rec["product_category"].(string); ok {
			m.SalesByCategory[cat] += amount
		}
		if region, ok := rec["region"].(string); ok {
			m.SalesByRegion[region] += amount
		}
		if customer, ok := rec["customer_id"].(string); ok {
			if _, seen := customerTotals[customer]; !seen {
				customerOrder = append(customerOrder, customer)
			}
			customerTotals[customer] += amount
		}
	}

	m.TotalRevenue = round2(total)
	if m.TotalTransactions > 0 {
		m.AverageTransactionValue = round2(total / float64(m.TotalTransactions))
	}
	for cat, sum := range m.SalesByCategory {
		m.SalesByCategory[cat] = round2(sum)
	}
	for region, sum := range m.SalesByRegion {
		m.SalesByRegion[region] = round2(sum)
	}

	// Ties keep first-appearance order via the stable sort.
	sort.SliceStable(customerOrder, func(i, j int) bool {
		return customerTotals[customerOrder[i]] > customerTotals[customerOrder[j]]
	})
	if len(customerOrder) > 5 {
		customerOrder = customerOrder[:5]
	}
	for _, customer := range customerOrder {
		m.TopCustomersByRevenue = append(m.TopCustomersByRevenue, CustomerRevenue{
			CustomerID: customer,
			Revenue:    round2(customerTotals[customer]),
		})
	}

	a.current = m
}

// metrics returns a detached copy of the current aggregates.
func (a *aggregator) metrics() Metrics {
	m := a.current
	m.SalesByCategory = cloneFloatMap(a.current.SalesByCategory)
	m.SalesByRegion = cloneFloatMap(a.current.SalesByRegion)
	m.TopCustomersByRevenue = append([]CustomerRevenue(nil), a.current.TopCustomersByRevenue...)
	return m
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
