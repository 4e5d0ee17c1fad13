package enrich

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// IndicatorValue is the most recent observation of one indicator.
type IndicatorValue struct {
	Indicator string  `json:"indicator"`
	Name      string  `json:"name"`
	Year      string  `json:"year"`
	Value     float64 `json:"value"`
}

// CountryComparison ranks countries by an indicator value for one year.
type CountryComparison struct {
	Country string  `json:"country"`
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
}

// Enricher derives enrichment values from the statistics API.
type Enricher struct {
	client *Client
	nowFn  func() time.Time
}

// NewEnricher wraps a client.
func NewEnricher(client *Client) *Enricher {
	return &Enricher{client: client, nowFn: func() time.Time { return time.Now().UTC() }}
}

// CountryIndicators returns the most recent non-null value of each requested
// indicator for the country, looking back ten years. Indicators with no
// observations are omitted.
func (e *Enricher) CountryIndicators(ctx context.Context, country string, indicators []string) (map[string]IndicatorValue, error) {
	endYear := e.nowFn().Year()
	out := make(map[string]IndicatorValue, len(indicators))
	for _, indicator := range indicators {
		points, err := e.client.CountryData(ctx, country, indicator, endYear-10, endYear)
		if err != nil {
			return nil, fmt.Errorf("indicator %s: %w", indicator, err)
		}
		if latest, ok := latestValue(points); ok {
			out[indicator] = latest
		}
	}
	return out, nil
}

// ComparativeDataset fetches one indicator for several countries in a single
// year and returns the entries sorted by value descending. Countries without
// an observation for that year are omitted.
func (e *Enricher) ComparativeDataset(ctx context.Context, countries []string, indicator string, year int) ([]CountryComparison, error) {
	var out []CountryComparison
	for _, country := range countries {
		points, err := e.client.CountryData(ctx, country, indicator, year, year)
		if err != nil {
			return nil, fmt.Errorf("country %s: %w", country, err)
		}
		for _, p := range points {
			if p.Value == nil {
				continue
			}
			out = append(out, CountryComparison{
				Country: country,
				Name:    p.Country.Value,
				Value:   *p.Value,
			})
			break
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out, nil
}

// latestValue picks the newest dated non-null observation.
func latestValue(points []DataPoint) (IndicatorValue, bool) {
	best := IndicatorValue{}
	bestYear := -1
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		year, err := strconv.Atoi(p.Date)
		if err != nil {
			continue
		}
		if year > bestYear {
			bestYear = year
			best = IndicatorValue{
				Indicator: p.Indicator.ID,
				Name:      p.Indicator.Value,
				Year:      p.Date,
				Value:     *p.Value,
			}
		}
	}
	return best, bestYear >= 0
}
