package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
}

func TestCountriesDecodesEnvelope(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/country") {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("format") != "json" || r.URL.Query().Get("per_page") != "2" {
			t.Fatalf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"page":1,"pages":1,"per_page":2,"total":2},
			[
				{"id":"DEU","iso2Code":"DE","name":"Germany","capitalCity":"Berlin",
				 "region":{"id":"ECS","value":"Europe & Central Asia"},
				 "incomeLevel":{"id":"HIC","value":"High income"}},
				{"id":"FRA","iso2Code":"FR","name":"France","capitalCity":"Paris",
				 "region":{"id":"ECS","value":"Europe & Central Asia"},
				 "incomeLevel":{"id":"HIC","value":"High income"}}
			]
		]`))
	})

	countries, err := client.Countries(context.Background(), 2)
	if err != nil {
		t.Fatalf("countries: %v", err)
	}
	if len(countries) != 2 || countries[0].ID != "DEU" || countries[0].Capital != "Berlin" {
		t.Fatalf("unexpected countries %+v", countries)
	}
	if countries[1].Region.Value != "Europe & Central Asia" {
		t.Fatalf("region lost: %+v", countries[1])
	}
}

func TestIndicatorsPassesSearchTerm(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("search") != "gdp" {
			t.Fatalf("search term missing: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[
			{"total":1},
			[{"id":"NY.GDP.MKTP.CD","name":"GDP (current US$)","sourceNote":"GDP at purchaser prices."}]
		]`))
	})

	indicators, err := client.Indicators(context.Background(), "gdp", 10)
	if err != nil {
		t.Fatalf("indicators: %v", err)
	}
	if len(indicators) != 1 || indicators[0].ID != "NY.GDP.MKTP.CD" {
		t.Fatalf("unexpected indicators %+v", indicators)
	}
}

func TestCountryDataNullItems(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"message":[{"id":"120"}]},null]`))
	})
	points, err := client.CountryData(context.Background(), "XX", "NY.GDP.MKTP.CD", 2020, 2021)
	if err != nil {
		t.Fatalf("country data: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %v", points)
	}
}

func TestCountryDataRejectsMissingArgs(t *testing.T) {
	client := NewClient()
	if _, err := client.CountryData(context.Background(), "", "X", 2020, 2021); err == nil {
		t.Fatal("empty country accepted")
	}
}

func TestClientReportsHTTPErrors(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	if _, err := client.Countries(context.Background(), 1); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func dataResponse(country string, values map[string]*string) string {
	var b strings.Builder
	b.WriteString(`[{"total":1},[`)
	first := true
	for year, value := range values {
		if !first {
			b.WriteString(",")
		}
		first = false
		v := "null"
		if value != nil {
			v = *value
		}
		b.WriteString(`{"indicator":{"id":"NY.GDP.MKTP.CD","value":"GDP (current US$)"},` +
			`"country":{"id":"` + country + `","value":"` + country + `land"},` +
			`"date":"` + year + `","value":` + v + `}`)
	}
	b.WriteString("]]")
	return b.String()
}

func str(s string) *string { return &s }

func TestCountryIndicatorsPicksLatestNonNull(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataResponse("DE", map[string]*string{
			"2025": nil,
			"2024": str("4.3e12"),
			"2023": str("4.1e12"),
		})))
	})

	values, err := NewEnricher(client).CountryIndicators(context.Background(), "DE", []string{"NY.GDP.MKTP.CD"})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	got, ok := values["NY.GDP.MKTP.CD"]
	if !ok {
		t.Fatalf("indicator missing: %v", values)
	}
	if got.Year != "2024" || got.Value != 4.3e12 {
		t.Fatalf("expected latest non-null observation, got %+v", got)
	}
}

func TestCountryIndicatorsOmitsEmptySeries(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(dataResponse("DE", map[string]*string{"2024": nil})))
	})
	values, err := NewEnricher(client).CountryIndicators(context.Background(), "DE", []string{"NY.GDP.MKTP.CD"})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("expected empty result, got %v", values)
	}
}

func TestComparativeDatasetSortsDescending(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/country/DE/"):
			_, _ = w.Write([]byte(dataResponse("DE", map[string]*string{"2024": str("4.3e12")})))
		case strings.Contains(r.URL.Path, "/country/FR/"):
			_, _ = w.Write([]byte(dataResponse("FR", map[string]*string{"2024": str("3.1e12")})))
		case strings.Contains(r.URL.Path, "/country/US/"):
			_, _ = w.Write([]byte(dataResponse("US", map[string]*string{"2024": str("28.8e12")})))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	})

	out, err := NewEnricher(client).ComparativeDataset(context.Background(), []string{"DE", "FR", "US"}, "NY.GDP.MKTP.CD", 2024)
	if err != nil {
		t.Fatalf("comparative: %v", err)
	}
	if len(out) != 3 || out[0].Country != "US" || out[1].Country != "DE" || out[2].Country != "FR" {
		t.Fatalf("unexpected order %+v", out)
	}
}

func TestComparativeDatasetSkipsNullValues(t *testing.T) {
	client := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/country/XX/") {
			_, _ = w.Write([]byte(dataResponse("XX", map[string]*string{"2024": nil})))
			return
		}
		_, _ = w.Write([]byte(dataResponse("DE", map[string]*string{"2024": str("1.0")})))
	})
	out, err := NewEnricher(client).ComparativeDataset(context.Background(), []string{"XX", "DE"}, "NY.GDP.MKTP.CD", 2024)
	if err != nil {
		t.Fatalf("comparative: %v", err)
	}
	if len(out) != 1 || out[0].Country != "DE" {
		t.Fatalf("unexpected result %+v", out)
	}
}
