package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func newTestAlphaVantage(handler http.Handler) (*AlphaVantageProvider, *httptest.Server) {
	srv := httptest.NewServer(handler)
	provider := &AlphaVantageProvider{
		httpClient: srv.Client(),
		baseURL:    srv.URL,
		apiKey:     "test-key",
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	return provider, srv
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestParseNumeric(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected *float64
	}{
		{"plain number", `"123.45"`, floatPtr(123.45)},
		{"negative", `"-42"`, floatPtr(-42)},
		{"None sentinel", `"None"`, nil},
		{"dash sentinel", `"-"`, nil},
		{"empty", `""`, nil},
		{"garbage", `"abc"`, nil},
		{"not a string", `123.45`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseNumeric(json.RawMessage(tt.raw))
			if tt.expected == nil {
				if result != nil {
					t.Errorf("expected nil, got %v", *result)
				}
				return
			}
			if result == nil {
				t.Fatalf("expected %v, got nil", *tt.expected)
			}
			if *result != *tt.expected {
				t.Errorf("expected %v, got %v", *tt.expected, *result)
			}
		})
	}

	if parseNumeric(nil) != nil {
		t.Error("expected nil for absent field")
	}
}

func TestAlphaVantageInBandErrors(t *testing.T) {
	t.Run("Error Message means unknown symbol", func(t *testing.T) {
		provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Error Message": "Invalid API call"}`))
		}))
		defer srv.Close()

		_, err := provider.GetQuote(context.Background(), "NOPE")
		if !IsNotFound(err) {
			t.Errorf("expected not-found, got %v", err)
		}
	})

	t.Run("Note means exceeded quota", func(t *testing.T) {
		provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"Note": "API call frequency exceeded"}`))
		}))
		defer srv.Close()

		_, err := provider.GetQuote(context.Background(), "KO")
		if KindOf(err) != KindRateLimit {
			t.Errorf("expected rate limit, got %v", err)
		}
	})
}

func TestAlphaVantageLocalBudgetExhaustion(t *testing.T) {
	calls := 0
	provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	// A burst of 1 with an effectively infinite refill interval: the
	// second call must fail locally without touching the network.
	provider.limiter = rate.NewLimiter(rate.Every(1<<40), 1)

	provider.fetch(context.Background(), "KO", "OVERVIEW", nil)
	_, err := provider.fetch(context.Background(), "KO", "OVERVIEW", nil)
	if KindOf(err) != KindRateLimit {
		t.Fatalf("expected rate limit from the local budget, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls)
	}
}

func TestAlphaVantageGetQuote(t *testing.T) {
	provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "OVERVIEW":
			w.Write([]byte(`{"Symbol":"KO","Name":"Coca-Cola","Currency":"USD"}`))
		case "GLOBAL_QUOTE":
			w.Write([]byte(`{"Global Quote":{"01. symbol":"KO","05. price":"62.5000"}}`))
		}
	}))
	defer srv.Close()

	quote, err := provider.GetQuote(context.Background(), "KO")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if quote.Price != 62.5 {
		t.Errorf("expected price 62.5, got %v", quote.Price)
	}
	if quote.DisplayName != "Coca-Cola" || quote.Currency != "USD" {
		t.Errorf("unexpected quote: %+v", quote)
	}
}

func TestAlphaVantageGetFundamentals(t *testing.T) {
	provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("function") {
		case "CASH_FLOW":
			w.Write([]byte(`{"annualReports":[{
				"operatingCashflow":"11000000000",
				"capitalExpenditures":"1500000000",
				"dividendPayout":"8000000000",
				"netIncome":"9000000000"
			}]}`))
		case "INCOME_STATEMENT":
			w.Write([]byte(`{"annualReports":[{"netIncome":"10700000000"}]}`))
		case "OVERVIEW":
			w.Write([]byte(`{"PayoutRatio":"0.74"}`))
		}
	}))
	defer srv.Close()

	fundamentals, err := provider.GetFundamentals(context.Background(), "KO")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if fundamentals.OperatingCashFlow == nil || *fundamentals.OperatingCashFlow != 11000000000 {
		t.Errorf("unexpected operating cash flow: %v", fundamentals.OperatingCashFlow)
	}
	// The income statement's net income overrides the cash flow line.
	if fundamentals.NetIncome == nil || *fundamentals.NetIncome != 10700000000 {
		t.Errorf("unexpected net income: %v", fundamentals.NetIncome)
	}
	if fundamentals.PayoutRatio == nil || *fundamentals.PayoutRatio != 0.74 {
		t.Errorf("unexpected payout ratio: %v", fundamentals.PayoutRatio)
	}
}

func TestAlphaVantageGetPriceSeries(t *testing.T) {
	recent := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	older := time.Now().UTC().AddDate(0, 0, -3).Format("2006-01-02")
	broken := time.Now().UTC().AddDate(0, 0, -4).Format("2006-01-02")
	body := fmt.Sprintf(`{"Time Series (Daily)":{
		"%s":{"5. adjusted close":"62.40","7. dividend amount":"0.0000"},
		"%s":{"5. adjusted close":"62.10","7. dividend amount":"0.0000"},
		"%s":{"5. adjusted close":"None","7. dividend amount":"0.0000"},
		"1999-01-04":{"5. adjusted close":"30.00","7. dividend amount":"0.0000"}
	}}`, recent, older, broken)

	provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	series, err := provider.GetPriceSeries(context.Background(), "KO", 2)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if series.Format != "daily" {
		t.Errorf("expected daily format, got %s", series.Format)
	}
	// The unparseable close and the pre-cutoff date are both excluded.
	if len(series.Daily) != 2 {
		t.Errorf("expected 2 daily closes, got %d: %v", len(series.Daily), series.Daily)
	}
	if series.Daily[recent] != 62.40 {
		t.Errorf("expected close 62.40, got %v", series.Daily[recent])
	}
}

func TestAlphaVantageGetDividendEvents(t *testing.T) {
	first := time.Now().UTC().AddDate(0, -5, 0).Format("2006-01-02")
	second := time.Now().UTC().AddDate(0, -2, 0).Format("2006-01-02")
	noPayout := time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
	body := fmt.Sprintf(`{"Time Series (Daily)":{
		"%s":{"5. adjusted close":"60.00","7. dividend amount":"0.5100"},
		"%s":{"5. adjusted close":"62.10","7. dividend amount":"0.5100"},
		"%s":{"5. adjusted close":"62.40","7. dividend amount":"0.0000"}
	}}`, first, second, noPayout)

	provider, srv := newTestAlphaVantage(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	events, err := provider.GetDividendEvents(context.Background(), "KO", 5)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].Date.Before(events[1].Date) {
		t.Error("expected events sorted ascending by date")
	}
}
