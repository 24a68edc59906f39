package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"divscope/models"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider is the precision provider. The free tier allows
// roughly 25 requests per day, so every call first passes a local rate
// limiter; an exhausted budget surfaces as a rate-limit error without
// touching the network.
type AlphaVantageProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewAlphaVantageProvider creates the precision provider with a daily
// request budget.
func NewAlphaVantageProvider(apiKey string, dailyBudget int) *AlphaVantageProvider {
	if dailyBudget <= 0 {
		dailyBudget = 25
	}
	return &AlphaVantageProvider{
		httpClient: &http.Client{Timeout: 20 * time.Second},
		baseURL:    alphaVantageBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(dailyBudget)), dailyBudget),
	}
}

// Name returns the provider id used in errors and breaker state.
func (p *AlphaVantageProvider) Name() string {
	return "alphavantage"
}

// fetch performs one API call and detects the provider's in-band error
// signals: "Error Message" for unknown symbols and "Note"/"Information"
// for exceeded quotas.
func (p *AlphaVantageProvider) fetch(ctx context.Context, ticker, function string, extra url.Values) (map[string]json.RawMessage, error) {
	if !p.limiter.Allow() {
		return nil, NewRateLimitError(p.Name(), 0)
	}

	params := url.Values{}
	params.Set("function", function)
	params.Set("symbol", ticker)
	params.Set("apikey", p.apiKey)
	for key, vals := range extra {
		for _, v := range vals {
			params.Add(key, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, NewDataSourceError(p.Name(), false, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(p.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewRateLimitError(p.Name(), parseRetryAfter(resp))
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(p.Name(), true, fmt.Errorf("HTTP status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("HTTP status %d", resp.StatusCode))
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("decode %s response: %w", function, err))
	}
	if _, ok := body["Error Message"]; ok {
		return nil, NewTickerNotFoundError(p.Name(), ticker)
	}
	if _, ok := body["Note"]; ok {
		return nil, NewRateLimitError(p.Name(), 0)
	}
	if _, ok := body["Information"]; ok {
		return nil, NewRateLimitError(p.Name(), 0)
	}
	return body, nil
}

// parseNumeric converts the provider's string-encoded numerics. "None",
// "-" and empty values stay unknown.
func parseNumeric(raw json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" || s == "None" || s == "-" || s == "N/A" {
		return nil
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &value
}

// GetQuote fetches the company overview and global quote snapshot.
func (p *AlphaVantageProvider) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	overview, err := p.fetch(ctx, ticker, "OVERVIEW", nil)
	if err != nil {
		return nil, err
	}
	if len(overview) == 0 {
		return nil, NewTickerNotFoundError(p.Name(), ticker)
	}

	quoteBody, err := p.fetch(ctx, ticker, "GLOBAL_QUOTE", nil)
	if err != nil {
		return nil, err
	}
	var global struct {
		Price string `json:"05. price"`
	}
	if raw, ok := quoteBody["Global Quote"]; ok {
		if err := json.Unmarshal(raw, &global); err != nil {
			return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("decode global quote: %w", err))
		}
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(global.Price), 64)
	if err != nil || price <= 0 {
		return nil, NewDataQualityError(p.Name(), "quote", fmt.Errorf("non-positive price for %s", ticker))
	}

	var name, currency string
	if raw, ok := overview["Name"]; ok {
		json.Unmarshal(raw, &name)
	}
	if raw, ok := overview["Currency"]; ok {
		json.Unmarshal(raw, &currency)
	}
	if name == "" {
		name = ticker
	}
	return &models.Quote{
		Symbol:      ticker,
		Price:       price,
		Currency:    currency,
		DisplayName: name,
	}, nil
}

// adjustedDaily fetches the full adjusted daily series once; it carries
// both the dividend events and the close history.
func (p *AlphaVantageProvider) adjustedDaily(ctx context.Context, ticker string) (map[string]struct {
	AdjustedClose  json.RawMessage `json:"5. adjusted close"`
	DividendAmount json.RawMessage `json:"7. dividend amount"`
}, error) {
	extra := url.Values{}
	extra.Set("outputsize", "full")
	body, err := p.fetch(ctx, ticker, "TIME_SERIES_DAILY_ADJUSTED", extra)
	if err != nil {
		return nil, err
	}

	raw, ok := body["Time Series (Daily)"]
	if !ok {
		return nil, NewInsufficientDataError(p.Name(), "price history")
	}
	var series map[string]struct {
		AdjustedClose  json.RawMessage `json:"5. adjusted close"`
		DividendAmount json.RawMessage `json:"7. dividend amount"`
	}
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("decode daily series: %w", err))
	}
	if len(series) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "price history")
	}
	return series, nil
}

// GetDividendEvents extracts cash distributions from the adjusted daily
// series within the trailing years window.
func (p *AlphaVantageProvider) GetDividendEvents(ctx context.Context, ticker string, years int) ([]models.DividendEvent, error) {
	series, err := p.adjustedDaily(ctx, ticker)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(-years, 0, 0)
	var events []models.DividendEvent
	for dateKey, day := range series {
		amount := parseNumeric(day.DividendAmount)
		if amount == nil || *amount <= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", dateKey)
		if err != nil || date.Before(cutoff) {
			continue
		}
		events = append(events, models.DividendEvent{Date: date.UTC(), Amount: *amount})
	}
	events = filterDividendEvents(events)
	if len(events) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "dividends")
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// GetFundamentals combines the cash flow statement, income statement and
// overview payout ratio. Missing fields remain unknown.
func (p *AlphaVantageProvider) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	cashFlow, err := p.fetch(ctx, ticker, "CASH_FLOW", nil)
	if err != nil {
		return nil, err
	}

	fundamentals := &models.Fundamentals{}
	var cfReports []map[string]json.RawMessage
	if raw, ok := cashFlow["annualReports"]; ok {
		json.Unmarshal(raw, &cfReports)
	}
	if len(cfReports) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "fundamentals")
	}
	latest := cfReports[0]
	fundamentals.OperatingCashFlow = parseNumeric(latest["operatingCashflow"])
	fundamentals.CapitalExpenditure = parseNumeric(latest["capitalExpenditures"])
	fundamentals.CashDividendsPaid = parseNumeric(latest["dividendPayout"])
	fundamentals.NetIncome = parseNumeric(latest["netIncome"])

	// Net income from the income statement is authoritative when present.
	if income, err := p.fetch(ctx, ticker, "INCOME_STATEMENT", nil); err == nil {
		var isReports []map[string]json.RawMessage
		if raw, ok := income["annualReports"]; ok {
			json.Unmarshal(raw, &isReports)
		}
		if len(isReports) > 0 {
			if net := parseNumeric(isReports[0]["netIncome"]); net != nil {
				fundamentals.NetIncome = net
			}
		}
	}

	if overview, err := p.fetch(ctx, ticker, "OVERVIEW", nil); err == nil {
		fundamentals.PayoutRatio = parseNumeric(overview["PayoutRatio"])
	}
	return fundamentals, nil
}

// GetPriceSeries returns the adjusted daily closes as a date-keyed map,
// the precision provider's native shape of the price series union.
func (p *AlphaVantageProvider) GetPriceSeries(ctx context.Context, ticker string, lookbackYears int) (*models.PriceSeries, error) {
	series, err := p.adjustedDaily(ctx, ticker)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().UTC().AddDate(-lookbackYears, 0, 0)
	daily := make(map[string]float64, len(series))
	for dateKey, day := range series {
		close := parseNumeric(day.AdjustedClose)
		if close == nil || *close <= 0 {
			continue
		}
		date, err := time.Parse("2006-01-02", dateKey)
		if err != nil || date.Before(cutoff) {
			continue
		}
		daily[dateKey] = *close
	}
	if len(daily) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "price history")
	}
	return &models.PriceSeries{Format: models.SeriesFormatDaily, Daily: daily}, nil
}
