package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/guregu/null/v6"

	"divscope/models"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooProvider is the bulk/default market data provider, backed by the
// public Yahoo Finance chart and quoteSummary endpoints.
type YahooProvider struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahooProvider creates the bulk provider.
func NewYahooProvider() *YahooProvider {
	return &YahooProvider{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    yahooBaseURL,
	}
}

// Name returns the provider id used in errors and breaker state.
func (p *YahooProvider) Name() string {
	return "yahoo"
}

// yahooChartResponse is the top-level chart API container.
type yahooChartResponse struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *yahooAPIError     `json:"error"`
	} `json:"chart"`
}

type yahooAPIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string     `json:"symbol"`
		Currency           string     `json:"currency"`
		ShortName          string     `json:"shortName"`
		RegularMarketPrice null.Float `json:"regularMarketPrice"`
	} `json:"meta"`
	Timestamp []int64 `json:"timestamp"`
	Events    *struct {
		Dividends map[string]struct {
			Amount float64 `json:"amount"`
			Date   int64   `json:"date"`
		} `json:"dividends"`
	} `json:"events"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// yahooSummaryResponse covers the quoteSummary modules used for
// fundamentals. Numeric fields arrive as {raw, fmt} objects and may be
// absent, hence the nullable raw values.
type yahooSummaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			CashflowStatementHistory *struct {
				CashflowStatements []struct {
					TotalCashFromOperatingActivities yahooRawValue `json:"totalCashFromOperatingActivities"`
					CapitalExpenditures              yahooRawValue `json:"capitalExpenditures"`
					DividendsPaid                    yahooRawValue `json:"dividendsPaid"`
					NetIncome                        yahooRawValue `json:"netIncome"`
				} `json:"cashflowStatements"`
			} `json:"cashflowStatementHistory"`
			SummaryDetail *struct {
				PayoutRatio yahooRawValue `json:"payoutRatio"`
			} `json:"summaryDetail"`
		} `json:"result"`
		Error *yahooAPIError `json:"error"`
	} `json:"quoteSummary"`
}

type yahooRawValue struct {
	Raw null.Float `json:"raw"`
}

func (v yahooRawValue) ptr() *float64 {
	if !v.Raw.Valid {
		return nil
	}
	value := v.Raw.Float64
	return &value
}

// abs returns the magnitude of a reported cash flow line. Yahoo reports
// outflows (capex, dividends paid) as negative numbers.
func (v yahooRawValue) absPtr() *float64 {
	p := v.ptr()
	if p == nil {
		return nil
	}
	if *p < 0 {
		value := -*p
		return &value
	}
	return p
}

func (p *YahooProvider) fetchChart(ctx context.Context, ticker, query string) (*yahooChartResult, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, ticker, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(p.Name(), false, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (divscope)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(p.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewTickerNotFoundError(p.Name(), ticker)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewRateLimitError(p.Name(), parseRetryAfter(resp))
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(p.Name(), true, fmt.Errorf("HTTP status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("HTTP status %d", resp.StatusCode))
	}

	var parsed yahooChartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("decode chart response: %w", err))
	}
	if parsed.Chart.Error != nil {
		if parsed.Chart.Error.Code == "Not Found" {
			return nil, NewTickerNotFoundError(p.Name(), ticker)
		}
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("%s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description))
	}
	if len(parsed.Chart.Result) == 0 {
		return nil, NewTickerNotFoundError(p.Name(), ticker)
	}
	return &parsed.Chart.Result[0], nil
}

// GetQuote fetches the current trading snapshot.
func (p *YahooProvider) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	result, err := p.fetchChart(ctx, ticker, "range=1d&interval=1d")
	if err != nil {
		return nil, err
	}

	if !result.Meta.RegularMarketPrice.Valid || result.Meta.RegularMarketPrice.Float64 <= 0 {
		return nil, NewDataQualityError(p.Name(), "quote", fmt.Errorf("non-positive price for %s", ticker))
	}

	name := result.Meta.ShortName
	if name == "" {
		name = result.Meta.Symbol
	}
	return &models.Quote{
		Symbol:      result.Meta.Symbol,
		Price:       result.Meta.RegularMarketPrice.Float64,
		Currency:    result.Meta.Currency,
		DisplayName: name,
	}, nil
}

// GetDividendEvents fetches per-share cash distributions for the trailing
// years window.
func (p *YahooProvider) GetDividendEvents(ctx context.Context, ticker string, years int) ([]models.DividendEvent, error) {
	query := fmt.Sprintf("range=%dy&interval=1mo&events=div", years)
	result, err := p.fetchChart(ctx, ticker, query)
	if err != nil {
		return nil, err
	}

	if result.Events == nil || len(result.Events.Dividends) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "dividends")
	}

	events := make([]models.DividendEvent, 0, len(result.Events.Dividends))
	for _, div := range result.Events.Dividends {
		events = append(events, models.DividendEvent{
			Date:   time.Unix(div.Date, 0).UTC(),
			Amount: div.Amount,
		})
	}
	events = filterDividendEvents(events)
	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// GetFundamentals fetches the latest annual financials via quoteSummary.
// Missing fields remain unknown, never defaulted to zero.
func (p *YahooProvider) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=cashflowStatementHistory,summaryDetail", p.baseURL, ticker)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, NewDataSourceError(p.Name(), false, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (divscope)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, NewNetworkError(p.Name(), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewTickerNotFoundError(p.Name(), ticker)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewRateLimitError(p.Name(), parseRetryAfter(resp))
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(p.Name(), true, fmt.Errorf("HTTP status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("HTTP status %d", resp.StatusCode))
	}

	var parsed yahooSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewDataSourceError(p.Name(), false, fmt.Errorf("decode quoteSummary response: %w", err))
	}
	if parsed.QuoteSummary.Error != nil || len(parsed.QuoteSummary.Result) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "fundamentals")
	}

	fundamentals := &models.Fundamentals{}
	entry := parsed.QuoteSummary.Result[0]
	if cf := entry.CashflowStatementHistory; cf != nil && len(cf.CashflowStatements) > 0 {
		latest := cf.CashflowStatements[0]
		fundamentals.OperatingCashFlow = latest.TotalCashFromOperatingActivities.ptr()
		fundamentals.CapitalExpenditure = latest.CapitalExpenditures.absPtr()
		fundamentals.CashDividendsPaid = latest.DividendsPaid.absPtr()
		fundamentals.NetIncome = latest.NetIncome.ptr()
	}
	if sd := entry.SummaryDetail; sd != nil {
		fundamentals.PayoutRatio = sd.PayoutRatio.ptr()
	}
	return fundamentals, nil
}

// GetPriceSeries fetches the daily close history as a bar list, the bulk
// provider's native shape of the price series union.
func (p *YahooProvider) GetPriceSeries(ctx context.Context, ticker string, lookbackYears int) (*models.PriceSeries, error) {
	query := fmt.Sprintf("range=%dy&interval=1d", lookbackYears)
	result, err := p.fetchChart(ctx, ticker, query)
	if err != nil {
		return nil, err
	}

	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "price history")
	}

	closes := result.Indicators.Quote[0].Close
	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		bars = append(bars, models.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Close: *closes[i],
		})
	}
	if len(bars) == 0 {
		return nil, NewInsufficientDataError(p.Name(), "price history")
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &models.PriceSeries{Format: models.SeriesFormatBars, Bars: bars}, nil
}

// parseRetryAfter reads a Retry-After header as a delay hint.
func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
