// Package models defines the shared value types for the divscope analysis
// pipeline. They are kept in their own package so that the provider,
// cache, database and analysis packages can exchange them without
// circular import dependencies.
package models

import (
	"fmt"
	"time"
)

// Quote is the current trading snapshot for a ticker, built once per
// analysis from the acquisition result.
type Quote struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	Currency    string  `json:"currency"`
	DisplayName string  `json:"displayName"`
}

// DividendEvent is a single cash distribution per share.
type DividendEvent struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// AnnualDividendPoint is the summed dividend amount for one calendar year.
type AnnualDividendPoint struct {
	Year   int     `json:"year"`
	Amount float64 `json:"amount"`
}

// Fundamentals holds the latest annual financials. Every field may be
// unknown; unknown is represented by a nil pointer, never by zero, since
// zero has business meaning (e.g. zero payout).
type Fundamentals struct {
	OperatingCashFlow  *float64 `json:"operatingCashFlow"`
	CapitalExpenditure *float64 `json:"capitalExpenditure"`
	CashDividendsPaid  *float64 `json:"cashDividendsPaid"`
	NetIncome          *float64 `json:"netIncome"`
	PayoutRatio        *float64 `json:"payoutRatio"`
}

// FreeCashFlow returns operating cash flow minus capital expenditure, or
// nil when either input is unknown.
func (f *Fundamentals) FreeCashFlow() *float64 {
	if f == nil || f.OperatingCashFlow == nil || f.CapitalExpenditure == nil {
		return nil
	}
	fcf := *f.OperatingCashFlow - *f.CapitalExpenditure
	return &fcf
}

// EPSPayoutRatio returns dividends paid divided by net income. Prefers the
// provider-reported payout ratio when present.
func (f *Fundamentals) EPSPayoutRatio() *float64 {
	if f == nil {
		return nil
	}
	if f.PayoutRatio != nil {
		return f.PayoutRatio
	}
	if f.CashDividendsPaid == nil || f.NetIncome == nil || *f.NetIncome <= 0 {
		return nil
	}
	ratio := *f.CashDividendsPaid / *f.NetIncome
	return &ratio
}

// FCFPayoutRatio returns dividends paid divided by free cash flow, or nil
// when either is unknown or free cash flow is not positive.
func (f *Fundamentals) FCFPayoutRatio() *float64 {
	fcf := f.FreeCashFlow()
	if fcf == nil || *fcf <= 0 || f.CashDividendsPaid == nil {
		return nil
	}
	ratio := *f.CashDividendsPaid / *fcf
	return &ratio
}

// FCFCoverage returns free cash flow divided by dividends paid, the
// inverse view used by the coverage sub-score.
func (f *Fundamentals) FCFCoverage() *float64 {
	fcf := f.FreeCashFlow()
	if fcf == nil || f == nil || f.CashDividendsPaid == nil || *f.CashDividendsPaid <= 0 {
		return nil
	}
	coverage := *fcf / *f.CashDividendsPaid
	return &coverage
}

// SeriesFormat discriminates the two upstream price history shapes. The
// format is chosen at the provider boundary where the response is
// received, never inferred inside the math layer.
type SeriesFormat string

const (
	// SeriesFormatDaily is a date-keyed daily close map (precision provider).
	SeriesFormatDaily SeriesFormat = "daily"
	// SeriesFormatBars is a chronological list of {date, close} bars (bulk provider).
	SeriesFormatBars SeriesFormat = "bars"
)

// PriceBar is one daily bar of the bulk provider's price history.
type PriceBar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is the tagged union of the two price history shapes.
type PriceSeries struct {
	Format SeriesFormat       `json:"format"`
	Daily  map[string]float64 `json:"daily,omitempty"` // keyed "2006-01-02"
	Bars   []PriceBar         `json:"bars,omitempty"`
}

// EmaSnapshot is the latest exponential moving average readings. Fields
// are nil when the close series is too short for the period.
type EmaSnapshot struct {
	Ema20  *float64 `json:"ema20"`
	Ema50  *float64 `json:"ema50"`
	Ema200 *float64 `json:"ema200"`
}

// MacdSnapshot is the latest MACD reading, nil fields when unavailable.
type MacdSnapshot struct {
	MacdLine   *float64 `json:"macdLine"`
	SignalLine *float64 `json:"signalLine"`
	Histogram  *float64 `json:"histogram"`
}

// RsiSnapshot is the latest RSI reading, nil when unavailable.
type RsiSnapshot struct {
	Value *float64 `json:"value"`
}

// DividendScores are the normalized 0-100 sub-scores.
type DividendScores struct {
	Payout float64 `json:"payout"`
	Fcf    float64 `json:"fcf"`
	Streak float64 `json:"streak"`
	Growth float64 `json:"growth"`
	Trend  float64 `json:"trend"`
	Macd   float64 `json:"macd"`
	Rsi    float64 `json:"rsi"`
}

// AnalysisResult is the immutable value returned by one analysis. It may
// be rehydrated byte-for-byte from a cached record.
type AnalysisResult struct {
	Ticker       string                `json:"ticker"`
	Quote        Quote                 `json:"quote"`
	Fundamentals *Fundamentals         `json:"fundamentals"`
	AnnualSeries []AnnualDividendPoint `json:"annualSeries"`

	TtmDividends float64  `json:"ttmDividends"`
	TtmYield     *float64 `json:"ttmYield"`
	Cagr3        *float64 `json:"cagr3"`
	Cagr5        *float64 `json:"cagr5"`

	Streak          int      `json:"streak"`
	RawStreak       int      `json:"rawStreak"`
	StreakAdjusted  bool     `json:"streakAdjusted"`
	SafeGrowth      float64  `json:"safeGrowth"`
	ForwardDividend *float64 `json:"forwardDividend"`
	ForwardYield    *float64 `json:"forwardYield"`
	FairValue       *float64 `json:"fairValue"`

	Ema  EmaSnapshot  `json:"ema"`
	Macd MacdSnapshot `json:"macd"`
	Rsi  RsiSnapshot  `json:"rsi"`

	Scores     DividendScores `json:"scores"`
	TotalScore int            `json:"totalScore"`

	Warnings   []string  `json:"warnings"`
	ObservedAt time.Time `json:"observedAt"`
	FromCache  bool      `json:"fromCache"`
}

// Provider selection for acquisition.
const (
	ProviderDefault   = "default"
	ProviderPrecision = "precision"
	ProviderAuto      = "auto"
)

// AnalysisOptions are the caller-supplied knobs for one analysis. The
// option set (including provider choice) is part of the cache key.
type AnalysisOptions struct {
	Years          int     `json:"years"`
	RequiredReturn float64 `json:"requiredReturn"`
	Provider       string  `json:"provider"`
	SaveToCache    bool    `json:"saveToCache"`
	ForceFresh     bool    `json:"forceFresh"`
}

// Validate checks option ranges before the pipeline is invoked.
func (o AnalysisOptions) Validate() error {
	if o.Years < 1 || o.Years > 50 {
		return fmt.Errorf("years must be in [1,50], got %d", o.Years)
	}
	if o.RequiredReturn < 0.001 || o.RequiredReturn > 1.0 {
		return fmt.Errorf("required return must be in [0.001,1.0], got %g", o.RequiredReturn)
	}
	switch o.Provider {
	case ProviderDefault, ProviderPrecision, ProviderAuto:
	default:
		return fmt.Errorf("unknown provider %q", o.Provider)
	}
	return nil
}
