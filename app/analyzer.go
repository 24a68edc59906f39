package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"divscope/cache"
	"divscope/config"
	"divscope/helpers"
	"divscope/models"
	"divscope/providers"
)

// Analyzer composes acquisition, caching and the quantitative engine
// into a single Analyze call. Provider breaker state is shared across
// chain orderings and across concurrent analyses; everything else is
// per-call working data.
type Analyzer struct {
	cfg          *config.Config
	cache        *cache.ResultCache
	streakPolicy StreakPolicy

	defaultChain   *providers.Chain
	precisionChain *providers.Chain
}

// New creates an analyzer from configuration. resultCache may be nil,
// which disables caching entirely.
func New(cfg *config.Config, resultCache *cache.ResultCache) *Analyzer {
	policy := providers.RetryPolicy{
		MaxAttempts:       cfg.Providers.MaxAttempts,
		BaseDelay:         cfg.Providers.BaseDelay,
		MaxDelay:          cfg.Providers.MaxDelay,
		BackoffMultiplier: cfg.Providers.BackoffMultiplier,
		JitterFactor:      cfg.Providers.JitterFactor,
		RetryableKinds:    providers.DefaultRetryPolicy().RetryableKinds,
	}

	bulk := providers.NewYahooProvider()
	breakers := map[string]*providers.CircuitBreaker{
		bulk.Name(): providers.NewCircuitBreaker(bulk.Name(), cfg.Providers.FailureThreshold, cfg.Providers.RecoveryTime),
	}

	defaultChain := providers.NewChainWithBreakers(policy, breakers, bulk)
	precisionChain := defaultChain
	if cfg.Providers.AlphaVantageAPIKey != "" {
		precision := providers.NewAlphaVantageProvider(cfg.Providers.AlphaVantageAPIKey, cfg.Providers.AlphaVantageBudget)
		breakers[precision.Name()] = providers.NewCircuitBreaker(precision.Name(), cfg.Providers.FailureThreshold, cfg.Providers.RecoveryTime)
		precisionChain = providers.NewChainWithBreakers(policy, breakers, precision, bulk)
	}

	return &Analyzer{
		cfg:   cfg,
		cache: resultCache,
		streakPolicy: StreakPolicy{
			DeclineTolerance: cfg.Analysis.DeclineTolerance,
			NoiseTolerance:   cfg.Analysis.NoiseTolerance,
		},
		defaultChain:   defaultChain,
		precisionChain: precisionChain,
	}
}

// chainFor selects the provider ordering for the requested mode.
func (a *Analyzer) chainFor(provider string) *providers.Chain {
	switch provider {
	case models.ProviderPrecision, models.ProviderAuto:
		return a.precisionChain
	default:
		return a.defaultChain
	}
}

// Analyze runs the full pipeline for one ticker: cache lookup,
// acquisition, streak/growth derivation, elite validation, valuation,
// technical indicators, scoring, and best-effort persistence. Only an
// unacquirable quote is fatal; every other degraded input is recorded as
// a warning on the result.
func (a *Analyzer) Analyze(ctx context.Context, ticker string, opts models.AnalysisOptions) (*models.AnalysisResult, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, fmt.Errorf("ticker must not be empty")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	optionsHash := cache.HashOptions(opts)

	// 1. Cache lookup
	if a.cache != nil && !opts.ForceFresh {
		if cached, ok := a.cache.GetRecent(ctx, ticker, optionsHash); ok {
			cached.FromCache = true
			log.Printf("✅ Cache hit for %s (hash %s, observed %s)", ticker, optionsHash, cached.ObservedAt.Format(time.RFC3339))
			return cached, nil
		}
	}

	chain := a.chainFor(opts.Provider)
	var warnings []string
	if opts.Provider == models.ProviderPrecision && chain == a.defaultChain {
		warnings = append(warnings, "precision provider requested but not configured; using default provider")
	}

	// 2. Acquisition. Quote failure is fatal; dividends and fundamentals
	// degrade to partial data.
	quote, err := chain.GetQuote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("quote acquisition for %s failed: %w", ticker, err)
	}

	events, err := chain.GetDividendEvents(ctx, ticker, opts.Years)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("dividend history unavailable: %v", err))
		events = nil
	}

	fundamentals, err := chain.GetFundamentals(ctx, ticker)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("fundamentals unavailable: %v", err))
		fundamentals = &models.Fundamentals{}
	}

	// 3. Dividend derivations
	now := time.Now().UTC()
	annual := AnnualizeDividends(events)
	if len(annual) < 2 {
		warnings = append(warnings, fmt.Sprintf("only %d year(s) of dividend data; streak and growth are unreliable", len(annual)))
	}
	ttm := TTMDividends(events, now)
	cagr3 := helpers.CAGRYears(annual, 3)
	cagr5 := helpers.CAGRYears(annual, 5)
	rawStreak := DividendStreak(annual, a.streakPolicy)

	// 4. Elite cross-check; a proposed adjustment is always substituted.
	streak := rawStreak
	adjusted := false
	validation := ValidateStreak(ticker, rawStreak)
	if validation.Warning != "" {
		warnings = append(warnings, validation.Warning)
	}
	if validation.AdjustedStreak != nil {
		streak = *validation.AdjustedStreak
		adjusted = true
		warnings = append(warnings, validation.Rationale)
	}

	// 5. Growth and valuation
	safeGrowth := SafeGrowth(cagr5, cagr3, fundamentals, streak)
	forwardDividend := ForwardDividend(ttm, safeGrowth)
	fairValue := GordonGrowth(forwardDividend, quote.Price, opts.RequiredReturn, safeGrowth)

	var ttmYield, forwardYield *float64
	if quote.Price > 0 && ttm > 0 {
		y := ttm / quote.Price
		ttmYield = &y
	}
	if forwardDividend != nil && quote.Price > 0 {
		y := *forwardDividend / quote.Price
		forwardYield = &y
	}

	// 6. Technical indicators; total failure degrades to unavailable.
	var closes []float64
	series, err := chain.GetPriceSeries(ctx, ticker, a.cfg.Analysis.PriceLookbackYears)
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("price history unavailable, technical indicators skipped: %v", err))
	} else {
		closes = ExtractCloses(series)
	}
	ema := EmaReadings(closes)
	macd := MACD(closes, MacdFastPeriod, MacdSlowPeriod, MacdSignalPeriod)
	rsi := RsiReading(closes)

	// 7. Scoring
	scores := models.DividendScores{
		Payout: PayoutScore(fundamentals.EPSPayoutRatio()),
		Fcf:    FcfScore(fundamentals.FCFCoverage(), fundamentals.EPSPayoutRatio()),
		Streak: StreakScore(streak),
		Growth: GrowthScore(safeGrowth),
		Trend:  TrendScore(quote.Price, ema),
		Macd:   MacdScore(macd),
		Rsi:    RsiScore(rsi),
	}
	totalScore := TotalScore(scores)

	// 8. Assemble and persist best-effort
	result := &models.AnalysisResult{
		Ticker:          ticker,
		Quote:           *quote,
		Fundamentals:    fundamentals,
		AnnualSeries:    annual,
		TtmDividends:    ttm,
		TtmYield:        ttmYield,
		Cagr3:           cagr3,
		Cagr5:           cagr5,
		Streak:          streak,
		RawStreak:       rawStreak,
		StreakAdjusted:  adjusted,
		SafeGrowth:      safeGrowth,
		ForwardDividend: forwardDividend,
		ForwardYield:    forwardYield,
		FairValue:       fairValue,
		Ema:             ema,
		Macd:            macd,
		Rsi:             rsi,
		Scores:          scores,
		TotalScore:      totalScore,
		Warnings:        warnings,
		ObservedAt:      now,
	}

	if a.cache != nil && opts.SaveToCache {
		if id := a.cache.Save(ctx, result, optionsHash); id != "" {
			log.Printf("💾 Cached analysis for %s as record %s", ticker, id)
		}
	}

	log.Printf("📊 %s: score %d/100, streak %d, safe growth %.1f%%", ticker, totalScore, streak, safeGrowth*100)
	return result, nil
}
