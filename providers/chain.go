package providers

import (
	"context"
	"log"
	"time"

	"divscope/models"
)

// Chain tries an ordered list of providers for each requested datum. The
// preferred (precision) provider goes first; on any failure, including
// rate limits, the next provider is attempted. Each provider has its own
// circuit breaker, shared across all analyses, and each call runs under
// the chain's retry policy.
type Chain struct {
	providers []MarketDataProvider
	breakers  map[string]*CircuitBreaker
	policy    RetryPolicy
}

// NewChain builds a fallback chain over the given providers, preferred
// first.
func NewChain(policy RetryPolicy, failureThreshold int, recoveryTime time.Duration, provs ...MarketDataProvider) *Chain {
	breakers := make(map[string]*CircuitBreaker, len(provs))
	for _, p := range provs {
		breakers[p.Name()] = NewCircuitBreaker(p.Name(), failureThreshold, recoveryTime)
	}
	return NewChainWithBreakers(policy, breakers, provs...)
}

// NewChainWithBreakers builds a chain over pre-constructed breakers so
// that multiple chain orderings (default vs precision-first) share the
// same per-provider breaker state.
func NewChainWithBreakers(policy RetryPolicy, breakers map[string]*CircuitBreaker, provs ...MarketDataProvider) *Chain {
	return &Chain{
		providers: provs,
		breakers:  breakers,
		policy:    policy,
	}
}

// Providers returns the chain's providers in fallback order.
func (c *Chain) Providers() []MarketDataProvider {
	return c.providers
}

// callChain walks the providers in order. When every provider fails, the
// most specific error wins: ticker-not-found takes precedence over a
// generic data source failure.
func callChain[T any](ctx context.Context, c *Chain, operation string, call func(ctx context.Context, p MarketDataProvider) (T, error)) (T, error) {
	var zero T
	var lastErr error
	var notFoundErr error

	for _, provider := range c.providers {
		breaker := c.breakers[provider.Name()]
		if err := breaker.Allow(); err != nil {
			log.Printf("⛔ %s %s skipped: %v", provider.Name(), operation, err)
			lastErr = err
			continue
		}

		result, err := WithRetry(ctx, c.policy, provider.Name()+" "+operation, func(ctx context.Context) (T, error) {
			return call(ctx, provider)
		})
		if err == nil {
			breaker.RecordSuccess()
			return result, nil
		}

		breaker.RecordFailure()
		if IsNotFound(err) {
			notFoundErr = err
		}
		lastErr = err
		log.Printf("⚠️  %s %s failed, trying next provider: %v", provider.Name(), operation, err)
	}

	if notFoundErr != nil {
		return zero, notFoundErr
	}
	return zero, lastErr
}

// GetQuote acquires the current trading snapshot.
func (c *Chain) GetQuote(ctx context.Context, ticker string) (*models.Quote, error) {
	return callChain(ctx, c, "quote", func(ctx context.Context, p MarketDataProvider) (*models.Quote, error) {
		return p.GetQuote(ctx, ticker)
	})
}

// GetDividendEvents acquires the dividend event history.
func (c *Chain) GetDividendEvents(ctx context.Context, ticker string, years int) ([]models.DividendEvent, error) {
	return callChain(ctx, c, "dividends", func(ctx context.Context, p MarketDataProvider) ([]models.DividendEvent, error) {
		return p.GetDividendEvents(ctx, ticker, years)
	})
}

// GetFundamentals acquires the latest annual financials.
func (c *Chain) GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return callChain(ctx, c, "fundamentals", func(ctx context.Context, p MarketDataProvider) (*models.Fundamentals, error) {
		return p.GetFundamentals(ctx, ticker)
	})
}

// GetPriceSeries acquires the close-price history.
func (c *Chain) GetPriceSeries(ctx context.Context, ticker string, lookbackYears int) (*models.PriceSeries, error) {
	return callChain(ctx, c, "prices", func(ctx context.Context, p MarketDataProvider) (*models.PriceSeries, error) {
		return p.GetPriceSeries(ctx, ticker, lookbackYears)
	})
}
