package providers

import (
	"context"
	"math"

	"divscope/models"
)

// MarketDataProvider is one upstream source of quotes, dividend history,
// fundamentals and price history. Implementations classify every failure
// with the taxonomy in errors.go.
type MarketDataProvider interface {
	Name() string
	GetQuote(ctx context.Context, ticker string) (*models.Quote, error)
	GetDividendEvents(ctx context.Context, ticker string, years int) ([]models.DividendEvent, error)
	GetFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)
	GetPriceSeries(ctx context.Context, ticker string, lookbackYears int) (*models.PriceSeries, error)
}

// Dividend events outside this window are discarded at ingestion; the
// bounds guard against obviously corrupt upstream dates.
const (
	minDividendYear = 1990
	maxDividendYear = 2030
)

// filterDividendEvents drops events with non-finite or non-positive
// amounts and implausible years.
func filterDividendEvents(events []models.DividendEvent) []models.DividendEvent {
	filtered := make([]models.DividendEvent, 0, len(events))
	for _, ev := range events {
		if !isFinite(ev.Amount) || ev.Amount <= 0 {
			continue
		}
		year := ev.Date.UTC().Year()
		if year <= minDividendYear || year >= maxDividendYear {
			continue
		}
		filtered = append(filtered, ev)
	}
	return filtered
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
