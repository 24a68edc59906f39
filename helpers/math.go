package helpers

import (
	"math"

	"divscope/models"
)

// Clamp limits v to the inclusive range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sum adds a slice of float64 values.
func Sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}

// Round2 rounds to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CAGR computes the compound annual growth rate over an annual series.
// Only points with a positive value participate. Requires at least 2
// positive points spanning at least 2 years; returns nil otherwise.
func CAGR(series []models.AnnualDividendPoint) *float64 {
	var positive []models.AnnualDividendPoint
	for _, p := range series {
		if p.Amount > 0 {
			positive = append(positive, p)
		}
	}
	if len(positive) < 2 {
		return nil
	}

	first := positive[0]
	last := positive[len(positive)-1]
	years := last.Year - first.Year
	if years < 1 {
		years = 1
	}
	if years < 2 {
		return nil
	}

	rate := math.Pow(last.Amount/first.Amount, 1.0/float64(years)) - 1
	return &rate
}

// CAGRYears computes CAGR over the trailing n years of a year-ascending
// annual series (n years span n+1 points).
func CAGRYears(series []models.AnnualDividendPoint, years int) *float64 {
	if len(series) == 0 {
		return nil
	}
	window := years + 1
	if len(series) > window {
		series = series[len(series)-window:]
	}
	return CAGR(series)
}
