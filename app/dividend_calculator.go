package app

import (
	"sort"
	"time"

	"divscope/helpers"
	"divscope/models"
)

// StreakPolicy parameterizes streak detection. DeclineTolerance is the
// primary non-decrease tolerance; NoiseTolerance is the secondary
// threshold under which a one-year dip is forgiven when the following
// year recovers. Both are deliberate configuration, not constants:
// historical data feeds disagree on how much annual wobble is noise.
type StreakPolicy struct {
	DeclineTolerance float64
	NoiseTolerance   float64
}

// DefaultStreakPolicy returns the conservative defaults.
func DefaultStreakPolicy() StreakPolicy {
	return StreakPolicy{
		DeclineTolerance: 0.02,
		NoiseTolerance:   0.05,
	}
}

// AnnualizeDividends groups dividend events by UTC calendar year, sums
// the amounts and returns the series sorted ascending by year. Streak
// and CAGR computations rely on that ordering.
func AnnualizeDividends(events []models.DividendEvent) []models.AnnualDividendPoint {
	totals := make(map[int]float64)
	for _, ev := range events {
		totals[ev.Date.UTC().Year()] += ev.Amount
	}

	series := make([]models.AnnualDividendPoint, 0, len(totals))
	for year, amount := range totals {
		series = append(series, models.AnnualDividendPoint{Year: year, Amount: amount})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Year < series[j].Year })
	return series
}

// TTMDividends sums event amounts within the trailing 365 days of asOf.
func TTMDividends(events []models.DividendEvent, asOf time.Time) float64 {
	total := 0.0
	for _, ev := range events {
		if ev.Date.After(asOf) {
			continue
		}
		if asOf.Sub(ev.Date) <= 365*24*time.Hour {
			total += ev.Amount
		}
	}
	return total
}

// DividendStreak counts consecutive years, scanning backward from the
// most recent, in which the annual dividend did not meaningfully
// decrease. A dip smaller than the noise tolerance is forgiven when the
// following (more recent) year recovers to within the decline tolerance
// of the pre-dip level.
func DividendStreak(series []models.AnnualDividendPoint, policy StreakPolicy) int {
	count := 0
	for i := len(series) - 1; i >= 1; i-- {
		current := series[i].Amount
		previous := series[i-1].Amount

		if current >= previous*(1-policy.DeclineTolerance) {
			count++
			continue
		}

		decline := 0.0
		if previous > 0 {
			decline = (previous - current) / previous
		}
		if decline < policy.NoiseTolerance && i+1 < len(series) &&
			series[i+1].Amount >= previous*(1-policy.DeclineTolerance) {
			// Single-year wobble that the next year recovered from;
			// treat as data noise rather than a cut.
			count++
			continue
		}
		break
	}
	return count
}

// SafeGrowth derives the growth rate used for forward projection. Base
// is the 5-year CAGR, falling back to 3-year, then zero, clamped to
// [-10%, +15%]. A distressed issuer (stretched payout, FCF payout above
// 1, or a short streak) is never assumed to keep growing: the rate is
// capped at zero.
func SafeGrowth(cagr5, cagr3 *float64, fundamentals *models.Fundamentals, streak int) float64 {
	base := 0.0
	if cagr5 != nil {
		base = *cagr5
	} else if cagr3 != nil {
		base = *cagr3
	}
	base = helpers.Clamp(base, -0.10, 0.15)

	distressed := streak < 3
	if eps := fundamentals.EPSPayoutRatio(); eps != nil && *eps > 0.8 {
		distressed = true
	}
	if fcf := fundamentals.FCFPayoutRatio(); fcf != nil && *fcf > 1.0 {
		distressed = true
	}
	if distressed && base > 0 {
		base = 0
	}
	return base
}

// ForwardDividend projects the next twelve months of dividends from the
// trailing twelve months and the safe growth rate.
func ForwardDividend(ttmDividends, safeGrowth float64) *float64 {
	if ttmDividends <= 0 {
		return nil
	}
	forward := ttmDividends * (1 + safeGrowth)
	return &forward
}

// GordonGrowth computes the single-stage dividend discount fair value.
// The growth rate is clamped tighter than SafeGrowth ([-5%, +6%]) for
// valuation conservatism. A required return at or below the clamped
// growth rate is an expected no-result, not an error: the model's
// denominator would be non-positive.
func GordonGrowth(forwardDividend *float64, price, requiredReturn, safeGrowth float64) *float64 {
	g := helpers.Clamp(safeGrowth, -0.05, 0.06)
	if forwardDividend == nil || price <= 0 {
		return nil
	}
	if requiredReturn <= g {
		return nil
	}
	fairValue := *forwardDividend / (requiredReturn - g)
	return &fairValue
}
