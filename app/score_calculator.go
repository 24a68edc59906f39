package app

import (
	"math"

	"divscope/helpers"
	"divscope/models"
)

// Composite score weights. Cash generation dominates; price action is a
// small tiebreaker.
const (
	WeightPayout = 0.25
	WeightFcf    = 0.25
	WeightStreak = 0.17
	WeightGrowth = 0.16
	WeightTrend  = 0.07
	WeightMacd   = 0.06
	WeightRsi    = 0.04
)

// PayoutScore maps the EPS payout ratio to 0-100. An unknown or
// non-positive ratio scores 100: no data is treated as healthy rather
// than penalized, and a zero payout has no coverage risk.
func PayoutScore(ratio *float64) float64 {
	if ratio == nil || *ratio <= 0 {
		return 100
	}
	switch {
	case *ratio <= 0.6:
		return 100
	case *ratio >= 1.0:
		return 0
	default:
		return (1 - (*ratio-0.6)/0.4) * 100
	}
}

// FcfScore maps free-cash-flow dividend coverage to 0-100. Unknown
// coverage earns partial credit only when the payout ratio is known and
// comfortable.
func FcfScore(coverage, payoutRatio *float64) float64 {
	if coverage == nil {
		if payoutRatio != nil && *payoutRatio <= 0.6 {
			return 50
		}
		return 0
	}
	switch {
	case *coverage >= 2:
		return 100
	case *coverage <= 0:
		return 0
	default:
		return helpers.Clamp(*coverage/2, 0, 1) * 100
	}
}

// StreakScore saturates at a 20-year streak.
func StreakScore(streak int) float64 {
	return helpers.Clamp(float64(streak)/20, 0, 1) * 100
}

// GrowthScore maps the safe growth rate linearly: -10% -> 0, 0% -> 50,
// +10% -> 100.
func GrowthScore(rate float64) float64 {
	return helpers.Clamp((rate+0.10)/0.20, 0, 1) * 100
}

// TrendScore scores the price position against the 20/50/200 EMAs. Any
// missing reading scores 0.
func TrendScore(price float64, ema models.EmaSnapshot) float64 {
	if price <= 0 || ema.Ema20 == nil || ema.Ema50 == nil || ema.Ema200 == nil {
		return 0
	}

	score := 0.0
	if price > *ema.Ema200 {
		score += 50
	} else {
		score -= 20
	}
	if price > *ema.Ema50 {
		score += 30
	}
	if price > *ema.Ema20 {
		score += 20
	}
	if score < 0 {
		score = 0
	}
	return score
}

// MacdScore scores momentum around a neutral 50. The line-vs-signal
// crossover carries the most weight, then the histogram, then the
// absolute line position.
func MacdScore(macd models.MacdSnapshot) float64 {
	if macd.MacdLine == nil || macd.SignalLine == nil || macd.Histogram == nil {
		return 50 // Neutral if unavailable
	}

	score := 50.0
	score += helpers.Clamp((*macd.MacdLine-*macd.SignalLine)*15, -30, 30)
	score += helpers.Clamp(*macd.Histogram*10, -20, 20)
	score += helpers.Clamp(*macd.MacdLine*5, -10, 10)
	return helpers.Clamp(score, 0, 100)
}

// RsiScore rewards the mid-band and punishes exhaustion extremes.
func RsiScore(rsi models.RsiSnapshot) float64 {
	if rsi.Value == nil {
		return 50 // Neutral if unavailable
	}

	value := *rsi.Value
	switch {
	case value >= 40 && value <= 60:
		return 100
	case value >= 30 && value <= 70:
		return 85
	case value >= 20 && value <= 80:
		return 70
	case value > 90:
		return 10
	case value > 80:
		return 30
	case value < 10:
		return 20
	case value < 20:
		return 40
	}
	return 50
}

// TotalScore combines the sub-scores into the weighted composite,
// rounded to the nearest integer.
func TotalScore(scores models.DividendScores) int {
	weighted := WeightPayout*scores.Payout +
		WeightFcf*scores.Fcf +
		WeightStreak*scores.Streak +
		WeightGrowth*scores.Growth +
		WeightTrend*scores.Trend +
		WeightMacd*scores.Macd +
		WeightRsi*scores.Rsi
	return int(math.Round(weighted))
}
