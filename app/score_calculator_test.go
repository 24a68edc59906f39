package app

import (
	"math"
	"testing"

	"divscope/models"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPayoutScore(t *testing.T) {
	tests := []struct {
		name     string
		ratio    *float64
		expected float64
	}{
		{"unknown scores full", nil, 100},
		{"zero payout has no risk", floatPtr(0), 100},
		{"comfortable 50%", floatPtr(0.5), 100},
		{"at the 60% knee", floatPtr(0.6), 100},
		{"stretched 80%", floatPtr(0.8), 50},
		{"full earnings", floatPtr(1.0), 0},
		{"paying beyond earnings", floatPtr(1.2), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PayoutScore(tt.ratio)
			if !approx(result, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestFcfScore(t *testing.T) {
	tests := []struct {
		name     string
		coverage *float64
		payout   *float64
		expected float64
	}{
		{"strong coverage", floatPtr(2.5), nil, 100},
		{"exactly 2x", floatPtr(2.0), nil, 100},
		{"1x coverage", floatPtr(1.0), nil, 50},
		{"negative free cash flow", floatPtr(-0.5), nil, 0},
		{"unknown with comfortable payout", nil, floatPtr(0.5), 50},
		{"unknown with stretched payout", nil, floatPtr(0.9), 0},
		{"unknown with unknown payout", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FcfScore(tt.coverage, tt.payout)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestStreakScore(t *testing.T) {
	tests := []struct {
		streak   int
		expected float64
	}{
		{0, 0},
		{10, 50},
		{20, 100},
		{68, 100}, // saturates
	}

	for _, tt := range tests {
		result := StreakScore(tt.streak)
		if result != tt.expected {
			t.Errorf("streak %d: expected %v, got %v", tt.streak, tt.expected, result)
		}
	}
}

func TestGrowthScore(t *testing.T) {
	tests := []struct {
		rate     float64
		expected float64
	}{
		{-0.10, 0},
		{0, 50},
		{0.05, 75},
		{0.10, 100},
		{0.15, 100}, // saturates
	}

	for _, tt := range tests {
		result := GrowthScore(tt.rate)
		if !approx(result, tt.expected) {
			t.Errorf("rate %v: expected %v, got %v", tt.rate, tt.expected, result)
		}
	}
}

func TestTrendScore(t *testing.T) {
	ema := models.EmaSnapshot{
		Ema20:  floatPtr(100),
		Ema50:  floatPtr(98),
		Ema200: floatPtr(95),
	}

	tests := []struct {
		name     string
		price    float64
		ema      models.EmaSnapshot
		expected float64
	}{
		{"above all", 105, ema, 100},
		{"above 200 and 50 only", 99, ema, 80},
		{"above 200 only", 97, ema, 50},
		{"below all floors at zero", 90, ema, 0},
		{"missing readings", 105, models.EmaSnapshot{Ema20: floatPtr(100)}, 0},
		{"no price", 0, ema, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TrendScore(tt.price, tt.ema)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestMacdScore(t *testing.T) {
	t.Run("unavailable is neutral", func(t *testing.T) {
		if got := MacdScore(models.MacdSnapshot{}); got != 50 {
			t.Errorf("expected 50, got %v", got)
		}
	})

	t.Run("bullish crossover scores above neutral", func(t *testing.T) {
		macd := models.MacdSnapshot{
			MacdLine:   floatPtr(1.5),
			SignalLine: floatPtr(0.5),
			Histogram:  floatPtr(1.0),
		}
		got := MacdScore(macd)
		if got <= 50 {
			t.Errorf("expected above neutral, got %v", got)
		}
		if got > 100 {
			t.Errorf("expected at most 100, got %v", got)
		}
	})

	t.Run("bearish crossover scores below neutral", func(t *testing.T) {
		macd := models.MacdSnapshot{
			MacdLine:   floatPtr(-1.5),
			SignalLine: floatPtr(-0.5),
			Histogram:  floatPtr(-1.0),
		}
		got := MacdScore(macd)
		if got >= 50 {
			t.Errorf("expected below neutral, got %v", got)
		}
		if got < 0 {
			t.Errorf("expected at least 0, got %v", got)
		}
	})
}

func TestRsiScore(t *testing.T) {
	tests := []struct {
		name     string
		value    *float64
		expected float64
	}{
		{"unavailable is neutral", nil, 50},
		{"mid band", floatPtr(50), 100},
		{"healthy band", floatPtr(35), 85},
		{"wide band", floatPtr(75), 70},
		{"overbought", floatPtr(85), 30},
		{"severely overbought", floatPtr(95), 10},
		{"oversold", floatPtr(15), 40},
		{"severely oversold", floatPtr(5), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RsiScore(models.RsiSnapshot{Value: tt.value})
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestTotalScore(t *testing.T) {
	all := func(v float64) models.DividendScores {
		return models.DividendScores{Payout: v, Fcf: v, Streak: v, Growth: v, Trend: v, Macd: v, Rsi: v}
	}

	if got := TotalScore(all(100)); got != 100 {
		t.Errorf("expected 100, got %d", got)
	}
	if got := TotalScore(all(0)); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}

	mixed := models.DividendScores{
		Payout: 100, Fcf: 100, Streak: 50, Growth: 50, Trend: 0, Macd: 50, Rsi: 50,
	}
	// 0.25*100 + 0.25*100 + 0.17*50 + 0.16*50 + 0 + 0.06*50 + 0.04*50 = 71.5
	if got := TotalScore(mixed); got != 72 {
		t.Errorf("expected 72, got %d", got)
	}
}
