package app

import (
	"math"
	"sort"

	"divscope/helpers"
	"divscope/models"
)

// Standard indicator periods
const (
	MacdFastPeriod   = 12
	MacdSlowPeriod   = 26
	MacdSignalPeriod = 9
	RsiPeriod        = 14
)

// ExtractCloses normalizes either price series shape to one
// chronologically ascending close slice. Format detection happened at
// the provider boundary; here we only dispatch on the discriminant.
func ExtractCloses(series *models.PriceSeries) []float64 {
	if series == nil {
		return nil
	}

	switch series.Format {
	case models.SeriesFormatDaily:
		keys := make([]string, 0, len(series.Daily))
		for k := range series.Daily {
			keys = append(keys, k)
		}
		sort.Strings(keys) // ISO dates sort chronologically
		closes := make([]float64, 0, len(keys))
		for _, k := range keys {
			closes = append(closes, series.Daily[k])
		}
		return closes

	case models.SeriesFormatBars:
		bars := append([]models.PriceBar(nil), series.Bars...)
		sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
		closes := make([]float64, 0, len(bars))
		for _, b := range bars {
			closes = append(closes, b.Close)
		}
		return closes
	}
	return nil
}

// EMA computes the exponential moving average series. Requires at least
// period prices, otherwise returns an empty result. The value at index
// period-1 is seeded with the simple average of the first period prices;
// earlier indices are NaN.
func EMA(prices []float64, period int) []float64 {
	if period <= 0 || len(prices) < period {
		return nil
	}

	ema := make([]float64, len(prices))
	for i := 0; i < period-1; i++ {
		ema[i] = math.NaN()
	}
	ema[period-1] = helpers.Sum(prices[:period]) / float64(period)

	multiplier := 2.0 / float64(period+1)
	for i := period; i < len(prices); i++ {
		ema[i] = (prices[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

// LatestEMA returns the most recent EMA value, or nil when the series is
// too short for the period.
func LatestEMA(prices []float64, period int) *float64 {
	ema := EMA(prices, period)
	if len(ema) == 0 {
		return nil
	}
	latest := ema[len(ema)-1]
	return &latest
}

// EmaReadings computes the 20/50/200-period snapshot. Individual fields
// stay nil when the series is too short for that period.
func EmaReadings(prices []float64) models.EmaSnapshot {
	return models.EmaSnapshot{
		Ema20:  LatestEMA(prices, 20),
		Ema50:  LatestEMA(prices, 50),
		Ema200: LatestEMA(prices, 200),
	}
}

// MACD computes the latest MACD reading with the given periods. Requires
// at least slow+signal prices; otherwise all fields are nil
// (unavailable, not an error).
func MACD(prices []float64, fast, slow, signal int) models.MacdSnapshot {
	if len(prices) < slow+signal {
		return models.MacdSnapshot{}
	}

	fastEma := EMA(prices, fast)
	slowEma := EMA(prices, slow)

	// MACD line is defined from slow-1 onward, where both EMAs exist.
	macdLine := make([]float64, 0, len(prices)-slow+1)
	for i := slow - 1; i < len(prices); i++ {
		macdLine = append(macdLine, fastEma[i]-slowEma[i])
	}

	signalLine := EMA(macdLine, signal)
	if len(signalLine) == 0 {
		return models.MacdSnapshot{}
	}

	macd := macdLine[len(macdLine)-1]
	sig := signalLine[len(signalLine)-1]
	histogram := macd - sig
	return models.MacdSnapshot{
		MacdLine:   &macd,
		SignalLine: &sig,
		Histogram:  &histogram,
	}
}

// RSI computes the latest Wilder-smoothed relative strength index.
// Requires at least period+1 prices. An average loss of exactly zero
// yields RSI 100. The result is rounded to 2 decimals.
func RSI(prices []float64, period int) *float64 {
	if period <= 0 || len(prices) < period+1 {
		return nil
	}

	gains := make([]float64, 0, len(prices)-1)
	losses := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains = append(gains, delta)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -delta)
		}
	}

	avgGain := helpers.Sum(gains[:period]) / float64(period)
	avgLoss := helpers.Sum(losses[:period]) / float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	var rsi float64
	if avgLoss == 0 {
		rsi = 100
	} else {
		rsi = 100 - 100/(1+avgGain/avgLoss)
	}
	rsi = helpers.Round2(rsi)
	return &rsi
}

// RsiReading wraps RSI in its snapshot type.
func RsiReading(prices []float64) models.RsiSnapshot {
	return models.RsiSnapshot{Value: RSI(prices, RsiPeriod)}
}
