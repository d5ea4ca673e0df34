package analysis

import (
	"math"

	"ict-trading-terminal/internal/market"
)

// DefaultATRPeriod is the Wilder ATR lookback used across all modes.
const DefaultATRPeriod = 14

// ATR computes the Average True Range series using Wilder smoothing.
// The first period-1 entries are zero.
func ATR(candles []market.Candle, period int) []float64 {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	atr := make([]float64, len(candles))
	if len(candles) < period+1 {
		return atr
	}

	tr := make([]float64, len(candles))
	tr[0] = candles[0].High - candles[0].Low
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}

	// Seed with the simple average, then Wilder smoothing
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	atr[period-1] = sum / float64(period)
	for i := period; i < len(candles); i++ {
		atr[i] = (atr[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return atr
}

// EMA computes an exponential moving average series. Entries before the
// period are zero.
func EMA(values []float64, period int) []float64 {
	ema := make([]float64, len(values))
	if period <= 0 || len(values) < period {
		return ema
	}

	multiplier := 2.0 / float64(period+1)
	sum := 0.0
	for i := 0; i < period; i++ {
		sum += values[i]
	}
	ema[period-1] = sum / float64(period)
	for i := period; i < len(values); i++ {
		ema[i] = (values[i]-ema[i-1])*multiplier + ema[i-1]
	}
	return ema
}

func closes(candles []market.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
