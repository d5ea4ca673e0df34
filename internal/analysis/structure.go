package analysis

import (
	"math"

	"ict-trading-terminal/internal/market"
)

// Bias is a directional lean derived from price action
type Bias string

const (
	BiasBullish Bias = "bullish"
	BiasBearish Bias = "bearish"
	BiasNeutral Bias = "neutral"
)

// Market structure states
const (
	StructureBullish = 1
	StructureBearish = -1
	StructureNeutral = 0
)

// Pivot is a confirmed swing high or low
type Pivot struct {
	Index int
	Price float64
}

// pivotStrength is the number of candles required on each side of a
// swing point before it is confirmed.
const pivotStrength = 2

// PivotHighs returns confirmed swing highs, oldest first.
func PivotHighs(candles []market.Candle) []Pivot {
	var pivots []Pivot
	for i := pivotStrength; i < len(candles)-pivotStrength; i++ {
		isPivot := true
		for j := i - pivotStrength; j <= i+pivotStrength; j++ {
			if j != i && candles[j].High >= candles[i].High {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Price: candles[i].High})
		}
	}
	return pivots
}

// PivotLows returns confirmed swing lows, oldest first.
func PivotLows(candles []market.Candle) []Pivot {
	var pivots []Pivot
	for i := pivotStrength; i < len(candles)-pivotStrength; i++ {
		isPivot := true
		for j := i - pivotStrength; j <= i+pivotStrength; j++ {
			if j != i && candles[j].Low <= candles[i].Low {
				isPivot = false
				break
			}
		}
		if isPivot {
			pivots = append(pivots, Pivot{Index: i, Price: candles[i].Low})
		}
	}
	return pivots
}

// StructureSeries classifies the market structure state per candle: a
// close above the last confirmed swing high flips to bullish (+1), a
// close below the last confirmed swing low flips to bearish (-1). The
// state persists until broken the other way.
func StructureSeries(candles []market.Candle, highs, lows []Pivot) []int {
	states := make([]int, len(candles))
	state := StructureNeutral
	hi, lo := 0, 0
	var lastHigh, lastLow *Pivot

	for i := range candles {
		// Advance to the most recent pivot confirmed at this candle.
		// A pivot with strength k is only known k candles later.
		for hi < len(highs) && highs[hi].Index+pivotStrength <= i {
			lastHigh = &highs[hi]
			hi++
		}
		for lo < len(lows) && lows[lo].Index+pivotStrength <= i {
			lastLow = &lows[lo]
			lo++
		}

		if lastHigh != nil && candles[i].Close > lastHigh.Price {
			state = StructureBullish
		} else if lastLow != nil && candles[i].Close < lastLow.Price {
			state = StructureBearish
		}
		states[i] = state
	}
	return states
}

// displacementLookback bounds how far back a displacement candle still
// colors the bias.
const displacementLookback = 10

// DisplacementBias finds the most recent candle whose body dwarfs the
// average body and returns its direction. Displacement marks an
// institutional push; its direction is the short-term bias.
func DisplacementBias(candles []market.Candle) Bias {
	if len(candles) < 20 {
		return BiasNeutral
	}

	avgBody := 0.0
	for _, c := range candles[len(candles)-20:] {
		avgBody += math.Abs(c.Close - c.Open)
	}
	avgBody /= 20

	if avgBody == 0 {
		return BiasNeutral
	}

	start := len(candles) - displacementLookback
	if start < 0 {
		start = 0
	}
	bias := BiasNeutral
	for i := start; i < len(candles); i++ {
		body := math.Abs(candles[i].Close - candles[i].Open)
		if body < avgBody*2 {
			continue
		}
		if candles[i].Close > candles[i].Open {
			bias = BiasBullish
		} else {
			bias = BiasBearish
		}
	}
	return bias
}

// TrendBias compares fast and slow EMAs (9/21) of closes.
func TrendBias(candles []market.Candle) Bias {
	cl := closes(candles)
	ema9 := EMA(cl, 9)
	ema21 := EMA(cl, 21)
	last := len(cl) - 1
	if last < 0 || ema9[last] == 0 || ema21[last] == 0 {
		return BiasNeutral
	}
	if ema9[last] > ema21[last] {
		return BiasBullish
	}
	if ema9[last] < ema21[last] {
		return BiasBearish
	}
	return BiasNeutral
}

// MomentumBias compares the last close against the fast EMA with a small
// dead band so flat tape reads neutral.
func MomentumBias(candles []market.Candle) Bias {
	cl := closes(candles)
	ema9 := EMA(cl, 9)
	last := len(cl) - 1
	if last < 0 || ema9[last] == 0 {
		return BiasNeutral
	}
	if cl[last] > ema9[last]*1.002 {
		return BiasBullish
	}
	if cl[last] < ema9[last]*0.998 {
		return BiasBearish
	}
	return BiasNeutral
}
