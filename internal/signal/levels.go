package signal

import (
	"fmt"

	"ict-trading-terminal/internal/analysis"
)

// Levels are the three deterministic prices derived from ATR multiples.
type Levels struct {
	Entry      float64
	TakeProfit float64
	StopLoss   float64
}

// ComputeLevels derives entry, take-profit and stop-loss from the current
// price and ATR. Longs place TP above and SL below the entry, shorts the
// mirror image, so TP > Entry > SL always holds for longs and
// TP < Entry < SL for shorts. All three prices are rounded to the asset's
// display precision.
func ComputeLevels(action Action, price, atr, tpMult, slMult float64, decimals int) (Levels, error) {
	if atr <= 0 {
		return Levels{}, fmt.Errorf("atr %.6f: %w", atr, analysis.ErrInvalidIndicatorState)
	}
	var lv Levels
	switch {
	case action.Long():
		lv = Levels{
			Entry:      price,
			TakeProfit: price + atr*tpMult,
			StopLoss:   price - atr*slMult,
		}
	case action.Short():
		lv = Levels{
			Entry:      price,
			TakeProfit: price - atr*tpMult,
			StopLoss:   price + atr*slMult,
		}
	default:
		return Levels{}, fmt.Errorf("no levels for action %s", action)
	}
	lv.Entry = roundTo(lv.Entry, decimals)
	lv.TakeProfit = roundTo(lv.TakeProfit, decimals)
	lv.StopLoss = roundTo(lv.StopLoss, decimals)
	return lv, nil
}

// apply copies the levels onto the signal.
func (lv Levels) apply(s *Signal) {
	s.Entry = ptr(lv.Entry)
	s.TakeProfit = ptr(lv.TakeProfit)
	s.StopLoss = ptr(lv.StopLoss)
}
