package analysis

import (
	"ict-trading-terminal/internal/market"
)

// Direction tags a structural object as bullish or bearish
type Direction string

const (
	Bullish Direction = "bullish"
	Bearish Direction = "bearish"
)

// FVG represents a Fair Value Gap: a price range skipped by a sharp
// three-candle move, expected to act as a retracement target.
type FVG struct {
	Type   Direction
	Top    float64
	Bottom float64
	Index  int // index of the middle (gap creator) candle
	Active bool
}

// DetectFVGs identifies fair value gaps in the candles. A bullish FVG is
// the gap between candle1's high and candle3's low; bearish is the
// mirror. Gaps later traded through are returned with Active=false.
func DetectFVGs(candles []market.Candle) []FVG {
	if len(candles) < 3 {
		return nil
	}

	var fvgs []FVG
	for i := 0; i < len(candles)-2; i++ {
		c1 := candles[i]
		c3 := candles[i+2]

		if c1.High < c3.Low {
			fvgs = append(fvgs, FVG{
				Type:   Bullish,
				Top:    c3.Low,
				Bottom: c1.High,
				Index:  i + 1,
				Active: true,
			})
		}
		if c1.Low > c3.High {
			fvgs = append(fvgs, FVG{
				Type:   Bearish,
				Top:    c1.Low,
				Bottom: c3.High,
				Index:  i + 1,
				Active: true,
			})
		}
	}

	for idx := range fvgs {
		markFilled(&fvgs[idx], candles)
	}
	return fvgs
}

// markFilled deactivates a gap once price has wicked back into or
// through it.
func markFilled(fvg *FVG, candles []market.Candle) {
	for i := fvg.Index + 2; i < len(candles); i++ {
		c := candles[i]
		if fvg.Type == Bullish {
			if c.Low <= fvg.Top {
				fvg.Active = false
				return
			}
		} else {
			if c.High >= fvg.Bottom {
				fvg.Active = false
				return
			}
		}
	}
}

// ActiveFVGs filters to unfilled gaps of the given direction.
func ActiveFVGs(fvgs []FVG, dir Direction) []FVG {
	var out []FVG
	for _, f := range fvgs {
		if f.Active && f.Type == dir {
			out = append(out, f)
		}
	}
	return out
}
