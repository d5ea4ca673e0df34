package analysis

import (
	"ict-trading-terminal/internal/market"
)

// OrderBlock represents the range of the last opposing candle before a
// displacement move, treated as an institutional supply/demand zone.
type OrderBlock struct {
	Type   Direction
	Top    float64
	Bottom float64
	Index  int
	Broken bool
}

// DetectOrderBlocks scans for order blocks. A bullish block is a down
// candle whose successor closes above the down candle's high; bearish is
// the mirror. Blocks traded through on a closing basis are marked Broken.
func DetectOrderBlocks(candles []market.Candle) []OrderBlock {
	if len(candles) < 2 {
		return nil
	}

	var blocks []OrderBlock
	for i := 0; i < len(candles)-1; i++ {
		cur := candles[i]
		next := candles[i+1]

		if cur.Close < cur.Open && next.Close > cur.High {
			blocks = append(blocks, OrderBlock{
				Type:   Bullish,
				Top:    cur.High,
				Bottom: cur.Low,
				Index:  i,
			})
		}
		if cur.Close > cur.Open && next.Close < cur.Low {
			blocks = append(blocks, OrderBlock{
				Type:   Bearish,
				Top:    cur.High,
				Bottom: cur.Low,
				Index:  i,
			})
		}
	}

	for idx := range blocks {
		markBroken(&blocks[idx], candles)
	}
	return blocks
}

// markBroken flags a block once a later close violates its far edge.
func markBroken(ob *OrderBlock, candles []market.Candle) {
	for i := ob.Index + 2; i < len(candles); i++ {
		c := candles[i]
		if ob.Type == Bullish && c.Close < ob.Bottom {
			ob.Broken = true
			return
		}
		if ob.Type == Bearish && c.Close > ob.Top {
			ob.Broken = true
			return
		}
	}
}

// ActiveOrderBlocks filters to unbroken blocks of the given direction.
func ActiveOrderBlocks(blocks []OrderBlock, dir Direction) []OrderBlock {
	var out []OrderBlock
	for _, b := range blocks {
		if !b.Broken && b.Type == dir {
			out = append(out, b)
		}
	}
	return out
}
