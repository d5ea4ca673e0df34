package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"ict-trading-terminal/internal/market"
)

// ErrInvalidIndicatorState indicates indicator inputs that cannot yield
// meaningful levels: too few candles, or a zero/negative ATR.
var ErrInvalidIndicatorState = errors.New("invalid indicator state")

// minCandles is the minimum series length the engine needs: the ATR
// period plus EMA warmup.
const minCandles = 30

// Snapshot is the per-timeframe indicator state the signal core consumes.
// It is built once per analysis pass and never mutated afterwards.
type Snapshot struct {
	Symbol   string
	Interval market.Interval
	Candles  []market.Candle

	Close            float64
	ATR              float64
	Structure        int // +1 bullish, -1 bearish, 0 neutral
	DisplacementBias Bias
	TrendBias        Bias
	MomentumBias     Bias

	OrderBlocks []OrderBlock
	Gaps        []FVG
	PivotHighs  []Pivot
	PivotLows   []Pivot

	// Per-candle confluence series for rolling-average scoring
	BullSeries []float64
	BearSeries []float64

	structureSeries []int
}

// Compute runs the full indicator engine over the candles. Structural
// features that are simply absent come back as empty slices; a series too
// short to compute ATR is an error.
func Compute(symbol string, interval market.Interval, candles []market.Candle) (*Snapshot, error) {
	if len(candles) < minCandles {
		return nil, fmt.Errorf("%w: %d candles for %s %s, need %d",
			ErrInvalidIndicatorState, len(candles), symbol, interval, minCandles)
	}

	atr := ATR(candles, DefaultATRPeriod)
	highs := PivotHighs(candles)
	lows := PivotLows(candles)
	states := StructureSeries(candles, highs, lows)
	blocks := DetectOrderBlocks(candles)
	gaps := DetectFVGs(candles)

	snap := &Snapshot{
		Symbol:           symbol,
		Interval:         interval,
		Candles:          candles,
		Close:            candles[len(candles)-1].Close,
		ATR:              atr[len(atr)-1],
		Structure:        states[len(states)-1],
		DisplacementBias: DisplacementBias(candles),
		TrendBias:        TrendBias(candles),
		MomentumBias:     MomentumBias(candles),
		OrderBlocks:      blocks,
		Gaps:             gaps,
		PivotHighs:       highs,
		PivotLows:        lows,
		structureSeries:  states,
	}
	snap.BullSeries, snap.BearSeries = confluenceSeries(candles, blocks, gaps, states)

	if snap.ATR <= 0 {
		return nil, fmt.Errorf("%w: non-positive ATR for %s %s", ErrInvalidIndicatorState, symbol, interval)
	}
	return snap, nil
}

// confluenceSeries builds per-candle bull/bear scores from structural
// formations and the structure state at each candle.
func confluenceSeries(candles []market.Candle, blocks []OrderBlock, gaps []FVG, states []int) ([]float64, []float64) {
	bull := make([]float64, len(candles))
	bear := make([]float64, len(candles))

	for _, b := range blocks {
		if b.Type == Bullish {
			bull[b.Index]++
		} else {
			bear[b.Index]++
		}
	}
	for _, g := range gaps {
		if g.Type == Bullish {
			bull[g.Index]++
		} else {
			bear[g.Index]++
		}
	}
	for i, s := range states {
		switch s {
		case StructureBullish:
			bull[i]++
		case StructureBearish:
			bear[i]++
		}
	}
	return bull, bear
}

// RecentOrderBlock reports whether an unbroken order block (dir) formed
// within the last lookback candles.
func (s *Snapshot) RecentOrderBlock(dir Direction, lookback int) bool {
	cutoff := len(s.Candles) - lookback
	for _, b := range s.OrderBlocks {
		if b.Type == dir && !b.Broken && b.Index >= cutoff {
			return true
		}
	}
	return false
}

// RecentFVG reports whether an active gap (dir) formed within the last
// lookback candles.
func (s *Snapshot) RecentFVG(dir Direction, lookback int) bool {
	cutoff := len(s.Candles) - lookback
	for _, g := range s.Gaps {
		if g.Type == dir && g.Active && g.Index >= cutoff {
			return true
		}
	}
	return false
}

// AverageConfluence returns the mean bull and bear per-candle scores over
// the last lookback candles.
func (s *Snapshot) AverageConfluence(lookback int) (bull, bear float64) {
	if lookback <= 0 || lookback > len(s.Candles) {
		lookback = len(s.Candles)
	}
	start := len(s.Candles) - lookback
	for i := start; i < len(s.Candles); i++ {
		bull += s.BullSeries[i]
		bear += s.BearSeries[i]
	}
	return bull / float64(lookback), bear / float64(lookback)
}

// NearestSwingHigh returns the confirmed swing high closest to price.
// Falls back to price+ATR when no pivots exist.
func (s *Snapshot) NearestSwingHigh(price float64) float64 {
	return nearestPivot(s.PivotHighs, price, price+s.ATR)
}

// NearestSwingLow returns the confirmed swing low closest to price.
// Falls back to price-ATR when no pivots exist.
func (s *Snapshot) NearestSwingLow(price float64) float64 {
	return nearestPivot(s.PivotLows, price, price-s.ATR)
}

func nearestPivot(pivots []Pivot, price, fallback float64) float64 {
	if len(pivots) == 0 {
		return fallback
	}
	best := pivots[0].Price
	for _, p := range pivots[1:] {
		if math.Abs(p.Price-price) < math.Abs(best-price) {
			best = p.Price
		}
	}
	return best
}

// SupportLevels returns confirmed swing lows below price, ascending.
func (s *Snapshot) SupportLevels(price float64) []float64 {
	var levels []float64
	for _, p := range s.PivotLows {
		if p.Price < price {
			levels = append(levels, p.Price)
		}
	}
	sort.Float64s(levels)
	return levels
}

// ResistanceLevels returns confirmed swing highs above price, ascending.
func (s *Snapshot) ResistanceLevels(price float64) []float64 {
	var levels []float64
	for _, p := range s.PivotHighs {
		if p.Price > price {
			levels = append(levels, p.Price)
		}
	}
	sort.Float64s(levels)
	return levels
}

// CountOrderBlocks returns the number of unbroken blocks per direction.
func (s *Snapshot) CountOrderBlocks() (bull, bear int) {
	for _, b := range s.OrderBlocks {
		if b.Broken {
			continue
		}
		if b.Type == Bullish {
			bull++
		} else {
			bear++
		}
	}
	return bull, bear
}

// CountActiveFVGs returns the number of active gaps per direction.
func (s *Snapshot) CountActiveFVGs() (up, down int) {
	for _, g := range s.Gaps {
		if !g.Active {
			continue
		}
		if g.Type == Bullish {
			up++
		} else {
			down++
		}
	}
	return up, down
}
