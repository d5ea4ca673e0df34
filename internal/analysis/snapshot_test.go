package analysis

import (
	"errors"
	"math"
	"testing"

	"ict-trading-terminal/internal/market"
)

// trendingCandles builds a gently rising series with enough range for a
// positive ATR.
func trendingCandles(n int) []market.Candle {
	quads := make([][4]float64, n)
	price := 100.0
	for i := range quads {
		quads[i] = [4]float64{price, price + 0.6, price - 0.4, price + 0.2}
		price += 0.2
	}
	return ohlc(quads...)
}

func TestComputeRejectsShortSeries(t *testing.T) {
	_, err := Compute("EUR/USD", market.Interval1h, trendingCandles(10))
	if !errors.Is(err, ErrInvalidIndicatorState) {
		t.Fatalf("expected ErrInvalidIndicatorState, got %v", err)
	}
}

func TestComputeSnapshot(t *testing.T) {
	candles := trendingCandles(60)
	snap, err := Compute("EUR/USD", market.Interval1h, candles)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snap.ATR <= 0 {
		t.Errorf("expected positive ATR, got %f", snap.ATR)
	}
	if snap.Close != candles[len(candles)-1].Close {
		t.Errorf("close mismatch: %f vs %f", snap.Close, candles[len(candles)-1].Close)
	}
	if len(snap.BullSeries) != len(candles) || len(snap.BearSeries) != len(candles) {
		t.Error("confluence series must cover every candle")
	}
}

func TestComputeRejectsZeroATR(t *testing.T) {
	// Zero-range candles yield a zero ATR.
	quads := make([][4]float64, 40)
	for i := range quads {
		quads[i] = [4]float64{100, 100, 100, 100}
	}
	_, err := Compute("EUR/USD", market.Interval1h, ohlc(quads...))
	if !errors.Is(err, ErrInvalidIndicatorState) {
		t.Fatalf("expected ErrInvalidIndicatorState, got %v", err)
	}
}

func TestRecentFormationsRespectLookback(t *testing.T) {
	snap := &Snapshot{
		Candles: make([]market.Candle, 50),
		OrderBlocks: []OrderBlock{
			{Type: Bullish, Index: 48},
			{Type: Bearish, Index: 10},
		},
		Gaps: []FVG{
			{Type: Bearish, Index: 47, Active: true},
			{Type: Bullish, Index: 46, Active: false},
		},
	}

	if !snap.RecentOrderBlock(Bullish, 5) {
		t.Error("block at index 48 is inside a lookback of 5")
	}
	if snap.RecentOrderBlock(Bearish, 5) {
		t.Error("block at index 10 is outside a lookback of 5")
	}
	if !snap.RecentFVG(Bearish, 5) {
		t.Error("active gap at index 47 is inside a lookback of 5")
	}
	if snap.RecentFVG(Bullish, 5) {
		t.Error("inactive gap must not count as recent")
	}
}

func TestAverageConfluence(t *testing.T) {
	snap := &Snapshot{
		Candles:    make([]market.Candle, 4),
		BullSeries: []float64{0, 2, 2, 2},
		BearSeries: []float64{0, 0, 1, 1},
	}

	bull, bear := snap.AverageConfluence(2)
	if math.Abs(bull-2) > 1e-9 {
		t.Errorf("expected bull 2, got %f", bull)
	}
	if math.Abs(bear-1) > 1e-9 {
		t.Errorf("expected bear 1, got %f", bear)
	}
}

func TestNearestSwings(t *testing.T) {
	snap := &Snapshot{
		ATR:        0.5,
		PivotHighs: []Pivot{{Price: 101}, {Price: 105}},
		PivotLows:  []Pivot{{Price: 95}, {Price: 99}},
	}

	if got := snap.NearestSwingHigh(100); got != 101 {
		t.Errorf("expected 101, got %f", got)
	}
	if got := snap.NearestSwingLow(100); got != 99 {
		t.Errorf("expected 99, got %f", got)
	}

	empty := &Snapshot{ATR: 0.5}
	if got := empty.NearestSwingHigh(100); got != 100.5 {
		t.Errorf("expected ATR fallback 100.5, got %f", got)
	}
	if got := empty.NearestSwingLow(100); got != 99.5 {
		t.Errorf("expected ATR fallback 99.5, got %f", got)
	}
}

func TestSupportResistanceLevels(t *testing.T) {
	snap := &Snapshot{
		PivotHighs: []Pivot{{Price: 103}, {Price: 101}, {Price: 99.5}},
		PivotLows:  []Pivot{{Price: 98}, {Price: 99}, {Price: 94}},
	}

	supports := snap.SupportLevels(100)
	if len(supports) != 3 {
		t.Fatalf("expected 3 supports, got %d", len(supports))
	}
	for i := 1; i < len(supports); i++ {
		if supports[i-1] > supports[i] {
			t.Fatal("supports must be ascending")
		}
	}

	resistances := snap.ResistanceLevels(100)
	if len(resistances) != 2 {
		t.Fatalf("expected 2 resistances, got %d", len(resistances))
	}
	if resistances[0] != 101 || resistances[1] != 103 {
		t.Errorf("expected [101 103], got %v", resistances)
	}
}
