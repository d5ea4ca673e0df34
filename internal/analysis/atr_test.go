package analysis

import (
	"math"
	"testing"
)

func TestATRConstantRange(t *testing.T) {
	// Identical candles: every true range is High-Low = 1, so the
	// Wilder smoothing must settle at exactly 1.
	quads := make([][4]float64, 20)
	for i := range quads {
		quads[i] = [4]float64{1.2, 2, 1, 1.5}
	}
	candles := ohlc(quads...)

	atr := ATR(candles, DefaultATRPeriod)
	if len(atr) != len(candles) {
		t.Fatalf("expected %d entries, got %d", len(candles), len(atr))
	}
	for i := 0; i < DefaultATRPeriod-1; i++ {
		if atr[i] != 0 {
			t.Errorf("warmup entry %d should be zero, got %f", i, atr[i])
		}
	}
	for i := DefaultATRPeriod - 1; i < len(atr); i++ {
		if math.Abs(atr[i]-1) > 1e-9 {
			t.Errorf("entry %d: expected 1, got %f", i, atr[i])
		}
	}
}

func TestATRShortSeries(t *testing.T) {
	candles := ohlc([4]float64{1, 2, 0.5, 1.5}, [4]float64{1.5, 2.5, 1, 2})

	atr := ATR(candles, DefaultATRPeriod)
	for i, v := range atr {
		if v != 0 {
			t.Errorf("entry %d: series shorter than the period should stay zero, got %f", i, v)
		}
	}
}

func TestATRUsesGapTrueRange(t *testing.T) {
	// Second candle gaps up: true range must use the previous close,
	// not just High-Low.
	quads := make([][4]float64, 16)
	for i := range quads {
		quads[i] = [4]float64{10, 11, 9, 10}
	}
	quads[15] = [4]float64{15, 16, 14, 15} // |16-10| = 6 beats 16-14 = 2
	candles := ohlc(quads...)

	atr := ATR(candles, 14)
	last := atr[len(atr)-1]
	prev := atr[len(atr)-2]
	expected := (prev*13 + 6) / 14
	if math.Abs(last-expected) > 1e-9 {
		t.Errorf("expected %f, got %f", expected, last)
	}
}

func TestEMAConstantSeries(t *testing.T) {
	values := make([]float64, 15)
	for i := range values {
		values[i] = 42
	}

	ema := EMA(values, 9)
	for i := 8; i < len(ema); i++ {
		if math.Abs(ema[i]-42) > 1e-9 {
			t.Errorf("entry %d: expected 42, got %f", i, ema[i])
		}
	}
}

func TestEMAShortSeries(t *testing.T) {
	ema := EMA([]float64{1, 2, 3}, 9)
	for i, v := range ema {
		if v != 0 {
			t.Errorf("entry %d: expected zero, got %f", i, v)
		}
	}
}
