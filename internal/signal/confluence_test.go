package signal

import (
	"testing"

	"ict-trading-terminal/internal/analysis"
	"ict-trading-terminal/internal/market"
)

func bullishSnapshot() *analysis.Snapshot {
	return &analysis.Snapshot{
		Candles:          make([]market.Candle, 50),
		ATR:              0.0012,
		Close:            1.085,
		Structure:        analysis.StructureBullish,
		DisplacementBias: analysis.BiasBullish,
		MomentumBias:     analysis.BiasBullish,
		TrendBias:        analysis.BiasBullish,
		OrderBlocks:      []analysis.OrderBlock{{Type: analysis.Bullish, Index: 48}},
		Gaps:             []analysis.FVG{{Type: analysis.Bullish, Index: 47, Active: true}},
	}
}

func TestScoreSnapshotAllBullish(t *testing.T) {
	sc := ScoreSnapshot(bullishSnapshot(), 5)
	if sc.Bull != 4 {
		t.Errorf("expected bull 4 (block, gap, structure, displacement), got %f", sc.Bull)
	}
	if sc.Bear != 0 {
		t.Errorf("expected bear 0, got %f", sc.Bear)
	}
}

func TestScoreSnapshotLookbackExcludesOldFormations(t *testing.T) {
	snap := bullishSnapshot()
	snap.OrderBlocks[0].Index = 10
	snap.Gaps[0].Index = 10

	sc := ScoreSnapshot(snap, 5)
	if sc.Bull != 2 {
		t.Errorf("only structure and displacement should count, got %f", sc.Bull)
	}
}

func TestScoreWithMomentumAddsHalfPoint(t *testing.T) {
	sc := ScoreWithMomentum(bullishSnapshot(), 5)
	if sc.Bull != 4.5 {
		t.Errorf("expected 4.5, got %f", sc.Bull)
	}
}

func TestScoreMaxAndTies(t *testing.T) {
	sc := Score{Bull: 1.5, Bear: 2.5}
	if sc.Max() != 2.5 {
		t.Errorf("expected 2.5, got %f", sc.Max())
	}
	if sc.Bullish() {
		t.Error("bear-heavy score must not read bullish")
	}

	tie := Score{Bull: 2, Bear: 2}
	if !tie.Bullish() {
		t.Error("ties must resolve bullish")
	}
}

func TestScoreTimeframes(t *testing.T) {
	daily := &analysis.Snapshot{Structure: analysis.StructureBullish}
	h4 := &analysis.Snapshot{Structure: analysis.StructureBearish}
	h1 := &analysis.Snapshot{
		TrendBias:    analysis.BiasBullish,
		MomentumBias: analysis.BiasBearish,
	}

	sc := ScoreTimeframes(daily, h4, h1)
	if sc.Bull != 2 {
		t.Errorf("expected bull 2 (daily structure + 1H trend), got %f", sc.Bull)
	}
	if sc.Bear != 1.5 {
		t.Errorf("expected bear 1.5 (4H structure + half momentum), got %f", sc.Bear)
	}
}

func TestAverageScore(t *testing.T) {
	snap := &analysis.Snapshot{
		Candles:    make([]market.Candle, 4),
		BullSeries: []float64{0, 3, 3, 3},
		BearSeries: []float64{0, 0, 0, 3},
	}
	sc := AverageScore(snap, 2)
	if sc.Bull != 3 || sc.Bear != 1.5 {
		t.Errorf("expected bull 3 bear 1.5, got %f %f", sc.Bull, sc.Bear)
	}
}
