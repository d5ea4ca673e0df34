package signal

import "ict-trading-terminal/internal/analysis"

// Score holds the opposing confluence totals for one snapshot.
type Score struct {
	Bull float64
	Bear float64
}

// Max returns the stronger of the two sides.
func (s Score) Max() float64 {
	if s.Bear > s.Bull {
		return s.Bear
	}
	return s.Bull
}

// Bullish reports whether the bull side is at least as strong as the bear
// side. Ties resolve bullish.
func (s Score) Bullish() bool {
	return s.Bull >= s.Bear
}

// ScoreSnapshot tallies the discrete confluence conditions over the last
// lookback candles: one point each for a recent order block, a recent
// fair value gap, the prevailing structure state and a displacement
// candle, credited to the matching side.
func ScoreSnapshot(snap *analysis.Snapshot, lookback int) Score {
	var sc Score
	if snap.RecentOrderBlock(analysis.Bullish, lookback) {
		sc.Bull++
	}
	if snap.RecentOrderBlock(analysis.Bearish, lookback) {
		sc.Bear++
	}
	if snap.RecentFVG(analysis.Bullish, lookback) {
		sc.Bull++
	}
	if snap.RecentFVG(analysis.Bearish, lookback) {
		sc.Bear++
	}
	switch snap.Structure {
	case analysis.StructureBullish:
		sc.Bull++
	case analysis.StructureBearish:
		sc.Bear++
	}
	switch snap.DisplacementBias {
	case analysis.BiasBullish:
		sc.Bull++
	case analysis.BiasBearish:
		sc.Bear++
	}
	return sc
}

// ScoreWithMomentum extends ScoreSnapshot with a half point for the
// momentum bias. Setup mode weighs momentum lighter than the structural
// conditions.
func ScoreWithMomentum(snap *analysis.Snapshot, lookback int) Score {
	sc := ScoreSnapshot(snap, lookback)
	switch snap.MomentumBias {
	case analysis.BiasBullish:
		sc.Bull += 0.5
	case analysis.BiasBearish:
		sc.Bear += 0.5
	}
	return sc
}

// AverageScore is the continuous variant: the mean per-candle confluence
// count over the last lookback candles, one value per side.
func AverageScore(snap *analysis.Snapshot, lookback int) Score {
	bull, bear := snap.AverageConfluence(lookback)
	return Score{Bull: bull, Bear: bear}
}

// ScoreTimeframes combines the higher-timeframe snapshots for the
// multi-timeframe mode: daily and 4H structure carry a full point each,
// the 1H trend a full point and the 1H momentum half a point.
func ScoreTimeframes(daily, h4, h1 *analysis.Snapshot) Score {
	var sc Score
	for _, snap := range []*analysis.Snapshot{daily, h4} {
		switch snap.Structure {
		case analysis.StructureBullish:
			sc.Bull++
		case analysis.StructureBearish:
			sc.Bear++
		}
	}
	switch h1.TrendBias {
	case analysis.BiasBullish:
		sc.Bull++
	case analysis.BiasBearish:
		sc.Bear++
	}
	switch h1.MomentumBias {
	case analysis.BiasBullish:
		sc.Bull += 0.5
	case analysis.BiasBearish:
		sc.Bear += 0.5
	}
	return sc
}
