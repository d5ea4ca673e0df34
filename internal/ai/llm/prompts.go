package llm

import (
	"fmt"
	"strings"

	"ict-trading-terminal/internal/analysis"
)

// SystemPromptSignal frames every mode's analysis request. The response
// format lines in the user prompts pin the ENTRY TP SL ordering the
// parser relies on.
const SystemPromptSignal = `You are an expert ICT (Inner Circle Trader) market analyst.
You analyze order blocks, fair value gaps, liquidity and market structure to produce precise trade signals.
Always answer in exactly the response format requested, with numeric price levels in the stated order.
Never invent indicator readings that are not in the provided data.`

// ScalpingData carries the confluence counts rendered into the scalping prompt
type ScalpingData struct {
	BullSignals float64
	BearSignals float64
}

// BuildScalpingPrompt renders the 15-minute scalping analysis request.
func BuildScalpingPrompt(assetName string, decimals int, price, atr float64, snap *analysis.Snapshot, data ScalpingData) string {
	return fmt.Sprintf(`%s 15-MINUTE SCALPING SIGNAL (ICT)

Current Price: $%.*f
ATR: $%.*f
Mode: SCALPING (Quick In/Out)

ICT Data (Last 5 candles):
- Bullish Signals: %.1f (OB: %v, FVG: %v)
- Bearish Signals: %.1f (OB: %v, FVG: %v)
- Market Structure: %d (1=Bull, -1=Bear, 0=Neutral)
- Displacement Bias: %s

SCALPING CRITERIA:
- Look for immediate momentum
- Prefer quick 1.5x ATR targets
- Tight 1.0x ATR stops

RESPOND WITH THIS FORMAT:
BUY [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [BRIEF_REASON]
OR
SELL [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [BRIEF_REASON]
OR
WAIT - [BRIEF_REASON]

Focus on immediate scalping opportunities with ICT confirmation.`,
		strings.ToUpper(assetName),
		decimals, price,
		decimals, atr,
		data.BullSignals, snap.RecentOrderBlock(analysis.Bullish, 5), snap.RecentFVG(analysis.Bullish, 5),
		data.BearSignals, snap.RecentOrderBlock(analysis.Bearish, 5), snap.RecentFVG(analysis.Bearish, 5),
		snap.Structure,
		snap.DisplacementBias)
}

// InstantData carries the rolling averages rendered into the instant prompt
type InstantData struct {
	AvgBullConfluence float64
	AvgBearConfluence float64
}

// BuildInstantPrompt renders the immediate-entry analysis request.
func BuildInstantPrompt(assetName string, decimals int, price, atr float64, snap *analysis.Snapshot, data InstantData) string {
	bullOB, bearOB := snap.CountOrderBlocks()
	return fmt.Sprintf(`%s INSTANT ENTRY SIGNAL

Current Price: $%.*f
ATR: $%.*f
Mode: INSTANT ENTRY

Recent ICT Data:
- Long Confluence Avg: %.1f
- Short Confluence Avg: %.1f
- Active Bullish OB: %d
- Active Bearish OB: %d
- Market Structure: %d
- Momentum Bias: %s

RESPOND WITH THIS FORMAT:
BUY [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [BRIEF_REASON]
OR
SELL [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [BRIEF_REASON]
OR
WAIT - [BRIEF_REASON]

Provide immediate entry recommendation.`,
		strings.ToUpper(assetName),
		decimals, price,
		decimals, atr,
		data.AvgBullConfluence,
		data.AvgBearConfluence,
		bullOB,
		bearOB,
		snap.Structure,
		snap.MomentumBias)
}

// ExplanationMarker separates the setup signal line from the detailed
// explanation block; the parser splits the response on it.
const ExplanationMarker = "DETAILED_ICT_EXPLANATION:"

// SetupData carries the swing context rendered into the setup prompt
type SetupData struct {
	SwingHigh      float64
	SwingLow       float64
	PricePosition  string
	ConfluenceText string
	PipBuffer      int
}

// BuildSetupPrompt renders the swing setup analysis request, asking for a
// trigger-level signal plus an educational explanation block.
func BuildSetupPrompt(assetName string, decimals int, price, atr float64, snap *analysis.Snapshot, data SetupData) string {
	bullOB, bearOB := snap.CountOrderBlocks()
	fvgUp, fvgDown := snap.CountActiveFVGs()
	return fmt.Sprintf(`%s SWING TRADING SETUP (ICT Analysis)

Current Price: $%.*f
ATR: $%.*f
Mode: ENTRY SETUP (Swing Trading Focus)

ICT Analysis:
- Market Structure: %d (1=Bull, -1=Bear, 0=Neutral)
- Active Order Blocks: %d Bull, %d Bear
- Active FVGs: %d Up, %d Down
- Displacement Bias: %s

Swing Analysis:
- Nearest Swing High: $%.*f (resistance)
- Nearest Swing Low: $%.*f (support)
- Price Position: %s

ICT Confluence Factors:
%s

SETUP CRITERIA:
- Generate swing-based entry setups from the ICT data above
- Include a %d-pip buffer from key levels
- Provide a detailed ICT explanation for educational value

RESPOND WITH THIS FORMAT:
BUY WHEN >= [TRIGGER_PRICE] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [SHORT_REASON]

%s
- Market Structure: [Explain current bias and why it supports the trade]
- Entry Logic: [Why this specific level is significant]
- Confluence: [List 2-3 supporting factors]
- Risk Management: [Stop and target justification]

OR

SELL WHEN <= [TRIGGER_PRICE] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [SHORT_REASON]

%s
[Same bullet points as above]

Generate practical swing setups with comprehensive ICT education.`,
		strings.ToUpper(assetName),
		decimals, price,
		decimals, atr,
		snap.Structure,
		bullOB, bearOB,
		fvgUp, fvgDown,
		snap.DisplacementBias,
		decimals, data.SwingHigh,
		decimals, data.SwingLow,
		data.PricePosition,
		data.ConfluenceText,
		data.PipBuffer,
		ExplanationMarker,
		ExplanationMarker)
}

// BuildMultiPrompt renders the multi-timeframe top-down analysis request.
// snaps keys are the interval codes 1d, 4h, 1h, 15m, 5m.
func BuildMultiPrompt(assetName string, decimals int, price, atr float64, snaps map[string]*analysis.Snapshot) string {
	daily := snaps["1d"]
	h4 := snaps["4h"]
	h1 := snaps["1h"]
	m5 := snaps["5m"]

	h4Support := h4.SupportLevels(price)
	h4Resistance := h4.ResistanceLevels(price)
	h1FVGUp, h1FVGDown := h1.CountActiveFVGs()
	h4Bull, h4Bear := h4.CountOrderBlocks()

	return fmt.Sprintf(`%s MULTI-TIMEFRAME ICT ANALYSIS

Current Price: $%.*f
ATR (15M): $%.*f

DAILY TIMEFRAME (Liquidity Analysis):
- Market Bias: %s
- Structure: %d (1=Bull, -1=Bear, 0=Neutral)

4 HOUR TIMEFRAME (Structure Analysis):
- Market Structure: %d
- Order Blocks: %d Bull, %d Bear
- Key Support Levels: %s
- Key Resistance Levels: %s

1 HOUR TIMEFRAME (Trend Analysis):
- Trend Direction: %s
- Momentum State: %s
- Active FVGs: %d Up, %d Down

5 MINUTE TIMEFRAME (Fine Entry):
- Short-term Bias: %s
- Last Close: $%.*f

ADVANCED ICT ENTRY CONDITIONS:
1. FVG-based Entries: enter when price reaches an untapped FVG, stop behind the
   formation candle, target the next significant FVG or OB.
2. Order Block Entries: enter at first retest of a fresh OB, stop behind the OB,
   target the nearest opposing FVG.
3. Market Structure Entries: enter after structure break and retest, stop behind
   the last structure point.

RESPOND WITH ONE OF THESE FORMATS:
BUY [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [SETUP_DESCRIPTION]
OR
SELL [ENTRY] TP:[TAKE_PROFIT] SL:[STOP_LOSS] - [SETUP_DESCRIPTION]
OR
WAIT - [SPECIFIC REASON AND NEXT SETUP TO WATCH FOR]

Generate a precise ICT setup with specific entry conditions.`,
		strings.ToUpper(assetName),
		decimals, price,
		decimals, atr,
		structureBias(daily.Structure),
		daily.Structure,
		h4.Structure,
		h4Bull, h4Bear,
		formatLevels(nearestSupports(h4Support), decimals),
		formatLevels(nearestResistances(h4Resistance), decimals),
		h1.TrendBias,
		h1.MomentumBias,
		h1FVGUp, h1FVGDown,
		m5.MomentumBias,
		decimals, m5.Close)
}

func structureBias(state int) analysis.Bias {
	switch state {
	case analysis.StructureBullish:
		return analysis.BiasBullish
	case analysis.StructureBearish:
		return analysis.BiasBearish
	}
	return analysis.BiasNeutral
}

// nearestSupports keeps the three highest supports, the ones closest
// below price (support lists are ascending).
func nearestSupports(levels []float64) []float64 {
	if len(levels) > 3 {
		return levels[len(levels)-3:]
	}
	return levels
}

// nearestResistances keeps the three lowest resistances, the ones
// closest above price (resistance lists are ascending).
func nearestResistances(levels []float64) []float64 {
	if len(levels) > 3 {
		return levels[:3]
	}
	return levels
}

func formatLevels(levels []float64, decimals int) string {
	if len(levels) == 0 {
		return "none"
	}
	parts := make([]string, len(levels))
	for i, l := range levels {
		parts[i] = fmt.Sprintf("%.*f", decimals, l)
	}
	return strings.Join(parts, ", ")
}
