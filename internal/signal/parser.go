package signal

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"ict-trading-terminal/internal/ai/llm"
	"ict-trading-terminal/internal/session"
)

// numberPattern matches unsigned decimal price literals in model output.
var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

// ParseContext carries everything the parser needs to turn raw model text
// into a complete signal, including the inputs of the ATR level fallback.
type ParseContext struct {
	Asset        session.Asset
	Mode         session.Mode
	CurrentPrice float64
	ATR          float64
}

// Parse classifies a free-text model response into a signal. It is total:
// any response, however malformed, yields a signal. Unrecognisable text
// classifies as WAIT; a recognised action whose response carries fewer
// than three usable numbers gets deterministic ATR-derived levels and an
// AI+ATR source tag.
func Parse(raw string, pc ParseContext) *Signal {
	s := &Signal{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Asset:        pc.Asset.Name,
		Mode:         pc.Mode.Name,
		Action:       ActionWait,
		CurrentPrice: pc.CurrentPrice,
		Source:       SourceAI,
		Rationale:    strings.TrimSpace(raw),
	}

	head := raw
	if pc.Mode.Type == session.ModeSetup {
		// The explanation block is display text, never parsed for levels.
		if i := strings.Index(raw, llm.ExplanationMarker); i >= 0 {
			head = raw[:i]
			s.Explanation = strings.TrimSpace(raw[i+len(llm.ExplanationMarker):])
		}
	}
	upper := strings.ToUpper(head)

	s.Action = classify(upper, pc.Mode.Type)
	if s.Action == ActionWait {
		return s
	}

	if entry, tp, sl, ok := extractLevels(head, pc.Asset.PriceDecimals); ok {
		s.Entry, s.TakeProfit, s.StopLoss = ptr(entry), ptr(tp), ptr(sl)
		return s
	}

	lv, err := ComputeLevels(s.Action, pc.CurrentPrice, pc.ATR, pc.Mode.TPMultiple, pc.Mode.SLMultiple, pc.Asset.PriceDecimals)
	if err != nil {
		// Degenerate ATR: no defensible levels exist, stand aside.
		s.Action = ActionWait
		s.Entry, s.TakeProfit, s.StopLoss = nil, nil, nil
		return s
	}
	lv.apply(s)
	s.Source = SourceAIATR
	return s
}

// classify maps uppercased response text to an action. Setup mode looks
// for conditional trigger phrasing; the other modes take whichever of
// BUY or SELL appears first.
func classify(upper string, mode session.ModeType) Action {
	if mode == session.ModeSetup {
		switch {
		case strings.Contains(upper, "BUY WHEN"):
			return ActionBuySetup
		case strings.Contains(upper, "SELL WHEN"):
			return ActionSellSetup
		default:
			return ActionWait
		}
	}
	buy := strings.Index(upper, "BUY")
	sell := strings.Index(upper, "SELL")
	switch {
	case buy >= 0 && (sell < 0 || buy < sell):
		return ActionBuy
	case sell >= 0:
		return ActionSell
	default:
		return ActionWait
	}
}

// extractLevels pulls the first three numbers out of the response text in
// positional order: entry, take profit, stop loss.
func extractLevels(text string, decimals int) (entry, tp, sl float64, ok bool) {
	matches := numberPattern.FindAllString(text, -1)
	values := make([]float64, 0, 3)
	for _, m := range matches {
		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}
		values = append(values, roundTo(v, decimals))
		if len(values) == 3 {
			break
		}
	}
	if len(values) < 3 {
		return 0, 0, 0, false
	}
	return values[0], values[1], values[2], true
}
