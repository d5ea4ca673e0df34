package signal

import (
	"strings"
	"testing"

	"ict-trading-terminal/internal/session"
)

func testAsset() session.Asset {
	return session.Asset{
		Name: "EUR/USD", Symbol: "EUR/USD", DisplayName: "EURUSD",
		PriceDecimals: 5, PipValue: 0.0001, PipBuffer: 5,
	}
}

func instantContext() ParseContext {
	return ParseContext{
		Asset:        testAsset(),
		Mode:         session.Mode{Name: "Instant Entry Mode", Type: session.ModeInstant, TPMultiple: 2.5, SLMultiple: 1.2},
		CurrentPrice: 1.08500,
		ATR:          0.00120,
	}
}

func setupContext() ParseContext {
	pc := instantContext()
	pc.Mode = session.Mode{Name: "Entry Setup Mode", Type: session.ModeSetup, TPMultiple: 2.5, SLMultiple: 1.2, ConfluenceThreshold: 2.0}
	return pc
}

func TestParseBuyWithLevels(t *testing.T) {
	raw := "BUY now.\nEntry: 1.08510\nTarget: 1.08910\nStop: 1.08310"
	s := Parse(raw, instantContext())

	if s.Action != ActionBuy {
		t.Fatalf("expected BUY, got %s", s.Action)
	}
	if s.Source != SourceAI {
		t.Errorf("expected AI source, got %s", s.Source)
	}
	if *s.Entry != 1.08510 || *s.TakeProfit != 1.08910 || *s.StopLoss != 1.08310 {
		t.Errorf("levels mismatch: %f %f %f", *s.Entry, *s.TakeProfit, *s.StopLoss)
	}
	if s.ID == "" {
		t.Error("signal must carry an id")
	}
}

func TestParseFirstOccurrenceWins(t *testing.T) {
	raw := "I would SELL into strength here rather than BUY. Levels: 1.08490 then 1.08190 with stop 1.08650"
	s := Parse(raw, instantContext())
	if s.Action != ActionSell {
		t.Fatalf("SELL appears first, expected SELL, got %s", s.Action)
	}
}

func TestParseGarbageIsWait(t *testing.T) {
	s := Parse("the market is unclear, no conviction either way", instantContext())
	if s.Action != ActionWait {
		t.Fatalf("expected WAIT, got %s", s.Action)
	}
	if s.Entry != nil || s.TakeProfit != nil || s.StopLoss != nil {
		t.Error("WAIT must carry no levels")
	}
}

func TestParseEmptyResponse(t *testing.T) {
	s := Parse("", instantContext())
	if s.Action != ActionWait {
		t.Fatalf("expected WAIT, got %s", s.Action)
	}
}

func TestParseActionWithoutLevelsFallsBackToATR(t *testing.T) {
	s := Parse("Strong BUY, no doubt about it", instantContext())
	if s.Action != ActionBuy {
		t.Fatalf("expected BUY, got %s", s.Action)
	}
	if s.Source != SourceAIATR {
		t.Errorf("expected AI+ATR source, got %s", s.Source)
	}
	if s.Entry == nil || *s.Entry != 1.08500 {
		t.Fatal("fallback entry must be the current price")
	}
	if *s.TakeProfit != 1.08800 || *s.StopLoss != 1.08356 {
		t.Errorf("fallback levels mismatch: %f %f", *s.TakeProfit, *s.StopLoss)
	}
}

func TestParseFallbackIsDeterministic(t *testing.T) {
	a := Parse("BUY it", instantContext())
	b := Parse("BUY it", instantContext())
	if *a.Entry != *b.Entry || *a.TakeProfit != *b.TakeProfit || *a.StopLoss != *b.StopLoss {
		t.Error("identical inputs must produce identical levels")
	}
}

func TestParseSetupBuyWhen(t *testing.T) {
	raw := "BUY WHEN price reaches 1.08650, target 1.09050, stop 1.08350\n" +
		"DETAILED_ICT_EXPLANATION: price is resting on a 1H bullish order block"
	s := Parse(raw, setupContext())

	if s.Action != ActionBuySetup {
		t.Fatalf("expected BUY_SETUP, got %s", s.Action)
	}
	if *s.Entry != 1.08650 {
		t.Errorf("expected trigger 1.08650, got %f", *s.Entry)
	}
	if !strings.Contains(s.Explanation, "order block") {
		t.Errorf("explanation not captured: %q", s.Explanation)
	}
	if strings.Contains(s.Explanation, "DETAILED_ICT_EXPLANATION") {
		t.Error("marker must be stripped from the explanation")
	}
}

func TestParseSetupSellWhen(t *testing.T) {
	s := Parse("SELL WHEN 1.09200 breaks, TP 1.08800, SL 1.09500", setupContext())
	if s.Action != ActionSellSetup {
		t.Fatalf("expected SELL_SETUP, got %s", s.Action)
	}
}

func TestParseSetupWithoutTriggerIsWait(t *testing.T) {
	s := Parse("BUY looks tempting but there is no clean trigger", setupContext())
	if s.Action != ActionWait {
		t.Fatalf("setup mode without WHEN phrasing must WAIT, got %s", s.Action)
	}
}

func TestParseIgnoresNumbersInExplanation(t *testing.T) {
	raw := "BUY WHEN price crosses 1.08650, target 1.09050, stop 1.08350\n" +
		"DETAILED_ICT_EXPLANATION: the 4H chart shows 3 bullish FVGs near 1.07000"
	s := Parse(raw, setupContext())
	if *s.StopLoss != 1.08350 {
		t.Errorf("explanation numbers leaked into levels: %f", *s.StopLoss)
	}
}

func TestParseRoundsExtractedLevels(t *testing.T) {
	s := Parse("BUY at 1.0851234, tp 1.0891299, sl 1.0831111", instantContext())
	if *s.Entry != 1.08512 {
		t.Errorf("expected 1.08512, got %f", *s.Entry)
	}
}

func TestParseZeroATRDegradesToWait(t *testing.T) {
	pc := instantContext()
	pc.ATR = 0
	s := Parse("BUY with everything", pc)
	if s.Action != ActionWait {
		t.Fatalf("unlevellable action must degrade to WAIT, got %s", s.Action)
	}
	if s.Entry != nil {
		t.Error("degraded WAIT must carry no levels")
	}
}
