package signal

import (
	"math"
	"time"
)

// Action is the classified trade decision
type Action string

const (
	ActionBuy       Action = "BUY"
	ActionSell      Action = "SELL"
	ActionBuySetup  Action = "BUY_SETUP"
	ActionSellSetup Action = "SELL_SETUP"
	ActionWait      Action = "WAIT"
)

// Long reports whether the action is long-biased.
func (a Action) Long() bool {
	return a == ActionBuy || a == ActionBuySetup
}

// Short reports whether the action is short-biased.
func (a Action) Short() bool {
	return a == ActionSell || a == ActionSellSetup
}

// Setup reports whether the action is a pending trigger rather than an
// immediate entry.
func (a Action) Setup() bool {
	return a == ActionBuySetup || a == ActionSellSetup
}

// Signal provenance tags: a consumer can tell model-derived signals from
// rule-derived ones by the Source field.
const (
	SourceAI        = "AI"
	SourceAIATR     = "AI+ATR"       // action from the model, levels from the ATR fallback
	SourceRules     = "ICT Rules"    // fully rule-derived, model unavailable
	SourceMultiRule = "Multi-TF ICT" // rule-derived from the multi-timeframe confluence
)

// Signal is the structured output of one generation cycle. It is built
// once and never mutated; WAIT signals carry nil levels, every other
// action carries all three.
type Signal struct {
	ID           string
	Timestamp    time.Time
	Asset        string
	Mode         string
	Action       Action
	CurrentPrice float64
	Entry        *float64
	TakeProfit   *float64
	StopLoss     *float64
	Source       string
	Rationale    string

	// Setup mode only: the detailed explanation block of the response
	Explanation string

	// Multi-timeframe mode only: per-interval one-line summaries
	TimeframeSummary map[string]string
}

// RiskReward returns the reward/risk ratio of the levels, or 0 for WAIT
// signals and degenerate stops.
func (s *Signal) RiskReward() float64 {
	if s.Entry == nil || s.TakeProfit == nil || s.StopLoss == nil {
		return 0
	}
	var reward, risk float64
	if s.Action.Long() {
		reward = *s.TakeProfit - *s.Entry
		risk = *s.Entry - *s.StopLoss
	} else {
		reward = *s.Entry - *s.TakeProfit
		risk = *s.StopLoss - *s.Entry
	}
	if risk <= 0 {
		return 0
	}
	return reward / risk
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

func ptr(v float64) *float64 {
	return &v
}
