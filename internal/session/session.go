package session

import (
	"ict-trading-terminal/internal/market"
)

// Asset is an immutable instrument descriptor. PipValue is the minimum
// quoted increment in asset-native units; PipBuffer the number of pips of
// safety margin for trigger prices near key levels.
type Asset struct {
	Name          string
	Symbol        string
	DisplayName   string
	PriceDecimals int
	PipValue      float64
	PipBuffer     int
}

// BufferPrice converts the asset's pip buffer into price units.
func (a Asset) BufferPrice() float64 {
	return float64(a.PipBuffer) * a.PipValue
}

// ModeType identifies the generation strategy for a trading mode
type ModeType string

const (
	ModeScalping ModeType = "scalping"
	ModeInstant  ModeType = "instant"
	ModeSetup    ModeType = "setup"
	ModeMulti    ModeType = "multi"
)

// Mode is an immutable trading-mode descriptor. FixedInterval pins the
// timeframe (scalping); zero means the user selects one.
// ConfluenceThreshold only applies to the setup mode.
type Mode struct {
	Name                string
	Type                ModeType
	Description         string
	FixedInterval       market.Interval
	TPMultiple          float64
	SLMultiple          float64
	ConfluenceThreshold float64
}

// TimeframePart is one leg of a multi-timeframe analysis
type TimeframePart struct {
	Interval market.Interval
	Name     string
	Purpose  string
	DataDays int
}

// Timeframe is a selectable timeframe: either a single interval or the
// multi-timeframe top-down set.
type Timeframe struct {
	Name        string
	DisplayName string
	Interval    market.Interval
	DataDays    int
	Multi       bool
	Parts       []TimeframePart
}

// Config is the immutable result of the selection phase. It is produced
// once and passed by value into the analysis and generation stages.
type Config struct {
	Asset     Asset
	Mode      Mode
	Timeframe Timeframe
}

// Assets returns the supported instruments in menu order.
func Assets() []Asset {
	return []Asset{
		{Name: "EUR/USD", Symbol: "EUR/USD", DisplayName: "EURUSD", PriceDecimals: 5, PipValue: 0.0001, PipBuffer: 5},
		{Name: "GBP/USD", Symbol: "GBP/USD", DisplayName: "GBPUSD", PriceDecimals: 5, PipValue: 0.0001, PipBuffer: 5},
		{Name: "Gold (XAUUSD)", Symbol: "XAU/USD", DisplayName: "XAUUSD", PriceDecimals: 2, PipValue: 0.10, PipBuffer: 5},
		{Name: "Bitcoin", Symbol: "BTC/USD", DisplayName: "BITCOIN", PriceDecimals: 2, PipValue: 1.00, PipBuffer: 5},
	}
}

// Modes returns the selectable trading modes in menu order.
func Modes() []Mode {
	return []Mode{
		{
			Name:          "15-Min Scalping Mode",
			Type:          ModeScalping,
			Description:   "Quick scalp trades on 15-minute charts",
			FixedInterval: market.Interval15m,
			TPMultiple:    1.5,
			SLMultiple:    1.0,
		},
		{
			Name:        "Instant Entry Mode",
			Type:        ModeInstant,
			Description: "Immediate BUY/SELL signals",
			TPMultiple:  2.5,
			SLMultiple:  1.2,
		},
		{
			Name:                "Entry Setup Mode",
			Type:                ModeSetup,
			Description:         "High-probability trigger levels for pending orders",
			TPMultiple:          2.5,
			SLMultiple:          1.2,
			ConfluenceThreshold: 2.0,
		},
	}
}

// Timeframes returns the selectable timeframes in menu order. The last
// entry is the multi-timeframe top-down set.
func Timeframes() []Timeframe {
	return []Timeframe{
		{Name: "1 Minute", DisplayName: "1MIN", Interval: market.Interval1m, DataDays: 7},
		{Name: "5 Minutes", DisplayName: "5MIN", Interval: market.Interval5m, DataDays: 14},
		{Name: "15 Minutes", DisplayName: "15MIN", Interval: market.Interval15m, DataDays: 30},
		{
			Name:        "Multiple Timeframes",
			DisplayName: "MULTI-TF",
			Multi:       true,
			Parts: []TimeframePart{
				{Interval: market.Interval1d, Name: "Daily", Purpose: "Liquidity & Key Levels", DataDays: 90},
				{Interval: market.Interval4h, Name: "4 Hour", Purpose: "Main Analysis", DataDays: 60},
				{Interval: market.Interval1h, Name: "1 Hour", Purpose: "Trend Confirmation", DataDays: 30},
				{Interval: market.Interval15m, Name: "15 Minutes", Purpose: "Entry Zone", DataDays: 14},
				{Interval: market.Interval5m, Name: "5 Minutes", Purpose: "Fine-tuning Entry", DataDays: 7},
			},
		},
	}
}

// fixedTimeframe resolves a mode's fixed interval to its catalog entry.
func fixedTimeframe(interval market.Interval) (Timeframe, bool) {
	for _, tf := range Timeframes() {
		if !tf.Multi && tf.Interval == interval {
			return tf, true
		}
	}
	return Timeframe{}, false
}
