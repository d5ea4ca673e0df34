package signal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ict-trading-terminal/internal/ai/llm"
	"ict-trading-terminal/internal/analysis"
	"ict-trading-terminal/internal/session"
)

// Lookback windows per mode, in candles.
const (
	scalpingLookback = 5
	instantLookback  = 10
	setupLookback    = 20
)

// Immediate-entry thresholds for the rule fallbacks.
const (
	scalpingMinSignals = 2
	instantThreshold   = 1.5
)

// Proximity bands for the setup confluence narrative, in ATR multiples.
const (
	obProximity  = 0.5
	fvgProximity = 0.3
)

// Completer is the slice of the model client the generator needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Generator turns an analysis snapshot into a trade signal. The language
// model is consulted first; when it is unavailable or unconfigured the
// deterministic ICT rule fallback produces the signal instead, so a
// generation cycle never fails for model reasons.
type Generator struct {
	model  Completer
	logger zerolog.Logger
}

func NewGenerator(model Completer, logger zerolog.Logger) *Generator {
	return &Generator{
		model:  model,
		logger: logger.With().Str("component", "signal").Logger(),
	}
}

// Generate produces a signal for the single-timeframe modes. Multi-
// timeframe sessions go through GenerateMulti instead.
func (g *Generator) Generate(ctx context.Context, cfg session.Config, snap *analysis.Snapshot, price float64) (*Signal, error) {
	switch cfg.Mode.Type {
	case session.ModeScalping:
		return g.scalping(ctx, cfg, snap, price)
	case session.ModeInstant:
		return g.instant(ctx, cfg, snap, price)
	case session.ModeSetup:
		return g.setup(ctx, cfg, snap, price)
	default:
		return nil, fmt.Errorf("mode %s not handled by single-timeframe generation", cfg.Mode.Type)
	}
}

func (g *Generator) scalping(ctx context.Context, cfg session.Config, snap *analysis.Snapshot, price float64) (*Signal, error) {
	sc := ScoreSnapshot(snap, scalpingLookback)
	prompt := llm.BuildScalpingPrompt(cfg.Asset.Name, cfg.Asset.PriceDecimals, price, snap.ATR, snap, llm.ScalpingData{
		BullSignals: sc.Bull,
		BearSignals: sc.Bear,
	})
	resp, err := g.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.scalpingFallback(cfg, snap, price, sc), nil
	}
	return Parse(resp, g.parseContext(cfg, price, snap.ATR)), nil
}

func (g *Generator) scalpingFallback(cfg session.Config, snap *analysis.Snapshot, price float64, sc Score) *Signal {
	var action Action
	switch {
	case sc.Bull > sc.Bear && sc.Bull >= scalpingMinSignals:
		action = ActionBuy
	case sc.Bear > sc.Bull && sc.Bear >= scalpingMinSignals:
		action = ActionSell
	default:
		action = ActionWait
	}
	rationale := fmt.Sprintf("Rule fallback: %.0f bullish vs %.0f bearish ICT signals over the last %d candles",
		sc.Bull, sc.Bear, scalpingLookback)
	s := g.newRuleSignal(cfg, action, price, rationale)
	if action == ActionWait {
		return s
	}
	g.applyATRLevels(s, cfg, price, snap.ATR)
	return s
}

func (g *Generator) instant(ctx context.Context, cfg session.Config, snap *analysis.Snapshot, price float64) (*Signal, error) {
	avg := AverageScore(snap, instantLookback)
	prompt := llm.BuildInstantPrompt(cfg.Asset.Name, cfg.Asset.PriceDecimals, price, snap.ATR, snap, llm.InstantData{
		AvgBullConfluence: avg.Bull,
		AvgBearConfluence: avg.Bear,
	})
	resp, err := g.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.instantFallback(cfg, snap, price, avg), nil
	}
	return Parse(resp, g.parseContext(cfg, price, snap.ATR)), nil
}

func (g *Generator) instantFallback(cfg session.Config, snap *analysis.Snapshot, price float64, avg Score) *Signal {
	var action Action
	switch {
	case avg.Bull >= instantThreshold && avg.Bull > avg.Bear:
		action = ActionBuy
	case avg.Bear >= instantThreshold && avg.Bear > avg.Bull:
		action = ActionSell
	default:
		action = ActionWait
	}
	rationale := fmt.Sprintf("Rule fallback: average confluence %.2f bull / %.2f bear over the last %d candles (entry needs %.1f)",
		avg.Bull, avg.Bear, instantLookback, instantThreshold)
	s := g.newRuleSignal(cfg, action, price, rationale)
	if action == ActionWait {
		return s
	}
	g.applyATRLevels(s, cfg, price, snap.ATR)
	return s
}

func (g *Generator) setup(ctx context.Context, cfg session.Config, snap *analysis.Snapshot, price float64) (*Signal, error) {
	swingHigh := snap.NearestSwingHigh(price)
	swingLow := snap.NearestSwingLow(price)
	sc := ScoreWithMomentum(snap, setupLookback)
	prompt := llm.BuildSetupPrompt(cfg.Asset.Name, cfg.Asset.PriceDecimals, price, snap.ATR, snap, llm.SetupData{
		SwingHigh:      swingHigh,
		SwingLow:       swingLow,
		PricePosition:  pricePosition(price, swingHigh, swingLow),
		ConfluenceText: confluenceNarrative(snap, price),
		PipBuffer:      cfg.Asset.PipBuffer,
	})
	resp, err := g.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return g.setupFallback(cfg, snap, price, sc, swingHigh, swingLow), nil
	}
	return Parse(resp, g.parseContext(cfg, price, snap.ATR)), nil
}

// setupFallback arms a pending order at the nearest swing level plus the
// asset's pip buffer, never at the current price. Below the confluence
// threshold it stands aside.
func (g *Generator) setupFallback(cfg session.Config, snap *analysis.Snapshot, price float64, sc Score, swingHigh, swingLow float64) *Signal {
	threshold := cfg.Mode.ConfluenceThreshold
	if sc.Max() < threshold {
		rationale := fmt.Sprintf("Rule fallback: confluence %.1f bull / %.1f bear below the %.1f setup threshold",
			sc.Bull, sc.Bear, threshold)
		return g.newRuleSignal(cfg, ActionWait, price, rationale)
	}

	buffer := cfg.Asset.BufferPrice()
	decimals := cfg.Asset.PriceDecimals
	atr := snap.ATR
	var (
		action Action
		entry  float64
		tp     float64
		sl     float64
		swing  string
	)
	if sc.Bullish() {
		action = ActionBuySetup
		entry = swingLow + buffer
		tp = entry + atr*cfg.Mode.TPMultiple
		sl = entry - atr*cfg.Mode.SLMultiple
		swing = fmt.Sprintf("swing low %.*f", decimals, swingLow)
	} else {
		action = ActionSellSetup
		entry = swingHigh - buffer
		tp = entry - atr*cfg.Mode.TPMultiple
		sl = entry + atr*cfg.Mode.SLMultiple
		swing = fmt.Sprintf("swing high %.*f", decimals, swingHigh)
	}

	rationale := fmt.Sprintf("Rule fallback: confluence %.1f bull / %.1f bear, trigger at the %s with a %d pip buffer",
		sc.Bull, sc.Bear, swing, cfg.Asset.PipBuffer)
	s := g.newRuleSignal(cfg, action, price, rationale)
	s.Entry = ptr(roundTo(entry, decimals))
	s.TakeProfit = ptr(roundTo(tp, decimals))
	s.StopLoss = ptr(roundTo(sl, decimals))
	return s
}

// Snapshot keys used by the multi-timeframe session, one per part.
const (
	TFDaily = "1d"
	TF4Hour = "4h"
	TF1Hour = "1h"
	TF15Min = "15m"
	TF5Min  = "5m"
)

// GenerateMulti produces a signal from the five-timeframe snapshot set.
// The 15-minute ATR sizes the levels and the 5-minute chart anchors the
// price; the higher timeframes vote on direction.
func (g *Generator) GenerateMulti(ctx context.Context, cfg session.Config, snaps map[string]*analysis.Snapshot, price float64) (*Signal, error) {
	for _, key := range []string{TFDaily, TF4Hour, TF1Hour, TF15Min, TF5Min} {
		if snaps[key] == nil {
			return nil, fmt.Errorf("timeframe %s: %w", key, analysis.ErrInvalidIndicatorState)
		}
	}
	atr := snaps[TF15Min].ATR
	sc := ScoreTimeframes(snaps[TFDaily], snaps[TF4Hour], snaps[TF1Hour])
	summaries := timeframeSummaries(snaps)

	prompt := llm.BuildMultiPrompt(cfg.Asset.Name, cfg.Asset.PriceDecimals, price, atr, snaps)
	resp, err := g.complete(ctx, prompt)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s := g.multiFallback(cfg, snaps[TF4Hour], price, atr, sc)
		s.TimeframeSummary = summaries
		return s, nil
	}
	s := Parse(resp, g.parseContext(cfg, price, atr))
	s.TimeframeSummary = summaries
	return s, nil
}

// multiFallback always arms a setup on the side the higher timeframes
// favour, anchored to the nearest 4-hour support or resistance. Ties
// resolve long.
func (g *Generator) multiFallback(cfg session.Config, h4 *analysis.Snapshot, price, atr float64, sc Score) *Signal {
	decimals := cfg.Asset.PriceDecimals
	supports := h4.SupportLevels(price)
	resistances := h4.ResistanceLevels(price)

	var (
		action Action
		entry  float64
		tp     float64
		sl     float64
		anchor string
	)
	if sc.Bullish() {
		support := price - 2*atr
		if len(supports) > 0 {
			support = supports[len(supports)-1]
		}
		action = ActionBuySetup
		entry = support + 0.2*atr
		sl = support - 1.0*atr
		tp = entry + 2.5*atr
		if len(resistances) > 0 && resistances[0] > entry {
			tp = resistances[0]
		}
		anchor = fmt.Sprintf("4H support %.*f", decimals, support)
	} else {
		resistance := price + 2*atr
		if len(resistances) > 0 {
			resistance = resistances[0]
		}
		action = ActionSellSetup
		entry = resistance - 0.2*atr
		sl = resistance + 1.0*atr
		tp = entry - 2.5*atr
		if len(supports) > 0 && supports[len(supports)-1] < entry {
			tp = supports[len(supports)-1]
		}
		anchor = fmt.Sprintf("4H resistance %.*f", decimals, resistance)
	}

	rationale := fmt.Sprintf("Rule fallback: multi-timeframe confluence %.1f bull / %.1f bear, setup at %s",
		sc.Bull, sc.Bear, anchor)
	s := g.newRuleSignal(cfg, action, price, rationale)
	s.Source = SourceMultiRule
	s.Entry = ptr(roundTo(entry, decimals))
	s.TakeProfit = ptr(roundTo(tp, decimals))
	s.StopLoss = ptr(roundTo(sl, decimals))
	return s
}

// complete wraps the model call with structured logging. The caller
// decides whether a model failure aborts or falls back.
func (g *Generator) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := g.model.Complete(ctx, llm.SystemPromptSignal, prompt)
	if err != nil {
		if errors.Is(err, llm.ErrModelUnavailable) {
			g.logger.Warn().Err(err).Msg("model unavailable, using rule fallback")
		}
		return "", err
	}
	return resp, nil
}

func (g *Generator) parseContext(cfg session.Config, price, atr float64) ParseContext {
	return ParseContext{
		Asset:        cfg.Asset,
		Mode:         cfg.Mode,
		CurrentPrice: price,
		ATR:          atr,
	}
}

func (g *Generator) newRuleSignal(cfg session.Config, action Action, price float64, rationale string) *Signal {
	return &Signal{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		Asset:        cfg.Asset.Name,
		Mode:         cfg.Mode.Name,
		Action:       action,
		CurrentPrice: price,
		Source:       SourceRules,
		Rationale:    rationale,
	}
}

func (g *Generator) applyATRLevels(s *Signal, cfg session.Config, price, atr float64) {
	lv, err := ComputeLevels(s.Action, price, atr, cfg.Mode.TPMultiple, cfg.Mode.SLMultiple, cfg.Asset.PriceDecimals)
	if err != nil {
		s.Action = ActionWait
		return
	}
	lv.apply(s)
}

// pricePosition describes where the current price sits inside the swing
// range, for the model prompt.
func pricePosition(price, swingHigh, swingLow float64) string {
	span := swingHigh - swingLow
	if span <= 0 {
		return "at the swing level"
	}
	pct := (price - swingLow) / span * 100
	switch {
	case pct < 25:
		return fmt.Sprintf("near the swing low (%.0f%% of the range)", pct)
	case pct > 75:
		return fmt.Sprintf("near the swing high (%.0f%% of the range)", pct)
	default:
		return fmt.Sprintf("mid-range (%.0f%% between swing low and high)", pct)
	}
}

// confluenceNarrative lists the active zones within striking distance of
// the price: order blocks within half an ATR and fair value gaps within
// a third of an ATR.
func confluenceNarrative(snap *analysis.Snapshot, price float64) string {
	var parts []string
	for _, ob := range snap.OrderBlocks {
		if ob.Broken {
			continue
		}
		var dist float64
		if ob.Type == analysis.Bullish {
			dist = price - ob.Top
		} else {
			dist = ob.Bottom - price
		}
		if dist >= 0 && dist <= snap.ATR*obProximity {
			parts = append(parts, fmt.Sprintf("%s order block %.5f-%.5f in play", ob.Type, ob.Bottom, ob.Top))
		}
	}
	for _, gap := range snap.Gaps {
		if !gap.Active {
			continue
		}
		var dist float64
		if gap.Type == analysis.Bullish {
			dist = price - gap.Top
		} else {
			dist = gap.Bottom - price
		}
		if dist >= 0 && dist <= snap.ATR*fvgProximity {
			parts = append(parts, fmt.Sprintf("unfilled %s FVG %.5f-%.5f nearby", gap.Type, gap.Bottom, gap.Top))
		}
	}
	if len(parts) == 0 {
		return "no order block or FVG within striking distance"
	}
	return strings.Join(parts, "; ")
}

func timeframeSummaries(snaps map[string]*analysis.Snapshot) map[string]string {
	out := make(map[string]string, len(snaps))
	for key, snap := range snaps {
		out[key] = fmt.Sprintf("structure %s, trend %s, momentum %s",
			structureWord(snap.Structure), snap.TrendBias, snap.MomentumBias)
	}
	return out
}

func structureWord(state int) string {
	switch state {
	case analysis.StructureBullish:
		return "bullish"
	case analysis.StructureBearish:
		return "bearish"
	default:
		return "neutral"
	}
}
