package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	ossignal "os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ict-trading-terminal/config"
	"ict-trading-terminal/internal/ai/llm"
	"ict-trading-terminal/internal/analysis"
	"ict-trading-terminal/internal/market"
	"ict-trading-terminal/internal/session"
	"ict-trading-terminal/internal/signal"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}
	logger := newLogger(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := market.NewStore(cfg.Data.Dir, logger)
	defer store.Cleanup()

	// Ctrl+C cleans up the downloaded candle files before exiting.
	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\ninterrupted")
		cancel()
		store.Cleanup()
		os.Exit(130)
	}()

	selector := session.NewSelector(os.Stdin, os.Stdout)
	sess, err := selector.Run()
	if err != nil {
		if errors.Is(err, session.ErrCancelled) {
			fmt.Println("\nSession cancelled.")
			return 130
		}
		logger.Error().Err(err).Msg("session selection failed")
		return 1
	}

	client := market.NewClient(cfg.Market.APIKey, cfg.Market.BaseURL,
		time.Duration(cfg.Market.TimeoutSec)*time.Second, logger)
	quotes := market.NewQuoteService(client, logger)

	llmCfg := llm.DefaultClientConfig()
	llmCfg.Provider = llm.Provider(cfg.AI.Provider)
	llmCfg.APIKey = cfg.AI.APIKey
	if cfg.AI.Model != "" {
		llmCfg.Model = cfg.AI.Model
	}
	gen := signal.NewGenerator(llm.NewClient(llmCfg), logger)

	var sig *signal.Signal
	if sess.Timeframe.Multi {
		sig, err = runMulti(ctx, client, store, quotes, gen, sess, logger)
	} else {
		sig, err = runSingle(ctx, client, store, quotes, gen, sess, logger)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return 130
		}
		if errors.Is(err, market.ErrDataUnavailable) {
			logger.Error().Err(err).Msg("market data unavailable, cannot analyze")
		} else {
			logger.Error().Err(err).Msg("signal generation failed")
		}
		return 1
	}

	printSignal(os.Stdout, sess, sig)

	journal := signal.NewLog(filepath.Join(cfg.Data.Dir, cfg.Data.SignalLogFile))
	if err := journal.Append(sig); err != nil {
		logger.Warn().Err(err).Msg("could not write signal journal")
	}
	return 0
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
}

// runSingle drives the scalping, instant and setup sessions: one
// download, one snapshot, one signal.
func runSingle(ctx context.Context, client *market.Client, store *market.Store,
	quotes *market.QuoteService, gen *signal.Generator, sess session.Config, logger zerolog.Logger) (*signal.Signal, error) {

	tf := sess.Timeframe
	fmt.Printf("\nDownloading %s %s candles (%d days)...\n", sess.Asset.Name, tf.DisplayName, tf.DataDays)
	candles, err := client.TimeSeries(ctx, sess.Asset.Symbol, tf.Interval, market.MonthsBack(tf.DataDays))
	if err != nil {
		return nil, err
	}
	if _, err := store.Save(sess.Asset.DisplayName, tf.Interval, candles); err != nil {
		logger.Warn().Err(err).Msg("could not persist candles")
	}
	fmt.Printf("Got %d candles, newest is %s old.\n", len(candles), market.Age(candles).Round(time.Minute))

	snap, err := analysis.Compute(sess.Asset.Symbol, tf.Interval, candles)
	if err != nil {
		return nil, err
	}

	quote := quotes.Quote(ctx, sess.Asset.Symbol, snap.Close)
	fmt.Printf("Current price %.*f (%s)\n", sess.Asset.PriceDecimals, quote.Price, quote.Source)

	return gen.Generate(ctx, sess, snap, quote.Price)
}

// runMulti drives the multi-timeframe session: five downloads, five
// snapshots, one combined signal.
func runMulti(ctx context.Context, client *market.Client, store *market.Store,
	quotes *market.QuoteService, gen *signal.Generator, sess session.Config, logger zerolog.Logger) (*signal.Signal, error) {

	snaps := make(map[string]*analysis.Snapshot, len(sess.Timeframe.Parts))
	for _, part := range sess.Timeframe.Parts {
		fmt.Printf("\nDownloading %s %s candles (%s, %d days)...\n",
			sess.Asset.Name, part.Name, part.Purpose, part.DataDays)
		candles, err := client.TimeSeries(ctx, sess.Asset.Symbol, part.Interval, market.MonthsBack(part.DataDays))
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", part.Name, err)
		}
		if _, err := store.Save(sess.Asset.DisplayName, part.Interval, candles); err != nil {
			logger.Warn().Err(err).Msg("could not persist candles")
		}
		snap, err := analysis.Compute(sess.Asset.Symbol, part.Interval, candles)
		if err != nil {
			return nil, fmt.Errorf("analyze %s: %w", part.Name, err)
		}
		snaps[string(part.Interval)] = snap
	}

	exec, ok := snaps[signal.TF5Min]
	if !ok {
		return nil, fmt.Errorf("5m execution timeframe missing: %w", analysis.ErrInvalidIndicatorState)
	}
	quote := quotes.Quote(ctx, sess.Asset.Symbol, exec.Close)
	fmt.Printf("\nCurrent price %.*f (%s)\n", sess.Asset.PriceDecimals, quote.Price, quote.Source)

	return gen.GenerateMulti(ctx, sess, snaps, quote.Price)
}

// printSignal renders the final decision the way a trader reads it:
// action first, then levels, then the reasoning.
func printSignal(w io.Writer, sess session.Config, sig *signal.Signal) {
	dec := sess.Asset.PriceDecimals
	line := "============================================================"

	fmt.Fprintf(w, "\n%s\n", line)
	fmt.Fprintf(w, " %s | %s | %s\n", sig.Asset, sig.Mode, sess.Timeframe.DisplayName)
	fmt.Fprintf(w, "%s\n", line)

	if len(sig.TimeframeSummary) > 0 {
		for _, key := range []string{signal.TFDaily, signal.TF4Hour, signal.TF1Hour, signal.TF15Min, signal.TF5Min} {
			if summary, ok := sig.TimeframeSummary[key]; ok {
				fmt.Fprintf(w, " %-4s %s\n", key, summary)
			}
		}
		fmt.Fprintf(w, "%s\n", line)
	}

	fmt.Fprintf(w, "Action:        %s (%s)\n", sig.Action, sig.Source)
	fmt.Fprintf(w, "Current price: %.*f\n", dec, sig.CurrentPrice)

	if sig.Action == signal.ActionWait {
		fmt.Fprintf(w, "\nNo trade. %s\n", sig.Rationale)
		return
	}

	fmt.Fprintf(w, "Entry:         %.*f\n", dec, *sig.Entry)
	fmt.Fprintf(w, "Take profit:   %.*f\n", dec, *sig.TakeProfit)
	fmt.Fprintf(w, "Stop loss:     %.*f\n", dec, *sig.StopLoss)
	if rr := sig.RiskReward(); rr > 0 {
		fmt.Fprintf(w, "Risk/reward:   %.2f\n", rr)
	}
	fmt.Fprintf(w, "\nQuick copy: %s %s @ %.*f TP %.*f SL %.*f\n",
		sig.Action, sig.Asset, dec, *sig.Entry, dec, *sig.TakeProfit, dec, *sig.StopLoss)

	if sig.Action.Setup() {
		switch sig.Action {
		case signal.ActionBuySetup:
			fmt.Fprintf(w, "\nPending order: set an alert at %.*f and buy when price trades up through it.\n", dec, *sig.Entry)
		case signal.ActionSellSetup:
			fmt.Fprintf(w, "\nPending order: set an alert at %.*f and sell when price trades down through it.\n", dec, *sig.Entry)
		}
	}
	if sig.Explanation != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", "Why this setup:", sig.Explanation)
	}
}
