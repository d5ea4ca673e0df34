package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrCancelled indicates the user aborted the interactive selection.
var ErrCancelled = errors.New("selection cancelled")

// Selector drives the three-step interactive choice of mode, asset and
// timeframe and produces an immutable Config.
type Selector struct {
	in  *bufio.Reader
	out io.Writer
}

// NewSelector creates a selector reading choices from in and writing
// menus to out.
func NewSelector(in io.Reader, out io.Writer) *Selector {
	return &Selector{in: bufio.NewReader(in), out: out}
}

// Run performs the full selection sequence. EOF on input maps to
// ErrCancelled.
func (s *Selector) Run() (Config, error) {
	mode, err := s.selectMode()
	if err != nil {
		return Config{}, err
	}

	asset, err := s.selectAsset()
	if err != nil {
		return Config{}, err
	}

	tf, err := s.selectTimeframe(mode)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Asset: asset, Mode: mode, Timeframe: tf}
	if tf.Multi {
		cfg.Mode.Type = ModeMulti
	}
	return cfg, nil
}

func (s *Selector) selectMode() (Mode, error) {
	modes := Modes()

	fmt.Fprintln(s.out, "ENHANCED TRADING SYSTEM")
	fmt.Fprintln(s.out, strings.Repeat("=", 35))
	fmt.Fprintln(s.out, "Select your trading mode:")
	fmt.Fprintln(s.out)
	for i, m := range modes {
		fmt.Fprintf(s.out, "%d. %s\n   %s\n\n", i+1, m.Name, m.Description)
	}

	idx, err := s.choose("Enter your choice (1-3): ", len(modes))
	if err != nil {
		return Mode{}, err
	}
	fmt.Fprintf(s.out, "Selected: %s\n\n", modes[idx].Name)
	return modes[idx], nil
}

func (s *Selector) selectAsset() (Asset, error) {
	assets := Assets()

	fmt.Fprintln(s.out, "SELECT ASSET")
	fmt.Fprintln(s.out, strings.Repeat("=", 20))
	fmt.Fprintln(s.out, "Choose the asset to analyze:")
	fmt.Fprintln(s.out)
	for i, a := range assets {
		fmt.Fprintf(s.out, "%d. %s (%s)\n", i+1, a.Name, a.Symbol)
	}
	fmt.Fprintln(s.out)

	idx, err := s.choose("Enter your choice (1-4): ", len(assets))
	if err != nil {
		return Asset{}, err
	}
	fmt.Fprintf(s.out, "Selected: %s\n\n", assets[idx].Name)
	return assets[idx], nil
}

func (s *Selector) selectTimeframe(mode Mode) (Timeframe, error) {
	if mode.FixedInterval != "" {
		tf, ok := fixedTimeframe(mode.FixedInterval)
		if !ok {
			return Timeframe{}, fmt.Errorf("no timeframe for fixed interval %s", mode.FixedInterval)
		}
		fmt.Fprintf(s.out, "Timeframe: %s (fixed for %s)\n\n", tf.Name, mode.Name)
		return tf, nil
	}

	frames := Timeframes()

	fmt.Fprintln(s.out, "SELECT TIMEFRAME")
	fmt.Fprintln(s.out, strings.Repeat("=", 25))
	fmt.Fprintln(s.out, "Choose the timeframe for analysis:")
	fmt.Fprintln(s.out)
	for i, tf := range frames {
		if tf.Multi {
			fmt.Fprintf(s.out, "%d. %s (Top-down Analysis)\n   Daily -> 4H -> 1H -> 15M -> 5M\n", i+1, tf.Name)
		} else {
			fmt.Fprintf(s.out, "%d. %s (%s)\n", i+1, tf.Name, tf.Interval)
		}
	}
	fmt.Fprintln(s.out)

	idx, err := s.choose("Enter your choice (1-4): ", len(frames))
	if err != nil {
		return Timeframe{}, err
	}

	tf := frames[idx]
	if tf.Multi {
		fmt.Fprintln(s.out, "\nMulti-Timeframe Analysis Selected")
		for _, part := range tf.Parts {
			fmt.Fprintf(s.out, "  - %s: %s\n", part.Name, part.Purpose)
		}
	} else {
		fmt.Fprintf(s.out, "Selected: %s\n", tf.Name)
	}
	fmt.Fprintln(s.out)
	return tf, nil
}

// choose prompts until a valid 1-based choice within max is entered.
func (s *Selector) choose(prompt string, max int) (int, error) {
	for {
		fmt.Fprint(s.out, prompt)
		line, err := s.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return 0, ErrCancelled
			}
			return 0, fmt.Errorf("reading choice: %w", err)
		}

		choice, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || choice < 1 || choice > max {
			fmt.Fprintf(s.out, "Invalid choice. Please enter a number between 1 and %d.\n", max)
			continue
		}
		return choice - 1, nil
	}
}
