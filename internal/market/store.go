package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Store persists downloaded candles as per-run CSV files and tracks every
// file it creates so Cleanup can remove them on any exit path.
type Store struct {
	dir     string
	mu      sync.Mutex
	created []string
	logger  zerolog.Logger
}

// NewStore creates a store rooted at dir (the working directory if empty).
func NewStore(dir string, logger zerolog.Logger) *Store {
	if dir == "" {
		dir = "."
	}
	return &Store{
		dir:    dir,
		logger: logger.With().Str("component", "store").Logger(),
	}
}

// Save writes candles to a CSV named after the asset and interval and
// registers the file for cleanup. Returns the file path.
func (s *Store) Save(displayName string, interval Interval, candles []Candle) (string, error) {
	name := fmt.Sprintf("%s_%s_data.csv", strings.ToLower(displayName), interval)
	path := filepath.Join(s.dir, name)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", s.dir, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"datetime", "open", "high", "low", "close", "volume"}); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}
	for _, c := range candles {
		row := []string{
			c.Time.Format("2006-01-02 15:04:05"),
			formatPrice(c.Open),
			formatPrice(c.High),
			formatPrice(c.Low),
			formatPrice(c.Close),
			formatPrice(c.Volume),
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("writing row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}

	s.track(path)
	return path, nil
}

// Load reads candles back from a CSV written by Save.
func (s *Store) Load(path string) ([]Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no candles in %s", path)
	}

	candles := make([]Candle, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) < 5 {
			continue
		}
		t, err := parseDatetime(row[0])
		if err != nil {
			continue
		}
		c := Candle{
			Time:  t,
			Open:  parseFloat(row[1]),
			High:  parseFloat(row[2]),
			Low:   parseFloat(row[3]),
			Close: parseFloat(row[4]),
		}
		if len(row) > 5 {
			c.Volume = parseFloat(row[5])
		}
		candles = append(candles, c)
	}
	return candles, nil
}

// track registers a created file for removal on Cleanup.
func (s *Store) track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, path)
}

// Created returns the paths of files created during this run.
func (s *Store) Created() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.created))
	copy(out, s.created)
	return out
}

// Cleanup removes every file created during the run. It is safe to call
// more than once and from a signal handler.
func (s *Store) Cleanup() {
	s.mu.Lock()
	files := s.created
	s.created = nil
	s.mu.Unlock()

	for _, path := range files {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("file", path).Msg("could not remove temp file")
			continue
		}
		s.logger.Debug().Str("file", path).Msg("temp file removed")
	}
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// MonthsBack converts a lookback in days to whole months, minimum one.
func MonthsBack(days int) int {
	months := days / 30
	if months < 1 {
		months = 1
	}
	return months
}

// Age reports how old the newest candle is. Used to warn when the
// provider returned stale data for the selected interval.
func Age(candles []Candle) time.Duration {
	if len(candles) == 0 {
		return 0
	}
	return time.Since(candles[len(candles)-1].Time)
}
