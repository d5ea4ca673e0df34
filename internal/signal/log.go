package signal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var logHeader = []string{
	"id", "timestamp", "asset", "mode", "action",
	"current_price", "entry", "take_profit", "stop_loss",
	"source", "rationale",
}

// Log appends generated signals to a CSV journal so a session's decisions
// survive the terminal. The header is written once, when the file is
// created.
type Log struct {
	path string
}

func NewLog(path string) *Log {
	return &Log{path: path}
}

// Append writes one signal as a CSV row, creating the file and its
// directory on first use.
func (l *Log) Append(s *Signal) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create signal log directory: %w", err)
	}
	info, err := os.Stat(l.path)
	writeHeader := err != nil || info.Size() == 0

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open signal log: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(logHeader); err != nil {
			return fmt.Errorf("write signal log header: %w", err)
		}
	}
	if err := w.Write(row(s)); err != nil {
		return fmt.Errorf("write signal log row: %w", err)
	}
	w.Flush()
	return w.Error()
}

func row(s *Signal) []string {
	return []string{
		s.ID,
		s.Timestamp.Format(time.RFC3339),
		s.Asset,
		s.Mode,
		string(s.Action),
		fmt.Sprintf("%g", s.CurrentPrice),
		formatLevel(s.Entry),
		formatLevel(s.TakeProfit),
		formatLevel(s.StopLoss),
		s.Source,
		s.Rationale,
	}
}

func formatLevel(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}
