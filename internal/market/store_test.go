package market

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testCandles(n int) []Candle {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]Candle, n)
	price := 1.08
	for i := range candles {
		candles[i] = Candle{
			Time:   base.Add(time.Duration(i) * time.Hour),
			Open:   price,
			High:   price + 0.002,
			Low:    price - 0.001,
			Close:  price + 0.001,
			Volume: 1000,
		}
		price += 0.001
	}
	return candles
}

func TestStoreSaveLoadRoundtrip(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())
	candles := testCandles(5)

	path, err := store.Save("EURUSD", Interval1h, candles)
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != len(candles) {
		t.Fatalf("expected %d candles, got %d", len(candles), len(loaded))
	}
	for i := range candles {
		if !loaded[i].Time.Equal(candles[i].Time) {
			t.Errorf("candle %d time mismatch: %v vs %v", i, loaded[i].Time, candles[i].Time)
		}
		if loaded[i].Close != candles[i].Close {
			t.Errorf("candle %d close mismatch: %f vs %f", i, loaded[i].Close, candles[i].Close)
		}
	}
}

func TestStoreCleanupRemovesCreatedFiles(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())

	path1, err := store.Save("EURUSD", Interval1h, testCandles(3))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	path2, err := store.Save("EURUSD", Interval5m, testCandles(3))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := len(store.Created()); got != 2 {
		t.Fatalf("expected 2 tracked files, got %d", got)
	}

	store.Cleanup()

	for _, p := range []string{path1, path2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", p)
		}
	}
	if got := len(store.Created()); got != 0 {
		t.Errorf("tracking must be reset after cleanup, got %d", got)
	}
}

func TestStoreCleanupIsIdempotent(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())
	if _, err := store.Save("EURUSD", Interval1h, testCandles(3)); err != nil {
		t.Fatalf("save: %v", err)
	}

	store.Cleanup()
	store.Cleanup() // second call must be a no-op, not an error spray
}

func TestMonthsBack(t *testing.T) {
	cases := []struct {
		days, want int
	}{
		{7, 1},
		{30, 1},
		{60, 2},
		{90, 3},
	}
	for _, c := range cases {
		if got := MonthsBack(c.days); got != c.want {
			t.Errorf("MonthsBack(%d): expected %d, got %d", c.days, c.want, got)
		}
	}
}

func TestAge(t *testing.T) {
	candles := testCandles(2)
	candles[1].Time = time.Now().Add(-90 * time.Minute)

	age := Age(candles)
	if age < 89*time.Minute || age > 95*time.Minute {
		t.Errorf("expected roughly 90 minutes, got %v", age)
	}
	if Age(nil) != 0 {
		t.Error("empty series has no age")
	}
}
