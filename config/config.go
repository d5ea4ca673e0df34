package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is the full terminal configuration, assembled from environment
// variables with library defaults. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	Market  MarketConfig  `validate:"required"`
	AI      AIConfig      `validate:"required"`
	Logging LoggingConfig `validate:"required"`
	Data    DataConfig    `validate:"required"`
}

// MarketConfig holds the Twelve Data API settings. The terminal cannot
// run without an API key; everything else has a sane default.
type MarketConfig struct {
	APIKey     string `validate:"required"`
	BaseURL    string `default:"https://api.twelvedata.com" validate:"url"`
	TimeoutSec int    `default:"30" validate:"min=1,max=300"`
}

// AIConfig holds the language model settings. A missing key is not an
// error: the terminal degrades to the deterministic rule fallback.
type AIConfig struct {
	Provider string `default:"gemini" validate:"oneof=gemini claude openai"`
	APIKey   string
	Model    string
}

type LoggingConfig struct {
	Level string `default:"info" validate:"oneof=trace debug info warn error"`
}

// DataConfig controls where downloaded candles and the signal journal
// live on disk.
type DataConfig struct {
	Dir           string `default:"data" validate:"required"`
	SignalLogFile string `default:"signals.csv" validate:"required"`
}

// Load reads .env if present, overlays environment variables on the
// defaults and validates the result.
func Load() (*Config, error) {
	// Missing .env is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply config defaults: %w", err)
	}

	cfg.Market.APIKey = getEnv("TWELVE_DATA_API_KEY", cfg.Market.APIKey)
	cfg.Market.BaseURL = getEnv("TWELVE_DATA_BASE_URL", cfg.Market.BaseURL)

	cfg.AI.Provider = getEnv("LLM_PROVIDER", cfg.AI.Provider)
	cfg.AI.APIKey = getEnv("LLM_API_KEY", cfg.AI.APIKey)
	cfg.AI.Model = getEnv("LLM_MODEL", cfg.AI.Model)

	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)

	cfg.Data.Dir = getEnv("DATA_DIR", cfg.Data.Dir)
	cfg.Data.SignalLogFile = getEnv("SIGNAL_LOG_FILE", cfg.Data.SignalLogFile)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
