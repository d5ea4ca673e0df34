package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// ErrDataUnavailable indicates a historical or real-time fetch failure.
// Runs abort on this error; it is never recovered by a fallback.
var ErrDataUnavailable = errors.New("market data unavailable")

const defaultBaseURL = "https://api.twelvedata.com"

// Client fetches OHLC and quote data from the Twelve Data API
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a new market data client
func NewClient(apiKey, baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "market").Logger(),
	}
}

// timeSeriesResponse mirrors the Twelve Data time_series payload
type timeSeriesResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume"`
	} `json:"values"`
}

// intervalCode maps interval codes to the provider's naming
func intervalCode(interval Interval) string {
	switch interval {
	case Interval1m:
		return "1min"
	case Interval5m:
		return "5min"
	case Interval15m:
		return "15min"
	case Interval1h:
		return "1h"
	case Interval4h:
		return "4h"
	case Interval1d:
		return "1day"
	default:
		return string(interval)
	}
}

// TimeSeries fetches OHLC candles covering roughly monthsBack months,
// oldest first. Provider rows arrive newest first and are reversed here.
func (c *Client) TimeSeries(ctx context.Context, symbol string, interval Interval, monthsBack int) ([]Candle, error) {
	if !interval.Valid() {
		return nil, fmt.Errorf("%w: unsupported interval %q", ErrDataUnavailable, interval)
	}
	if monthsBack < 1 {
		monthsBack = 1
	}

	span := time.Duration(monthsBack) * 30 * 24 * time.Hour
	outputSize := int(span / interval.Duration())
	if outputSize > 5000 {
		outputSize = 5000
	}
	if outputSize < 50 {
		outputSize = 50
	}

	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", intervalCode(interval))
	params.Set("outputsize", strconv.Itoa(outputSize))
	params.Set("apikey", c.apiKey)

	endpoint := fmt.Sprintf("%s/time_series?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var ts timeSeriesResponse
	if err := json.Unmarshal(body, &ts); err != nil {
		return nil, fmt.Errorf("%w: parsing time series: %v", ErrDataUnavailable, err)
	}
	if ts.Status == "error" {
		return nil, fmt.Errorf("%w: %s", ErrDataUnavailable, ts.Message)
	}
	if len(ts.Values) == 0 {
		return nil, fmt.Errorf("%w: empty series for %s %s", ErrDataUnavailable, symbol, interval)
	}

	candles := make([]Candle, 0, len(ts.Values))
	for _, v := range ts.Values {
		t, err := parseDatetime(v.Datetime)
		if err != nil {
			continue
		}
		candles = append(candles, Candle{
			Time:   t,
			Open:   parseFloat(v.Open),
			High:   parseFloat(v.High),
			Low:    parseFloat(v.Low),
			Close:  parseFloat(v.Close),
			Volume: parseFloat(v.Volume),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })

	c.logger.Debug().
		Str("symbol", symbol).
		Str("interval", string(interval)).
		Int("candles", len(candles)).
		Msg("time series downloaded")

	return candles, nil
}

// priceResponse mirrors the Twelve Data price payload
type priceResponse struct {
	Price   string `json:"price"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Price fetches the current quoted price for a symbol
func (c *Client) Price(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("apikey", c.apiKey)

	endpoint := fmt.Sprintf("%s/price?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return 0, fmt.Errorf("%w: parsing price: %v", ErrDataUnavailable, err)
	}
	if pr.Status == "error" {
		return 0, fmt.Errorf("%w: %s", ErrDataUnavailable, pr.Message)
	}

	price := parseFloat(pr.Price)
	if price <= 0 {
		return 0, fmt.Errorf("%w: invalid price %q for %s", ErrDataUnavailable, pr.Price, symbol)
	}
	return price, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseDatetime(s string) (time.Time, error) {
	// Daily bars come without a time component
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
