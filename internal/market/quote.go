package market

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Quote is a real-time price with its provenance
type Quote struct {
	Price  float64
	Source string
	Live   bool
}

// maxDeviation is the plausibility bound: quotes further than this
// fraction from the reference price are treated as bad data.
const maxDeviation = 0.05

// QuoteService resolves a current price for a symbol, preferring live
// sources and degrading to the caller's reference price on failure.
type QuoteService struct {
	client *Client
	wsURL  string
	logger zerolog.Logger
}

// NewQuoteService creates a quote service backed by the REST client and,
// for crypto pairs, a Binance book ticker stream.
func NewQuoteService(client *Client, logger zerolog.Logger) *QuoteService {
	return &QuoteService{
		client: client,
		wsURL:  "wss://stream.binance.com:9443/ws",
		logger: logger.With().Str("component", "quote").Logger(),
	}
}

// Quote returns the best available current price for symbol. reference is
// the latest historical close, used for the plausibility check. When no
// live source succeeds the returned quote carries the reference price with
// Live=false, and the caller should fall back to snapshot data.
func (q *QuoteService) Quote(ctx context.Context, symbol string, reference float64) Quote {
	if stream, ok := binanceStreamSymbol(symbol); ok {
		if price, err := q.bookTickerPrice(ctx, stream); err == nil {
			if plausible(price, reference) {
				return Quote{Price: price, Source: "binance-ws", Live: true}
			}
			q.logger.Warn().
				Float64("price", price).
				Float64("reference", reference).
				Msg("websocket quote outside plausibility bound")
		} else {
			q.logger.Warn().Err(err).Msg("websocket quote failed, trying REST")
		}
	}

	price, err := q.client.Price(ctx, symbol)
	if err != nil {
		q.logger.Warn().Err(err).Str("symbol", symbol).Msg("real-time quote unavailable")
		return Quote{Price: reference, Source: "historical", Live: false}
	}
	if !plausible(price, reference) {
		q.logger.Warn().
			Float64("price", price).
			Float64("reference", reference).
			Msg("REST quote outside plausibility bound")
		return Quote{Price: reference, Source: "historical", Live: false}
	}
	return Quote{Price: price, Source: "twelvedata", Live: true}
}

// bookTickerEvent is a single Binance bookTicker message
type bookTickerEvent struct {
	BidPrice string `json:"b"`
	AskPrice string `json:"a"`
}

// bookTickerPrice opens the book ticker stream, reads one message and
// returns the mid price.
func (q *QuoteService) bookTickerPrice(ctx context.Context, stream string) (float64, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	endpoint := fmt.Sprintf("%s/%s@bookTicker", q.wsURL, stream)

	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetReadDeadline(deadline)

	_, msg, err := conn.ReadMessage()
	if err != nil {
		return 0, fmt.Errorf("reading book ticker: %w", err)
	}

	var event bookTickerEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		return 0, fmt.Errorf("parsing book ticker: %w", err)
	}

	bid := parseFloat(event.BidPrice)
	ask := parseFloat(event.AskPrice)
	if bid <= 0 || ask <= 0 {
		return 0, fmt.Errorf("empty book ticker for %s", stream)
	}
	return (bid + ask) / 2, nil
}

// binanceStreamSymbol maps a provider symbol to a Binance stream name.
// Only crypto pairs have a stream; everything else uses REST.
func binanceStreamSymbol(symbol string) (string, bool) {
	switch strings.ToUpper(symbol) {
	case "BTC/USD":
		return "btcusdt", true
	case "ETH/USD":
		return "ethusdt", true
	}
	return "", false
}

func plausible(price, reference float64) bool {
	if reference <= 0 {
		return price > 0
	}
	return math.Abs(price-reference)/reference <= maxDeviation
}
