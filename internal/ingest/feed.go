package ingest

import (
	"log/slog"

	"github.com/oddsylabs/oddsy/internal/market"
)

const feedBuffer = 100

// TradeFeed fans normalized trades out to a consumer over a buffered
// channel.
type TradeFeed struct {
	trades chan market.Trade
	logger *slog.Logger
}

func NewTradeFeed(logger *slog.Logger) *TradeFeed {
	return &TradeFeed{
		trades: make(chan market.Trade, feedBuffer),
		logger: logger.With("component", "trade_feed"),
	}
}

// Send queues a trade for the consumer. Returns false if the buffer is
// full and the trade was dropped.
func (f *TradeFeed) Send(t market.Trade) bool {
	select {
	case f.trades <- t:
		return true
	default:
		f.logger.Warn("trade feed full, dropping trade", "market_id", t.MarketID)
		return false
	}
}

// Trades is the consumer side of the feed.
func (f *TradeFeed) Trades() <-chan market.Trade {
	return f.trades
}
