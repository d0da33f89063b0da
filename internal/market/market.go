// Package market defines the canonical schema every exchange's data is
// mapped into before it is cataloged and queried.
//
// Conventions:
//   - Prices and probabilities: price.Price fixed-point on [0, 1];
//     nil pointer means the value is unknown upstream.
//   - Volumes and open interest: decimal.Decimal, zero when absent.
package market

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// Key uniquely identifies a market across platforms.
type Key struct {
	Platform platform.Platform
	ID       string
}

// Market is a single tradable contract, normalized across exchanges.
type Market struct {
	ID       string
	Platform platform.Platform

	Title      string
	Subtitle   string
	EventID    string // event_ticker on Kalshi, slug on Polymarket
	OptionName string // outcome name when the market is one option of many
	Category   Category
	Status     Status
	MarketType string // "binary" or "categorical"

	LastPrice   *price.Price // probability scale, nil when never traded
	Probability *price.Price // derived from LastPrice, nil propagates
	YesBid      *price.Price
	YesAsk      *price.Price

	Volume       decimal.Decimal
	Volume24h    decimal.Decimal
	OpenInterest decimal.Decimal

	CloseTime *time.Time

	// Trades is the append-only trade history, most recent last.
	Trades []Trade
}

// Key returns the composite identity of the market.
func (m *Market) Key() Key {
	return Key{Platform: m.Platform, ID: m.ID}
}

// ImpliedProbability estimates the market-implied probability: last traded
// price first, then the bid/ask midpoint, then whichever side is non-zero.
// It never mutates the market; Probability stays derived from LastPrice alone.
func (m *Market) ImpliedProbability() *price.Price {
	if m.Probability != nil && *m.Probability > 0 {
		p := *m.Probability
		return &p
	}

	if m.YesBid != nil && m.YesAsk != nil && (*m.YesBid > 0 || *m.YesAsk > 0) {
		mid := (*m.YesBid + *m.YesAsk) / 2
		return &mid
	}

	for _, side := range []*price.Price{m.YesBid, m.YesAsk} {
		if side != nil && *side > 0 {
			p := *side
			return &p
		}
	}

	return nil
}

// Clone returns a deep copy of the market.
func (m *Market) Clone() Market {
	out := *m
	out.LastPrice = clonePrice(m.LastPrice)
	out.Probability = clonePrice(m.Probability)
	out.YesBid = clonePrice(m.YesBid)
	out.YesAsk = clonePrice(m.YesAsk)
	if m.CloseTime != nil {
		t := *m.CloseTime
		out.CloseTime = &t
	}
	if m.Trades != nil {
		out.Trades = make([]Trade, len(m.Trades))
		copy(out.Trades, m.Trades)
	}
	return out
}

func clonePrice(p *price.Price) *price.Price {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Trade is one executed trade. Immutable once ingested.
type Trade struct {
	ID        uuid.UUID // source trade ID when provided, uuid.Nil otherwise
	Platform  platform.Platform
	MarketID  string
	Price     price.Price // probability scale
	Size      decimal.Decimal
	Timestamp time.Time
}

// TradeIdentity is the deduplication key for trades. Two ingestions of the
// same (market, timestamp, price, size) tuple are the same trade.
type TradeIdentity struct {
	MarketID  string
	Timestamp int64
	Price     price.Price
	Size      string
}

func (t Trade) Identity() TradeIdentity {
	return TradeIdentity{
		MarketID:  t.MarketID,
		Timestamp: t.Timestamp.UnixNano(),
		Price:     t.Price,
		Size:      t.Size.String(),
	}
}
