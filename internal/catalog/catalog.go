// Package catalog holds the current set of normalized markets keyed by
// (platform, id).
//
// The catalog is the single shared mutable resource of the aggregator:
// one mutex serializes market upserts and trade ingestion, and Snapshot
// hands out deep copies so a refresh in progress never shows readers a
// half-updated view.
package catalog

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/pkg/hashset"
)

// Config bounds the buffer for trades that arrive before their market.
type Config struct {
	// MaxPending caps buffered trades across the whole catalog.
	MaxPending int
	// PendingRetention is how long a buffered trade waits for its market
	// before being dropped.
	PendingRetention time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxPending:       1000,
		PendingRetention: 15 * time.Minute,
	}
}

type pendingTrade struct {
	trade    market.Trade
	buffered time.Time
}

// Catalog is the in-memory market collection. Not safe for uncoordinated
// concurrent mutation beyond its own methods; it is the single logical
// owner of market state.
type Catalog struct {
	mu      sync.Mutex
	markets map[market.Key]*market.Market
	order   []market.Key
	seen    map[market.Key]hashset.Set[market.TradeIdentity]
	pending map[market.Key][]pendingTrade
	npend   int

	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

func New(cfg Config, logger *slog.Logger) *Catalog {
	if cfg.MaxPending <= 0 {
		cfg.MaxPending = DefaultConfig().MaxPending
	}
	if cfg.PendingRetention <= 0 {
		cfg.PendingRetention = DefaultConfig().PendingRetention
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{
		markets: make(map[market.Key]*market.Market),
		seen:    make(map[market.Key]hashset.Set[market.TradeIdentity]),
		pending: make(map[market.Key][]pendingTrade),
		cfg:     cfg,
		logger:  logger.With("component", "catalog"),
		now:     time.Now,
	}
}

// Upsert creates or updates the market with m's key. All fields are
// overwritten except the trade history, which only trade ingestion
// touches. Trades buffered for the key are applied on first appearance.
func (c *Catalog) Upsert(m *market.Market) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := m.Key()
	incoming := m.Clone()

	if existing, ok := c.markets[key]; ok {
		incoming.Trades = existing.Trades
		// A listing payload with no price is an absent field, not a reset:
		// the last price set by trade ingestion survives the upsert.
		if incoming.LastPrice == nil {
			incoming.LastPrice = existing.LastPrice
			incoming.Probability = existing.Probability
		}
		c.markets[key] = &incoming
		return
	}

	incoming.Trades = nil
	c.markets[key] = &incoming
	c.order = append(c.order, key)

	for _, p := range c.pending[key] {
		if c.now().Sub(p.buffered) <= c.cfg.PendingRetention {
			c.applyTrade(&incoming, p.trade)
		}
	}
	c.npend -= len(c.pending[key])
	delete(c.pending, key)
}

// IngestTrade appends a trade to its market's history, deduplicating on
// the trade identity. Trades for unknown markets are buffered until the
// market appears or the retention window passes.
func (c *Catalog) IngestTrade(t market.Trade) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := market.Key{Platform: t.Platform, ID: t.MarketID}

	m, ok := c.markets[key]
	if !ok {
		c.buffer(key, t)
		return
	}
	c.applyTrade(m, t)
}

// applyTrade appends t if unseen and keeps the market's last price in
// step with the newest trade. Caller holds the mutex.
func (c *Catalog) applyTrade(m *market.Market, t market.Trade) {
	key := m.Key()
	ids, ok := c.seen[key]
	if !ok {
		ids = hashset.New[market.TradeIdentity]()
		c.seen[key] = ids
	}

	id := t.Identity()
	if ids.Has(id) {
		return
	}
	ids.Add(id)

	// Most-recent-last: history stays ordered even when the feed is not.
	i := len(m.Trades)
	for i > 0 && m.Trades[i-1].Timestamp.After(t.Timestamp) {
		i--
	}
	m.Trades = append(m.Trades, market.Trade{})
	copy(m.Trades[i+1:], m.Trades[i:])
	m.Trades[i] = t

	if i == len(m.Trades)-1 {
		p := t.Price
		m.LastPrice = &p
		prob := p
		m.Probability = &prob
	}
}

// buffer holds a trade for a market the catalog has not seen yet.
// Caller holds the mutex.
func (c *Catalog) buffer(key market.Key, t market.Trade) {
	c.evictExpired()

	if c.npend >= c.cfg.MaxPending {
		c.logger.Warn("pending trade buffer full, dropping trade",
			"platform", key.Platform, "market_id", key.ID)
		return
	}

	c.pending[key] = append(c.pending[key], pendingTrade{trade: t, buffered: c.now()})
	c.npend++
}

func (c *Catalog) evictExpired() {
	cutoff := c.now().Add(-c.cfg.PendingRetention)
	for key, trades := range c.pending {
		kept := trades[:0]
		for _, p := range trades {
			if p.buffered.After(cutoff) {
				kept = append(kept, p)
			}
		}
		c.npend -= len(trades) - len(kept)
		if len(kept) == 0 {
			delete(c.pending, key)
		} else {
			c.pending[key] = kept
		}
	}
}

// Snapshot returns a deep copy of all markets in insertion order. The
// result is immutable from the catalog's point of view and safe to query
// from any number of readers.
func (c *Catalog) Snapshot() []market.Market {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]market.Market, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.markets[key].Clone())
	}
	return out
}

// Len returns the number of markets currently cataloged.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
