// Package polymarket adapts Polymarket's APIs (Gamma, CLOB, WebSocket)
// into raw market and trade records.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/adapter"
	"github.com/oddsylabs/oddsy/internal/book"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/polymarket/clob"
	"github.com/oddsylabs/oddsy/internal/polymarket/gamma"
	"github.com/oddsylabs/oddsy/internal/polymarket/websocket"
	"github.com/oddsylabs/oddsy/internal/price"
	"github.com/oddsylabs/oddsy/pkg/hashset"
)

const wsEndpoint = "/ws/market"

// maxBufferedTrades bounds the stream trade buffer between drains.
const maxBufferedTrades = 10_000

type Config struct {
	GammaURL     string
	ClobURL      string
	WebsocketURL string
}

// Source serves Polymarket markets and trades. Markets come from Gamma
// with order books from the CLOB; trades arrive over the websocket and
// are buffered until the next FetchTrades drain.
type Source struct {
	config Config
	log    *slog.Logger

	gamma *gamma.Client
	clob  *clob.Client
	books *book.Tracker

	mu            sync.Mutex
	ws            *websocket.Client
	subscribed    hashset.Set[string]
	trades        []adapter.RawRecord
	droppedTrades int
}

func New(cfg Config, log *slog.Logger) *Source {
	return &Source{
		config:     cfg,
		log:        log.With("component", "polymarket"),
		gamma:      gamma.New(cfg.GammaURL),
		clob:       clob.New(cfg.ClobURL),
		books:      book.NewTracker(),
		subscribed: hashset.New[string](),
	}
}

func (s *Source) Platform() platform.Platform { return platform.Polymarket }

// FetchMarkets pages through Gamma markets, flattens each one into a
// record per outcome, and folds in the best bid and ask from the CLOB
// order books.
func (s *Source) FetchMarkets(ctx context.Context) ([]adapter.RawRecord, error) {
	markets, err := s.gamma.Markets(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't fetch gamma markets: %w", err)
	}

	records := []adapter.RawRecord{}
	tokenIDs := []string{}
	for _, m := range markets {
		for _, r := range explode(m) {
			records = append(records, r)
			if id, ok := r["tokenId"].(string); ok && id != "" {
				tokenIDs = append(tokenIDs, id)
			}
		}
	}

	s.refreshBooks(ctx, tokenIDs)
	s.rememberTokens(ctx, tokenIDs)

	for _, r := range records {
		id, _ := r["tokenId"].(string)
		if id == "" {
			continue
		}
		bid, ask := s.books.BestBidAsk(id)
		if bid != nil {
			r["bestBid"] = bid.String()
		}
		if ask != nil {
			r["bestAsk"] = ask.String()
		}
	}

	s.log.Info("fetched markets", "markets", len(markets), "outcomes", len(records))
	return records, nil
}

// FetchTrades drains the websocket trade buffer. The buffer only holds
// trades received since the previous drain, so they are always inside
// the caller's window.
func (s *Source) FetchTrades(ctx context.Context, since time.Time) ([]adapter.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.trades
	s.trades = nil
	if s.droppedTrades > 0 {
		s.log.Warn("trade buffer overflowed between drains", "dropped", s.droppedTrades)
		s.droppedTrades = 0
	}
	return records, nil
}

// Stream connects the websocket and folds market events into the order
// book tracker and the trade buffer. It blocks until ctx is cancelled.
func (s *Source) Stream(ctx context.Context) error {
	ws, err := websocket.New(ctx, s.config.WebsocketURL, wsEndpoint)
	if err != nil {
		return fmt.Errorf("couldn't connect websocket: %w", err)
	}
	defer ws.Close(context.WithoutCancel(ctx))

	s.mu.Lock()
	s.ws = ws
	pending := s.subscribed.AsSlice()
	s.mu.Unlock()

	if len(pending) > 0 {
		if err := ws.SubscribeMarket(ctx, pending, true); err != nil {
			return fmt.Errorf("couldn't subscribe to tokens: %w", err)
		}
		s.log.Info("subscribed to tokens", "count", len(pending))
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info("stream stopping", "reason", ctx.Err())
			return ctx.Err()
		default:
			msg, err := ws.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return fmt.Errorf("couldn't read stream message: %w", err)
			}
			s.handle(msg)
		}
	}
}

func (s *Source) handle(msg *websocket.Message) {
	switch msg.EventType {
	case websocket.BookEvent:
		s.applyBook(msg.Book)
	case websocket.PriceChangeEvent:
		s.applyPriceChange(msg.PriceChange)
	case websocket.LastTradePriceEvent:
		s.bufferTrade(msg.LastTradePrice)
	}
}

func (s *Source) applyBook(b *websocket.Book) {
	fresh := book.New()
	for _, lvl := range b.Buys {
		setLevel(fresh, book.SideBid, lvl.Price, lvl.Size)
	}
	for _, lvl := range b.Sells {
		setLevel(fresh, book.SideAsk, lvl.Price, lvl.Size)
	}
	s.books.Replace(b.AssetID, fresh)
}

func (s *Source) applyPriceChange(pc *websocket.PriceChange) {
	side := book.SideAsk
	if pc.Side == "BUY" {
		side = book.SideBid
	}

	p, err := price.Parse(pc.Price)
	if err != nil {
		s.log.Warn("unparsable price change price", "asset_id", pc.AssetID, "price", pc.Price)
		return
	}
	size, err := decimal.NewFromString(pc.Size)
	if err != nil {
		s.log.Warn("unparsable price change size", "asset_id", pc.AssetID, "size", pc.Size)
		return
	}

	if err := s.books.Apply(pc.AssetID, side, p, size); err != nil {
		s.log.Warn("couldn't apply price change", "asset_id", pc.AssetID, "error", err)
	}
}

func (s *Source) bufferTrade(t *websocket.LastTradePrice) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.trades) >= maxBufferedTrades {
		s.droppedTrades++
		return
	}
	s.trades = append(s.trades, adapter.RawRecord{
		"asset_id":  t.AssetID,
		"price":     t.Price,
		"size":      t.Size,
		"timestamp": t.Timestamp,
	})
}

// refreshBooks replaces tracked books with fresh CLOB snapshots.
func (s *Source) refreshBooks(ctx context.Context, tokenIDs []string) {
	if len(tokenIDs) == 0 {
		return
	}

	books, err := s.clob.Books(ctx, tokenIDs)
	if err != nil {
		s.log.Warn("couldn't refresh order books", "error", err)
		return
	}

	for _, ob := range books {
		fresh := book.New()
		for _, lvl := range ob.Bids {
			setLevel(fresh, book.SideBid, lvl.Price, lvl.Size)
		}
		for _, lvl := range ob.Asks {
			setLevel(fresh, book.SideAsk, lvl.Price, lvl.Size)
		}
		s.books.Replace(ob.AssetID, fresh)
	}
}

// rememberTokens records the tokens seen this cycle and subscribes the
// websocket to any it has not seen before.
func (s *Source) rememberTokens(ctx context.Context, tokenIDs []string) {
	s.mu.Lock()
	fresh := hashset.FromSlice(tokenIDs).Diff(s.subscribed)
	for _, id := range tokenIDs {
		s.subscribed.Add(id)
	}
	ws := s.ws
	s.mu.Unlock()

	if ws == nil || fresh.Len() == 0 {
		return
	}
	if err := ws.SubscribeMarket(ctx, fresh.AsSlice(), true); err != nil {
		s.log.Warn("couldn't subscribe to new tokens", "count", fresh.Len(), "error", err)
		return
	}
	s.log.Info("subscribed to tokens", "count", fresh.Len())
}

func setLevel(b *book.Book, side book.Side, rawPrice, rawSize string) {
	p, err := price.Parse(rawPrice)
	if err != nil {
		return
	}
	size, err := decimal.NewFromString(rawSize)
	if err != nil {
		return
	}
	b.Set(side, p, size)
}

// explode flattens a gamma market into one record per outcome. The
// per-outcome price comes from outcomePrices; the market-level last
// trade price only describes the first token, so later outcomes drop
// it. Market-level bid/ask are dropped everywhere in favor of the
// per-token order books.
func explode(m adapter.RawRecord) []adapter.RawRecord {
	outcomes := listish(m["outcomes"])
	prices := listish(m["outcomePrices"])
	tokens := listish(m["clobTokenIds"])

	n := len(outcomes)
	if n == 0 {
		n = 1
	}

	records := make([]adapter.RawRecord, 0, n)
	for i := 0; i < n; i++ {
		r := adapter.RawRecord{}
		for k, v := range m {
			r[k] = v
		}
		delete(r, "outcomes")
		delete(r, "outcomePrices")
		delete(r, "clobTokenIds")
		delete(r, "bestBid")
		delete(r, "bestAsk")
		if i > 0 {
			delete(r, "lastTradePrice")
		}

		if i < len(outcomes) {
			r["outcome"] = outcomes[i]
		}
		if i < len(prices) {
			r["outcomePrice"] = prices[i]
		}
		if i < len(tokens) {
			r["tokenId"] = tokens[i]
		}
		records = append(records, r)
	}
	return records
}

// listish decodes gamma's list fields, which arrive either as JSON
// arrays or as JSON-encoded strings of arrays.
func listish(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		var out []string
		if err := json.Unmarshal([]byte(t), &out); err != nil {
			return nil
		}
		return out
	default:
		return nil
	}
}
