package catalog

import (
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

func pp(p price.Price) *price.Price { return &p }

func mkt(id string, vol int64) *market.Market {
	return &market.Market{
		ID:       id,
		Platform: platform.Kalshi,
		Title:    "market " + id,
		Category: market.CategorySports,
		Status:   market.StatusActive,
		Volume:   decimal.NewFromInt(vol),
	}
}

func trade(marketID string, p price.Price, size int64, ts time.Time) market.Trade {
	return market.Trade{
		Platform:  platform.Kalshi,
		MarketID:  marketID,
		Price:     p,
		Size:      decimal.NewFromInt(size),
		Timestamp: ts,
	}
}

func newCatalog() *Catalog {
	return New(DefaultConfig(), nil)
}

func TestUpsertIdempotent(t *testing.T) {
	c := newCatalog()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.Upsert(mkt("M1", 100))
	c.IngestTrade(trade("M1", 650_000, 10, ts))

	before := c.Snapshot()
	c.Upsert(mkt("M1", 100))
	after := c.Snapshot()

	if !reflect.DeepEqual(before, after) {
		t.Errorf("re-upserting an identical market changed the snapshot:\nbefore %+v\nafter  %+v", before, after)
	}
	if len(after) != 1 {
		t.Fatalf("duplicate key created a second market: %d", len(after))
	}
	if len(after[0].Trades) != 1 {
		t.Errorf("upsert must preserve trades, got %d", len(after[0].Trades))
	}
}

func TestUpsertWithoutPricePreservesTradePrice(t *testing.T) {
	c := newCatalog()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.Upsert(mkt("M1", 100))
	c.IngestTrade(trade("M1", 650_000, 10, ts))

	// A refresh payload with no quoted price must not reset the price
	// the trade set.
	c.Upsert(mkt("M1", 100))

	snap := c.Snapshot()
	if snap[0].LastPrice == nil || *snap[0].LastPrice != 650_000 {
		t.Errorf("LastPrice = %v, want 0.65 from the trade", snap[0].LastPrice)
	}
	if snap[0].Probability == nil || *snap[0].Probability != 650_000 {
		t.Errorf("Probability = %v, want 0.65 from the trade", snap[0].Probability)
	}

	// A payload that does quote a price overwrites as usual.
	priced := mkt("M1", 100)
	priced.LastPrice = pp(700_000)
	priced.Probability = pp(700_000)
	c.Upsert(priced)

	snap = c.Snapshot()
	if snap[0].LastPrice == nil || *snap[0].LastPrice != 700_000 {
		t.Errorf("LastPrice = %v, want 0.7 from the listing", snap[0].LastPrice)
	}
}

func TestUpsertOverwritesFieldsButNotTrades(t *testing.T) {
	c := newCatalog()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	c.Upsert(mkt("M1", 100))
	c.IngestTrade(trade("M1", 650_000, 10, ts))

	updated := mkt("M1", 250)
	updated.Status = market.StatusClosed
	updated.Trades = []market.Trade{trade("M1", 1, 1, ts)} // listing payloads never carry trades
	c.Upsert(updated)

	snap := c.Snapshot()
	if !snap[0].Volume.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Volume = %s, want 250", snap[0].Volume)
	}
	if snap[0].Status != market.StatusClosed {
		t.Errorf("Status = %q, want closed", snap[0].Status)
	}
	if len(snap[0].Trades) != 1 || snap[0].Trades[0].Price != 650_000 {
		t.Errorf("trades replaced by upsert: %+v", snap[0].Trades)
	}
}

func TestIngestTradeDeduplicates(t *testing.T) {
	c := newCatalog()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Upsert(mkt("M1", 100))

	tr := trade("M1", 650_000, 10, ts)
	c.IngestTrade(tr)
	c.IngestTrade(tr)
	c.IngestTrade(trade("M1", 650_000, 11, ts)) // different size = different trade

	snap := c.Snapshot()
	if len(snap[0].Trades) != 2 {
		t.Errorf("got %d trades, want 2", len(snap[0].Trades))
	}
}

func TestIngestTradeOrdersHistoryAndUpdatesLastPrice(t *testing.T) {
	c := newCatalog()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.Upsert(mkt("M1", 100))

	c.IngestTrade(trade("M1", 500_000, 1, base.Add(2*time.Minute)))
	c.IngestTrade(trade("M1", 400_000, 1, base)) // late arrival

	snap := c.Snapshot()
	trades := snap[0].Trades
	if len(trades) != 2 || !trades[0].Timestamp.Before(trades[1].Timestamp) {
		t.Fatalf("history not most-recent-last: %+v", trades)
	}
	// The late trade is older; last price must stay with the newest one.
	if snap[0].LastPrice == nil || *snap[0].LastPrice != 500_000 {
		t.Errorf("LastPrice = %v, want 500000", snap[0].LastPrice)
	}
	if snap[0].Probability == nil || *snap[0].Probability != 500_000 {
		t.Errorf("Probability = %v, want 500000", snap[0].Probability)
	}
}

func TestPendingTradesApplyWhenMarketAppears(t *testing.T) {
	c := newCatalog()
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tr := trade("M1", 650_000, 10, ts)
	c.IngestTrade(tr)
	c.IngestTrade(tr) // duplicate while buffered

	if c.Len() != 0 {
		t.Fatal("trade ingestion must not create markets")
	}

	c.Upsert(mkt("M1", 100))
	snap := c.Snapshot()
	if len(snap[0].Trades) != 1 {
		t.Errorf("got %d trades after buffering, want 1 (no silent duplicate)", len(snap[0].Trades))
	}
}

func TestPendingTradesExpire(t *testing.T) {
	c := New(Config{MaxPending: 10, PendingRetention: time.Minute}, nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.IngestTrade(trade("M1", 650_000, 10, now))

	now = now.Add(2 * time.Minute)
	c.Upsert(mkt("M1", 100))

	if got := len(c.Snapshot()[0].Trades); got != 0 {
		t.Errorf("expired pending trade applied anyway, got %d trades", got)
	}
}

func TestPendingBufferBounded(t *testing.T) {
	c := New(Config{MaxPending: 2, PendingRetention: time.Hour}, nil)
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		c.IngestTrade(trade("M1", price.Price(i+1), 1, ts.Add(time.Duration(i)*time.Second)))
	}

	c.Upsert(mkt("M1", 100))
	if got := len(c.Snapshot()[0].Trades); got != 2 {
		t.Errorf("buffer bound not enforced: got %d trades, want 2", got)
	}
}

func TestSnapshotInsertionOrderAndIsolation(t *testing.T) {
	c := newCatalog()
	c.Upsert(mkt("B", 1))
	c.Upsert(mkt("A", 2))
	c.Upsert(mkt("C", 3))

	snap := c.Snapshot()
	got := []string{snap[0].ID, snap[1].ID, snap[2].ID}
	want := []string{"B", "A", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("snapshot order = %v, want insertion order %v", got, want)
	}

	// Mutating a snapshot must not leak into the catalog.
	snap[0].Volume = decimal.NewFromInt(999)
	snap[0].LastPrice = pp(1)
	if !c.Snapshot()[0].Volume.Equal(decimal.NewFromInt(1)) {
		t.Error("snapshot mutation leaked into catalog")
	}
}
