package stats

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

func pp(p price.Price) *price.Price { return &p }

func TestComputeFromTrades(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := []market.Market{
		{
			ID: "M1", Platform: platform.Kalshi,
			Status:       market.StatusActive,
			OpenInterest: decimal.NewFromInt(500),
			Trades: []market.Trade{
				// 0.50 * 10 = 5 dollars
				{MarketID: "M1", Price: 500_000, Size: decimal.NewFromInt(10), Timestamp: since.Add(time.Hour)},
				// 0.25 * 4 = 1 dollar
				{MarketID: "M1", Price: 250_000, Size: decimal.NewFromInt(4), Timestamp: since.Add(2 * time.Hour)},
				// before the window, ignored
				{MarketID: "M1", Price: 900_000, Size: decimal.NewFromInt(100), Timestamp: since.Add(-time.Hour)},
			},
		},
		{
			ID: "M2", Platform: platform.Kalshi,
			Status:       market.StatusClosed,
			OpenInterest: decimal.NewFromInt(100),
		},
		{
			// Other platform, excluded entirely.
			ID: "P1", Platform: platform.Polymarket,
			Status: market.StatusActive,
			Trades: []market.Trade{
				{MarketID: "P1", Price: 500_000, Size: decimal.NewFromInt(99), Timestamp: since.Add(time.Hour)},
			},
		},
	}

	got := Compute(snap, platform.Kalshi, since)

	if got.ActiveMarkets != 1 {
		t.Errorf("ActiveMarkets = %d, want 1", got.ActiveMarkets)
	}
	if !got.OpenInterest.Equal(decimal.NewFromInt(600)) {
		t.Errorf("OpenInterest = %s, want 600", got.OpenInterest)
	}
	if !got.WeeklyTransactions.Equal(decimal.NewFromInt(14)) {
		t.Errorf("WeeklyTransactions = %s, want 14", got.WeeklyTransactions)
	}
	if !got.WeeklyNotional.Equal(decimal.NewFromInt(6)) {
		t.Errorf("WeeklyNotional = %s, want 6", got.WeeklyNotional)
	}
}

func TestComputeFallbackWithoutTrades(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	snap := []market.Market{
		{
			ID: "M1", Platform: platform.Kalshi,
			Status:    market.StatusActive,
			Volume24h: decimal.NewFromInt(10),
			LastPrice: pp(500_000),
		},
	}

	got := Compute(snap, platform.Kalshi, since)

	// 10 contracts/day * 7 days.
	if !got.WeeklyTransactions.Equal(decimal.NewFromInt(70)) {
		t.Errorf("WeeklyTransactions = %s, want 70", got.WeeklyTransactions)
	}
	// 70 contracts * $0.50.
	if !got.WeeklyNotional.Equal(decimal.NewFromInt(35)) {
		t.Errorf("WeeklyNotional = %s, want 35", got.WeeklyNotional)
	}
}

func TestComputeEmptySnapshot(t *testing.T) {
	got := Compute(nil, platform.Kalshi, time.Now())
	if got.ActiveMarkets != 0 || !got.WeeklyNotional.IsZero() || !got.OpenInterest.IsZero() {
		t.Errorf("empty snapshot must zero everything: %+v", got)
	}
}

func TestComputeAllCoversPlatforms(t *testing.T) {
	all := ComputeAll(nil, time.Now())
	if len(all) != len(platform.All()) {
		t.Fatalf("got %d platforms, want %d", len(all), len(platform.All()))
	}
	for i, p := range platform.All() {
		if all[i].Platform != p {
			t.Errorf("index %d = %s, want %s", i, all[i].Platform, p)
		}
	}
}
