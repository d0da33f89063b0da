package book

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/price"
)

func size(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestBookBest(t *testing.T) {
	b := New()

	if _, ok := b.Best(SideBid); ok {
		t.Error("empty book must have no best bid")
	}

	if err := b.Set(SideBid, 400_000, size(10)); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(SideBid, 410_000, size(5)); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(SideAsk, 430_000, size(7)); err != nil {
		t.Fatal(err)
	}
	if err := b.Set(SideAsk, 420_000, size(3)); err != nil {
		t.Fatal(err)
	}

	if best, _ := b.Best(SideBid); best != 410_000 {
		t.Errorf("best bid = %d, want highest 410000", best)
	}
	if best, _ := b.Best(SideAsk); best != 420_000 {
		t.Errorf("best ask = %d, want lowest 420000", best)
	}
}

func TestBookZeroSizeRemovesLevel(t *testing.T) {
	b := New()
	b.Set(SideBid, 410_000, size(5))
	b.Set(SideBid, 400_000, size(10))
	b.Set(SideBid, 410_000, decimal.Zero)

	if best, _ := b.Best(SideBid); best != 400_000 {
		t.Errorf("best bid = %d, want 400000 after removal", best)
	}
}

func TestBookInvalidSide(t *testing.T) {
	b := New()
	if err := b.Set(Side("mid"), 1, size(1)); err == nil {
		t.Error("invalid side must error")
	}
}

func TestTrackerBestBidAsk(t *testing.T) {
	tr := NewTracker()

	bid, ask := tr.BestBidAsk("unknown")
	if bid != nil || ask != nil {
		t.Error("unknown token must have nil bid and ask")
	}

	if err := tr.Apply("tok", SideBid, 400_000, size(1)); err != nil {
		t.Fatal(err)
	}
	bid, ask = tr.BestBidAsk("tok")
	if bid == nil || *bid != 400_000 {
		t.Errorf("bid = %v, want 400000", bid)
	}
	if ask != nil {
		t.Error("ask side is empty, want nil")
	}
}

func TestTrackerReplace(t *testing.T) {
	tr := NewTracker()
	tr.Apply("tok", SideBid, 400_000, size(1))

	fresh := New()
	fresh.Set(SideBid, 300_000, size(2))
	tr.Replace("tok", fresh)

	bid, _ := tr.BestBidAsk("tok")
	if bid == nil || *bid != 300_000 {
		t.Errorf("bid = %v, want replaced book's 300000", bid)
	}
}

func TestBestBidPriceVariant(t *testing.T) {
	// price.Price carries through the tree unchanged.
	b := New()
	p := price.FromFloat(0.42)
	b.Set(SideAsk, p, size(1))
	if best, _ := b.Best(SideAsk); best != p {
		t.Errorf("best = %d, want %d", best, p)
	}
}
