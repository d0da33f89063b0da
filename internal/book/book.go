// Package book tracks the bid and ask ladder for a token so the best
// prices can be folded into market records as a pricing fallback.
package book

import (
	"fmt"
	"sync"

	"github.com/google/btree"
	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/price"
)

type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"
)

// Level is one price level on a side.
type Level struct {
	Price price.Price
	Size  decimal.Decimal
}

// lessAsc compares levels by price ascending (for asks: lowest first).
func lessAsc(a, b Level) bool {
	return a.Price < b.Price
}

// lessDesc compares levels by price descending (for bids: highest first).
func lessDesc(a, b Level) bool {
	return a.Price > b.Price
}

// Book maintains sorted bid and ask levels for one token.
// Bids are sorted descending, asks ascending, so the best price on
// either side is the first tree entry.
type Book struct {
	bids *btree.BTreeG[Level]
	asks *btree.BTreeG[Level]
}

func New() *Book {
	return &Book{
		bids: btree.NewG(32, lessDesc),
		asks: btree.NewG(32, lessAsc),
	}
}

// Set places an absolute size at a price level. Size <= 0 removes the
// level.
func (b *Book) Set(side Side, p price.Price, size decimal.Decimal) error {
	tree, err := b.tree(side)
	if err != nil {
		return err
	}

	if size.Sign() <= 0 {
		tree.Delete(Level{Price: p})
		return nil
	}
	tree.ReplaceOrInsert(Level{Price: p, Size: size})
	return nil
}

// Best returns the best price on a side, if the side has any depth.
func (b *Book) Best(side Side) (price.Price, bool) {
	tree, err := b.tree(side)
	if err != nil {
		return 0, false
	}
	lvl, ok := tree.Min()
	if !ok {
		return 0, false
	}
	return lvl.Price, true
}

func (b *Book) tree(side Side) (*btree.BTreeG[Level], error) {
	switch side {
	case SideBid:
		return b.bids, nil
	case SideAsk:
		return b.asks, nil
	default:
		return nil, fmt.Errorf("invalid side: %s", side)
	}
}

// Tracker keeps one book per token. Safe for concurrent use.
type Tracker struct {
	mu    sync.RWMutex
	books map[string]*Book
}

func NewTracker() *Tracker {
	return &Tracker{books: make(map[string]*Book)}
}

// Apply sets a level on the token's book, creating the book on first
// sight of the token.
func (t *Tracker) Apply(tokenID string, side Side, p price.Price, size decimal.Decimal) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	b, ok := t.books[tokenID]
	if !ok {
		b = New()
		t.books[tokenID] = b
	}
	return b.Set(side, p, size)
}

// Replace swaps in a complete book for a token, dropping prior levels.
func (t *Tracker) Replace(tokenID string, b *Book) {
	t.mu.Lock()
	t.books[tokenID] = b
	t.mu.Unlock()
}

// BestBidAsk returns the best bid and ask for a token; either pointer is
// nil when that side has no depth or the token is unknown.
func (t *Tracker) BestBidAsk(tokenID string) (bid, ask *price.Price) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	b, ok := t.books[tokenID]
	if !ok {
		return nil, nil
	}

	if p, ok := b.Best(SideBid); ok {
		bid = &p
	}
	if p, ok := b.Best(SideAsk); ok {
		ask = &p
	}
	return bid, ask
}
