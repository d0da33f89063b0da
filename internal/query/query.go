// Package query filters and sorts catalog snapshots for display.
//
// Querying is pure: given the same snapshot, filter and sort key it
// returns the same ordering every call, so any number of readers can
// share a snapshot.
package query

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/pkg/hashset"
)

// SortKey selects the ordering of a result set.
type SortKey string

const (
	// SortVolume orders by total volume, highest first: the most liquid
	// markets are the interesting ones.
	SortVolume SortKey = "volume"
	// SortProbability orders by last traded probability, highest first.
	SortProbability SortKey = "probability"
	// SortCloseTime orders by close time, soonest first: imminent closes
	// are actionable.
	SortCloseTime SortKey = "close_time"
)

// Filter narrows a snapshot. Zero-valued fields mean "no constraint";
// all present constraints are AND-combined.
type Filter struct {
	// Categories admits markets whose category is in the set. Empty or
	// nil admits every category.
	Categories hashset.Set[market.Category]
	// Status admits only markets in the given state.
	Status *market.Status
	// MinVolume admits markets with Volume >= MinVolume (inclusive).
	MinVolume decimal.Decimal
}

func (f Filter) admits(m *market.Market) bool {
	if f.Categories.Len() > 0 && !f.Categories.Has(m.Category) {
		return false
	}
	if f.Status != nil && m.Status != *f.Status {
		return false
	}
	if m.Volume.LessThan(f.MinVolume) {
		return false
	}
	return true
}

// Markets returns the subset of snapshot admitted by the filter, ordered
// by the sort key. Markets with a null sort field sort last regardless of
// direction; ties break by (platform, id) ascending so the ordering is
// deterministic.
//
// An unrecognized sort key is a caller bug and returns an error rather
// than silently producing a wrong ordering.
func Markets(snapshot []market.Market, f Filter, key SortKey) ([]market.Market, error) {
	less, err := comparator(key)
	if err != nil {
		return nil, err
	}

	out := make([]market.Market, 0, len(snapshot))
	for i := range snapshot {
		if f.admits(&snapshot[i]) {
			out = append(out, snapshot[i])
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		switch less(&out[i], &out[j]) {
		case ordLess:
			return true
		case ordGreater:
			return false
		}
		return keyLess(&out[i], &out[j])
	})

	return out, nil
}

type ordering int

const (
	ordLess ordering = iota - 1
	ordEqual
	ordGreater
)

func comparator(key SortKey) (func(a, b *market.Market) ordering, error) {
	switch key {
	case SortVolume:
		return func(a, b *market.Market) ordering {
			return ordering(b.Volume.Cmp(a.Volume)) // descending
		}, nil
	case SortProbability:
		return func(a, b *market.Market) ordering {
			return comparePtrDesc(a.Probability, b.Probability)
		}, nil
	case SortCloseTime:
		return func(a, b *market.Market) ordering {
			switch {
			case a.CloseTime == nil && b.CloseTime == nil:
				return ordEqual
			case a.CloseTime == nil:
				return ordGreater // nulls last
			case b.CloseTime == nil:
				return ordLess
			case a.CloseTime.Before(*b.CloseTime):
				return ordLess // ascending
			case b.CloseTime.Before(*a.CloseTime):
				return ordGreater
			}
			return ordEqual
		}, nil
	}
	return nil, fmt.Errorf("unknown sort key %q", key)
}

func comparePtrDesc[T ~int64](a, b *T) ordering {
	switch {
	case a == nil && b == nil:
		return ordEqual
	case a == nil:
		return ordGreater // nulls last
	case b == nil:
		return ordLess
	case *a > *b:
		return ordLess // descending
	case *a < *b:
		return ordGreater
	}
	return ordEqual
}

func keyLess(a, b *market.Market) bool {
	if a.Platform != b.Platform {
		return a.Platform < b.Platform
	}
	return a.ID < b.ID
}
