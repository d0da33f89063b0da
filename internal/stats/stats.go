// Package stats computes per-exchange headline figures from a catalog
// snapshot.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// ExchangeStats summarizes one exchange's recent activity.
type ExchangeStats struct {
	Platform           platform.Platform
	WeeklyNotional     decimal.Decimal // dollars traded during the window
	WeeklyTransactions decimal.Decimal // contracts traded during the window
	ActiveMarkets      int
	OpenInterest       decimal.Decimal
}

// week approximates the trade window in days when only 24h volume is
// available.
const weekDays = 7

// Compute derives stats for one platform from a snapshot. Trades inside
// the window give exact figures (notional = Σ price × size); when the
// snapshot carries no trades for the platform, the 24h volumes are
// extrapolated over a week as a best-effort approximation.
func Compute(snapshot []market.Market, p platform.Platform, since time.Time) ExchangeStats {
	out := ExchangeStats{Platform: p}

	sawTrades := false
	approxNotional := decimal.Zero
	approxTransactions := decimal.Zero

	for i := range snapshot {
		m := &snapshot[i]
		if m.Platform != p {
			continue
		}

		if m.Status == market.StatusActive {
			out.ActiveMarkets++
		}
		out.OpenInterest = out.OpenInterest.Add(m.OpenInterest)

		for _, t := range m.Trades {
			if t.Timestamp.Before(since) {
				continue
			}
			sawTrades = true
			out.WeeklyTransactions = out.WeeklyTransactions.Add(t.Size)
			out.WeeklyNotional = out.WeeklyNotional.Add(dollars(t.Price).Mul(t.Size))
		}

		v24 := m.Volume24h.Mul(decimal.NewFromInt(weekDays))
		approxTransactions = approxTransactions.Add(v24)
		if m.LastPrice != nil {
			approxNotional = approxNotional.Add(v24.Mul(dollars(*m.LastPrice)))
		} else {
			approxNotional = approxNotional.Add(v24)
		}
	}

	if !sawTrades {
		out.WeeklyNotional = approxNotional
		out.WeeklyTransactions = approxTransactions
	}

	return out
}

// ComputeAll derives stats for every supported platform.
func ComputeAll(snapshot []market.Market, since time.Time) []ExchangeStats {
	out := make([]ExchangeStats, 0, len(platform.All()))
	for _, p := range platform.All() {
		out = append(out, Compute(snapshot, p, since))
	}
	return out
}

// dollars converts a probability-scale price to a decimal dollar amount.
func dollars(p price.Price) decimal.Decimal {
	return decimal.New(int64(p), -6)
}
