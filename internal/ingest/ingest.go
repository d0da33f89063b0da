// Package ingest drives the refresh cycle: fetch raw records from each
// platform, adapt and normalize them, and fold them into the catalog.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oddsylabs/oddsy/internal/adapter"
	"github.com/oddsylabs/oddsy/internal/catalog"
	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/normalize"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/query"
	"github.com/oddsylabs/oddsy/internal/stats"
)

// Source produces raw records for one platform.
type Source interface {
	Platform() platform.Platform
	FetchMarkets(ctx context.Context) ([]adapter.RawRecord, error)
	FetchTrades(ctx context.Context, since time.Time) ([]adapter.RawRecord, error)
}

type Config struct {
	RefreshInterval time.Duration
	// TradeWindow bounds how far back each cycle asks sources for trades.
	TradeWindow time.Duration
	// TopMarkets is how many leading markets to log after each cycle.
	TopMarkets int
}

func DefaultConfig() Config {
	return Config{
		RefreshInterval: time.Minute,
		TradeWindow:     7 * 24 * time.Hour,
		TopMarkets:      5,
	}
}

// Runner owns the refresh loop over a set of sources. One bad record
// never fails a cycle: adaptation and normalization errors skip the
// record and are counted instead.
type Runner struct {
	config  Config
	catalog *catalog.Catalog
	norm    *normalize.Normalizer
	sources []Source
	feed    *TradeFeed
	log     *slog.Logger

	now func() time.Time
}

func NewRunner(cfg Config, c *catalog.Catalog, norm *normalize.Normalizer, sources []Source, feed *TradeFeed, log *slog.Logger) *Runner {
	return &Runner{
		config:  cfg,
		catalog: c,
		norm:    norm,
		sources: sources,
		feed:    feed,
		log:     log.With("component", "ingest"),
		now:     time.Now,
	}
}

// Start runs refresh cycles until ctx is cancelled. The first cycle
// runs immediately.
func (r *Runner) Start(ctx context.Context) {
	r.log.Info("started", "interval", r.config.RefreshInterval, "sources", len(r.sources))

	r.Cycle(ctx)

	ticker := time.NewTicker(r.config.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info("stopped", "reason", ctx.Err())
			return
		case <-ticker.C:
			r.Cycle(ctx)
		}
	}
}

// Cycle refreshes markets and trades from every source once.
func (r *Runner) Cycle(ctx context.Context) {
	started := r.now()

	for _, src := range r.sources {
		r.refreshMarkets(ctx, src)
		r.refreshTrades(ctx, src)
	}

	r.logCycle(started)
}

func (r *Runner) refreshMarkets(ctx context.Context, src Source) {
	p := src.Platform()
	records, err := src.FetchMarkets(ctx)
	if err != nil {
		r.log.Error("couldn't fetch markets", "platform", p, "error", err)
		if len(records) == 0 {
			return
		}
		// Partial pages are still worth folding in.
	}

	a, ok := adapter.For(p)
	if !ok {
		r.log.Error("no adapter registered", "platform", p)
		return
	}

	var upserted, skipped int
	for _, raw := range records {
		m, err := r.normalizeMarket(a, raw)
		if err != nil {
			skipped++
			var aErr *adapter.Error
			if !errors.As(err, &aErr) {
				r.log.Error("couldn't normalize market", "platform", p, "error", err)
			}
			continue
		}
		r.catalog.Upsert(m)
		upserted++
	}

	r.log.Info("refreshed markets", "platform", p, "upserted", upserted, "skipped", skipped)
}

func (r *Runner) normalizeMarket(a adapter.Adapter, raw adapter.RawRecord) (*market.Market, error) {
	d, err := a.AdaptMarket(raw)
	if err != nil {
		return nil, err
	}
	return r.norm.Market(d)
}

func (r *Runner) refreshTrades(ctx context.Context, src Source) {
	p := src.Platform()
	since := r.now().Add(-r.config.TradeWindow)

	records, err := src.FetchTrades(ctx, since)
	if err != nil {
		r.log.Error("couldn't fetch trades", "platform", p, "error", err)
		if len(records) == 0 {
			return
		}
	}

	a, ok := adapter.For(p)
	if !ok {
		r.log.Error("no adapter registered", "platform", p)
		return
	}

	var ingested, skipped int
	for _, raw := range records {
		t, err := r.normalizeTrade(a, raw)
		if err != nil {
			skipped++
			var aErr *adapter.Error
			if !errors.As(err, &aErr) {
				r.log.Error("couldn't normalize trade", "platform", p, "error", err)
			}
			continue
		}
		r.catalog.IngestTrade(*t)
		if r.feed != nil {
			r.feed.Send(*t)
		}
		ingested++
	}

	if ingested > 0 || skipped > 0 {
		r.log.Info("refreshed trades", "platform", p, "ingested", ingested, "skipped", skipped)
	}
}

func (r *Runner) normalizeTrade(a adapter.Adapter, raw adapter.RawRecord) (*market.Trade, error) {
	d, err := a.AdaptTrade(raw)
	if err != nil {
		return nil, err
	}
	return r.norm.Trade(d)
}

// logCycle summarizes the catalog after a refresh: per-exchange stats
// and the leading markets by volume.
func (r *Runner) logCycle(started time.Time) {
	snapshot := r.catalog.Snapshot()
	since := r.now().Add(-r.config.TradeWindow)

	for _, s := range stats.ComputeAll(snapshot, since) {
		r.log.Info("exchange stats",
			"platform", s.Platform,
			"active_markets", s.ActiveMarkets,
			"weekly_notional", s.WeeklyNotional,
			"weekly_transactions", s.WeeklyTransactions,
			"open_interest", s.OpenInterest,
		)
	}

	top, err := query.Markets(snapshot, query.Filter{}, query.SortVolume)
	if err != nil {
		r.log.Error("couldn't rank markets", "error", err)
	} else {
		if len(top) > r.config.TopMarkets {
			top = top[:r.config.TopMarkets]
		}
		for i, m := range top {
			r.log.Info("top market",
				"rank", i+1,
				"platform", m.Platform,
				"id", m.ID,
				"title", m.Title,
				"volume", m.Volume,
			)
		}
	}

	r.log.Info("cycle complete", "markets", len(snapshot), "took", r.now().Sub(started))
}
