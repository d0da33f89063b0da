package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/store"
)

// SnapshotWriter periodically persists catalog state, and the trades it
// consumes from the feed, to the database.
type SnapshotWriter struct {
	catalog   Snapshotter
	store     *store.Store
	feed      *TradeFeed
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger

	pending []store.InsertTradeParams
}

// Snapshotter is the slice of the catalog the writer needs.
type Snapshotter interface {
	Snapshot() []market.Market
}

func NewSnapshotWriter(c Snapshotter, s *store.Store, feed *TradeFeed, interval, retention time.Duration, logger *slog.Logger) *SnapshotWriter {
	return &SnapshotWriter{
		catalog:   c,
		store:     s,
		feed:      feed,
		interval:  interval,
		retention: retention,
		logger:    logger.With("component", "snapshot_writer"),
	}
}

// Start runs the snapshot writer until the context is cancelled.
func (sw *SnapshotWriter) Start(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()

	sw.logger.Info("started snapshot writer", "interval", sw.interval, "retention", sw.retention)

	for {
		select {
		case <-ctx.Done():
			sw.logger.Info("snapshot writer stopped", "error", ctx.Err())
			return
		case t := <-sw.feed.Trades():
			sw.pending = append(sw.pending, insertParams(t))
		case <-ticker.C:
			sw.writeSnapshot(ctx)
			sw.prune(ctx)
		}
	}
}

func (sw *SnapshotWriter) writeSnapshot(ctx context.Context) {
	snapshot := sw.catalog.Snapshot()
	trades := sw.pending
	sw.pending = nil

	if len(snapshot) == 0 && len(trades) == 0 {
		return
	}

	err := sw.store.WithTx(ctx, func(q *store.Queries) error {
		for _, m := range snapshot {
			if err := q.UpsertMarket(ctx, upsertParams(m)); err != nil {
				return err
			}
		}
		return q.InsertTrades(ctx, trades)
	})
	if err != nil {
		sw.logger.Error("failed to write snapshot", "error", err)
		return
	}

	sw.logger.Debug("wrote snapshot", "markets", len(snapshot), "trades", len(trades))
}

func (sw *SnapshotWriter) prune(ctx context.Context) {
	if sw.retention <= 0 {
		return
	}

	cutoff := time.Now().Add(-sw.retention)
	removed, err := sw.store.DeleteTradesBefore(ctx, cutoff)
	if err != nil {
		sw.logger.Error("failed to prune trades", "error", err)
		return
	}
	if removed > 0 {
		sw.logger.Debug("pruned trades", "removed", removed, "cutoff", cutoff)
	}
}

func upsertParams(m market.Market) store.UpsertMarketParams {
	p := store.UpsertMarketParams{
		Platform:     string(m.Platform),
		ID:           m.ID,
		Title:        m.Title,
		Subtitle:     m.Subtitle,
		EventID:      m.EventID,
		OptionName:   m.OptionName,
		Category:     string(m.Category),
		Status:       string(m.Status),
		MarketType:   m.MarketType,
		Volume:       m.Volume.String(),
		Volume24h:    m.Volume24h.String(),
		OpenInterest: m.OpenInterest.String(),
	}

	if m.LastPrice != nil {
		p.LastPrice = pgtype.Float8{Float64: m.LastPrice.Float64(), Valid: true}
	}
	if m.Probability != nil {
		p.Probability = pgtype.Float8{Float64: m.Probability.Float64(), Valid: true}
	}
	if m.YesBid != nil {
		p.YesBid = pgtype.Float8{Float64: m.YesBid.Float64(), Valid: true}
	}
	if m.YesAsk != nil {
		p.YesAsk = pgtype.Float8{Float64: m.YesAsk.Float64(), Valid: true}
	}
	if m.CloseTime != nil {
		p.CloseTime = pgtype.Timestamptz{Time: *m.CloseTime, Valid: true}
	}
	return p
}

func insertParams(t market.Trade) store.InsertTradeParams {
	return store.InsertTradeParams{
		ID:       t.ID,
		Platform: string(t.Platform),
		MarketID: t.MarketID,
		Price:    t.Price.Float64(),
		Size:     t.Size.String(),
		TradedAt: t.Timestamp,
	}
}
