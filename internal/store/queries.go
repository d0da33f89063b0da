package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

type Queries struct {
	db DBTX
}

func newQueries(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const upsertMarket = `
INSERT INTO markets (
	platform, id, title, subtitle, event_id, option_name, category,
	status, market_type, last_price, probability, yes_bid, yes_ask,
	volume, volume_24h, open_interest, close_time, updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now()
)
ON CONFLICT (platform, id) DO UPDATE SET
	title = EXCLUDED.title,
	subtitle = EXCLUDED.subtitle,
	event_id = EXCLUDED.event_id,
	option_name = EXCLUDED.option_name,
	category = EXCLUDED.category,
	status = EXCLUDED.status,
	market_type = EXCLUDED.market_type,
	last_price = EXCLUDED.last_price,
	probability = EXCLUDED.probability,
	yes_bid = EXCLUDED.yes_bid,
	yes_ask = EXCLUDED.yes_ask,
	volume = EXCLUDED.volume,
	volume_24h = EXCLUDED.volume_24h,
	open_interest = EXCLUDED.open_interest,
	close_time = EXCLUDED.close_time,
	updated_at = now()
`

type UpsertMarketParams struct {
	Platform     string
	ID           string
	Title        string
	Subtitle     string
	EventID      string
	OptionName   string
	Category     string
	Status       string
	MarketType   string
	LastPrice    pgtype.Float8
	Probability  pgtype.Float8
	YesBid       pgtype.Float8
	YesAsk       pgtype.Float8
	Volume       string
	Volume24h    string
	OpenInterest string
	CloseTime    pgtype.Timestamptz
}

func (q *Queries) UpsertMarket(ctx context.Context, p UpsertMarketParams) error {
	_, err := q.db.Exec(ctx, upsertMarket,
		p.Platform, p.ID, p.Title, p.Subtitle, p.EventID, p.OptionName,
		p.Category, p.Status, p.MarketType, p.LastPrice, p.Probability,
		p.YesBid, p.YesAsk, p.Volume, p.Volume24h, p.OpenInterest,
		p.CloseTime,
	)
	if err != nil {
		return fmt.Errorf("upsert market %s/%s: %w", p.Platform, p.ID, err)
	}
	return nil
}

const insertTrade = `
INSERT INTO trades (id, platform, market_id, price, size, traded_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (market_id, traded_at, price, size) DO NOTHING
`

type InsertTradeParams struct {
	ID       uuid.UUID
	Platform string
	MarketID string
	Price    float64
	Size     string
	TradedAt time.Time
}

// InsertTrades writes trades in one round trip. Duplicate trades are
// silently skipped.
func (q *Queries) InsertTrades(ctx context.Context, trades []InsertTradeParams) error {
	if len(trades) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(insertTrade, t.ID, t.Platform, t.MarketID, t.Price, t.Size, t.TradedAt)
	}

	results := q.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range trades {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert trade %s: %w", trades[i].ID, err)
		}
	}
	return nil
}

const deleteTradesBefore = `
DELETE FROM trades WHERE traded_at < $1
`

// DeleteTradesBefore prunes trade history older than cutoff and reports
// how many rows were removed.
func (q *Queries) DeleteTradesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteTradesBefore, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete trades before %s: %w", cutoff, err)
	}
	return tag.RowsAffected(), nil
}
