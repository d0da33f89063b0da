// Package normalize turns adapter drafts into fully valid markets.
//
// Per-record key failures surface as *adapter.Error and skip the record;
// everything else is best-effort: bad numerics become null or zero, out
// of range probabilities are clamped, unknown categories land in Other
// and unknown statuses in closed. Every such degradation is recorded as
// a data-quality warning, never raised.
package normalize

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oddsylabs/oddsy/internal/adapter"
	"github.com/oddsylabs/oddsy/internal/market"
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// Warning is one recorded data-quality event.
type Warning struct {
	Platform platform.Platform
	MarketID string
	Field    string
	Value    string
	Reason   string
}

// Recorder receives data-quality warnings for observability.
type Recorder interface {
	Record(w Warning)
}

// LogRecorder writes warnings to a slog logger.
type LogRecorder struct {
	Logger *slog.Logger
}

func (r LogRecorder) Record(w Warning) {
	r.Logger.Warn("data quality",
		"platform", w.Platform,
		"market_id", w.MarketID,
		"field", w.Field,
		"value", w.Value,
		"reason", w.Reason,
	)
}

// Normalizer applies per-field cleaning to adapter output.
type Normalizer struct {
	rec Recorder
}

func New(rec Recorder) *Normalizer {
	return &Normalizer{rec: rec}
}

// Market converts a draft into a canonical market.
func (n *Normalizer) Market(d *adapter.Draft) (*market.Market, error) {
	if d.ID == "" || !d.Platform.Valid() {
		// The adapter already failed records like this; guard anyway so a
		// buggy caller cannot smuggle a keyless market into the catalog.
		return nil, &adapter.Error{Platform: d.Platform, Field: "id", Reason: "missing key"}
	}

	m := &market.Market{
		ID:         d.ID,
		Platform:   d.Platform,
		Title:      d.Title,
		Subtitle:   d.Subtitle,
		EventID:    d.EventID,
		OptionName: d.OptionName,
		MarketType: d.MarketType,
	}

	var known bool
	m.Category, known = market.CanonicalCategory(d.Category)
	if !known && d.Category != "" {
		n.warn(d, "category", d.Category, "unknown category, using Other")
	}

	m.Status, known = market.CanonicalStatus(d.Status)
	if !known && d.Status != "" {
		n.warn(d, "status", d.Status, "unknown status, treating as closed")
	}

	m.LastPrice = n.probability(d, "last_price", d.LastPrice)
	if m.LastPrice != nil {
		p := *m.LastPrice
		m.Probability = &p
	}
	m.YesBid = n.probability(d, "yes_bid", d.YesBid)
	m.YesAsk = n.probability(d, "yes_ask", d.YesAsk)

	m.Volume = n.volume(d, "volume", d.Volume)
	m.Volume24h = n.volume(d, "volume_24h", d.Volume24h)
	m.OpenInterest = n.volume(d, "open_interest", d.OpenInterest)

	if d.CloseTime != "" {
		t, err := parseTime(d.CloseTime)
		if err != nil {
			n.warn(d, "close_time", d.CloseTime, "unparsable timestamp")
		} else {
			m.CloseTime = &t
		}
	}

	return m, nil
}

// Trade converts a trade draft into a canonical trade. Price and
// timestamp are part of the trade identity, so they are required.
func (n *Normalizer) Trade(d *adapter.TradeDraft) (*market.Trade, error) {
	if d.MarketID == "" || !d.Platform.Valid() {
		return nil, &adapter.Error{Platform: d.Platform, Field: "market_id", Reason: "missing key"}
	}

	raw, err := price.Parse(d.Price)
	if err != nil {
		return nil, &adapter.Error{Platform: d.Platform, Field: "price", Reason: "unparsable price"}
	}
	p, clamped := d.Scale.ToProbability(raw).Clamp01()
	if clamped {
		n.rec.Record(Warning{
			Platform: d.Platform, MarketID: d.MarketID,
			Field: "price", Value: d.Price, Reason: "price outside [0,1], clamped",
		})
	}

	ts, err := parseTime(d.Timestamp)
	if err != nil {
		return nil, &adapter.Error{Platform: d.Platform, Field: "timestamp", Reason: "unparsable timestamp"}
	}

	t := &market.Trade{
		Platform:  d.Platform,
		MarketID:  d.MarketID,
		Price:     p,
		Timestamp: ts,
	}

	if d.TradeID != "" {
		id, err := uuid.Parse(d.TradeID)
		if err != nil {
			n.rec.Record(Warning{
				Platform: d.Platform, MarketID: d.MarketID,
				Field: "trade_id", Value: d.TradeID, Reason: "not a UUID, dropping",
			})
		} else {
			t.ID = id
		}
	}

	if d.Size != "" {
		size, err := decimal.NewFromString(d.Size)
		if err != nil || size.IsNegative() {
			n.rec.Record(Warning{
				Platform: d.Platform, MarketID: d.MarketID,
				Field: "size", Value: d.Size, Reason: "invalid size, using 0",
			})
		} else {
			t.Size = size
		}
	}

	return t, nil
}

// probability coerces a raw quoted price, converts it to the probability
// scale and clamps it to [0, 1]. Unparsable values become nil.
func (n *Normalizer) probability(d *adapter.Draft, field, raw string) *price.Price {
	if raw == "" {
		return nil
	}
	p, err := price.Parse(raw)
	if err != nil {
		n.warn(d, field, raw, "unparsable price, excluding")
		return nil
	}
	converted, clamped := d.Scale.ToProbability(p).Clamp01()
	if clamped {
		n.warn(d, field, raw, "probability outside [0,1], clamped")
	}
	return &converted
}

// volume coerces a raw volume. Absent and unparsable values default to
// zero so a missing volume never excludes a market from counts.
func (n *Normalizer) volume(d *adapter.Draft, field, raw string) decimal.Decimal {
	if raw == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		n.warn(d, field, raw, "unparsable volume, using 0")
		return decimal.Zero
	}
	if v.IsNegative() {
		n.warn(d, field, raw, "negative volume, using 0")
		return decimal.Zero
	}
	return v
}

func (n *Normalizer) warn(d *adapter.Draft, field, value, reason string) {
	n.rec.Record(Warning{
		Platform: d.Platform,
		MarketID: d.ID,
		Field:    field,
		Value:    value,
		Reason:   reason,
	})
}

// parseTime accepts RFC 3339 strings and unix epochs in seconds or
// milliseconds, which is what the exchanges actually send.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	epoch, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	// Millisecond epochs are 13 digits until the year 33658.
	if epoch > 1e12 {
		return time.UnixMilli(epoch).UTC(), nil
	}
	return time.Unix(epoch, 0).UTC(), nil
}
