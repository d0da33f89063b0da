package adapter

import (
	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// Polymarket maps records from Polymarket's Gamma and CLOB APIs. Prices
// are USDC amounts already on the [0, 1] probability scale.
//
// The polymarket source flattens each Gamma market into one record per
// outcome before adaptation, so a record here carries a single outcome:
// tokenId -> ID (falling back to conditionId:outcome), question -> Title,
// slug -> EventID, outcome -> OptionName, outcomePrice/bestBid/bestAsk ->
// unit prices, volume24hr -> Volume24h, endDateIso -> CloseTime.
type Polymarket struct{}

func (Polymarket) Platform() platform.Platform { return platform.Polymarket }

func (Polymarket) AdaptMarket(raw RawRecord) (*Draft, error) {
	id := str(raw, "tokenId", "token_id")
	if id == "" {
		condition := str(raw, "conditionId", "condition_id")
		outcome := str(raw, "outcome")
		if condition == "" {
			return nil, &Error{Platform: platform.Polymarket, Field: "tokenId", Reason: "no token or condition ID"}
		}
		id = condition
		if outcome != "" {
			id = condition + ":" + outcome
		}
	}

	d := &Draft{
		Platform:   platform.Polymarket,
		ID:         id,
		Title:      str(raw, "question", "title"),
		EventID:    str(raw, "slug", "conditionId", "condition_id"),
		OptionName: str(raw, "outcome"),
		Category:   str(raw, "category"),
		MarketType: str(raw, "marketType", "market_type"),
		Scale:      price.ScaleUnit,

		LastPrice: str(raw, "lastTradePrice", "outcomePrice"),
		YesBid:    str(raw, "bestBid"),
		YesAsk:    str(raw, "bestAsk"),
		Volume:    str(raw, "volume"),
		Volume24h: str(raw, "volume24hrClob", "volume24hr"),
		CloseTime: str(raw, "endDateIso", "endDate", "closedTime"),
	}

	// Gamma reports lifecycle as closed/active booleans, not a status
	// string.
	if closed, ok := boolField(raw, "closed"); ok && closed {
		d.Status = "closed"
	} else if active, ok := boolField(raw, "active"); ok {
		if active {
			d.Status = "open"
		} else {
			d.Status = "inactive"
		}
	}

	return d, nil
}

func (Polymarket) AdaptTrade(raw RawRecord) (*TradeDraft, error) {
	marketID := str(raw, "asset_id", "assetId", "tokenId")
	if marketID == "" {
		return nil, &Error{Platform: platform.Polymarket, Field: "asset_id", Reason: "missing or empty"}
	}

	return &TradeDraft{
		Platform:  platform.Polymarket,
		MarketID:  marketID,
		Scale:     price.ScaleUnit,
		Price:     str(raw, "price"),
		Size:      str(raw, "size"),
		Timestamp: str(raw, "timestamp"),
	}, nil
}
