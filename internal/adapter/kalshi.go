package adapter

import (
	"regexp"

	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// Kalshi maps records from the Kalshi trade API. Prices are quoted in
// cents (0-100).
//
// Field mapping (market): ticker -> ID, event_ticker -> EventID,
// title/subtitle -> Title/Subtitle, yes_sub_title -> OptionName,
// last_price/yes_bid/yes_ask -> cent prices, volume/volume_24h/
// open_interest -> volumes, close_time -> CloseTime (RFC 3339).
type Kalshi struct{}

func (Kalshi) Platform() platform.Platform { return platform.Kalshi }

var (
	shortCodeRE = regexp.MustCompile(`^[A-Z]{2,6}$`)
	siSwimRE    = regexp.MustCompile(`(?i)^Will (.+?) be on the cover of .*Sports Illustrated Swimsuit`)
)

func (Kalshi) AdaptMarket(raw RawRecord) (*Draft, error) {
	id := str(raw, "ticker")
	if id == "" {
		return nil, &Error{Platform: platform.Kalshi, Field: "ticker", Reason: "missing or empty"}
	}

	d := &Draft{
		Platform:   platform.Kalshi,
		ID:         id,
		Title:      str(raw, "title"),
		Subtitle:   str(raw, "subtitle", "sub_title"),
		EventID:    str(raw, "event_ticker"),
		OptionName: str(raw, "yes_sub_title"),
		Category:   str(raw, "category"),
		Status:     str(raw, "status"),
		MarketType: str(raw, "market_type"),
		Scale:      price.ScaleCents,

		LastPrice:    str(raw, "last_price"),
		YesBid:       str(raw, "yes_bid"),
		YesAsk:       str(raw, "yes_ask"),
		Volume:       str(raw, "volume"),
		Volume24h:    str(raw, "volume_24h"),
		OpenInterest: str(raw, "open_interest"),
		CloseTime:    str(raw, "close_time"),
	}

	if name := optionNameFromTitle(d.Title, d.OptionName); name != "" {
		d.OptionName = name
	}

	return d, nil
}

func (Kalshi) AdaptTrade(raw RawRecord) (*TradeDraft, error) {
	marketID := str(raw, "ticker")
	if marketID == "" {
		return nil, &Error{Platform: platform.Kalshi, Field: "ticker", Reason: "missing or empty"}
	}

	return &TradeDraft{
		Platform:  platform.Kalshi,
		TradeID:   str(raw, "trade_id"),
		MarketID:  marketID,
		Scale:     price.ScaleCents,
		Price:     str(raw, "yes_price", "price"),
		Size:      str(raw, "count"),
		Timestamp: str(raw, "created_time"),
	}, nil
}

// optionNameFromTitle recovers a human-readable option name when the yes
// subtitle is only a short ticker code. Currently only the Sports
// Illustrated Swimsuit cover series needs this.
func optionNameFromTitle(title, yesSub string) string {
	if yesSub == "" || !shortCodeRE.MatchString(yesSub) {
		return ""
	}
	if m := siSwimRE.FindStringSubmatch(title); m != nil {
		return m[1]
	}
	return ""
}
