// Package adapter maps raw, exchange-specific payloads onto canonical
// drafts. Raw payloads stay schema-less maps at this boundary only;
// everything downstream of an adapter is strictly typed.
package adapter

import (
	"fmt"
	"strconv"

	"github.com/oddsylabs/oddsy/internal/platform"
	"github.com/oddsylabs/oddsy/internal/price"
)

// RawRecord is one decoded JSON object exactly as an exchange returned
// it. It is transient: adapters read it, nothing stores it.
type RawRecord map[string]any

// Draft is the strictly-typed output of a market adapter. Numeric fields
// stay raw strings ("" = absent upstream); the normalizer owns coercion,
// scaling and canonicalization.
type Draft struct {
	Platform platform.Platform
	ID       string

	Title      string
	Subtitle   string
	EventID    string
	OptionName string
	Category   string
	Status     string
	MarketType string

	// Scale declares how this platform quotes prices.
	Scale price.SourceScale

	LastPrice    string
	YesBid       string
	YesAsk       string
	Volume       string
	Volume24h    string
	OpenInterest string
	CloseTime    string
}

// TradeDraft is the strictly-typed output of a trade adapter.
type TradeDraft struct {
	Platform  platform.Platform
	TradeID   string
	MarketID  string
	Scale     price.SourceScale
	Price     string
	Size      string
	Timestamp string
}

// Error reports a raw record whose key fields could not be constructed.
// Records failing with Error are skipped; the refresh cycle continues.
type Error struct {
	Platform platform.Platform
	Field    string
	Reason   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s adapter: field %q: %s", e.Platform, e.Field, e.Reason)
}

// Adapter converts one exchange's raw records into canonical drafts.
// Implementations must be pure and perform no I/O.
type Adapter interface {
	Platform() platform.Platform
	AdaptMarket(raw RawRecord) (*Draft, error)
	AdaptTrade(raw RawRecord) (*TradeDraft, error)
}

// registry is the closed dispatch table. Adding an exchange is an
// explicit, compile-checked addition here.
var registry = map[platform.Platform]Adapter{
	platform.Kalshi:     Kalshi{},
	platform.Polymarket: Polymarket{},
}

// For returns the adapter registered for a platform.
func For(p platform.Platform) (Adapter, bool) {
	a, ok := registry[p]
	return a, ok
}

// str extracts the first present key as a string. JSON numbers and bools
// are rendered to their literal form so the normalizer can coerce them.
func str(raw RawRecord, keys ...string) string {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		case int:
			return strconv.Itoa(t)
		case int64:
			return strconv.FormatInt(t, 10)
		case bool:
			return strconv.FormatBool(t)
		}
	}
	return ""
}

// boolField extracts a bool, accepting JSON bools and "true"/"false".
func boolField(raw RawRecord, key string) (bool, bool) {
	v, ok := raw[key]
	if !ok || v == nil {
		return false, false
	}
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}
