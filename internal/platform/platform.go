// Package platform identifies the prediction market exchanges the
// aggregator knows about.
package platform

// Platform tags the exchange a record originates from. Adding an exchange
// means adding a constant here and an adapter for it; nothing downstream
// of the adapter layer cares which exchange produced a market.
type Platform string

const (
	Kalshi     Platform = "kalshi"
	Polymarket Platform = "polymarket"
)

// All lists the supported platforms in a fixed order.
func All() []Platform {
	return []Platform{Kalshi, Polymarket}
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	switch p {
	case Kalshi, Polymarket:
		return true
	}
	return false
}

func (p Platform) String() string {
	return string(p)
}
