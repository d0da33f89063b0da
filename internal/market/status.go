package market

import "strings"

// Status is the canonical market lifecycle state. Exchanges report many
// more states; the catalog only distinguishes whether a market currently
// trades.
type Status string

const (
	StatusActive Status = "active"
	StatusClosed Status = "closed"
)

// statusAliases maps lower-cased exchange status labels onto the two
// canonical states. Anything not listed is treated as closed: a stale or
// ambiguous status must never present a market as live.
var statusAliases = map[string]Status{
	"active":     StatusActive,
	"open":       StatusActive,
	"closed":     StatusClosed,
	"inactive":   StatusClosed,
	"settled":    StatusClosed,
	"resolved":   StatusClosed,
	"finalized":  StatusClosed,
	"determined": StatusClosed,
	"expired":    StatusClosed,
	"paused":     StatusClosed,
}

// CanonicalStatus maps a raw exchange status onto {active, closed}.
// The second return reports whether the raw label was recognized;
// unrecognized labels map to StatusClosed.
func CanonicalStatus(raw string) (Status, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if s, ok := statusAliases[key]; ok {
		return s, true
	}
	return StatusClosed, false
}
