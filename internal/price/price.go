// Package price handles price values from prediction market APIs
// without losing precision.
package price

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Price is a fixed-point price with six decimal places.
// A probability of 1.0 is represented as PriceScale.
type Price int64

var _ json.Unmarshaler = (*Price)(nil)

const PriceScale int64 = 1_000_000

// One is the upper probability bound.
const One = Price(PriceScale)

func (p *Price) UnmarshalJSON(data []byte) error {
	if len(data) > 2 && data[0] == '"' && data[len(data)-1] == '"' {
		data = data[1 : len(data)-1]
	}
	// Else we assume that it is a raw number.

	var res int64
	i := 0

	for i < len(data) && data[i] != '.' {
		if data[i] < '0' || data[i] > '9' {
			return fmt.Errorf("invalid price character %q", data[i])
		}
		res = res*10 + int64(data[i]-'0')*PriceScale
		i++
	}

	if i < len(data) && data[i] == '.' {
		i++
		mult := PriceScale
		for i < len(data) {
			if data[i] < '0' || data[i] > '9' {
				return fmt.Errorf("invalid price character %q", data[i])
			}
			if mult > 1 {
				mult /= 10
				res += int64(data[i]-'0') * mult
			}
			i++
		}
	}

	*p = Price(res)
	return nil
}

// Parse converts a decimal string into a Price.
func Parse(s string) (Price, error) {
	if s == "" {
		return 0, fmt.Errorf("empty price")
	}
	neg := false
	if s[0] == '-' {
		neg = true
		s = s[1:]
		if s == "" {
			return 0, fmt.Errorf("no digits after sign")
		}
	}
	var p Price
	if err := p.UnmarshalJSON([]byte(s)); err != nil {
		return 0, err
	}
	if neg {
		p = -p
	}
	return p, nil
}

// FromFloat converts a float to the nearest representable Price.
func FromFloat(f float64) Price {
	if f >= 0 {
		return Price(f*float64(PriceScale) + 0.5)
	}
	return Price(f*float64(PriceScale) - 0.5)
}

// Float64 converts a Price back to a float for display and storage.
func (p Price) Float64() float64 {
	return float64(p) / float64(PriceScale)
}

func (p Price) String() string {
	return strconv.FormatFloat(p.Float64(), 'f', -1, 64)
}

// Clamp01 bounds p to [0, 1]. The second return reports whether
// clamping was necessary.
func (p Price) Clamp01() (Price, bool) {
	switch {
	case p < 0:
		return 0, true
	case p > One:
		return One, true
	}
	return p, false
}

// SourceScale expresses how an exchange quotes prices. Each adapter
// declares the scale its platform uses; the normalizer converts quoted
// prices to probabilities with it.
type SourceScale int

const (
	// ScaleUnit means prices are already probabilities on [0, 1]
	// (Polymarket USDC prices).
	ScaleUnit SourceScale = iota
	// ScaleCents means prices are quoted on [0, 100]
	// (Kalshi cent prices).
	ScaleCents
)

// ToProbability converts a quoted price to the probability scale.
func (s SourceScale) ToProbability(p Price) Price {
	if s == ScaleCents {
		return p / 100
	}
	return p
}
