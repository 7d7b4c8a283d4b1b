// Package types provides shared value types for quantities and discounts.
package types

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a count of whole sale units (boxes). Pharmacy sales never
// split a box, so quantities are plain integers.
type Quantity int64

// CoerceQuantity converts a loosely-typed value from a sale document into a
// Quantity. Point-of-sale payloads carry quantities as numbers, numeric
// strings, or garbage; anything unparseable coerces to zero.
func CoerceQuantity(v any) Quantity {
	switch q := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(q) || math.IsInf(q, 0) {
			return 0
		}
		return Quantity(math.Round(q))
	case int:
		return Quantity(q)
	case int64:
		return Quantity(q)
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(q, ",", "."))
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return Quantity(math.Round(f))
	default:
		return 0
	}
}

func (q Quantity) IsPositive() bool { return q > 0 }

func (q Quantity) Int64() int64 { return int64(q) }

// Min returns the smaller of q and other.
func (q Quantity) Min(other Quantity) Quantity {
	if q < other {
		return q
	}
	return other
}

// Remise is a discount percentage on an order line. Stored as a decimal so
// values like 2.5% survive round-trips without float drift.
type Remise = decimal.Decimal

// ZeroRemise is the default discount.
func ZeroRemise() Remise {
	return decimal.Zero
}

// ParseRemise parses a discount percentage, accepting comma decimals.
func ParseRemise(s string) (Remise, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
