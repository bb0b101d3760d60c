package shared

import "github.com/shopspring/decimal"

// Quantity and price precision used across the engine. Quantities carry three
// decimal places, prices four; both roundings are half-up and idempotent.
const (
	QuantityPrecision = 3
	PricePrecision    = 4
)

// RoundQty rounds a quantity to the engine-wide quantity precision
func RoundQty(q decimal.Decimal) decimal.Decimal {
	return q.Round(QuantityPrecision)
}

// RoundPrice rounds a unit or total price to the engine-wide price precision
func RoundPrice(p decimal.Decimal) decimal.Decimal {
	return p.Round(PricePrecision)
}
