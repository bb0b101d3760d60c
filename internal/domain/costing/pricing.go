package costing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// DeductionPrice is the outcome of pricing a FIFO deduction. Shortfall is
// the portion of the requested quantity no layer could cover; it is priced
// at the last layer's cost and surfaced so callers can log the degradation.
type DeductionPrice struct {
	UnitCost  decimal.Decimal
	TotalCost decimal.Decimal
	Shortfall decimal.Decimal
}

// sortLayers orders layers by ascending sequence, oldest receipt first
func sortLayers(layers []FIFOLayer) []FIFOLayer {
	sorted := make([]FIFOLayer, len(layers))
	copy(sorted, layers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Sequence < sorted[j].Sequence
	})
	return sorted
}

// PriceFIFODeduction walks layers oldest-first and computes the
// quantity-weighted average unit cost of all layers a deduction of qty would
// touch: cost = sum(deducted_i * unitCost_i) / sum(deducted_i).
//
// alreadyConsumed is the quantity earlier deductions in the same transaction
// have taken but not yet written; it is virtually subtracted from layer
// availability first so multiple deductions against the same material price
// correctly before any write lands.
//
// This function never fails: if total availability is insufficient, the
// shortfall is priced at the last layer's cost and reported in the result.
// Quantity correctness is enforced separately by the balance store.
func PriceFIFODeduction(layers []FIFOLayer, qty, alreadyConsumed decimal.Decimal) DeductionPrice {
	sorted := sortLayers(layers)

	// Virtually consume what this transaction already took.
	avail := make([]decimal.Decimal, len(sorted))
	pre := alreadyConsumed
	for i := range sorted {
		avail[i] = sorted[i].AvailableQty
		if pre.IsPositive() {
			taken := decimal.Min(pre, avail[i])
			avail[i] = avail[i].Sub(taken)
			pre = pre.Sub(taken)
		}
	}

	remaining := qty
	totalCost := decimal.Zero
	lastCost := decimal.Zero
	for i := range sorted {
		lastCost = sorted[i].UnitCost
		if remaining.IsZero() {
			break
		}
		taken := decimal.Min(remaining, avail[i])
		if taken.IsPositive() {
			totalCost = totalCost.Add(taken.Mul(sorted[i].UnitCost))
			remaining = remaining.Sub(taken)
		}
	}

	shortfall := remaining
	if shortfall.IsPositive() {
		totalCost = totalCost.Add(shortfall.Mul(lastCost))
	}

	unitCost := decimal.Zero
	if qty.IsPositive() {
		unitCost = shared.RoundPrice(totalCost.Div(qty))
	}

	return DeductionPrice{
		UnitCost:  unitCost,
		TotalCost: shared.RoundPrice(totalCost),
		Shortfall: shared.RoundQty(shortfall),
	}
}

// PeekFIFOCost returns the cost of the first layer (by ascending sequence)
// with available quantity, falling back to the most recent layer's cost when
// nothing is available. Zero when there are no layers at all.
func PeekFIFOCost(layers []FIFOLayer) decimal.Decimal {
	if len(layers) == 0 {
		return decimal.Zero
	}
	sorted := sortLayers(layers)
	for i := range sorted {
		if sorted[i].AvailableQty.IsPositive() {
			return sorted[i].UnitCost
		}
	}
	return sorted[len(sorted)-1].UnitCost
}

// ConsumeFIFOLayers deducts qty across layers oldest-first, clamping each
// layer at zero. It returns the layers that changed and the unmet remainder.
func ConsumeFIFOLayers(layers []*FIFOLayer, qty decimal.Decimal) (touched []*FIFOLayer, shortfall decimal.Decimal) {
	sort.Slice(layers, func(i, j int) bool {
		return layers[i].Sequence < layers[j].Sequence
	})

	remaining := qty
	for _, l := range layers {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		taken := l.Consume(remaining)
		if taken.IsPositive() {
			touched = append(touched, l)
			remaining = remaining.Sub(taken)
		}
	}
	return touched, shared.RoundQty(remaining)
}
