package stock

import (
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// CategorySplit is the outcome of deciding how a requested deduction divides
// across Reserved and Unrestricted stock. ReleaseToUnrestricted is non-zero
// only on re-allocation when the document's claim shrank: that quantity is
// returned from Reserved to Unrestricted as a compensating OUT/IN ledger pair.
type CategorySplit struct {
	FromReserved          decimal.Decimal
	FromUnrestricted      decimal.Decimal
	ReleaseToUnrestricted decimal.Decimal
}

// Total returns the deducted quantity across both categories
func (s CategorySplit) Total() decimal.Decimal {
	return s.FromReserved.Add(s.FromUnrestricted)
}

// Deltas renders the split as signed category deltas against a balance record
func (s CategorySplit) Deltas() CategoryDeltas {
	d := CategoryDeltas{}
	reserved := s.FromReserved.Add(s.ReleaseToUnrestricted)
	if !reserved.IsZero() {
		d[CategoryReserved] = reserved.Neg()
	}
	if !s.FromUnrestricted.IsZero() {
		d[CategoryUnrestricted] = d[CategoryUnrestricted].Sub(s.FromUnrestricted)
	}
	if !s.ReleaseToUnrestricted.IsZero() {
		d[CategoryUnrestricted] = d[CategoryUnrestricted].Add(s.ReleaseToUnrestricted)
	}
	return d
}

// Allocator decides how much of a requested deduction comes from Reserved
// versus Unrestricted stock, honoring what a specific document previously
// reserved and releasing unused reservations on re-allocation.
type Allocator struct{}

// NewAllocator creates a new Allocator
func NewAllocator() *Allocator {
	return &Allocator{}
}

// Allocate splits a requested deduction across categories.
//
// prevReserved is the quantity this specific document previously reserved at
// the key; zero when the document carries no prior claim. It bounds how much
// of the current Reserved quantity this document may consume, so one
// document never eats another document's reservation. When the claim shrank
// (prevReserved > requested), the difference is released back to
// Unrestricted.
//
// Insufficient combined availability is a hard validation failure: the
// pre-check pass is expected to have refused the movement already.
func (a *Allocator) Allocate(requested, currentReserved, currentUnrestricted, prevReserved decimal.Decimal) (CategorySplit, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return CategorySplit{}, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}

	availableForDoc := currentReserved
	if prevReserved.GreaterThan(decimal.Zero) {
		availableForDoc = decimal.Min(currentReserved, prevReserved)
	}

	split := CategorySplit{
		FromReserved:          decimal.Zero,
		FromUnrestricted:      decimal.Zero,
		ReleaseToUnrestricted: decimal.Zero,
	}

	if availableForDoc.GreaterThanOrEqual(requested) {
		split.FromReserved = requested
	} else {
		split.FromReserved = availableForDoc
		split.FromUnrestricted = requested.Sub(availableForDoc)
		if currentUnrestricted.LessThan(split.FromUnrestricted) {
			return CategorySplit{}, shared.ErrInsufficientStock
		}
	}

	if prevReserved.GreaterThan(requested) {
		release := prevReserved.Sub(requested)
		// Never release more than is physically reserved after the deduction.
		remaining := currentReserved.Sub(split.FromReserved)
		split.ReleaseToUnrestricted = decimal.Min(release, remaining)
	}

	return split, nil
}

// AllocateUnreserved deducts the full quantity from Unrestricted. Used for
// document statuses that carry no reservation concept.
func (a *Allocator) AllocateUnreserved(requested, currentUnrestricted decimal.Decimal) (CategorySplit, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return CategorySplit{}, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if currentUnrestricted.LessThan(requested) {
		return CategorySplit{}, shared.ErrInsufficientStock
	}
	return CategorySplit{FromUnrestricted: requested}, nil
}
