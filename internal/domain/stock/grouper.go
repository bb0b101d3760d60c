package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// Allocation is one fine-grained entry of a line item's allocation payload:
// one per serial number, or one per batch line. Quantity is in the entered
// UOM. Parsed once at the boundary; the engine never re-parses mid-algorithm.
type Allocation struct {
	LocationID   uuid.UUID
	BatchID      *string
	SerialNumber *string
	Quantity     decimal.Decimal
}

// SerialAllocation is one serial's membership in a consolidated group,
// carrying its own unscaled base quantity
type SerialAllocation struct {
	SerialNumber string
	BaseQuantity decimal.Decimal
}

// AllocationGroup consolidates all allocations of a line item that share a
// location and batch into a single posting candidate. The group carries one
// summed quantity, one base quantity from a single UOM resolution, and the
// per-serial fan-out needed for audit sub-records.
type AllocationGroup struct {
	LocationID  uuid.UUID
	BatchID     *string
	AltQuantity decimal.Decimal
	AltUOM      string
	BaseQty     decimal.Decimal
	Serials     []SerialAllocation
}

// Key returns the balance key for the group's batch tier (serial-agnostic)
func (g *AllocationGroup) Key(materialID uuid.UUID) BalanceKey {
	return BalanceKey{MaterialID: materialID, LocationID: g.LocationID, BatchID: g.BatchID}
}

// IsSerialized returns true if the group fans out per-serial audit records
func (g *AllocationGroup) IsSerialized() bool {
	return len(g.Serials) > 0
}

// Grouper consolidates fine-grained allocations into per-(location, batch)
// posting groups so that many serial entries produce a single ledger posting.
type Grouper struct{}

// NewGrouper creates a new Grouper
func NewGrouper() *Grouper {
	return &Grouper{}
}

type groupKey struct {
	locationID uuid.UUID
	batchID    string
}

// Group consolidates the allocations of one line item. The batch dimension
// is ignored for items that are not batch-managed. UOM conversion is
// resolved once per group. Group order follows first appearance in the
// payload so postings stay deterministic.
func (g *Grouper) Group(item *catalog.Item, uom string, allocations []Allocation) ([]AllocationGroup, error) {
	if len(allocations) == 0 {
		return nil, shared.NewDomainError("EMPTY_ALLOCATION", "Line item has no allocation entries")
	}

	index := make(map[groupKey]int)
	groups := make([]AllocationGroup, 0, len(allocations))

	for _, a := range allocations {
		if a.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Allocation quantity must be positive")
		}
		if item.Serialized && (a.SerialNumber == nil || *a.SerialNumber == "") {
			return nil, shared.NewDomainError("MISSING_SERIAL", "Serialized item allocation is missing a serial number")
		}

		var batchID *string
		key := groupKey{locationID: a.LocationID}
		if item.BatchManaged && a.BatchID != nil {
			key.batchID = *a.BatchID
			batchID = a.BatchID
		}

		idx, ok := index[key]
		if !ok {
			idx = len(groups)
			index[key] = idx
			groups = append(groups, AllocationGroup{
				LocationID:  a.LocationID,
				BatchID:     batchID,
				AltQuantity: decimal.Zero,
				AltUOM:      uom,
			})
		}
		groups[idx].AltQuantity = groups[idx].AltQuantity.Add(a.Quantity)

		if item.Serialized {
			baseQty, err := item.ConvertToBase(uom, a.Quantity)
			if err != nil {
				return nil, err
			}
			groups[idx].Serials = append(groups[idx].Serials, SerialAllocation{
				SerialNumber: *a.SerialNumber,
				BaseQuantity: baseQty,
			})
		}
	}

	for i := range groups {
		baseQty, err := item.ConvertToBase(uom, groups[i].AltQuantity)
		if err != nil {
			return nil, err
		}
		groups[i].BaseQty = baseQty
	}

	return groups, nil
}
