package stock

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// BalanceKey identifies one balance record. Batch and serial are optional:
// both nil addresses the aggregate tier for the material at the location,
// which for non-batched, non-serialized items is also the only tier.
type BalanceKey struct {
	MaterialID   uuid.UUID
	LocationID   uuid.UUID
	BatchID      *string
	SerialNumber *string
}

// AggregateKey returns the batch/serial-agnostic key for the same
// material and location
func (k BalanceKey) AggregateKey() BalanceKey {
	return BalanceKey{MaterialID: k.MaterialID, LocationID: k.LocationID}
}

// IsAggregate returns true if the key addresses the aggregate tier
func (k BalanceKey) IsAggregate() bool {
	return k.BatchID == nil && k.SerialNumber == nil
}

// String renders the key for log and error messages
func (k BalanceKey) String() string {
	s := fmt.Sprintf("material=%s location=%s", k.MaterialID, k.LocationID)
	if k.BatchID != nil {
		s += " batch=" + *k.BatchID
	}
	if k.SerialNumber != nil {
		s += " serial=" + *k.SerialNumber
	}
	return s
}

// BalanceRecord holds the on-hand quantity of one material at one location,
// optionally pinned to a batch or serial number, split across the five stock
// categories. Total is kept equal to the sum of the categories. Records are
// created on first movement into a dimension and never hard-deleted.
type BalanceRecord struct {
	shared.BaseEntity
	MaterialID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_key,priority:1"`
	LocationID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_balance_key,priority:2"`
	BatchID           *string         `gorm:"type:varchar(50);uniqueIndex:idx_balance_key,priority:3"`
	SerialNumber      *string         `gorm:"type:varchar(50);uniqueIndex:idx_balance_key,priority:4"`
	Unrestricted      decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	Reserved          decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	Blocked           decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	QualityInspection decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	InTransit         decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	Total             decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (BalanceRecord) TableName() string {
	return "stock_balances"
}

// NewBalanceRecord creates a zeroed balance record for the given key
func NewBalanceRecord(key BalanceKey) *BalanceRecord {
	return &BalanceRecord{
		BaseEntity:        shared.NewBaseEntity(),
		MaterialID:        key.MaterialID,
		LocationID:        key.LocationID,
		BatchID:           key.BatchID,
		SerialNumber:      key.SerialNumber,
		Unrestricted:      decimal.Zero,
		Reserved:          decimal.Zero,
		Blocked:           decimal.Zero,
		QualityInspection: decimal.Zero,
		InTransit:         decimal.Zero,
		Total:             decimal.Zero,
	}
}

// Key returns the dimensional key of this record
func (b *BalanceRecord) Key() BalanceKey {
	return BalanceKey{
		MaterialID:   b.MaterialID,
		LocationID:   b.LocationID,
		BatchID:      b.BatchID,
		SerialNumber: b.SerialNumber,
	}
}

// Quantity returns the quantity held in the given category
func (b *BalanceRecord) Quantity(c Category) decimal.Decimal {
	switch c {
	case CategoryUnrestricted:
		return b.Unrestricted
	case CategoryReserved:
		return b.Reserved
	case CategoryBlocked:
		return b.Blocked
	case CategoryQualityInspection:
		return b.QualityInspection
	case CategoryInTransit:
		return b.InTransit
	}
	return decimal.Zero
}

func (b *BalanceRecord) setQuantity(c Category, q decimal.Decimal) {
	switch c {
	case CategoryUnrestricted:
		b.Unrestricted = q
	case CategoryReserved:
		b.Reserved = q
	case CategoryBlocked:
		b.Blocked = q
	case CategoryQualityInspection:
		b.QualityInspection = q
	case CategoryInTransit:
		b.InTransit = q
	}
}

// ApplyDeltas applies signed per-category changes and recomputes the total.
// Unlike the costing side, balances never clamp: a delta that would take any
// category negative is refused, since it represents physical stock.
func (b *BalanceRecord) ApplyDeltas(deltas CategoryDeltas) error {
	for c, delta := range deltas {
		if !c.IsValid() {
			return shared.NewDomainError("INVALID_CATEGORY", "Invalid stock category: "+c.String())
		}
		next := shared.RoundQty(b.Quantity(c).Add(delta))
		if next.IsNegative() {
			return shared.NewDomainError("NEGATIVE_BALANCE",
				fmt.Sprintf("Category %s would go negative at %s (have %s, delta %s)",
					c, b.Key(), b.Quantity(c), delta))
		}
	}

	for c, delta := range deltas {
		b.setQuantity(c, shared.RoundQty(b.Quantity(c).Add(delta)))
	}
	b.recomputeTotal()
	b.Touch()
	return nil
}

func (b *BalanceRecord) recomputeTotal() {
	total := decimal.Zero
	for _, c := range AllCategories() {
		total = total.Add(b.Quantity(c))
	}
	b.Total = shared.RoundQty(total)
}

// Snapshot returns a deep copy used as a rollback pre-image
func (b *BalanceRecord) Snapshot() *BalanceRecord {
	cp := *b
	if b.BatchID != nil {
		v := *b.BatchID
		cp.BatchID = &v
	}
	if b.SerialNumber != nil {
		v := *b.SerialNumber
		cp.SerialNumber = &v
	}
	return &cp
}
