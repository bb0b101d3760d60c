package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// ReservationRecord tracks the claim a specific source document line holds on
// Reserved stock at one dimensional key. It bounds how much of the Reserved
// category belongs to that document versus other documents, independently of
// the physical balance.
type ReservationRecord struct {
	shared.BaseEntity
	DocumentRef  string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_reservation_doc,priority:1"`
	LineID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_doc,priority:2"`
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_doc,priority:3"`
	LocationID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_reservation_doc,priority:4"`
	BatchID      *string         `gorm:"type:varchar(50);uniqueIndex:idx_reservation_doc,priority:5"`
	ReservedQty  decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	DeliveredQty decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
}

// TableName returns the table name for GORM
func (ReservationRecord) TableName() string {
	return "stock_reservations"
}

// NewReservationRecord creates a reservation claim for a document line
func NewReservationRecord(docRef string, lineID uuid.UUID, key BalanceKey, reservedQty decimal.Decimal) (*ReservationRecord, error) {
	if docRef == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Document reference cannot be empty")
	}
	if reservedQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Reserved quantity must be positive")
	}
	return &ReservationRecord{
		BaseEntity:   shared.NewBaseEntity(),
		DocumentRef:  docRef,
		LineID:       lineID,
		MaterialID:   key.MaterialID,
		LocationID:   key.LocationID,
		BatchID:      key.BatchID,
		ReservedQty:  shared.RoundQty(reservedQty),
		DeliveredQty: decimal.Zero,
	}, nil
}

// OpenQty returns the quantity still reserved and not yet delivered
func (r *ReservationRecord) OpenQty() decimal.Decimal {
	open := r.ReservedQty.Sub(r.DeliveredQty)
	if open.IsNegative() {
		return decimal.Zero
	}
	return open
}

// RecordDelivery consumes part of the claim and returns the new open quantity
func (r *ReservationRecord) RecordDelivery(qty decimal.Decimal) decimal.Decimal {
	r.DeliveredQty = shared.RoundQty(r.DeliveredQty.Add(qty))
	r.Touch()
	return r.OpenQty()
}

// Snapshot returns a deep copy used as a rollback pre-image
func (r *ReservationRecord) Snapshot() *ReservationRecord {
	cp := *r
	if r.BatchID != nil {
		v := *r.BatchID
		cp.BatchID = &v
	}
	return &cp
}
