package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// Direction indicates whether a movement adds to or removes from a balance
type Direction string

const (
	// DirectionIn is a movement into a balance dimension
	DirectionIn Direction = "IN"
	// DirectionOut is a movement out of a balance dimension
	DirectionOut Direction = "OUT"
)

// IsValid returns true if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionIn || d == DirectionOut
}

// TxnType identifies the business operation a movement belongs to
type TxnType string

const (
	// TxnTypeGoodsReceipt is stock received into a location
	TxnTypeGoodsReceipt TxnType = "GOODS_RECEIPT"
	// TxnTypeGoodsDelivery is stock issued against a delivery document
	TxnTypeGoodsDelivery TxnType = "GOODS_DELIVERY"
	// TxnTypeLocationTransfer moves stock between locations
	TxnTypeLocationTransfer TxnType = "LOCATION_TRANSFER"
	// TxnTypeCategoryTransfer moves stock between categories in place
	TxnTypeCategoryTransfer TxnType = "CATEGORY_TRANSFER"
	// TxnTypeReservationRelease returns unused reserved stock to unrestricted
	TxnTypeReservationRelease TxnType = "RESERVATION_RELEASE"
)

// String returns the string representation of TxnType
func (t TxnType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TxnType) IsValid() bool {
	switch t {
	case TxnTypeGoodsReceipt, TxnTypeGoodsDelivery, TxnTypeLocationTransfer,
		TxnTypeCategoryTransfer, TxnTypeReservationRelease:
		return true
	}
	return false
}

// MovementRecord is an immutable ledger entry for one consolidated stock
// movement. One logical allocation group produces one record per category
// branch; serialized groups additionally fan out SerialMovementRecord rows.
// Corrections are made with new records, never by editing existing ones.
type MovementRecord struct {
	shared.BaseEntity
	TxnType      TxnType         `gorm:"type:varchar(30);not null;index:idx_movement_ref,priority:1"`
	Reference    string          `gorm:"type:varchar(100);not null;index:idx_movement_ref,priority:2"`
	LineID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Direction    Direction       `gorm:"type:varchar(3);not null"`
	Category     Category        `gorm:"type:varchar(30);not null"`
	MaterialID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_material"`
	LocationID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_location"`
	BatchID      *string         `gorm:"type:varchar(50)"`
	PlantID      uuid.UUID       `gorm:"type:uuid;not null"`
	BaseQuantity decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	AltQuantity  decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	UOM          string          `gorm:"type:varchar(20);not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	PostedAt     time.Time       `gorm:"type:timestamptz;not null"`
}

// TableName returns the table name for GORM
func (MovementRecord) TableName() string {
	return "stock_movements"
}

// NewMovementRecord creates a movement ledger entry
func NewMovementRecord(
	txnType TxnType,
	reference string,
	lineID uuid.UUID,
	direction Direction,
	category Category,
	materialID, locationID, plantID uuid.UUID,
	baseQuantity decimal.Decimal,
	unitPrice decimal.Decimal,
) (*MovementRecord, error) {
	if !txnType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TXN_TYPE", "Invalid transaction type")
	}
	if reference == "" {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Transaction reference cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Invalid movement direction")
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Invalid stock category")
	}
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Movement quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	baseQuantity = shared.RoundQty(baseQuantity)
	unitPrice = shared.RoundPrice(unitPrice)

	return &MovementRecord{
		BaseEntity:   shared.NewBaseEntity(),
		TxnType:      txnType,
		Reference:    reference,
		LineID:       lineID,
		Direction:    direction,
		Category:     category,
		MaterialID:   materialID,
		LocationID:   locationID,
		PlantID:      plantID,
		BaseQuantity: baseQuantity,
		AltQuantity:  baseQuantity,
		UnitPrice:    unitPrice,
		TotalPrice:   shared.RoundPrice(baseQuantity.Mul(unitPrice)),
		PostedAt:     time.Now(),
	}, nil
}

// WithBatch pins the movement to a batch
func (m *MovementRecord) WithBatch(batchID string) *MovementRecord {
	m.BatchID = &batchID
	return m
}

// WithAltQuantity records the quantity as entered, in the entered UOM
func (m *MovementRecord) WithAltQuantity(qty decimal.Decimal, uom string) *MovementRecord {
	m.AltQuantity = shared.RoundQty(qty)
	m.UOM = uom
	return m
}

// SignedBaseQuantity returns the base quantity, negative for outbound movements
func (m *MovementRecord) SignedBaseQuantity() decimal.Decimal {
	if m.Direction == DirectionOut {
		return m.BaseQuantity.Neg()
	}
	return m.BaseQuantity
}

// SerialMovementRecord is a per-serial audit sub-record of one consolidated
// movement. Each carries the serial's own unscaled base quantity.
type SerialMovementRecord struct {
	shared.BaseEntity
	MovementID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_serial_movement"`
	SerialNumber string          `gorm:"type:varchar(50);not null"`
	BaseQuantity decimal.Decimal `gorm:"type:decimal(18,3);not null"`
}

// TableName returns the table name for GORM
func (SerialMovementRecord) TableName() string {
	return "stock_serial_movements"
}

// NewSerialMovementRecord creates a per-serial audit record referencing a
// persisted consolidated movement
func NewSerialMovementRecord(movementID uuid.UUID, serialNumber string, baseQuantity decimal.Decimal) (*SerialMovementRecord, error) {
	if serialNumber == "" {
		return nil, shared.NewDomainError("INVALID_SERIAL", "Serial number cannot be empty")
	}
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Serial quantity must be positive")
	}
	return &SerialMovementRecord{
		BaseEntity:   shared.NewBaseEntity(),
		MovementID:   movementID,
		SerialNumber: serialNumber,
		BaseQuantity: shared.RoundQty(baseQuantity),
	}, nil
}
