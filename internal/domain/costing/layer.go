package costing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// FIFOLayer is one receipt-dated batch of cost and quantity, consumed
// oldest-sequence-first on deduction. AvailableQuantity only ever decreases
// and is clamped at zero; it never goes negative.
type FIFOLayer struct {
	shared.BaseEntity
	MaterialID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_fifo_layer_key,priority:1"`
	BatchID          *string         `gorm:"type:varchar(50);index:idx_fifo_layer_key,priority:2"`
	PlantID          uuid.UUID       `gorm:"type:uuid;not null;index:idx_fifo_layer_key,priority:3"`
	Sequence         int64           `gorm:"not null"`
	InitialQuantity  decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	AvailableQty     decimal.Decimal `gorm:"type:decimal(18,3);not null"`
	UnitCost         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (FIFOLayer) TableName() string {
	return "fifo_cost_layers"
}

// NewFIFOLayer creates a receipt layer with the given sequence
func NewFIFOLayer(materialID uuid.UUID, batchID *string, plantID uuid.UUID, sequence int64, quantity, unitCost decimal.Decimal) (*FIFOLayer, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Layer quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	quantity = shared.RoundQty(quantity)
	return &FIFOLayer{
		BaseEntity:      shared.NewBaseEntity(),
		MaterialID:      materialID,
		BatchID:         batchID,
		PlantID:         plantID,
		Sequence:        sequence,
		InitialQuantity: quantity,
		AvailableQty:    quantity,
		UnitCost:        shared.RoundPrice(unitCost),
	}, nil
}

// Consume deducts up to qty from the layer, clamping at zero, and returns
// the quantity actually taken
func (l *FIFOLayer) Consume(qty decimal.Decimal) decimal.Decimal {
	taken := decimal.Min(qty, l.AvailableQty)
	l.AvailableQty = shared.RoundQty(l.AvailableQty.Sub(taken))
	l.Touch()
	return taken
}

// Snapshot returns a deep copy used as a rollback pre-image
func (l *FIFOLayer) Snapshot() *FIFOLayer {
	cp := *l
	if l.BatchID != nil {
		v := *l.BatchID
		cp.BatchID = &v
	}
	return &cp
}

// AverageCostRecord is the single live weighted-average record per
// (material, batch?, plant). Receipts blend the cost; deductions decrease
// quantity and hold the cost constant.
type AverageCostRecord struct {
	shared.BaseEntity
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wa_record_key,priority:1"`
	BatchID    *string         `gorm:"type:varchar(50);uniqueIndex:idx_wa_record_key,priority:2"`
	PlantID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_wa_record_key,priority:3"`
	Quantity   decimal.Decimal `gorm:"type:decimal(18,3);not null;default:0"`
	UnitCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (AverageCostRecord) TableName() string {
	return "average_cost_records"
}

// NewAverageCostRecord creates a weighted-average record seeded by a receipt
func NewAverageCostRecord(materialID uuid.UUID, batchID *string, plantID uuid.UUID, quantity, unitCost decimal.Decimal) *AverageCostRecord {
	return &AverageCostRecord{
		BaseEntity: shared.NewBaseEntity(),
		MaterialID: materialID,
		BatchID:    batchID,
		PlantID:    plantID,
		Quantity:   shared.RoundQty(quantity),
		UnitCost:   shared.RoundPrice(unitCost),
	}
}

// Blend folds a receipt into the record, recomputing the weighted-average
// unit cost: (oldCost*oldQty + recvCost*recvQty) / (oldQty + recvQty)
func (r *AverageCostRecord) Blend(quantity, unitCost decimal.Decimal) {
	newQty := r.Quantity.Add(quantity)
	if newQty.LessThanOrEqual(decimal.Zero) {
		r.Quantity = shared.RoundQty(newQty)
		r.Touch()
		return
	}
	totalValue := r.Quantity.Mul(r.UnitCost).Add(quantity.Mul(unitCost))
	r.UnitCost = shared.RoundPrice(totalValue.Div(newQty))
	r.Quantity = shared.RoundQty(newQty)
	r.Touch()
}

// Deduct decreases the quantity, clamping at zero, and returns the unmet
// remainder. The unit cost is deliberately never recomputed on the way down.
func (r *AverageCostRecord) Deduct(quantity decimal.Decimal) decimal.Decimal {
	shortfall := decimal.Zero
	next := r.Quantity.Sub(quantity)
	if next.IsNegative() {
		shortfall = next.Neg()
		next = decimal.Zero
	}
	r.Quantity = shared.RoundQty(next)
	r.Touch()
	return shared.RoundQty(shortfall)
}

// Snapshot returns a deep copy used as a rollback pre-image
func (r *AverageCostRecord) Snapshot() *AverageCostRecord {
	cp := *r
	if r.BatchID != nil {
		v := *r.BatchID
		cp.BatchID = &v
	}
	return &cp
}
