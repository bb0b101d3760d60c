package catalog

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// CostingMethod determines how stock movements for an item are priced
type CostingMethod string

const (
	// CostingMethodFIFO prices deductions by consuming receipt layers oldest-first
	CostingMethodFIFO CostingMethod = "FIFO"
	// CostingMethodWeightedAverage prices all stock at a single blended unit cost
	CostingMethodWeightedAverage CostingMethod = "WEIGHTED_AVERAGE"
	// CostingMethodFixedCost prices all movements at the item's purchase price
	CostingMethodFixedCost CostingMethod = "FIXED_COST"
)

// String returns the string representation of CostingMethod
func (m CostingMethod) String() string {
	return string(m)
}

// IsValid returns true if the costing method is valid
func (m CostingMethod) IsValid() bool {
	switch m {
	case CostingMethodFIFO, CostingMethodWeightedAverage, CostingMethodFixedCost:
		return true
	}
	return false
}

// UOMConversion maps an alternate unit of measure to the base unit.
// A quantity entered in AltUOM is multiplied by BaseQuantity to obtain
// the quantity in the item's base UOM.
type UOMConversion struct {
	shared.BaseEntity
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_uom_conversion_item"`
	AltUOM       string          `gorm:"type:varchar(20);not null"`
	BaseQuantity decimal.Decimal `gorm:"type:decimal(18,3);not null"`
}

// TableName returns the table name for GORM
func (UOMConversion) TableName() string {
	return "uom_conversions"
}

// Item is read-only material metadata consumed by the balance and costing
// engine. Items are immutable for the duration of a movement transaction.
type Item struct {
	shared.BaseEntity
	Code            string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name            string          `gorm:"type:varchar(255);not null"`
	CostingMethod   CostingMethod   `gorm:"type:varchar(30);not null"`
	Serialized      bool            `gorm:"not null;default:false"`
	BatchManaged    bool            `gorm:"not null;default:false"`
	StockControlled bool            `gorm:"not null;default:true"`
	BaseUOM         string          `gorm:"type:varchar(20);not null"`
	PurchasePrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Conversions []UOMConversion `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "items"
}

// NewItem creates a new item with the given costing method
func NewItem(code, name string, method CostingMethod, baseUOM string) (*Item, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Item code cannot be empty")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_COSTING_METHOD", "Invalid costing method")
	}
	if baseUOM == "" {
		return nil, shared.NewDomainError("INVALID_UOM", "Base UOM cannot be empty")
	}

	return &Item{
		BaseEntity:      shared.NewBaseEntity(),
		Code:            code,
		Name:            name,
		CostingMethod:   method,
		StockControlled: true,
		BaseUOM:         baseUOM,
		PurchasePrice:   decimal.Zero,
		Conversions:     make([]UOMConversion, 0),
	}, nil
}

// AddConversion registers an alternate UOM and its base-quantity multiplier
func (i *Item) AddConversion(altUOM string, baseQuantity decimal.Decimal) error {
	if altUOM == "" {
		return shared.NewDomainError("INVALID_UOM", "Alternate UOM cannot be empty")
	}
	if baseQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_CONVERSION", "Base quantity multiplier must be positive")
	}
	i.Conversions = append(i.Conversions, UOMConversion{
		BaseEntity:   shared.NewBaseEntity(),
		ItemID:       i.ID,
		AltUOM:       altUOM,
		BaseQuantity: baseQuantity,
	})
	return nil
}

// ConvertToBase converts a quantity entered in the given UOM to the base UOM.
// The base UOM itself always converts with a multiplier of one.
func (i *Item) ConvertToBase(uom string, quantity decimal.Decimal) (decimal.Decimal, error) {
	if uom == "" || uom == i.BaseUOM {
		return shared.RoundQty(quantity), nil
	}
	for _, c := range i.Conversions {
		if c.AltUOM == uom {
			return shared.RoundQty(quantity.Mul(c.BaseQuantity)), nil
		}
	}
	return decimal.Zero, shared.ErrUnknownUOM
}

// IsDimensioned returns true if balances for this item are tracked at a
// finer grain than material+location (per batch or per serial)
func (i *Item) IsDimensioned() bool {
	return i.Serialized || i.BatchManaged
}
