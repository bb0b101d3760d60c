package stock

import "github.com/shopspring/decimal"

// Category is a sub-bucket of on-hand stock
type Category string

const (
	// CategoryUnrestricted is stock freely available for use
	CategoryUnrestricted Category = "UNRESTRICTED"
	// CategoryReserved is stock claimed by source documents
	CategoryReserved Category = "RESERVED"
	// CategoryBlocked is stock excluded from use
	CategoryBlocked Category = "BLOCKED"
	// CategoryQualityInspection is stock held for quality inspection
	CategoryQualityInspection Category = "QUALITY_INSPECTION"
	// CategoryInTransit is stock moving between locations
	CategoryInTransit Category = "IN_TRANSIT"
)

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// IsValid returns true if the category is valid
func (c Category) IsValid() bool {
	switch c {
	case CategoryUnrestricted, CategoryReserved, CategoryBlocked,
		CategoryQualityInspection, CategoryInTransit:
		return true
	}
	return false
}

// AllCategories lists every stock category in a stable order
func AllCategories() []Category {
	return []Category{
		CategoryUnrestricted,
		CategoryReserved,
		CategoryBlocked,
		CategoryQualityInspection,
		CategoryInTransit,
	}
}

// CategoryDeltas holds signed quantity changes per stock category.
// A nil map value means no change for that category.
type CategoryDeltas map[Category]decimal.Decimal

// Add merges another set of deltas into this one and returns the result
func (d CategoryDeltas) Add(other CategoryDeltas) CategoryDeltas {
	out := make(CategoryDeltas, len(d)+len(other))
	for c, q := range d {
		out[c] = q
	}
	for c, q := range other {
		out[c] = out[c].Add(q)
	}
	return out
}

// Negate returns the deltas with every sign flipped
func (d CategoryDeltas) Negate() CategoryDeltas {
	out := make(CategoryDeltas, len(d))
	for c, q := range d {
		out[c] = q.Neg()
	}
	return out
}

// Net returns the sum of all category deltas
func (d CategoryDeltas) Net() decimal.Decimal {
	net := decimal.Zero
	for _, q := range d {
		net = net.Add(q)
	}
	return net
}

// IsZero returns true if every delta is zero
func (d CategoryDeltas) IsZero() bool {
	for _, q := range d {
		if !q.IsZero() {
			return false
		}
	}
	return true
}
