package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository defines the interface for item metadata lookup.
// The engine only ever reads items; maintenance of the catalog itself
// happens outside this system.
type ItemRepository interface {
	// FindByID finds an item, with UOM conversions loaded, by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Item, error)

	// FindByCode finds an item, with UOM conversions loaded, by its code
	FindByCode(ctx context.Context, code string) (*Item, error)
}
