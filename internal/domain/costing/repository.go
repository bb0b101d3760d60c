package costing

import (
	"context"

	"github.com/google/uuid"
)

// CostKey identifies the cost records of one material, optionally per batch,
// within a plant
type CostKey struct {
	MaterialID uuid.UUID
	BatchID    *string
	PlantID    uuid.UUID
}

// LayerRepository defines the interface for FIFO cost layer persistence
type LayerRepository interface {
	// FindByKey finds all layers for a key, ordered by ascending sequence
	FindByKey(ctx context.Context, key CostKey) ([]FIFOLayer, error)

	// MaxSequence returns the highest layer sequence for a key, zero if none
	MaxSequence(ctx context.Context, key CostKey) (int64, error)

	// Save creates or updates a layer
	Save(ctx context.Context, layer *FIFOLayer) error

	// Delete removes a layer (compensation path only)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AverageRepository defines the interface for weighted-average record persistence
type AverageRepository interface {
	// FindByKey finds the single live record for a key
	FindByKey(ctx context.Context, key CostKey) (*AverageCostRecord, error)

	// Save creates or updates a record
	Save(ctx context.Context, record *AverageCostRecord) error

	// Delete removes a record (compensation path only)
	Delete(ctx context.Context, id uuid.UUID) error
}
