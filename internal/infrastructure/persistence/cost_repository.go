package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yunawinaya/stockflow/internal/domain/costing"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// costKeyScope narrows a query to one cost key. A nil batch matches the
// batch-agnostic tier.
func costKeyScope(key costing.CostKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("material_id = ? AND plant_id = ?", key.MaterialID, key.PlantID)
		if key.BatchID != nil {
			db = db.Where("batch_id = ?", *key.BatchID)
		} else {
			db = db.Where("batch_id IS NULL")
		}
		return db
	}
}

// GormLayerRepository implements costing.LayerRepository using GORM
type GormLayerRepository struct {
	db *gorm.DB
}

// NewGormLayerRepository creates a new GormLayerRepository
func NewGormLayerRepository(db *gorm.DB) *GormLayerRepository {
	return &GormLayerRepository{db: db}
}

// FindByKey finds all layers for a key, ordered by ascending sequence
func (r *GormLayerRepository) FindByKey(ctx context.Context, key costing.CostKey) ([]costing.FIFOLayer, error) {
	var layers []costing.FIFOLayer
	if err := r.db.WithContext(ctx).
		Scopes(costKeyScope(key)).
		Order("sequence").
		Find(&layers).Error; err != nil {
		return nil, err
	}
	return layers, nil
}

// MaxSequence returns the highest layer sequence for a key, zero if none
func (r *GormLayerRepository) MaxSequence(ctx context.Context, key costing.CostKey) (int64, error) {
	var max *int64
	if err := r.db.WithContext(ctx).
		Model(&costing.FIFOLayer{}).
		Scopes(costKeyScope(key)).
		Select("MAX(sequence)").
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}

// Save creates or updates a layer
func (r *GormLayerRepository) Save(ctx context.Context, layer *costing.FIFOLayer) error {
	return r.db.WithContext(ctx).Save(layer).Error
}

// Delete removes a layer (compensation path only)
func (r *GormLayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&costing.FIFOLayer{}, "id = ?", id).Error
}

// GormAverageRepository implements costing.AverageRepository using GORM
type GormAverageRepository struct {
	db *gorm.DB
}

// NewGormAverageRepository creates a new GormAverageRepository
func NewGormAverageRepository(db *gorm.DB) *GormAverageRepository {
	return &GormAverageRepository{db: db}
}

// FindByKey finds the single live record for a key
func (r *GormAverageRepository) FindByKey(ctx context.Context, key costing.CostKey) (*costing.AverageCostRecord, error) {
	var record costing.AverageCostRecord
	if err := r.db.WithContext(ctx).
		Scopes(costKeyScope(key)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a record
func (r *GormAverageRepository) Save(ctx context.Context, record *costing.AverageCostRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}

// Delete removes a record (compensation path only)
func (r *GormAverageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&costing.AverageCostRecord{}, "id = ?", id).Error
}
