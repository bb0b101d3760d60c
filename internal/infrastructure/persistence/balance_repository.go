package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// GormBalanceRepository implements stock.BalanceRepository using GORM
type GormBalanceRepository struct {
	db *gorm.DB
}

// NewGormBalanceRepository creates a new GormBalanceRepository
func NewGormBalanceRepository(db *gorm.DB) *GormBalanceRepository {
	return &GormBalanceRepository{db: db}
}

// keyScope narrows a query to one exact dimensional key. Nil batch and
// serial match the aggregate tier, not any row.
func keyScope(key stock.BalanceKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("material_id = ? AND location_id = ?", key.MaterialID, key.LocationID)
		if key.BatchID != nil {
			db = db.Where("batch_id = ?", *key.BatchID)
		} else {
			db = db.Where("batch_id IS NULL")
		}
		if key.SerialNumber != nil {
			db = db.Where("serial_number = ?", *key.SerialNumber)
		} else {
			db = db.Where("serial_number IS NULL")
		}
		return db
	}
}

// FindByKey finds the balance record for an exact dimensional key
func (r *GormBalanceRepository) FindByKey(ctx context.Context, key stock.BalanceKey) (*stock.BalanceRecord, error) {
	var record stock.BalanceRecord
	if err := r.db.WithContext(ctx).
		Scopes(keyScope(key)).
		First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindFineGrained finds all batch/serial-level records for a material at a
// location, excluding the aggregate record
func (r *GormBalanceRepository) FindFineGrained(ctx context.Context, materialID, locationID uuid.UUID) ([]stock.BalanceRecord, error) {
	var records []stock.BalanceRecord
	if err := r.db.WithContext(ctx).
		Where("material_id = ? AND location_id = ?", materialID, locationID).
		Where("batch_id IS NOT NULL OR serial_number IS NOT NULL").
		Order("batch_id, serial_number").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindByMaterial finds all balance records for a material
func (r *GormBalanceRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID) ([]stock.BalanceRecord, error) {
	var records []stock.BalanceRecord
	if err := r.db.WithContext(ctx).
		Where("material_id = ?", materialID).
		Order("location_id, batch_id, serial_number").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a balance record
func (r *GormBalanceRepository) Save(ctx context.Context, record *stock.BalanceRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
