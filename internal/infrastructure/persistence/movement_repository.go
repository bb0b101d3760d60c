package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// GormMovementRepository implements stock.MovementRepository using GORM.
// The ledger is append-only; Delete exists for the compensation path only.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement record to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, m *stock.MovementRecord) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// FindByID finds a movement record by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.MovementRecord, error) {
	var record stock.MovementRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByReference finds all movements posted under a transaction reference
func (r *GormMovementRepository) FindByReference(ctx context.Context, txnType stock.TxnType, reference string) ([]stock.MovementRecord, error) {
	var records []stock.MovementRecord
	if err := r.db.WithContext(ctx).
		Where("txn_type = ? AND reference = ?", txnType, reference).
		Order("posted_at, created_at").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Delete removes a movement record (compensation path only)
func (r *GormMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&stock.MovementRecord{}, "id = ?", id).Error
}

// GormSerialMovementRepository implements stock.SerialMovementRepository using GORM
type GormSerialMovementRepository struct {
	db *gorm.DB
}

// NewGormSerialMovementRepository creates a new GormSerialMovementRepository
func NewGormSerialMovementRepository(db *gorm.DB) *GormSerialMovementRepository {
	return &GormSerialMovementRepository{db: db}
}

// CreateBatch appends serial sub-records for a persisted movement
func (r *GormSerialMovementRepository) CreateBatch(ctx context.Context, records []*stock.SerialMovementRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(records).Error
}

// FindByMovement finds the sub-records of one consolidated movement
func (r *GormSerialMovementRepository) FindByMovement(ctx context.Context, movementID uuid.UUID) ([]stock.SerialMovementRecord, error) {
	var records []stock.SerialMovementRecord
	if err := r.db.WithContext(ctx).
		Where("movement_id = ?", movementID).
		Order("serial_number").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByMovement removes the sub-records of a movement (compensation path only)
func (r *GormSerialMovementRepository) DeleteByMovement(ctx context.Context, movementID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&stock.SerialMovementRecord{}, "movement_id = ?", movementID).Error
}
