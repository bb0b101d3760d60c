package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// GormReservationRepository implements stock.ReservationRepository using GORM
type GormReservationRepository struct {
	db *gorm.DB
}

// NewGormReservationRepository creates a new GormReservationRepository
func NewGormReservationRepository(db *gorm.DB) *GormReservationRepository {
	return &GormReservationRepository{db: db}
}

// FindOpenByDocumentLine finds the reservation a document line holds against
// a dimensional key, if any
func (r *GormReservationRepository) FindOpenByDocumentLine(ctx context.Context, docRef string, lineID uuid.UUID, key stock.BalanceKey) (*stock.ReservationRecord, error) {
	query := r.db.WithContext(ctx).
		Where("document_ref = ? AND line_id = ?", docRef, lineID).
		Where("material_id = ? AND location_id = ?", key.MaterialID, key.LocationID)
	if key.BatchID != nil {
		query = query.Where("batch_id = ?", *key.BatchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}

	var record stock.ReservationRecord
	if err := query.First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// FindByDocument finds all reservations held by a source document
func (r *GormReservationRepository) FindByDocument(ctx context.Context, docRef string) ([]stock.ReservationRecord, error) {
	var records []stock.ReservationRecord
	if err := r.db.WithContext(ctx).
		Where("document_ref = ?", docRef).
		Order("line_id, material_id").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a reservation record
func (r *GormReservationRepository) Save(ctx context.Context, record *stock.ReservationRecord) error {
	return r.db.WithContext(ctx).Save(record).Error
}
