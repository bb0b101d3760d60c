package stock

import (
	"context"

	"github.com/google/uuid"
)

// BalanceRepository defines the interface for balance record persistence
type BalanceRepository interface {
	// FindByKey finds the balance record for an exact dimensional key
	FindByKey(ctx context.Context, key BalanceKey) (*BalanceRecord, error)

	// FindFineGrained finds all batch/serial-level records for a material at
	// a location (the aggregate record itself is excluded)
	FindFineGrained(ctx context.Context, materialID, locationID uuid.UUID) ([]BalanceRecord, error)

	// FindByMaterial finds all balance records for a material
	FindByMaterial(ctx context.Context, materialID uuid.UUID) ([]BalanceRecord, error)

	// Save creates or updates a balance record
	Save(ctx context.Context, record *BalanceRecord) error
}

// MovementRepository defines the interface for the append-only movement ledger.
// Create returns with the record's identity populated; callers never re-query
// to discover the id of a row they just wrote.
type MovementRepository interface {
	// Create appends a movement record to the ledger
	Create(ctx context.Context, m *MovementRecord) error

	// FindByID finds a movement record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*MovementRecord, error)

	// FindByReference finds all movements posted under a transaction reference
	FindByReference(ctx context.Context, txnType TxnType, reference string) ([]MovementRecord, error)

	// Delete removes a movement record (compensation path only)
	Delete(ctx context.Context, id uuid.UUID) error
}

// SerialMovementRepository defines the interface for per-serial audit sub-records
type SerialMovementRepository interface {
	// CreateBatch appends serial sub-records for a persisted movement
	CreateBatch(ctx context.Context, records []*SerialMovementRecord) error

	// FindByMovement finds the sub-records of one consolidated movement
	FindByMovement(ctx context.Context, movementID uuid.UUID) ([]SerialMovementRecord, error)

	// DeleteByMovement removes the sub-records of a movement (compensation path only)
	DeleteByMovement(ctx context.Context, movementID uuid.UUID) error
}

// ReservationRepository defines the interface for per-document reservation claims
type ReservationRepository interface {
	// FindOpenByDocumentLine finds the reservation a document line holds
	// against a dimensional key, if any
	FindOpenByDocumentLine(ctx context.Context, docRef string, lineID uuid.UUID, key BalanceKey) (*ReservationRecord, error)

	// FindByDocument finds all reservations held by a source document
	FindByDocument(ctx context.Context, docRef string) ([]ReservationRecord, error)

	// Save creates or updates a reservation record
	Save(ctx context.Context, r *ReservationRecord) error
}
