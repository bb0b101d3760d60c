package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// Store is the balance-maintenance service. It is the single write path for
// balance records across every dimensional branch: plain, batched and
// serialized items all go through ApplyDeltas with a BalanceKey.
//
// Invariant maintained here: for any (material, location) the aggregate
// record equals the per-category sum of all fine-grained records at that
// location. Every fine-grained mutation of a dimensioned item must be
// mirrored by SyncAggregate.
type Store struct {
	balances BalanceRepository
	logger   *zap.Logger
}

// NewStore creates a balance store
func NewStore(balances BalanceRepository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{balances: balances, logger: logger}
}

// Get loads the balance record for a key, or a zeroed record if none exists
// yet. The zeroed record is not persisted until a delta is applied.
func (s *Store) Get(ctx context.Context, key BalanceKey) (*BalanceRecord, error) {
	rec, err := s.balances.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return NewBalanceRecord(key), nil
		}
		return nil, err
	}
	return rec, nil
}

// ApplyDeltas reads the record for the key (creating it on first movement
// into the dimension), applies the signed per-category deltas, recomputes the
// total and writes the record back. Deltas that would take any category
// negative are refused.
func (s *Store) ApplyDeltas(ctx context.Context, key BalanceKey, deltas CategoryDeltas) (*BalanceRecord, error) {
	_, rec, err := s.ApplyDeltasTracked(ctx, key, deltas)
	return rec, err
}

// ApplyDeltasTracked behaves like ApplyDeltas and additionally returns the
// record's pre-image, captured from the same read the update is based on so
// compensation restores the exact row that was written.
func (s *Store) ApplyDeltasTracked(ctx context.Context, key BalanceKey, deltas CategoryDeltas) (pre, post *BalanceRecord, err error) {
	rec, err := s.Get(ctx, key)
	if err != nil {
		return nil, nil, err
	}
	pre = rec.Snapshot()
	if deltas.IsZero() {
		return pre, rec, nil
	}

	if err := rec.ApplyDeltas(deltas); err != nil {
		return nil, nil, err
	}
	if err := s.balances.Save(ctx, rec); err != nil {
		return nil, nil, err
	}

	s.logger.Debug("balance updated",
		zap.String("key", key.String()),
		zap.String("total", rec.Total.String()))
	return pre, rec, nil
}

// SyncAggregate mirrors a fine-grained mutation onto the aggregate
// (batch/serial-agnostic) record for the material and location, creating it
// seeded with the deltas if it does not exist yet.
func (s *Store) SyncAggregate(ctx context.Context, materialID, locationID uuid.UUID, deltas CategoryDeltas) (*BalanceRecord, error) {
	return s.ApplyDeltas(ctx, BalanceKey{MaterialID: materialID, LocationID: locationID}, deltas)
}

// Restore writes a previously captured balance snapshot back, total included.
// Compensation path only.
func (s *Store) Restore(ctx context.Context, pre *BalanceRecord) error {
	return s.balances.Save(ctx, pre)
}

// SerialShare is one serial's portion of a group-level category split
type SerialShare struct {
	SerialNumber     string
	BaseQuantity     decimal.Decimal
	FromReserved     decimal.Decimal
	FromUnrestricted decimal.Decimal
}

// SpreadOverSerials distributes a group-level Reserved/Unrestricted deduction
// proportionally across the serials of the group, weighted by each serial's
// share of the group's total requested quantity. Each share is clamped at the
// serial's own available quantity in that category.
func (s *Store) SpreadOverSerials(ctx context.Context, key BalanceKey, serials []SerialAllocation, reservedQty, unrestrictedQty decimal.Decimal) ([]SerialShare, error) {
	groupQty := decimal.Zero
	for _, sa := range serials {
		groupQty = groupQty.Add(sa.BaseQuantity)
	}
	if groupQty.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Serial group quantity must be positive")
	}

	shares := make([]SerialShare, 0, len(serials))
	for _, sa := range serials {
		ratio := sa.BaseQuantity.Div(groupQty)
		share := SerialShare{
			SerialNumber:     sa.SerialNumber,
			BaseQuantity:     sa.BaseQuantity,
			FromReserved:     shared.RoundQty(reservedQty.Mul(ratio)),
			FromUnrestricted: shared.RoundQty(unrestrictedQty.Mul(ratio)),
		}

		serialKey := key
		serial := sa.SerialNumber
		serialKey.SerialNumber = &serial
		rec, err := s.Get(ctx, serialKey)
		if err != nil {
			return nil, err
		}
		// Clamp each share at the serial's own availability.
		share.FromReserved = decimal.Min(share.FromReserved, rec.Reserved)
		share.FromUnrestricted = decimal.Min(share.FromUnrestricted, rec.Unrestricted)

		shares = append(shares, share)
	}
	return shares, nil
}
