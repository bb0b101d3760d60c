package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// memoryBalanceRepository is an in-memory BalanceRepository for store tests
type memoryBalanceRepository struct {
	records map[string]*BalanceRecord
	saves   int
}

func newMemoryBalanceRepository() *memoryBalanceRepository {
	return &memoryBalanceRepository{records: make(map[string]*BalanceRecord)}
}

func (r *memoryBalanceRepository) FindByKey(ctx context.Context, key BalanceKey) (*BalanceRecord, error) {
	rec, ok := r.records[key.String()]
	if !ok {
		return nil, shared.ErrNotFound
	}
	cp := rec.Snapshot()
	return cp, nil
}

func (r *memoryBalanceRepository) FindFineGrained(ctx context.Context, materialID, locationID uuid.UUID) ([]BalanceRecord, error) {
	var out []BalanceRecord
	for _, rec := range r.records {
		if rec.MaterialID == materialID && rec.LocationID == locationID && !rec.Key().IsAggregate() {
			out = append(out, *rec.Snapshot())
		}
	}
	return out, nil
}

func (r *memoryBalanceRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID) ([]BalanceRecord, error) {
	var out []BalanceRecord
	for _, rec := range r.records {
		if rec.MaterialID == materialID {
			out = append(out, *rec.Snapshot())
		}
	}
	return out, nil
}

func (r *memoryBalanceRepository) Save(ctx context.Context, record *BalanceRecord) error {
	r.saves++
	r.records[record.Key().String()] = record.Snapshot()
	return nil
}

func TestStore_Get(t *testing.T) {
	repo := newMemoryBalanceRepository()
	store := NewStore(repo, nil)
	key := BalanceKey{MaterialID: uuid.New(), LocationID: uuid.New()}

	t.Run("returns zeroed record for unknown key without persisting", func(t *testing.T) {
		rec, err := store.Get(context.Background(), key)
		require.NoError(t, err)
		assert.True(t, rec.Total.IsZero())
		assert.Equal(t, 0, repo.saves)
	})
}

func TestStore_ApplyDeltasTracked(t *testing.T) {
	ctx := context.Background()

	t.Run("creates record on first movement into a dimension", func(t *testing.T) {
		repo := newMemoryBalanceRepository()
		store := NewStore(repo, nil)
		key := BalanceKey{MaterialID: uuid.New(), LocationID: uuid.New()}

		pre, post, err := store.ApplyDeltasTracked(ctx, key, CategoryDeltas{CategoryUnrestricted: dec("10")})
		require.NoError(t, err)
		assert.True(t, pre.Total.IsZero())
		assert.True(t, post.Total.Equal(dec("10")))
		assert.Equal(t, pre.ID, post.ID, "pre-image identifies the row that was written")

		stored, err := repo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, stored.Unrestricted.Equal(dec("10")))
	})

	t.Run("pre-image restores the exact prior state", func(t *testing.T) {
		repo := newMemoryBalanceRepository()
		store := NewStore(repo, nil)
		key := BalanceKey{MaterialID: uuid.New(), LocationID: uuid.New()}

		_, _, err := store.ApplyDeltasTracked(ctx, key, CategoryDeltas{CategoryUnrestricted: dec("10")})
		require.NoError(t, err)

		pre, _, err := store.ApplyDeltasTracked(ctx, key, CategoryDeltas{CategoryUnrestricted: dec("-4")})
		require.NoError(t, err)

		require.NoError(t, store.Restore(ctx, pre))
		rec, err := store.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.Unrestricted.Equal(dec("10")))
		assert.True(t, rec.Total.Equal(dec("10")))
	})

	t.Run("refused delta writes nothing", func(t *testing.T) {
		repo := newMemoryBalanceRepository()
		store := NewStore(repo, nil)
		key := BalanceKey{MaterialID: uuid.New(), LocationID: uuid.New()}

		_, _, err := store.ApplyDeltasTracked(ctx, key, CategoryDeltas{CategoryUnrestricted: dec("-1")})
		require.Error(t, err)
		assert.Equal(t, 0, repo.saves)
	})

	t.Run("zero deltas skip the write", func(t *testing.T) {
		repo := newMemoryBalanceRepository()
		store := NewStore(repo, nil)
		key := BalanceKey{MaterialID: uuid.New(), LocationID: uuid.New()}

		pre, post, err := store.ApplyDeltasTracked(ctx, key, CategoryDeltas{})
		require.NoError(t, err)
		assert.NotNil(t, pre)
		assert.NotNil(t, post)
		assert.Equal(t, 0, repo.saves)
	})
}

func TestStore_SyncAggregate(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBalanceRepository()
	store := NewStore(repo, nil)
	materialID := uuid.New()
	locationID := uuid.New()

	// Two batch-level movements mirrored onto the aggregate.
	batchKey := BalanceKey{MaterialID: materialID, LocationID: locationID, BatchID: strPtr("B-001")}
	_, err := store.ApplyDeltas(ctx, batchKey, CategoryDeltas{CategoryUnrestricted: dec("6")})
	require.NoError(t, err)
	_, err = store.SyncAggregate(ctx, materialID, locationID, CategoryDeltas{CategoryUnrestricted: dec("6")})
	require.NoError(t, err)

	batchKey2 := BalanceKey{MaterialID: materialID, LocationID: locationID, BatchID: strPtr("B-002")}
	_, err = store.ApplyDeltas(ctx, batchKey2, CategoryDeltas{CategoryUnrestricted: dec("4")})
	require.NoError(t, err)
	_, err = store.SyncAggregate(ctx, materialID, locationID, CategoryDeltas{CategoryUnrestricted: dec("4")})
	require.NoError(t, err)

	// The aggregate equals the sum of the fine-grained records.
	agg, err := store.Get(ctx, BalanceKey{MaterialID: materialID, LocationID: locationID})
	require.NoError(t, err)
	assert.True(t, agg.Unrestricted.Equal(dec("10")))

	fine, err := repo.FindFineGrained(ctx, materialID, locationID)
	require.NoError(t, err)
	sum := dec("0")
	for _, rec := range fine {
		sum = sum.Add(rec.Unrestricted)
	}
	assert.True(t, sum.Equal(agg.Unrestricted))
}

func TestStore_SpreadOverSerials(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryBalanceRepository()
	store := NewStore(repo, nil)
	materialID := uuid.New()
	locationID := uuid.New()
	key := BalanceKey{MaterialID: materialID, LocationID: locationID}

	seed := func(serial string, reserved, unrestricted string) {
		sk := key
		s := serial
		sk.SerialNumber = &s
		_, err := store.ApplyDeltas(ctx, sk, CategoryDeltas{
			CategoryReserved:     dec(reserved),
			CategoryUnrestricted: dec(unrestricted),
		})
		require.NoError(t, err)
	}

	t.Run("distributes proportionally by serial weight", func(t *testing.T) {
		seed("SN-1", "10", "10")
		seed("SN-2", "10", "10")
		seed("SN-3", "10", "10")

		shares, err := store.SpreadOverSerials(ctx, key, []SerialAllocation{
			{SerialNumber: "SN-1", BaseQuantity: dec("2")},
			{SerialNumber: "SN-2", BaseQuantity: dec("3")},
			{SerialNumber: "SN-3", BaseQuantity: dec("5")},
		}, dec("4"), dec("6"))
		require.NoError(t, err)
		require.Len(t, shares, 3)

		// Reserved 4 split at 2:3:5.
		assert.True(t, shares[0].FromReserved.Equal(dec("0.8")))
		assert.True(t, shares[1].FromReserved.Equal(dec("1.2")))
		assert.True(t, shares[2].FromReserved.Equal(dec("2")))

		// Unrestricted 6 split at 2:3:5.
		assert.True(t, shares[0].FromUnrestricted.Equal(dec("1.2")))
		assert.True(t, shares[1].FromUnrestricted.Equal(dec("1.8")))
		assert.True(t, shares[2].FromUnrestricted.Equal(dec("3")))
	})

	t.Run("clamps each share at the serial's own availability", func(t *testing.T) {
		seed("SN-LOW", "0.5", "0.2")
		seed("SN-FULL", "10", "10")

		shares, err := store.SpreadOverSerials(ctx, key, []SerialAllocation{
			{SerialNumber: "SN-LOW", BaseQuantity: dec("5")},
			{SerialNumber: "SN-FULL", BaseQuantity: dec("5")},
		}, dec("4"), dec("4"))
		require.NoError(t, err)

		assert.True(t, shares[0].FromReserved.Equal(dec("0.5")))
		assert.True(t, shares[0].FromUnrestricted.Equal(dec("0.2")))
		assert.True(t, shares[1].FromReserved.Equal(dec("2")))
		assert.True(t, shares[1].FromUnrestricted.Equal(dec("2")))
	})

	t.Run("refuses zero group quantity", func(t *testing.T) {
		_, err := store.SpreadOverSerials(ctx, key, []SerialAllocation{}, dec("1"), dec("1"))
		require.Error(t, err)
	})
}
