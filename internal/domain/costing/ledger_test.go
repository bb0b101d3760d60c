package costing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

func costKeyID(k CostKey) string {
	batch := ""
	if k.BatchID != nil {
		batch = *k.BatchID
	}
	return k.MaterialID.String() + "|" + batch + "|" + k.PlantID.String()
}

// memoryLayerRepository is an in-memory LayerRepository for ledger tests
type memoryLayerRepository struct {
	layers map[string][]*FIFOLayer
}

func newMemoryLayerRepository() *memoryLayerRepository {
	return &memoryLayerRepository{layers: make(map[string][]*FIFOLayer)}
}

func (r *memoryLayerRepository) keyOf(l *FIFOLayer) string {
	return costKeyID(CostKey{MaterialID: l.MaterialID, BatchID: l.BatchID, PlantID: l.PlantID})
}

func (r *memoryLayerRepository) FindByKey(ctx context.Context, key CostKey) ([]FIFOLayer, error) {
	var out []FIFOLayer
	for _, l := range r.layers[costKeyID(key)] {
		out = append(out, *l.Snapshot())
	}
	return out, nil
}

func (r *memoryLayerRepository) MaxSequence(ctx context.Context, key CostKey) (int64, error) {
	var max int64
	for _, l := range r.layers[costKeyID(key)] {
		if l.Sequence > max {
			max = l.Sequence
		}
	}
	return max, nil
}

func (r *memoryLayerRepository) Save(ctx context.Context, layer *FIFOLayer) error {
	k := r.keyOf(layer)
	for i, l := range r.layers[k] {
		if l.ID == layer.ID {
			r.layers[k][i] = layer.Snapshot()
			return nil
		}
	}
	r.layers[k] = append(r.layers[k], layer.Snapshot())
	return nil
}

func (r *memoryLayerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for k, layers := range r.layers {
		for i, l := range layers {
			if l.ID == id {
				r.layers[k] = append(layers[:i], layers[i+1:]...)
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

// memoryAverageRepository is an in-memory AverageRepository for ledger tests
type memoryAverageRepository struct {
	records map[string]*AverageCostRecord
}

func newMemoryAverageRepository() *memoryAverageRepository {
	return &memoryAverageRepository{records: make(map[string]*AverageCostRecord)}
}

func (r *memoryAverageRepository) FindByKey(ctx context.Context, key CostKey) (*AverageCostRecord, error) {
	rec, ok := r.records[costKeyID(key)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return rec.Snapshot(), nil
}

func (r *memoryAverageRepository) Save(ctx context.Context, record *AverageCostRecord) error {
	k := costKeyID(CostKey{MaterialID: record.MaterialID, BatchID: record.BatchID, PlantID: record.PlantID})
	r.records[k] = record.Snapshot()
	return nil
}

func (r *memoryAverageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	for k, rec := range r.records {
		if rec.ID == id {
			delete(r.records, k)
			return nil
		}
	}
	return shared.ErrNotFound
}

func newTestLedger() (*Ledger, *memoryLayerRepository, *memoryAverageRepository) {
	layers := newMemoryLayerRepository()
	averages := newMemoryAverageRepository()
	return NewLedger(layers, averages, nil), layers, averages
}

func costItem(t *testing.T, method catalog.CostingMethod) *catalog.Item {
	t.Helper()
	item, err := catalog.NewItem("MAT-001", "Widget", method, "EA")
	require.NoError(t, err)
	return item
}

func TestLedger_ApplyReceipt(t *testing.T) {
	ctx := context.Background()
	key := CostKey{MaterialID: uuid.New(), PlantID: uuid.New()}

	t.Run("fifo receipt creates layer at next sequence", func(t *testing.T) {
		ledger, layerRepo, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)

		eff1, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("10"))
		require.NoError(t, err)
		require.NotNil(t, eff1.CreatedLayer)
		assert.Equal(t, int64(1), eff1.CreatedLayer.Sequence)

		eff2, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("12"))
		require.NoError(t, err)
		assert.Equal(t, int64(2), eff2.CreatedLayer.Sequence)

		stored, err := layerRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("weighted-average receipt creates record then blends", func(t *testing.T) {
		ledger, _, avgRepo := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)

		eff, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("10"))
		require.NoError(t, err)
		require.NotNil(t, eff.CreatedAverage)
		assert.Nil(t, eff.AveragePre)

		eff, err = ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("14"))
		require.NoError(t, err)
		assert.Nil(t, eff.CreatedAverage)
		require.NotNil(t, eff.AveragePre, "blend carries the pre-image for compensation")
		assert.True(t, eff.AveragePre.UnitCost.Equal(dec("10")))

		rec, err := avgRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.UnitCost.Equal(dec("12")))
		assert.True(t, rec.Quantity.Equal(dec("20")))
	})

	t.Run("fixed-cost receipt carries no cost state", func(t *testing.T) {
		ledger, layerRepo, avgRepo := newTestLedger()
		item := costItem(t, catalog.CostingMethodFixedCost)

		eff, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("10"))
		require.NoError(t, err)
		assert.Nil(t, eff.CreatedLayer)
		assert.Nil(t, eff.CreatedAverage)
		assert.Empty(t, layerRepo.layers)
		assert.Empty(t, avgRepo.records)
	})
}

func TestLedger_UnitCost(t *testing.T) {
	ctx := context.Background()
	key := CostKey{MaterialID: uuid.New(), PlantID: uuid.New()}

	t.Run("fixed cost prices at purchase price", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFixedCost)
		item.PurchasePrice = dec("3.5")

		cost, err := ledger.UnitCost(ctx, item, key)
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("3.5")))
	})

	t.Run("weighted average prices at the live record", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("9"))
		require.NoError(t, err)

		cost, err := ledger.UnitCost(ctx, item, key)
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("9")))
	})

	t.Run("weighted average without a record prices at zero", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)

		cost, err := ledger.UnitCost(ctx, item, key)
		require.NoError(t, err)
		assert.True(t, cost.IsZero())
	})

	t.Run("fifo prices at the oldest layer with availability", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("8"))
		require.NoError(t, err)
		_, err = ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("9"))
		require.NoError(t, err)

		cost, err := ledger.UnitCost(ctx, item, key)
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("8")))
	})
}

func TestLedger_DeductionCost(t *testing.T) {
	ctx := context.Background()
	key := CostKey{MaterialID: uuid.New(), PlantID: uuid.New()}

	t.Run("fifo deduction prices across layers", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("4"), dec("10"))
		require.NoError(t, err)
		_, err = ledger.ApplyReceipt(ctx, item, key, dec("4"), dec("11.5"))
		require.NoError(t, err)

		cost, err := ledger.DeductionCost(ctx, item, key, dec("8"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("10.75")), "got %s", cost)
	})

	t.Run("alreadyConsumed shifts pricing to later layers", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("4"), dec("10"))
		require.NoError(t, err)
		_, err = ledger.ApplyReceipt(ctx, item, key, dec("4"), dec("11.5"))
		require.NoError(t, err)

		cost, err := ledger.DeductionCost(ctx, item, key, dec("4"), dec("4"))
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("11.5")), "got %s", cost)
	})

	t.Run("non-fifo items delegate to unit cost", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFixedCost)
		item.PurchasePrice = dec("2")

		cost, err := ledger.DeductionCost(ctx, item, key, dec("99"), decimal.Zero)
		require.NoError(t, err)
		assert.True(t, cost.Equal(dec("2")))
	})
}

func TestLedger_ApplyDeduction(t *testing.T) {
	ctx := context.Background()
	key := CostKey{MaterialID: uuid.New(), PlantID: uuid.New()}

	t.Run("fifo consumes layers oldest-first and returns pre-images", func(t *testing.T) {
		ledger, layerRepo, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("10"))
		require.NoError(t, err)
		_, err = ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("12"))
		require.NoError(t, err)

		pres, avgPre, err := ledger.ApplyDeduction(ctx, item, key, dec("7"))
		require.NoError(t, err)
		assert.Nil(t, avgPre)
		require.Len(t, pres, 2)
		assert.True(t, pres[0].AvailableQty.Equal(dec("5")), "pre-image holds the prior state")

		stored, err := layerRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, stored[0].AvailableQty.IsZero())
		assert.True(t, stored[1].AvailableQty.Equal(dec("3")))
	})

	t.Run("fifo pre-images restore the prior state", func(t *testing.T) {
		ledger, layerRepo, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("10"))
		require.NoError(t, err)

		pres, _, err := ledger.ApplyDeduction(ctx, item, key, dec("4"))
		require.NoError(t, err)
		require.Len(t, pres, 1)

		for _, pre := range pres {
			require.NoError(t, ledger.RestoreLayer(ctx, pre))
		}
		stored, err := layerRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, stored[0].AvailableQty.Equal(dec("5")))
	})

	t.Run("weighted average deduction clamps and returns pre-image", func(t *testing.T) {
		ledger, _, avgRepo := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("10"))
		require.NoError(t, err)

		pres, avgPre, err := ledger.ApplyDeduction(ctx, item, key, dec("8"))
		require.NoError(t, err)
		assert.Nil(t, pres)
		require.NotNil(t, avgPre)
		assert.True(t, avgPre.Quantity.Equal(dec("5")))

		rec, err := avgRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.Quantity.IsZero(), "clamped at zero, never negative")
		assert.True(t, rec.UnitCost.Equal(dec("10")))
	})

	t.Run("weighted average deduction against missing record is a warning, not an error", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)

		pres, avgPre, err := ledger.ApplyDeduction(ctx, item, key, dec("3"))
		require.NoError(t, err)
		assert.Nil(t, pres)
		assert.Nil(t, avgPre)
	})

	t.Run("fixed cost deduction touches nothing", func(t *testing.T) {
		ledger, _, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFixedCost)

		pres, avgPre, err := ledger.ApplyDeduction(ctx, item, key, dec("3"))
		require.NoError(t, err)
		assert.Nil(t, pres)
		assert.Nil(t, avgPre)
	})
}

func TestLedger_CompensationRemovals(t *testing.T) {
	ctx := context.Background()
	key := CostKey{MaterialID: uuid.New(), PlantID: uuid.New()}

	t.Run("remove layer undoes a fifo receipt", func(t *testing.T) {
		ledger, layerRepo, _ := newTestLedger()
		item := costItem(t, catalog.CostingMethodFIFO)
		eff, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("10"))
		require.NoError(t, err)

		require.NoError(t, ledger.RemoveLayer(ctx, eff.CreatedLayer.ID))
		stored, err := layerRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("remove average undoes a seeding receipt", func(t *testing.T) {
		ledger, _, avgRepo := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)
		eff, err := ledger.ApplyReceipt(ctx, item, key, dec("5"), dec("10"))
		require.NoError(t, err)

		require.NoError(t, ledger.RemoveAverage(ctx, eff.CreatedAverage.ID))
		_, err = avgRepo.FindByKey(ctx, key)
		require.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("restore average undoes a blend", func(t *testing.T) {
		ledger, _, avgRepo := newTestLedger()
		item := costItem(t, catalog.CostingMethodWeightedAverage)
		_, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("10"))
		require.NoError(t, err)
		eff, err := ledger.ApplyReceipt(ctx, item, key, dec("10"), dec("14"))
		require.NoError(t, err)

		require.NoError(t, ledger.RestoreAverage(ctx, eff.AveragePre))
		rec, err := avgRepo.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.True(t, rec.UnitCost.Equal(dec("10")))
		assert.True(t, rec.Quantity.Equal(dec("10")))
	})
}
