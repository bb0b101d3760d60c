package costing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFIFOLayer(t *testing.T) {
	t.Run("creates layer with available equal to initial", func(t *testing.T) {
		l, err := NewFIFOLayer(uuid.New(), nil, uuid.New(), 3, dec("10.5"), dec("7.25"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), l.Sequence)
		assert.True(t, l.InitialQuantity.Equal(dec("10.5")))
		assert.True(t, l.AvailableQty.Equal(dec("10.5")))
		assert.True(t, l.UnitCost.Equal(dec("7.25")))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		_, err := NewFIFOLayer(uuid.New(), nil, uuid.New(), 1, decimal.Zero, dec("1"))
		require.Error(t, err)
	})

	t.Run("rejects negative cost", func(t *testing.T) {
		_, err := NewFIFOLayer(uuid.New(), nil, uuid.New(), 1, dec("1"), dec("-1"))
		require.Error(t, err)
	})
}

func TestFIFOLayer_Consume(t *testing.T) {
	l, err := NewFIFOLayer(uuid.New(), nil, uuid.New(), 1, dec("10"), dec("5"))
	require.NoError(t, err)

	taken := l.Consume(dec("4"))
	assert.True(t, taken.Equal(dec("4")))
	assert.True(t, l.AvailableQty.Equal(dec("6")))

	// Over-consumption clamps at zero.
	taken = l.Consume(dec("9"))
	assert.True(t, taken.Equal(dec("6")))
	assert.True(t, l.AvailableQty.IsZero())

	taken = l.Consume(dec("1"))
	assert.True(t, taken.IsZero())
	assert.True(t, l.AvailableQty.IsZero())
}

func TestAverageCostRecord_Blend(t *testing.T) {
	t.Run("blends receipt into weighted average", func(t *testing.T) {
		rec := NewAverageCostRecord(uuid.New(), nil, uuid.New(), dec("10"), dec("10"))
		// (10*10 + 10*14) / 20 = 12
		rec.Blend(dec("10"), dec("14"))
		assert.True(t, rec.UnitCost.Equal(dec("12")), "got %s", rec.UnitCost)
		assert.True(t, rec.Quantity.Equal(dec("20")))
	})

	t.Run("unequal weights", func(t *testing.T) {
		rec := NewAverageCostRecord(uuid.New(), nil, uuid.New(), dec("30"), dec("8"))
		// (30*8 + 10*12) / 40 = 9
		rec.Blend(dec("10"), dec("12"))
		assert.True(t, rec.UnitCost.Equal(dec("9")), "got %s", rec.UnitCost)
		assert.True(t, rec.Quantity.Equal(dec("40")))
	})

	t.Run("blend rounds cost to price precision", func(t *testing.T) {
		rec := NewAverageCostRecord(uuid.New(), nil, uuid.New(), dec("3"), dec("10"))
		// (3*10 + 1*11) / 4 = 10.25
		rec.Blend(dec("1"), dec("11"))
		assert.True(t, rec.UnitCost.Equal(dec("10.25")))

		// (4*10.25 + 3*10) / 7 = 10.1429 after rounding
		rec.Blend(dec("3"), dec("10"))
		assert.True(t, rec.UnitCost.Equal(dec("10.1429")), "got %s", rec.UnitCost)
	})
}

func TestAverageCostRecord_Deduct(t *testing.T) {
	t.Run("decreases quantity and holds cost constant", func(t *testing.T) {
		rec := NewAverageCostRecord(uuid.New(), nil, uuid.New(), dec("20"), dec("12"))
		shortfall := rec.Deduct(dec("8"))
		assert.True(t, shortfall.IsZero())
		assert.True(t, rec.Quantity.Equal(dec("12")))
		assert.True(t, rec.UnitCost.Equal(dec("12")), "deduction must not recompute cost")
	})

	t.Run("clamps at zero and reports the shortfall", func(t *testing.T) {
		rec := NewAverageCostRecord(uuid.New(), nil, uuid.New(), dec("5"), dec("12"))
		shortfall := rec.Deduct(dec("8"))
		assert.True(t, shortfall.Equal(dec("3")))
		assert.True(t, rec.Quantity.IsZero())
		assert.True(t, rec.UnitCost.Equal(dec("12")))
	})
}

func TestSnapshots_AreIndependent(t *testing.T) {
	batch := "B-001"
	l, err := NewFIFOLayer(uuid.New(), &batch, uuid.New(), 1, dec("10"), dec("5"))
	require.NoError(t, err)
	snap := l.Snapshot()
	l.Consume(dec("4"))
	assert.True(t, snap.AvailableQty.Equal(dec("10")))
	*l.BatchID = "B-CHANGED"
	assert.Equal(t, "B-001", *snap.BatchID)

	rec := NewAverageCostRecord(uuid.New(), &batch, uuid.New(), dec("10"), dec("5"))
	rsnap := rec.Snapshot()
	rec.Deduct(dec("4"))
	assert.True(t, rsnap.Quantity.Equal(dec("10")))
}
