package costing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
)

// Ledger prices stock movements and maintains the cost records behind each
// costing method. Pricing degrades gracefully: cost gaps and shortfalls are
// logged as warnings and never abort a movement, because stock-quantity
// correctness is enforced by the balance store, not here.
type Ledger struct {
	layers   LayerRepository
	averages AverageRepository
	logger   *zap.Logger
}

// NewLedger creates a cost ledger
func NewLedger(layers LayerRepository, averages AverageRepository, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{layers: layers, averages: averages, logger: logger}
}

// UnitCost returns the current unit cost for an item without simulating a
// deduction: fixed-cost items price at the purchase price, weighted-average
// items at the live record's cost (zero plus a warning when absent), FIFO
// items at the first layer with availability.
func (l *Ledger) UnitCost(ctx context.Context, item *catalog.Item, key CostKey) (decimal.Decimal, error) {
	switch item.CostingMethod {
	case catalog.CostingMethodFixedCost:
		return item.PurchasePrice, nil

	case catalog.CostingMethodWeightedAverage:
		rec, err := l.averages.FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				l.logger.Warn("no weighted-average cost record, pricing at zero",
					zap.String("material", key.MaterialID.String()))
				return decimal.Zero, nil
			}
			return decimal.Zero, err
		}
		return rec.UnitCost, nil

	case catalog.CostingMethodFIFO:
		layers, err := l.layers.FindByKey(ctx, key)
		if err != nil {
			return decimal.Zero, err
		}
		return PeekFIFOCost(layers), nil
	}
	return decimal.Zero, shared.NewDomainError("INVALID_COSTING_METHOD", "Unknown costing method: "+item.CostingMethod.String())
}

// DeductionCost prices a deduction of qty. For FIFO items it computes the
// quantity-weighted average cost of the layers the deduction would touch,
// after virtually subtracting alreadyConsumed (quantity taken earlier in the
// same transaction whose writes have not landed yet). Shortfalls price at the
// last layer's cost with a warning.
func (l *Ledger) DeductionCost(ctx context.Context, item *catalog.Item, key CostKey, qty, alreadyConsumed decimal.Decimal) (decimal.Decimal, error) {
	if item.CostingMethod != catalog.CostingMethodFIFO {
		return l.UnitCost(ctx, item, key)
	}

	layers, err := l.layers.FindByKey(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	price := PriceFIFODeduction(layers, qty, alreadyConsumed)
	if price.Shortfall.IsPositive() {
		l.logger.Warn("fifo availability short of requested quantity, pricing shortfall at last layer cost",
			zap.String("material", key.MaterialID.String()),
			zap.String("requested", qty.String()),
			zap.String("shortfall", price.Shortfall.String()))
	}
	return price.UnitCost, nil
}

// ReceiptEffect describes the cost state a receipt created or modified, in
// the form compensation needs: delete what was created, restore what changed.
type ReceiptEffect struct {
	CreatedLayer   *FIFOLayer
	CreatedAverage *AverageCostRecord
	AveragePre     *AverageCostRecord
}

// ApplyReceipt records a receipt: weighted-average records blend the cost,
// FIFO keys gain a new layer at sequence max+1. Fixed-cost items carry no
// cost state. The returned effect lets callers compensate the write.
func (l *Ledger) ApplyReceipt(ctx context.Context, item *catalog.Item, key CostKey, qty, unitCost decimal.Decimal) (*ReceiptEffect, error) {
	switch item.CostingMethod {
	case catalog.CostingMethodFixedCost:
		return &ReceiptEffect{}, nil

	case catalog.CostingMethodWeightedAverage:
		rec, err := l.averages.FindByKey(ctx, key)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, err
			}
			rec = NewAverageCostRecord(key.MaterialID, key.BatchID, key.PlantID, qty, unitCost)
			if err := l.averages.Save(ctx, rec); err != nil {
				return nil, err
			}
			return &ReceiptEffect{CreatedAverage: rec}, nil
		}
		pre := rec.Snapshot()
		rec.Blend(qty, unitCost)
		if err := l.averages.Save(ctx, rec); err != nil {
			return nil, err
		}
		return &ReceiptEffect{AveragePre: pre}, nil

	case catalog.CostingMethodFIFO:
		maxSeq, err := l.layers.MaxSequence(ctx, key)
		if err != nil {
			return nil, err
		}
		layer, err := NewFIFOLayer(key.MaterialID, key.BatchID, key.PlantID, maxSeq+1, qty, unitCost)
		if err != nil {
			return nil, err
		}
		if err := l.layers.Save(ctx, layer); err != nil {
			return nil, err
		}
		return &ReceiptEffect{CreatedLayer: layer}, nil
	}
	return nil, shared.NewDomainError("INVALID_COSTING_METHOD", "Unknown costing method: "+item.CostingMethod.String())
}

// ApplyDeduction consumes cost state for a deduction: weighted-average
// quantity decreases (clamped at zero, cost untouched), FIFO layers are
// consumed oldest-first with per-layer clamping. Unsatisfied remainders are
// logged, never raised. Returns the pre-images of every record it modified.
func (l *Ledger) ApplyDeduction(ctx context.Context, item *catalog.Item, key CostKey, qty decimal.Decimal) ([]*FIFOLayer, *AverageCostRecord, error) {
	switch item.CostingMethod {
	case catalog.CostingMethodFixedCost:
		return nil, nil, nil

	case catalog.CostingMethodWeightedAverage:
		rec, err := l.averages.FindByKey(ctx, key)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				l.logger.Warn("weighted-average deduction against missing cost record",
					zap.String("material", key.MaterialID.String()),
					zap.String("requested", qty.String()))
				return nil, nil, nil
			}
			return nil, nil, err
		}
		pre := rec.Snapshot()
		if shortfall := rec.Deduct(qty); shortfall.IsPositive() {
			l.logger.Warn("weighted-average quantity short of deduction, clamped at zero",
				zap.String("material", key.MaterialID.String()),
				zap.String("shortfall", shortfall.String()))
		}
		if err := l.averages.Save(ctx, rec); err != nil {
			return nil, nil, err
		}
		return nil, pre, nil

	case catalog.CostingMethodFIFO:
		layers, err := l.layers.FindByKey(ctx, key)
		if err != nil {
			return nil, nil, err
		}
		ptrs := make([]*FIFOLayer, len(layers))
		for i := range layers {
			ptrs[i] = &layers[i]
		}
		pres := make([]*FIFOLayer, 0, len(ptrs))
		for _, p := range ptrs {
			pres = append(pres, p.Snapshot())
		}

		touched, shortfall := ConsumeFIFOLayers(ptrs, qty)
		if shortfall.IsPositive() {
			l.logger.Warn("fifo layers short of deduction, remainder unsatisfied",
				zap.String("material", key.MaterialID.String()),
				zap.String("shortfall", shortfall.String()))
		}
		touchedPres := make([]*FIFOLayer, 0, len(touched))
		for _, t := range touched {
			for _, pre := range pres {
				if pre.ID == t.ID {
					touchedPres = append(touchedPres, pre)
					break
				}
			}
			if err := l.layers.Save(ctx, t); err != nil {
				return touchedPres, nil, err
			}
		}
		return touchedPres, nil, nil
	}
	return nil, nil, shared.NewDomainError("INVALID_COSTING_METHOD", "Unknown costing method: "+item.CostingMethod.String())
}

// RestoreLayer writes a previously captured layer snapshot back. Compensation
// path only.
func (l *Ledger) RestoreLayer(ctx context.Context, pre *FIFOLayer) error {
	return l.layers.Save(ctx, pre)
}

// RemoveLayer deletes a layer created earlier in a failed transaction.
// Compensation path only.
func (l *Ledger) RemoveLayer(ctx context.Context, id uuid.UUID) error {
	return l.layers.Delete(ctx, id)
}

// RestoreAverage writes a previously captured average-cost snapshot back.
// Compensation path only.
func (l *Ledger) RestoreAverage(ctx context.Context, pre *AverageCostRecord) error {
	return l.averages.Save(ctx, pre)
}

// RemoveAverage deletes an average-cost record created earlier in a failed
// transaction. Compensation path only.
func (l *Ledger) RemoveAverage(ctx context.Context, id uuid.UUID) error {
	return l.averages.Delete(ctx, id)
}
