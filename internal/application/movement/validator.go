package movement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// Validator runs the pre-check pass over a whole document before anything is
// written. A validation failure aborts the batch operation for the document;
// no rollback is needed because the write path was never entered.
type Validator struct {
	items        catalog.ItemRepository
	store        *stock.Store
	reservations stock.ReservationRepository
	grouper      *stock.Grouper
}

// NewValidator creates a document validator
func NewValidator(items catalog.ItemRepository, store *stock.Store, reservations stock.ReservationRepository, grouper *stock.Grouper) *Validator {
	return &Validator{items: items, store: store, reservations: reservations, grouper: grouper}
}

// Validate checks the document and returns per-line failures. An empty slice
// means the document may proceed to the write path. A non-nil error reports
// an infrastructure failure during the check itself.
func (v *Validator) Validate(ctx context.Context, doc *Document) ([]LineResult, error) {
	switch doc.TxnType {
	case stock.TxnTypeGoodsReceipt, stock.TxnTypeGoodsDelivery,
		stock.TxnTypeLocationTransfer, stock.TxnTypeCategoryTransfer:
	default:
		// RESERVATION_RELEASE rows are posted by the delivery path, never
		// submitted as a document of their own.
		return []LineResult{{
			Success: false, ErrorClass: ClassValidation,
			ErrorCode: "INVALID_TXN_TYPE", Detail: "Unsupported transaction type",
		}}, nil
	}
	if doc.Reference == "" {
		return []LineResult{{
			Success: false, ErrorClass: ClassValidation,
			ErrorCode: "MISSING_REFERENCE", Detail: "Document reference is required",
		}}, nil
	}
	if len(doc.Lines) == 0 {
		return []LineResult{{
			Success: false, ErrorClass: ClassValidation,
			ErrorCode: "EMPTY_DOCUMENT", Detail: "Document has no line items",
		}}, nil
	}

	var failures []LineResult
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if fail := v.validateLine(ctx, doc, line); fail != nil {
			if fail.ErrorClass == ClassSystem {
				return nil, errors.New(fail.Detail)
			}
			failures = append(failures, *fail)
		}
	}
	return failures, nil
}

func (v *Validator) validateLine(ctx context.Context, doc *Document, line *LineItem) *LineResult {
	fail := func(code, detail string) *LineResult {
		return &LineResult{
			LineID: line.ID, State: StateValidated, Success: false,
			ErrorClass: ClassValidation, ErrorCode: code, Detail: detail,
		}
	}

	if line.Quantity.LessThanOrEqual(decimal.Zero) {
		return fail("INVALID_QUANTITY", "Line quantity must be positive")
	}

	item, err := v.items.FindByID(ctx, line.MaterialID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fail("ITEM_NOT_FOUND", fmt.Sprintf("Item %s not found", line.MaterialID))
		}
		return &LineResult{LineID: line.ID, Success: false, ErrorClass: ClassSystem, Detail: err.Error()}
	}
	if !item.StockControlled {
		return nil
	}

	switch doc.TxnType {
	case stock.TxnTypeLocationTransfer:
		if line.TargetLocationID == nil {
			return fail("MISSING_TARGET", "Location transfer requires a target location")
		}
	case stock.TxnTypeCategoryTransfer:
		if line.FromCategory == nil || line.ToCategory == nil {
			return fail("MISSING_CATEGORY", "Category transfer requires source and target categories")
		}
		if !line.FromCategory.IsValid() || !line.ToCategory.IsValid() {
			return fail("INVALID_CATEGORY", "Unknown stock category")
		}
		if *line.FromCategory == *line.ToCategory {
			return fail("SAME_CATEGORY", "Source and target categories must differ")
		}
	}

	groups, err := v.grouper.Group(item, line.UOM, line.Allocations)
	if err != nil {
		var de *shared.DomainError
		if errors.As(err, &de) {
			return fail(de.Code, de.Message)
		}
		return &LineResult{LineID: line.ID, Success: false, ErrorClass: ClassSystem, Detail: err.Error()}
	}

	if doc.TxnType == stock.TxnTypeGoodsReceipt {
		return nil
	}

	// Deduction paths: every group must have enough stock in the categories
	// it will draw from. This is the hard check that keeps clamping out of
	// the balance store's write path.
	for gi := range groups {
		group := &groups[gi]
		key := group.Key(line.MaterialID)
		reserved, unrestricted, err := v.groupAvailability(ctx, item, group, key)
		if err != nil {
			return &LineResult{LineID: line.ID, Success: false, ErrorClass: ClassSystem, Detail: err.Error()}
		}

		switch doc.TxnType {
		case stock.TxnTypeGoodsDelivery:
			available := unrestricted
			if doc.ConsumeReservation {
				prevReserved := decimal.Zero
				res, err := v.reservations.FindOpenByDocumentLine(ctx, doc.Reference, line.ID, key)
				if err != nil && !errors.Is(err, shared.ErrNotFound) {
					return &LineResult{LineID: line.ID, Success: false, ErrorClass: ClassSystem, Detail: err.Error()}
				}
				if res != nil {
					prevReserved = res.OpenQty()
				}
				forDoc := reserved
				if prevReserved.GreaterThan(decimal.Zero) {
					forDoc = decimal.Min(reserved, prevReserved)
				}
				available = available.Add(forDoc)
			}
			if available.LessThan(group.BaseQty) {
				return fail("INSUFFICIENT_STOCK",
					fmt.Sprintf("Requested %s but only %s available at %s",
						group.BaseQty, available, key))
			}

		case stock.TxnTypeLocationTransfer, stock.TxnTypeCategoryTransfer:
			from := stock.CategoryUnrestricted
			if line.FromCategory != nil {
				from = *line.FromCategory
			}
			have, err := v.categoryAvailability(ctx, item, group, key, from)
			if err != nil {
				return &LineResult{LineID: line.ID, Success: false, ErrorClass: ClassSystem, Detail: err.Error()}
			}
			if have.LessThan(group.BaseQty) {
				return fail("INSUFFICIENT_STOCK",
					fmt.Sprintf("Requested %s from %s but only %s available at %s",
						group.BaseQty, from, have, key))
			}
		}
	}

	return nil
}

// groupAvailability sums Reserved and Unrestricted for a group: the keyed
// record for plain and batched items, the serial records for serialized ones.
func (v *Validator) groupAvailability(ctx context.Context, item *catalog.Item, group *stock.AllocationGroup, key stock.BalanceKey) (reserved, unrestricted decimal.Decimal, err error) {
	if !item.Serialized {
		rec, err := v.store.Get(ctx, key)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return rec.Reserved, rec.Unrestricted, nil
	}

	reserved, unrestricted = decimal.Zero, decimal.Zero
	for _, sa := range group.Serials {
		serialKey := key
		serial := sa.SerialNumber
		serialKey.SerialNumber = &serial
		rec, err := v.store.Get(ctx, serialKey)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		reserved = reserved.Add(rec.Reserved)
		unrestricted = unrestricted.Add(rec.Unrestricted)
	}
	return reserved, unrestricted, nil
}

func (v *Validator) categoryAvailability(ctx context.Context, item *catalog.Item, group *stock.AllocationGroup, key stock.BalanceKey, category stock.Category) (decimal.Decimal, error) {
	if !item.Serialized {
		rec, err := v.store.Get(ctx, key)
		if err != nil {
			return decimal.Zero, err
		}
		return rec.Quantity(category), nil
	}

	have := decimal.Zero
	for _, sa := range group.Serials {
		serialKey := key
		serial := sa.SerialNumber
		serialKey.SerialNumber = &serial
		rec, err := v.store.Get(ctx, serialKey)
		if err != nil {
			return decimal.Zero, err
		}
		have = have.Add(rec.Quantity(category))
	}
	return have, nil
}
