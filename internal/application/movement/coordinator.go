package movement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yunawinaya/stockflow/internal/domain/catalog"
	"github.com/yunawinaya/stockflow/internal/domain/costing"
	"github.com/yunawinaya/stockflow/internal/domain/shared"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// Coordinator drives one goods-movement document end to end: pre-check
// validation, balance updates, costing, ledger postings and commit, with
// compensating rollback on system failure. No database transaction is
// assumed; every write pushes its own undo action, and on failure the stack
// replays in reverse.
type Coordinator struct {
	items           catalog.ItemRepository
	store           *stock.Store
	ledger          *costing.Ledger
	allocator       *stock.Allocator
	grouper         *stock.Grouper
	validator       *Validator
	movements       stock.MovementRepository
	serialMovements stock.SerialMovementRepository
	reservations    stock.ReservationRepository
	logger          *zap.Logger
}

// NewCoordinator creates a movement coordinator
func NewCoordinator(
	items catalog.ItemRepository,
	store *stock.Store,
	ledger *costing.Ledger,
	movements stock.MovementRepository,
	serialMovements stock.SerialMovementRepository,
	reservations stock.ReservationRepository,
	logger *zap.Logger,
) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	grouper := stock.NewGrouper()
	return &Coordinator{
		items:           items,
		store:           store,
		ledger:          ledger,
		allocator:       stock.NewAllocator(),
		grouper:         grouper,
		validator:       NewValidator(items, store, reservations, grouper),
		movements:       movements,
		serialMovements: serialMovements,
		reservations:    reservations,
		logger:          logger,
	}
}

// undoLog is the compensation stack for one document. Actions are pushed
// after their write lands and replayed last-in-first-out.
type undoLog struct {
	actions []undoAction
}

type undoAction struct {
	desc string
	fn   func(ctx context.Context) error
}

func (u *undoLog) push(desc string, fn func(ctx context.Context) error) {
	u.actions = append(u.actions, undoAction{desc: desc, fn: fn})
}

// compensate replays the stack in reverse. Failures are collected and logged
// but never stop the replay; the caller reports them for manual
// reconciliation alongside the original error.
func (u *undoLog) compensate(ctx context.Context, logger *zap.Logger) []string {
	var failed []string
	for i := len(u.actions) - 1; i >= 0; i-- {
		a := u.actions[i]
		if err := a.fn(ctx); err != nil {
			failed = append(failed, a.desc)
			logger.Error("compensation action failed",
				zap.String("action", a.desc),
				zap.Error(err))
		}
	}
	u.actions = nil
	return failed
}

// Process runs a movement document. Validation failures return structured
// per-line results with nothing written. A system failure mid-document rolls
// back every write of the document and reports the failing line; lines the
// failure left unprocessed are marked as such.
func (c *Coordinator) Process(ctx context.Context, doc *Document) (*DocumentResult, error) {
	failures, err := c.validator.Validate(ctx, doc)
	if err != nil {
		return nil, err
	}
	if len(failures) > 0 {
		return &DocumentResult{Reference: doc.Reference, Success: false, Lines: failures}, nil
	}

	undo := &undoLog{}
	consumed := make(map[string]decimal.Decimal)
	results := make([]LineResult, 0, len(doc.Lines))

	for i := range doc.Lines {
		line := &doc.Lines[i]
		res, err := c.processLine(ctx, doc, line, undo, consumed)
		if err != nil {
			return c.rollback(ctx, doc, line, results, undo, err), nil
		}
		res.State = StateCommitted
		res.Success = true
		results = append(results, *res)
	}

	c.logger.Info("document committed",
		zap.String("reference", doc.Reference),
		zap.String("txn_type", doc.TxnType.String()),
		zap.Int("lines", len(results)))
	return &DocumentResult{Reference: doc.Reference, Success: true, Lines: results}, nil
}

func (c *Coordinator) rollback(ctx context.Context, doc *Document, failedLine *LineItem, committed []LineResult, undo *undoLog, cause error) *DocumentResult {
	c.logger.Error("document failed, compensating",
		zap.String("reference", doc.Reference),
		zap.String("line", failedLine.ID.String()),
		zap.Error(cause))

	unrecovered := undo.compensate(ctx, c.logger)

	lines := make([]LineResult, 0, len(doc.Lines))
	for i := range committed {
		r := committed[i]
		r.Success = false
		r.State = StateRolledBack
		lines = append(lines, r)
	}

	failed := LineResult{
		LineID:     failedLine.ID,
		State:      StateRolledBack,
		Success:    false,
		ErrorClass: ClassSystem,
		ErrorCode:  "SYSTEM_ERROR",
		Detail:     cause.Error(),
	}
	if len(unrecovered) > 0 {
		failed.State = StateRollingBack
		failed.ErrorClass = ClassRollbackFailure
		failed.Detail = fmt.Sprintf("%s (unrecovered: %s)", cause.Error(), strings.Join(unrecovered, ", "))
	}
	lines = append(lines, failed)

	// Lines after the failing one were never started.
	seen := make(map[uuid.UUID]bool, len(lines))
	for i := range lines {
		seen[lines[i].LineID] = true
	}
	for i := range doc.Lines {
		if !seen[doc.Lines[i].ID] {
			lines = append(lines, LineResult{
				LineID:  doc.Lines[i].ID,
				State:   StateValidated,
				Success: false,
				Detail:  "Not processed: an earlier line failed",
			})
		}
	}

	return &DocumentResult{Reference: doc.Reference, Success: false, Lines: lines}
}

func (c *Coordinator) processLine(ctx context.Context, doc *Document, line *LineItem, undo *undoLog, consumed map[string]decimal.Decimal) (*LineResult, error) {
	result := &LineResult{LineID: line.ID, State: StateValidated}

	item, err := c.items.FindByID(ctx, line.MaterialID)
	if err != nil {
		return nil, err
	}
	if !item.StockControlled {
		return result, nil
	}

	groups, err := c.grouper.Group(item, line.UOM, line.Allocations)
	if err != nil {
		return nil, err
	}

	for gi := range groups {
		group := &groups[gi]
		switch doc.TxnType {
		case stock.TxnTypeGoodsReceipt:
			err = c.receiveGroup(ctx, doc, line, item, group, undo, result)
		case stock.TxnTypeGoodsDelivery:
			err = c.deliverGroup(ctx, doc, line, item, group, undo, consumed, result)
		case stock.TxnTypeLocationTransfer:
			err = c.transferGroup(ctx, doc, line, item, group, undo, result)
		case stock.TxnTypeCategoryTransfer:
			err = c.recategorizeGroup(ctx, doc, line, item, group, undo, result)
		default:
			err = shared.NewDomainError("INVALID_TXN_TYPE", "Unsupported transaction type")
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

// receiveGroup posts one consolidated receipt: Unrestricted balance up, cost
// state gains the received quantity at the document price, one IN row.
func (c *Coordinator) receiveGroup(ctx context.Context, doc *Document, line *LineItem, item *catalog.Item, group *stock.AllocationGroup, undo *undoLog, result *LineResult) error {
	key := group.Key(line.MaterialID)
	unitCost := shared.RoundPrice(line.UnitPrice)

	if item.Serialized {
		for _, sa := range group.Serials {
			serialKey := serialKeyFor(key, sa.SerialNumber)
			deltas := stock.CategoryDeltas{stock.CategoryUnrestricted: sa.BaseQuantity}
			if err := c.applyWithAggregate(ctx, undo, item, serialKey, deltas); err != nil {
				return err
			}
		}
	} else {
		deltas := stock.CategoryDeltas{stock.CategoryUnrestricted: group.BaseQty}
		if err := c.applyWithAggregate(ctx, undo, item, key, deltas); err != nil {
			return err
		}
	}
	result.State = StateBalancesUpdated

	ck := costKeyFor(line.MaterialID, group.BatchID, doc.PlantID)
	eff, err := c.ledger.ApplyReceipt(ctx, item, ck, group.BaseQty, unitCost)
	if err != nil {
		return err
	}
	c.pushReceiptUndo(undo, eff)
	result.State = StateCosted

	m, err := c.post(ctx, undo, doc, line, group,
		stock.DirectionIn, stock.CategoryUnrestricted, group.LocationID, group.BaseQty, unitCost, doc.TxnType)
	if err != nil {
		return err
	}
	if err := c.fanOutSerials(ctx, undo, m, group.Serials); err != nil {
		return err
	}
	result.State = StatePosted
	result.MovementIDs = append(result.MovementIDs, m.ID)
	return nil
}

// deliverGroup posts one consolidated deduction. The allocator decides the
// Reserved/Unrestricted split (honoring this document's prior claim), the
// cost ledger prices and consumes, and one OUT row posts per category branch
// plus a release pair when the claim shrank.
func (c *Coordinator) deliverGroup(ctx context.Context, doc *Document, line *LineItem, item *catalog.Item, group *stock.AllocationGroup, undo *undoLog, consumed map[string]decimal.Decimal, result *LineResult) error {
	key := group.Key(line.MaterialID)

	reserved, unrestricted, err := c.groupBalances(ctx, item, group, key)
	if err != nil {
		return err
	}

	var res *stock.ReservationRecord
	prevReserved := decimal.Zero
	if doc.ConsumeReservation {
		r, err := c.reservations.FindOpenByDocumentLine(ctx, doc.Reference, line.ID, key)
		if err != nil && !isNotFound(err) {
			return err
		}
		if r != nil {
			res = r
			prevReserved = r.OpenQty()
		}
	}

	var split stock.CategorySplit
	if doc.ConsumeReservation {
		split, err = c.allocator.Allocate(group.BaseQty, reserved, unrestricted, prevReserved)
	} else {
		split, err = c.allocator.AllocateUnreserved(group.BaseQty, unrestricted)
	}
	if err != nil {
		return err
	}

	if item.Serialized {
		if err := c.applySerialSplit(ctx, undo, item, key, group, split); err != nil {
			return err
		}
	} else {
		if err := c.applyWithAggregate(ctx, undo, item, key, split.Deltas()); err != nil {
			return err
		}
	}
	result.State = StateBalancesUpdated

	if res != nil {
		snap := res.Snapshot()
		if split.ReleaseToUnrestricted.IsPositive() {
			res.ReservedQty = shared.RoundQty(res.ReservedQty.Sub(split.ReleaseToUnrestricted))
		}
		res.RecordDelivery(split.FromReserved)
		if err := c.reservations.Save(ctx, res); err != nil {
			return err
		}
		undo.push("reservation "+res.ID.String(), func(ctx context.Context) error {
			return c.reservations.Save(ctx, snap)
		})
	}

	ck := costKeyFor(line.MaterialID, group.BatchID, doc.PlantID)
	ckID := costKeyID(ck)
	unitCost, err := c.ledger.DeductionCost(ctx, item, ck, group.BaseQty, consumed[ckID])
	if err != nil {
		return err
	}
	layerPres, avgPre, dedErr := c.ledger.ApplyDeduction(ctx, item, ck, group.BaseQty)
	// Pre-images returned alongside an error correspond to saves that
	// landed before the failure; they still need undo actions.
	c.pushDeductionUndo(undo, layerPres, avgPre)
	if dedErr != nil {
		return dedErr
	}
	consumed[ckID] = consumed[ckID].Add(group.BaseQty)
	result.State = StateCosted

	var primary *stock.MovementRecord
	postBranch := func(direction stock.Direction, category stock.Category, qty decimal.Decimal, txnType stock.TxnType) error {
		if !qty.IsPositive() {
			return nil
		}
		m, err := c.post(ctx, undo, doc, line, group, direction, category, group.LocationID, qty, unitCost, txnType)
		if err != nil {
			return err
		}
		if primary == nil {
			primary = m
		}
		result.MovementIDs = append(result.MovementIDs, m.ID)
		return nil
	}

	if err := postBranch(stock.DirectionOut, stock.CategoryReserved, split.FromReserved, doc.TxnType); err != nil {
		return err
	}
	if err := postBranch(stock.DirectionOut, stock.CategoryUnrestricted, split.FromUnrestricted, doc.TxnType); err != nil {
		return err
	}
	// Shrunk claims return to Unrestricted as an explicit audit pair under
	// this document's reference.
	if err := postBranch(stock.DirectionOut, stock.CategoryReserved, split.ReleaseToUnrestricted, stock.TxnTypeReservationRelease); err != nil {
		return err
	}
	if err := postBranch(stock.DirectionIn, stock.CategoryUnrestricted, split.ReleaseToUnrestricted, stock.TxnTypeReservationRelease); err != nil {
		return err
	}

	if primary != nil {
		if err := c.fanOutSerials(ctx, undo, primary, group.Serials); err != nil {
			return err
		}
	}
	result.State = StatePosted
	return nil
}

// transferGroup moves a group between locations within the plant. Cost state
// is keyed by plant, so intra-plant transfers carry cost without consuming
// layers; movements price at the current carrying cost.
func (c *Coordinator) transferGroup(ctx context.Context, doc *Document, line *LineItem, item *catalog.Item, group *stock.AllocationGroup, undo *undoLog, result *LineResult) error {
	sourceKey := group.Key(line.MaterialID)
	targetKey := sourceKey
	targetKey.LocationID = *line.TargetLocationID

	from := stock.CategoryUnrestricted
	if line.FromCategory != nil {
		from = *line.FromCategory
	}
	to := from
	if line.ToCategory != nil {
		to = *line.ToCategory
	}

	if item.Serialized {
		for _, sa := range group.Serials {
			out := stock.CategoryDeltas{from: sa.BaseQuantity.Neg()}
			in := stock.CategoryDeltas{to: sa.BaseQuantity}
			if err := c.applyWithAggregate(ctx, undo, item, serialKeyFor(sourceKey, sa.SerialNumber), out); err != nil {
				return err
			}
			if err := c.applyWithAggregate(ctx, undo, item, serialKeyFor(targetKey, sa.SerialNumber), in); err != nil {
				return err
			}
		}
	} else {
		if err := c.applyWithAggregate(ctx, undo, item, sourceKey, stock.CategoryDeltas{from: group.BaseQty.Neg()}); err != nil {
			return err
		}
		if err := c.applyWithAggregate(ctx, undo, item, targetKey, stock.CategoryDeltas{to: group.BaseQty}); err != nil {
			return err
		}
	}
	result.State = StateBalancesUpdated

	ck := costKeyFor(line.MaterialID, group.BatchID, doc.PlantID)
	unitCost, err := c.ledger.UnitCost(ctx, item, ck)
	if err != nil {
		return err
	}
	result.State = StateCosted

	out, err := c.post(ctx, undo, doc, line, group,
		stock.DirectionOut, from, group.LocationID, group.BaseQty, unitCost, doc.TxnType)
	if err != nil {
		return err
	}
	in, err := c.post(ctx, undo, doc, line, group,
		stock.DirectionIn, to, targetKey.LocationID, group.BaseQty, unitCost, doc.TxnType)
	if err != nil {
		return err
	}
	if err := c.fanOutSerials(ctx, undo, out, group.Serials); err != nil {
		return err
	}
	result.State = StatePosted
	result.MovementIDs = append(result.MovementIDs, out.ID, in.ID)
	return nil
}

// recategorizeGroup moves a group between categories in place, priced at the
// carrying cost. Cost layers track material totals, not categories, so no
// cost state changes.
func (c *Coordinator) recategorizeGroup(ctx context.Context, doc *Document, line *LineItem, item *catalog.Item, group *stock.AllocationGroup, undo *undoLog, result *LineResult) error {
	key := group.Key(line.MaterialID)
	from, to := *line.FromCategory, *line.ToCategory

	if item.Serialized {
		for _, sa := range group.Serials {
			deltas := stock.CategoryDeltas{from: sa.BaseQuantity.Neg(), to: sa.BaseQuantity}
			if err := c.applyWithAggregate(ctx, undo, item, serialKeyFor(key, sa.SerialNumber), deltas); err != nil {
				return err
			}
		}
	} else {
		deltas := stock.CategoryDeltas{from: group.BaseQty.Neg(), to: group.BaseQty}
		if err := c.applyWithAggregate(ctx, undo, item, key, deltas); err != nil {
			return err
		}
	}
	result.State = StateBalancesUpdated

	ck := costKeyFor(line.MaterialID, group.BatchID, doc.PlantID)
	unitCost, err := c.ledger.UnitCost(ctx, item, ck)
	if err != nil {
		return err
	}
	result.State = StateCosted

	out, err := c.post(ctx, undo, doc, line, group,
		stock.DirectionOut, from, group.LocationID, group.BaseQty, unitCost, doc.TxnType)
	if err != nil {
		return err
	}
	in, err := c.post(ctx, undo, doc, line, group,
		stock.DirectionIn, to, group.LocationID, group.BaseQty, unitCost, doc.TxnType)
	if err != nil {
		return err
	}
	if err := c.fanOutSerials(ctx, undo, out, group.Serials); err != nil {
		return err
	}
	result.State = StatePosted
	result.MovementIDs = append(result.MovementIDs, out.ID, in.ID)
	return nil
}

// applySerialSplit spreads a group-level category split proportionally over
// the group's serials, then distributes any shrink-release greedily across
// the serials' remaining Reserved quantity.
func (c *Coordinator) applySerialSplit(ctx context.Context, undo *undoLog, item *catalog.Item, key stock.BalanceKey, group *stock.AllocationGroup, split stock.CategorySplit) error {
	shares, err := c.store.SpreadOverSerials(ctx, key, group.Serials, split.FromReserved, split.FromUnrestricted)
	if err != nil {
		return err
	}
	for _, share := range shares {
		deltas := stock.CategoryDeltas{}
		if share.FromReserved.IsPositive() {
			deltas[stock.CategoryReserved] = share.FromReserved.Neg()
		}
		if share.FromUnrestricted.IsPositive() {
			deltas[stock.CategoryUnrestricted] = share.FromUnrestricted.Neg()
		}
		if deltas.IsZero() {
			continue
		}
		if err := c.applyWithAggregate(ctx, undo, item, serialKeyFor(key, share.SerialNumber), deltas); err != nil {
			return err
		}
	}

	remaining := split.ReleaseToUnrestricted
	for _, sa := range group.Serials {
		if !remaining.IsPositive() {
			break
		}
		serialKey := serialKeyFor(key, sa.SerialNumber)
		rec, err := c.store.Get(ctx, serialKey)
		if err != nil {
			return err
		}
		take := decimal.Min(remaining, rec.Reserved)
		if !take.IsPositive() {
			continue
		}
		deltas := stock.CategoryDeltas{
			stock.CategoryReserved:     take.Neg(),
			stock.CategoryUnrestricted: take,
		}
		if err := c.applyWithAggregate(ctx, undo, item, serialKey, deltas); err != nil {
			return err
		}
		remaining = remaining.Sub(take)
	}
	return nil
}

// applyWithAggregate applies deltas at a key and, for dimensioned items,
// mirrors them onto the aggregate record so the per-location sum invariant
// holds after every write. Both writes push their own undo action.
func (c *Coordinator) applyWithAggregate(ctx context.Context, undo *undoLog, item *catalog.Item, key stock.BalanceKey, deltas stock.CategoryDeltas) error {
	if err := c.applyBalance(ctx, undo, key, deltas); err != nil {
		return err
	}
	if item.IsDimensioned() && !key.IsAggregate() {
		return c.applyBalance(ctx, undo, key.AggregateKey(), deltas)
	}
	return nil
}

func (c *Coordinator) applyBalance(ctx context.Context, undo *undoLog, key stock.BalanceKey, deltas stock.CategoryDeltas) error {
	pre, _, err := c.store.ApplyDeltasTracked(ctx, key, deltas)
	if err != nil {
		return err
	}
	undo.push("balance "+key.String(), func(ctx context.Context) error {
		return c.store.Restore(ctx, pre)
	})
	return nil
}

// groupBalances sums Reserved and Unrestricted availability for a group
func (c *Coordinator) groupBalances(ctx context.Context, item *catalog.Item, group *stock.AllocationGroup, key stock.BalanceKey) (reserved, unrestricted decimal.Decimal, err error) {
	if !item.Serialized {
		rec, err := c.store.Get(ctx, key)
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		return rec.Reserved, rec.Unrestricted, nil
	}
	reserved, unrestricted = decimal.Zero, decimal.Zero
	for _, sa := range group.Serials {
		rec, err := c.store.Get(ctx, serialKeyFor(key, sa.SerialNumber))
		if err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		reserved = reserved.Add(rec.Reserved)
		unrestricted = unrestricted.Add(rec.Unrestricted)
	}
	return reserved, unrestricted, nil
}

// post appends one consolidated ledger row and arms its deletion
func (c *Coordinator) post(ctx context.Context, undo *undoLog, doc *Document, line *LineItem, group *stock.AllocationGroup, direction stock.Direction, category stock.Category, locationID uuid.UUID, qty, unitPrice decimal.Decimal, txnType stock.TxnType) (*stock.MovementRecord, error) {
	m, err := stock.NewMovementRecord(txnType, doc.Reference, line.ID, direction, category,
		line.MaterialID, locationID, doc.PlantID, qty, unitPrice)
	if err != nil {
		return nil, err
	}
	if group.BatchID != nil {
		m.WithBatch(*group.BatchID)
	}
	m.WithAltQuantity(altQuantityFor(group, qty), group.AltUOM)

	if err := c.movements.Create(ctx, m); err != nil {
		return nil, err
	}
	id := m.ID
	undo.push("movement "+id.String(), func(ctx context.Context) error {
		return c.movements.Delete(ctx, id)
	})
	return m, nil
}

// fanOutSerials appends per-serial audit sub-records under a persisted
// movement. The consolidated row carries the group totals; the sub-records
// carry each serial's own quantity.
func (c *Coordinator) fanOutSerials(ctx context.Context, undo *undoLog, m *stock.MovementRecord, serials []stock.SerialAllocation) error {
	if len(serials) == 0 {
		return nil
	}
	records := make([]*stock.SerialMovementRecord, 0, len(serials))
	for _, sa := range serials {
		r, err := stock.NewSerialMovementRecord(m.ID, sa.SerialNumber, sa.BaseQuantity)
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	if err := c.serialMovements.CreateBatch(ctx, records); err != nil {
		return err
	}
	movementID := m.ID
	undo.push("serial rows "+movementID.String(), func(ctx context.Context) error {
		return c.serialMovements.DeleteByMovement(ctx, movementID)
	})
	return nil
}

func (c *Coordinator) pushReceiptUndo(undo *undoLog, eff *costing.ReceiptEffect) {
	if eff == nil {
		return
	}
	if eff.CreatedLayer != nil {
		id := eff.CreatedLayer.ID
		undo.push("cost layer "+id.String(), func(ctx context.Context) error {
			return c.ledger.RemoveLayer(ctx, id)
		})
	}
	if eff.CreatedAverage != nil {
		id := eff.CreatedAverage.ID
		undo.push("average record "+id.String(), func(ctx context.Context) error {
			return c.ledger.RemoveAverage(ctx, id)
		})
	}
	if eff.AveragePre != nil {
		pre := eff.AveragePre
		undo.push("average record "+pre.ID.String(), func(ctx context.Context) error {
			return c.ledger.RestoreAverage(ctx, pre)
		})
	}
}

func (c *Coordinator) pushDeductionUndo(undo *undoLog, layerPres []*costing.FIFOLayer, avgPre *costing.AverageCostRecord) {
	for _, pre := range layerPres {
		p := pre
		undo.push("cost layer "+p.ID.String(), func(ctx context.Context) error {
			return c.ledger.RestoreLayer(ctx, p)
		})
	}
	if avgPre != nil {
		p := avgPre
		undo.push("average record "+p.ID.String(), func(ctx context.Context) error {
			return c.ledger.RestoreAverage(ctx, p)
		})
	}
}

func serialKeyFor(key stock.BalanceKey, serial string) stock.BalanceKey {
	s := serial
	key.SerialNumber = &s
	return key
}

func costKeyFor(materialID uuid.UUID, batchID *string, plantID uuid.UUID) costing.CostKey {
	return costing.CostKey{MaterialID: materialID, BatchID: batchID, PlantID: plantID}
}

// costKeyID renders a cost key as a map key; CostKey itself holds a pointer
// and cannot index a map by value.
func costKeyID(k costing.CostKey) string {
	batch := ""
	if k.BatchID != nil {
		batch = *k.BatchID
	}
	return k.MaterialID.String() + "|" + batch + "|" + k.PlantID.String()
}

// altQuantityFor scales the entered quantity onto a branch posting so
// partial branches report their share in the entered UOM.
func altQuantityFor(group *stock.AllocationGroup, base decimal.Decimal) decimal.Decimal {
	if group.BaseQty.IsZero() || base.Equal(group.BaseQty) {
		return group.AltQuantity
	}
	return shared.RoundQty(group.AltQuantity.Mul(base).Div(group.BaseQty))
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
