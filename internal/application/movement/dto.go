package movement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// Document is the parsed form of one goods-movement document: a header and
// line items whose allocation payloads have already been decoded into typed
// entries at the boundary.
type Document struct {
	TxnType        stock.TxnType
	Reference      string
	PlantID        uuid.UUID
	OrganizationID uuid.UUID

	// ConsumeReservation is set when the document's status requires
	// deductions to consume a prior reservation. Statuses with no
	// reservation concept deduct from Unrestricted directly.
	ConsumeReservation bool

	Lines []LineItem
}

// LineItem is one document line. Allocations carry the fine-grained
// location/batch/serial entries; the remaining fields depend on the
// transaction type.
type LineItem struct {
	ID          uuid.UUID
	MaterialID  uuid.UUID
	Quantity    decimal.Decimal
	UOM         string
	Allocations []stock.Allocation

	// UnitPrice prices goods receipts; ignored for deductions, which are
	// priced by the cost ledger.
	UnitPrice decimal.Decimal

	// TargetLocationID receives the stock of a location transfer.
	TargetLocationID *uuid.UUID

	// FromCategory/ToCategory bound a category transfer. FromCategory also
	// selects the source bucket of a location transfer (Unrestricted when nil).
	FromCategory *stock.Category
	ToCategory   *stock.Category
}

// ErrorClass classifies a line failure for the caller
type ErrorClass string

const (
	// ClassValidation is a pre-check failure; nothing was written
	ClassValidation ErrorClass = "VALIDATION"
	// ClassSystem is a store failure mid-transaction; compensation ran
	ClassSystem ErrorClass = "SYSTEM"
	// ClassRollbackFailure marks records left for manual reconciliation
	ClassRollbackFailure ErrorClass = "ROLLBACK_FAILURE"
)

// LineState tracks a line item through the coordinator's state machine
type LineState string

const (
	StateValidated       LineState = "VALIDATED"
	StateBalancesUpdated LineState = "BALANCES_UPDATED"
	StateCosted          LineState = "COSTED"
	StatePosted          LineState = "POSTED"
	StateCommitted       LineState = "COMMITTED"
	StateRollingBack     LineState = "ROLLING_BACK"
	StateRolledBack      LineState = "ROLLED_BACK"
)

// LineResult is the per-line outcome returned to the caller. On failure it
// carries a classification and human-readable detail for the caller's
// confirmation dialog; rendering is out of scope here.
type LineResult struct {
	LineID     uuid.UUID  `json:"line_id"`
	State      LineState  `json:"state"`
	Success    bool       `json:"success"`
	ErrorClass ErrorClass `json:"error_class,omitempty"`
	ErrorCode  string     `json:"error_code,omitempty"`
	Detail     string     `json:"detail,omitempty"`

	// MovementIDs lists the ledger entries the line produced
	MovementIDs []uuid.UUID `json:"movement_ids,omitempty"`
}

// DocumentResult is the outcome of processing one document
type DocumentResult struct {
	Reference string       `json:"reference"`
	Success   bool         `json:"success"`
	Lines     []LineResult `json:"lines"`
}
