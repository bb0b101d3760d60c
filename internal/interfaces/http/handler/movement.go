package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yunawinaya/stockflow/internal/application/movement"
	"github.com/yunawinaya/stockflow/internal/domain/stock"
	"github.com/yunawinaya/stockflow/internal/interfaces/http/dto"
)

// MovementHandler handles goods-movement document submission and ledger queries
type MovementHandler struct {
	BaseHandler
	coordinator *movement.Coordinator
	movements   stock.MovementRepository
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(coordinator *movement.Coordinator, movements stock.MovementRepository) *MovementHandler {
	return &MovementHandler{coordinator: coordinator, movements: movements}
}

// RegisterRoutes registers movement routes on the API group
func (h *MovementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/movements", h.Submit)
	rg.GET("/movements", h.Query)
}

// AllocationRequest is one fine-grained allocation entry of a line
type AllocationRequest struct {
	LocationID   string          `json:"location_id" binding:"required,uuid"`
	BatchID      *string         `json:"batch_id"`
	SerialNumber *string         `json:"serial_number"`
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
}

// LineRequest is one document line
type LineRequest struct {
	ID               string              `json:"id" binding:"omitempty,uuid"`
	MaterialID       string              `json:"material_id" binding:"required,uuid"`
	Quantity         decimal.Decimal     `json:"quantity" binding:"required"`
	UOM              string              `json:"uom" binding:"required"`
	UnitPrice        decimal.Decimal     `json:"unit_price"`
	TargetLocationID *string             `json:"target_location_id" binding:"omitempty,uuid"`
	FromCategory     *string             `json:"from_category"`
	ToCategory       *string             `json:"to_category"`
	Allocations      []AllocationRequest `json:"allocations" binding:"required,min=1,dive"`
}

// MovementRequest is a goods-movement document
type MovementRequest struct {
	TxnType            string        `json:"txn_type" binding:"required,oneof=GOODS_RECEIPT GOODS_DELIVERY LOCATION_TRANSFER CATEGORY_TRANSFER"`
	Reference          string        `json:"reference" binding:"required"`
	PlantID            string        `json:"plant_id" binding:"required,uuid"`
	OrganizationID     string        `json:"organization_id" binding:"omitempty,uuid"`
	ConsumeReservation bool          `json:"consume_reservation"`
	Lines              []LineRequest `json:"lines" binding:"required,min=1,dive"`
}

// Submit processes a goods-movement document and responds with per-line results
func (h *MovementHandler) Submit(c *gin.Context) {
	var req MovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			h.Error(c, http.StatusBadRequest, dto.ErrCodeValidation,
				"Field validation failed on '"+verrs[0].Namespace()+"' ("+verrs[0].Tag()+")")
			return
		}
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Invalid request body")
		return
	}

	doc, err := req.toDocument()
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.coordinator.Process(c.Request.Context(), doc)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusUnprocessableEntity
		for _, line := range result.Lines {
			if line.ErrorClass == movement.ClassSystem || line.ErrorClass == movement.ClassRollbackFailure {
				status = http.StatusInternalServerError
				break
			}
		}
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

// Query lists the ledger entries posted under a transaction reference
func (h *MovementHandler) Query(c *gin.Context) {
	txnType := stock.TxnType(c.Query("txn_type"))
	reference := c.Query("reference")
	if !txnType.IsValid() || reference == "" {
		h.BadRequest(c, "txn_type and reference query parameters are required")
		return
	}

	records, err := h.movements.FindByReference(c.Request.Context(), txnType, reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

func (r *MovementRequest) toDocument() (*movement.Document, error) {
	plantID, err := uuid.Parse(r.PlantID)
	if err != nil {
		return nil, err
	}
	doc := &movement.Document{
		TxnType:            stock.TxnType(r.TxnType),
		Reference:          r.Reference,
		PlantID:            plantID,
		ConsumeReservation: r.ConsumeReservation,
		Lines:              make([]movement.LineItem, 0, len(r.Lines)),
	}
	if r.OrganizationID != "" {
		orgID, err := uuid.Parse(r.OrganizationID)
		if err != nil {
			return nil, err
		}
		doc.OrganizationID = orgID
	}

	for i := range r.Lines {
		line, err := r.Lines[i].toLineItem()
		if err != nil {
			return nil, err
		}
		doc.Lines = append(doc.Lines, *line)
	}
	return doc, nil
}

func (l *LineRequest) toLineItem() (*movement.LineItem, error) {
	lineID := uuid.New()
	if l.ID != "" {
		parsed, err := uuid.Parse(l.ID)
		if err != nil {
			return nil, err
		}
		lineID = parsed
	}
	materialID, err := uuid.Parse(l.MaterialID)
	if err != nil {
		return nil, err
	}

	item := &movement.LineItem{
		ID:         lineID,
		MaterialID: materialID,
		Quantity:   l.Quantity,
		UOM:        l.UOM,
		UnitPrice:  l.UnitPrice,
	}

	if l.TargetLocationID != nil {
		targetID, err := uuid.Parse(*l.TargetLocationID)
		if err != nil {
			return nil, err
		}
		item.TargetLocationID = &targetID
	}
	if l.FromCategory != nil {
		from := stock.Category(*l.FromCategory)
		item.FromCategory = &from
	}
	if l.ToCategory != nil {
		to := stock.Category(*l.ToCategory)
		item.ToCategory = &to
	}

	item.Allocations = make([]stock.Allocation, 0, len(l.Allocations))
	for _, a := range l.Allocations {
		locationID, err := uuid.Parse(a.LocationID)
		if err != nil {
			return nil, err
		}
		item.Allocations = append(item.Allocations, stock.Allocation{
			LocationID:   locationID,
			BatchID:      a.BatchID,
			SerialNumber: a.SerialNumber,
			Quantity:     a.Quantity,
		})
	}
	return item, nil
}
