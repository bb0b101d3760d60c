package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yunawinaya/stockflow/internal/domain/stock"
)

// BalanceHandler handles balance queries
type BalanceHandler struct {
	BaseHandler
	balances stock.BalanceRepository
}

// NewBalanceHandler creates a new balance handler
func NewBalanceHandler(balances stock.BalanceRepository) *BalanceHandler {
	return &BalanceHandler{balances: balances}
}

// RegisterRoutes registers balance routes on the API group
func (h *BalanceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balances", h.Query)
}

// Query lists balance records for a material, optionally narrowed to the
// fine-grained records at one location
func (h *BalanceHandler) Query(c *gin.Context) {
	materialID, err := uuid.Parse(c.Query("material_id"))
	if err != nil {
		h.BadRequest(c, "material_id query parameter is required")
		return
	}

	if locationParam := c.Query("location_id"); locationParam != "" {
		locationID, err := uuid.Parse(locationParam)
		if err != nil {
			h.BadRequest(c, "location_id must be a UUID")
			return
		}
		records, err := h.balances.FindFineGrained(c.Request.Context(), materialID, locationID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, records)
		return
	}

	records, err := h.balances.FindByMaterial(c.Request.Context(), materialID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}
