package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	billingapp "github.com/rentora/backend/internal/application/billing"
)

// UsageHandler handles usage metering API endpoints
type UsageHandler struct {
	BaseHandler
	usageService *billingapp.UsageService
}

// NewUsageHandler creates a new UsageHandler
func NewUsageHandler(usageService *billingapp.UsageService) *UsageHandler {
	return &UsageHandler{
		usageService: usageService,
	}
}

// Record godoc
// @Summary      Record a meter reading
// @Description  Store a usage quantity for a variable fee. A repeat reading for the same month replaces the previous one.
// @Tags         usage
// @Accept       json
// @Produce      json
// @Router       /billing/usage [post]
func (h *UsageHandler) Record(c *gin.Context) {
	var req billingapp.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.usageService.RecordUsage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// BulkRecord godoc
// @Summary      Record a batch of meter readings
// @Description  Store several readings at once. Bad readings are reported per index and do not block the rest.
// @Tags         usage
// @Accept       json
// @Produce      json
// @Router       /billing/usage/bulk [post]
func (h *UsageHandler) BulkRecord(c *gin.Context) {
	var reqs []billingapp.RecordUsageRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if len(reqs) == 0 {
		h.BadRequest(c, "At least one reading is required")
		return
	}

	result, err := h.usageService.BulkRecordUsage(c.Request.Context(), reqs)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListForLease godoc
// @Summary      List usage records for a lease
// @Tags         usage
// @Produce      json
// @Router       /billing/leases/{id}/usage [get]
func (h *UsageHandler) ListForLease(c *gin.Context) {
	leaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	records, err := h.usageService.ListUsageForLease(c.Request.Context(), leaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

// RegisterRoutes registers usage routes on the given group
func (h *UsageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.POST("/usage", h.Record)
		billing.POST("/usage/bulk", h.BulkRecord)
		billing.GET("/leases/:id/usage", h.ListForLease)
	}
}
