package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	leasingapp "github.com/rentora/backend/internal/application/leasing"
)

// LeaseHandler handles lease-related API endpoints
type LeaseHandler struct {
	BaseHandler
	leaseService *leasingapp.LeaseService
}

// NewLeaseHandler creates a new LeaseHandler
func NewLeaseHandler(leaseService *leasingapp.LeaseService) *LeaseHandler {
	return &LeaseHandler{
		leaseService: leaseService,
	}
}

// Create godoc
// @Summary      Create a new lease
// @Description  Create a lease in draft status
// @Tags         leases
// @Accept       json
// @Produce      json
// @Router       /leasing/leases [post]
func (h *LeaseHandler) Create(c *gin.Context) {
	var req leasingapp.CreateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lease, err := h.leaseService.CreateLease(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, lease)
}

// GetByID godoc
// @Summary      Get lease by ID
// @Tags         leases
// @Produce      json
// @Router       /leasing/leases/{id} [get]
func (h *LeaseHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	lease, err := h.leaseService.GetLease(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lease)
}

// Activate godoc
// @Summary      Activate a lease
// @Description  Move a draft lease to active so it becomes billable
// @Tags         leases
// @Produce      json
// @Router       /leasing/leases/{id}/activate [post]
func (h *LeaseHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	lease, err := h.leaseService.ActivateLease(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lease)
}

// Terminate godoc
// @Summary      Terminate a lease
// @Description  End a lease at the given effective date. Issued invoices are unaffected.
// @Tags         leases
// @Accept       json
// @Produce      json
// @Router       /leasing/leases/{id}/terminate [post]
func (h *LeaseHandler) Terminate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	var req leasingapp.TerminateLeaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lease, err := h.leaseService.TerminateLease(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lease)
}

// SetDiscount godoc
// @Summary      Set lease discount
// @Description  Configure a percentage or fixed discount applied to each invoice
// @Tags         leases
// @Accept       json
// @Produce      json
// @Router       /leasing/leases/{id}/discount [put]
func (h *LeaseHandler) SetDiscount(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	var req leasingapp.SetDiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lease, err := h.leaseService.SetDiscount(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lease)
}

// AddFee godoc
// @Summary      Add a fee to a lease
// @Description  Attach a fixed or variable fee definition to a lease
// @Tags         leases
// @Accept       json
// @Produce      json
// @Router       /leasing/leases/{id}/fees [post]
func (h *LeaseHandler) AddFee(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	var req leasingapp.AddFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	fee, err := h.leaseService.AddFee(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, fee)
}

// DeactivateFee godoc
// @Summary      Deactivate a fee
// @Description  Stop a fee from appearing on future invoices
// @Tags         leases
// @Produce      json
// @Router       /leasing/leases/{id}/fees/{feeId} [delete]
func (h *LeaseHandler) DeactivateFee(c *gin.Context) {
	leaseID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lease ID")
		return
	}

	feeID, err := uuid.Parse(c.Param("feeId"))
	if err != nil {
		h.BadRequest(c, "Invalid fee ID")
		return
	}

	if err := h.leaseService.DeactivateFee(c.Request.Context(), leaseID, feeID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers lease routes on the given group
func (h *LeaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	leases := rg.Group("/leasing/leases")
	{
		leases.POST("", h.Create)
		leases.GET("/:id", h.GetByID)
		leases.POST("/:id/activate", h.Activate)
		leases.POST("/:id/terminate", h.Terminate)
		leases.PUT("/:id/discount", h.SetDiscount)
		leases.POST("/:id/fees", h.AddFee)
		leases.DELETE("/:id/fees/:feeId", h.DeactivateFee)
	}
}
