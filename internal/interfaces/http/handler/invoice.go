package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	billingapp "github.com/rentora/backend/internal/application/billing"
	"github.com/rentora/backend/internal/domain/billing"
)

// InvoiceHandler handles invoice-related API endpoints
type InvoiceHandler struct {
	BaseHandler
	invoiceService    *billingapp.InvoiceService
	billingRunService *billingapp.BillingRunService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	invoiceService *billingapp.InvoiceService,
	billingRunService *billingapp.BillingRunService,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:    invoiceService,
		billingRunService: billingRunService,
	}
}

// GenerateInvoiceRequest represents a request to generate an invoice for a lease
type GenerateInvoiceRequest struct {
	LeaseID     uuid.UUID  `json:"lease_id" binding:"required"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
}

// PayInvoiceRequest represents a payment against an invoice
type PayInvoiceRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Method string          `json:"method" binding:"required,min=1,max=50"`
}

// CancelInvoiceRequest represents a request to cancel an invoice
type CancelInvoiceRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// Generate godoc
// @Summary      Generate an invoice
// @Description  Generate the next invoice for a lease, or an invoice for an explicit period
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Router       /billing/invoices [post]
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var req GenerateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var periodOverride *billing.Period
	if req.PeriodStart != nil || req.PeriodEnd != nil {
		if req.PeriodStart == nil || req.PeriodEnd == nil {
			h.BadRequest(c, "period_start and period_end must be provided together")
			return
		}
		period, err := billing.NewPeriod(*req.PeriodStart, *req.PeriodEnd)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		periodOverride = &period
	}

	invoice, err := h.invoiceService.GenerateInvoiceForLease(c.Request.Context(), req.LeaseID, periodOverride)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, invoice)
}

// GetByID godoc
// @Summary      Get invoice by ID
// @Tags         invoices
// @Produce      json
// @Router       /billing/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// List godoc
// @Summary      List invoices
// @Description  List invoices filtered by lease, renter, status or issue date range
// @Tags         invoices
// @Produce      json
// @Router       /billing/invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter billingapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Pay godoc
// @Summary      Pay an invoice
// @Description  Record full payment of an unpaid or overdue invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Router       /billing/invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req PayInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.MarkInvoiceAsPaid(c.Request.Context(), id, req.Amount, req.Method)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// Cancel godoc
// @Summary      Cancel an invoice
// @Description  Void an invoice so its period can be billed again
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Router       /billing/invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid invoice ID")
		return
	}

	var req CancelInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	invoice, err := h.invoiceService.CancelInvoice(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoice)
}

// RunBilling godoc
// @Summary      Run the daily billing cycle
// @Description  Generate invoices for every active lease whose billing day is today
// @Tags         invoices
// @Produce      json
// @Router       /billing/runs [post]
func (h *InvoiceHandler) RunBilling(c *gin.Context) {
	result, err := h.billingRunService.GenerateInvoicesForToday(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SweepOverdue godoc
// @Summary      Flag overdue invoices
// @Description  Mark unpaid invoices past their due date as overdue
// @Tags         invoices
// @Produce      json
// @Router       /billing/overdue-sweeps [post]
func (h *InvoiceHandler) SweepOverdue(c *gin.Context) {
	flagged, err := h.invoiceService.UpdateOverdueInvoices(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"flagged": flagged})
}

// RegisterRoutes registers invoice routes on the given group
func (h *InvoiceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	billing := rg.Group("/billing")
	{
		billing.POST("/invoices", h.Generate)
		billing.GET("/invoices", h.List)
		billing.GET("/invoices/:id", h.GetByID)
		billing.POST("/invoices/:id/pay", h.Pay)
		billing.POST("/invoices/:id/cancel", h.Cancel)
		billing.POST("/runs", h.RunBilling)
		billing.POST("/overdue-sweeps", h.SweepOverdue)
	}
}
