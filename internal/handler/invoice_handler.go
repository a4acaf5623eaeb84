package handler

import (
	"net/http"

	"storepay/internal/middleware"
	"storepay/internal/model"
	"storepay/internal/service"
	"storepay/pkg/pagination"
	"storepay/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService       service.InvoiceService
	reimbursementService service.ReimbursementService
}

func NewInvoiceHandler(invoiceService service.InvoiceService, reimbursementService service.ReimbursementService) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService:       invoiceService,
		reimbursementService: reimbursementService,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSuperAdmin)

	invoices := router.Group("/api/invoices")
	{
		invoices.POST("", anyRole, h.CreateInvoice)
		invoices.GET("", anyRole, h.ListInvoices)
		invoices.GET("/:id", anyRole, h.GetInvoice)
		invoices.PATCH("/:id", anyRole, h.UpdateInvoice)
		invoices.DELETE("/:id", middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin), h.DeleteInvoice)
		invoices.POST("/:id/reimburse", anyRole, h.MarkReimbursed)
	}
}

// CreateInvoice records a new purchase invoice
// @Summary      Create invoice
// @Description  Records a purchase invoice; amount may be derived from product lines
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated list of invoices
// @Summary      List invoices
// @Description  Retrieves invoices filtered by store, vendor, purchase type or derived status
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        store_id       query     string  false  "Filter by store"
// @Param        vendor_id      query     string  false  "Filter by vendor"
// @Param        purchase_type  query     string  false  "Filter by purchase type (CASH, INVOICE, CREDIT_MEMO)"
// @Param        status         query     string  false  "Filter by derived status (PENDING, PAID, OVERDUE)"
// @Param        page           query     int     false  "Page number (default 1)"
// @Param        limit          query     int     false  "Number of items per page (default 20)"
// @Success      200            {object}  response.Response{data=object}
// @Failure      500            {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.ListInvoicesFilter{
		StoreID:      c.Query("store_id"),
		VendorID:     c.Query("vendor_id"),
		PurchaseType: c.Query("purchase_type"),
		Status:       c.Query("status"),
		Page:         p.Page,
		Limit:        p.Limit,
	}

	invoices, total, err := h.invoiceService.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"invoices": invoices,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// GetInvoice returns a single invoice with its items
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateInvoice patches an unpaid invoice
// @Summary      Update invoice
// @Description  Patches invoice fields; paid invoices reject edits
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Update Invoice Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id} [patch]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice soft-deletes an unpaid invoice
// @Summary      Delete invoice
// @Description  Cancels an invoice; paid invoices cannot be deleted
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}

// MarkReimbursed settles the third-party payer of a reimbursable invoice
// @Summary      Mark third-party reimbursed
// @Description  Records how the third party who fronted the purchase was paid back
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Invoice ID"
// @Param        payload  body      service.MarkReimbursedRequest  true  "Reimbursement Payload"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/invoices/{id}/reimburse [post]
func (h *InvoiceHandler) MarkReimbursed(c *gin.Context) {
	var req service.MarkReimbursedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	invoice, err := h.reimbursementService.MarkThirdPartyReimbursed(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}
