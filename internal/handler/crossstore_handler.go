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

type CrossStoreHandler struct {
	crossStoreService    service.CrossStoreService
	reimbursementService service.ReimbursementService
}

func NewCrossStoreHandler(crossStoreService service.CrossStoreService, reimbursementService service.ReimbursementService) *CrossStoreHandler {
	return &CrossStoreHandler{
		crossStoreService:    crossStoreService,
		reimbursementService: reimbursementService,
	}
}

func (h *CrossStoreHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSuperAdmin)

	payments := router.Group("/api/cross-store-payments")
	{
		payments.POST("", anyRole, h.RecordPayment)
		payments.GET("", anyRole, h.ListPayments)
		payments.GET("/:id", anyRole, h.GetPayment)
	}

	allocations := router.Group("/api/allocations")
	{
		allocations.PATCH("/:id/reimbursement", anyRole, h.UpdateAllocationReimbursement)
	}
}

// RecordPayment records a payment made by one store on behalf of others
// @Summary      Record cross-store payment
// @Description  Records a disbursement split into per-store allocations; allocations must sum to the amount
// @Tags         cross-store
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RecordCrossStoreRequest  true  "Cross-Store Payment Payload"
// @Success      201      {object}  response.Response{data=service.CrossStoreResponse}
// @Failure      400      {object}  response.Response
// @Router       /api/cross-store-payments [post]
func (h *CrossStoreHandler) RecordPayment(c *gin.Context) {
	var req service.RecordCrossStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	payment, err := h.crossStoreService.RecordCrossStorePayment(c.Request.Context(), currentUserID(c), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, payment))
}

// ListPayments returns cross-store payments involving a store
// @Summary      List cross-store payments
// @Description  Lists payments where the store is the source, a target, or either
// @Tags         cross-store
// @Security     BearerAuth
// @Produce      json
// @Param        store_id  query     string  true   "Store ID"
// @Param        role      query     string  false  "Store role: source, target, all (default all)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Router       /api/cross-store-payments [get]
func (h *CrossStoreHandler) ListPayments(c *gin.Context) {
	p := pagination.Parse(c)

	filter := service.ListCrossStoreFilter{
		StoreID: c.Query("store_id"),
		Role:    c.DefaultQuery("role", "all"),
		Page:    p.Page,
		Limit:   p.Limit,
	}

	payments, total, err := h.crossStoreService.ListForStore(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"total":    total,
		"page":     p.Page,
		"limit":    p.Limit,
	}))
}

// GetPayment returns a cross-store payment with its allocations
// @Summary      Get cross-store payment
// @Tags         cross-store
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Cross-Store Payment ID"
// @Success      200  {object}  response.Response{data=service.CrossStoreResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/cross-store-payments/{id} [get]
func (h *CrossStoreHandler) GetPayment(c *gin.Context) {
	payment, err := h.crossStoreService.GetCrossStorePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, payment))
}

// UpdateAllocationReimbursement moves an allocation between reimbursement states
// @Summary      Update allocation reimbursement
// @Description  Transitions an allocation between NOT_REQUIRED, PENDING and COMPLETED
// @Tags         cross-store
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                        true  "Allocation ID"
// @Param        payload  body      service.UpdateAllocationReimbursementRequest  true  "Reimbursement State Payload"
// @Success      200      {object}  response.Response{data=service.AllocationResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/allocations/{id}/reimbursement [patch]
func (h *CrossStoreHandler) UpdateAllocationReimbursement(c *gin.Context) {
	var req service.UpdateAllocationReimbursementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	alloc, err := h.reimbursementService.UpdateAllocationReimbursement(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, alloc))
}
