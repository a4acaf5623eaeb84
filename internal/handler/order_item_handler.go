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

type OrderItemHandler struct {
	calculator service.CalculatorService
}

func NewOrderItemHandler(calculator service.CalculatorService) *OrderItemHandler {
	return &OrderItemHandler{calculator: calculator}
}

func (h *OrderItemHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSuperAdmin)

	items := router.Group("/api/order-items")
	{
		items.GET("", anyRole, h.ListOrderItems)
		items.POST("/:id/deliver", anyRole, h.AttachDelivery)
	}
}

// ListOrderItems returns purchase-order lines with delivery progress
// @Summary      List order items
// @Tags         order-items
// @Security     BearerAuth
// @Produce      json
// @Param        store_id    query     string  false  "Filter by store"
// @Param        product_id  query     string  false  "Filter by product"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Number of items per page (default 20)"
// @Success      200         {object}  response.Response{data=object}
// @Failure      400         {object}  response.Response
// @Router       /api/order-items [get]
func (h *OrderItemHandler) ListOrderItems(c *gin.Context) {
	p := pagination.Parse(c)

	items, total, err := h.calculator.ListOrderItems(c.Request.Context(), c.Query("store_id"), c.Query("product_id"), p.Page, p.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"order_items": items,
		"total":       total,
		"page":        p.Page,
		"limit":       p.Limit,
	}))
}

// AttachDelivery folds a partial delivery into an invoice's cost basis
// @Summary      Attach delivery
// @Description  Delivers part of a purchase-order line onto an unpaid invoice; over-delivery is rejected
// @Tags         order-items
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Order Item ID"
// @Param        payload  body      service.AttachDeliveryRequest  true  "Attach Delivery Payload"
// @Success      200      {object}  response.Response{data=service.AttachDeliveryResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/order-items/{id}/deliver [post]
func (h *OrderItemHandler) AttachDelivery(c *gin.Context) {
	var req service.AttachDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	result, err := h.calculator.AttachDeliveredOrderItem(c.Request.Context(), currentUserID(c), c.Param("id"), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
