package handler

import (
	"net/http"

	"storepay/internal/middleware"
	"storepay/internal/model"
	"storepay/internal/service"
	"storepay/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSuperAdmin)

	router.GET("/api/dashboard/summary", anyRole, h.GetSummary)
}

// GetSummary returns per-store and per-vendor balance aggregates
// @Summary      Dashboard summary
// @Description  Per-store cross-store positions and unpaid invoice totals, plus per-vendor balances
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardSummary}
// @Failure      500  {object}  response.Response
// @Router       /api/dashboard/summary [get]
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
