package handler

import (
	"net/http"

	"storepay/internal/middleware"
	"storepay/internal/model"
	"storepay/internal/repository"
	"storepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// DirectoryHandler exposes the read-only reference catalogs the payment
// flows pick from: stores, vendors, bank accounts and credit cards.
type DirectoryHandler struct {
	directoryRepo repository.DirectoryRepository
}

func NewDirectoryHandler(directoryRepo repository.DirectoryRepository) *DirectoryHandler {
	return &DirectoryHandler{directoryRepo: directoryRepo}
}

func (h *DirectoryHandler) RegisterRoutes(router *gin.RouterGroup) {
	anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleManager, model.RoleSuperAdmin)

	router.GET("/api/stores", anyRole, h.ListStores)
	router.GET("/api/vendors", anyRole, h.ListVendors)
	router.GET("/api/bank-accounts", anyRole, h.ListBankAccounts)
	router.GET("/api/credit-cards", anyRole, h.ListCreditCards)
}

// ListStores returns all stores
// @Summary      List stores
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active stores"
// @Success      200     {object}  response.Response{data=[]model.Store}
// @Router       /api/stores [get]
func (h *DirectoryHandler) ListStores(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	stores, err := h.directoryRepo.ListStores(c.Request.Context(), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stores))
}

// ListVendors returns all vendors
// @Summary      List vendors
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Param        active  query     bool  false  "Only active vendors"
// @Success      200     {object}  response.Response{data=[]model.Vendor}
// @Router       /api/vendors [get]
func (h *DirectoryHandler) ListVendors(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	vendors, err := h.directoryRepo.ListVendors(c.Request.Context(), activeOnly)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, vendors))
}

// ListBankAccounts returns all bank accounts
// @Summary      List bank accounts
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.BankAccount}
// @Router       /api/bank-accounts [get]
func (h *DirectoryHandler) ListBankAccounts(c *gin.Context) {
	accounts, err := h.directoryRepo.ListBankAccounts(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, accounts))
}

// ListCreditCards returns all credit cards
// @Summary      List credit cards
// @Tags         directory
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.CreditCard}
// @Router       /api/credit-cards [get]
func (h *DirectoryHandler) ListCreditCards(c *gin.Context) {
	cards, err := h.directoryRepo.ListCreditCards(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, cards))
}
