package handler

import (
	"errors"
	"net/http"

	"storepay/internal/service"
	"storepay/pkg/response"

	"github.com/gin-gonic/gin"
)

// writeError maps service-layer error types onto HTTP statuses.
// Unrecognized errors surface as 500.
func writeError(c *gin.Context, err error) {
	var (
		validationErr *service.ValidationError
		mismatchErr   *service.AmountMismatchError
		allocErr      *service.AllocationMismatchError
		deliveryErr   *service.OverDeliveryError
		notFoundErr   *service.NotFoundError
		conflictErr   *service.ConflictError
	)

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &mismatchErr),
		errors.As(err, &allocErr),
		errors.As(err, &deliveryErr):
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	default:
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
	}
}

// currentUserID returns the authenticated user's id from the gin context.
func currentUserID(c *gin.Context) string {
	userID, _ := c.Get("userID")
	userIDStr, _ := userID.(string)
	return userIDStr
}
