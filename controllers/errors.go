package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/export"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

var errStoreUnavailable = errors.New("order store is temporarily unavailable, please retry")

// statusFor maps a service error onto an HTTP status. Unclassified errors
// come from the database and are reported as retryable.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, cart.ErrMissingSession),
		errors.Is(err, export.ErrUnknownPaymentMethod):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, lifecycle.ErrInvalidTransition),
		errors.Is(err, services.ErrConflict),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, services.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, utils.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, export.ErrSheetsNotConfigured):
		return http.StatusNotImplemented
	default:
		return http.StatusServiceUnavailable
	}
}

func respondServiceError(c *gin.Context, err error) {
	code := statusFor(err)
	if code == http.StatusServiceUnavailable {
		_ = c.Error(err)
		utils.RespondError(c, code, errStoreUnavailable)
		return
	}
	utils.RespondError(c, code, err)
}
