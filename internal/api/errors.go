package api

import (
	"errors"
	"net/http"

	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error to an HTTP status and JSON body.
// Missing referents win over the validation wrapper that may carry them.
// Unexpected errors are logged and hidden behind fallback.
func respondError(c *gin.Context, logger *zap.Logger, err error, fallback string) {
	var verr *service.ValidationError
	var derr *service.DataAccessError

	switch {
	case errors.Is(err, service.ErrDuplicateAssignment),
		errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrUnitNotFound),
		errors.Is(err, service.ErrSampleNotFound),
		errors.Is(err, service.ErrPhotoMissing):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, service.ErrAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.As(err, &derr):
		logger.Error("data access failed", zap.String("op", derr.Op), zap.Error(derr.Err))
		abortWithError(c, http.StatusInternalServerError, fallback)
	default:
		logger.Error(fallback, zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
	_ = c.Error(err)
}
