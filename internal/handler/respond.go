package handler

import (
	"net/http"
	"strconv"

	"agritrade/internal/apperr"
	"agritrade/internal/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// httpStatusOf maps an error kind to its HTTP status.
func httpStatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	case apperr.Unauthorized:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidState, apperr.QuantityExceeded, apperr.Conflict:
		return http.StatusConflict
	case apperr.Validation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes a classified error. Unclassified errors are logged
// and surfaced as a generic 500 so internals never leak.
func respondError(c echo.Context, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		log.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(httpStatusOf(kind), echo.Map{
		"error": err.Error(),
		"kind":  kind.String(),
	})
}

// currentUserID reads the authenticated user from the context. Routes
// behind AuthMiddleware always have one; optional-auth routes may not.
func currentUserID(c echo.Context) uint {
	userID, _ := middleware.GetUserIDFromContext(c)
	return userID
}

// paramID parses a numeric path parameter.
func paramID(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, apperr.Newf(apperr.Validation, "invalid %s", name)
	}
	return uint(v), nil
}
