package middleware

import (
	"net/http"
	"strings"

	"agritrade/pkg/jwtutil"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// AuthMiddleware validates the JWT token and puts the user identity on the
// context
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)
		prometheus.AuthAttemptsCounter.Inc()

		// Get the Authorization header
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			prometheus.AuthErrorsCounter.Inc()
			log.Warn("Missing Authorization header")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		// Check if it's a Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			prometheus.AuthErrorsCounter.Inc()
			log.Warn("Invalid Authorization header format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		// Validate the token
		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			prometheus.AuthErrorsCounter.Inc()
			log.Error("Invalid JWT token", zap.Error(err))
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		// Store user info in context for later use
		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		if claims.CompanyID != nil {
			c.Set("company_id", *claims.CompanyID)
		}

		prometheus.AuthSuccessCounter.Inc()
		return next(c)
	}
}

// OptionalAuthMiddleware extracts the user identity when a valid token is
// present but lets anonymous requests through. Hall pages use it for
// viewer-relative distance previews.
func OptionalAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			if claims, err := jwtutil.ValidateToken(parts[1]); err == nil {
				c.Set("user_id", claims.UserID)
				c.Set("email", claims.Email)
			}
		}
		return next(c)
	}
}

// GetUserIDFromContext retrieves the authenticated user ID from the context.
// Returns 0, false when the request is anonymous.
func GetUserIDFromContext(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}
