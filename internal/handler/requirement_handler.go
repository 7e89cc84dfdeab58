package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// RequirementHandler exposes buyer purchase listings.
type RequirementHandler struct {
	requirements *service.RequirementService
}

func NewRequirementHandler(requirements *service.RequirementService) *RequirementHandler {
	return &RequirementHandler{requirements: requirements}
}

// Create handles publishing a new requirement
func (h *RequirementHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.RequirementCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.requirements.Create(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Requirement published", zap.Uint("requirement_id", id))
	prometheus.RecordListingOperation("requirement", "create")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get handles retrieving a single requirement with its remaining quantity
func (h *RequirementHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	view, err := h.requirements.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// List handles the requirement hall page
func (h *RequirementHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	var q service.ListQuery
	if err := c.Bind(&q); err != nil {
		log.Error("Invalid query", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query"})
	}

	views, err := h.requirements.List(c.Request().Context(), currentUserID(c), q)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, views)
}

// Update handles owner edits
func (h *RequirementHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.RequirementUpdateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.requirements.Update(c.Request().Context(), currentUserID(c), id, req); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordListingOperation("requirement", "update")
	return c.JSON(http.StatusOK, echo.Map{"message": "requirement updated"})
}

// Withdraw handles taking a requirement off the hall
func (h *RequirementHandler) Withdraw(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.requirements.Withdraw(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Requirement withdrawn", zap.Uint("requirement_id", id))
	prometheus.RecordListingOperation("requirement", "withdraw")
	return c.JSON(http.StatusOK, echo.Map{"message": "requirement withdrawn"})
}

// Delete handles soft-deleting a requirement
func (h *RequirementHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.requirements.Delete(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordListingOperation("requirement", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "requirement deleted"})
}
