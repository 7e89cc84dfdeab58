package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SupplyHandler exposes seller listings.
type SupplyHandler struct {
	supplies *service.SupplyService
}

func NewSupplyHandler(supplies *service.SupplyService) *SupplyHandler {
	return &SupplyHandler{supplies: supplies}
}

// Create handles publishing a new supply
func (h *SupplyHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.SupplyCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.supplies.Create(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Supply published", zap.Uint("supply_id", id))
	prometheus.RecordListingOperation("supply", "create")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get handles retrieving a single supply with basis quotes
func (h *SupplyHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	view, err := h.supplies.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// List handles the supply hall page
func (h *SupplyHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	var q service.ListQuery
	if err := c.Bind(&q); err != nil {
		log.Error("Invalid query", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query"})
	}

	views, err := h.supplies.List(c.Request().Context(), currentUserID(c), q)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, views)
}

// Update handles owner edits
func (h *SupplyHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.SupplyUpdateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.supplies.Update(c.Request().Context(), currentUserID(c), id, req); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordListingOperation("supply", "update")
	return c.JSON(http.StatusOK, echo.Map{"message": "supply updated"})
}

// Withdraw handles taking a supply off the hall
func (h *SupplyHandler) Withdraw(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.supplies.Withdraw(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Supply withdrawn", zap.Uint("supply_id", id))
	prometheus.RecordListingOperation("supply", "withdraw")
	return c.JSON(http.StatusOK, echo.Map{"message": "supply withdrawn"})
}

// Delete handles soft-deleting a supply
func (h *SupplyHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.supplies.Delete(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordListingOperation("supply", "delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "supply deleted"})
}
