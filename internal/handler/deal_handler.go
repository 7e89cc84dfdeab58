package handler

import (
	"net/http"

	"agritrade/internal/apperr"
	"agritrade/internal/service"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DealHandler exposes deal confirmation and lookup.
type DealHandler struct {
	deals *service.DealService
}

func NewDealHandler(deals *service.DealService) *DealHandler {
	return &DealHandler{deals: deals}
}

// Confirm handles a buyer confirming a deal against a supply
func (h *DealHandler) Confirm(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.DealCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.deals.Confirm(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		if apperr.Is(err, apperr.QuantityExceeded) {
			prometheus.QuantityRejectionsCounter.Inc()
		}
		return respondError(c, log, err)
	}

	log.Info("Deal confirmed",
		zap.Uint("deal_id", id),
		zap.Uint("requirement_id", req.RequirementID),
		zap.Uint("supply_id", req.SupplyID))
	prometheus.DealsConfirmedCounter.Inc()
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get handles retrieving a single deal
func (h *DealHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	deal, err := h.deals.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, deal)
}

// ListByRequirement handles listing all deals of one requirement
func (h *DealHandler) ListByRequirement(c echo.Context) error {
	log := logger.FromContext(c)

	requirementID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	deals, err := h.deals.ListByRequirement(c.Request().Context(), requirementID)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, deals)
}
