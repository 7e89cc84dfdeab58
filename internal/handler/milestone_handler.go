package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MilestoneHandler exposes fulfilment milestones on active contracts.
type MilestoneHandler struct {
	milestones *service.MilestoneService
}

func NewMilestoneHandler(milestones *service.MilestoneService) *MilestoneHandler {
	return &MilestoneHandler{milestones: milestones}
}

// Add handles attaching a milestone to a contract
func (h *MilestoneHandler) Add(c echo.Context) error {
	log := logger.FromContext(c)

	contractID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.MilestoneCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.milestones.Add(c.Request().Context(), currentUserID(c), contractID, req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Milestone added",
		zap.Uint("milestone_id", id),
		zap.Uint("contract_id", contractID))
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List handles listing a contract's milestones
func (h *MilestoneHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	contractID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	milestones, err := h.milestones.ListByContract(c.Request().Context(), currentUserID(c), contractID)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, milestones)
}

// Submit handles reporting a milestone as done, with evidence
func (h *MilestoneHandler) Submit(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.MilestoneSubmitInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.milestones.Submit(c.Request().Context(), currentUserID(c), id, req); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Milestone submitted", zap.Uint("milestone_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "milestone submitted"})
}

// Confirm handles the counterparty accepting a submitted milestone
func (h *MilestoneHandler) Confirm(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	completed, err := h.milestones.Confirm(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	if completed {
		prometheus.ContractsCompletedCounter.Inc()
	}
	log.Info("Milestone confirmed",
		zap.Uint("milestone_id", id),
		zap.Bool("contract_completed", completed))
	return c.JSON(http.StatusOK, echo.Map{
		"message":            "milestone confirmed",
		"contract_completed": completed,
	})
}

// Reject handles the counterparty declining a submitted milestone
func (h *MilestoneHandler) Reject(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.milestones.Reject(c.Request().Context(), currentUserID(c), id, req.Reason); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Milestone rejected", zap.Uint("milestone_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "milestone rejected"})
}

// Delete handles removing a pending milestone
func (h *MilestoneHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.milestones.Delete(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "milestone deleted"})
}
