package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// SealHandler exposes company seal management for signing.
type SealHandler struct {
	seals *service.SealService
}

func NewSealHandler(seals *service.SealService) *SealHandler {
	return &SealHandler{seals: seals}
}

// Create handles registering a company seal
func (h *SealHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.SealCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.seals.Create(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Seal registered", zap.Uint("seal_id", id))
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List handles listing the caller company's seals
func (h *SealHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	seals, err := h.seals.List(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, seals)
}

// Delete handles removing a seal
func (h *SealHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.seals.Delete(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "seal deleted"})
}
