package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// NegotiationHandler exposes seller quotes and buyer responses.
type NegotiationHandler struct {
	negotiations *service.NegotiationService
}

func NewNegotiationHandler(negotiations *service.NegotiationService) *NegotiationHandler {
	return &NegotiationHandler{negotiations: negotiations}
}

// Create handles a seller offering a quote to a buyer
func (h *NegotiationHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.NegotiationCreateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.negotiations.Create(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Negotiation offered", zap.Uint("negotiation_id", id))
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get handles retrieving a negotiation for one of its parties
func (h *NegotiationHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	negotiation, err := h.negotiations.GetByID(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, negotiation)
}

// List handles the viewer's negotiation list
func (h *NegotiationHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	negotiations, err := h.negotiations.List(c.Request().Context(), currentUserID(c))
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, negotiations)
}

// Accept handles the buyer accepting an offered quote
func (h *NegotiationHandler) Accept(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.negotiations.Accept(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Negotiation accepted", zap.Uint("negotiation_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "negotiation accepted"})
}

// Decline handles the buyer declining an offered quote
func (h *NegotiationHandler) Decline(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.negotiations.Decline(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Negotiation declined", zap.Uint("negotiation_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "negotiation declined"})
}
