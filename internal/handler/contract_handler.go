package handler

import (
	"net/http"

	"agritrade/internal/service"
	"agritrade/pkg/logger"
	"agritrade/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ContractHandler exposes contract formation, the signature workflow, and
// document rendering.
type ContractHandler struct {
	contracts *service.ContractService
}

func NewContractHandler(contracts *service.ContractService) *ContractHandler {
	return &ContractHandler{contracts: contracts}
}

// CreateDraft handles drafting a contract manually
func (h *ContractHandler) CreateDraft(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.ContractDraftInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.contracts.CreateDraft(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Contract drafted", zap.Uint("contract_id", id))
	prometheus.RecordContractOperation("draft")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// CreateFromNegotiation handles forming a contract from an accepted negotiation
func (h *ContractHandler) CreateFromNegotiation(c echo.Context) error {
	log := logger.FromContext(c)

	var req service.NegotiationContractInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	id, err := h.contracts.CreateFromNegotiation(c.Request().Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, log, err)
	}

	log.Info("Contract formed from negotiation",
		zap.Uint("contract_id", id),
		zap.Uint("negotiation_id", req.NegotiationID))
	prometheus.RecordContractOperation("from_negotiation")
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// Get handles retrieving a contract for one of its parties
func (h *ContractHandler) Get(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	view, err := h.contracts.GetByID(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, view)
}

// List handles the viewer's contract list
func (h *ContractHandler) List(c echo.Context) error {
	log := logger.FromContext(c)

	var q service.ContractQuery
	if err := c.Bind(&q); err != nil {
		log.Error("Invalid query", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid query"})
	}

	views, err := h.contracts.List(c.Request().Context(), currentUserID(c), q)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, views)
}

// Update handles draft-stage edits
func (h *ContractHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.ContractUpdateInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}

	if err := h.contracts.Update(c.Request().Context(), currentUserID(c), id, req); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordContractOperation("update")
	return c.JSON(http.StatusOK, echo.Map{"message": "contract updated"})
}

// Delete handles deleting a draft
func (h *ContractHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.contracts.Delete(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}
	prometheus.RecordContractOperation("delete")
	return c.JSON(http.StatusOK, echo.Map{"message": "contract deleted"})
}

// Cancel handles cancelling a non-terminal contract
func (h *ContractHandler) Cancel(c echo.Context) error {
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

	if err := h.contracts.Cancel(c.Request().Context(), currentUserID(c), id, req.Reason); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Contract cancelled", zap.Uint("contract_id", id))
	prometheus.RecordContractOperation("cancel")
	return c.JSON(http.StatusOK, echo.Map{"message": "contract cancelled"})
}

// SendForSigning handles moving a draft into pending-signature
func (h *ContractHandler) SendForSigning(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	if err := h.contracts.SendForSigning(c.Request().Context(), currentUserID(c), id); err != nil {
		return respondError(c, log, err)
	}

	log.Info("Contract sent for signing", zap.Uint("contract_id", id))
	prometheus.RecordContractOperation("send_for_signing")
	return c.JSON(http.StatusOK, echo.Map{"message": "contract sent for signing"})
}

// Sign handles one party's signature
func (h *ContractHandler) Sign(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	var req service.SignInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request data"})
	}
	req.SignIP = c.RealIP()

	if err := h.contracts.Sign(c.Request().Context(), currentUserID(c), id, req); err != nil {
		return respondError(c, log, err)
	}

	// Report active only when this signature completed the set.
	view, err := h.contracts.GetByID(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}
	if view.BuyerSigned && view.SellerSigned {
		prometheus.ContractsSignedCounter.Inc()
	}

	log.Info("Contract signed", zap.Uint("contract_id", id))
	return c.JSON(http.StatusOK, view)
}

// Render handles rendering the contract document and returning its bytes
func (h *ContractHandler) Render(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	bytes, hash, err := h.contracts.RenderDocument(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}

	c.Response().Header().Set("X-Document-Hash", hash)
	return c.Blob(http.StatusOK, "text/plain; charset=utf-8", bytes)
}

// ChangeLog handles listing the contract audit trail
func (h *ContractHandler) ChangeLog(c echo.Context) error {
	log := logger.FromContext(c)

	id, err := paramID(c, "id")
	if err != nil {
		return respondError(c, log, err)
	}
	logs, err := h.contracts.ListChangeLog(c.Request().Context(), currentUserID(c), id)
	if err != nil {
		return respondError(c, log, err)
	}
	return c.JSON(http.StatusOK, logs)
}
