package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/service"
)

// ContractHandler handles haulage-contract endpoints. The available board is
// part of the state snapshot; only accept and settle mutate.
type ContractHandler struct {
	gameSvc *service.GameService
}

// NewContractHandler creates a ContractHandler.
func NewContractHandler(gameSvc *service.GameService) *ContractHandler {
	return &ContractHandler{gameSvc: gameSvc}
}

// Accept godoc
// POST /api/contracts/:id/accept [JWT required]
func (h *ContractHandler) Accept(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "invalid contract id")
		return
	}

	state, err := h.gameSvc.AcceptContract(c.Request.Context(), sessionID, contractID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Settle godoc
// POST /api/contracts/:id/settle [JWT required]
// Delivers arrived, reserved warehouse stock against the contract. Most
// contracts settle automatically on the day tick; this is the manual path.
func (h *ContractHandler) Settle(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	contractID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "invalid contract id")
		return
	}

	state, err := h.gameSvc.SettleContract(c.Request.Context(), sessionID, contractID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}
