package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/service"
)

// BankHandler handles loan and term-deposit endpoints.
type BankHandler struct {
	gameSvc *service.GameService
}

// NewBankHandler creates a BankHandler.
func NewBankHandler(gameSvc *service.GameService) *BankHandler {
	return &BankHandler{gameSvc: gameSvc}
}

// DrawLoan godoc
// POST /api/bank/loans/draw [JWT required]
func (h *BankHandler) DrawLoan(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		OfferID uuid.UUID `json:"offer_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.DrawLoan(c.Request.Context(), sessionID, req.OfferID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// RepayLoan godoc
// POST /api/bank/loans/:id/repay [JWT required]
// Settles the full outstanding debt; repaying before maturity adds the early
// settlement fee.
func (h *BankHandler) RepayLoan(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	loanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", "invalid loan id")
		return
	}

	state, err := h.gameSvc.RepayLoan(c.Request.Context(), sessionID, loanID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// OpenDeposit godoc
// POST /api/bank/deposits [JWT required]
func (h *BankHandler) OpenDeposit(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Amount   int64 `json:"amount"    binding:"required,min=1"`
		TermDays int   `json:"term_days" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.Deposit(c.Request.Context(), sessionID, req.Amount, req.TermDays)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}
