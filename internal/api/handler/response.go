package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/domain"
)

// ──────────────────────────────────────────────────────────────────────────────
// Standard response helpers
// ──────────────────────────────────────────────────────────────────────────────

// respondSuccess writes {"success": true, "data": data} with the given status.
func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes {"success": false, "error": msg, "code": code}.
func respondError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   msg,
		"code":    code,
	})
}

// respondList writes {"success": true, "data": items, "meta": {...}}.
func respondList(c *gin.Context, items interface{}, total, page, limit int) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    items,
		"meta": gin.H{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Game error mapping
// ──────────────────────────────────────────────────────────────────────────────

// respondGameError maps a service-layer error to the appropriate HTTP status
// and error code. Shared by every game command handler.
func respondGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrStockConfirmRequired):
		respondError(c, http.StatusConflict, "ERR_CONFIRM_STOCK", err.Error())
	case errors.Is(err, domain.ErrTaxConfirmRequired):
		respondError(c, http.StatusConflict, "ERR_CONFIRM_TAX", err.Error())
	case errors.Is(err, domain.ErrEncounterPending):
		respondError(c, http.StatusConflict, "ERR_ENCOUNTER_PENDING", err.Error())
	case errors.Is(err, domain.ErrNoEncounterPending):
		respondError(c, http.StatusConflict, "ERR_NO_ENCOUNTER", err.Error())
	case errors.Is(err, domain.ErrGameOver):
		respondError(c, http.StatusGone, "ERR_GAME_OVER", err.Error())
	case domain.IsValidation(err):
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
	case domain.IsPolicyLimit(err):
		respondError(c, http.StatusConflict, "ERR_POLICY_LIMIT", err.Error())
	case domain.IsNotFound(err):
		respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
	case domain.IsAuthError(err):
		respondError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", err.Error())
	default:
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "operation failed")
	}
}
