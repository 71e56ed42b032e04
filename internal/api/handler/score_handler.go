package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/service"
)

// ScoreHandler serves the public hall-of-fame leaderboard.
type ScoreHandler struct {
	scoreSvc *service.ScoreService
}

// NewScoreHandler creates a ScoreHandler.
func NewScoreHandler(scoreSvc *service.ScoreService) *ScoreHandler {
	return &ScoreHandler{scoreSvc: scoreSvc}
}

// Top godoc
// GET /api/scores?limit=10 (public)
// Short boards are padded with the catalog's legendary traders.
func (h *ScoreHandler) Top(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	scores := h.scoreSvc.Top(c.Request.Context(), limit)
	respondSuccess(c, http.StatusOK, scores)
}
