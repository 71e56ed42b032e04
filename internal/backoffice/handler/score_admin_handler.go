package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/service"
	"github.com/orbitfall/tradeempire/internal/ws"
)

// ScoreAdminHandler serves /admin/scores endpoints and the announcement hook.
type ScoreAdminHandler struct {
	scoreSvc *service.ScoreService
	hub      *ws.Hub
	cfg      *config.Config
}

// NewScoreAdminHandler creates a ScoreAdminHandler.
func NewScoreAdminHandler(scoreSvc *service.ScoreService, hub *ws.Hub, cfg *config.Config) *ScoreAdminHandler {
	return &ScoreAdminHandler{scoreSvc: scoreSvc, hub: hub, cfg: cfg}
}

// List godoc
// GET /admin/scores?limit=50
func (h *ScoreAdminHandler) List(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	scores := h.scoreSvc.Top(c.Request.Context(), limit)
	respondSuccess(c, http.StatusOK, scores)
}

// Delete godoc
// DELETE /admin/scores/:id
// Removes a leaderboard entry (abusive callsign, duped run, etc).
func (h *ScoreAdminHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid score id")
		return
	}
	if err = h.scoreSvc.Remove(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"score_id": id, "deleted": true})
}

// Announce godoc
// POST /admin/announce
// Body: {"text": "Maintenance in 10 minutes"}
// Pushes a server-wide notice to every connected client.
func (h *ScoreAdminHandler) Announce(c *gin.Context) {
	var body struct {
		Text string `json:"text" binding:"required,min=1,max=500"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	if h.hub == nil {
		respondError(c, http.StatusServiceUnavailable, "ERR_NO_HUB", "websocket hub is not running")
		return
	}
	h.hub.BroadcastAnnouncement(body.Text)
	respondSuccess(c, http.StatusOK, gin.H{"announced": true})
}
