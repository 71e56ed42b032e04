package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/repository"
	"github.com/orbitfall/tradeempire/internal/service"
	"github.com/orbitfall/tradeempire/internal/ws"
)

// DashboardHandler serves the /admin/dashboard endpoint.
type DashboardHandler struct {
	gameSvc   *service.GameService
	pilotRepo *repository.PilotRepository
	saveRepo  *repository.SaveRepository
	hub       *ws.Hub
	cfg       *config.Config
}

// NewDashboardHandler creates a DashboardHandler.
func NewDashboardHandler(
	gameSvc *service.GameService,
	pilotRepo *repository.PilotRepository,
	saveRepo *repository.SaveRepository,
	hub *ws.Hub,
	cfg *config.Config,
) *DashboardHandler {
	return &DashboardHandler{
		gameSvc:   gameSvc,
		pilotRepo: pilotRepo,
		saveRepo:  saveRepo,
		hub:       hub,
		cfg:       cfg,
	}
}

// Dashboard godoc
// GET /admin/dashboard
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	// ── Registered pilots ────────────────────────────────────────────────────
	var totalPilots int
	if _, total, err := h.pilotRepo.List(ctx, 1, 0); err == nil {
		totalPilots = total
	}

	// ── Stored saves (newest first) ──────────────────────────────────────────
	saves, totalSaves, _ := h.saveRepo.List(ctx, 10, 0)

	// ── Live sessions ────────────────────────────────────────────────────────
	var liveSessions int
	if h.gameSvc != nil {
		liveSessions = h.gameSvc.SessionCount()
	}

	// ── WS connections ────────────────────────────────────────────────────────
	var wsConnections int
	if h.hub != nil {
		wsConnections = h.hub.ConnectedCount()
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"timestamp":      time.Now().UTC(),
		"total_pilots":   totalPilots,
		"total_saves":    totalSaves,
		"live_sessions":  liveSessions,
		"ws_connections": wsConnections,
		"recent_saves":   saves,
	})
}
