package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/service"
)

// TravelHandler handles jumps, encounter resolution, and waiting in port.
type TravelHandler struct {
	gameSvc *service.GameService
}

// NewTravelHandler creates a TravelHandler.
func NewTravelHandler(gameSvc *service.GameService) *TravelHandler {
	return &TravelHandler{gameSvc: gameSvc}
}

// Depart godoc
// POST /api/travel/depart [JWT required]
// Launches a jump. When the route triggers an encounter the response carries
// the encounter instead of a day report; resolve it via /api/travel/resolve.
func (h *TravelHandler) Depart(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req service.JumpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	report, encounter, state, err := h.gameSvc.Depart(c.Request.Context(), sessionID, req)
	if err != nil {
		respondGameError(c, err)
		return
	}
	if encounter != nil {
		respondSuccess(c, http.StatusOK, gin.H{
			"encounter": encounter,
			"state":     state,
		})
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"report": report,
		"state":  state,
	})
}

// Resolve godoc
// POST /api/travel/resolve [JWT required]
func (h *TravelHandler) Resolve(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Decision string `json:"decision" binding:"required,oneof=pay fight ignore check leave"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	report, state, err := h.gameSvc.ResolveEncounter(c.Request.Context(), sessionID, domain.Decision(req.Decision))
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"report": report,
		"state":  state,
	})
}

// Wait godoc
// POST /api/travel/wait [JWT required]
// Stays in port for a day. The day still ticks; no encounter can occur.
func (h *TravelHandler) Wait(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	report, state, err := h.gameSvc.Wait(c.Request.Context(), sessionID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"report": report,
		"state":  state,
	})
}
