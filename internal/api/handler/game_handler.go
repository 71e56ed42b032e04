package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/api/middleware"
	"github.com/orbitfall/tradeempire/internal/repository"
	"github.com/orbitfall/tradeempire/internal/service"
)

// GameHandler handles session lifecycle and station-side commands: trading,
// repairs, equipment, fabrication, bounties, and cargo expansion.
type GameHandler struct {
	gameSvc   *service.GameService
	pilotRepo *repository.PilotRepository
}

// NewGameHandler creates a GameHandler.
func NewGameHandler(gameSvc *service.GameService, pilotRepo *repository.PilotRepository) *GameHandler {
	return &GameHandler{gameSvc: gameSvc, pilotRepo: pilotRepo}
}

// sessionFor resolves the caller's live session. Writes a 404 and returns
// false when the pilot has no session in memory (start or load one first).
func sessionFor(c *gin.Context, gameSvc *service.GameService) (uuid.UUID, bool) {
	pilotID := middleware.GetPilotID(c)
	sessionID, ok := gameSvc.SessionForPilot(pilotID)
	if !ok {
		respondError(c, http.StatusNotFound, "ERR_NO_SESSION",
			"no live game session — start a new game or load your save")
		return uuid.Nil, false
	}
	return sessionID, true
}

// ──────────────────────────────────────────────────────────────────────────────
// Session lifecycle
// ──────────────────────────────────────────────────────────────────────────────

// NewGame godoc
// POST /api/game/new [JWT required]
// Starts a fresh run, replacing any previous session and save.
func (h *GameHandler) NewGame(c *gin.Context) {
	pilotID := middleware.GetPilotID(c)
	state, err := h.gameSvc.NewGame(c.Request.Context(), pilotID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, state)
}

// LoadGame godoc
// POST /api/game/load [JWT required]
// Restores the pilot's persisted save into a live session.
func (h *GameHandler) LoadGame(c *gin.Context) {
	pilotID := middleware.GetPilotID(c)
	state, err := h.gameSvc.Load(c.Request.Context(), pilotID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// SaveGame godoc
// POST /api/game/save [JWT required]
func (h *GameHandler) SaveGame(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	if err := h.gameSvc.Save(c.Request.Context(), sessionID); err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"saved": true})
}

// GetState godoc
// GET /api/game/state [JWT required]
// Returns the full state snapshot plus any pending encounter.
func (h *GameHandler) GetState(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	state, encounter, err := h.gameSvc.Snapshot(sessionID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"state":     state,
		"encounter": encounter,
	})
}

// Retire godoc
// POST /api/game/retire [JWT required]
// Ends the run voluntarily and books the result on the leaderboard.
func (h *GameHandler) Retire(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}

	callsign := ""
	if pilot, err := h.pilotRepo.GetByID(c.Request.Context(), middleware.GetPilotID(c)); err == nil {
		callsign = pilot.Callsign
	}

	state, err := h.gameSvc.Retire(c.Request.Context(), sessionID, callsign)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// ──────────────────────────────────────────────────────────────────────────────
// Trading
// ──────────────────────────────────────────────────────────────────────────────

type tradeRequest struct {
	Commodity string `json:"commodity" binding:"required"`
	Quantity  int    `json:"quantity"  binding:"required"`
	Confirm   bool   `json:"confirm"`
}

// Buy godoc
// POST /api/game/buy [JWT required]
// A 409 with ERR_CONFIRM_STOCK or ERR_CONFIRM_TAX means re-submit with
// confirm=true to proceed.
func (h *GameHandler) Buy(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	result, state, err := h.gameSvc.Buy(c.Request.Context(), sessionID, req.Commodity, req.Quantity, req.Confirm)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"trade": result, "state": state})
}

// Sell godoc
// POST /api/game/sell [JWT required]
func (h *GameHandler) Sell(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req tradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	result, state, err := h.gameSvc.Sell(c.Request.Context(), sessionID, req.Commodity, req.Quantity, req.Confirm)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"trade": result, "state": state})
}

// ──────────────────────────────────────────────────────────────────────────────
// Ship maintenance and upgrades
// ──────────────────────────────────────────────────────────────────────────────

// Repair godoc
// POST /api/game/repair [JWT required]
func (h *GameHandler) Repair(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Target string `json:"target" binding:"required,oneof=hull laser"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.Repair(c.Request.Context(), sessionID, service.RepairTarget(req.Target))
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// BuyEquipment godoc
// POST /api/game/equipment [JWT required]
func (h *GameHandler) BuyEquipment(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.BuyEquipment(c.Request.Context(), sessionID, req.ID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Fabricate godoc
// POST /api/game/fabricate [JWT required]
func (h *GameHandler) Fabricate(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Recipe string `json:"recipe" binding:"required"`
		Units  int    `json:"units"  binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.Fabricate(c.Request.Context(), sessionID, req.Recipe, req.Units)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// ClearWarrant godoc
// POST /api/game/warrant/clear [JWT required]
// Pays the bounty office to drop every active warrant.
func (h *GameHandler) ClearWarrant(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	state, err := h.gameSvc.ClearWarrant(c.Request.Context(), sessionID)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// ExpandCargo godoc
// POST /api/game/cargo/expand [JWT required]
func (h *GameHandler) ExpandCargo(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Tonnes int `json:"tonnes" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.ExpandCargo(c.Request.Context(), sessionID, req.Tonnes)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}
