package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orbitfall/tradeempire/internal/service"
)

// ShippingHandler handles freight and remote-warehouse endpoints.
type ShippingHandler struct {
	gameSvc     *service.GameService
	shippingSvc *service.ShippingService
}

// NewShippingHandler creates a ShippingHandler.
func NewShippingHandler(gameSvc *service.GameService, shippingSvc *service.ShippingService) *ShippingHandler {
	return &ShippingHandler{gameSvc: gameSvc, shippingSvc: shippingSvc}
}

type shipRequest struct {
	Commodity string `json:"commodity"  binding:"required"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
	DestIndex int    `json:"dest_index"`
	Dest      string `json:"dest"` // venue name; takes precedence over dest_index
	Tier      string `json:"tier"       binding:"required,oneof=express standard freight"`
	Reserve   bool   `json:"reserve"` // stage the shipment for a contract at the destination
}

// destIndex resolves the destination, preferring the name form when present so
// typos come back with a "did you mean" hint instead of a bare rejection.
func (h *ShippingHandler) destIndex(c *gin.Context, req shipRequest) (int, bool) {
	if req.Dest == "" {
		return req.DestIndex, true
	}
	idx, err := h.shippingSvc.ResolveVenue(req.Dest)
	if err != nil {
		respondGameError(c, err)
		return 0, false
	}
	return idx, true
}

// Quote godoc
// POST /api/shipping/quote [JWT required]
// Prices a shipment without committing it.
func (h *ShippingHandler) Quote(c *gin.Context) {
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	cost, days, err := h.shippingSvc.Quote(req.Commodity, req.Quantity, service.ShippingTier(req.Tier))
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"cost":         cost,
		"transit_days": days,
	})
}

// Send godoc
// POST /api/shipping/send [JWT required]
func (h *ShippingHandler) Send(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	destIdx, ok := h.destIndex(c, req)
	if !ok {
		return
	}
	state, err := h.gameSvc.Ship(c.Request.Context(), sessionID,
		req.Commodity, req.Quantity, destIdx, service.ShippingTier(req.Tier), req.Reserve)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Claim godoc
// POST /api/shipping/claim [JWT required]
// Loads arrived warehouse stock at the current venue into the ship's hold.
func (h *ShippingHandler) Claim(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Commodity string `json:"commodity" binding:"required"`
		Quantity  int    `json:"quantity"  binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.ClaimShipment(c.Request.Context(), sessionID, req.Commodity, req.Quantity)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Sell godoc
// POST /api/shipping/sell [JWT required]
// Sells arrived warehouse stock directly into the local market without
// touching the ship's hold. The repeat-trade tax counter is shared with
// hold sales.
func (h *ShippingHandler) Sell(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req struct {
		Commodity string `json:"commodity" binding:"required"`
		Quantity  int    `json:"quantity"  binding:"required,min=1"`
		Confirm   bool   `json:"confirm"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	state, err := h.gameSvc.SellFromWarehouse(c.Request.Context(), sessionID, req.Commodity, req.Quantity, req.Confirm)
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}

// Forward godoc
// POST /api/shipping/forward [JWT required]
// Re-ships arrived warehouse stock to another venue without loading it.
func (h *ShippingHandler) Forward(c *gin.Context) {
	sessionID, ok := sessionFor(c, h.gameSvc)
	if !ok {
		return
	}
	var req shipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}

	destIdx, ok := h.destIndex(c, req)
	if !ok {
		return
	}
	state, err := h.gameSvc.ForwardShipment(c.Request.Context(), sessionID,
		req.Commodity, req.Quantity, destIdx, service.ShippingTier(req.Tier))
	if err != nil {
		respondGameError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, state)
}
