package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orbitfall/tradeempire/internal/config"
	"github.com/orbitfall/tradeempire/internal/domain"
	"github.com/orbitfall/tradeempire/internal/repository"
)

// PilotAdminHandler serves /admin/pilots endpoints.
type PilotAdminHandler struct {
	pilotRepo *repository.PilotRepository
	saveRepo  *repository.SaveRepository
	cfg       *config.Config
}

// NewPilotAdminHandler creates a PilotAdminHandler.
func NewPilotAdminHandler(
	pilotRepo *repository.PilotRepository,
	saveRepo *repository.SaveRepository,
	cfg *config.Config,
) *PilotAdminHandler {
	return &PilotAdminHandler{pilotRepo: pilotRepo, saveRepo: saveRepo, cfg: cfg}
}

// List godoc
// GET /admin/pilots?page=1&limit=50
func (h *PilotAdminHandler) List(c *gin.Context) {
	page, limit := adminPagination(c)
	offset := (page - 1) * limit

	pilots, total, err := h.pilotRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondList(c, pilots, total, page, limit)
}

// Detail godoc
// GET /admin/pilots/:id
// Includes the pilot's save metadata when one exists.
func (h *PilotAdminHandler) Detail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid pilot id")
		return
	}

	ctx := c.Request.Context()
	pilot, err := h.pilotRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrPilotNotFound) {
			respondError(c, http.StatusNotFound, "ERR_NOT_FOUND", err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}

	var save *domain.GameSave
	if s, err := h.saveRepo.GetByPilot(ctx, id); err == nil {
		s.State = nil // metadata only; the blob is large and opaque
		save = s
	}

	respondSuccess(c, http.StatusOK, gin.H{
		"pilot": pilot.ToPublicProfile(),
		"save":  save,
	})
}

// Suspend godoc
// POST /admin/pilots/:id/suspend
func (h *PilotAdminHandler) Suspend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid pilot id")
		return
	}
	if err = h.pilotRepo.SetActive(c.Request.Context(), id, false); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"pilot_id": id, "is_active": false})
}

// Activate godoc
// POST /admin/pilots/:id/activate
func (h *PilotAdminHandler) Activate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid pilot id")
		return
	}
	if err = h.pilotRepo.SetActive(c.Request.Context(), id, true); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"pilot_id": id, "is_active": true})
}

// SetRole godoc
// POST /admin/pilots/:id/role
// Body: {"role": "admin"}
func (h *PilotAdminHandler) SetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid pilot id")
		return
	}
	var body struct {
		Role string `json:"role" binding:"required"`
	}
	if err = c.ShouldBindJSON(&body); err != nil {
		respondError(c, http.StatusBadRequest, "ERR_VALIDATION", err.Error())
		return
	}
	role := domain.PilotRole(body.Role)
	validRoles := map[domain.PilotRole]bool{
		domain.RolePilot:    true,
		domain.RoleAdmin:    true,
		domain.RoleReadOnly: true,
	}
	if !validRoles[role] {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ROLE", "unknown role")
		return
	}
	if err = h.pilotRepo.UpdateRole(c.Request.Context(), id, role); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"pilot_id": id, "role": role})
}

// DeleteSave godoc
// DELETE /admin/pilots/:id/save
// Wipes the pilot's stored game. Any live session keeps running until the
// pilot saves again.
func (h *PilotAdminHandler) DeleteSave(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "ERR_INVALID_ID", "invalid pilot id")
		return
	}
	if err = h.saveRepo.Delete(c.Request.Context(), id); err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", err.Error())
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"pilot_id": id, "save_deleted": true})
}
