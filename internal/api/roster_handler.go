package api

import (
	"fmt"
	"net/http"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RosterHandler struct {
	rosterService service.RosterService
	logger        *zap.Logger
}

func NewRosterHandler(rosterService service.RosterService, logger *zap.Logger) *RosterHandler {
	return &RosterHandler{rosterService: rosterService, logger: logger}
}

type LinkOfficerRequest struct {
	SupervisorID string `json:"supervisorId" binding:"required"`
}

// ListUsers lists the accounts of one role, e.g. GET /users?role=ppl.
func (h *RosterHandler) ListUsers(c *gin.Context) {
	role := domain.Role(c.DefaultQuery("role", string(domain.RoleOfficer)))
	users, err := h.rosterService.ListUsers(c.Request.Context(), role)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve users.")
		return
	}
	c.JSON(http.StatusOK, mapUsers(users))
}

// LinkOfficer sets the supervisor of the officer in the path.
func (h *RosterHandler) LinkOfficer(c *gin.Context) {
	officerID, ok := objectIDParam(c, "officerId")
	if !ok {
		return
	}
	var req LinkOfficerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	supervisorID, err := parseObjectID("supervisorId", req.SupervisorID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	officer, err := h.rosterService.LinkOfficer(c.Request.Context(), officerID, supervisorID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to link officer.")
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(officer))
}

// MyOfficers lists the officers reporting to the calling supervisor.
func (h *RosterHandler) MyOfficers(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	officers, err := h.rosterService.GetOfficers(c.Request.Context(), actor.ID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve officers.")
		return
	}
	c.JSON(http.StatusOK, mapUsers(officers))
}
