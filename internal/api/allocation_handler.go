package api

import (
	"errors"
	"fmt"
	"net/http"

	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AllocationHandler struct {
	allocationService service.AllocationService
	logger            *zap.Logger
}

func NewAllocationHandler(allocationService service.AllocationService, logger *zap.Logger) *AllocationHandler {
	return &AllocationHandler{allocationService: allocationService, logger: logger}
}

type AssignRequest struct {
	UnitID       string `json:"unitId" binding:"required"`
	OfficerID    string `json:"officerId" binding:"required"`
	SupervisorID string `json:"supervisorId" binding:"required"`
}

type AssignManyRequest struct {
	Assignments []AssignRequest `json:"assignments" binding:"required,min=1,dive"`
}

type UnassignRequest struct {
	UnitID    string `json:"unitId" binding:"required"`
	OfficerID string `json:"officerId" binding:"required"`
}

func (r AssignRequest) toService() (service.AssignRequest, error) {
	var out service.AssignRequest
	var err error
	if out.UnitID, err = parseObjectID("unitId", r.UnitID); err != nil {
		return out, err
	}
	if out.OfficerID, err = parseObjectID("officerId", r.OfficerID); err != nil {
		return out, err
	}
	out.SupervisorID, err = parseObjectID("supervisorId", r.SupervisorID)
	return out, err
}

// Assign allocates one unit. 409 when the unit is already allocated.
func (h *AllocationHandler) Assign(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	sreq, err := req.toService()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	assignment, err := h.allocationService.Assign(c.Request.Context(), actor.ID, sreq)
	if err != nil {
		respondError(c, h.logger, err, "Failed to allocate unit.")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// AssignMany applies a batch in order. On failure the body reports how many
// were applied before the error.
func (h *AllocationHandler) AssignMany(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req AssignManyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	reqs := make([]service.AssignRequest, 0, len(req.Assignments))
	for i, a := range req.Assignments {
		sreq, err := a.toService()
		if err != nil {
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("assignments[%d]: %v", i, err))
			return
		}
		reqs = append(reqs, sreq)
	}

	applied, err := h.allocationService.AssignMany(c.Request.Context(), actor.ID, reqs)
	if err != nil {
		status := http.StatusBadRequest
		var verr *service.ValidationError
		switch {
		case errors.Is(err, service.ErrDuplicateAssignment):
			status = http.StatusConflict
		case !errors.As(err, &verr):
			respondError(c, h.logger, err, "Failed to allocate units.")
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": err.Error(), "applied": applied})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied})
}

func (h *AllocationHandler) Unassign(c *gin.Context) {
	var req UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	unitID, err := parseObjectID("unitId", req.UnitID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	officerID, err := parseObjectID("officerId", req.OfficerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.allocationService.Unassign(c.Request.Context(), unitID, officerID); err != nil {
		respondError(c, h.logger, err, "Failed to release unit.")
		return
	}
	c.Status(http.StatusNoContent)
}

// Status handles GET /allocations?type=nks|segmen|all&state=allocated|unallocated&q=...
func (h *AllocationHandler) Status(c *gin.Context) {
	var filter progress.AllocationFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	view, err := h.allocationService.Status(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve allocation status.")
		return
	}
	c.JSON(http.StatusOK, view)
}
