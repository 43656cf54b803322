package api

import (
	"fmt"
	"net/http"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	logger         *zap.Logger
}

func NewCatalogHandler(catalogService service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, logger: logger}
}

type CreateRegionRequest struct {
	Code string `json:"code" binding:"required"`
	Name string `json:"name" binding:"required"`
}

type CreateNksRequest struct {
	VillageID      string `json:"villageId" binding:"required"`
	Code           string `json:"code" binding:"required"`
	Subround       int    `json:"subround" binding:"required,min=1,max=3"`
	PadiTarget     int    `json:"padiTarget" binding:"min=0"`
	PalawijaTarget int    `json:"palawijaTarget" binding:"min=0"`
}

type CreateSegmenRequest struct {
	VillageID   string `json:"villageId" binding:"required"`
	Code        string `json:"code" binding:"required"`
	TargetMonth int    `json:"targetMonth" binding:"required,min=1,max=12"`
	PadiTarget  int    `json:"padiTarget" binding:"min=0"`
}

type UpdateTargetRequest struct {
	PadiTarget     int `json:"padiTarget" binding:"min=0"`
	PalawijaTarget int `json:"palawijaTarget" binding:"min=0"`
}

// UnitsResponse lists both catalogs side by side.
type UnitsResponse struct {
	Nks    []domain.NksUnit    `json:"nks"`
	Segmen []domain.SegmenUnit `json:"segmen"`
}

func (h *CatalogHandler) CreateDistrict(c *gin.Context) {
	var req CreateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	d, err := h.catalogService.CreateDistrict(c.Request.Context(), req.Code, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create district.")
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *CatalogHandler) ListDistricts(c *gin.Context) {
	districts, err := h.catalogService.ListDistricts(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve districts.")
		return
	}
	if districts == nil {
		districts = []domain.District{}
	}
	c.JSON(http.StatusOK, districts)
}

func (h *CatalogHandler) CreateVillage(c *gin.Context) {
	districtID, ok := objectIDParam(c, "districtId")
	if !ok {
		return
	}
	var req CreateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	v, err := h.catalogService.CreateVillage(c.Request.Context(), districtID, req.Code, req.Name)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create village.")
		return
	}
	c.JSON(http.StatusCreated, v)
}

// ListVillages accepts an optional ?districtId= filter.
func (h *CatalogHandler) ListVillages(c *gin.Context) {
	districtID, ok := optionalQueryID(c, "districtId")
	if !ok {
		return
	}
	villages, err := h.catalogService.ListVillages(c.Request.Context(), districtID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve villages.")
		return
	}
	if villages == nil {
		villages = []domain.Village{}
	}
	c.JSON(http.StatusOK, villages)
}

func (h *CatalogHandler) CreateNks(c *gin.Context) {
	var req CreateNksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	villageID, err := parseObjectID("villageId", req.VillageID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := h.catalogService.CreateNks(c.Request.Context(), villageID, req.Code, req.Subround,
		domain.Target{Padi: req.PadiTarget, Palawija: req.PalawijaTarget})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create NKS unit.")
		return
	}
	c.JSON(http.StatusCreated, unit)
}

func (h *CatalogHandler) CreateSegmen(c *gin.Context) {
	var req CreateSegmenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	villageID, err := parseObjectID("villageId", req.VillageID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	unit, err := h.catalogService.CreateSegmen(c.Request.Context(), villageID, req.Code, req.TargetMonth, req.PadiTarget)
	if err != nil {
		respondError(c, h.logger, err, "Failed to create segmen unit.")
		return
	}
	c.JSON(http.StatusCreated, unit)
}

// ListUnits accepts an optional ?villageId= filter.
func (h *CatalogHandler) ListUnits(c *gin.Context) {
	villageID, ok := optionalQueryID(c, "villageId")
	if !ok {
		return
	}
	nks, segmen, err := h.catalogService.ListUnits(c.Request.Context(), villageID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve units.")
		return
	}
	if nks == nil {
		nks = []domain.NksUnit{}
	}
	if segmen == nil {
		segmen = []domain.SegmenUnit{}
	}
	c.JSON(http.StatusOK, UnitsResponse{Nks: nks, Segmen: segmen})
}

// UpdateTarget handles PUT /units/:kind/:unitId/target.
func (h *CatalogHandler) UpdateTarget(c *gin.Context) {
	unitID, ok := objectIDParam(c, "unitId")
	if !ok {
		return
	}
	var req UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	kind := domain.UnitKind(c.Param("kind"))
	err := h.catalogService.UpdateTarget(c.Request.Context(), kind, unitID,
		domain.Target{Padi: req.PadiTarget, Palawija: req.PalawijaTarget})
	if err != nil {
		respondError(c, h.logger, err, "Failed to update target.")
		return
	}
	c.Status(http.StatusNoContent)
}

// optionalQueryID reads an optional hex id from the query string. An absent
// parameter yields nil.
func optionalQueryID(c *gin.Context, name string) (*primitive.ObjectID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := parseObjectID(name, raw)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &id, true
}
