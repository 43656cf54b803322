package api

import (
	"errors"
	"fmt"
	"net/http"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SampleHandler struct {
	sampleService service.SampleService
	logger        *zap.Logger
}

func NewSampleHandler(sampleService service.SampleService, logger *zap.Logger) *SampleHandler {
	return &SampleHandler{sampleService: sampleService, logger: logger}
}

type CreateSampleRequest struct {
	UnitID     string `json:"unitId" binding:"required"`
	Commodity  string `json:"commodity" binding:"required"`
	SampleDate string `json:"sampleDate" binding:"required"`
}

type FillSampleRequest struct {
	Weight     float64 `json:"weight" binding:"required"`
	Commodity  string  `json:"commodity"`
	SampleDate string  `json:"sampleDate"`
}

type VerifySampleRequest struct {
	Approve *bool  `json:"approve" binding:"required"`
	Comment string `json:"comment"`
}

type PhotoUploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type ConfirmPhotoRequest struct {
	ObjectKey   string `json:"objectKey" binding:"required"`
	FileName    string `json:"fileName" binding:"required"`
	Size        int64  `json:"size" binding:"required,gt=0"`
	ContentType string `json:"contentType" binding:"required"`
}

// SampleListQuery binds GET /samples filters.
type SampleListQuery struct {
	Status   domain.SampleStatus `form:"status"`
	DateFrom string              `form:"from"`
	DateTo   string              `form:"to"`
}

func (h *SampleHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req CreateSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	unitID, err := parseObjectID("unitId", req.UnitID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	sample, err := h.sampleService.Create(c.Request.Context(), actor.ID, service.CreateSampleInput{
		UnitID:     unitID,
		Commodity:  req.Commodity,
		SampleDate: req.SampleDate,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to create sample.")
		return
	}
	c.JSON(http.StatusCreated, sample)
}

func (h *SampleHandler) Fill(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	var req FillSampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sample, err := h.sampleService.Fill(c.Request.Context(), actor.ID, sampleID, service.FillSampleInput{
		Weight:     req.Weight,
		Commodity:  req.Commodity,
		SampleDate: req.SampleDate,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to save sample.")
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (h *SampleHandler) Verify(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	var req VerifySampleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sample, err := h.sampleService.Verify(c.Request.Context(), actor.ID, sampleID, *req.Approve, req.Comment)
	if err != nil {
		respondError(c, h.logger, err, "Failed to verify sample.")
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (h *SampleHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	sample, err := h.sampleService.Get(c.Request.Context(), actor, sampleID)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve sample.")
		return
	}
	c.JSON(http.StatusOK, sample)
}

func (h *SampleHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var q SampleListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	samples, err := h.sampleService.List(c.Request.Context(), actor, repository.SampleFilter{
		Status:   q.Status,
		DateFrom: q.DateFrom,
		DateTo:   q.DateTo,
	})
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve samples.")
		return
	}
	if samples == nil {
		samples = []domain.YieldSample{}
	}
	c.JSON(http.StatusOK, samples)
}

// RequestPhotoUploadURL returns a presigned PUT URL for the sample's photo.
func (h *SampleHandler) RequestPhotoUploadURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	var req PhotoUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	resp, err := h.sampleService.RequestPhotoUploadURL(c.Request.Context(), actor.ID, sampleID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrUploadURL) {
			abortWithError(c, http.StatusInternalServerError, "Could not prepare upload.")
			return
		}
		respondError(c, h.logger, err, "Could not prepare upload.")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPhotoUpload records a finished upload and links it to the sample.
func (h *SampleHandler) ConfirmPhotoUpload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	var req ConfirmPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	sample, err := h.sampleService.ConfirmPhotoUpload(c.Request.Context(), actor.ID, sampleID,
		req.ObjectKey, req.FileName, req.Size, req.ContentType)
	if err != nil {
		respondError(c, h.logger, err, "Failed to record upload.")
		return
	}
	c.JSON(http.StatusOK, sample)
}

// PhotoDownloadURL returns a short-lived GET URL for the sample's photo.
func (h *SampleHandler) PhotoDownloadURL(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	sampleID, ok := objectIDParam(c, "sampleId")
	if !ok {
		return
	}
	url, err := h.sampleService.PhotoDownloadURL(c.Request.Context(), actor, sampleID)
	if err != nil {
		respondError(c, h.logger, err, "Could not prepare download.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
