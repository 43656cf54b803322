package api

import (
	"fmt"
	"net/http"
	"time"

	"ubinan/monitoring-app/internal/export"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportHandler serves progress views and workbook exports.
type ReportHandler struct {
	progressService service.ProgressService
	exportService   service.ExportService
	sequencer       *progress.Sequencer
	defaultYear     func(time.Time) int
	logger          *zap.Logger
}

func NewReportHandler(
	progressService service.ProgressService,
	exportService service.ExportService,
	defaultYear func(time.Time) int,
	logger *zap.Logger,
) *ReportHandler {
	return &ReportHandler{
		progressService: progressService,
		exportService:   exportService,
		sequencer:       progress.NewSequencer(),
		defaultYear:     defaultYear,
		logger:          logger,
	}
}

// ReportQuery binds ?year=&subround=. An absent year means the configured
// default year; year=0 covers every year.
type ReportQuery struct {
	Year     *int `form:"year" binding:"omitempty,min=0"`
	Subround int  `form:"subround"`
}

func (h *ReportHandler) query(c *gin.Context) (progress.Query, bool) {
	var rq ReportQuery
	if err := c.ShouldBindQuery(&rq); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return progress.Query{}, false
	}
	q := progress.Query{Subround: rq.Subround}
	if rq.Year != nil {
		q.Year = *rq.Year
	} else {
		q.Year = h.defaultYear(time.Now())
	}
	return q, true
}

// Progress returns the caller's dashboard. When a newer request from the
// same caller for the same window has already answered, this response is
// dropped with 409.
func (h *ReportHandler) Progress(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}

	ticket := h.sequencer.Begin(progressViewKey(actor, q))
	dashboard, err := h.progressService.Dashboard(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, h.logger, err, "Failed to compute progress.")
		return
	}
	if !ticket.Commit() {
		abortWithError(c, http.StatusConflict, "superseded by a newer request")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// progressViewKey identifies one caller's view of one reporting window.
func progressViewKey(actor service.Actor, q progress.Query) string {
	return fmt.Sprintf("%s/progress/%d/%d", actor.ID.Hex(), q.Year, q.Subround)
}

// Targets returns the caller's per-subround targets.
func (h *ReportHandler) Targets(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	targets, err := h.progressService.Targets(c.Request.Context(), actor)
	if err != nil {
		respondError(c, h.logger, err, "Failed to retrieve targets.")
		return
	}
	c.JSON(http.StatusOK, targets)
}

// Download streams the report workbook as an attachment.
func (h *ReportHandler) Download(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}

	report, err := h.exportService.BuildReport(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, h.logger, err, "Failed to build report.")
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, service.ReportFileName(report.Query)))
	c.Header("Content-Type", export.ContentType)
	c.Status(http.StatusOK)
	if err := export.WriteWorkbook(c.Writer, *report); err != nil {
		// Headers are already out; all we can do is log.
		h.logger.Error("write workbook", zap.Error(err))
		_ = c.Error(err)
	}
}

// Publish stores the workbook in object storage and returns a temporary link.
func (h *ReportHandler) Publish(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	q, ok := h.query(c)
	if !ok {
		return
	}
	published, err := h.exportService.Publish(c.Request.Context(), actor, q)
	if err != nil {
		respondError(c, h.logger, err, "Failed to publish report.")
		return
	}
	c.JSON(http.StatusCreated, published)
}
