package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/export"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrPublishFailed = errors.New("failed to publish report")

// PublishedReport is a workbook stored in object storage and a temporary
// link to it.
type PublishedReport struct {
	ObjectKey string    `json:"-"`
	FileName  string    `json:"fileName"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type ExportService interface {
	BuildReport(ctx context.Context, actor Actor, q progress.Query) (*export.Report, error)
	// Write renders the actor's report for q as an .xlsx workbook into w.
	Write(ctx context.Context, actor Actor, q progress.Query, w io.Writer) error
	Publish(ctx context.Context, actor Actor, q progress.Query) (*PublishedReport, error)
}

type ExportOptions struct {
	Prefix     string
	LinkExpiry time.Duration
}

type exportService struct {
	progress    ProgressService
	allocation  AllocationService
	roster      RosterService
	fileStorage storage.FileStorage
	opts        ExportOptions
	now         func() time.Time
	logger      *zap.Logger
}

func NewExportService(
	progressSvc ProgressService,
	allocationSvc AllocationService,
	rosterSvc RosterService,
	fileStorage storage.FileStorage,
	opts ExportOptions,
	logger *zap.Logger,
) ExportService {
	if opts.LinkExpiry <= 0 {
		opts.LinkExpiry = storage.DefaultPresignedURLExpiry
	}
	return &exportService{
		progress:    progressSvc,
		allocation:  allocationSvc,
		roster:      rosterSvc,
		fileStorage: fileStorage,
		opts:        opts,
		now:         time.Now,
		logger:      logger,
	}
}

func (s *exportService) BuildReport(ctx context.Context, actor Actor, q progress.Query) (*export.Report, error) {
	if !actor.Role.Can(domain.CapExportReports) {
		return nil, ErrAccessDenied
	}
	dash, err := s.progress.Dashboard(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	view, err := s.allocation.Status(ctx, progress.AllocationFilter{})
	if err != nil {
		return nil, err
	}
	names, err := s.roster.DisplayNames(ctx)
	if err != nil {
		return nil, err
	}

	return &export.Report{
		Title:       reportTitle(dash.Query),
		GeneratedAt: s.now(),
		Query:       dash.Query,
		Total:       dash.Total,
		Subrounds:   dash.Subrounds,
		Months:      dash.Months,
		Allocation:  view.Rows,
		Summary:     view.Summary,
		Names:       names,
	}, nil
}

func (s *exportService) Write(ctx context.Context, actor Actor, q progress.Query, w io.Writer) error {
	report, err := s.BuildReport(ctx, actor, q)
	if err != nil {
		return err
	}
	return export.WriteWorkbook(w, *report)
}

func (s *exportService) Publish(ctx context.Context, actor Actor, q progress.Query) (*PublishedReport, error) {
	report, err := s.BuildReport(ctx, actor, q)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, *report); err != nil {
		return nil, err
	}

	fileName := ReportFileName(report.Query)
	objectKey := path.Join(s.opts.Prefix, uuid.NewString(), fileName)
	if err := s.fileStorage.PutObject(ctx, objectKey, export.ContentType, &buf); err != nil {
		s.logger.Error("upload report", zap.String("key", objectKey), zap.Error(err))
		return nil, ErrPublishFailed
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, s.opts.LinkExpiry)
	if err != nil {
		s.logger.Error("presign report", zap.String("key", objectKey), zap.Error(err))
		return nil, ErrDownloadURL
	}

	s.logger.Info("report published",
		zap.String("key", objectKey),
		zap.String("actorId", actor.ID.Hex()))
	return &PublishedReport{
		ObjectKey: objectKey,
		FileName:  fileName,
		URL:       url,
		ExpiresAt: s.now().Add(s.opts.LinkExpiry),
	}, nil
}

// ReportFileName names the workbook of window q, e.g. ubinan-2024-sr2.xlsx.
func ReportFileName(q progress.Query) string {
	name := "ubinan"
	if q.Year > 0 {
		name += fmt.Sprintf("-%d", q.Year)
	}
	if progress.ValidSubround(q.Subround) {
		name += fmt.Sprintf("-sr%d", q.Subround)
	}
	return name + ".xlsx"
}

func reportTitle(q progress.Query) string {
	title := "Laporan Progres Ubinan"
	if q.Year > 0 {
		title += fmt.Sprintf(" %d", q.Year)
	}
	if progress.ValidSubround(q.Subround) {
		title += fmt.Sprintf(" Subround %d", q.Subround)
	}
	return title
}
