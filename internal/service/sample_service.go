package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"
	"ubinan/monitoring-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var (
	ErrUploadURL        = errors.New("failed to generate upload URL")
	ErrDownloadURL      = errors.New("failed to generate download URL")
	ErrPhotoMissing     = errors.New("sample has no photo")
	ErrObjectKeyInvalid = errors.New("object key does not belong to this sample")
)

// CreateSampleInput opens a sample for a unit allocated to the officer.
type CreateSampleInput struct {
	UnitID     primitive.ObjectID
	Commodity  string
	SampleDate string
}

// FillSampleInput records a measurement. Empty Commodity/SampleDate keep the
// current values.
type FillSampleInput struct {
	Weight     float64
	Commodity  string
	SampleDate string
}

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // Reported back on confirm
}

type SampleService interface {
	Create(ctx context.Context, officerID primitive.ObjectID, in CreateSampleInput) (*domain.YieldSample, error)
	Fill(ctx context.Context, officerID, sampleID primitive.ObjectID, in FillSampleInput) (*domain.YieldSample, error)
	Verify(ctx context.Context, supervisorID, sampleID primitive.ObjectID, approve bool, comment string) (*domain.YieldSample, error)
	Get(ctx context.Context, actor Actor, sampleID primitive.ObjectID) (*domain.YieldSample, error)
	List(ctx context.Context, actor Actor, filter repository.SampleFilter) ([]domain.YieldSample, error)

	RequestPhotoUploadURL(ctx context.Context, officerID, sampleID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
	ConfirmPhotoUpload(ctx context.Context, officerID, sampleID primitive.ObjectID, objectKey, fileName string, size int64, contentType string) (*domain.YieldSample, error)
	PhotoDownloadURL(ctx context.Context, actor Actor, sampleID primitive.ObjectID) (string, error)
}

type sampleService struct {
	sampleRepo     repository.SampleRepository
	assignmentRepo repository.AssignmentRepository
	uploadRepo     repository.UploadRepository
	fileStorage    storage.FileStorage
	logger         *zap.Logger
}

func NewSampleService(
	sampleRepo repository.SampleRepository,
	assignmentRepo repository.AssignmentRepository,
	uploadRepo repository.UploadRepository,
	fileStorage storage.FileStorage,
	logger *zap.Logger,
) SampleService {
	return &sampleService{
		sampleRepo:     sampleRepo,
		assignmentRepo: assignmentRepo,
		uploadRepo:     uploadRepo,
		fileStorage:    fileStorage,
		logger:         logger,
	}
}

func (s *sampleService) Create(ctx context.Context, officerID primitive.ObjectID, in CreateSampleInput) (*domain.YieldSample, error) {
	commodity, err := parseCommodity(in.Commodity)
	if err != nil {
		return nil, err
	}
	if err := checkDate(in.SampleDate); err != nil {
		return nil, err
	}

	assignment, err := s.assignmentRepo.GetByUnitID(ctx, in.UnitID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid("unitId", ErrUnitNotFound)
		}
		return nil, dataErr("lookup assignment", err)
	}
	if assignment.OfficerID != officerID {
		return nil, ErrAccessDenied
	}
	// Segments only carry a rice target.
	if assignment.UnitKind == domain.UnitSegmen && commodity != domain.CommodityPadi {
		return nil, invalid("commodity", errors.New("segmen units only sample padi"))
	}

	sample := &domain.YieldSample{
		Commodity:    commodity,
		SampleDate:   strings.TrimSpace(in.SampleDate),
		Status:       domain.StatusUnfilled,
		OfficerID:    officerID,
		SupervisorID: assignment.SupervisorID,
	}
	unitID := assignment.UnitID
	if assignment.UnitKind == domain.UnitSegmen {
		sample.SegmenID = &unitID
	} else {
		sample.NksID = &unitID
	}

	id, err := s.sampleRepo.Create(ctx, sample)
	if err != nil {
		return nil, dataErr("create sample", err)
	}
	sample.ID = id
	return sample, nil
}

func (s *sampleService) Fill(ctx context.Context, officerID, sampleID primitive.ObjectID, in FillSampleInput) (*domain.YieldSample, error) {
	if in.Weight <= 0 {
		return nil, invalid("weight", ErrNonPositiveWeight)
	}

	sample, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if sample.OfficerID != officerID {
		return nil, ErrAccessDenied
	}
	if !domain.CanTransition(sample.Status, domain.StatusFilled) {
		return nil, invalid("status", ErrInvalidTransition)
	}

	if in.Commodity != "" {
		commodity, err := parseCommodity(in.Commodity)
		if err != nil {
			return nil, err
		}
		if sample.SegmenID != nil && commodity != domain.CommodityPadi {
			return nil, invalid("commodity", errors.New("segmen units only sample padi"))
		}
		sample.Commodity = commodity
	}
	if in.SampleDate != "" {
		if err := checkDate(in.SampleDate); err != nil {
			return nil, err
		}
		sample.SampleDate = strings.TrimSpace(in.SampleDate)
	}
	sample.Weight = in.Weight
	sample.Status = domain.StatusFilled

	if err := s.sampleRepo.Update(ctx, sample); err != nil {
		return nil, dataErr("update sample", err)
	}
	return sample, nil
}

// Verify confirms or rejects a filled sample. Rejections need a comment so
// the officer knows what to fix.
func (s *sampleService) Verify(ctx context.Context, supervisorID, sampleID primitive.ObjectID, approve bool, comment string) (*domain.YieldSample, error) {
	comment = strings.TrimSpace(comment)
	next := domain.StatusConfirmed
	if !approve {
		next = domain.StatusRejected
		if comment == "" {
			return nil, invalid("comment", errors.New("a reason is required when rejecting"))
		}
	}

	sample, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if sample.SupervisorID != supervisorID {
		return nil, ErrAccessDenied
	}
	if sample.Status != domain.StatusFilled || !domain.CanTransition(sample.Status, next) {
		return nil, invalid("status", ErrInvalidTransition)
	}

	sample.Status = next
	sample.Comment = comment
	if err := s.sampleRepo.Update(ctx, sample); err != nil {
		return nil, dataErr("update sample", err)
	}
	s.logger.Info("sample verified",
		zap.String("sampleId", sampleID.Hex()),
		zap.String("status", string(next)),
		zap.String("supervisorId", supervisorID.Hex()))
	return sample, nil
}

func (s *sampleService) Get(ctx context.Context, actor Actor, sampleID primitive.ObjectID) (*domain.YieldSample, error) {
	sample, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, sample) {
		return nil, ErrAccessDenied
	}
	return sample, nil
}

// List scopes the filter to what the actor may see: officers their own
// samples, supervisors the samples they verify.
func (s *sampleService) List(ctx context.Context, actor Actor, filter repository.SampleFilter) ([]domain.YieldSample, error) {
	switch actor.Role {
	case domain.RoleOfficer:
		filter.OfficerID = &actor.ID
	case domain.RoleSupervisor:
		filter.SupervisorID = &actor.ID
	}
	samples, err := s.sampleRepo.List(ctx, filter)
	if err != nil {
		return nil, dataErr("list samples", err)
	}
	return samples, nil
}

func (s *sampleService) RequestPhotoUploadURL(ctx context.Context, officerID, sampleID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, invalid("contentType", errors.New("an image content type is required"))
	}
	sample, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if sample.OfficerID != officerID {
		return nil, ErrAccessDenied
	}
	if sample.Status == domain.StatusConfirmed {
		return nil, invalid("status", ErrInvalidTransition)
	}

	ext := strings.TrimPrefix(strings.ToLower(contentType), "image/")
	objectKey := path.Join(photoPrefix(sampleID), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	url, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Error("presign photo upload", zap.String("sampleId", sampleID.Hex()), zap.Error(err))
		return nil, ErrUploadURL
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: objectKey}, nil
}

func (s *sampleService) ConfirmPhotoUpload(ctx context.Context, officerID, sampleID primitive.ObjectID, objectKey, fileName string, size int64, contentType string) (*domain.YieldSample, error) {
	if !strings.HasPrefix(objectKey, photoPrefix(sampleID)+"/") {
		return nil, invalid("objectKey", ErrObjectKeyInvalid)
	}
	sample, err := s.load(ctx, sampleID)
	if err != nil {
		return nil, err
	}
	if sample.OfficerID != officerID {
		return nil, ErrAccessDenied
	}
	if sample.Status == domain.StatusConfirmed {
		return nil, invalid("status", ErrInvalidTransition)
	}

	upload := &domain.Upload{
		SampleID:    sampleID,
		OfficerID:   officerID,
		ObjectKey:   objectKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	}
	uploadID, err := s.uploadRepo.Create(ctx, upload)
	if err != nil {
		return nil, dataErr("create upload", err)
	}

	sample.PhotoID = &uploadID
	if err := s.sampleRepo.Update(ctx, sample); err != nil {
		return nil, dataErr("update sample", err)
	}
	return sample, nil
}

func (s *sampleService) PhotoDownloadURL(ctx context.Context, actor Actor, sampleID primitive.ObjectID) (string, error) {
	sample, err := s.Get(ctx, actor, sampleID)
	if err != nil {
		return "", err
	}
	if sample.PhotoID == nil {
		return "", ErrPhotoMissing
	}
	upload, err := s.uploadRepo.GetByID(ctx, *sample.PhotoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPhotoMissing
		}
		return "", dataErr("lookup upload", err)
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, upload.ObjectKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrDownloadURL
	}
	return url, nil
}

func (s *sampleService) load(ctx context.Context, id primitive.ObjectID) (*domain.YieldSample, error) {
	sample, err := s.sampleRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSampleNotFound
		}
		return nil, dataErr("lookup sample", err)
	}
	return sample, nil
}

func canSee(actor Actor, sample *domain.YieldSample) bool {
	switch actor.Role {
	case domain.RoleOfficer:
		return sample.OfficerID == actor.ID
	case domain.RoleSupervisor:
		return sample.SupervisorID == actor.ID
	}
	return actor.Role.Can(domain.CapViewSamples)
}

func photoPrefix(sampleID primitive.ObjectID) string {
	return path.Join("samples", sampleID.Hex())
}

func parseCommodity(raw string) (domain.Commodity, error) {
	c := domain.NormalizeCommodity(raw)
	if !c.Valid() {
		return "", invalid("commodity", ErrUnknownCommodity)
	}
	return c, nil
}

func checkDate(raw string) error {
	if _, err := time.Parse(domain.SampleDateLayout, strings.TrimSpace(raw)); err != nil {
		return invalid("sampleDate", ErrInvalidDate)
	}
	return nil
}
