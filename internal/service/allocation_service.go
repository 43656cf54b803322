package service

import (
	"context"
	"errors"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AssignRequest allocates one unit.
type AssignRequest struct {
	UnitID       primitive.ObjectID
	OfficerID    primitive.ObjectID
	SupervisorID primitive.ObjectID
}

// AllocationView is the reconciled allocation status after filtering. The
// summary always covers the unfiltered catalogs.
type AllocationView struct {
	Rows    []progress.AllocationStatusRow `json:"rows"`
	Summary progress.AllocationSummary     `json:"summary"`
}

type AllocationService interface {
	// Assign fails with ErrDuplicateAssignment (inside a ValidationError)
	// when the unit is already allocated; the existing assignment is kept.
	Assign(ctx context.Context, by primitive.ObjectID, req AssignRequest) (*domain.Assignment, error)
	// AssignMany applies requests in order and stops at the first error.
	// Earlier assignments stay in place; applied reports how many.
	AssignMany(ctx context.Context, by primitive.ObjectID, reqs []AssignRequest) (applied int, err error)
	// Unassign removes the unit's assignment held by officerID. A missing
	// assignment is not an error.
	Unassign(ctx context.Context, unitID, officerID primitive.ObjectID) error
	Status(ctx context.Context, filter progress.AllocationFilter) (*AllocationView, error)
}

type allocationService struct {
	userRepo       repository.UserRepository
	nksRepo        repository.NksRepository
	segmenRepo     repository.SegmenRepository
	assignmentRepo repository.AssignmentRepository
	reconciler     *progress.Reconciler
	logger         *zap.Logger
}

func NewAllocationService(
	userRepo repository.UserRepository,
	nksRepo repository.NksRepository,
	segmenRepo repository.SegmenRepository,
	assignmentRepo repository.AssignmentRepository,
	logger *zap.Logger,
) AllocationService {
	return &allocationService{
		userRepo:       userRepo,
		nksRepo:        nksRepo,
		segmenRepo:     segmenRepo,
		assignmentRepo: assignmentRepo,
		reconciler:     progress.NewReconciler(logger),
		logger:         logger,
	}
}

func (s *allocationService) Assign(ctx context.Context, by primitive.ObjectID, req AssignRequest) (*domain.Assignment, error) {
	if req.UnitID == primitive.NilObjectID || req.OfficerID == primitive.NilObjectID || req.SupervisorID == primitive.NilObjectID {
		return nil, invalid("", errors.New("unitId, officerId and supervisorId are required"))
	}

	kind, err := s.unitKind(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}
	if _, err := loadUserWithRole(ctx, s.userRepo, req.OfficerID, domain.RoleOfficer, "officerId"); err != nil {
		return nil, err
	}
	if _, err := loadUserWithRole(ctx, s.userRepo, req.SupervisorID, domain.RoleSupervisor, "supervisorId"); err != nil {
		return nil, err
	}

	existing, err := s.assignmentRepo.GetByUnitID(ctx, req.UnitID)
	if err == nil && existing != nil {
		return nil, invalid("unitId", ErrDuplicateAssignment)
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, dataErr("lookup assignment", err)
	}

	assignment := &domain.Assignment{
		UnitID:       req.UnitID,
		UnitKind:     kind,
		OfficerID:    req.OfficerID,
		SupervisorID: req.SupervisorID,
		AssignedBy:   by,
	}
	id, err := s.assignmentRepo.Create(ctx, assignment)
	if err != nil {
		// The unique index caught a concurrent allocation of the same unit.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("unitId", ErrDuplicateAssignment)
		}
		return nil, dataErr("create assignment", err)
	}
	assignment.ID = id

	s.logger.Info("unit allocated",
		zap.String("unitId", req.UnitID.Hex()),
		zap.String("kind", string(kind)),
		zap.String("officerId", req.OfficerID.Hex()),
		zap.String("supervisorId", req.SupervisorID.Hex()))
	return assignment, nil
}

func (s *allocationService) AssignMany(ctx context.Context, by primitive.ObjectID, reqs []AssignRequest) (int, error) {
	for i, req := range reqs {
		if _, err := s.Assign(ctx, by, req); err != nil {
			s.logger.Warn("batch allocation stopped",
				zap.Int("applied", i),
				zap.Int("requested", len(reqs)),
				zap.Error(err))
			return i, err
		}
	}
	return len(reqs), nil
}

func (s *allocationService) Unassign(ctx context.Context, unitID, officerID primitive.ObjectID) error {
	removed, err := s.assignmentRepo.Delete(ctx, unitID, officerID)
	if err != nil {
		return dataErr("delete assignment", err)
	}
	if removed {
		s.logger.Info("unit unallocated",
			zap.String("unitId", unitID.Hex()),
			zap.String("officerId", officerID.Hex()))
	}
	return nil
}

func (s *allocationService) Status(ctx context.Context, filter progress.AllocationFilter) (*AllocationView, error) {
	nks, segmen, err := fetchCatalogs(ctx, s.nksRepo, s.segmenRepo, repository.UnitFilter{})
	if err != nil {
		return nil, err
	}
	rows := s.reconciler.Reconcile(nks, segmen)
	return &AllocationView{
		Rows:    progress.Filter(rows, filter),
		Summary: progress.Summarize(rows),
	}, nil
}

// unitKind finds which catalog holds unitID.
func (s *allocationService) unitKind(ctx context.Context, unitID primitive.ObjectID) (domain.UnitKind, error) {
	_, err := s.nksRepo.GetByID(ctx, unitID)
	if err == nil {
		return domain.UnitNks, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", dataErr("lookup nks unit", err)
	}
	_, err = s.segmenRepo.GetByID(ctx, unitID)
	if err == nil {
		return domain.UnitSegmen, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", dataErr("lookup segmen unit", err)
	}
	return "", invalid("unitId", ErrUnitNotFound)
}
