package service

import (
	"context"
	"fmt"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/progress"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Dashboard is the progress view of one actor for one reporting window.
type Dashboard struct {
	Query     progress.Query       `json:"query"`
	Targets   progress.Targets     `json:"targets"`
	Total     progress.Aggregate   `json:"total"`
	Subrounds []progress.Aggregate `json:"subrounds"`
	Months    []progress.MonthRow  `json:"months"`
}

type ProgressService interface {
	// Targets sums the quotas of the units visible to actor per subround.
	Targets(ctx context.Context, actor Actor) (progress.Targets, error)
	// Samples returns the samples visible to actor in year (0 for all years).
	Samples(ctx context.Context, actor Actor, year int) ([]domain.YieldSample, error)
	Dashboard(ctx context.Context, actor Actor, q progress.Query) (*Dashboard, error)
}

type progressService struct {
	nksRepo        repository.NksRepository
	segmenRepo     repository.SegmenRepository
	assignmentRepo repository.AssignmentRepository
	sampleRepo     repository.SampleRepository
	logger         *zap.Logger
}

func NewProgressService(
	nksRepo repository.NksRepository,
	segmenRepo repository.SegmenRepository,
	assignmentRepo repository.AssignmentRepository,
	sampleRepo repository.SampleRepository,
	logger *zap.Logger,
) ProgressService {
	return &progressService{
		nksRepo:        nksRepo,
		segmenRepo:     segmenRepo,
		assignmentRepo: assignmentRepo,
		sampleRepo:     sampleRepo,
		logger:         logger,
	}
}

func (s *progressService) Targets(ctx context.Context, actor Actor) (progress.Targets, error) {
	var targets progress.Targets

	nksFilter, segmenFilter, err := s.unitScope(ctx, actor)
	if err != nil {
		return targets, err
	}
	nks, segmen, err := fetchCatalogsSplit(ctx, s.nksRepo, s.segmenRepo, nksFilter, segmenFilter)
	if err != nil {
		return targets, err
	}
	for i := range nks {
		targets.Add(&nks[i])
	}
	for i := range segmen {
		targets.Add(&segmen[i])
	}
	return targets, nil
}

func (s *progressService) Samples(ctx context.Context, actor Actor, year int) ([]domain.YieldSample, error) {
	var filter repository.SampleFilter
	switch actor.Role {
	case domain.RoleOfficer:
		filter.OfficerID = &actor.ID
	case domain.RoleSupervisor:
		filter.SupervisorID = &actor.ID
	}
	if year > 0 {
		filter.DateFrom = fmt.Sprintf("%04d-01-01", year)
		filter.DateTo = fmt.Sprintf("%04d-12-31", year)
	}
	samples, err := s.sampleRepo.List(ctx, filter)
	if err != nil {
		return nil, dataErr("list samples", err)
	}
	return samples, nil
}

func (s *progressService) Dashboard(ctx context.Context, actor Actor, q progress.Query) (*Dashboard, error) {
	if !actor.Role.Can(domain.CapViewProgress) {
		return nil, ErrAccessDenied
	}
	targets, err := s.Targets(ctx, actor)
	if err != nil {
		return nil, err
	}
	samples, err := s.Samples(ctx, actor, q.Year)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		Targets:   targets,
		Total:     progress.Compute(samples, targets, q),
		Subrounds: progress.BySubround(samples, targets, q.Year),
		Months:    progress.Monthly(samples, targets, q),
	}
	d.Query = d.Total.Query
	if d.Total.Skipped > 0 {
		s.logger.Warn("samples with unparseable dates left out of progress",
			zap.String("actorId", actor.ID.Hex()),
			zap.Int("skipped", d.Total.Skipped))
	}
	return d, nil
}

// unitScope limits the catalogs to the units allocated to an officer or
// supervisor. Other roles see every unit.
func (s *progressService) unitScope(ctx context.Context, actor Actor) (nks, segmen repository.UnitFilter, err error) {
	var assignments []domain.Assignment
	switch actor.Role {
	case domain.RoleOfficer:
		assignments, err = s.assignmentRepo.GetByOfficerID(ctx, actor.ID)
	case domain.RoleSupervisor:
		assignments, err = s.assignmentRepo.GetBySupervisorID(ctx, actor.ID)
	default:
		return nks, segmen, nil
	}
	if err != nil {
		return nks, segmen, dataErr("list assignments", err)
	}

	// Non-nil so an actor without allocations matches nothing.
	nks.IDs = []primitive.ObjectID{}
	segmen.IDs = []primitive.ObjectID{}
	for _, a := range assignments {
		if a.UnitKind == domain.UnitSegmen {
			segmen.IDs = append(segmen.IDs, a.UnitID)
		} else {
			nks.IDs = append(nks.IDs, a.UnitID)
		}
	}
	return nks, segmen, nil
}
