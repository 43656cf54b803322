package service

import (
	"context"
	"errors"
	"strings"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

// CatalogService manages districts, villages and the two unit catalogs.
type CatalogService interface {
	CreateDistrict(ctx context.Context, code, name string) (*domain.District, error)
	ListDistricts(ctx context.Context) ([]domain.District, error)
	CreateVillage(ctx context.Context, districtID primitive.ObjectID, code, name string) (*domain.Village, error)
	ListVillages(ctx context.Context, districtID *primitive.ObjectID) ([]domain.Village, error)

	CreateNks(ctx context.Context, villageID primitive.ObjectID, code string, subround int, target domain.Target) (*domain.NksUnit, error)
	CreateSegmen(ctx context.Context, villageID primitive.ObjectID, code string, targetMonth, padiTarget int) (*domain.SegmenUnit, error)
	ListUnits(ctx context.Context, villageID *primitive.ObjectID) ([]domain.NksUnit, []domain.SegmenUnit, error)
	// UpdateTarget changes a unit's quota. Segmen units ignore target.Palawija.
	UpdateTarget(ctx context.Context, kind domain.UnitKind, unitID primitive.ObjectID, target domain.Target) error
}

type catalogService struct {
	regionRepo repository.RegionRepository
	nksRepo    repository.NksRepository
	segmenRepo repository.SegmenRepository
}

func NewCatalogService(regionRepo repository.RegionRepository, nksRepo repository.NksRepository, segmenRepo repository.SegmenRepository) CatalogService {
	return &catalogService{regionRepo: regionRepo, nksRepo: nksRepo, segmenRepo: segmenRepo}
}

func (s *catalogService) CreateDistrict(ctx context.Context, code, name string) (*domain.District, error) {
	if code == "" || name == "" {
		return nil, invalid("code", errors.New("code and name are required"))
	}
	d := &domain.District{Code: code, Name: name}
	if _, err := s.regionRepo.CreateDistrict(ctx, d); err != nil {
		return nil, duplicateOr(err, "code", "create district")
	}
	return d, nil
}

func (s *catalogService) ListDistricts(ctx context.Context) ([]domain.District, error) {
	districts, err := s.regionRepo.ListDistricts(ctx)
	return districts, dataErr("list districts", err)
}

func (s *catalogService) CreateVillage(ctx context.Context, districtID primitive.ObjectID, code, name string) (*domain.Village, error) {
	if code == "" || name == "" || districtID == primitive.NilObjectID {
		return nil, invalid("code", errors.New("districtId, code and name are required"))
	}
	v := &domain.Village{DistrictID: districtID, Code: code, Name: name}
	if _, err := s.regionRepo.CreateVillage(ctx, v); err != nil {
		return nil, duplicateOr(err, "code", "create village")
	}
	return v, nil
}

func (s *catalogService) ListVillages(ctx context.Context, districtID *primitive.ObjectID) ([]domain.Village, error) {
	villages, err := s.regionRepo.ListVillages(ctx, districtID)
	return villages, dataErr("list villages", err)
}

func (s *catalogService) CreateNks(ctx context.Context, villageID primitive.ObjectID, code string, subround int, target domain.Target) (*domain.NksUnit, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalid("code", errors.New("code is required"))
	}
	if subround < 1 || subround > 3 {
		return nil, invalid("subround", errors.New("subround must be 1, 2 or 3"))
	}
	if err := validTarget(target); err != nil {
		return nil, err
	}
	if err := s.checkVillage(ctx, villageID); err != nil {
		return nil, err
	}
	unit := &domain.NksUnit{Code: code, VillageID: villageID, Subround: subround, Target: target}
	if _, err := s.nksRepo.Create(ctx, unit); err != nil {
		return nil, duplicateOr(err, "code", "create nks unit")
	}
	return unit, nil
}

func (s *catalogService) CreateSegmen(ctx context.Context, villageID primitive.ObjectID, code string, targetMonth, padiTarget int) (*domain.SegmenUnit, error) {
	if strings.TrimSpace(code) == "" {
		return nil, invalid("code", errors.New("code is required"))
	}
	if targetMonth < 1 || targetMonth > 12 {
		return nil, invalid("targetMonth", errors.New("target month must be between 1 and 12"))
	}
	if err := validTarget(domain.Target{Padi: padiTarget}); err != nil {
		return nil, err
	}
	if err := s.checkVillage(ctx, villageID); err != nil {
		return nil, err
	}
	unit := &domain.SegmenUnit{Code: code, VillageID: villageID, TargetMonth: targetMonth, PadiTarget: padiTarget}
	if _, err := s.segmenRepo.Create(ctx, unit); err != nil {
		return nil, duplicateOr(err, "code", "create segmen unit")
	}
	return unit, nil
}

func (s *catalogService) ListUnits(ctx context.Context, villageID *primitive.ObjectID) ([]domain.NksUnit, []domain.SegmenUnit, error) {
	return fetchCatalogs(ctx, s.nksRepo, s.segmenRepo, repository.UnitFilter{VillageID: villageID})
}

func (s *catalogService) UpdateTarget(ctx context.Context, kind domain.UnitKind, unitID primitive.ObjectID, target domain.Target) error {
	if err := validTarget(target); err != nil {
		return err
	}
	var err error
	switch kind {
	case domain.UnitNks:
		err = s.nksRepo.UpdateTarget(ctx, unitID, target)
	case domain.UnitSegmen:
		err = s.segmenRepo.UpdateTarget(ctx, unitID, target.Padi)
	default:
		return invalid("type", errors.New("type must be nks or segmen"))
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnitNotFound
	}
	return dataErr("update target", err)
}

func (s *catalogService) checkVillage(ctx context.Context, villageID primitive.ObjectID) error {
	if _, err := s.regionRepo.GetVillage(ctx, villageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return invalid("villageId", errors.New("village not found"))
		}
		return dataErr("lookup village", err)
	}
	return nil
}

func validTarget(t domain.Target) error {
	if t.Padi < 0 || t.Palawija < 0 {
		return invalid("target", errors.New("targets cannot be negative"))
	}
	return nil
}

func duplicateOr(err error, field, op string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return invalid(field, errors.New("already exists"))
	}
	return dataErr(op, err)
}

// fetchCatalogs reads both unit catalogs concurrently.
func fetchCatalogs(ctx context.Context, nksRepo repository.NksRepository, segmenRepo repository.SegmenRepository, filter repository.UnitFilter) ([]domain.NksUnit, []domain.SegmenUnit, error) {
	return fetchCatalogsSplit(ctx, nksRepo, segmenRepo, filter, filter)
}

func fetchCatalogsSplit(ctx context.Context, nksRepo repository.NksRepository, segmenRepo repository.SegmenRepository, nksFilter, segmenFilter repository.UnitFilter) ([]domain.NksUnit, []domain.SegmenUnit, error) {
	var (
		nks    []domain.NksUnit
		segmen []domain.SegmenUnit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nks, err = nksRepo.List(gctx, nksFilter)
		return dataErr("list nks units", err)
	})
	g.Go(func() error {
		var err error
		segmen, err = segmenRepo.List(gctx, segmenFilter)
		return dataErr("list segmen units", err)
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return nks, segmen, nil
}
