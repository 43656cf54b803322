package service

import (
	"context"
	"errors"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RosterService manages officers, supervisors and the link between them.
type RosterService interface {
	ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error)
	LinkOfficer(ctx context.Context, officerID, supervisorID primitive.ObjectID) (*domain.User, error)
	GetOfficers(ctx context.Context, supervisorID primitive.ObjectID) ([]domain.User, error)
	// DisplayNames maps hex ids of every officer and supervisor to their names.
	DisplayNames(ctx context.Context) (map[string]string, error)
}

type rosterService struct {
	userRepo repository.UserRepository
	logger   *zap.Logger
}

func NewRosterService(userRepo repository.UserRepository, logger *zap.Logger) RosterService {
	return &rosterService{userRepo: userRepo, logger: logger}
}

func (s *rosterService) ListUsers(ctx context.Context, role domain.Role) ([]domain.User, error) {
	if !role.Valid() {
		return nil, invalid("role", ErrWrongRole)
	}
	users, err := s.userRepo.ListByRole(ctx, role)
	if err != nil {
		return nil, dataErr("list users", err)
	}
	return scrub(users), nil
}

// LinkOfficer makes supervisorID the verifying supervisor of officerID.
func (s *rosterService) LinkOfficer(ctx context.Context, officerID, supervisorID primitive.ObjectID) (*domain.User, error) {
	officer, err := s.userWithRole(ctx, officerID, domain.RoleOfficer, "officerId")
	if err != nil {
		return nil, err
	}
	if _, err := s.userWithRole(ctx, supervisorID, domain.RoleSupervisor, "supervisorId"); err != nil {
		return nil, err
	}

	if err := s.userRepo.SetSupervisor(ctx, officerID, supervisorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, dataErr("link officer", err)
	}
	s.logger.Info("officer linked to supervisor",
		zap.String("officerId", officerID.Hex()),
		zap.String("supervisorId", supervisorID.Hex()))

	officer.SupervisorID = &supervisorID
	officer.PasswordHash = ""
	return officer, nil
}

func (s *rosterService) GetOfficers(ctx context.Context, supervisorID primitive.ObjectID) ([]domain.User, error) {
	officers, err := s.userRepo.GetOfficersBySupervisor(ctx, supervisorID)
	if err != nil {
		return nil, dataErr("list officers", err)
	}
	return scrub(officers), nil
}

func (s *rosterService) DisplayNames(ctx context.Context) (map[string]string, error) {
	names := make(map[string]string)
	for _, role := range []domain.Role{domain.RoleOfficer, domain.RoleSupervisor} {
		users, err := s.userRepo.ListByRole(ctx, role)
		if err != nil {
			return nil, dataErr("list users", err)
		}
		for _, u := range users {
			names[u.ID.Hex()] = u.Name
		}
	}
	return names, nil
}

// userWithRole loads id and checks its role; field names the request field
// blamed in the ValidationError.
func (s *rosterService) userWithRole(ctx context.Context, id primitive.ObjectID, role domain.Role, field string) (*domain.User, error) {
	return loadUserWithRole(ctx, s.userRepo, id, role, field)
}

func loadUserWithRole(ctx context.Context, repo repository.UserRepository, id primitive.ObjectID, role domain.Role, field string) (*domain.User, error) {
	user, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, invalid(field, ErrUserNotFound)
		}
		return nil, dataErr("lookup user", err)
	}
	if user.Role != role {
		return nil, invalid(field, ErrWrongRole)
	}
	return user, nil
}

func scrub(users []domain.User) []domain.User {
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users
}
