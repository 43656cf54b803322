package repository

import (
	"context"

	"ubinan/monitoring-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound  = RepositoryError("not found")
	ErrDuplicate = RepositoryError("duplicate key")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	SetSupervisor(ctx context.Context, officerID, supervisorID primitive.ObjectID) error
	GetOfficersBySupervisor(ctx context.Context, supervisorID primitive.ObjectID) ([]domain.User, error)
}

// RegionRepository stores districts and villages.
type RegionRepository interface {
	CreateDistrict(ctx context.Context, d *domain.District) (primitive.ObjectID, error)
	ListDistricts(ctx context.Context) ([]domain.District, error)
	CreateVillage(ctx context.Context, v *domain.Village) (primitive.ObjectID, error)
	GetVillage(ctx context.Context, id primitive.ObjectID) (*domain.Village, error)
	ListVillages(ctx context.Context, districtID *primitive.ObjectID) ([]domain.Village, error)
}

// UnitFilter narrows catalog reads. Nil fields match everything.
type UnitFilter struct {
	VillageID *primitive.ObjectID
	IDs       []primitive.ObjectID
}

// NksRepository reads and writes the NKS catalog. List joins village,
// district and assignments.
type NksRepository interface {
	Create(ctx context.Context, unit *domain.NksUnit) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.NksUnit, error)
	List(ctx context.Context, filter UnitFilter) ([]domain.NksUnit, error)
	UpdateTarget(ctx context.Context, id primitive.ObjectID, target domain.Target) error
}

// SegmenRepository reads and writes the Segmen catalog. List joins village,
// district and assignments.
type SegmenRepository interface {
	Create(ctx context.Context, unit *domain.SegmenUnit) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.SegmenUnit, error)
	List(ctx context.Context, filter UnitFilter) ([]domain.SegmenUnit, error)
	UpdateTarget(ctx context.Context, id primitive.ObjectID, padiTarget int) error
}

// AssignmentRepository defines the interface for interacting with assignment data.
type AssignmentRepository interface {
	// Create returns ErrDuplicate when the unit already has an assignment.
	Create(ctx context.Context, assignment *domain.Assignment) (primitive.ObjectID, error)
	GetByUnitID(ctx context.Context, unitID primitive.ObjectID) (*domain.Assignment, error)
	GetByOfficerID(ctx context.Context, officerID primitive.ObjectID) ([]domain.Assignment, error)
	GetBySupervisorID(ctx context.Context, supervisorID primitive.ObjectID) ([]domain.Assignment, error)
	// Delete removes the assignment of unitID held by officerID and reports
	// whether one existed.
	Delete(ctx context.Context, unitID, officerID primitive.ObjectID) (bool, error)
}

// SampleFilter narrows sample reads. Dates are inclusive YYYY-MM-DD strings.
type SampleFilter struct {
	OfficerID    *primitive.ObjectID
	SupervisorID *primitive.ObjectID
	Status       domain.SampleStatus
	DateFrom     string
	DateTo       string
}

// SampleRepository defines the interface for interacting with yield samples.
type SampleRepository interface {
	Create(ctx context.Context, sample *domain.YieldSample) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.YieldSample, error)
	List(ctx context.Context, filter SampleFilter) ([]domain.YieldSample, error)
	Update(ctx context.Context, sample *domain.YieldSample) error
}

// UploadRepository defines the interface for interacting with upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload *domain.Upload) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Upload, error)
	GetBySampleID(ctx context.Context, sampleID primitive.ObjectID) (*domain.Upload, error)
}
