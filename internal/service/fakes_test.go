package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// store backs every fake repository so catalog reads can join assignments
// the way the aggregation pipeline does.
type store struct {
	mu          sync.Mutex
	users       map[primitive.ObjectID]domain.User
	districts   []domain.District
	villages    map[primitive.ObjectID]domain.Village
	nks         []domain.NksUnit
	segmen      []domain.SegmenUnit
	assignments []domain.Assignment
	samples     map[primitive.ObjectID]domain.YieldSample
	uploads     map[primitive.ObjectID]domain.Upload

	// listErr, when set, fails every List call.
	listErr error
}

func newStore() *store {
	return &store{
		users:    map[primitive.ObjectID]domain.User{},
		villages: map[primitive.ObjectID]domain.Village{},
		samples:  map[primitive.ObjectID]domain.YieldSample{},
		uploads:  map[primitive.ObjectID]domain.Upload{},
	}
}

func (s *store) addUser(name string, role domain.Role) domain.User {
	u := domain.User{ID: primitive.NewObjectID(), Name: name, Email: name + "@example.org", Role: role, PasswordHash: "x"}
	s.users[u.ID] = u
	return u
}

func (s *store) addNks(code string, subround int, target domain.Target) domain.NksUnit {
	u := domain.NksUnit{ID: primitive.NewObjectID(), Code: code, Subround: subround, Target: target}
	s.nks = append(s.nks, u)
	return u
}

func (s *store) addSegmen(code string, month, padi int) domain.SegmenUnit {
	u := domain.SegmenUnit{ID: primitive.NewObjectID(), Code: code, TargetMonth: month, PadiTarget: padi}
	s.segmen = append(s.segmen, u)
	return u
}

func (s *store) assignmentsOf(unitID primitive.ObjectID) []domain.Assignment {
	var out []domain.Assignment
	for _, a := range s.assignments {
		if a.UnitID == unitID {
			out = append(out, a)
		}
	}
	return out
}

func inIDs(id primitive.ObjectID, f repository.UnitFilter) bool {
	if f.VillageID != nil {
		return false
	}
	if f.IDs == nil {
		return true
	}
	for _, want := range f.IDs {
		if want == id {
			return true
		}
	}
	return false
}

// --- users ---

type fakeUserRepo struct{ *store }

func (r fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	user.ID = primitive.NewObjectID()
	r.users[user.ID] = *user
	return user.ID, nil
}

func (r fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r fakeUserRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r fakeUserRepo) SetSupervisor(_ context.Context, officerID, supervisorID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[officerID]
	if !ok {
		return repository.ErrNotFound
	}
	u.SupervisorID = &supervisorID
	r.users[officerID] = u
	return nil
}

func (r fakeUserRepo) GetOfficersBySupervisor(_ context.Context, supervisorID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.SupervisorID != nil && *u.SupervisorID == supervisorID {
			out = append(out, u)
		}
	}
	return out, nil
}

// --- regions ---

type fakeRegionRepo struct{ *store }

func (r fakeRegionRepo) CreateDistrict(_ context.Context, d *domain.District) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.districts {
		if existing.Code == d.Code {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	d.ID = primitive.NewObjectID()
	r.districts = append(r.districts, *d)
	return d.ID, nil
}

func (r fakeRegionRepo) ListDistricts(context.Context) ([]domain.District, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.District(nil), r.districts...), nil
}

func (r fakeRegionRepo) CreateVillage(_ context.Context, v *domain.Village) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v.ID = primitive.NewObjectID()
	r.villages[v.ID] = *v
	return v.ID, nil
}

func (r fakeRegionRepo) GetVillage(_ context.Context, id primitive.ObjectID) (*domain.Village, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.villages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &v, nil
}

func (r fakeRegionRepo) ListVillages(_ context.Context, districtID *primitive.ObjectID) ([]domain.Village, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Village
	for _, v := range r.villages {
		if districtID == nil || v.DistrictID == *districtID {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- unit catalogs ---

type fakeNksRepo struct{ *store }

func (r fakeNksRepo) Create(_ context.Context, unit *domain.NksUnit) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.nks {
		if u.Code == unit.Code {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	unit.ID = primitive.NewObjectID()
	r.nks = append(r.nks, *unit)
	return unit.ID, nil
}

func (r fakeNksRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.NksUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.nks {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeNksRepo) List(_ context.Context, f repository.UnitFilter) ([]domain.NksUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []domain.NksUnit{}
	for _, u := range r.nks {
		if f.VillageID != nil && u.VillageID == *f.VillageID {
			u.Assignments = r.assignmentsOf(u.ID)
			out = append(out, u)
			continue
		}
		if inIDs(u.ID, f) {
			u.Assignments = r.assignmentsOf(u.ID)
			out = append(out, u)
		}
	}
	return out, nil
}

func (r fakeNksRepo) UpdateTarget(_ context.Context, id primitive.ObjectID, target domain.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.nks {
		if r.nks[i].ID == id {
			r.nks[i].Target = target
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeSegmenRepo struct{ *store }

func (r fakeSegmenRepo) Create(_ context.Context, unit *domain.SegmenUnit) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.segmen {
		if u.Code == unit.Code {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	unit.ID = primitive.NewObjectID()
	r.segmen = append(r.segmen, *unit)
	return unit.ID, nil
}

func (r fakeSegmenRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.SegmenUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.segmen {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r fakeSegmenRepo) List(_ context.Context, f repository.UnitFilter) ([]domain.SegmenUnit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := []domain.SegmenUnit{}
	for _, u := range r.segmen {
		if (f.VillageID != nil && u.VillageID == *f.VillageID) || inIDs(u.ID, f) {
			u.Assignments = r.assignmentsOf(u.ID)
			out = append(out, u)
		}
	}
	return out, nil
}

func (r fakeSegmenRepo) UpdateTarget(_ context.Context, id primitive.ObjectID, padiTarget int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.segmen {
		if r.segmen[i].ID == id {
			r.segmen[i].PadiTarget = padiTarget
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- assignments ---

type fakeAssignmentRepo struct{ *store }

func (r fakeAssignmentRepo) Create(_ context.Context, a *domain.Assignment) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.assignmentsOf(a.UnitID)) > 0 {
		return primitive.NilObjectID, repository.ErrDuplicate
	}
	a.ID = primitive.NewObjectID()
	a.AssignedAt = time.Now()
	r.assignments = append(r.assignments, *a)
	return a.ID, nil
}

func (r fakeAssignmentRepo) GetByUnitID(_ context.Context, unitID primitive.ObjectID) (*domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	found := r.assignmentsOf(unitID)
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return &found[0], nil
}

func (r fakeAssignmentRepo) GetByOfficerID(_ context.Context, officerID primitive.ObjectID) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.OfficerID == officerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r fakeAssignmentRepo) GetBySupervisorID(_ context.Context, supervisorID primitive.ObjectID) ([]domain.Assignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Assignment
	for _, a := range r.assignments {
		if a.SupervisorID == supervisorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r fakeAssignmentRepo) Delete(_ context.Context, unitID, officerID primitive.ObjectID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, a := range r.assignments {
		if a.UnitID == unitID && a.OfficerID == officerID {
			r.assignments = append(r.assignments[:i], r.assignments[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// --- samples and uploads ---

type fakeSampleRepo struct{ *store }

func (r fakeSampleRepo) Create(_ context.Context, sample *domain.YieldSample) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sample.ID = primitive.NewObjectID()
	r.samples[sample.ID] = *sample
	return sample.ID, nil
}

func (r fakeSampleRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.YieldSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.samples[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r fakeSampleRepo) List(_ context.Context, f repository.SampleFilter) ([]domain.YieldSample, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.YieldSample{}
	for _, s := range r.samples {
		switch {
		case f.OfficerID != nil && s.OfficerID != *f.OfficerID,
			f.SupervisorID != nil && s.SupervisorID != *f.SupervisorID,
			f.Status != "" && s.Status != f.Status,
			f.DateFrom != "" && s.SampleDate < f.DateFrom,
			f.DateTo != "" && s.SampleDate > f.DateTo:
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SampleDate > out[j].SampleDate })
	return out, nil
}

func (r fakeSampleRepo) Update(_ context.Context, sample *domain.YieldSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.samples[sample.ID]; !ok {
		return repository.ErrNotFound
	}
	r.samples[sample.ID] = *sample
	return nil
}

type fakeUploadRepo struct{ *store }

func (r fakeUploadRepo) Create(_ context.Context, u *domain.Upload) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u.ID = primitive.NewObjectID()
	r.uploads[u.ID] = *u
	return u.ID, nil
}

func (r fakeUploadRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.uploads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r fakeUploadRepo) GetBySampleID(_ context.Context, sampleID primitive.ObjectID) (*domain.Upload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.uploads {
		if u.SampleID == sampleID {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeStorage records objects in memory and hands out fake URLs.
type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) GeneratePresignedUploadURL(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.test/put/%s", key), nil
}

func (f *fakeStorage) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.test/get/%s", key), nil
}

func (f *fakeStorage) PutObject(_ context.Context, key, _ string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}
