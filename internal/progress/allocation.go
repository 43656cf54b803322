package progress

import (
	"strings"

	"ubinan/monitoring-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// AllocationStatusRow is one unit of either catalog with its allocation state.
type AllocationStatusRow struct {
	UnitID       primitive.ObjectID  `json:"unitId"`
	Kind         domain.UnitKind     `json:"type"`
	Code         string              `json:"code"`
	VillageName  string              `json:"villageName"`
	DistrictName string              `json:"districtName"`
	IsAllocated  bool                `json:"isAllocated"`
	OfficerID    *primitive.ObjectID `json:"officerId,omitempty"`
	SupervisorID *primitive.ObjectID `json:"supervisorId,omitempty"`
}

// Reconciler merges the NKS and Segmen catalogs into one allocation view.
type Reconciler struct {
	logger *zap.Logger
}

func NewReconciler(logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{logger: logger}
}

// Reconcile emits exactly one row per unit, NKS first. A unit returned with
// more than one assignment keeps the first and logs a warning.
func (r *Reconciler) Reconcile(nks []domain.NksUnit, segmen []domain.SegmenUnit) []AllocationStatusRow {
	rows := make([]AllocationStatusRow, 0, len(nks)+len(segmen))
	for i := range nks {
		u := &nks[i]
		rows = append(rows, r.row(u, u.Place, u.Assignments))
	}
	for i := range segmen {
		u := &segmen[i]
		rows = append(rows, r.row(u, u.Place, u.Assignments))
	}
	return rows
}

func (r *Reconciler) row(u domain.SamplingUnit, place domain.UnitPlace, assignments []domain.Assignment) AllocationStatusRow {
	row := AllocationStatusRow{
		UnitID:       u.UnitID(),
		Kind:         u.Kind(),
		Code:         u.UnitCode(),
		VillageName:  place.VillageName,
		DistrictName: place.DistrictName,
	}
	if len(assignments) == 0 {
		return row
	}
	if len(assignments) > 1 {
		r.logger.Warn("unit has more than one assignment, using the first",
			zap.String("unitId", u.UnitID().Hex()),
			zap.String("kind", string(u.Kind())),
			zap.String("code", u.UnitCode()),
			zap.Int("assignments", len(assignments)))
	}
	first := assignments[0]
	row.IsAllocated = true
	row.OfficerID = &first.OfficerID
	row.SupervisorID = &first.SupervisorID
	return row
}

// AllocationState filters rows by whether they are allocated.
type AllocationState string

const (
	StateAll         AllocationState = "all"
	StateAllocated   AllocationState = "allocated"
	StateUnallocated AllocationState = "unallocated"
)

// KindAll matches both catalogs in AllocationFilter.Kind.
const KindAll domain.UnitKind = "all"

// AllocationFilter narrows a reconciled view. Empty fields match everything.
type AllocationFilter struct {
	Kind   domain.UnitKind `form:"type" json:"type"`
	State  AllocationState `form:"state" json:"state"`
	Search string          `form:"q" json:"q"`
}

// Filter returns the rows matching f, preserving order. rows is not modified.
func Filter(rows []AllocationStatusRow, f AllocationFilter) []AllocationStatusRow {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]AllocationStatusRow, 0, len(rows))
	for _, row := range rows {
		if f.Kind != "" && f.Kind != KindAll && row.Kind != f.Kind {
			continue
		}
		switch f.State {
		case StateAllocated:
			if !row.IsAllocated {
				continue
			}
		case StateUnallocated:
			if row.IsAllocated {
				continue
			}
		}
		if needle != "" && !matches(row, needle) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matches(row AllocationStatusRow, needle string) bool {
	for _, field := range []string{row.Code, row.VillageName, row.DistrictName} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

// AllocationSummary counts allocated and unallocated units per catalog.
type AllocationSummary struct {
	NksAllocated      int `json:"nksAllocated"`
	NksUnallocated    int `json:"nksUnallocated"`
	SegmenAllocated   int `json:"segmenAllocated"`
	SegmenUnallocated int `json:"segmenUnallocated"`
}

func Summarize(rows []AllocationStatusRow) AllocationSummary {
	var s AllocationSummary
	for _, row := range rows {
		switch {
		case row.Kind == domain.UnitNks && row.IsAllocated:
			s.NksAllocated++
		case row.Kind == domain.UnitNks:
			s.NksUnallocated++
		case row.IsAllocated:
			s.SegmenAllocated++
		default:
			s.SegmenUnallocated++
		}
	}
	return s
}
