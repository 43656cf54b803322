package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"ubinan/monitoring-app/internal/domain"
	"ubinan/monitoring-app/internal/export"
	"ubinan/monitoring-app/internal/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type progressFixture struct {
	*sampleFixture
	progress ProgressService
}

func newProgressFixture(t *testing.T) *progressFixture {
	t.Helper()
	f := &progressFixture{sampleFixture: newSampleFixture(t)}
	f.progress = NewProgressService(fakeNksRepo{f.st}, fakeSegmenRepo{f.st}, fakeAssignmentRepo{f.st}, fakeSampleRepo{f.st}, zap.NewNop())

	// An unallocated unit only the whole-catalog roles see.
	f.st.addNks("NKS-900", 3, domain.Target{Padi: 8, Palawija: 8})

	f.put(f.nks.ID, false, domain.CommodityPadi, "2024-02-10", domain.StatusConfirmed)
	f.put(f.nks.ID, false, domain.CommodityJagung, "2024-03-01", domain.StatusFilled)
	f.put(f.segmen.ID, true, domain.CommodityPadi, "2024-06-05", domain.StatusConfirmed)
	f.put(f.nks.ID, false, domain.CommodityPadi, "2023-02-10", domain.StatusConfirmed)
	return f
}

func (f *progressFixture) put(unit primitive.ObjectID, segmen bool, c domain.Commodity, date string, status domain.SampleStatus) {
	s := domain.YieldSample{
		ID: primitive.NewObjectID(), Commodity: c, SampleDate: date, Status: status, Weight: 3,
		OfficerID: f.officer.ID, SupervisorID: f.supervisor.ID,
	}
	if segmen {
		s.SegmenID = &unit
	} else {
		s.NksID = &unit
	}
	f.st.samples[s.ID] = s
}

func TestTargetsFollowAllocation(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()

	mine, err := f.progress.Targets(ctx, Actor{ID: f.officer.ID, Role: domain.RoleOfficer})
	require.NoError(t, err)
	assert.Equal(t, progress.Targets{{Padi: 4, Palawija: 2}, {Padi: 3}, {}}, mine)

	none, err := f.progress.Targets(ctx, Actor{ID: f.officer2.ID, Role: domain.RoleOfficer})
	require.NoError(t, err)
	assert.Equal(t, progress.Targets{}, none)

	all, err := f.progress.Targets(ctx, Actor{ID: f.admin.ID, Role: domain.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, domain.Target{Padi: 8, Palawija: 8}, all[2])
}

func TestDashboardForOfficer(t *testing.T) {
	f := newProgressFixture(t)

	d, err := f.progress.Dashboard(context.Background(), Actor{ID: f.officer.ID, Role: domain.RoleOfficer}, progress.Query{Year: 2024, Subround: 1})
	require.NoError(t, err)

	assert.Equal(t, progress.Query{Year: 2024, Subround: 1}, d.Query)
	assert.Equal(t, 1, d.Total.Padi.Completed)
	assert.Equal(t, 4, d.Total.Padi.Target)
	assert.InDelta(t, 25.0, d.Total.Padi.Percentage, 1e-9)
	assert.Equal(t, 1, d.Total.Palawija.Pending)
	assert.Zero(t, d.Total.Palawija.Percentage)

	require.Len(t, d.Subrounds, 3)
	assert.Equal(t, 1, d.Subrounds[1].Padi.Completed)
	assert.InDelta(t, 100.0/3, d.Subrounds[1].Padi.Percentage, 1e-9)

	require.Len(t, d.Months, 4)
	assert.Equal(t, 1, d.Months[1].Padi.Target)
	assert.InDelta(t, 100.0, d.Months[1].Padi.Percentage, 1e-9)
}

func TestDashboardOutOfRangeSubroundMeansYear(t *testing.T) {
	f := newProgressFixture(t)

	d, err := f.progress.Dashboard(context.Background(), Actor{ID: f.supervisor.ID, Role: domain.RoleSupervisor}, progress.Query{Year: 2024, Subround: 7})
	require.NoError(t, err)
	assert.Equal(t, 0, d.Query.Subround)
	assert.Equal(t, 2, d.Total.Padi.Completed)
	assert.Equal(t, 7, d.Total.Padi.Target)
	assert.Len(t, d.Months, 12)
}

func TestExportWriteAndPublish(t *testing.T) {
	f := newProgressFixture(t)
	ctx := context.Background()
	roster := NewRosterService(fakeUserRepo{f.st}, zap.NewNop())
	svc := NewExportService(f.progress, f.svc, roster, f.files, ExportOptions{Prefix: "exports"}, zap.NewNop())
	admin := Actor{ID: f.admin.ID, Role: domain.RoleAdmin}
	q := progress.Query{Year: 2024, Subround: 2}

	_, err := svc.BuildReport(ctx, Actor{ID: primitive.NewObjectID(), Role: domain.RoleViewer}, q)
	assert.ErrorIs(t, err, ErrAccessDenied)

	report, err := svc.BuildReport(ctx, admin, q)
	require.NoError(t, err)
	assert.Equal(t, "Laporan Progres Ubinan 2024 Subround 2", report.Title)
	assert.Len(t, report.Allocation, 3)
	assert.Equal(t, "siti", report.Names[f.officer.ID.Hex()])

	var buf bytes.Buffer
	require.NoError(t, svc.Write(ctx, admin, q, &buf))
	wb, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer wb.Close()
	assert.Contains(t, wb.GetSheetList(), export.SheetAllocation)

	pub, err := svc.Publish(ctx, admin, q)
	require.NoError(t, err)
	assert.Equal(t, "ubinan-2024-sr2.xlsx", pub.FileName)
	assert.True(t, strings.HasPrefix(pub.ObjectKey, "exports/"))
	assert.Contains(t, pub.URL, pub.ObjectKey)
	assert.NotEmpty(t, f.files.objects[pub.ObjectKey])
}

func TestReportFileName(t *testing.T) {
	assert.Equal(t, "ubinan.xlsx", ReportFileName(progress.Query{}))
	assert.Equal(t, "ubinan-2025.xlsx", ReportFileName(progress.Query{Year: 2025, Subround: 9}))
}
