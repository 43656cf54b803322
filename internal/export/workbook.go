// Package export serialises progress aggregates and allocation rows into an
// .xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"ubinan/monitoring-app/internal/progress"

	"github.com/xuri/excelize/v2"
)

// ContentType of the workbook written by WriteWorkbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	SheetSummary    = "Ringkasan"
	SheetSubrounds  = "Progres Subround"
	SheetMonthly    = "Progres Bulanan"
	SheetAllocation = "Alokasi"
)

// Report is everything a workbook shows. Names maps hex user ids to display
// names for the allocation sheet; unknown ids are written as-is.
type Report struct {
	Title       string
	GeneratedAt time.Time
	Query       progress.Query
	Total       progress.Aggregate
	Subrounds   []progress.Aggregate
	Months      []progress.MonthRow
	Allocation  []progress.AllocationStatusRow
	Summary     progress.AllocationSummary
	Names       map[string]string
}

var monthNames = [12]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// MonthName returns the Indonesian name of month m (1..12).
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return fmt.Sprint(m)
	}
	return monthNames[m-1]
}

type sheetWriter struct {
	f    *excelize.File
	bold int
	err  error
}

func (w *sheetWriter) row(sheet string, r int, values ...interface{}) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, r)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(sheet, cell, &values)
}

func (w *sheetWriter) header(sheet string, r int, values ...interface{}) {
	w.row(sheet, r, values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, r)
	last, _ := excelize.CoordinatesToCellName(len(values), r)
	w.err = w.f.SetCellStyle(sheet, first, last, w.bold)
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	_, w.err = w.f.NewSheet(name)
	if w.err == nil {
		w.err = w.f.SetColWidth(name, "A", "L", 16)
	}
}

// WriteWorkbook renders r as a workbook and writes it to out.
func WriteWorkbook(out io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	w := &sheetWriter{f: f, bold: bold}

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	writeSummary(w, r)

	w.sheet(SheetSubrounds)
	w.header(SheetSubrounds, 1, bucketHeader("Subround")...)
	for i, agg := range r.Subrounds {
		w.row(SheetSubrounds, i+2, bucketRow(agg.Query.Subround, agg.Padi, agg.Palawija)...)
	}

	w.sheet(SheetMonthly)
	w.header(SheetMonthly, 1, bucketHeader("Bulan")...)
	for i, m := range r.Months {
		w.row(SheetMonthly, i+2, bucketRow(MonthName(m.Month), m.Padi, m.Palawija)...)
	}

	w.sheet(SheetAllocation)
	w.header(SheetAllocation, 1, "Jenis", "Kode", "Desa", "Kecamatan", "Status", "PPL", "PML")
	for i, row := range r.Allocation {
		status, officer, supervisor := "Belum dialokasikan", "", ""
		if row.IsAllocated {
			status = "Dialokasikan"
			officer = r.name(row.OfficerID.Hex())
			supervisor = r.name(row.SupervisorID.Hex())
		}
		w.row(SheetAllocation, i+2, string(row.Kind), row.Code, row.VillageName, row.DistrictName, status, officer, supervisor)
	}
	if w.err != nil {
		return w.err
	}

	f.SetActiveSheet(0)
	return f.Write(out)
}

func writeSummary(w *sheetWriter, r Report) {
	if w.err == nil {
		w.err = w.f.SetColWidth(SheetSummary, "A", "B", 28)
	}
	w.header(SheetSummary, 1, r.Title)
	w.row(SheetSummary, 2, "Dibuat", r.GeneratedAt.Format("2006-01-02 15:04"))
	w.row(SheetSummary, 3, "Tahun", r.Query.Year)
	w.row(SheetSummary, 4, "Subround", subroundLabel(r.Query.Subround))

	w.header(SheetSummary, 6, "Komoditas", "Target", "Selesai", "Menunggu", "Ditolak", "Persentase")
	w.row(SheetSummary, 7, summaryRow("Padi", r.Total.Padi)...)
	w.row(SheetSummary, 8, summaryRow("Palawija", r.Total.Palawija)...)
	w.row(SheetSummary, 9, summaryRow("Total", r.Total.Total)...)

	w.header(SheetSummary, 11, "Alokasi", "Dialokasikan", "Belum")
	w.row(SheetSummary, 12, "NKS", r.Summary.NksAllocated, r.Summary.NksUnallocated)
	w.row(SheetSummary, 13, "Segmen", r.Summary.SegmenAllocated, r.Summary.SegmenUnallocated)
}

func (r Report) name(id string) string {
	if n, ok := r.Names[id]; ok {
		return n
	}
	return id
}

func subroundLabel(s int) string {
	if progress.ValidSubround(s) {
		return fmt.Sprint(s)
	}
	return "Setahun"
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

func summaryRow(label string, b progress.Bucket) []interface{} {
	return []interface{}{label, b.Target, b.Completed, b.Pending, b.Rejected, percent(b.Percentage)}
}

func bucketHeader(first string) []interface{} {
	return []interface{}{
		first,
		"Target Padi", "Selesai Padi", "Menunggu Padi", "Ditolak Padi", "% Padi",
		"Target Palawija", "Selesai Palawija", "Menunggu Palawija", "Ditolak Palawija", "% Palawija",
	}
}

func bucketRow(label interface{}, padi, palawija progress.Bucket) []interface{} {
	return []interface{}{
		label,
		padi.Target, padi.Completed, padi.Pending, padi.Rejected, percent(padi.Percentage),
		palawija.Target, palawija.Completed, palawija.Pending, palawija.Rejected, percent(palawija.Percentage),
	}
}
