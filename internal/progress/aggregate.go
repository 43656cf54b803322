package progress

import (
	"ubinan/monitoring-app/internal/domain"
)

// Targets holds the quota of each subround, index 0 is subround 1.
type Targets [Subrounds]domain.Target

// For returns the target of one subround, or the whole-year sum when
// subround is 0.
func (t Targets) For(subround int) domain.Target {
	if ValidSubround(subround) {
		return t[subround-1]
	}
	var sum domain.Target
	for _, st := range t {
		sum = sum.Add(st)
	}
	return sum
}

// Add places a unit's quota in the subround of its reporting month.
func (t *Targets) Add(u domain.SamplingUnit) {
	i := Classify(u.ReportingMonth()) - 1
	t[i] = t[i].Add(u.Quota())
}

// Query selects the reporting window. Subround 0 means the whole year and
// Year 0 disables the year filter.
type Query struct {
	Year     int `json:"year"`
	Subround int `json:"subround"`
}

// Bucket is the progress of one commodity bucket against its target.
type Bucket struct {
	Target     int     `json:"target"`
	Completed  int     `json:"completed"` // dikonfirmasi
	Pending    int     `json:"pending"`   // sudah_diisi
	Rejected   int     `json:"rejected"`
	Unfilled   int     `json:"unfilled"`
	Percentage float64 `json:"percentage"`
}

func (b *Bucket) count(status domain.SampleStatus) {
	switch status {
	case domain.StatusConfirmed:
		b.Completed++
	case domain.StatusFilled:
		b.Pending++
	case domain.StatusRejected:
		b.Rejected++
	default:
		b.Unfilled++
	}
}

func (b *Bucket) finish() {
	b.Percentage = Percentage(b.Completed, b.Target)
}

func sumBuckets(a, b Bucket) Bucket {
	out := Bucket{
		Target:    a.Target + b.Target,
		Completed: a.Completed + b.Completed,
		Pending:   a.Pending + b.Pending,
		Rejected:  a.Rejected + b.Rejected,
		Unfilled:  a.Unfilled + b.Unfilled,
	}
	out.finish()
	return out
}

// Aggregate is the progress of one reporting window split by commodity.
type Aggregate struct {
	Query    Query  `json:"query"`
	Padi     Bucket `json:"padi"`
	Palawija Bucket `json:"palawija"`
	Total    Bucket `json:"total"`
	// Skipped counts records left out because their date did not parse.
	Skipped int `json:"skipped"`
}

// MonthRow is the progress of a single month. Targets are the subround
// target spread evenly over its four months, rounded up.
type MonthRow struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	Subround int    `json:"subround"`
	Padi     Bucket `json:"padi"`
	Palawija Bucket `json:"palawija"`
}

// Percentage is completed/target*100, or 0 when target <= 0. It is not
// capped at 100.
func Percentage(completed, target int) float64 {
	if target <= 0 || completed <= 0 {
		return 0
	}
	return float64(completed) / float64(target) * 100
}

// MonthlyTarget spreads a subround target over its months, rounding up.
func MonthlyTarget(subroundTarget int) int {
	if subroundTarget <= 0 {
		return 0
	}
	return (subroundTarget + monthsPerSubround - 1) / monthsPerSubround
}

// counts is the per-month tally shared by Aggregate and Monthly.
type counts struct {
	padi, palawija [12]Bucket
	skipped        int
}

func tally(samples []domain.YieldSample, year int) counts {
	var c counts
	for i := range samples {
		s := &samples[i]
		date, err := s.Date()
		if err != nil {
			c.skipped++
			continue
		}
		if year > 0 && date.Year() != year {
			continue
		}
		m := int(date.Month()) - 1
		if s.Commodity.IsPadi() {
			c.padi[m].count(s.Status)
		} else {
			c.palawija[m].count(s.Status)
		}
	}
	return c
}

func months(subround int) []int {
	if ValidSubround(subround) {
		ms := MonthsOf(subround)
		return ms[:]
	}
	all := make([]int, 0, 12)
	for m := 1; m <= 12; m++ {
		all = append(all, m)
	}
	return all
}

func normalize(q Query) Query {
	if !ValidSubround(q.Subround) {
		q.Subround = 0
	}
	return q
}

// Compute aggregates samples for the window q against targets. Records with
// malformed dates are excluded and counted, never fatal.
func Compute(samples []domain.YieldSample, targets Targets, q Query) Aggregate {
	q = normalize(q)
	c := tally(samples, q.Year)

	agg := Aggregate{Query: q, Skipped: c.skipped}
	for _, m := range months(q.Subround) {
		agg.Padi = sumBuckets(agg.Padi, c.padi[m-1])
		agg.Palawija = sumBuckets(agg.Palawija, c.palawija[m-1])
	}
	target := targets.For(q.Subround)
	agg.Padi.Target = target.Padi
	agg.Palawija.Target = target.Palawija
	agg.Padi.finish()
	agg.Palawija.finish()
	agg.Total = sumBuckets(agg.Padi, agg.Palawija)
	return agg
}

// BySubround computes one Aggregate per subround of the query's year.
func BySubround(samples []domain.YieldSample, targets Targets, year int) []Aggregate {
	out := make([]Aggregate, 0, Subrounds)
	for s := 1; s <= Subrounds; s++ {
		out = append(out, Compute(samples, targets, Query{Year: year, Subround: s}))
	}
	return out
}

// Monthly breaks the window q into per-month rows.
func Monthly(samples []domain.YieldSample, targets Targets, q Query) []MonthRow {
	q = normalize(q)
	c := tally(samples, q.Year)

	ms := months(q.Subround)
	rows := make([]MonthRow, 0, len(ms))
	for _, m := range ms {
		sr := Classify(m)
		target := targets.For(sr)
		row := MonthRow{Year: q.Year, Month: m, Subround: sr, Padi: c.padi[m-1], Palawija: c.palawija[m-1]}
		row.Padi.Target = MonthlyTarget(target.Padi)
		row.Palawija.Target = MonthlyTarget(target.Palawija)
		row.Padi.finish()
		row.Palawija.finish()
		rows = append(rows, row)
	}
	return rows
}
