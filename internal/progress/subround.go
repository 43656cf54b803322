// Package progress turns raw samples and unit catalogs into the reporting
// views of the dashboard: subround progress, monthly rows and allocation status.
// Everything here is pure over in-memory slices except the Sequencer.
package progress

// Subrounds is the number of four-month reporting periods in a year.
const Subrounds = 3

const monthsPerSubround = 4

// Classify maps a calendar month to its subround: 1-4 -> 1, 5-8 -> 2,
// 9-12 -> 3. Months outside 1..12 are clamped.
func Classify(month int) int {
	month = min(max(month, 1), 12)
	return (month-1)/monthsPerSubround + 1
}

// MonthsOf returns the four months of a subround in calendar order.
// Subrounds outside 1..3 are clamped.
func MonthsOf(subround int) [monthsPerSubround]int {
	subround = min(max(subround, 1), Subrounds)
	first := (subround-1)*monthsPerSubround + 1
	var months [monthsPerSubround]int
	for i := range months {
		months[i] = first + i
	}
	return months
}

// ValidSubround reports whether s selects a single subround.
func ValidSubround(s int) bool {
	return s >= 1 && s <= Subrounds
}
