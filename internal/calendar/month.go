package calendar

import (
	"time"

	"labbook/internal/domain/booking"
)

// GridCells is the size of a month grid: six Sunday-first weeks.
const GridCells = 42

// StartOfMonth returns midnight of the first day of t's month, in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// EndOfMonth returns midnight of the last day of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, -1)
}

// MonthWindow returns the inclusive day range of t's month as YYYY-MM-DD strings.
func MonthWindow(t time.Time) (from, to string) {
	return booking.FormatDay(StartOfMonth(t)), booking.FormatDay(EndOfMonth(t))
}

// AddMonths moves to the first day of the month n months away. Adding to the
// first of the month avoids the Jan 31 + 1 month = Mar 3 overflow.
func AddMonths(t time.Time, n int) time.Time {
	return StartOfMonth(t).AddDate(0, n, 0)
}

// MonthMatrix lays out t's month as 42 consecutive days starting on the Sunday
// on or before the 1st.
func MonthMatrix(t time.Time) [GridCells]time.Time {
	first := StartOfMonth(t)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	var cells [GridCells]time.Time
	for i := range cells {
		cells[i] = start.AddDate(0, 0, i)
	}
	return cells
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
