package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"labbook/internal/calendar"
	"labbook/internal/domain/booking"
	"labbook/internal/pkg/timeofday"
)

var weekdays = []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}

// RenderMonth prints the 42-cell grid of view's month. Days with bookings show
// their count; a trailing * marks days holding one of the user's bookings.
func RenderMonth(w io.Writer, view time.Time, counts, mine map[string]int, today string) {
	title := view.Format("January 2006")
	fmt.Fprintf(w, "%s%s\n", strings.Repeat(" ", max(0, (7*8-len(title))/2)), title)
	for _, d := range weekdays {
		fmt.Fprintf(w, "%-8s", "  "+d)
	}
	fmt.Fprintln(w)

	cells := calendar.MonthMatrix(view)
	for i, day := range cells {
		fmt.Fprint(w, renderCell(day, view, counts, mine, today))
		if i%7 == 6 {
			fmt.Fprintln(w)
		}
	}
}

func renderCell(day, view time.Time, counts, mine map[string]int, today string) string {
	if !calendar.SameMonth(day, view) {
		return fmt.Sprintf("%-8s", "   .")
	}

	key := booking.FormatDay(day)
	mark := " "
	if key == today {
		mark = ">"
	}

	suffix := ""
	if n := counts[key]; n > 0 {
		suffix = fmt.Sprintf("(%d", n)
		if mine[key] > 0 {
			suffix += "*"
		}
		suffix += ")"
	}
	return fmt.Sprintf("%-8s", fmt.Sprintf("%s%2d%s", mark, day.Day(), suffix))
}

// RenderDay lists one day's bookings in start order.
func RenderDay(w io.Writer, day string, list []booking.Booking, userID string) {
	fmt.Fprintf(w, "%s\n", day)
	if len(list) == 0 {
		fmt.Fprintln(w, "  no bookings")
		return
	}
	for _, b := range list {
		owner := ""
		if b.UserID == userID {
			owner = " (mine)"
		}
		note := b.Note
		if note == "" {
			note = "-"
		}
		fmt.Fprintf(w, "  %s-%s  %-20s %s%s\n",
			timeofday.Format(b.StartMinute), timeofday.Format(b.EndMinute), note, b.ID, owner)
	}
}
