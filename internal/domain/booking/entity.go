package booking

import (
	"sort"
	"time"
)

// DayLayout is the fixed-width calendar date format. Days in this layout compare
// correctly as strings.
const DayLayout = "2006-01-02"

// Booking is one reserved [StartMinute, EndMinute) interval on one calendar day.
type Booking struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	UserID      string `json:"user_id"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Note        string `json:"note,omitempty"`
}

// Draft is a booking the store has not assigned an id to yet.
type Draft struct {
	Day         string `json:"day"`
	UserID      string `json:"user_id"`
	StartMinute int    `json:"start_minute"`
	EndMinute   int    `json:"end_minute"`
	Note        string `json:"note,omitempty"`
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayLayout, s)
}

func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// SortByStart orders bookings of one day by start minute, keeping ties in place.
func SortByStart(list []Booking) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].StartMinute < list[j].StartMinute })
}
