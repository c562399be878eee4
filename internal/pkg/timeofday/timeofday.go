// Package timeofday converts between "HH:MM" text and minutes since local midnight.
package timeofday

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MinutesPerDay is the exclusive upper bound of a start minute and the inclusive bound of an end minute.
const MinutesPerDay = 24 * 60

// maxSegment bounds each segment so hh*60+mm cannot overflow an int.
const maxSegment = 1_000_000

var ErrInvalidFormat = errors.New("invalid time format")

// Parse reads "H:M" where both segments are base-10 integers.
// Out-of-range values are returned as-is; callers check the range. Segments
// beyond +/-maxSegment are rejected as malformed.
func Parse(text string) (int, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) != 2 {
		return 0, ErrInvalidFormat
	}

	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, ErrInvalidFormat
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, ErrInvalidFormat
	}

	if outOfBounds(hh) || outOfBounds(mm) {
		return 0, ErrInvalidFormat
	}

	return hh*60 + mm, nil
}

func outOfBounds(v int) bool {
	return v > maxSegment || v < -maxSegment
}

// Format renders minutes as zero-padded "HH:MM". Negative input is not handled.
func Format(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidRange reports whether [start, end) is a non-empty range inside one day.
func ValidRange(start, end int) bool {
	return start >= 0 && end <= MinutesPerDay && start < end
}
