package booking

import "errors"

var (
	ErrValidation   = errors.New("validation error")
	ErrInvalidRange = errors.New("invalid time range")
	ErrPastDate     = errors.New("day is in the past")
	ErrOverlap      = errors.New("time range overlaps another booking")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
)
