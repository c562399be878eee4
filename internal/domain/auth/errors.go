package auth

import "errors"

var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrNotInvited        = errors.New("email is not on the allow-list")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidCode       = errors.New("invalid login code")
	ErrInvalidCodeFormat = errors.New("invalid login code format")
	ErrTooManyAttempts   = errors.New("too many attempts")
	ErrCodeNotFound      = errors.New("login code not found")
	ErrUserNotFound      = errors.New("user not found")
)
