package auth

import (
	"context"
	"time"
)

// UserRepository covers the users and allowed_signup_emails tables.
type UserRepository interface {
	GetAllowed(ctx context.Context, email string) (*AllowedEmail, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// CompleteLogin finds or creates the user for email and binds it to the allow-list row.
	CompleteLogin(ctx context.Context, email string, at time.Time) (*User, error)
	UpsertAllowed(ctx context.Context, email, note string) error
}

// CodeStore keeps at most one pending login code per email.
type CodeStore interface {
	Get(ctx context.Context, email string) (*LoginCode, error)
	// Save replaces any previous code for the same email.
	Save(ctx context.Context, code *LoginCode) error
	IncrementAttempts(ctx context.Context, email string) (int, error)
	MarkUsed(ctx context.Context, email string, at time.Time) error
}

type Mailer interface {
	SendLoginCode(ctx context.Context, email, code string) error
}

type tokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
	TTL() time.Duration
}
