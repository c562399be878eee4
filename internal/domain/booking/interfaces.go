package booking

import (
	"context"
	"time"
)

// BookingRepository defines the storage operations the service relies on
type BookingRepository interface {
	ListRange(ctx context.Context, from, to time.Time) ([]Booking, error)
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	Delete(ctx context.Context, id string) error
}

// DisplayNameResolver looks up the allow-list label of a user.
type DisplayNameResolver interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}
