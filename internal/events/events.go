// Package events carries booking lifecycle notifications to interested transports.
package events

import (
	"context"
	"errors"
	"time"
)

type Type string

const (
	BookingCreated Type = "booking.created"
	BookingDeleted Type = "booking.deleted"
)

type Event struct {
	Type       Type      `json:"type"`
	BookingID  string    `json:"booking_id"`
	Day        string    `json:"day"`
	UserID     string    `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
