package booking

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"labbook/internal/events"
	"labbook/internal/pkg/timeofday"
)

// maxListDays bounds one range query; a month view needs at most 31.
const maxListDays = 62

type CreateInput struct {
	Day         string
	StartMinute int
	EndMinute   int
	Note        string
}

type Service struct {
	bookings BookingRepository
	names    DisplayNameResolver
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time
}

func NewService(bookings BookingRepository, names DisplayNameResolver, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		bookings: bookings,
		names:    names,
		events:   publisher,
		log:      log,
		now:      time.Now,
	}
}

// List returns bookings with from <= day <= to, ordered by day then start minute.
func (s *Service) List(ctx context.Context, from, to string) ([]Booking, error) {
	fromDay, err := ParseDay(from)
	if err != nil {
		return nil, ErrValidation
	}
	toDay, err := ParseDay(to)
	if err != nil {
		return nil, ErrValidation
	}
	if toDay.Before(fromDay) || toDay.Sub(fromDay) > maxListDays*24*time.Hour {
		return nil, ErrValidation
	}

	return s.bookings.ListRange(ctx, fromDay, toDay)
}

// Create stores a booking owned by userID. Overlap with existing bookings is
// decided by the repository, never here.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*Booking, error) {
	if userID == "" {
		return nil, ErrForbidden
	}
	if _, err := ParseDay(in.Day); err != nil {
		return nil, ErrValidation
	}
	if !timeofday.ValidRange(in.StartMinute, in.EndMinute) {
		return nil, ErrInvalidRange
	}
	if in.Day < FormatDay(s.now()) {
		return nil, ErrPastDate
	}

	note := strings.TrimSpace(in.Note)
	if note == "" && s.names != nil {
		name, err := s.names.DisplayName(ctx, userID)
		if err != nil {
			s.log.Warn("display name lookup failed", zap.String("user_id", userID), zap.Error(err))
		}
		note = name
	}

	b := &Booking{
		Day:         in.Day,
		UserID:      userID,
		StartMinute: in.StartMinute,
		EndMinute:   in.EndMinute,
		Note:        note,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingCreated, b)
	return b, nil
}

// Delete removes a booking. Only its owner may delete it.
func (s *Service) Delete(ctx context.Context, userID, id string) (*Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, ErrForbidden
	}

	if err := s.bookings.Delete(ctx, id); err != nil {
		return nil, err
	}

	s.publish(ctx, events.BookingDeleted, b)
	return b, nil
}

func (s *Service) publish(ctx context.Context, t events.Type, b *Booking) {
	err := s.events.Publish(ctx, events.Event{
		Type:       t,
		BookingID:  b.ID,
		Day:        b.Day,
		UserID:     b.UserID,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		s.log.Warn("publish booking event failed", zap.String("type", string(t)), zap.String("booking_id", b.ID), zap.Error(err))
	}
}
