package calendar

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labbook/internal/domain/booking"
	"labbook/internal/pkg/timeofday"
)

// TempIDPrefix marks bookings that exist only locally, before the store confirmed them.
const TempIDPrefix = "temp-"

// Store is the remote reservation platform. Insert reports an overlap with
// another booking as an error wrapping booking.ErrOverlap.
type Store interface {
	ListRange(ctx context.Context, from, to string) ([]booking.Booking, error)
	Insert(ctx context.Context, d booking.Draft) error
	Delete(ctx context.Context, id string) error
}

// Session is the signed-in identity. An empty UserID means nobody is signed in.
type Session struct {
	UserID      string
	DisplayName string
}

func (s Session) Authenticated() bool { return s.UserID != "" }

// Calendar caches the bookings of the viewed month and applies reservations and
// cancellations optimistically, rolling them back when the store refuses.
type Calendar struct {
	store Store
	log   *zap.Logger

	mu         sync.Mutex
	view       time.Time
	days       map[string][]booking.Booking
	loading    bool
	submitting bool
	message    string
	seq        uint64

	now       func() time.Time
	newTempID func() string
}

func New(store Store, log *zap.Logger) *Calendar {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Calendar{
		store:     store,
		log:       log,
		days:      map[string][]booking.Booking{},
		now:       time.Now,
		newTempID: func() string { return TempIDPrefix + uuid.NewString() },
	}
	c.view = StartOfMonth(c.now())
	return c
}

// View returns the first day of the viewed month.
func (c *Calendar) View() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// FetchMonth makes ref's month the viewed month and reloads its bookings.
func (c *Calendar) FetchMonth(ctx context.Context, ref time.Time) error {
	c.mu.Lock()
	c.view = StartOfMonth(ref)
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Next moves the view one month forward and reloads.
func (c *Calendar) Next(ctx context.Context) error {
	return c.FetchMonth(ctx, AddMonths(c.View(), 1))
}

// Prev moves the view one month back and reloads.
func (c *Calendar) Prev(ctx context.Context) error {
	return c.FetchMonth(ctx, AddMonths(c.View(), -1))
}

// Refresh reloads the viewed month. The result replaces the whole cache; on
// failure the cache is emptied. When fetches overlap, only the one started last
// is applied.
func (c *Calendar) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	from, to := MonthWindow(c.view)
	c.loading = true
	c.message = ""
	c.mu.Unlock()

	list, err := c.store.ListRange(ctx, from, to)

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.log.Debug("dropping stale month fetch", zap.String("from", from), zap.Uint64("seq", seq))
		return err
	}
	c.loading = false

	if err != nil {
		c.days = map[string][]booking.Booking{}
		c.message = "Error: could not load bookings: " + err.Error()
		c.log.Warn("month fetch failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return err
	}

	days := make(map[string][]booking.Booking)
	for _, b := range list {
		days[b.Day] = append(days[b.Day], b)
	}
	for _, list := range days {
		booking.SortByStart(list)
	}
	c.days = days
	return nil
}

// Reserve books [startText, endText) on day for the session user. The booking
// shows up locally before the store answers and is removed again if the store
// refuses it.
func (c *Calendar) Reserve(ctx context.Context, sess Session, day, startText, endText string) Outcome {
	out := Outcome{Action: ActionReserve}
	if !sess.Authenticated() {
		out.Kind = KindSkipped
		return out
	}

	start, errStart := timeofday.Parse(startText)
	end, errEnd := timeofday.Parse(endText)

	c.mu.Lock()
	switch {
	case c.submitting:
		out.Kind = KindBusy
	case errStart != nil || errEnd != nil:
		out.Kind = KindInvalidTimeFormat
	case !timeofday.ValidRange(start, end):
		out.Kind = KindInvalidRange
	case day < booking.FormatDay(c.now()):
		out.Kind = KindPastDate
	}
	if out.Kind != KindOK {
		if out.Kind != KindBusy {
			c.message = out.Message()
		}
		c.mu.Unlock()
		return out
	}

	temp := booking.Booking{
		ID:          c.newTempID(),
		Day:         day,
		UserID:      sess.UserID,
		StartMinute: start,
		EndMinute:   end,
		Note:        sess.DisplayName,
	}
	c.insertLocked(day, temp)
	c.submitting = true
	c.message = ""
	c.mu.Unlock()

	out.Phase = PhaseSubmitting
	err := c.store.Insert(ctx, booking.Draft{
		Day:         day,
		UserID:      sess.UserID,
		StartMinute: start,
		EndMinute:   end,
		Note:        sess.DisplayName,
	})

	if err != nil {
		out.Phase = PhaseRolledBack
		out.Err = err
		out.Kind = KindStoreError
		if errors.Is(err, booking.ErrOverlap) {
			out.Kind = KindOverlapConflict
		}

		c.mu.Lock()
		c.removeLocked(day, temp.ID)
		c.message = out.Message()
		c.submitting = false
		c.mu.Unlock()

		c.log.Info("reservation rolled back", zap.String("day", day), zap.String("kind", out.Kind.String()), zap.Error(err))
		return out
	}

	out.Phase = PhaseCommitted
	// A failed refresh leaves its own message; the reservation itself stands.
	refreshErr := c.Refresh(ctx)

	c.mu.Lock()
	if refreshErr == nil {
		c.message = out.Message()
	}
	c.submitting = false
	c.mu.Unlock()
	return out
}

// Cancel deletes b, which must belong to the session user. It disappears
// locally at once and is put back if the store refuses the delete.
func (c *Calendar) Cancel(ctx context.Context, sess Session, day string, b booking.Booking) Outcome {
	out := Outcome{Action: ActionCancel}
	if !sess.Authenticated() {
		out.Kind = KindSkipped
		return out
	}

	c.mu.Lock()
	switch {
	case c.submitting:
		out.Kind = KindBusy
	case b.UserID != sess.UserID:
		out.Kind = KindNotOwner
		c.message = out.Message()
	}
	if out.Kind != KindOK {
		c.mu.Unlock()
		return out
	}

	c.removeLocked(day, b.ID)
	c.submitting = true
	c.message = ""
	c.mu.Unlock()

	out.Phase = PhaseSubmitting
	err := c.store.Delete(ctx, b.ID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	if err != nil {
		c.insertLocked(day, b)
		out.Kind = KindStoreError
		out.Phase = PhaseRolledBack
		out.Err = err
		c.message = out.Message()
		c.log.Info("cancellation rolled back", zap.String("day", day), zap.String("booking_id", b.ID), zap.Error(err))
		return out
	}

	out.Phase = PhaseCommitted
	c.message = out.Message()
	return out
}

// Day returns a copy of the cached bookings of day, ordered by start minute.
func (c *Calendar) Day(day string) []booking.Booking {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := c.days[day]
	if len(list) == 0 {
		return nil
	}
	out := make([]booking.Booking, len(list))
	copy(out, list)
	return out
}

// Counts returns the number of cached bookings per day.
func (c *Calendar) Counts() map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int, len(c.days))
	for day, list := range c.days {
		if len(list) > 0 {
			out[day] = len(list)
		}
	}
	return out
}

// MineCounts returns, per day, how many cached bookings belong to userID.
func (c *Calendar) MineCounts(userID string) map[string]int {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int)
	for day, list := range c.days {
		for _, b := range list {
			if b.UserID == userID {
				out[day]++
			}
		}
	}
	return out
}

func (c *Calendar) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Calendar) Submitting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitting
}

// Message is the last user-facing status line; empty when there is nothing to say.
func (c *Calendar) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

func (c *Calendar) ClearMessage() {
	c.mu.Lock()
	c.message = ""
	c.mu.Unlock()
}

func (c *Calendar) insertLocked(day string, b booking.Booking) {
	list := make([]booking.Booking, 0, len(c.days[day])+1)
	list = append(list, c.days[day]...)
	list = append(list, b)
	booking.SortByStart(list)
	c.days[day] = list
}

func (c *Calendar) removeLocked(day, id string) {
	old := c.days[day]
	list := make([]booking.Booking, 0, len(old))
	for _, b := range old {
		if b.ID != id {
			list = append(list, b)
		}
	}
	if len(list) == 0 {
		delete(c.days, day)
		return
	}
	c.days[day] = list
}
