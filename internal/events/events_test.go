package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, e Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	args := m.Called(ctx, exchange, key, mandatory, immediate, msg)
	return args.Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestMulti_PublishesToAllAndJoinsErrors(t *testing.T) {
	e := Event{Type: BookingCreated, BookingID: "b1", Day: "2026-11-02"}
	boom := errors.New("boom")

	first := new(MockPublisher)
	first.On("Publish", mock.Anything, e).Return(boom)
	second := new(MockPublisher)
	second.On("Publish", mock.Anything, e).Return(nil)

	err := Multi{first, nil, second}.Publish(context.Background(), e)

	assert.ErrorIs(t, err, boom)
	first.AssertExpectations(t)
	second.AssertExpectations(t)
}

func TestAMQPPublisher_RoutesByType(t *testing.T) {
	ch := new(MockChannel)
	e := Event{
		Type:       BookingDeleted,
		BookingID:  "b9",
		Day:        "2026-11-02",
		UserID:     "u1",
		OccurredAt: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}

	ch.On("PublishWithContext", mock.Anything, "labbook.events", "booking.deleted", false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			var got Event
			if err := json.Unmarshal(msg.Body, &got); err != nil {
				return false
			}
			return msg.ContentType == "application/json" && msg.MessageId == "b9" && got.Day == "2026-11-02"
		})).Return(nil)

	p := newAMQPPublisher(ch, "labbook.events")
	require.NoError(t, p.Publish(context.Background(), e))
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_WrapsError(t *testing.T) {
	ch := new(MockChannel)
	ch.On("PublishWithContext", mock.Anything, "x", "booking.created", false, false, mock.Anything).
		Return(amqp.ErrClosed)

	p := newAMQPPublisher(ch, "x")
	err := p.Publish(context.Background(), Event{Type: BookingCreated})

	assert.ErrorIs(t, err, amqp.ErrClosed)
}
