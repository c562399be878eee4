package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"labbook/internal/events"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) ListRange(ctx context.Context, from, to time.Time) ([]Booking, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *mockRepo) Create(ctx context.Context, b *Booking) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id string) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockNames struct {
	mock.Mock
}

func (m *mockNames) DisplayName(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e events.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func newTestService(repo *mockRepo, names *mockNames, pub *mockPublisher) *Service {
	s := NewService(repo, names, pub, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	return s
}

func TestCreate_Validation(t *testing.T) {
	repo := new(mockRepo)
	s := newTestService(repo, new(mockNames), new(mockPublisher))
	ctx := context.Background()

	cases := []struct {
		name   string
		userID string
		in     CreateInput
		want   error
	}{
		{"no user", "", CreateInput{Day: "2026-03-11", StartMinute: 540, EndMinute: 600}, ErrForbidden},
		{"bad day", "u1", CreateInput{Day: "2026-3-11", StartMinute: 540, EndMinute: 600}, ErrValidation},
		{"reversed", "u1", CreateInput{Day: "2026-03-11", StartMinute: 600, EndMinute: 540}, ErrInvalidRange},
		{"empty", "u1", CreateInput{Day: "2026-03-11", StartMinute: 600, EndMinute: 600}, ErrInvalidRange},
		{"past midnight", "u1", CreateInput{Day: "2026-03-11", StartMinute: 1400, EndMinute: 1441}, ErrInvalidRange},
		{"negative", "u1", CreateInput{Day: "2026-03-11", StartMinute: -1, EndMinute: 60}, ErrInvalidRange},
		{"yesterday", "u1", CreateInput{Day: "2026-03-09", StartMinute: 540, EndMinute: 600}, ErrPastDate},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Create(ctx, tc.userID, tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreate_TodayAllowedAndNoteFromDisplayName(t *testing.T) {
	repo, names, pub := new(mockRepo), new(mockNames), new(mockPublisher)
	s := newTestService(repo, names, pub)
	ctx := context.Background()

	names.On("DisplayName", ctx, "u1").Return("Ada L.", nil)
	repo.On("Create", ctx, mock.MatchedBy(func(b *Booking) bool {
		return b.Day == "2026-03-10" && b.Note == "Ada L." && b.UserID == "u1"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Booking).ID = "b1"
	}).Return(nil)
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == events.BookingCreated && e.BookingID == "b1" && e.Day == "2026-03-10"
	})).Return(nil)

	b, err := s.Create(ctx, "u1", CreateInput{Day: "2026-03-10", StartMinute: 0, EndMinute: 1440})
	require.NoError(t, err)
	assert.Equal(t, "b1", b.ID)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestCreate_KeepsExplicitNoteAndSurvivesPublishFailure(t *testing.T) {
	repo, names, pub := new(mockRepo), new(mockNames), new(mockPublisher)
	s := newTestService(repo, names, pub)
	ctx := context.Background()

	repo.On("Create", ctx, mock.MatchedBy(func(b *Booking) bool { return b.Note == "journal club" })).Return(nil)
	pub.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	_, err := s.Create(ctx, "u1", CreateInput{Day: "2026-03-12", StartMinute: 540, EndMinute: 600, Note: " journal club "})
	require.NoError(t, err)
	names.AssertNotCalled(t, "DisplayName", mock.Anything, mock.Anything)
}

func TestCreate_PassesOverlapThrough(t *testing.T) {
	repo, names, pub := new(mockRepo), new(mockNames), new(mockPublisher)
	s := newTestService(repo, names, pub)
	ctx := context.Background()

	names.On("DisplayName", ctx, "u1").Return("", errors.New("lookup failed"))
	repo.On("Create", ctx, mock.Anything).Return(ErrOverlap)

	_, err := s.Create(ctx, "u1", CreateInput{Day: "2026-03-12", StartMinute: 540, EndMinute: 600})
	assert.ErrorIs(t, err, ErrOverlap)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDelete_OwnerOnly(t *testing.T) {
	repo, names, pub := new(mockRepo), new(mockNames), new(mockPublisher)
	s := newTestService(repo, names, pub)
	ctx := context.Background()

	owned := &Booking{ID: "b1", Day: "2026-03-12", UserID: "alice", StartMinute: 540, EndMinute: 600}
	repo.On("GetByID", ctx, "b1").Return(owned, nil)
	repo.On("GetByID", ctx, "missing").Return(nil, ErrNotFound)
	repo.On("Delete", ctx, "b1").Return(nil).Once()
	pub.On("Publish", ctx, mock.MatchedBy(func(e events.Event) bool { return e.Type == events.BookingDeleted })).Return(nil)

	_, err := s.Delete(ctx, "bob", "b1")
	assert.ErrorIs(t, err, ErrForbidden)
	repo.AssertNotCalled(t, "Delete", ctx, "b1")

	_, err = s.Delete(ctx, "alice", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	b, err := s.Delete(ctx, "alice", "b1")
	require.NoError(t, err)
	assert.Equal(t, owned, b)
	pub.AssertExpectations(t)
}

func TestList_ValidatesWindow(t *testing.T) {
	repo := new(mockRepo)
	s := newTestService(repo, new(mockNames), new(mockPublisher))
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	repo.On("ListRange", ctx, from, to).Return([]Booking{{ID: "b1"}}, nil)

	list, err := s.List(ctx, "2026-03-01", "2026-03-31")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.List(ctx, "2026-03-31", "2026-03-01")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.List(ctx, "2026-01-01", "2026-12-31")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = s.List(ctx, "march", "2026-03-31")
	assert.ErrorIs(t, err, ErrValidation)
}
