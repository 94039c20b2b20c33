package arbiter

import (
	"context"
	"io"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turfbook/internal/civil"
	"turfbook/internal/database"
	"turfbook/internal/models"
)

// fakeStore is an in-memory Store with the same atomicity guarantees as the
// sqlite implementation.
type fakeStore struct {
	requests map[int64]*models.BookingRequest
	banned   map[string]bool
	nextID   int64
	clock    time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[int64]*models.BookingRequest),
		banned:   make(map[string]bool),
		clock:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
	}
}

func (s *fakeStore) CreateRequest(_ context.Context, r *models.BookingRequest) error {
	s.nextID++
	s.clock = s.clock.Add(time.Second)
	r.ID = s.nextID
	r.Status = models.StatusPending
	r.CreatedAt = s.clock
	r.UpdatedAt = s.clock
	copied := *r
	s.requests[r.ID] = &copied
	return nil
}

func (s *fakeStore) GetRequest(_ context.Context, id int64) (*models.BookingRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *fakeStore) ListRequestsByDates(_ context.Context, dates []string) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	for _, r := range s.requests {
		for _, d := range dates {
			if r.Date == d {
				out = append(out, *r)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) ListPending(_ context.Context, slot int, date string) ([]models.BookingRequest, error) {
	var out []models.BookingRequest
	for _, r := range s.requests {
		if r.Slot == slot && r.Date == date && r.Status == models.StatusPending {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *fakeStore) CountEarlierPending(_ context.Context, slot int, date string, before time.Time) (int, error) {
	n := 0
	for _, r := range s.requests {
		if r.Slot == slot && r.Date == date && r.Status == models.StatusPending && r.CreatedAt.Before(before) {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) AcceptRequest(ctx context.Context, id int64) (*models.BookingRequest, []models.BookingRequest, error) {
	target, ok := s.requests[id]
	if !ok {
		return nil, nil, database.ErrNotFound
	}
	var declined []models.BookingRequest
	for _, r := range s.requests {
		if r.ID != id && r.Slot == target.Slot && r.Date == target.Date && r.Status == models.StatusPending {
			r.Status = models.StatusDeclined
			declined = append(declined, *r)
		}
	}
	sort.Slice(declined, func(i, j int) bool { return declined[i].CreatedAt.Before(declined[j].CreatedAt) })
	target.Status = models.StatusAccepted
	copied := *target
	return &copied, declined, nil
}

func (s *fakeStore) DeclineRequest(_ context.Context, id int64) (*models.BookingRequest, error) {
	r, ok := s.requests[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	r.Status = models.StatusDeclined
	copied := *r
	return &copied, nil
}

func (s *fakeStore) DeleteRequest(_ context.Context, id int64) error {
	if _, ok := s.requests[id]; !ok {
		return database.ErrNotFound
	}
	delete(s.requests, id)
	return nil
}

func (s *fakeStore) IsBanned(_ context.Context, rollno string) (bool, error) {
	return s.banned[rollno], nil
}

func testService(store Store) *Service {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cal := civil.NewWithClock(civil.DefaultOffsetMinutes, func() time.Time { return now })
	return NewService(store, cal, zerolog.New(io.Discard))
}

func submission(rollno string, slot int, date string) Submission {
	return Submission{
		Name:        "Player " + rollno,
		RollNo:      rollno,
		Email:       rollno + "@example.edu",
		Purpose:     "practice",
		PlayerCount: 8,
		Slot:        slot,
		Date:        date,
	}
}

func TestSubmit(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	r, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.NotZero(t, r.ID)
}

func TestSubmitValidation(t *testing.T) {
	store := newFakeStore()
	store.banned["23b0666"] = true
	svc := testService(store)
	ctx := context.Background()

	_, err := svc.Submit(ctx, submission("23b0001", 0, "2025-06-01"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = svc.Submit(ctx, submission("23b0001", 15, "2025-06-01"))
	assert.ErrorIs(t, err, ErrInvalidSlot)

	_, err = svc.Submit(ctx, submission("23b0001", 3, "2025-06-05"))
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = svc.Submit(ctx, submission("23b0666", 3, "2025-06-01"))
	assert.ErrorIs(t, err, ErrBanned)

	// Validation short-circuits before the ban check leaves any state.
	assert.Empty(t, store.requests)
}

func TestAvailabilityPrecedence(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	// Slot 3 today: one accepted, one pending. Booked must win.
	winner, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)
	_, err = svc.Submit(ctx, submission("23b0002", 3, "2025-06-01"))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, winner.ID, models.StatusAccepted)
	require.NoError(t, err)

	// Slot 5 tomorrow: pending only.
	_, err = svc.Submit(ctx, submission("23b0003", 5, "2025-06-02"))
	require.NoError(t, err)

	// Slot 7 today: declined only, stays available.
	loser, err := svc.Submit(ctx, submission("23b0004", 7, "2025-06-01"))
	require.NoError(t, err)
	_, err = svc.Transition(ctx, loser.ID, models.StatusDeclined)
	require.NoError(t, err)

	grid, err := svc.Availability(ctx)
	require.NoError(t, err)
	require.Len(t, grid, 2*models.MaxSlot)

	byKey := make(map[string]string)
	for _, cell := range grid {
		byKey[cell.Date+"#"+strconv.Itoa(cell.Slot)] = cell.Status
	}
	assert.Equal(t, models.SlotBooked, byKey["2025-06-01#3"])
	assert.Equal(t, models.SlotRequested, byKey["2025-06-02#5"])
	assert.Equal(t, models.SlotAvailable, byKey["2025-06-01#7"])
	assert.Equal(t, models.SlotAvailable, byKey["2025-06-02#14"])
}

func TestTransitionAcceptCascades(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	first, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, submission("23b0002", 3, "2025-06-01"))
	require.NoError(t, err)
	third, err := svc.Submit(ctx, submission("23b0003", 3, "2025-06-01"))
	require.NoError(t, err)
	unrelated, err := svc.Submit(ctx, submission("23b0004", 4, "2025-06-01"))
	require.NoError(t, err)

	// Accepting out of FIFO order is allowed; the cascade still applies.
	res, err := svc.Transition(ctx, second.ID, models.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, res.Request.Status)
	require.Len(t, res.AutoDeclined, 2)
	assert.Equal(t, first.ID, res.AutoDeclined[0].ID)
	assert.Equal(t, third.ID, res.AutoDeclined[1].ID)

	got, err := store.GetRequest(ctx, unrelated.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestTransitionDecline(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	first, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, submission("23b0002", 3, "2025-06-01"))
	require.NoError(t, err)

	res, err := svc.Transition(ctx, first.ID, models.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, res.Request.Status)
	assert.Empty(t, res.AutoDeclined)

	// Declining one request never touches its competitors.
	got, err := store.GetRequest(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)
}

func TestTransitionErrors(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	_, err := svc.Transition(ctx, 1, "pending")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Transition(ctx, 1, "approved")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Transition(ctx, 99, models.StatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Transition(ctx, 99, models.StatusDeclined)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPosition(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	first, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)
	second, err := svc.Submit(ctx, submission("23b0002", 3, "2025-06-01"))
	require.NoError(t, err)
	elsewhere, err := svc.Submit(ctx, submission("23b0003", 4, "2025-06-01"))
	require.NoError(t, err)

	qp, err := svc.Position(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, qp.Position)
	assert.Equal(t, 1, *qp.Position)

	qp, err = svc.Position(ctx, second.ID)
	require.NoError(t, err)
	require.NotNil(t, qp.Position)
	assert.Equal(t, 2, *qp.Position)

	// A different slot has its own queue.
	qp, err = svc.Position(ctx, elsewhere.ID)
	require.NoError(t, err)
	require.NotNil(t, qp.Position)
	assert.Equal(t, 1, *qp.Position)

	// Decided requests report status only.
	_, err = svc.Transition(ctx, first.ID, models.StatusAccepted)
	require.NoError(t, err)
	qp, err = svc.Position(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, qp.Status)
	assert.Nil(t, qp.Position)

	_, err = svc.Position(ctx, 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := newFakeStore()
	svc := testService(store)
	ctx := context.Background()

	r, err := svc.Submit(ctx, submission("23b0001", 3, "2025-06-01"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, r.ID))
	assert.ErrorIs(t, svc.Delete(ctx, r.ID), ErrNotFound)
}
