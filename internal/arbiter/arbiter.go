// Package arbiter decides which booking request wins a slot. Submissions,
// availability aggregation, queue positions and the accept/decline transition
// with its cascading auto-decline all live here; persistence and notification
// delivery are collaborators.
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"turfbook/internal/civil"
	"turfbook/internal/database"
	"turfbook/internal/models"
)

var (
	ErrBanned        = errors.New("requester is banned")
	ErrInvalidSlot   = errors.New("slot must be between 1 and 14")
	ErrInvalidDate   = errors.New("date must be today or tomorrow")
	ErrInvalidStatus = errors.New("status must be accepted or declined")
	ErrNotFound      = errors.New("request not found")
)

// Store is the persistence contract the arbiter works against. The store
// must apply each operation atomically; in particular AcceptRequest's cascade
// must never be partially visible.
type Store interface {
	CreateRequest(ctx context.Context, r *models.BookingRequest) error
	GetRequest(ctx context.Context, id int64) (*models.BookingRequest, error)
	ListRequestsByDates(ctx context.Context, dates []string) ([]models.BookingRequest, error)
	ListPending(ctx context.Context, slot int, date string) ([]models.BookingRequest, error)
	CountEarlierPending(ctx context.Context, slot int, date string, before time.Time) (int, error)
	AcceptRequest(ctx context.Context, id int64) (*models.BookingRequest, []models.BookingRequest, error)
	DeclineRequest(ctx context.Context, id int64) (*models.BookingRequest, error)
	DeleteRequest(ctx context.Context, id int64) error
	IsBanned(ctx context.Context, rollno string) (bool, error)
}

// Service arbitrates slot contention over the store's data.
type Service struct {
	store  Store
	cal    *civil.Calendar
	logger zerolog.Logger

	// Serializes transitions so no two cascades for the same (slot, date)
	// interleave their pending scans.
	mu sync.Mutex
}

// NewService creates a slot arbiter.
func NewService(store Store, cal *civil.Calendar, logger zerolog.Logger) *Service {
	return &Service{
		store:  store,
		cal:    cal,
		logger: logger.With().Str("component", "arbiter").Logger(),
	}
}

// Submission carries the caller-supplied fields of a new booking request.
type Submission struct {
	Name          string
	RollNo        string
	Email         string
	Purpose       string
	PlayerRollNos string
	PlayerCount   int
	Slot          int
	Date          string
}

// Submit validates a submission and creates the request with status pending
// alongside its slot status record. Banned identities are rejected before
// any state is created.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.BookingRequest, error) {
	if !models.ValidSlot(sub.Slot) {
		return nil, ErrInvalidSlot
	}
	if !s.cal.IsTracked(sub.Date) {
		return nil, ErrInvalidDate
	}

	banned, err := s.store.IsBanned(ctx, sub.RollNo)
	if err != nil {
		return nil, fmt.Errorf("ban check: %w", err)
	}
	if banned {
		return nil, ErrBanned
	}

	r := &models.BookingRequest{
		Name:          sub.Name,
		RollNo:        sub.RollNo,
		Email:         sub.Email,
		Purpose:       sub.Purpose,
		PlayerRollNos: sub.PlayerRollNos,
		PlayerCount:   sub.PlayerCount,
		Slot:          sub.Slot,
		Date:          sub.Date,
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info().
		Int64("request_id", r.ID).
		Str("rollno", r.RollNo).
		Int("slot", r.Slot).
		Str("date", r.Date).
		Msg("booking request submitted")

	return r, nil
}

// Availability aggregates request statuses into the 14-slot grid for both
// tracked dates. Precedence when statuses coexist: booked > requested >
// available. Pure read, never mutates stored state.
func (s *Service) Availability(ctx context.Context) ([]models.SlotAvailability, error) {
	dates := s.cal.Tracked()

	requests, err := s.store.ListRequestsByDates(ctx, dates[:])
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	type key struct {
		slot int
		date string
	}
	grid := make(map[key]string, 2*models.MaxSlot)
	for _, date := range dates {
		for slot := models.MinSlot; slot <= models.MaxSlot; slot++ {
			grid[key{slot, date}] = models.SlotAvailable
		}
	}

	for _, r := range requests {
		k := key{r.Slot, r.Date}
		current, ok := grid[k]
		if !ok {
			continue // stale date or out-of-range slot
		}
		switch r.Status {
		case models.StatusAccepted:
			grid[k] = models.SlotBooked
		case models.StatusPending:
			if current != models.SlotBooked {
				grid[k] = models.SlotRequested
			}
		}
		// Declined requests never change the aggregate.
	}

	out := make([]models.SlotAvailability, 0, 2*models.MaxSlot)
	for _, date := range dates {
		for slot := models.MinSlot; slot <= models.MaxSlot; slot++ {
			out = append(out, models.SlotAvailability{
				Slot:   slot,
				Date:   date,
				Status: grid[key{slot, date}],
			})
		}
	}
	return out, nil
}

// TransitionResult describes the outcome of a status transition.
type TransitionResult struct {
	Request *models.BookingRequest
	// AutoDeclined holds the competitors cascaded to declined on acceptance,
	// so the caller can notify each of them.
	AutoDeclined []models.BookingRequest
}

// Transition moves a request to accepted or declined. Acceptance atomically
// auto-declines every other pending request for the same (slot, date).
//
// FIFO ordering at acceptance is advisory: if an earlier pending request
// exists the transition still proceeds and only a warning is logged. The
// operator initiating acceptance holds override authority.
func (s *Service) Transition(ctx context.Context, id int64, status string) (*TransitionResult, error) {
	if !models.ValidDecision(status) {
		return nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if status == models.StatusDeclined {
		updated, err := s.store.DeclineRequest(ctx, id)
		if err != nil {
			return nil, mapNotFound(err)
		}
		s.logger.Info().Int64("request_id", id).Msg("request declined")
		return &TransitionResult{Request: updated}, nil
	}

	target, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	pending, err := s.store.ListPending(ctx, target.Slot, target.Date)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	if len(pending) > 0 && pending[0].ID != id {
		s.logger.Warn().
			Int64("request_id", id).
			Int64("earlier_request_id", pending[0].ID).
			Int("slot", target.Slot).
			Str("date", target.Date).
			Msg("accepting request while an earlier pending request exists")
	}

	updated, declined, err := s.store.AcceptRequest(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	s.logger.Info().
		Int64("request_id", id).
		Int("slot", updated.Slot).
		Str("date", updated.Date).
		Int("auto_declined", len(declined)).
		Msg("request accepted")

	return &TransitionResult{Request: updated, AutoDeclined: declined}, nil
}

// QueuePosition is the 1-based FIFO rank of a pending request among pending
// requests for the same (slot, date). Position is nil for requests already
// decided.
type QueuePosition struct {
	Status      string
	Position    *int
	Slot        int
	Date        string
	RequestedAt time.Time
}

// Position computes the queue position for a request. This ordering is the
// fairness guarantee shown to end users ahead of the operator's decision.
func (s *Service) Position(ctx context.Context, id int64) (*QueuePosition, error) {
	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}

	qp := &QueuePosition{
		Status:      r.Status,
		Slot:        r.Slot,
		Date:        r.Date,
		RequestedAt: r.CreatedAt,
	}
	if !r.IsPending() {
		return qp, nil
	}

	earlier, err := s.store.CountEarlierPending(ctx, r.Slot, r.Date, r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("count earlier pending: %w", err)
	}
	pos := earlier + 1
	qp.Position = &pos
	return qp, nil
}

// Delete removes a request and its slot status record. Administrative only.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return mapNotFound(err)
	}
	s.logger.Info().Int64("request_id", id).Msg("request deleted")
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
