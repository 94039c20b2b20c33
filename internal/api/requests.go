package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"turfbook/internal/arbiter"
	"turfbook/internal/metrics"
	"turfbook/internal/models"
)

// SubmitRequest is the request body for POST /api/requests.
type SubmitRequest struct {
	Name          string `json:"name"`
	RollNo        string `json:"rollno"`
	Email         string `json:"email"`
	Purpose       string `json:"purpose"`
	PlayerRollNos string `json:"player_roll_no"`
	PlayerCount   int    `json:"no_of_players"`
	Slot          int    `json:"slot"`
	Date          string `json:"date"`
}

// SubmitResponse is the response for POST /api/requests.
type SubmitResponse struct {
	Request     *models.BookingRequest `json:"request"`
	Message     string                 `json:"message"`
	EmailQueued bool                   `json:"emailQueued"`
}

// handleSubmit creates a new booking request and queues the acknowledgement.
// POST /api/requests
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.RollNo == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "rollno and email are required")
		return
	}

	created, err := s.arbiter.Submit(r.Context(), arbiter.Submission{
		Name:          req.Name,
		RollNo:        req.RollNo,
		Email:         req.Email,
		Purpose:       req.Purpose,
		PlayerRollNos: req.PlayerRollNos,
		PlayerCount:   req.PlayerCount,
		Slot:          req.Slot,
		Date:          req.Date,
	})
	if err != nil {
		switch {
		case errors.Is(err, arbiter.ErrBanned):
			metrics.IncSubmitted("banned")
			writeError(w, http.StatusForbidden, "Booking denied: You are currently restricted from this service")
		case errors.Is(err, arbiter.ErrInvalidSlot), errors.Is(err, arbiter.ErrInvalidDate):
			metrics.IncSubmitted("invalid")
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			metrics.IncSubmitted("error")
			s.log.Error().Err(err).Str("rollno", req.RollNo).Msg("submit failed")
			writeError(w, http.StatusInternalServerError, "failed to create booking request")
		}
		return
	}

	metrics.IncSubmitted("created")
	s.queue.Enqueue(created.Email, subjectAcknowledged, s.acknowledgementLetter(created))

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Request:     created,
		Message:     "Request submitted successfully. Queue position is based on " + s.formatLocal(created.CreatedAt),
		EmailQueued: true,
	})
}

// handleListRequests returns all booking requests, newest first.
// GET /api/requests
func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := s.db.ListRequests(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list requests failed")
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	if requests == nil {
		requests = []models.BookingRequest{}
	}
	writeJSON(w, http.StatusOK, requests)
}

// TransitionRequest is the request body for PUT /api/requests/{id}/status.
type TransitionRequest struct {
	Status string `json:"status"`
}

// TransitionResponse is the response for PUT /api/requests/{id}/status.
type TransitionResponse struct {
	Message           string                 `json:"message"`
	Request           *models.BookingRequest `json:"request"`
	AutoDeclinedCount int                    `json:"autoDeclinedCount"`
	EmailQueued       bool                   `json:"emailQueued"`
}

// handleTransition accepts or declines a request. Acceptance cascades an
// auto-decline over the remaining pending competitors; every affected
// requester gets one notification.
// PUT /api/requests/{id}/status
func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := s.arbiter.Transition(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, arbiter.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "Invalid status")
		case errors.Is(err, arbiter.ErrNotFound):
			writeError(w, http.StatusNotFound, "Request not found")
		default:
			s.log.Error().Err(err).Int64("request_id", id).Msg("transition failed")
			writeError(w, http.StatusInternalServerError, "failed to update status")
		}
		return
	}

	metrics.IncDecision(req.Status)
	metrics.AddAutoDeclined(len(result.AutoDeclined))

	target := result.Request
	if req.Status == models.StatusAccepted {
		s.queue.Enqueue(target.Email, subjectConfirmed, s.confirmationLetter(target))
		for i := range result.AutoDeclined {
			loser := &result.AutoDeclined[i]
			s.queue.Enqueue(loser.Email, subjectAutoDeclined, s.autoDeclineLetter(target))
		}
	} else {
		s.queue.Enqueue(target.Email, subjectDeclined, s.declineLetter())
	}

	writeJSON(w, http.StatusOK, TransitionResponse{
		Message:           "Status updated successfully",
		Request:           target,
		AutoDeclinedCount: len(result.AutoDeclined),
		EmailQueued:       true,
	})
}

// QueuePositionResponse is the response for GET /api/requests/{id}/queue-position.
type QueuePositionResponse struct {
	Message     string `json:"message"`
	Position    *int   `json:"position"`
	Status      string `json:"status"`
	RequestTime string `json:"requestTime,omitempty"`
	Slot        int    `json:"slot,omitempty"`
	Date        string `json:"date,omitempty"`
}

// handleQueuePosition returns the FIFO rank of a pending request.
// GET /api/requests/{id}/queue-position
func (s *Server) handleQueuePosition(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	qp, err := s.arbiter.Position(r.Context(), id)
	if err != nil {
		if errors.Is(err, arbiter.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found")
			return
		}
		s.log.Error().Err(err).Int64("request_id", id).Msg("queue position failed")
		writeError(w, http.StatusInternalServerError, "failed to compute queue position")
		return
	}

	if qp.Position == nil {
		writeJSON(w, http.StatusOK, QueuePositionResponse{
			Message:  "Request is " + qp.Status,
			Position: nil,
			Status:   qp.Status,
		})
		return
	}

	writeJSON(w, http.StatusOK, QueuePositionResponse{
		Message:     "Queue position calculated",
		Position:    qp.Position,
		Status:      qp.Status,
		RequestTime: qp.RequestedAt.In(s.cal.Location()).Format("2006-01-02 15:04:05"),
		Slot:        qp.Slot,
		Date:        qp.Date,
	})
}

// handlePending returns pending requests for a (slot, date), FIFO order.
// GET /api/pending/{slot}/{date}
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	slot, ok := pathInt64(r, "slot")
	if !ok || !models.ValidSlot(int(slot)) {
		writeError(w, http.StatusBadRequest, "slot must be between 1 and 14")
		return
	}
	date := mux.Vars(r)["date"]

	pending, err := s.db.ListPending(r.Context(), int(slot), date)
	if err != nil {
		s.log.Error().Err(err).Msg("list pending failed")
		writeError(w, http.StatusInternalServerError, "failed to list pending requests")
		return
	}
	if pending == nil {
		pending = []models.BookingRequest{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// handleDeleteRequest removes a request and its slot status record.
// DELETE /api/requests/{id}
func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt64(r, "id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	if err := s.arbiter.Delete(r.Context(), id); err != nil {
		if errors.Is(err, arbiter.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Request not found")
			return
		}
		s.log.Error().Err(err).Int64("request_id", id).Msg("delete failed")
		writeError(w, http.StatusInternalServerError, "failed to delete request")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Request deleted successfully"})
}
