package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"turfbook/internal/database"
	"turfbook/internal/models"
)

// handleAvailability returns the aggregate availability grid: 14 slots for
// each of the two tracked dates.
// GET /api/slots
func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	grid, err := s.arbiter.Availability(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("availability failed")
		writeError(w, http.StatusInternalServerError, "failed to compute slot availability")
		return
	}
	writeJSON(w, http.StatusOK, grid)
}

// handleSlotStatuses returns the denormalized slot status records.
// GET /api/slot-status
func (s *Server) handleSlotStatuses(w http.ResponseWriter, r *http.Request) {
	records, err := s.db.ListSlotStatuses(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list slot statuses failed")
		writeError(w, http.StatusInternalServerError, "failed to list slot statuses")
		return
	}
	if records == nil {
		records = []models.SlotStatusRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleAcceptedHolder returns the accepted record for a (slot, date), if any.
// GET /api/slot-status/{slot}/{date}
func (s *Server) handleAcceptedHolder(w http.ResponseWriter, r *http.Request) {
	slot, ok := pathInt64(r, "slot")
	if !ok || !models.ValidSlot(int(slot)) {
		writeError(w, http.StatusBadRequest, "slot must be between 1 and 14")
		return
	}
	date := mux.Vars(r)["date"]

	holder, err := s.db.AcceptedHolder(r.Context(), int(slot), date)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Empty slot")
			return
		}
		s.log.Error().Err(err).Msg("accepted holder lookup failed")
		writeError(w, http.StatusInternalServerError, "failed to look up slot")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Slot found",
		"data":    holder,
	})
}
