package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"turfbook/internal/database"
	"turfbook/internal/models"
)

// BanRequest is the request body for POST /api/bans.
type BanRequest struct {
	RollNo string `json:"rollno"`
	Reason string `json:"reason"`
}

// handleAddBan blocks an identity from submitting requests.
// POST /api/bans
func (s *Server) handleAddBan(w http.ResponseWriter, r *http.Request) {
	var req BanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.RollNo == "" {
		writeError(w, http.StatusBadRequest, "rollno is required")
		return
	}

	entry, err := s.db.AddBan(r.Context(), req.RollNo, req.Reason)
	if err != nil {
		if errors.Is(err, database.ErrAlreadyBanned) {
			writeError(w, http.StatusConflict, "identity is already banned")
			return
		}
		s.log.Error().Err(err).Str("rollno", req.RollNo).Msg("add ban failed")
		writeError(w, http.StatusInternalServerError, "failed to ban identity")
		return
	}

	s.log.Info().Str("rollno", req.RollNo).Str("reason", req.Reason).Msg("identity banned")
	writeJSON(w, http.StatusOK, map[string]any{"ban": entry})
}

// handleListBans returns all ban entries.
// GET /api/bans
func (s *Server) handleListBans(w http.ResponseWriter, r *http.Request) {
	bans, err := s.db.ListBans(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list bans failed")
		writeError(w, http.StatusInternalServerError, "failed to list bans")
		return
	}
	if bans == nil {
		bans = []models.BanEntry{}
	}
	writeJSON(w, http.StatusOK, bans)
}

// handleRemoveBan lifts a ban.
// DELETE /api/bans/{rollno}
func (s *Server) handleRemoveBan(w http.ResponseWriter, r *http.Request) {
	rollno := mux.Vars(r)["rollno"]

	if err := s.db.RemoveBan(r.Context(), rollno); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusNotFound, "identity is not banned")
			return
		}
		s.log.Error().Err(err).Str("rollno", rollno).Msg("remove ban failed")
		writeError(w, http.StatusInternalServerError, "failed to remove ban")
		return
	}

	s.log.Info().Str("rollno", rollno).Msg("ban lifted")
	writeJSON(w, http.StatusOK, map[string]string{"message": "Ban removed successfully"})
}
