package api

import (
	"context"
	"net/http"
	"time"

	"turfbook/internal/audit"
	"turfbook/internal/mailqueue"
)

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status        string          `json:"status"`
	Timestamp     string          `json:"timestamp"`
	DBHealth      string          `json:"dbHealth"`
	MailHealth    string          `json:"mailHealth"`
	QueueStats    mailqueue.Stats `json:"queueStats"`
	UptimeSeconds float64         `json:"uptime"`
}

// handleHealth reports store and transport reachability plus queue health.
// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:        "OK",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		DBHealth:      "connected",
		MailHealth:    "connected",
		QueueStats:    s.queue.Stats(),
		UptimeSeconds: time.Since(s.started).Seconds(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		resp.DBHealth = "failed"
	}
	if s.verifier != nil {
		if err := s.verifier.Verify(ctx); err != nil {
			resp.MailHealth = "failed"
		}
	} else {
		resp.MailHealth = "unknown"
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleExport streams all booking requests as an xlsx workbook.
// GET /api/export
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	requests, err := s.db.ListRequests(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "failed to export requests")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="booking_requests.xlsx"`)
	if err := audit.WriteRequests(w, requests); err != nil {
		s.log.Error().Err(err).Msg("export write failed")
	}
}
