package api

import "net/http"

// handleQueueStatus returns notification queue health.
// GET /api/queue/status
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.queue.Stats())
}

// handleQueueRetry restarts the drain worker if it is idle with jobs queued.
// POST /api/queue/retry
func (s *Server) handleQueueRetry(w http.ResponseWriter, r *http.Request) {
	stats := s.queue.Stats()
	switch {
	case s.queue.Kick():
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Queue processing restarted",
			"queueLength": stats.QueueLength,
		})
	case stats.Processing:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Queue is already processing",
			"queueLength": stats.QueueLength,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     "Queue is empty",
			"queueLength": 0,
		})
	}
}

// handleQueueClear discards all queued jobs. In-flight delivery finishes.
// DELETE /api/queue
func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	discarded := s.queue.Clear()
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Queue cleared successfully",
		"discarded": discarded,
	})
}
