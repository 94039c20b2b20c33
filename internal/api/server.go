// Package api exposes the booking service over HTTP. Handlers are thin:
// they translate requests into arbiter calls and enqueue the resulting
// notifications; all arbitration rules live in the arbiter.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"turfbook/internal/arbiter"
	"turfbook/internal/civil"
	"turfbook/internal/database"
	"turfbook/internal/mailqueue"
	"turfbook/internal/metrics"
	"turfbook/internal/otp"
)

// TransportVerifier is the health-check view of the mail transport.
type TransportVerifier interface {
	Verify(ctx context.Context) error
}

// Letters configures the signature appended to notification mail.
type Letters struct {
	SignatureName  string
	SignaturePhone string
}

// Server wires HTTP routes to the arbiter, store and notification queue.
type Server struct {
	arbiter  *arbiter.Service
	db       *database.DB
	queue    *mailqueue.Queue
	otp      *otp.Service
	verifier TransportVerifier
	cal      *civil.Calendar
	letters  Letters
	log      zerolog.Logger
	started  time.Time
}

// NewServer creates the HTTP surface. otpSvc may be nil when redis is not
// configured; the OTP routes then answer 503.
func NewServer(
	arb *arbiter.Service,
	db *database.DB,
	queue *mailqueue.Queue,
	otpSvc *otp.Service,
	verifier TransportVerifier,
	cal *civil.Calendar,
	letters Letters,
	logger zerolog.Logger,
) *Server {
	return &Server{
		arbiter:  arb,
		db:       db,
		queue:    queue,
		otp:      otpSvc,
		verifier: verifier,
		cal:      cal,
		letters:  letters,
		log:      logger.With().Str("component", "api").Logger(),
		started:  time.Now(),
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.metricsMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet).Name("health")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/requests", s.handleSubmit).Methods(http.MethodPost).Name("submit_request")
	api.HandleFunc("/requests", s.handleListRequests).Methods(http.MethodGet).Name("list_requests")
	api.HandleFunc("/requests/{id:[0-9]+}", s.handleDeleteRequest).Methods(http.MethodDelete).Name("delete_request")
	api.HandleFunc("/requests/{id:[0-9]+}/status", s.handleTransition).Methods(http.MethodPut).Name("transition_request")
	api.HandleFunc("/requests/{id:[0-9]+}/queue-position", s.handleQueuePosition).Methods(http.MethodGet).Name("queue_position")
	api.HandleFunc("/pending/{slot:[0-9]+}/{date}", s.handlePending).Methods(http.MethodGet).Name("pending_requests")

	api.HandleFunc("/slots", s.handleAvailability).Methods(http.MethodGet).Name("slot_availability")
	api.HandleFunc("/slot-status", s.handleSlotStatuses).Methods(http.MethodGet).Name("slot_statuses")
	api.HandleFunc("/slot-status/{slot:[0-9]+}/{date}", s.handleAcceptedHolder).Methods(http.MethodGet).Name("accepted_holder")

	api.HandleFunc("/bans", s.handleAddBan).Methods(http.MethodPost).Name("add_ban")
	api.HandleFunc("/bans", s.handleListBans).Methods(http.MethodGet).Name("list_bans")
	api.HandleFunc("/bans/{rollno}", s.handleRemoveBan).Methods(http.MethodDelete).Name("remove_ban")

	api.HandleFunc("/queue/status", s.handleQueueStatus).Methods(http.MethodGet).Name("queue_status")
	api.HandleFunc("/queue/retry", s.handleQueueRetry).Methods(http.MethodPost).Name("queue_retry")
	api.HandleFunc("/queue", s.handleQueueClear).Methods(http.MethodDelete).Name("queue_clear")

	api.HandleFunc("/otp/send", s.handleSendOTP).Methods(http.MethodPost).Name("otp_send")
	api.HandleFunc("/otp/verify", s.handleVerifyOTP).Methods(http.MethodPost).Name("otp_verify")

	api.HandleFunc("/export", s.handleExport).Methods(http.MethodGet).Name("export_requests")

	return r
}

// statusRecorder captures the response code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := "unknown"
		if route := mux.CurrentRoute(r); route != nil && route.GetName() != "" {
			name = route.GetName()
		}

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		metrics.ObserveHTTP(name, strconv.Itoa(rec.code), time.Since(start).Seconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func pathInt64(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	return v, err == nil
}
