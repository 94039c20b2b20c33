// Package mailqueue is the ordered, in-memory notification queue. One drain
// worker delivers jobs FIFO through the mail transport, retrying transient
// failures with linear backoff. Enqueueing never blocks and delivery
// failures never reach the caller; they surface only in Stats.
package mailqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"turfbook/internal/mailer"
	"turfbook/internal/metrics"
)

// Config holds retry and pacing knobs.
type Config struct {
	// MaxAttempts per job before it is dropped.
	MaxAttempts int
	// BaseRetryDelay: delay before retry i is BaseRetryDelay * i (linear).
	BaseRetryDelay time.Duration
	// InterJobDelay is the fixed pause after each job, success or failure.
	InterJobDelay time.Duration
	// AttemptTimeout bounds a single delivery attempt.
	AttemptTimeout time.Duration
}

// DefaultConfig mirrors the production pacing: 3 attempts, 3s linear
// backoff, 3s between jobs, 45s per attempt.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		BaseRetryDelay: 3 * time.Second,
		InterJobDelay:  3 * time.Second,
		AttemptTimeout: 45 * time.Second,
	}
}

// Job is one queued unit of outbound messaging. Ephemeral: jobs live only in
// memory and are lost on restart.
type Job struct {
	ID         string    `json:"id"`
	Recipient  string    `json:"recipient"`
	Subject    string    `json:"subject"`
	Body       string    `json:"-"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Stats is a point-in-time snapshot of queue health.
type Stats struct {
	QueueLength  int    `json:"queueLength"`
	Processing   bool   `json:"processing"`
	SuccessCount int64  `json:"successCount"`
	FailureCount int64  `json:"failureCount"`
	LastError    string `json:"lastError,omitempty"`
}

// Queue drains notification jobs sequentially against the transport.
type Queue struct {
	transport mailer.Transport
	cfg       Config
	logger    zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu           sync.Mutex
	jobs         []Job
	processing   bool
	successCount int64
	failureCount int64
	lastError    string
}

// New creates a queue. The worker is spawned lazily on the first enqueue.
func New(transport mailer.Transport, cfg Config, logger zerolog.Logger) *Queue {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		transport: transport,
		cfg:       cfg,
		logger:    logger.With().Str("component", "mailqueue").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Enqueue appends a job and starts the drain worker if none is active.
// Always succeeds; there is no capacity limit and no backpressure.
func (q *Queue) Enqueue(recipient, subject, body string) {
	job := Job{
		ID:         uuid.NewString(),
		Recipient:  recipient,
		Subject:    subject,
		Body:       body,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	length := len(q.jobs)
	spawn := !q.processing
	if spawn {
		q.processing = true
	}
	q.mu.Unlock()

	metrics.SetMailQueueLength(length)
	q.logger.Info().
		Str("job_id", job.ID).
		Str("recipient", recipient).
		Int("queue_length", length).
		Msg("notification queued")

	if spawn {
		q.wg.Add(1)
		go q.drain()
	}
}

// Kick restarts the drain worker if it is idle and jobs remain, e.g. after
// an operator-triggered replay. Reports whether a worker was started.
func (q *Queue) Kick() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.processing || len(q.jobs) == 0 {
		return false
	}
	q.processing = true
	q.wg.Add(1)
	go q.drain()
	return true
}

// Clear discards all queued jobs. An in-flight delivery is not interrupted.
func (q *Queue) Clear() int {
	q.mu.Lock()
	n := len(q.jobs)
	q.jobs = nil
	q.mu.Unlock()

	metrics.SetMailQueueLength(0)
	q.logger.Info().Int("discarded", n).Msg("notification queue cleared")
	return n
}

// Stats returns current queue health. Pure read.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		QueueLength:  len(q.jobs),
		Processing:   q.processing,
		SuccessCount: q.successCount,
		FailureCount: q.failureCount,
		LastError:    q.lastError,
	}
}

// Stop cancels the worker and waits for it to exit. Queued jobs are
// abandoned; undelivered notifications carry no durability guarantee.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// drain pops and delivers jobs until the queue is empty, then exits and
// clears the processing flag so the next enqueue respawns it.
func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.jobs) == 0 || q.ctx.Err() != nil {
			q.processing = false
			q.mu.Unlock()
			q.logger.Debug().Msg("notification queue drained")
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		length := len(q.jobs)
		q.mu.Unlock()

		metrics.SetMailQueueLength(length)

		if err := q.deliver(job); err != nil {
			q.mu.Lock()
			q.failureCount++
			q.lastError = err.Error()
			q.mu.Unlock()
			metrics.IncMailFailed()
			q.logger.Error().Err(err).
				Str("job_id", job.ID).
				Str("recipient", job.Recipient).
				Msg("notification dropped after exhausting retries")
		} else {
			q.mu.Lock()
			q.successCount++
			q.mu.Unlock()
			metrics.IncMailSent()
			q.logger.Info().
				Str("job_id", job.ID).
				Str("recipient", job.Recipient).
				Msg("notification delivered")
		}

		// Fixed pacing between jobs; throughput is deliberately traded for
		// not overwhelming the relay.
		if !q.sleep(q.cfg.InterJobDelay) {
			q.mu.Lock()
			q.processing = false
			q.mu.Unlock()
			return
		}
	}
}

// deliver attempts one job up to MaxAttempts times with linear backoff.
// Connection-class failures discard the transport connection before the
// next attempt.
func (q *Queue) deliver(job Job) error {
	var lastErr error

	for attempt := 1; attempt <= q.cfg.MaxAttempts; attempt++ {
		ctx := q.ctx
		var cancel context.CancelFunc
		if q.cfg.AttemptTimeout > 0 {
			ctx, cancel = context.WithTimeout(q.ctx, q.cfg.AttemptTimeout)
		}
		err := q.transport.Send(ctx, job.Recipient, job.Subject, job.Body)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == q.cfg.MaxAttempts {
			break
		}

		metrics.IncMailRetries()
		delay := q.cfg.BaseRetryDelay * time.Duration(attempt)
		q.logger.Warn().Err(err).
			Str("job_id", job.ID).
			Int("attempt", attempt).
			Dur("retry_in", delay).
			Msg("delivery attempt failed")

		if !q.sleep(delay) {
			return lastErr
		}

		if mailer.IsConnError(err) {
			q.transport.Reset()
		}
	}

	return lastErr
}

// sleep waits d, returning false if the queue was stopped meanwhile.
func (q *Queue) sleep(d time.Duration) bool {
	if d <= 0 {
		return q.ctx.Err() == nil
	}
	select {
	case <-time.After(d):
		return true
	case <-q.ctx.Done():
		return false
	}
}
