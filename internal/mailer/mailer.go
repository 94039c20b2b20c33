// Package mailer is the outbound message transport. It keeps one SMTP
// connection alive, throttles sends, and classifies failures so the queue
// can tell a flaky connection from a permanently undeliverable message.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Transport sends one message to one recipient. Failures are either
// connection-class (retryable after Reset) or permanent.
type Transport interface {
	Send(ctx context.Context, recipient, subject, body string) error
	Reset()
}

// Config holds SMTP settings.
type Config struct {
	Host           string
	Port           int
	Username       string
	Password       string
	Sender         string
	AttemptTimeout time.Duration
	// SendInterval spaces out deliveries so the relay's own rate limiting
	// never kicks in. Zero disables throttling.
	SendInterval time.Duration
}

// SMTPMailer is a Transport over a persistent STARTTLS SMTP connection.
type SMTPMailer struct {
	cfg     Config
	logger  zerolog.Logger
	limiter *rate.Limiter

	mu     sync.Mutex
	conn   net.Conn
	client *smtp.Client
}

// New creates an SMTP mailer. No connection is made until the first send.
func New(cfg Config, logger zerolog.Logger) *SMTPMailer {
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = 45 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.SendInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.SendInterval), 1)
	}
	return &SMTPMailer{
		cfg:     cfg,
		logger:  logger.With().Str("component", "mailer").Logger(),
		limiter: limiter,
	}
}

func (m *SMTPMailer) addr() string {
	return fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
}

// connect dials the relay and upgrades to TLS. Caller holds m.mu.
func (m *SMTPMailer) connect(deadline time.Time) error {
	conn, err := net.DialTimeout("tcp", m.addr(), time.Until(deadline))
	if err != nil {
		return fmt.Errorf("dial %s: %w", m.addr(), err)
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			client.Close()
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			client.Close()
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	m.conn = conn
	m.client = client
	m.logger.Debug().Str("addr", m.addr()).Msg("SMTP connection established")
	return nil
}

// Send delivers one message within the attempt timeout.
func (m *SMTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}

	deadline := time.Now().Add(m.cfg.AttemptTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.connect(deadline); err != nil {
			return err
		}
	} else {
		_ = m.conn.SetDeadline(deadline)
	}

	err := m.submit(recipient, subject, body)
	if err != nil {
		// A broken pipeline poisons subsequent commands; drop the
		// connection so the next attempt starts clean.
		if IsConnError(err) {
			m.closeLocked()
		} else {
			_ = m.client.Reset()
		}
		return err
	}
	return nil
}

func (m *SMTPMailer) submit(recipient, subject, body string) error {
	if err := m.client.Mail(m.cfg.Sender); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	if err := m.client.Rcpt(recipient); err != nil {
		return fmt.Errorf("RCPT TO: %w", err)
	}
	w, err := m.client.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(composeMessage(m.cfg.Sender, recipient, subject, body)); err != nil {
		w.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return nil
}

// Reset discards the current connection so the next send rebuilds it.
func (m *SMTPMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *SMTPMailer) closeLocked() {
	if m.client != nil {
		_ = m.client.Close()
		m.client = nil
		m.conn = nil
		m.logger.Debug().Msg("SMTP connection discarded")
	}
}

// Verify checks the relay is reachable. Used at startup and by health checks.
func (m *SMTPMailer) Verify(ctx context.Context) error {
	deadline := time.Now().Add(m.cfg.AttemptTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client == nil {
		if err := m.connect(deadline); err != nil {
			return err
		}
		return nil
	}
	_ = m.conn.SetDeadline(deadline)
	if err := m.client.Noop(); err != nil {
		m.closeLocked()
		return err
	}
	return nil
}

func composeMessage(sender, recipient, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}
