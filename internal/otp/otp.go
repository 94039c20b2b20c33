// Package otp issues and verifies one-time codes for identity verification.
// Codes live in redis with a short TTL; delivery goes straight through the
// mail transport since the caller waits on the outcome.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"turfbook/internal/mailer"
)

var (
	ErrInvalidEmail = errors.New("email is not an allowed address")
	ErrCodeMismatch = errors.New("invalid or expired code")
)

const codeLength = 6

// Config holds OTP settings.
type Config struct {
	// TTL of an issued code. Default 5 minutes.
	TTL time.Duration
	// AllowedSuffix restricts issuance to one mail domain; empty allows any.
	AllowedSuffix string
}

// Service issues and verifies one-time codes.
type Service struct {
	rdb       *redis.Client
	transport mailer.Transport
	cfg       Config
	logger    zerolog.Logger
}

// NewService creates an OTP service.
func NewService(rdb *redis.Client, transport mailer.Transport, cfg Config, logger zerolog.Logger) *Service {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	return &Service{
		rdb:       rdb,
		transport: transport,
		cfg:       cfg,
		logger:    logger.With().Str("component", "otp").Logger(),
	}
}

func key(email string) string {
	return "otp:" + strings.ToLower(email)
}

// Issue generates a fresh code for email, stores it with the configured TTL
// (replacing any previous code) and mails it to the requester.
func (s *Service) Issue(ctx context.Context, email string) error {
	if s.cfg.AllowedSuffix != "" && !strings.HasSuffix(strings.ToLower(email), s.cfg.AllowedSuffix) {
		return ErrInvalidEmail
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	if err := s.rdb.Set(ctx, key(email), code, s.cfg.TTL).Err(); err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	body := fmt.Sprintf("Your OTP for turf booking is %s. It is valid for %d minutes.",
		code, int(s.cfg.TTL.Minutes()))
	if err := s.transport.Send(ctx, email, "Your OTP for Booking", body); err != nil {
		return fmt.Errorf("send code: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("OTP issued")
	return nil
}

// Verify consumes the stored code for email. A successful verification
// invalidates the code; mismatch and expiry both return ErrCodeMismatch.
func (s *Service) Verify(ctx context.Context, email, code string) error {
	stored, err := s.rdb.Get(ctx, key(email)).Result()
	if err == redis.Nil {
		return ErrCodeMismatch
	}
	if err != nil {
		return fmt.Errorf("load code: %w", err)
	}
	if stored != code {
		return ErrCodeMismatch
	}

	if err := s.rdb.Del(ctx, key(email)).Err(); err != nil {
		return fmt.Errorf("consume code: %w", err)
	}

	s.logger.Info().Str("email", email).Msg("OTP verified")
	return nil
}

func generateCode() (string, error) {
	var b strings.Builder
	for i := 0; i < codeLength; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "%d", n.Int64())
	}
	return b.String(), nil
}
