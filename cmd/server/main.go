package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"turfbook/internal/api"
	"turfbook/internal/arbiter"
	"turfbook/internal/civil"
	"turfbook/internal/config"
	"turfbook/internal/database"
	"turfbook/internal/mailer"
	"turfbook/internal/mailqueue"
	"turfbook/internal/metrics"
	"turfbook/internal/otp"
)

func main() {
	_ = godotenv.Load()

	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("TURFBOOK_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	transport := mailer.New(mailer.Config{
		Host:           cfg.SMTP.Host,
		Port:           cfg.SMTP.Port,
		Username:       cfg.SMTP.Username,
		Password:       cfg.SMTP.Password,
		Sender:         cfg.SMTP.Sender,
		AttemptTimeout: cfg.SMTPAttemptTimeout(),
		SendInterval:   cfg.SMTPSendInterval(),
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	verifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := transport.Verify(verifyCtx); err != nil {
		// The service still starts; delivery retries will cope.
		logger.Warn().Err(err).Msg("SMTP verification failed")
	}
	cancel()

	queue := mailqueue.New(transport, mailqueue.Config{
		MaxAttempts:    cfg.Queue.MaxAttempts,
		BaseRetryDelay: cfg.QueueBaseRetryDelay(),
		InterJobDelay:  cfg.QueueInterJobDelay(),
		AttemptTimeout: cfg.SMTPAttemptTimeout(),
	}, logger)
	defer queue.Stop()

	backup := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
	go backup.Run(ctx.Done(), cfg.BackupInterval())

	cal := civil.New(cfg.Booking.TimezoneOffsetMinutes)
	arb := arbiter.NewService(db, cal, logger)

	var otpSvc *otp.Service
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		otpSvc = otp.NewService(rdb, transport, otp.Config{
			TTL:           cfg.OTPTTL(),
			AllowedSuffix: cfg.OTP.AllowedSuffix,
		}, logger)
	} else {
		logger.Warn().Msg("redis not configured; OTP endpoints disabled")
	}

	server := api.NewServer(arb, db, queue, otpSvc, transport, cal, api.Letters{
		SignatureName:  cfg.Mail.SignatureName,
		SignaturePhone: cfg.Mail.SignaturePhone,
	}, logger)

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info().Int("port", cfg.Server.Port).Msg("turf booking service started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeout) * time.Second
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
