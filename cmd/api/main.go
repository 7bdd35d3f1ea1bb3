package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/hazelgrove/studio-scheduler/internal/api/router"
	"github.com/hazelgrove/studio-scheduler/internal/appointments"
	"github.com/hazelgrove/studio-scheduler/internal/calendarsync"
	appconfig "github.com/hazelgrove/studio-scheduler/internal/config"
	"github.com/hazelgrove/studio-scheduler/internal/meetings"
	"github.com/hazelgrove/studio-scheduler/internal/notify"
	"github.com/hazelgrove/studio-scheduler/internal/observability/metrics"
	"github.com/hazelgrove/studio-scheduler/internal/persistence"
	"github.com/hazelgrove/studio-scheduler/internal/reminders"
	"github.com/hazelgrove/studio-scheduler/internal/schedule"
	"github.com/hazelgrove/studio-scheduler/internal/scheduling"
	"github.com/hazelgrove/studio-scheduler/pkg/logging"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := appconfig.Load()

	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	logger.Info("starting studio-scheduler API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	policy := policyFromConfig(cfg)
	cal, err := schedule.NewCalendar(policy)
	if err != nil {
		logger.Error("invalid scheduling policy", "error", err)
		os.Exit(1)
	}

	backend, cleanup, err := buildBackend(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize persistence backend", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	var calendarSync scheduling.CalendarSync
	if c := calendarsync.NewClient(calendarsync.Config{
		BaseURL: cfg.CalendarAPIBaseURL,
		APIKey:  cfg.CalendarAPIKey,
	}, logger.Component("calendarsync")); c != nil {
		calendarSync = c
	}

	var meetingLinks scheduling.MeetingLinkProvider
	if c := meetings.NewClient(meetings.Config{
		BaseURL: cfg.MeetingAPIBaseURL,
		APIKey:  cfg.MeetingAPIKey,
	}, logger.Component("meetings")); c != nil {
		meetingLinks = c
	}

	schedulingMetrics := metrics.NewSchedulingMetrics(nil)

	store := appointments.NewStore()
	engine := scheduling.NewEngine(
		store, cal, backend, calendarSync, meetingLinks,
		schedulingMetrics, logger.Component("scheduling"),
	)
	if err := engine.LoadState(context.Background()); err != nil {
		logger.Error("failed to load persisted state", "error", err)
		os.Exit(1)
	}

	// Reminder worker
	var emailSender notify.EmailSender
	if s := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger.Component("notify")); s != nil {
		emailSender = s
	}
	var smsSender notify.SMSSender
	if s := notify.NewTelnyxSender(notify.TelnyxConfig{
		APIKey: cfg.TelnyxAPIKey,
		From:   cfg.TelnyxFrom,
	}, logger.Component("notify")); s != nil {
		smsSender = s
	}
	dispatcher := notify.NewDispatcher(emailSender, smsSender, cfg.StudioName, cal.Location(), logger.Component("notify"))
	reminderScheduler := reminders.NewScheduler(
		engine, dispatcher,
		cfg.EmailReminderLeadHours, cfg.SMSReminderLeadHours,
		schedulingMetrics, logger.Component("reminders"),
	)
	reminderWorker := reminders.NewWorker(reminderScheduler, cfg.ReminderTickInterval, logger.Component("reminders"))

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	go reminderWorker.Run(workerCtx)

	// Setup router
	r := router.New(&router.Config{
		Logger:              logger,
		SchedulingHandler:   scheduling.NewHandler(engine, logger.Component("http")),
		MetricsHandler:      promhttp.Handler(),
		AdminAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		PublicRatePerSecond: 5,
		PublicRateBurst:     20,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

// policyFromConfig projects environment configuration onto the default
// scheduling policy.
func policyFromConfig(cfg *appconfig.Config) *schedule.Policy {
	policy := schedule.DefaultPolicy()
	policy.Timezone = cfg.Timezone
	policy.BufferMinutes = cfg.BufferMinutes
	policy.AdvanceBookingDays = cfg.AdvanceBookingDays
	policy.CancellationPolicyHours = cfg.CancellationPolicyHours
	policy.RescheduleFeeWaiverHours = cfg.RescheduleFeeWaiverHours
	policy.RescheduleFeeCents = cfg.RescheduleFeeCents
	policy.MaxConcurrent = cfg.MaxConcurrent
	policy.DefaultDurationMinutes = cfg.DefaultDurationMinutes
	policy.EmailReminderLeadHours = cfg.EmailReminderLeadHours
	policy.SMSReminderLeadHours = cfg.SMSReminderLeadHours
	policy.BlockedDates = append(policy.BlockedDates, cfg.BlockedDates...)
	return policy
}

// buildBackend selects the snapshot backend from configuration. The cleanup
// func closes any connections it opened.
func buildBackend(cfg *appconfig.Config, logger *logging.Logger) (scheduling.PersistenceBackend, func(), error) {
	switch cfg.PersistenceBackend {
	case "redis":
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, func() {}, fmt.Errorf("redis ping: %w", err)
		}
		logger.Info("using redis persistence backend", "addr", cfg.RedisAddr)
		return persistence.NewRedisBackend(client), func() { _ = client.Close() }, nil

	case "postgres":
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("pgx pool: %w", err)
		}
		if err := pool.Ping(context.Background()); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("postgres ping: %w", err)
		}
		logger.Info("using postgres persistence backend")
		return persistence.NewPostgresBackend(pool), pool.Close, nil

	default:
		logger.Info("using in-memory persistence backend")
		return persistence.NewMemoryBackend(), func() {}, nil
	}
}
