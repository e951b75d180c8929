package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/kudisave/recon/internal/config"
	"github.com/kudisave/recon/internal/database"
	"github.com/kudisave/recon/internal/handler"
	"github.com/kudisave/recon/internal/jobs"
	"github.com/kudisave/recon/internal/metrics"
	"github.com/kudisave/recon/internal/middleware"
	"github.com/kudisave/recon/internal/notify"
	"github.com/kudisave/recon/internal/repository"
)

func main() {
	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection
	db := database.NewSurrealDB(database.Config{
		Host:      cfg.Database.Host,
		Port:      cfg.Database.Port,
		User:      cfg.Database.User,
		Password:  cfg.Database.Password,
		Namespace: cfg.Database.Namespace,
		Database:  cfg.Database.Database,
	})

	ctx := context.Background()
	if err := db.Connect(ctx); err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	slog.Info("connected to database",
		slog.String("host", cfg.Database.Host),
		slog.String("database", cfg.Database.Database),
	)

	// Initialize repositories
	walletRepo := repository.NewWalletRepository(db)
	reservationRepo := repository.NewReservationRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	swapRepo := repository.NewSwapRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	jobLogRepo := repository.NewJobLogRepository(db)

	// Initialize notification channels
	var push, email, sms notify.ChannelSender
	if cfg.Notify.Enabled {
		push = &notify.PushSender{}
		email = &notify.EmailSender{From: cfg.Notify.EmailSender}
		sms = &notify.SMSSender{SenderID: cfg.Notify.SMSSender}
	} else {
		push = notify.NopSender{}
		email = notify.NopSender{}
		sms = notify.NopSender{}
	}
	dispatcher := notify.NewDispatcher(push, email, sms)

	// Initialize jobs
	releaseJob := jobs.NewReservationReleaseJob(reservationRepo, walletRepo, ledgerRepo, jobLogRepo)
	accrualJob := jobs.NewInterestAccrualJob(loanRepo, ledgerRepo, jobLogRepo)
	swapJob := jobs.NewSwapExpirationJob(swapRepo, ledgerRepo, push, jobLogRepo)
	reminderJob := jobs.NewReminderDispatchJob(reminderRepo, profileRepo, dispatcher, jobLogRepo)
	decayJob := jobs.NewScoreDecayJob(scoreRepo, jobLogRepo)
	tenureJob := jobs.NewTenureBonusJob(scoreRepo, jobLogRepo)

	// Initialize metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	jobMetrics := metrics.New(registry)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(db)
	jobsHandler := handler.NewJobsHandler(jobMetrics)
	jobLogHandler := handler.NewJobLogHandler(jobLogRepo)

	// Create router and register routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", healthHandler.Check)
	mux.Handle("GET /metrics", metrics.Handler(registry))

	// Job trigger endpoints (scheduler only)
	schedulerAuth := middleware.SchedulerAuth(cfg.Scheduler.SecretHash)
	mux.Handle("POST /v1/jobs/release-reservations", schedulerAuth(jobsHandler.Trigger(releaseJob)))
	mux.Handle("POST /v1/jobs/accrue-interest", schedulerAuth(jobsHandler.Trigger(accrualJob)))
	mux.Handle("POST /v1/jobs/expire-swaps", schedulerAuth(jobsHandler.Trigger(swapJob)))
	mux.Handle("POST /v1/jobs/dispatch-reminders", schedulerAuth(jobsHandler.Trigger(reminderJob)))
	mux.Handle("POST /v1/jobs/decay-scores", schedulerAuth(jobsHandler.Trigger(decayJob)))
	mux.Handle("POST /v1/jobs/award-tenure", schedulerAuth(jobsHandler.Trigger(tenureJob)))
	mux.Handle("GET /v1/jobs/log", schedulerAuth(http.HandlerFunc(jobLogHandler.List)))

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}
