package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"voiceline/internal/audit"
	"voiceline/internal/auth"
	"voiceline/internal/booking"
	"voiceline/internal/config"
	"voiceline/internal/dialog"
	"voiceline/internal/notify"
	"voiceline/internal/slots"
	"voiceline/pkg/logger"
	"voiceline/pkg/utils"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	bookingStore := booking.NewPostgresStore(db)
	bookingSvc := booking.NewService(bookingStore, cfg.Restaurant, log)

	var sender notify.Sender = notify.Noop{}
	if cfg.Twilio.AccountSID != "" && cfg.Twilio.AuthToken != "" {
		sender = notify.NewTwilioSMS(cfg.Twilio, cfg.Restaurant.Name, log)
	} else {
		log.Warn("twilio credentials missing, sms notifications disabled")
	}

	provider := slots.NewCalendlyProvider(
		cfg.Restaurant.CalendlyToken,
		cfg.Restaurant.CalendlyOrganization,
		cfg.Restaurant.OpeningTime,
		cfg.Restaurant.ClosingTime,
		log,
	)
	states := dialog.NewRedisStore(rdb, cfg.Dialog.StateTTL)

	manager := dialog.NewManager(states, provider, bookingSvc, sender, auditSvc,
		cfg.Restaurant, cfg.Dialog, log)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, registerDeps{
		auth:     authManager,
		manager:  manager,
		bookings: bookingSvc,
		audits:   auditSvc,
		notifier: sender,
		cfg:      cfg,
		db:       db,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}

	_ = logger.ShutdownFlush(shutdownCtx, 2*time.Second)
}
