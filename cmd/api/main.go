// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Plume HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and Redis.
//  4. Run database migrations (idempotent).
//  5. Build the outbound adapters (mail, blob storage, event stream, metrics).
//  6. Wire services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/taibuivan/plume/data/migrations"
	"github.com/taibuivan/plume/internal/api"
	"github.com/taibuivan/plume/internal/identity/author"
	"github.com/taibuivan/plume/internal/identity/otp"
	"github.com/taibuivan/plume/internal/moderation"
	"github.com/taibuivan/plume/internal/notification"
	"github.com/taibuivan/plume/internal/platform/blob"
	"github.com/taibuivan/plume/internal/platform/config"
	"github.com/taibuivan/plume/internal/platform/constants"
	"github.com/taibuivan/plume/internal/platform/events"
	"github.com/taibuivan/plume/internal/platform/keylock"
	"github.com/taibuivan/plume/internal/platform/mailer"
	"github.com/taibuivan/plume/internal/platform/metrics"
	"github.com/taibuivan/plume/internal/platform/migration"
	pgstore "github.com/taibuivan/plume/internal/platform/postgres"
	redisstore "github.com/taibuivan/plume/internal/platform/redis"
	"github.com/taibuivan/plume/internal/platform/sec"
	"github.com/taibuivan/plume/internal/registration"
	"github.com/taibuivan/plume/internal/storage"
	"github.com/taibuivan/plume/pkg/clock"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; background workers (rate limiter janitor) stop with it.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL and Redis ───────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing_redis_client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 4. Migrations ─────────────────────────────────────────────────────
	var source fs.FS = migrations.FS
	if cfg.MigrationPath != "" {
		source = os.DirFS(cfg.MigrationPath)
	}
	must(log, migration.RunUp(cfg.DatabaseURL, source, log), "run migrations")

	// ── 5. Outbound Adapters ──────────────────────────────────────────────
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.New(registry)

	var mail mailer.Mailer = mailer.NewLogMailer(log)
	if cfg.SMTPHost != "" {
		mail = mailer.NewSMTPMailer(mailer.SMTPOptions{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		})
	} else {
		log.Warn("smtp_not_configured", slog.String("fallback", "log"))
	}

	var documents blob.Store = blob.NewMemoryStore()
	if cfg.S3Bucket != "" {
		s3Store, err := blob.NewS3Store(startupCtx, blob.S3Options{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretKey,
		})
		must(log, err, "initialize s3 store")
		documents = s3Store
	} else if cfg.IsProduction() {
		must(log, errors.New("S3_BUCKET is required in production"), "initialize blob store")
	}

	publisher := events.New(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			log.Error("event_publisher_close_error", slog.Any("error", cerr))
		}
	}()

	// ── 6. Security ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")
	grants := sec.NewGrantSigner(cfg.GrantSecret, constants.AuthIssuer, constants.GrantTTL)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	systemClock := clock.System{}
	locker := keylock.New(0)
	stores := storage.NewPostgres(pool, log)

	authors := author.NewService(stores.Stores().Authors, tokens, grants, author.NewRedisGrantLedger(rdb, systemClock), systemClock, log)

	challenges := otp.NewService(otp.Dependencies{
		Store:    otp.NewRedisStore(rdb, 2*cfg.OTPTTL),
		Locker:   locker,
		Clock:    systemClock,
		Sender:   otp.NewMailSender(mail),
		Grants:   grants,
		Accounts: authors,
		Metrics:  recorder,
		Logger:   log,
	}, otp.Options{TTL: cfg.OTPTTL, Cooldown: cfg.OTPCooldown})

	engine := moderation.NewEngine(moderation.Dependencies{
		Tx:      stores,
		Locker:  locker,
		Blobs:   documents,
		Events:  publisher,
		Clock:   systemClock,
		Metrics: recorder,
		Logger:  log,
	})

	orchestrator := registration.NewOrchestrator(challenges, grants, engine, log)

	liveness, readiness := api.NewHealthHandlers(log,
		api.Check{Name: "postgres", Ping: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) }},
		api.Check{Name: "redis", Ping: func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }},
	)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, tokens, recorder, api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Metrics:       metrics.Handler(registry),
		OTP:           otp.NewHandler(challenges),
		Authors:       author.NewHandler(authors),
		Registration:  registration.NewHandler(orchestrator),
		Moderation:    moderation.NewHandler(engine),
		Notifications: notification.NewHandler(notification.NewInbox(stores.Stores().Notifications)),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting_down_server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown_error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
