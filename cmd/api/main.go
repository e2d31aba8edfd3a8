package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"intranet/api/internal/app"
	"intranet/api/internal/codegen"
	"intranet/api/internal/config"
	"intranet/api/internal/email"
	"intranet/api/internal/jobs"
	"intranet/api/internal/logger"
	"intranet/api/internal/metrics"
	"intranet/api/internal/policy"
	"intranet/api/internal/ratelimit"
	"intranet/api/internal/realtime"
	"intranet/api/internal/search"
	"intranet/api/internal/session"
	"intranet/api/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "intranet api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()
	if err := store.ApplyMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	st := store.New(db)

	m := metrics.New()

	deps := app.Deps{
		Store:     app.NewSQLStore(st),
		Policy:    policy.NewEngine(st).WithObserver(func(kind policy.Kind, capability policy.Capability, allowed bool, err error) { m.ObserveDecision(string(kind), string(capability), allowed, err) }),
		ChatLimit: ratelimit.New(cfg.ChatRatePerSecond, cfg.ChatRateBurst, 10*time.Minute),
		Metrics:   m,
		Logger:    log,
	}
	deps.Allocator = codegen.NewAllocator(st,
		codegen.WithMaxAttempts(cfg.CodeAllocMaxAttempts),
		codegen.WithLogger(log.Named("codegen")),
		codegen.WithExhaustedHook(func(string) { m.CodeAllocations.WithLabelValues("exhausted").Inc() }),
	)

	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Info("using redis for refresh sessions and chat fan-out")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
		defer redisStore.Close()
		deps.Sessions = redisStore
		deps.Chat = realtime.NewPublisher(redisStore.Client())
	} else {
		log.Info("using sql for refresh sessions")
		deps.Sessions = session.NewSQLStore(st)
	}

	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, log)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, search.NewSQLSearch(st), log)
	deps.Search = searchService
	go searchService.Reindex(ctx)

	mailer := email.NewService(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	})
	if mailer.IsConfigured() {
		deps.Mailer = mailer
	} else {
		log.Info("smtp not configured, notification email disabled")
	}

	service := app.New(cfg, deps)

	scheduler, err := jobs.NewScheduler(log)
	if err != nil {
		return err
	}
	if err := scheduler.ScheduleReconcile(cfg.ReconcileInterval, service); err != nil {
		return err
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Warn("scheduler shutdown", zap.Error(err))
		}
	}()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.NewHTTPServer(service, cfg.CORSOrigin, m, log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("intranet api listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	return nil
}
