package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/securevault-systems/vault-core/internal/audit"
	"github.com/securevault-systems/vault-core/internal/config"
	"github.com/securevault-systems/vault-core/internal/geoip"
	"github.com/securevault-systems/vault-core/internal/handlers"
	"github.com/securevault-systems/vault-core/internal/logging"
	"github.com/securevault-systems/vault-core/internal/middleware"
	"github.com/securevault-systems/vault-core/internal/ratelimit"
	"github.com/securevault-systems/vault-core/internal/repository"
	"github.com/securevault-systems/vault-core/internal/server"
	"github.com/securevault-systems/vault-core/internal/service"
	"github.com/securevault-systems/vault-core/pkg/tokens"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logger.Info("starting vaultd", "port", cfg.Server.Port, "database", cfg.Database.Type)

	var repo repository.Repository
	switch cfg.Database.Type {
	case "postgres":
		connString := cfg.Database.Postgres.ConnString()
		if err := repository.Migrate(connString); err != nil {
			logger.Error("migrations failed", "error", err.Error())
			os.Exit(1)
		}
		pg, err := repository.NewPostgresRepository(context.Background(), connString)
		if err != nil {
			logger.Error("postgres connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer pg.Close()
		repo = pg
	default:
		repo = repository.NewInMemoryRepository()
	}

	var recorder *audit.Recorder
	if cfg.Messaging.Enabled {
		publisher, err := audit.NewNATSPublisher(cfg.Messaging.URL, "vaultd")
		if err != nil {
			logger.Error("NATS connection failed", "error", err.Error())
			os.Exit(1)
		}
		defer publisher.Close()
		recorder = audit.NewRecorderWithPublisher(cfg.Auth.AuditSecret, repo, logger, publisher, cfg.Messaging.AlertSubject)
	} else {
		recorder = audit.NewRecorder(cfg.Auth.AuditSecret, repo, logger)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter, err = ratelimit.NewRedisLimiter(cfg.RateLimit.RedisURL, cfg.RateLimit.Limit, cfg.RateLimit.Window)
		if err != nil {
			logger.Warn("redis unavailable, using in-process limiter", "error", err.Error())
			limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
		}
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Window)
	}
	defer limiter.Close()

	tokenGen := tokens.NewTokenGenerator(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	geoClient := geoip.NewClient(cfg.Geo.URL, cfg.Geo.Timeout)

	registry := service.NewRegistry(repo, recorder)
	ledger := service.NewLedger(repo, recorder)
	identity := service.NewIdentity(repo, registry, recorder, tokenGen)
	workflow := service.NewWorkflow(repo, ledger, recorder)
	files := service.NewFiles(repo, registry, ledger, recorder)
	honeypot := service.NewHoneypot(repo, recorder, geoClient, limiter)

	handler := handlers.New(identity, ledger, workflow, registry, files, honeypot, logger)
	auth := middleware.NewAuthenticator(tokenGen, repo)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.NewRouter(handler, auth),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("vaultd listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("forced shutdown", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("stopped")
}
