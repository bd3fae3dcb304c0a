package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pribylovaa/credential-service/internal/config"
	"github.com/pribylovaa/credential-service/internal/kvstore"
	kvmemory "github.com/pribylovaa/credential-service/internal/kvstore/memory"
	kvredis "github.com/pribylovaa/credential-service/internal/kvstore/redis"
	"github.com/pribylovaa/credential-service/internal/notify"
	"github.com/pribylovaa/credential-service/internal/ratelimit"
	"github.com/pribylovaa/credential-service/internal/resetvault"
	"github.com/pribylovaa/credential-service/internal/service"
	"github.com/pribylovaa/credential-service/internal/storage/postgres"
	"github.com/pribylovaa/credential-service/internal/tokens"
	transport "github.com/pribylovaa/credential-service/internal/transport/http"
	"github.com/pribylovaa/credential-service/internal/transport/http/handlers"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	// Подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL)
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer str.Close()
	log.Info("postgres_connected")

	// KV-хранилище: Redis либо in-memory (локальный запуск).
	kv, err := newKVStore(rootCtx, cfg.KV)
	if err != nil {
		log.Error("kvstore_connect_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = kv.Close() }()
	log.Info("kvstore_ready", slog.String("url", cfg.KV.URL))

	// Сборка компонентов.
	issuer := tokens.New(cfg.Auth, kv)
	notifier := notify.NewLogNotifier(log, "")
	vault := resetvault.New(kv, notifier, cfg.Reset.TokenTTL)
	limiter := ratelimit.New(kv, cfg.RateLimit)
	srvc := service.New(str, issuer, vault)
	log.Info("service_initialized")

	router := transport.NewRouter(
		handlers.New(srvc, str, kv),
		limiter,
		srvc,
		transport.Options{
			Logger:   log,
			Timeout:  cfg.Timeouts.Service,
			BasePath: cfg.HTTP.BasePath,
		},
	)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErrCh := make(chan error, 1)
	go func() {
		log.Info("http_listen_start", slog.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
		}
	}

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_force_stop", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// newKVStore строит KV-хранилище по URL конфигурации.
func newKVStore(ctx context.Context, cfg config.KVConfig) (kvstore.Store, error) {
	switch {
	case strings.HasPrefix(cfg.URL, "memory://"):
		return kvmemory.New(), nil
	case strings.HasPrefix(cfg.URL, "redis://"), strings.HasPrefix(cfg.URL, "rediss://"):
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return kvredis.New(pingCtx, cfg.URL, cfg.KeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported kv url scheme: %q", cfg.URL)
	}
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
