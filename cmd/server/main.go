package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	httpapi "github.com/powerdesk/backoffice/internal/api/http"
	"github.com/powerdesk/backoffice/internal/application/auth"
	"github.com/powerdesk/backoffice/internal/application/session"
	"github.com/powerdesk/backoffice/internal/config"
	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
	"github.com/powerdesk/backoffice/internal/infrastructure/backend"
	"github.com/powerdesk/backoffice/internal/infrastructure/bolt"
	"github.com/powerdesk/backoffice/internal/infrastructure/keystore"
	"github.com/powerdesk/backoffice/internal/infrastructure/memory"
	"github.com/powerdesk/backoffice/internal/infrastructure/postgres"
	"github.com/powerdesk/backoffice/internal/infrastructure/sealed"
	"github.com/powerdesk/backoffice/internal/infrastructure/sse"
	"github.com/powerdesk/backoffice/internal/infrastructure/transport"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	ctx := context.Background()
	store, closeStore, err := openTokenStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("store", cfg.TokenStore).Msg("token store")
	}
	defer func() { _ = closeStore.Close() }()

	keys, err := keystore.Parse(cfg.SealingKeys, cfg.SealingKeyID)
	if err != nil {
		logger.Fatal().Err(err).Msg("sealing keys")
	}
	if !keys.Empty() {
		store = sealed.NewTokenStore(store, keys)
		logger.Info().Msg("token sealing enabled")
	}

	// infrastructure
	sseHub := sse.NewHub(logger)
	manager := session.NewManager(store, sseHub, clockwork.NewRealClock(), session.Options{LoginPath: cfg.LoginPath}, logger)
	unsubscribe := manager.Subscribe(sseHub.PublishSession)
	defer unsubscribe()

	var limiter *rate.Limiter
	if cfg.BackendRateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BackendRateLimit), cfg.BackendRateBurst)
	}
	authTransport := transport.New(store, manager, limiter, logger)

	backendClient, err := backend.NewClient(backend.Config{
		BaseURL:   cfg.BackendURL,
		LoginPath: cfg.BackendLoginPath,
		Timeout:   cfg.BackendTimeout,
	}, authTransport)
	if err != nil {
		logger.Fatal().Err(err).Msg("backend client")
	}

	// services
	authSvc := auth.NewService(backendClient, manager, logger)
	manager.Start(ctx)

	// API server
	apiServer := httpapi.NewServer(authSvc, sseHub, backendClient.BaseURL(), authTransport, cfg.LoginPath, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Str("backend", cfg.BackendURL).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	sseHub.Stop()
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openTokenStore returns the configured store and a closer for its resources.
func openTokenStore(ctx context.Context, cfg *config.Config) (domainSession.TokenStore, io.Closer, error) {
	switch cfg.TokenStore {
	case config.StoreMemory:
		return memory.NewTokenStore(), closerFunc(func() error { return nil }), nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return postgres.NewTokenStore(pool, cfg.TokenStoreKey), closerFunc(func() error { pool.Close(); return nil }), nil
	default:
		s, err := bolt.Open(cfg.TokenStorePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	}
}
