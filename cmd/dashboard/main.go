package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Raymond9734/estate-backoffice/internal/auth"
	"github.com/Raymond9734/estate-backoffice/internal/config"
	"github.com/Raymond9734/estate-backoffice/internal/db"
	"github.com/Raymond9734/estate-backoffice/internal/events"
	"github.com/Raymond9734/estate-backoffice/internal/handler"
	"github.com/Raymond9734/estate-backoffice/internal/logging"
	"github.com/Raymond9734/estate-backoffice/internal/repository"
	"github.com/Raymond9734/estate-backoffice/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize logger
	appLogger, err := logging.New(logging.Config{
		Level:         cfg.Log.Level,
		Format:        cfg.Log.Format,
		FluentEnabled: cfg.Log.FluentEnabled,
		FluentHost:    cfg.Log.FluentHost,
		FluentPort:    cfg.Log.FluentPort,
		FluentTag:     cfg.Log.FluentTag,
	})
	if err != nil {
		slog.Error("failed to create logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer appLogger.Close()

	logger := appLogger.Logger
	slog.SetDefault(logger)

	logger.Info("starting estate back-office dashboard",
		slog.String("data_backend", cfg.Data.Backend),
		slog.String("auth_mode", cfg.Auth.Mode),
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("dashboard stopped with error", slog.String("error", err.Error()))
		appLogger.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Connect to the persistence backend
	backend, err := openBackend(cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()

	logger.Info("persistence backend ready", slog.String("backend", backend.Name))

	// Session provider, optionally behind the Redis cache
	provider, sessionCache, err := newAuthProvider(cfg, logger)
	if err != nil {
		return err
	}
	if sessionCache != nil {
		defer sessionCache.Close()
	}

	// Store and view layer
	broker := events.NewBroker(logger)
	defer broker.Close()

	store := service.NewStore(backend.Properties, backend.Clients, service.StoreConfig{
		FetchTimeout: cfg.Store.FetchTimeout,
		WriteTimeout: cfg.Store.WriteTimeout,
	}, logger)
	store.AttachView(broker)
	defer store.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 2*cfg.Store.FetchTimeout)
	store.Initialize(initCtx)
	cancelInit()

	// Initialize handlers
	dashboardHandler, err := handler.NewDashboardHandler(store, service.NewGeneratorService(cfg.Generator.Delay), broker, logger)
	if err != nil {
		return err
	}

	checks := map[string]handler.HealthChecker{
		"data":          backend.Health,
		"session_cache": nil,
	}
	if sessionCache != nil {
		checks["session_cache"] = sessionCache
	}

	router := handler.NewRouter(handler.Handlers{
		Dashboard: dashboardHandler,
		API:       handler.NewAPIHandler(store, logger),
		Events:    handler.NewEventsHandler(broker, dashboardHandler, logger),
		Health:    handler.NewHealthHandler(checks, logger),
		Auth:      handler.NewAuthMiddleware(provider, cfg.Auth.CookieName, cfg.Auth.LoginURL, logger),
	}, cfg.API.AllowedOrigins, logger)

	// Create server
	addr := fmt.Sprintf(":%d", cfg.API.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("dashboard listening", slog.String("addr", addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))

		// open event streams would hold Shutdown until its deadline
		broker.Close()

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info("server stopped gracefully")
	}

	return nil
}

// openBackend connects the configured persistence backend
func openBackend(cfg *config.Config, logger *slog.Logger) (*repository.Backend, error) {
	switch cfg.Data.Backend {
	case config.BackendPostgres:
		database, err := db.New(db.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return repository.NewPostgresBackend(database.DB, database, database.Close), nil

	case config.BackendSQLite:
		database, err := db.OpenSQLite(cfg.Data.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(database.DB); err != nil {
			database.Close()
			return nil, err
		}
		return repository.NewGormBackend(database.DB, database, database.Close), nil

	default:
		client := repository.NewRESTClient(repository.RESTConfig{
			BaseURL: cfg.Data.RESTURL,
			APIKey:  cfg.Data.RESTKey,
			Timeout: cfg.Store.FetchTimeout,
		}, logger)
		return repository.NewRESTBackend(client), nil
	}
}

// newAuthProvider builds the session provider and, when REDIS_URL is set,
// the cache in front of it
func newAuthProvider(cfg *config.Config, logger *slog.Logger) (auth.Provider, *auth.CachedProvider, error) {
	var provider auth.Provider

	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		verifier, err := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
		if err != nil {
			return nil, nil, err
		}
		provider = verifier
	default:
		provider = auth.NewGoTrueClient(auth.GoTrueConfig{
			BaseURL: cfg.Auth.URL,
			APIKey:  cfg.Auth.APIKey,
			Timeout: cfg.Auth.HTTPTimeout,
		})
	}

	if cfg.Redis.URL == "" {
		return provider, nil, nil
	}

	cache, err := auth.NewRedisCache(auth.RedisConfig{
		URL:       cfg.Redis.URL,
		KeyPrefix: cfg.Redis.KeyPrefix,
		TTL:       cfg.Auth.CacheTTL,
	}, provider, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache, cache, nil
}
