package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/impresiones-magicas/storefront/api/routes"
	"github.com/impresiones-magicas/storefront/internal/admin"
	"github.com/impresiones-magicas/storefront/internal/backend"
	"github.com/impresiones-magicas/storefront/internal/cart"
	"github.com/impresiones-magicas/storefront/internal/catalog"
	"github.com/impresiones-magicas/storefront/internal/clientstate"
	"github.com/impresiones-magicas/storefront/internal/customize"
	"github.com/impresiones-magicas/storefront/internal/reviews"
	"github.com/impresiones-magicas/storefront/internal/session"
	"github.com/impresiones-magicas/storefront/pkg/config"
	"github.com/impresiones-magicas/storefront/pkg/logger"
	"github.com/impresiones-magicas/storefront/pkg/metrics"
	redisclient "github.com/impresiones-magicas/storefront/pkg/redis"
)

const clientStateTTL = 30 * 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	redisClient, err := redisclient.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	state, err := clientstate.NewRedisStore(redisClient, clientStateTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create client state store", err)
		os.Exit(1)
	}

	// The session store and the backend client reference each other: the
	// client asks the store for the bearer token and reports 401s back.
	// Bind through closures so wiring order does not matter.
	var sessions session.Service
	backendClient, err := backend.NewClient(
		cfg.Backend.BaseURL,
		cfg.Backend.Timeout,
		backend.WithLogger(logg),
		backend.WithTokenSource(func(ctx context.Context) string {
			if sessions == nil {
				return ""
			}
			return sessions.Token(ctx, clientstate.SessionIDFromContext(ctx))
		}),
		backend.WithUnauthorizedHook(func(ctx context.Context) {
			if sessions != nil {
				sessions.HandleUnauthorized(ctx)
			}
		}),
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create backend client", err)
		os.Exit(1)
	}

	sessions, err = session.NewService(backendClient, state, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create session service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(backendClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	cartService, err := cart.NewService(backendClient, sessions, state, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(backendClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	adminService, err := admin.NewService(backendClient, sessions)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin service", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		Redis:       redisClient,
		HTTPMetrics: httpMetrics,
		Registry:    registry,
		Sessions:    sessions,
		Catalog:     catalogService,
		Cart:        cartService,
		Reviews:     reviewsService,
		Admin:       adminService,
		Uploader:    customize.NewUploader(cfg.Upload),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting storefront server")

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "storefront server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var shutdownErr error
	shutdownErr = multierr.Append(shutdownErr, server.Shutdown(drainCtx))
	shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	if shutdownErr != nil {
		logg.Error(ctx, "shutdown finished with errors", shutdownErr)
		os.Exit(1)
	}
	logg.Info(ctx, "storefront stopped")
}
