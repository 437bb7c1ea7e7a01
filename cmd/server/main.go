package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	specpkg "github.com/storehaus/gatekeeper/api"
	"github.com/storehaus/gatekeeper/internal/api"
	"github.com/storehaus/gatekeeper/internal/api/handler"
	"github.com/storehaus/gatekeeper/internal/api/middleware"
	"github.com/storehaus/gatekeeper/internal/auth"
	"github.com/storehaus/gatekeeper/internal/config"
	"github.com/storehaus/gatekeeper/internal/database"
	"github.com/storehaus/gatekeeper/internal/facility"
	"github.com/storehaus/gatekeeper/internal/gate"
	"github.com/storehaus/gatekeeper/internal/onboarding"
	"github.com/storehaus/gatekeeper/internal/profile"
	"github.com/storehaus/gatekeeper/internal/realtime"
	"github.com/storehaus/gatekeeper/internal/role"
	"github.com/storehaus/gatekeeper/internal/scope"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	profileRepo := profile.NewRepository(db.Pool())
	facilityRepo := facility.NewRepository(db.Pool())

	resolver := role.NewResolver(profileRepo, profileRepo, role.Options{
		CacheTTL:       cfg.RoleCacheTTL,
		CacheSize:      cfg.RoleCacheSize,
		MaxRetries:     cfg.RoleMaxRetries,
		InitialBackoff: cfg.RoleRetryInitial,
		MaxBackoff:     cfg.RoleRetryMax,
		Multiplier:     cfg.RoleRetryFactor,
		LookupTimeout:  cfg.LookupTimeout,
	})

	var redisPinger handler.Pinger
	if cfg.RedisAddr != "" {
		client, err := realtime.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			slog.Warn("redis unavailable; role cache relies on TTL only", "error", err)
		} else {
			defer client.Close()
			redisPinger = handler.PingFunc(func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
			listener := realtime.NewListener(client, resolver, cfg.AuthEventsChannel, cfg.ProfileEventChannel)
			go listener.Start(ctx)
		}
	}

	g := gate.New(gate.Routes{
		Login:      cfg.LoginPath,
		Home:       cfg.HomePath,
		Onboarding: cfg.OnboardingPath,
	})

	router := api.NewRouter(api.RouterDeps{
		Version:     cfg.Version,
		OpenAPISpec: specpkg.OpenAPISpec,
		DBPinger:    db,
		RedisPinger: redisPinger,
		Verifier:    auth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience),
		Guard:       middleware.NewGuard(g, resolver, cfg.ResolutionTimeout),
		Gate:        g,
		Scopes: scope.NewResolver(facilityRepo, scope.Options{
			BaseDomain:     cfg.BaseDomain,
			ReservedLabels: cfg.ReservedLabels,
			DevHosts:       cfg.DevHosts,
		}),
		ScopeTimeout: cfg.LookupTimeout,
		Onboarding:   onboarding.NewChecker(profileRepo, facilityRepo),
		Profiles:     profileRepo,
		Facilities:   facilityRepo,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting gatekeeper", "port", cfg.Port, "version", cfg.Version, "baseDomain", cfg.BaseDomain)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		stop()
		os.Exit(1)
	}

	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
