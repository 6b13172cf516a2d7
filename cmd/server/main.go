package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deliverus/api/internal/config"
	"github.com/deliverus/api/internal/database"
	"github.com/deliverus/api/internal/handler"
	"github.com/deliverus/api/internal/kvstore"
	"github.com/deliverus/api/internal/middleware"
	"github.com/deliverus/api/internal/model"
	"github.com/deliverus/api/internal/repository"
	"github.com/deliverus/api/internal/service"
	"github.com/deliverus/api/pkg/jwt"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Badger is always opened: it backs the idempotency cache and, with
	// DB_DRIVER=badger, the domain data too
	kv, err := kvstore.Open(kvstore.Options{
		Dir:      cfg.Badger.Dir,
		InMemory: cfg.Badger.InMemory,
	})
	if err != nil {
		slog.Error("failed to open badger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = kv.Close() }()
	kv.StartGCRoutine(ctx, cfg.Badger.GCInterval)

	// Initialize the schedule store
	var (
		scheduleRepo   service.ScheduleRepository
		restaurantRepo service.RestaurantRepository
		health         handler.Pinger
	)
	switch cfg.Database.Driver {
	case config.DriverBadger:
		scheduleRepo = kvstore.NewScheduleStore(kv)
		restaurantRepo = kvstore.NewRestaurantStore(kv)
		health = kv

	default:
		db := database.NewSurrealDB(database.Config{
			Scheme:    cfg.Database.Scheme,
			Host:      cfg.Database.Host,
			Port:      cfg.Database.Port,
			User:      cfg.Database.User,
			Password:  cfg.Database.Password,
			Namespace: cfg.Database.Namespace,
			Database:  cfg.Database.Database,
		})
		if err := db.Connect(ctx); err != nil {
			slog.Error("failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()

		slog.Info("connected to database",
			slog.String("host", cfg.Database.Host),
			slog.String("database", cfg.Database.Database),
		)

		if cfg.Database.Migrate {
			if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir); err != nil {
				slog.Error("failed to apply migrations", slog.String("error", err.Error()))
				os.Exit(1)
			}
		}

		scheduleRepo = repository.NewScheduleRepository(db)
		restaurantRepo = repository.NewRestaurantRepository(db)
		health = db
	}

	// Initialize JWT service
	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: cfg.JWT.PrivateKeyPath,
		PublicKeyPath:  cfg.JWT.PublicKeyPath,
		Issuer:         cfg.JWT.Issuer,
		ExpirationMins: cfg.JWT.ExpirationMins,
	})
	if err != nil {
		slog.Error("failed to initialize JWT service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize services
	scheduleService := service.NewScheduleService(service.ScheduleServiceConfig{
		ScheduleRepo:   scheduleRepo,
		RestaurantRepo: restaurantRepo,
	})

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
		Rate:   cfg.RateLimit.Rate,
		Window: cfg.RateLimit.Window,
		Burst:  burstOrNone(cfg.RateLimit.Burst),
	})
	defer rateLimiter.Stop()

	// Initialize idempotency store
	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{
		TTL:     cfg.Idempotency.TTL,
		Cleanup: time.Hour,
		Cache:   kvstore.NewIdempotencyCache(kv),
	})
	defer idempotencyStore.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(health, cfg.Database.Driver)
	scheduleHandler := handler.NewScheduleHandler(handler.ScheduleHandlerConfig{
		ScheduleService: scheduleService,
	})

	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("GET /health", healthHandler.Health)

	// Schedule endpoints
	scheduleHandler.RegisterRoutes(mux, handler.ScheduleRouteMiddleware{
		Authenticated: []middleware.Middleware{
			middleware.Auth(jwtService),
			middleware.RateLimit(rateLimiter),
		},
		Mutation: []middleware.Middleware{middleware.RequireRole(model.RoleOwner)},
		Create:   []middleware.Middleware{middleware.Idempotency(idempotencyStore)},
	})

	// Apply global middleware
	wrapped := middleware.Chain(
		mux,
		middleware.RequestID,
		middleware.Logger,
		middleware.Recovery,
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Compress,
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
			slog.String("driver", cfg.Database.Driver),
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	slog.Info("server exited")
}

// burstOrNone maps a configured burst of 0 to the limiter's "no burst"
// value; the limiter treats 0 as its default.
func burstOrNone(burst int) int {
	if burst == 0 {
		return -1
	}
	return burst
}
