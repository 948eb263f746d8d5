// Command ridebook serves the ride request and status API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"ridebook/internal/app"
	"ridebook/internal/auth"
	"ridebook/internal/config"
	"ridebook/internal/firebase"
	"ridebook/internal/handler"
	"ridebook/internal/logging"
	"ridebook/internal/metrics"
	internalRedis "ridebook/internal/redis"
	"ridebook/internal/repository/postgres"
	"ridebook/internal/service"
)

const startupTimeout = 10 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ridebook",
		Short:         "Ride request and status API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
		tokenCmd(),
	)

	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		uid   string
		phone string
		ttl   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token for the jwt auth provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()
			if cfg.Auth.JWT.Secret == "" {
				return errors.New("JWT_SECRET must be set to mint tokens")
			}
			if ttl <= 0 {
				ttl = cfg.Auth.JWT.TTL
			}
			token, err := auth.NewJWTVerifier(cfg.Auth.JWT.Secret, cfg.Auth.JWT.Issuer, ttl).Issue(uid, phone)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "Subject uid (required)")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number claim in E.164 format")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_TTL)")
	_ = cmd.MarkFlagRequired("uid")

	return cmd
}

func migrate(ctx context.Context) error {
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	db, err := app.NewDatabase(ctx, cfg.Database, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return app.Migrate(ctx, db)
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logging.Setup(os.Stdout, cfg.Log.Level, cfg.Log.Format)

	startupCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	// Initialize New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		var err error
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			slog.Warn("failed to initialize New Relic", "error", err)
			nrApp = nil
		} else {
			slog.Info("New Relic enabled", "app", cfg.NewRelic.AppName)
			defer nrApp.Shutdown(cfg.Server.ShutdownTimeout)
		}
	}

	db, err := app.NewDatabase(startupCtx, cfg.Database, nrApp)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("connected to PostgreSQL")

	if cfg.Database.AutoMigrate {
		if err := app.Migrate(startupCtx, db); err != nil {
			return err
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(startupCtx, cfg.Redis, nrApp)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		slog.Info("connected to Redis", "addr", cfg.Redis.Addr)
	}

	server, err := wireServer(startupCtx, cfg, db, redisClient, nrApp)
	if err != nil {
		return err
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server exited")
	return nil
}

// wireServer wires all dependencies and returns the HTTP server. A nil
// redisClient runs without caching, ride locks or idempotency replay.
func wireServer(ctx context.Context, cfg *config.Config, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application) (*http.Server, error) {
	var (
		userCache        internalRedis.UserCacheInterface
		rideCache        internalRedis.RideCacheInterface
		lockStore        internalRedis.LockStoreInterface
		idempotencyStore internalRedis.IdempotencyStoreInterface
	)
	if redisClient != nil {
		cacheStore := internalRedis.NewCacheStore(redisClient)
		userCache = cacheStore
		rideCache = cacheStore
		lockStore = internalRedis.NewLockStore(redisClient)
		idempotencyStore = internalRedis.NewIdempotencyStore(redisClient)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	verifier, pusher, err := newIdentity(ctx, cfg.Auth)
	if err != nil {
		return nil, err
	}

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	rideRepo := postgres.NewRideRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService(pusher)
	userService := service.NewUserService(userRepo, userCache, recorder)
	rideService := service.NewRideService(rideRepo, userRepo, rideCache, lockStore, notificationService, recorder)

	router := app.NewRouter(app.RouterDeps{
		UserHandler:      handler.NewUserHandler(userService),
		RideHandler:      handler.NewRideHandler(rideService),
		OperatorHandler:  handler.NewOperatorHandler(rideService),
		Verifier:         verifier,
		OperatorKey:      cfg.Auth.OperatorKey,
		IdempotencyStore: idempotencyStore,
		Metrics:          recorder,
		MetricsGatherer:  registry,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		NewRelicApp:      nrApp,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, nil
}

// newIdentity builds the token verifier for the configured provider and,
// when enabled, the Firebase Cloud Messaging pusher.
func newIdentity(ctx context.Context, cfg config.AuthConfig) (auth.TokenVerifier, service.Pusher, error) {
	var (
		verifier auth.TokenVerifier
		pusher   service.Pusher
	)

	needFirebase := cfg.Provider == config.AuthProviderFirebase || cfg.Firebase.PushEnabled
	if !needFirebase {
		slog.Warn("using shared-secret jwt auth provider; not for production")
		return auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL), nil, nil
	}

	fbApp, err := firebase.NewApp(ctx, cfg.Firebase)
	if err != nil {
		return nil, nil, err
	}

	if cfg.Provider == config.AuthProviderFirebase {
		fbVerifier, err := firebase.NewVerifier(ctx, fbApp)
		if err != nil {
			return nil, nil, err
		}
		verifier = fbVerifier
	} else {
		verifier = auth.NewJWTVerifier(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)
	}

	if cfg.Firebase.PushEnabled {
		sender, err := firebase.NewPushSender(ctx, fbApp)
		if err != nil {
			return nil, nil, err
		}
		pusher = sender
		slog.Info("push notifications enabled")
	}

	return verifier, pusher, nil
}
