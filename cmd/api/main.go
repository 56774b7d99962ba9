// Package main is the entrypoint for the authgate API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/authgate/authgate/internal/auth"
	"github.com/authgate/authgate/internal/cache"
	"github.com/authgate/authgate/internal/config"
	"github.com/authgate/authgate/internal/handler"
	"github.com/authgate/authgate/internal/metrics"
	"github.com/authgate/authgate/internal/server"
	"github.com/authgate/authgate/internal/service"
)

func main() {
	// Initialize context
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize credential store
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Error(
			"failed to open credential store",
			slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
			slog.String("database_url", redactURL(cfg.DatabaseURL)),
		)
		os.Exit(1)
	}
	logger.Info("connected to credential store", "driver", store.driver)

	// Initialize optional cache
	var (
		cacheClient *cache.Cache
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			_ = store.Close()
			os.Exit(1)
		}
		cacheHealth = cacheClient
		logger.Info("connected to Redis", "user_cache_ttl", cfg.UserCacheTTL)
	}

	// Initialize services
	signer, err := auth.NewTokenSigner([]byte(cfg.JWTSecret), cfg.TokenTTL)
	if err != nil {
		logger.Error("failed to create token signer", "error", err)
		os.Exit(1)
	}

	metricsRecorder := metrics.NewInMemory()
	opts := []service.Option{
		service.WithMetrics(metricsRecorder),
		service.WithLogger(logger),
	}
	if cacheClient != nil {
		opts = append(opts, service.WithUserCache(cache.NewUserCache(cacheClient, cfg.UserCacheTTL)))
	}
	authService := service.NewAuthService(store, signer, auth.NewPasswordHasher(cfg.BcryptCost), opts...)

	// Setup router
	r := server.NewRouter(server.RouterConfig{
		Root:               handler.New(),
		Health:             handler.NewHealthHandler(store, cacheHealth),
		Auth:               handler.NewAuthHandler(authService, logger),
		Metrics:            handler.NewMetricsHandler(metricsRecorder),
		Logger:             logger,
		IsDevelopment:      cfg.IsDevelopment(),
		AllowedOrigins:     cfg.GetCORSAllowedOrigins(),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	// Create and run server
	srv := server.New(r, server.Config{
		Port:            cfg.ListenPort(),
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, logger)

	srv.OnShutdown("credential-store", func(ctx context.Context) error {
		return store.Close()
	})
	if cacheClient != nil {
		srv.OnShutdown("redis", func(ctx context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.ListenPort(),
		"env", cfg.AppEnv,
		"token_ttl", cfg.TokenTTL,
	)

	if err := srv.Run(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	level := parseLogLevel(cfg.LogLevel)

	opts := &slog.HandlerOptions{
		Level: level,
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
