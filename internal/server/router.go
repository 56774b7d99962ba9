package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/authgate/authgate/internal/handler"
	"github.com/authgate/authgate/internal/middleware"
)

// RouterConfig carries the handlers and HTTP policy for NewRouter.
type RouterConfig struct {
	Root    *handler.Handler
	Health  *handler.HealthHandler
	Auth    *handler.AuthHandler
	Metrics *handler.MetricsHandler
	Logger  *slog.Logger

	IsDevelopment      bool
	AllowedOrigins     []string
	MaxRequestBodySize int64
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	root := cfg.Root
	if root == nil {
		root = handler.New()
	}

	securityCfg := middleware.DefaultSecurityConfig()
	securityCfg.IsDevelopment = cfg.IsDevelopment
	if cfg.MaxRequestBodySize > 0 {
		securityCfg.MaxRequestBodySize = cfg.MaxRequestBodySize
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.AllowedOrigins

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(securityCfg))
	r.Use(middleware.CORS(corsCfg))
	r.Use(middleware.MaxBodySize(securityCfg.MaxRequestBodySize))

	// Operational endpoints
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Healthz)
		r.Get("/readyz", cfg.Health.Readyz)
	}
	if cfg.Metrics != nil {
		r.Get("/metrics", cfg.Metrics.Metrics)
	}
	r.Get("/", root.Hello)

	// Auth API
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register)
		r.Post("/login", cfg.Auth.Login)
		r.With(middleware.BearerToken).Get("/me", cfg.Auth.Me)
	})

	// 404 and 405 handlers
	r.NotFound(root.NotFound)
	r.MethodNotAllowed(root.MethodNotAllowed)

	return r
}
