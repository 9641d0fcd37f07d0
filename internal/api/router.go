package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/askly/accounts-api/internal/api/handler"
	"github.com/askly/accounts-api/internal/api/middleware"
	"github.com/askly/accounts-api/internal/core/domain"
	"github.com/askly/accounts-api/internal/core/ports"
)

const (
	metricsNamespace = "accounts"
	metricsSubsystem = "http"
)

// Dependencies are the collaborators the HTTP layer is built from.
type Dependencies struct {
	Auth   ports.AuthService
	Users  ports.UserService
	Tokens ports.TokenVerifier
	// HealthChecks are probed by GET /health/ready.
	HealthChecks   map[string]handler.DependencyCheck
	RequestTimeout time.Duration
	Log            zerolog.Logger
	// Metrics receives the HTTP metrics and backs GET /metrics. Nil uses
	// the default Prometheus registry.
	Metrics *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(metricsMiddleware(deps.Metrics))
	if deps.RequestTimeout > 0 {
		e.Use(echomiddleware.ContextTimeout(deps.RequestTimeout))
	}

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Metrics))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	authHandler := handler.NewAuthHandler(deps.Auth)
	userHandler := handler.NewUserHandler(deps.Users)

	adminOnly := middleware.Authenticate(deps.Tokens, domain.KindAdmin)
	userOnly := middleware.Authenticate(deps.Tokens, domain.KindUser)
	anyIdentity := middleware.Authenticate(deps.Tokens, domain.KindAdmin, domain.KindUser)
	resolveCaller := middleware.ResolveCaller(deps.Auth)

	v1 := e.Group("/api/v1")

	// --- Auth routes ---
	auth := v1.Group("/auth")
	auth.POST("/admin/login", authHandler.AdminLogin)
	auth.POST("/user/login", authHandler.UserLogin)
	auth.GET("/admin", authHandler.CurrentAdmin, adminOnly)
	auth.GET("/user", authHandler.CurrentUser, userOnly)

	// --- User routes ---
	users := v1.Group("/users")
	users.POST("/register", userHandler.Register)
	users.POST("/verify/:id", userHandler.Verify)
	users.GET("/profile/:username", userHandler.Profile)

	users.GET("", userHandler.List, adminOnly, resolveCaller)
	users.POST("", userHandler.Create, adminOnly, resolveCaller)
	users.GET("/:id", userHandler.Get, anyIdentity, resolveCaller)
	users.PUT("/:id", userHandler.Update, anyIdentity, resolveCaller)
	users.DELETE("/:id", userHandler.Delete, anyIdentity, resolveCaller)

	return e
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Namespace: metricsNamespace,
		Subsystem: metricsSubsystem,
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
