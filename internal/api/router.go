package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/lof/customer-profile/docs"
	"github.com/lof/customer-profile/internal/api/graphql"
	"github.com/lof/customer-profile/internal/api/handler"
	"github.com/lof/customer-profile/internal/api/middleware"
	"github.com/lof/customer-profile/internal/core/ports"
	"github.com/lof/customer-profile/internal/core/service"
	"github.com/lof/customer-profile/internal/infrastructure/http/handlers"
)

// Dependencies are the services and probes the HTTP surface is built on.
type Dependencies struct {
	Auth         ports.AuthService
	Customers    ports.CustomerService
	Avatars      ports.AvatarService
	HealthChecks map[string]handlers.Check
	Log          zerolog.Logger

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) (*echo.Echo, error) {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "customer_profile_http",
		Registerer: deps.Registerer,
	}))

	schema, err := graphql.NewSchema(deps.Customers, deps.Avatars, deps.Log)
	if err != nil {
		return nil, err
	}

	authHandler := handler.NewAuthHandler(deps.Auth)
	avatarHandler := handler.NewAvatarHandler(deps.Avatars, deps.Customers)
	graphqlHandler := graphql.NewHandler(schema, deps.Log)
	requireAuth := middleware.Auth(deps.Auth)
	optionalAuth := middleware.OptionalAuth(deps.Auth)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout, requireAuth)

	// --- GraphQL ---
	e.POST("/graphql", graphqlHandler.Serve, optionalAuth)

	// --- Avatars ---
	e.GET("/"+service.AvatarViewRoute, avatarHandler.View)
	v1 := e.Group("/v1/customers")
	v1.GET("/me/avatar", avatarHandler.Mine, requireAuth)
	v1.POST("/me/avatar", avatarHandler.Upload, requireAuth)
	v1.GET("/:id/avatar", avatarHandler.ByCustomer)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(deps.HealthChecks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

// requestLogger writes one access log entry per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil {
				evt = log.Warn().Err(v.Error)
			}
			evt.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
