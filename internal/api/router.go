package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/99minutos/formauth/internal/api/handler"
	"github.com/99minutos/formauth/internal/api/middleware"
	"github.com/99minutos/formauth/internal/core/domain"
	"github.com/99minutos/formauth/internal/core/ports"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// store is only used by the readiness probe.
func NewRouter(auth ports.AuthService, store ports.KeyValueStore, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(middleware.Metrics())

	authHandler := handler.NewAuthHandler(auth)
	userHandler := handler.NewUserHandler(auth)
	healthHandler := handler.NewHealthHandler(store)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.GET("/auth/me", authHandler.Me)
	e.GET("/auth/roles/:role", authHandler.HasRole)
	e.POST("/auth/password", authHandler.ChangePassword)

	// --- Admin routes ---
	admin := e.Group("/admin", middleware.RequireSession(auth), middleware.RBAC(domain.RoleAdmin))
	admin.GET("/users", userHandler.List)
	admin.POST("/users", userHandler.Create)
	admin.PATCH("/users/:username", userHandler.Update)
	admin.POST("/users/:username/activate", userHandler.Activate)
	admin.POST("/users/:username/deactivate", userHandler.Deactivate)

	// --- Probes and metrics (no session required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}
