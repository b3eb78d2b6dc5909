package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/formauth/internal/core/ports"
)

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	store ports.Pinger // nil when the store is local
}

// NewHealthHandler pings store on readiness checks when it implements
// ports.Pinger.
func NewHealthHandler(store ports.KeyValueStore) *HealthHandler {
	p, _ := store.(ports.Pinger)
	return &HealthHandler{store: p}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthHandler) Readiness(c echo.Context) error {
	deps := map[string]dependencyStatus{"storage": {Status: "ok"}}
	status, code := "ok", http.StatusOK

	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			deps["storage"] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	return c.JSON(code, readinessResponse{Status: status, Dependencies: deps})
}
