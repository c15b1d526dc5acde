package http

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"github.com/labstack/echo/v4"
)

// Probe reports whether one dependency answers.
type Probe func(ctx context.Context) error

type Handler struct {
	probes map[string]Probe
}

// NewHandler takes the readiness probes by name ("db", "redis"); nil is fine.
func NewHandler(probes map[string]Probe) *Handler { return &Handler{probes: probes} }

// Health is liveness only and never touches a dependency.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// Ready runs every probe and answers 503 if any fails.
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	names := slices.Sorted(maps.Keys(h.probes))
	code, status := http.StatusOK, "ok"
	checks := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.probes[name](ctx); err != nil {
			checks[name] = "down: " + err.Error()
			code, status = http.StatusServiceUnavailable, "degraded"
			continue
		}
		checks[name] = "ok"
	}
	return c.JSON(code, map[string]any{"status": status, "checks": checks})
}
