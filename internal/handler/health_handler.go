package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tienbob/Tubex-sub003/pkg/logger"
	"go.uber.org/zap"
)

// Check reports whether a dependency is reachable.
type Check func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]Check
}

// NewHealthHandler registers named dependency checks, e.g. "db" and "mongo".
func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Health reports liveness. With ?check=deps every registered dependency is
// pinged and any failure turns the response into a 503.
func (h *HealthHandler) Health(c echo.Context) error {
	response := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}
	if c.QueryParam("check") != "deps" {
		return c.JSON(http.StatusOK, response)
	}

	log := logger.FromEcho(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	deps := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			log.Error("Health check failed", zap.String("dependency", name), zap.Error(err))
			deps[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}
	response["dependencies"] = deps
	if status != http.StatusOK {
		response["status"] = "error"
	}
	return c.JSON(status, response)
}
