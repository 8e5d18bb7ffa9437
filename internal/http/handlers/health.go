package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

type CheckFunc func(ctx context.Context) error

type HealthHandler struct {
	checks map[string]CheckFunc
}

// NewHealthHandler builds liveness/readiness handlers; readiness runs every
// named check (db, cache, ...).
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *HealthHandler) Readyz(ctx *gin.Context) {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := gin.H{}

	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), time.Second)
		err := h.checks[name](checkCtx)
		cancel()

		if err != nil {
			failed[name] = err.Error()
		}
	}

	if len(failed) > 0 {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "failed": failed})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "ready"})
}
