package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/shashiranjanraj/storefront/pkg/ctx"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	db Pinger
}

func NewHealthController(db Pinger) *HealthController {
	return &HealthController{db: db}
}

// Show handles GET /health.
func (c *HealthController) Show(cx *ctx.Context) {
	pingCtx, cancel := context.WithTimeout(cx.Context(), 2*time.Second)
	defer cancel()

	if c.db == nil || c.db.Ping(pingCtx) != nil {
		cx.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	cx.OK(map[string]string{"status": "ok"})
}
