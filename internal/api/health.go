package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness and database connectivity
func (h *Handler) Health(c *gin.Context) {
	status, database, code := "ok", "connected", http.StatusOK
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			status, database, code = "degraded", "disconnected", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
		"database":  database,
		"uptime":    int64(time.Since(h.started).Seconds()),
	})
}
