package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medbook-api/internal/httperr"
)

func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		h.Logger.Warn("health check failed", "error", err)
		httperr.Send(c, http.StatusServiceUnavailable, httperr.CodeUnavailable, "database unavailable")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok"})
}
