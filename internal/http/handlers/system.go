package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "transportdesk is running"})
}

// DBCheck pings the record store.
func (h *Handlers) DBCheck(c *gin.Context) {
	if h.Store == nil {
		respondError(c, http.StatusServiceUnavailable, "internal_error", "record store is not configured")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.Ping(ctx); err != nil {
		h.Log.Error("record store ping failed", zap.Error(err))
		respondError(c, http.StatusServiceUnavailable, "internal_error", "record store is unreachable")
		return
	}

	total := -1
	if list, err := h.Store.List(ctx); err == nil {
		total = len(list)
	}
	c.JSON(http.StatusOK, gin.H{"message": "record store OK", "requests_in_store": total})
}
