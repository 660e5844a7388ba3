package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

// writeMappedError maps a domain error to an HTTP status/body and writes it.
func writeMappedError(c *gin.Context, err error) {
	status, msg := mapError(err)
	c.JSON(status, gin.H{"error": msg})
}

// mapError maps domain-layer errors to HTTP status codes and messages.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, tenant.ErrNoScope):
		return http.StatusBadRequest, "missing tenant/workspace scope"
	case errors.Is(err, memory.ErrNotFound):
		return http.StatusNotFound, "memory item not found"
	case errors.Is(err, memory.ErrPinnedAndArchived):
		return http.StatusConflict, err.Error()
	default:
		slog.Error("unexpected API error", "error", err)
		return http.StatusInternalServerError, "internal server error"
	}
}
