package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

// securityHeaders sets standard security response headers.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		c.Next()
	}
}

// tenantHeader and workspaceHeader carry the caller's scope (spec §4.3:
// every storage/metric call is bound to a tenant/workspace pair). There is
// no Non-goal excluding auth here; this is the API-boundary equivalent of
// the scope a worker/scheduler binds from an IngestJob row.
const (
	tenantHeader    = "X-Tenant-ID"
	workspaceHeader = "X-Workspace-ID"
)

// tenantScope reads tenantHeader/workspaceHeader and binds a tenant.Scope to
// the request context, failing closed (400) when either is missing — the
// same fail-closed posture tenant.From enforces downstream.
func tenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		scope := tenant.Scope{
			Tenant:    c.GetHeader(tenantHeader),
			Workspace: c.GetHeader(workspaceHeader),
		}
		if !scope.Valid() {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "missing " + tenantHeader + "/" + workspaceHeader + " header",
			})
			return
		}
		ctx := tenant.With(c.Request.Context(), scope)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
