package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/payrail/payout-gateway/internal/domain/payout"
	"github.com/payrail/payout-gateway/internal/infrastructure/logger"
	"github.com/payrail/payout-gateway/internal/interfaces/http/dto"
)

// Keys used to store tenant information in gin.Context
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"

	// maxTenantIDLength bounds header values to keep log and trace
	// attributes sane
	maxTenantIDLength = 64
)

// Tenant extracts the requesting tenant from the X-Tenant-ID header. The
// value is normalized (trimmed, lowercased) before use. The header is
// required on every public route; the unscoped wildcard query exists only
// at the service layer for internal callers and is never reachable through
// this middleware.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeaderKey)
		if len(raw) > maxTenantIDLength {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				errorResponse(c, dto.ErrCodeBadRequest, "X-Tenant-ID header too long"))
			return
		}

		tenantID := payout.NormalizeTenant(raw)
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				errorResponse(c, dto.ErrCodeBadRequest, "X-Tenant-ID header required"))
			return
		}

		c.Set(TenantIDKey, tenantID)

		// Propagate into the request context for the service layer
		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantID retrieves the normalized tenant ID from gin.Context.
// Returns the empty string for unscoped requests.
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}
